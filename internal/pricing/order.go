package pricing

import "fmt"

// Order pairs an item with a requested quantity. The item is shared, not copied.
type Order struct {
	item     *Item
	quantity int
}

// NewOrder constructs an order. A zero quantity is accepted here; the cart decides what it means.
func NewOrder(item *Item, quantity int) (*Order, error) {
	if item == nil {
		return nil, fmt.Errorf("order item is required: %w", ErrNilReference)
	}
	if quantity < 0 {
		return nil, fmt.Errorf("quantity cannot be negative: %w", ErrInvalidArgument)
	}
	return &Order{item: item, quantity: quantity}, nil
}

// Item returns the ordered item.
func (o *Order) Item() *Item { return o.item }

// Quantity returns the ordered quantity.
func (o *Order) Quantity() int { return o.quantity }

// String renders the order as "Item: Mouse, Quantity: 12".
func (o *Order) String() string {
	if o == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Item: %s, Quantity: %d", o.item.Name(), o.quantity)
}
