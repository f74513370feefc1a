package pricing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// CartSize reports the number of distinct orders and the sum of their quantities.
type CartSize struct {
	ItemOrderCount int
	ItemCount      int
}

// Cart holds at most one order per distinct item plus a membership flag.
// The zero value is an empty cart without membership. A Cart is safe for
// concurrent use.
type Cart struct {
	mu         sync.RWMutex
	orders     []*Order
	membership bool
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// AddResult describes what Add did to the cart.
type AddResult int

const (
	// Ignored means a zero quantity was given for an item not in the cart.
	Ignored AddResult = iota
	// Added means a new line was inserted.
	Added
	// Replaced means an existing line for the item was swapped for the new order.
	Replaced
	// Removed means a zero quantity dropped an existing line.
	Removed
)

// String implements fmt.Stringer.
func (r AddResult) String() string {
	switch r {
	case Added:
		return "added"
	case Replaced:
		return "replaced"
	case Removed:
		return "removed"
	default:
		return "ignored"
	}
}

// Add places order in the cart, replacing any existing order for an equal item.
// Quantities are never accumulated. The new order is kept only when its quantity
// is positive, so a zero quantity removes the item.
func (c *Cart) Add(order *Order) error {
	_, err := c.Put(order)
	return err
}

// Put behaves like Add and also reports which change was made.
func (c *Cart) Put(order *Order) (AddResult, error) {
	if order == nil {
		return Ignored, fmt.Errorf("order is required: %w", ErrNilReference)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	existed := false
	kept := c.orders[:0]
	for _, o := range c.orders {
		if o.item.Equal(order.item) {
			existed = true
			continue
		}
		kept = append(kept, o)
	}
	// clear the tail so dropped orders can be collected
	for i := len(kept); i < len(c.orders); i++ {
		c.orders[i] = nil
	}
	c.orders = kept

	if order.quantity <= 0 {
		if existed {
			return Removed, nil
		}
		return Ignored, nil
	}
	c.orders = append(c.orders, order)
	if existed {
		return Replaced, nil
	}
	return Added, nil
}

// SetMembership toggles membership pricing for later total calculations.
func (c *Cart) SetMembership(active bool) {
	c.mu.Lock()
	c.membership = active
	c.mu.Unlock()
}

// Membership reports whether membership pricing is active.
func (c *Cart) Membership() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.membership
}

// CalculateTotal returns the cart cost rounded half-to-even to two places.
// An empty cart costs 0.00.
func (c *Cart) CalculateTotal() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	total := decimal.Zero
	for _, o := range c.orders {
		total = total.Add(LineTotal(o.item, o.quantity, c.membership))
	}
	return RoundCurrency(total)
}

// Quote returns the line-by-line breakdown of the current total.
func (c *Cart) Quote() Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Compute(c.orders, c.membership)
}

// Clear removes every order. Membership is left untouched.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.orders = nil
	c.mu.Unlock()
}

// Size counts orders and units.
func (c *Cart) Size() CartSize {
	c.mu.RLock()
	defer c.mu.RUnlock()
	size := CartSize{ItemOrderCount: len(c.orders)}
	for _, o := range c.orders {
		size.ItemCount += o.quantity
	}
	return size
}

// Orders returns a snapshot of the orders in insertion order. Replacing an
// order moves it to the end.
func (c *Cart) Orders() []*Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Order, len(c.orders))
	copy(out, c.orders)
	return out
}

// String lists the orders and the membership flag.
func (c *Cart) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	parts := make([]string, 0, len(c.orders))
	for _, o := range c.orders {
		parts = append(parts, o.String())
	}
	return fmt.Sprintf("Cart{orders=[%s], membership=%t}", strings.Join(parts, ", "), c.membership)
}
