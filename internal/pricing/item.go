package pricing

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Item describes a purchasable good. A positive bulk quantity means the item
// can be bought in sets of that size for the flat bulk price.
type Item struct {
	name         string
	price        decimal.Decimal
	bulkQuantity int
	bulkPrice    decimal.Decimal
}

// NewItem constructs an item sold only at its unit price.
func NewItem(name string, price decimal.Decimal) (*Item, error) {
	return NewBulkItem(name, price, 0, decimal.Zero)
}

// NewBulkItem constructs an item with a bulk tier of bulkQuantity units for bulkPrice.
func NewBulkItem(name string, price decimal.Decimal, bulkQuantity int, bulkPrice decimal.Decimal) (*Item, error) {
	if name == "" {
		return nil, fmt.Errorf("item name cannot be empty: %w", ErrInvalidArgument)
	}
	if price.IsNegative() || bulkQuantity < 0 || bulkPrice.IsNegative() {
		return nil, fmt.Errorf("prices and quantities must not be negative: %w", ErrInvalidArgument)
	}
	return &Item{
		name:         name,
		price:        price,
		bulkQuantity: bulkQuantity,
		bulkPrice:    bulkPrice,
	}, nil
}

// Name returns the item name.
func (i *Item) Name() string { return i.name }

// Price returns the unit price.
func (i *Item) Price() decimal.Decimal { return i.price }

// BulkQuantity returns the bulk threshold, or 0 when no tier is offered.
func (i *Item) BulkQuantity() int { return i.bulkQuantity }

// BulkPrice returns the flat price of one bulk set.
func (i *Item) BulkPrice() decimal.Decimal { return i.bulkPrice }

// IsBulk reports whether the item offers a bulk tier. The bulk price plays no part.
func (i *Item) IsBulk() bool { return i.bulkQuantity > 0 }

// Equal reports whether both items carry the same name, prices and bulk quantity.
// Prices compare numerically, so 25.0 equals 25.00.
func (i *Item) Equal(other *Item) bool {
	if i == nil || other == nil {
		return i == other
	}
	if i == other {
		return true
	}
	return i.name == other.name &&
		i.price.Equal(other.price) &&
		i.bulkQuantity == other.bulkQuantity &&
		i.bulkPrice.Equal(other.bulkPrice)
}

// Key returns a string that is identical for equal items and can index maps.
func (i *Item) Key() string {
	if i == nil {
		return ""
	}
	// decimal.String drops trailing zeros, keeping the key consistent with Equal.
	return strconv.Quote(i.name) + "|" + i.price.String() + "|" +
		strconv.Itoa(i.bulkQuantity) + "|" + i.bulkPrice.String()
}

// String renders the item as "Mouse, $25.00 (12 for $200.00)".
func (i *Item) String() string {
	if i == nil {
		return "<nil>"
	}
	out := i.name + ", " + FormatMoney(i.price)
	if i.IsBulk() {
		out += fmt.Sprintf(" (%d for %s)", i.bulkQuantity, FormatMoney(i.bulkPrice))
	}
	return out
}
