package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewItemStoresFields(t *testing.T) {
	item, err := NewItem("Laptop", dec("999.99"))
	require.NoError(t, err)
	require.Equal(t, "Laptop", item.Name())
	require.True(t, item.Price().Equal(dec("999.99")))
	require.Equal(t, 0, item.BulkQuantity())
	require.True(t, item.BulkPrice().IsZero())
	require.False(t, item.IsBulk())
}

func TestNewBulkItemStoresFields(t *testing.T) {
	item, err := NewBulkItem("Mouse", dec("25.00"), 12, dec("200.00"))
	require.NoError(t, err)
	require.Equal(t, 12, item.BulkQuantity())
	require.True(t, item.BulkPrice().Equal(dec("200")))
	require.True(t, item.IsBulk())
}

func TestNewItemRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name     string
		itemName string
		price    string
		bulkQty  int
		bulk     string
	}{
		{name: "empty name", itemName: "", price: "1.00", bulk: "0"},
		{name: "negative price", itemName: "Pen", price: "-0.01", bulk: "0"},
		{name: "negative bulk quantity", itemName: "Pen", price: "1.00", bulkQty: -1, bulk: "0"},
		{name: "negative bulk price", itemName: "Pen", price: "1.00", bulkQty: 3, bulk: "-2.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item, err := NewBulkItem(tc.itemName, dec(tc.price), tc.bulkQty, dec(tc.bulk))
			require.Nil(t, item)
			require.True(t, errors.Is(err, ErrInvalidArgument), "unexpected error %v", err)
		})
	}
}

func TestIsBulkIgnoresBulkPrice(t *testing.T) {
	free, err := NewBulkItem("Sticker", dec("0.50"), 10, decimal.Zero)
	require.NoError(t, err)
	require.True(t, free.IsBulk())

	priced, err := NewBulkItem("Sticker", dec("0.50"), 0, dec("3.00"))
	require.NoError(t, err)
	require.False(t, priced.IsBulk())
}

func TestItemEqualityIsByValue(t *testing.T) {
	a, _ := NewBulkItem("Mouse", dec("25.00"), 12, dec("200.00"))
	b, _ := NewBulkItem("Mouse", dec("25.0"), 12, dec("200"))
	c, _ := NewBulkItem("Mouse", dec("25.00"), 10, dec("200.00"))
	d, _ := NewItem("Mouse", dec("25.00"))

	require.NotSame(t, a, b)
	require.True(t, a.Equal(b))
	require.Equal(t, a.Key(), b.Key())
	require.False(t, a.Equal(c))
	require.NotEqual(t, a.Key(), c.Key())
	require.False(t, a.Equal(d))
	require.False(t, a.Equal(nil))
}

func TestItemString(t *testing.T) {
	mouse, _ := NewBulkItem("Mouse", dec("25"), 12, dec("200"))
	laptop, _ := NewItem("Laptop", dec("999.99"))
	require.Equal(t, "Mouse, $25.00 (12 for $200.00)", mouse.String())
	require.Equal(t, "Laptop, $999.99", laptop.String())
}
