package pricing

import "github.com/shopspring/decimal"

// Split describes how a line quantity divides into bulk sets and single units.
type Split struct {
	BulkSets  int
	Remainder int
	Applied   bool
}

// SplitQuantity decides whether the bulk tier applies to qty units of item and,
// if so, how many whole sets and leftover units that makes. The tier applies only
// when membership is active, the item is bulk and qty reaches the threshold.
func SplitQuantity(item *Item, qty int, membership bool) Split {
	if item == nil || !membership || !item.IsBulk() || qty < item.bulkQuantity {
		return Split{Remainder: qty}
	}
	return Split{
		BulkSets:  qty / item.bulkQuantity,
		Remainder: qty % item.bulkQuantity,
		Applied:   true,
	}
}

// LineTotal returns the unrounded cost of qty units of item.
func LineTotal(item *Item, qty int, membership bool) decimal.Decimal {
	if item == nil || qty <= 0 {
		return decimal.Zero
	}
	split := SplitQuantity(item, qty, membership)
	total := item.price.Mul(decimal.NewFromInt(int64(split.Remainder)))
	if split.Applied {
		total = total.Add(item.bulkPrice.Mul(decimal.NewFromInt(int64(split.BulkSets))))
	}
	return total
}

// QuoteLine is the priced view of one cart order.
type QuoteLine struct {
	Name        string
	Quantity    int
	BulkSets    int
	Remainder   int
	BulkApplied bool
	// Regular is every unit at unit price; Charged is what the line actually costs.
	Regular decimal.Decimal
	Charged decimal.Decimal
}

// Quote breaks a cart total into its lines. Subtotal prices every unit
// individually; Savings is Subtotal minus Total and is negative when a bulk set
// costs more than its units would.
type Quote struct {
	Lines      []QuoteLine
	Membership bool
	Subtotal   decimal.Decimal
	Savings    decimal.Decimal
	Total      decimal.Decimal
}

// Compute prices the given orders. Accumulation is exact; only the three
// summary figures are rounded.
func Compute(orders []*Order, membership bool) Quote {
	q := Quote{Lines: make([]QuoteLine, 0, len(orders)), Membership: membership}
	subtotal := decimal.Zero
	total := decimal.Zero
	for _, o := range orders {
		if o == nil {
			continue
		}
		split := SplitQuantity(o.item, o.quantity, membership)
		regular := o.item.price.Mul(decimal.NewFromInt(int64(o.quantity)))
		charged := LineTotal(o.item, o.quantity, membership)
		q.Lines = append(q.Lines, QuoteLine{
			Name:        o.item.name,
			Quantity:    o.quantity,
			BulkSets:    split.BulkSets,
			Remainder:   split.Remainder,
			BulkApplied: split.Applied,
			Regular:     regular,
			Charged:     charged,
		})
		subtotal = subtotal.Add(regular)
		total = total.Add(charged)
	}
	q.Subtotal = RoundCurrency(subtotal)
	q.Total = RoundCurrency(total)
	q.Savings = q.Subtotal.Sub(q.Total)
	return q
}
