package cart

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/storecart/internal/pricing"
)

// money renders an amount the way the API returns it: a decimal string with two places.
func money(d decimal.Decimal) string {
	return pricing.FormatAmount(d)
}
