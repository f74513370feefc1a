package pricing

import "github.com/shopspring/decimal"

// CurrencyPlaces is the number of fractional digits totals are rounded to.
const CurrencyPlaces = 2

// RoundCurrency rounds half-to-even at CurrencyPlaces.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(CurrencyPlaces)
}

// FormatAmount renders d rounded half-to-even with exactly two fractional digits, e.g. "999.99".
func FormatAmount(d decimal.Decimal) string {
	return RoundCurrency(d).StringFixed(CurrencyPlaces)
}

// FormatMoney renders a dollar amount with two fractional digits, e.g. "$999.99".
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + FormatAmount(d.Neg())
	}
	return "$" + FormatAmount(d)
}
