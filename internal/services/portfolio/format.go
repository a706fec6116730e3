package portfolio

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Placeholder is rendered for values that are not computable
const Placeholder = "-"

// FormatMoney renders an amount in the given ISO currency, e.g. "$1,234.50".
// Unknown currencies fall back to a plain two-decimal number.
func FormatMoney(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return decimal.NewFromFloat(amount).StringFixed(2)
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

// FormatMoneyOpt renders an optional amount
func FormatMoneyOpt(amount *float64, currency string) string {
	if amount == nil {
		return Placeholder
	}
	return FormatMoney(*amount, currency)
}

// FormatPercentOpt renders an optional signed percentage, e.g. "+1.25%"
func FormatPercentOpt(pct *float64) string {
	if pct == nil {
		return Placeholder
	}
	return fmt.Sprintf("%+.2f%%", *pct)
}

// FormatQuantity trims trailing zeros from a quantity
func FormatQuantity(q float64) string {
	return decimal.NewFromFloat(q).String()
}
