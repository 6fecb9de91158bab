package ledger

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// validAmount accepts positive amounts with at most two decimal places.
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(2))
}

func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}

func inr(d decimal.Decimal) string {
	if d.Equal(d.Truncate(0)) {
		return "₹" + d.StringFixed(0)
	}
	return "₹" + d.StringFixed(2)
}
