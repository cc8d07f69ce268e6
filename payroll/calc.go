package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/adjust"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// AUXILIARY PAYROLL ARITHMETIC
// =============================================================================

// NetAmount applies a flat tax percentage to a line-item amount. Tax tables
// are out of scope; the percentage is supplied by the caller and applied as
// is. A zero percentage returns the amount unchanged.
func NetAmount(amount, taxPercent decimal.Decimal) decimal.Decimal {
	if !taxPercent.IsPositive() {
		return amount
	}
	tax := amount.Mul(taxPercent.Div(hundred))
	return amount.Sub(tax)
}

// Totals summarizes a set of staged line items the way a payslip would:
// earnings (increment/allowance/bonus amounts), deductions, and the net
// effect. Unresolved items are excluded; their amounts are not numbers yet.
func Totals(items []adjust.LineItem) (earnings, deductions, net decimal.Decimal) {
	for _, li := range items {
		if li.Unresolved {
			continue
		}
		kind, ok := li.Kind.(Kind)
		if !ok {
			kind = Kind(li.Kind.KindID())
		}
		switch kind.Direction() {
		case adjust.Increment:
			earnings = earnings.Add(li.Amount)
		case adjust.Decrement:
			deductions = deductions.Add(li.Amount)
		}
	}
	net = earnings.Sub(deductions)
	return earnings, deductions, net
}
