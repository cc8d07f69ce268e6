/*
calc.go - Forward and reverse adjustment computation

PURPOSE:
  Pure arithmetic shared by the creation and edit flows. Forward
  computation turns a baseline and a rule into the resulting amount.
  Reverse computation reconstructs the prior baseline from a stored
  post-adjustment amount, used when editing an existing line item.

BOTH FUNCTIONS ARE PURE:
  Deterministic, side-effect free, no network or storage dependency.
  They are exercised directly by unit tests.

EDGE CASES:
  - Percentage against an unresolved or non-positive baseline cannot
    proceed meaningfully. The expander falls back to the raw baseline
    (no-op adjustment) and flags the item for manual correction rather
    than silently producing zero. See expand.go.
  - A 100 percent decrement makes the reverse computation divide by
    zero. Rule.Validate rejects the configuration; ReverseBaseline
    additionally returns ErrReverseDivideByZero when called directly.

SEE ALSO:
  - types.go: Rule definition and validation
  - expand.go: Caller of Compute during batch generation
*/
package adjust

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// FORWARD COMPUTATION
// =============================================================================

// Compute applies a rule to a baseline and returns the resulting amount.
//
//	Amount method:      baseline ± value
//	Percentage method:  baseline × (1 ± value/100)
//
// The rule is assumed validated. A Decrement may drive the result below
// zero; the engine allows it and the expander flags the item for review
// instead of clamping (a large fixed deduction against a small baseline is
// a data problem for a human, not something to silently rewrite).
func Compute(baseline decimal.Decimal, r Rule) decimal.Decimal {
	switch r.Method {
	case Amount:
		switch r.Direction {
		case Increment:
			return baseline.Add(r.Value)
		case Decrement:
			return baseline.Sub(r.Value)
		}
	case Percentage:
		ratio := r.Value.Div(hundred)
		switch r.Direction {
		case Increment:
			return baseline.Mul(decimal.NewFromInt(1).Add(ratio))
		case Decrement:
			return baseline.Mul(decimal.NewFromInt(1).Sub(ratio))
		}
	}
	// Unreachable for validated rules.
	return baseline
}

// =============================================================================
// REVERSE COMPUTATION
// =============================================================================

// ReverseBaseline reconstructs the pre-adjustment baseline from a stored
// post-adjustment amount. Used only when editing a previously created line
// item: the stored amount is the result of the rule, and the prior baseline
// must be recovered for display and for recomputation if the user changes
// the rule value.
//
//	Amount method:      current ∓ value
//	Percentage method:  current / (1 ± value/100)
func ReverseBaseline(current decimal.Decimal, r Rule) (decimal.Decimal, error) {
	switch r.Method {
	case Amount:
		switch r.Direction {
		case Increment:
			return current.Sub(r.Value), nil
		case Decrement:
			return current.Add(r.Value), nil
		}
	case Percentage:
		ratio := r.Value.Div(hundred)
		var divisor decimal.Decimal
		switch r.Direction {
		case Increment:
			divisor = decimal.NewFromInt(1).Add(ratio)
		case Decrement:
			divisor = decimal.NewFromInt(1).Sub(ratio)
		}
		if divisor.IsZero() {
			return decimal.Zero, ErrReverseDivideByZero
		}
		return current.Div(divisor), nil
	}
	return current, nil
}
