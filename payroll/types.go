// Package payroll implements payroll-specific compensation adjustments.
// It uses the generic adjustment engine with concrete kinds (increments,
// allowances, deductions, bonuses) and their rule-type catalogs.
package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/adjust"
)

// =============================================================================
// PAYROLL ADJUSTMENT KINDS
// =============================================================================

// Kind is the concrete adjustment kind for the payroll domain.
// Implements adjust.Kind.
type Kind string

func (k Kind) KindID() string     { return string(k) }
func (k Kind) KindDomain() string { return "payroll" }

// Compile-time check that Kind implements adjust.Kind
var _ adjust.Kind = Kind("")

const (
	KindIncrement Kind = "increment" // salary revision upward
	KindDecrement Kind = "decrement" // salary revision downward
	KindAllowance Kind = "allowance" // recurring or one-off earning on top of salary
	KindDeduction Kind = "deduction" // amount withheld from salary
	KindBonus     Kind = "bonus"     // one-off earning, typically festival/performance
)

// Register all payroll kinds with the engine registry
func init() {
	adjust.RegisterKind(KindIncrement)
	adjust.RegisterKind(KindDecrement)
	adjust.RegisterKind(KindAllowance)
	adjust.RegisterKind(KindDeduction)
	adjust.RegisterKind(KindBonus)
}

// Direction returns the adjustment direction implied by the kind.
// Deductions and decrements lower the baseline; everything else raises it.
func (k Kind) Direction() adjust.Direction {
	switch k {
	case KindDecrement, KindDeduction:
		return adjust.Decrement
	default:
		return adjust.Increment
	}
}

// =============================================================================
// PAYMENT ROUTING
// =============================================================================

const (
	PayByBank   = "bank"
	PayByCash   = "cash"
	PayByCheque = "cheque"
)

// =============================================================================
// RULE-TYPE CATALOG
// =============================================================================

// RuleType is one catalog entry: a deduction head, an allowance head, or a
// bonus type. Selecting an entry pre-fills the adjustment rule with the
// entry's calculation method and fixed value; the user may still override
// the magnitude before expansion.
type RuleType struct {
	ID   string
	Name string
	Kind Kind

	// CalculationMethod is how this head is applied by default.
	CalculationMethod adjust.Method

	// FixedAmount is the default absolute value, when method is amount.
	FixedAmount *decimal.Decimal

	// FixedPercentage is the default percentage of the baseline, when
	// method is percentage.
	FixedPercentage *decimal.Decimal
}

// Rule builds an adjustment rule from this catalog entry. A zero override
// keeps the entry's fixed value; a positive override replaces it.
func (rt RuleType) Rule(category adjust.Category, override decimal.Decimal) adjust.Rule {
	value := override
	if !value.IsPositive() {
		switch rt.CalculationMethod {
		case adjust.Amount:
			if rt.FixedAmount != nil {
				value = *rt.FixedAmount
			}
		case adjust.Percentage:
			if rt.FixedPercentage != nil {
				value = *rt.FixedPercentage
			}
		}
	}

	return adjust.Rule{
		Direction: rt.Kind.Direction(),
		Method:    rt.CalculationMethod,
		Value:     value,
		Category:  category,
	}
}
