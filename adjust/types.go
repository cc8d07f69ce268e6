/*
Package adjust provides the core compensation adjustment engine.

PURPOSE:
  This package contains domain-agnostic types and algorithms for turning a
  declarative adjustment rule (fixed amount vs. percentage of a baseline,
  increase vs. decrease, one-off vs. recurring) into concrete per-employee,
  per-period monetary line items. Whether the adjustment is a salary
  increment, an allowance, a deduction, or a bonus, the same engine handles
  computation, batch expansion, staging, grouping, and submission.

KEY CONCEPTS IN THIS FILE (types.go):
  - Rule: The declarative description of an adjustment
  - Direction/Method/Category: Closed sum types replacing string-keyed
    conditionals (exhaustive switches, no unreachable branches)
  - EmployeeID/LineItemID: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Snapshots: Line items are independent of the rule that created them
  3. Type Safety: Strong typing for IDs prevents mixing employee/item IDs
  4. Purity: Calculator functions are deterministic and side-effect free

USAGE:
  rule := adjust.Rule{
      Direction: adjust.Increment,
      Method:    adjust.Percentage,
      Value:     decimal.NewFromInt(10),
      Category:  adjust.OneTime,
  }
  if err := rule.Validate(); err != nil { ... }
  amount := adjust.Compute(baseline, rule)

SEE ALSO:
  - calc.go: Forward and reverse computation
  - expand.go: Cross-product batch expansion
  - staging.go: The user-editable staging list
  - submit.go: Period grouping and concurrent submission
*/
package adjust

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type LineItemID string

// =============================================================================
// RULE VARIANTS - Closed sum types with exhaustive matching
// =============================================================================

// Direction states whether an adjustment raises or lowers the baseline.
type Direction string

const (
	Increment Direction = "increment"
	Decrement Direction = "decrement"
)

func (d Direction) Valid() bool { return d == Increment || d == Decrement }

// Method states how the rule value is applied to the baseline.
type Method string

const (
	Amount     Method = "amount"     // value is an absolute currency amount
	Percentage Method = "percentage" // value is a percentage of the baseline
)

func (m Method) Valid() bool { return m == Amount || m == Percentage }

// Category states whether the rule applies once or every period.
type Category string

const (
	OneTime   Category = "one_time"  // expands against explicitly chosen periods
	Recurring Category = "recurring" // not bound to a period at authoring time
)

func (c Category) Valid() bool { return c == OneTime || c == Recurring }

// =============================================================================
// RULE - Declarative adjustment description
// =============================================================================

// Rule describes a compensation adjustment. A Rule is only ever an input to
// expansion; once line items exist they carry their own snapshot and editing
// the rule does not retroactively change them.
type Rule struct {
	Direction Direction
	Method    Method
	Value     decimal.Decimal
	Category  Category
}

// Validate checks the rule before any expansion or network work happens.
//
// INVARIANTS:
//   - Value > 0
//   - Percentage values are in (0, 100]
//   - Decrement of 100 percent is rejected: its reverse computation
//     (reconstructing the baseline from a stored amount) divides by zero,
//     so the configuration is refused up front instead of guessed at later.
func (r Rule) Validate() error {
	if !r.Direction.Valid() {
		return &RuleError{Field: "direction", Reason: "must be increment or decrement"}
	}
	if !r.Method.Valid() {
		return &RuleError{Field: "method", Reason: "must be amount or percentage"}
	}
	if !r.Category.Valid() {
		return &RuleError{Field: "category", Reason: "must be one_time or recurring"}
	}
	if !r.Value.IsPositive() {
		return &RuleError{Field: "value", Reason: "must be greater than zero"}
	}
	if r.Method == Percentage {
		if r.Value.GreaterThan(decimal.NewFromInt(100)) {
			return &RuleError{Field: "value", Reason: "percentage must not exceed 100"}
		}
		if r.Direction == Decrement && r.Value.Equal(decimal.NewFromInt(100)) {
			return &RuleError{Field: "value", Reason: "100 percent decrement cannot be reversed"}
		}
	}
	return nil
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

func NewMoney(v float64) decimal.Decimal    { return decimal.NewFromFloat(v) }
func NewMoneyFromInt(v int) decimal.Decimal { return decimal.NewFromInt(int64(v)) }

// MustParseMoney parses a decimal string, returning zero on failure.
func MustParseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
