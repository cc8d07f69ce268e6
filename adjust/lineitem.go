/*
lineitem.go - The per-employee, per-period adjustment line item

PURPOSE:
  A LineItem is one concrete computed adjustment: employee X gets amount Y
  in period Z. Identity is the (employee, period, kind) triple; the id is
  derived deterministically from that triple plus a generation counter so
  repeated expansions in the same session never collide.

SNAPSHOT SEMANTICS:
  Once created, a line item is a snapshot. It carries its own copy of the
  rule that produced it and is edited independently; changing the
  originating rule after generation does not retroactively change staged
  items. This allows per-employee overrides (a manually adjusted amount for
  one employee in a batch) without cascading to siblings.

SEE ALSO:
  - expand.go: Creates line items
  - staging.go: Owns and mutates them
*/
package adjust

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTITY KEY
// =============================================================================

// IdentityKey is the logical identity of a line item within a session.
// Two expansions producing the same key target the same adjustment; the
// second is skipped, not duplicated.
type IdentityKey struct {
	EmployeeID EmployeeID
	Period     PeriodKey
	Kind       string
}

// =============================================================================
// LINE ITEM
// =============================================================================

// LineItem is one staged adjustment awaiting submission.
type LineItem struct {
	ID         LineItemID
	EmployeeID EmployeeID
	Kind       Kind
	Period     PeriodKey

	// RuleSnapshot is the rule as it was at generation time. Editing the
	// originating rule afterwards does not touch this copy.
	RuleSnapshot Rule

	// Baseline is the employee's pre-adjustment reference amount at
	// generation time. Zero when Unresolved.
	Baseline decimal.Decimal

	// Amount is the computed post-adjustment value. Independently editable
	// after creation; never recomputed automatically.
	Amount decimal.Decimal

	// Unresolved marks items whose baseline lookup failed or is still
	// pending. Unresolved items are excluded from amount computation until
	// retried and must never be treated as zero.
	Unresolved bool

	// NeedsReview flags amounts a human should look at: percentage rules
	// against a non-positive baseline, or decrements below zero.
	NeedsReview bool

	// Auxiliary fields. The engine carries these untouched; domain
	// packages interpret them.
	RuleTypeID  string // catalog entry reference (head / type id)
	TaxPercent  decimal.Decimal
	Notes       string
	PaymentMode string

	CreatedAt time.Time
}

// Key returns the logical identity of this item.
func (li LineItem) Key() IdentityKey {
	return IdentityKey{EmployeeID: li.EmployeeID, Period: li.Period, Kind: li.Kind.KindID()}
}

// newLineItemID derives a deterministic id from the identity triple plus a
// generation disambiguator. A remove-then-re-expand in a later generation
// yields a distinct id for the same triple.
func newLineItemID(key IdentityKey, generation int) LineItemID {
	return LineItemID(fmt.Sprintf("%s:%s:%s:g%d", key.Kind, key.EmployeeID, key.Period, generation))
}
