/*
staging.go - The mutable, user-editable staging list

PURPOSE:
  The StagingList owns the generated line items for the duration of one
  creation/edit session. Each item is edited independently: amount
  override, auxiliary fields, even switching which catalog entry it
  references, without triggering recomputation of sibling items or
  re-derivation from the original rule.

WHY SNAPSHOT-THEN-EDIT:
  Binding items live to the rule would make one employee's manual override
  cascade through the whole batch. Snapshots keep per-employee overrides
  local. This design choice is deliberate and must be preserved.

OWNERSHIP:
  Mutated only by the single active session's synchronous handlers, never
  concurrently by two in-flight operations, so no locking is needed here.

SEE ALSO:
  - lineitem.go: The item type
  - expand.go: Producer of items
  - submit.go: Consumer at submission time
*/
package adjust

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// STAGING LIST
// =============================================================================

// StagingList is the in-session collection of line items awaiting
// submission. Order is insertion order and is preserved through grouping.
type StagingList struct {
	items []LineItem
}

func NewStagingList() *StagingList {
	return &StagingList{}
}

// Add appends expanded items. Duplicate identity filtering happens in the
// expander against Keys(); Add itself is a plain append.
func (s *StagingList) Add(items ...LineItem) {
	s.items = append(s.items, items...)
}

// Items returns a copy of the staged items in insertion order.
func (s *StagingList) Items() []LineItem {
	out := make([]LineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *StagingList) Len() int { return len(s.items) }

// Keys returns the identity keys currently staged, for duplicate skipping
// on the next expansion.
func (s *StagingList) Keys() map[IdentityKey]bool {
	keys := make(map[IdentityKey]bool, len(s.items))
	for _, li := range s.items {
		keys[li.Key()] = true
	}
	return keys
}

// Get returns a staged item by id.
func (s *StagingList) Get(id LineItemID) (LineItem, error) {
	for _, li := range s.items {
		if li.ID == id {
			return li, nil
		}
	}
	return LineItem{}, ErrItemNotFound
}

// Remove deletes a single item by id.
func (s *StagingList) Remove(id LineItemID) error {
	for i, li := range s.items {
		if li.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear discards all staged items (end of session or after submission).
func (s *StagingList) Clear() {
	s.items = nil
}

// =============================================================================
// FIELD EDITS - Each independent, no recomputation of siblings
// =============================================================================

// SetAmount overrides the computed amount for one item. A manual override
// is considered reviewed.
func (s *StagingList) SetAmount(id LineItemID, amount decimal.Decimal) error {
	return s.update(id, func(li *LineItem) {
		li.Amount = amount
		li.Unresolved = false
		li.NeedsReview = false
	})
}

// SetRuleType switches which catalog entry the item references.
func (s *StagingList) SetRuleType(id LineItemID, ruleTypeID string) error {
	return s.update(id, func(li *LineItem) { li.RuleTypeID = ruleTypeID })
}

// SetTaxPercent sets the flat tax percentage auxiliary field.
func (s *StagingList) SetTaxPercent(id LineItemID, pct decimal.Decimal) error {
	return s.update(id, func(li *LineItem) { li.TaxPercent = pct })
}

// SetNotes sets the free-text note.
func (s *StagingList) SetNotes(id LineItemID, notes string) error {
	return s.update(id, func(li *LineItem) { li.Notes = notes })
}

// SetPaymentMode sets the payment routing auxiliary field.
func (s *StagingList) SetPaymentMode(id LineItemID, mode string) error {
	return s.update(id, func(li *LineItem) { li.PaymentMode = mode })
}

// Recompute replaces one unresolved item's baseline and recomputes its
// amount from the stored rule snapshot. Only the addressed item changes.
func (s *StagingList) Recompute(id LineItemID, baseline decimal.Decimal) error {
	return s.update(id, func(li *LineItem) {
		li.Baseline = baseline
		li.Amount, li.NeedsReview = computeWithFallback(baseline, li.RuleSnapshot)
		li.Unresolved = false
	})
}

func (s *StagingList) update(id LineItemID, fn func(*LineItem)) error {
	for i := range s.items {
		if s.items[i].ID == id {
			fn(&s.items[i])
			return nil
		}
	}
	return ErrItemNotFound
}
