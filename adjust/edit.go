package adjust

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// EDIT DRAFT - Editing a previously persisted adjustment
// =============================================================================

// EditDraft wraps an existing record being edited. The stored amount is the
// post-adjustment value, so the prior baseline is reverse-derived once at
// open time; changing the rule value then recomputes the amount from that
// reconstructed baseline.
type EditDraft struct {
	Item     LineItem
	Baseline decimal.Decimal
}

// NewEditDraft reverse-derives the baseline from the stored amount and the
// rule snapshot. A 100 percent decrement snapshot cannot be reversed; such
// rules are rejected at validation time, but a record predating that guard
// still surfaces the error explicitly instead of propagating infinity.
func NewEditDraft(item LineItem) (*EditDraft, error) {
	baseline, err := ReverseBaseline(item.Amount, item.RuleSnapshot)
	if err != nil {
		return nil, err
	}
	return &EditDraft{Item: item, Baseline: baseline}, nil
}

// SetRuleValue updates the rule magnitude and recomputes the amount from
// the reconstructed baseline. The draft's rule replaces the snapshot; the
// item is its own record and no sibling is affected.
func (d *EditDraft) SetRuleValue(value decimal.Decimal) error {
	rule := d.Item.RuleSnapshot
	rule.Value = value
	if err := rule.Validate(); err != nil {
		return err
	}
	d.Item.RuleSnapshot = rule
	d.Item.Amount, d.Item.NeedsReview = computeWithFallback(d.Baseline, rule)
	return nil
}

// SetAmount overrides the amount directly without touching the rule.
func (d *EditDraft) SetAmount(amount decimal.Decimal) {
	d.Item.Amount = amount
	d.Item.NeedsReview = false
}
