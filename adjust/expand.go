/*
expand.go - Cross-product batch expansion

PURPOSE:
  Given a rule, a set of selected employees, and a set of target periods,
  produce the cross product of line items, skipping combinations already
  staged in the same session. The skipped count is reported so the caller
  can tell the user how many were added vs. already present.

ALGORITHM:
  for each (employee, period) in employeeIDs × periods:
      key := (employee, period, kind)
      if key in existing, or produced earlier in this call: skip++
      else: compute amount from resolved baseline, append line item

  Generation order follows employeeIDs × periods iteration order, but the
  order is not semantically significant; no item depends on another.

EDGE CASES:
  - Zero employees selected: validation error, no expansion attempted.
  - Zero periods for a one-time rule: validation error.
  - A recurring rule ignores explicit period selection entirely and always
    expands against exactly one synthetic current period per employee.
  - A failed or pending baseline yields an Unresolved item, excluded from
    amount computation until retried; it never becomes a silent zero.
  - Percentage against a non-positive baseline falls back to the raw
    baseline (no-op) and flags the item for manual correction.

SEE ALSO:
  - calc.go: Amount computation
  - resolver.go: Baseline resolution
  - staging.go: Where the produced items live
*/
package adjust

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EXPANDER
// =============================================================================

// ExpandInput is one expansion request.
type ExpandInput struct {
	Rule        Rule
	Kind        Kind
	EmployeeIDs []EmployeeID
	Periods     []PeriodKey

	// Optional auxiliary defaults copied onto every generated item.
	RuleTypeID  string
	TaxPercent  decimal.Decimal
	PaymentMode string
}

// ExpandResult reports what one expansion produced.
type ExpandResult struct {
	Added      []LineItem
	Skipped    int          // combinations already staged
	Unresolved []EmployeeID // employees whose baseline lookup failed
}

// Expander produces line items from rules. One expander lives per session;
// its generation counter disambiguates line-item ids across repeated
// expansions.
type Expander struct {
	Resolver   *Resolver
	generation int
}

func NewExpander(resolver *Resolver) *Expander {
	return &Expander{Resolver: resolver}
}

// Expand validates the input, resolves every selected employee's baseline
// concurrently, then walks the cross product. existing holds the identity
// keys already staged in this session.
func (e *Expander) Expand(ctx context.Context, in ExpandInput, existing map[IdentityKey]bool) (ExpandResult, error) {
	if err := in.Rule.Validate(); err != nil {
		return ExpandResult{}, err
	}
	if len(in.EmployeeIDs) == 0 {
		return ExpandResult{}, ErrNoEmployees
	}

	periods := in.Periods
	if in.Rule.Category == Recurring {
		// Recurring rules are unbound at authoring time: one synthetic
		// current period so at least one line item always exists.
		periods = []PeriodKey{CurrentPeriod()}
	} else if len(periods) == 0 {
		return ExpandResult{}, ErrNoPeriods
	}

	e.generation++
	baselines := e.Resolver.ResolveAll(ctx, in.EmployeeIDs)

	var result ExpandResult
	unresolvedSeen := make(map[EmployeeID]bool)
	produced := make(map[IdentityKey]bool)
	now := time.Now()

	for _, empID := range in.EmployeeIDs {
		for _, period := range periods {
			key := IdentityKey{EmployeeID: empID, Period: period, Kind: in.Kind.KindID()}
			// A duplicated employee selection would repeat the key within
			// this call; count it as skipped like an already-staged one.
			if existing[key] || produced[key] {
				result.Skipped++
				continue
			}
			produced[key] = true

			item := LineItem{
				ID:           newLineItemID(key, e.generation),
				EmployeeID:   empID,
				Kind:         in.Kind,
				Period:       period,
				RuleSnapshot: in.Rule,
				RuleTypeID:   in.RuleTypeID,
				TaxPercent:   in.TaxPercent,
				PaymentMode:  in.PaymentMode,
				CreatedAt:    now,
			}

			b := baselines[empID]
			switch b.State {
			case BaselineResolved:
				item.Baseline = b.Value
				item.Amount, item.NeedsReview = computeWithFallback(b.Value, in.Rule)
			default:
				// Failed or still pending: defer, never treat as zero.
				item.Unresolved = true
				item.NeedsReview = true
				if !unresolvedSeen[empID] {
					unresolvedSeen[empID] = true
					result.Unresolved = append(result.Unresolved, empID)
				}
			}

			result.Added = append(result.Added, item)
		}
	}

	return result, nil
}

// computeWithFallback applies the rule, falling back to the raw baseline
// when a percentage cannot proceed meaningfully. The review flag is set for
// the fallback and for decrements driven below zero.
func computeWithFallback(baseline decimal.Decimal, r Rule) (amount decimal.Decimal, needsReview bool) {
	if r.Method == Percentage && !baseline.IsPositive() {
		return baseline, true
	}
	amount = Compute(baseline, r)
	if r.Direction == Decrement && amount.IsNegative() {
		return amount, true
	}
	return amount, false
}
