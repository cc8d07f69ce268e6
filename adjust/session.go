/*
session.go - Session-scoped state for one creation/edit workflow

PURPOSE:
  Replaces scattered form state with one explicit session object: the
  resolver cache, the staging list, and the expansion generation all live
  here and die together. Handlers drive the session through its methods;
  nothing business-shaped hides in UI state.

LIFECYCLE:
  NewSession → Stage (repeatable) → per-item edits → Submit → Close.
  The staging list is cleared only when every period group persisted;
  after a partial failure the items remain staged so the user can retry
  (the correlation ids on the retried groups let the boundary deduplicate).

SEE ALSO:
  - expand.go, staging.go, submit.go: The pieces this wires together
*/
package adjust

import (
	"context"

	"github.com/google/uuid"
)

// =============================================================================
// SESSION
// =============================================================================

// Session owns the state of one adjustment creation/edit workflow.
type Session struct {
	Resolver *Resolver
	Staging  *StagingList

	expander    *Expander
	coordinator *Coordinator

	// Correlation ids pinned per period so a retried submission re-sends
	// the same id and the boundary can deduplicate.
	correlations map[PeriodKey]string
}

// NewSession builds a session over the two external collaborators.
func NewSession(dir Directory, sub Submitter) *Session {
	resolver := NewResolver(dir)
	return &Session{
		Resolver:     resolver,
		Staging:      NewStagingList(),
		expander:     NewExpander(resolver),
		coordinator:  NewCoordinator(sub),
		correlations: make(map[PeriodKey]string),
	}
}

// Stage expands a rule against the current selection and appends the net
// new items to the staging list. Combinations already staged are skipped
// and counted in the result.
func (s *Session) Stage(ctx context.Context, in ExpandInput) (ExpandResult, error) {
	result, err := s.expander.Expand(ctx, in, s.Staging.Keys())
	if err != nil {
		return ExpandResult{}, err
	}
	s.Staging.Add(result.Added...)
	return result, nil
}

// RetryUnresolved refetches baselines for employees whose lookup failed and
// recomputes only their items from the stored rule snapshots. Items whose
// lookup fails again stay unresolved.
func (s *Session) RetryUnresolved(ctx context.Context) (stillUnresolved []EmployeeID) {
	var retry []EmployeeID
	seen := make(map[EmployeeID]bool)
	for _, li := range s.Staging.Items() {
		if li.Unresolved && !seen[li.EmployeeID] {
			seen[li.EmployeeID] = true
			retry = append(retry, li.EmployeeID)
			s.Resolver.Invalidate(li.EmployeeID)
		}
	}
	if len(retry) == 0 {
		return nil
	}

	baselines := s.Resolver.ResolveAll(ctx, retry)
	for _, li := range s.Staging.Items() {
		if !li.Unresolved {
			continue
		}
		b := baselines[li.EmployeeID]
		if b.State != BaselineResolved {
			continue
		}
		// Recompute addresses exactly one item; siblings are untouched.
		_ = s.Staging.Recompute(li.ID, b.Value)
	}

	for id, b := range baselines {
		if b.State != BaselineResolved {
			stillUnresolved = append(stillUnresolved, id)
		}
	}
	return stillUnresolved
}

// Submit groups the staging list by period and fans the groups out to the
// persistence boundary. On full success the staging list is cleared; on any
// failure it is kept so the user can retry.
func (s *Session) Submit(ctx context.Context) (AggregateResult, error) {
	items := s.Staging.Items()
	if len(items) == 0 {
		return AggregateResult{}, ErrNothingToSubmit
	}

	groups := GroupByPeriod(items)
	for i := range groups {
		if id, ok := s.correlations[groups[i].Period]; ok {
			groups[i].CorrelationID = id
		} else {
			id := uuid.NewString()
			s.correlations[groups[i].Period] = id
			groups[i].CorrelationID = id
		}
	}

	result, err := s.coordinator.Submit(ctx, groups)
	if err != nil {
		return AggregateResult{}, err
	}

	if result.Succeeded() {
		s.Staging.Clear()
		s.correlations = make(map[PeriodKey]string)
	}
	return result, nil
}
