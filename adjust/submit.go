/*
submit.go - Concurrent fan-out submission of period groups

PURPOSE:
  Issues one create-batch request per period group, concurrently, to the
  persistence boundary, waits for all of them, and reports a single
  aggregate outcome.

STATE MACHINE (per invocation):
  Idle → Validating → Submitting(N groups in flight)
       → {AllSucceeded | PartiallyFailed | AllFailed} → Idle

  Terminal states return control to the caller; there is no automatic
  retry. No compensating rollback is performed on groups that already
  succeeded when a sibling group fails; re-invoking submission re-sends
  every group. To keep that survivable, every group request carries a
  client-generated correlation id so the boundary can deduplicate a retried
  batch instead of re-creating already-persisted items.

CONCURRENCY:
  One goroutine per group, no cap, fan-in via WaitGroup. Results land in a
  per-group slot so no lock is needed. There is no cancellation path beyond
  the caller's context; if the initiating caller goes away mid-flight the
  requests run to completion and their results are discarded.

SEE ALSO:
  - group.go: Produces the period groups
  - store/sqlite: Submitter implementation with correlation-id dedup
*/
package adjust

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// =============================================================================
// SUBMITTER - Persistence boundary
// =============================================================================

// BatchRequest is one create-batch call: a single period's line items plus
// a client-generated correlation id for server-side deduplication.
type BatchRequest struct {
	Period        PeriodKey
	CorrelationID string
	Items         []LineItem
}

// BatchResult is the boundary's answer for one period group.
type BatchResult struct {
	Created int
	Message string
}

// Submitter persists one period batch per call. Implementations must be
// safe for concurrent use; the coordinator calls them from one goroutine
// per group.
type Submitter interface {
	CreateBatch(ctx context.Context, req BatchRequest) (BatchResult, error)
}

// =============================================================================
// AGGREGATE RESULT
// =============================================================================

type Outcome string

const (
	AllSucceeded    Outcome = "all_succeeded"
	PartiallyFailed Outcome = "partially_failed"
	AllFailed       Outcome = "all_failed"
)

// GroupStatus records the per-group commit status so a caller can see
// exactly which periods persisted.
type GroupStatus struct {
	Period        PeriodKey
	CorrelationID string
	Persisted     int
	Err           error
}

// AggregateResult summarizes a whole submission. The user sees a single
// notification built from this, not a per-group report.
type AggregateResult struct {
	Outcome        Outcome
	PersistedItems int    // sum over succeeding groups
	FirstFailure   string // first encountered failure message, if any
	Groups         []GroupStatus
}

// Succeeded reports whether every group persisted.
func (r AggregateResult) Succeeded() bool { return r.Outcome == AllSucceeded }

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator fans submission out across period groups and aggregates the
// results.
type Coordinator struct {
	Submitter Submitter
}

func NewCoordinator(sub Submitter) *Coordinator {
	return &Coordinator{Submitter: sub}
}

// Submit issues one request per group concurrently and waits for all of
// them. The aggregate is AllSucceeded only if every group reports success;
// otherwise PartiallyFailed (or AllFailed when nothing persisted), carrying
// the first failure message in group order and the count of items actually
// persisted.
func (c *Coordinator) Submit(ctx context.Context, groups []PeriodGroup) (AggregateResult, error) {
	if len(groups) == 0 {
		return AggregateResult{}, ErrNothingToSubmit
	}

	statuses := make([]GroupStatus, len(groups))

	var wg sync.WaitGroup
	for i, g := range groups {
		wg.Add(1)
		go func(i int, g PeriodGroup) {
			defer wg.Done()
			correlationID := g.CorrelationID
			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			req := BatchRequest{
				Period:        g.Period,
				CorrelationID: correlationID,
				Items:         g.Items,
			}
			res, err := c.Submitter.CreateBatch(ctx, req)
			status := GroupStatus{Period: g.Period, CorrelationID: req.CorrelationID}
			if err != nil {
				status.Err = &SubmissionError{Period: g.Period, CorrelationID: req.CorrelationID, Err: err}
			} else {
				status.Persisted = res.Created
			}
			statuses[i] = status
		}(i, g)
	}
	wg.Wait()

	agg := AggregateResult{Groups: statuses}
	failures := 0
	for _, st := range statuses {
		if st.Err != nil {
			failures++
			if agg.FirstFailure == "" {
				agg.FirstFailure = st.Err.Error()
			}
			continue
		}
		agg.PersistedItems += st.Persisted
	}

	switch {
	case failures == 0:
		agg.Outcome = AllSucceeded
	case failures == len(statuses):
		agg.Outcome = AllFailed
	default:
		agg.Outcome = PartiallyFailed
	}
	return agg, nil
}
