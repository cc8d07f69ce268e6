package adjust_test

import (
	"context"
	"errors"
	"testing"

	"github.com/warp/payroll-engine/adjust"
	"github.com/warp/payroll-engine/store/memory"
)

// =============================================================================
// GROUPING TESTS
// =============================================================================

func lineItem(emp string, period adjust.PeriodKey) adjust.LineItem {
	return adjust.LineItem{
		ID:           adjust.LineItemID(testKind.KindID() + ":" + emp + ":" + string(period)),
		EmployeeID:   adjust.EmployeeID(emp),
		Kind:         testKind,
		Period:       period,
		RuleSnapshot: rule(adjust.Increment, adjust.Amount, 100),
		Baseline:     money(1000),
		Amount:       money(1100),
	}
}

func TestGroupByPeriod_PartitionsAndOrdersChronologically(t *testing.T) {
	// GIVEN: Items across three periods, staged out of order
	// WHEN: Grouping by period
	// THEN: Three groups in chronological order, input order kept within each

	items := []adjust.LineItem{
		lineItem("e1", "2026-03"),
		lineItem("e1", "2026-01"),
		lineItem("e2", "2026-03"),
		lineItem("e1", "2026-02"),
		lineItem("e3", "2026-03"),
	}

	groups := adjust.GroupByPeriod(items)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	wantPeriods := []adjust.PeriodKey{"2026-01", "2026-02", "2026-03"}
	for i, g := range groups {
		if g.Period != wantPeriods[i] {
			t.Errorf("group %d: expected %s, got %s", i, wantPeriods[i], g.Period)
		}
	}

	march := groups[2].Items
	if len(march) != 3 {
		t.Fatalf("expected 3 items in 2026-03, got %d", len(march))
	}
	if march[0].EmployeeID != "e1" || march[1].EmployeeID != "e2" || march[2].EmployeeID != "e3" {
		t.Error("within-group order should follow staging order")
	}
}

// =============================================================================
// CONCURRENT SUBMISSION TESTS
// =============================================================================

func TestSubmit_OneRequestPerPeriodGroup(t *testing.T) {
	// GIVEN: Staged items spanning 3 periods
	// WHEN: Submitting
	// THEN: Exactly 3 batch requests, one per period, all succeeding

	st := memory.New()
	coordinator := adjust.NewCoordinator(st)

	groups := adjust.GroupByPeriod([]adjust.LineItem{
		lineItem("e1", "2026-01"),
		lineItem("e1", "2026-02"),
		lineItem("e2", "2026-02"),
		lineItem("e1", "2026-03"),
	})

	result, err := coordinator.Submit(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != adjust.AllSucceeded {
		t.Errorf("expected all_succeeded, got %s", result.Outcome)
	}
	if result.PersistedItems != 4 {
		t.Errorf("expected 4 persisted items, got %d", result.PersistedItems)
	}
	if len(st.Batches()) != 3 {
		t.Errorf("expected 3 batches at the boundary, got %d", len(st.Batches()))
	}
}

func TestSubmit_PartialFailure_AggregateReportsBoth(t *testing.T) {
	// GIVEN: The boundary fails for 2026-02 only
	// WHEN: Submitting 3 period groups
	// THEN: Outcome is partially_failed; succeeding groups persist and the
	//       first failure message names the failed period

	st := memory.New()
	st.FailPeriods["2026-02"] = errors.New("boundary unavailable")
	coordinator := adjust.NewCoordinator(st)

	groups := adjust.GroupByPeriod([]adjust.LineItem{
		lineItem("e1", "2026-01"),
		lineItem("e1", "2026-02"),
		lineItem("e1", "2026-03"),
	})

	result, err := coordinator.Submit(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != adjust.PartiallyFailed {
		t.Errorf("expected partially_failed, got %s", result.Outcome)
	}
	if result.PersistedItems != 2 {
		t.Errorf("expected 2 persisted items, got %d", result.PersistedItems)
	}
	if result.FirstFailure == "" {
		t.Error("expected a first-failure message")
	}
	if st.ItemCount() != 2 {
		t.Errorf("expected 2 items at the boundary, got %d", st.ItemCount())
	}

	for _, g := range result.Groups {
		if g.Period == "2026-02" {
			var subErr *adjust.SubmissionError
			if !errors.As(g.Err, &subErr) {
				t.Errorf("expected SubmissionError for 2026-02, got %v", g.Err)
			}
		} else if g.Err != nil {
			t.Errorf("group %s should have succeeded: %v", g.Period, g.Err)
		}
	}
}

func TestSubmit_AllGroupsFail_AllFailed(t *testing.T) {
	// GIVEN: Every period fails at the boundary
	// WHEN: Submitting
	// THEN: Outcome is all_failed with zero persisted items

	st := memory.New()
	st.FailPeriods["2026-01"] = errors.New("down")
	st.FailPeriods["2026-02"] = errors.New("down")
	coordinator := adjust.NewCoordinator(st)

	groups := adjust.GroupByPeriod([]adjust.LineItem{
		lineItem("e1", "2026-01"),
		lineItem("e1", "2026-02"),
	})

	result, err := coordinator.Submit(context.Background(), groups)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != adjust.AllFailed {
		t.Errorf("expected all_failed, got %s", result.Outcome)
	}
	if result.PersistedItems != 0 {
		t.Errorf("expected 0 persisted, got %d", result.PersistedItems)
	}
}

func TestSubmit_EmptyGroups_ErrNothingToSubmit(t *testing.T) {
	coordinator := adjust.NewCoordinator(memory.New())
	_, err := coordinator.Submit(context.Background(), nil)
	if !errors.Is(err, adjust.ErrNothingToSubmit) {
		t.Errorf("expected ErrNothingToSubmit, got %v", err)
	}
}

func TestSubmit_PinnedCorrelationID_Deduplicates(t *testing.T) {
	// GIVEN: A group submitted once with a pinned correlation id
	// WHEN: The same group is re-submitted (retry after partial failure)
	// THEN: The boundary answers from the prior batch; nothing duplicates

	st := memory.New()
	coordinator := adjust.NewCoordinator(st)

	groups := adjust.GroupByPeriod([]adjust.LineItem{lineItem("e1", "2026-01")})
	groups[0].CorrelationID = "fixed-correlation"

	first, err := coordinator.Submit(context.Background(), groups)
	if err != nil {
		t.Fatal(err)
	}
	second, err := coordinator.Submit(context.Background(), groups)
	if err != nil {
		t.Fatal(err)
	}

	if first.Outcome != adjust.AllSucceeded || second.Outcome != adjust.AllSucceeded {
		t.Fatalf("both submissions should succeed: %s / %s", first.Outcome, second.Outcome)
	}
	if st.ItemCount() != 1 {
		t.Errorf("retry must not duplicate items, boundary holds %d", st.ItemCount())
	}
}
