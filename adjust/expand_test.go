package adjust_test

import (
	"context"
	"errors"
	"testing"

	"github.com/warp/payroll-engine/adjust"
	"github.com/warp/payroll-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testKind = adjust.StringKind{ID: "test-allowance", Domain: "test"}

func seededStore(salaries map[string]float64) *memory.Store {
	st := memory.New()
	for id, salary := range salaries {
		st.AddEmployee(adjust.EmployeeDetail{
			ID:     adjust.EmployeeID(id),
			Salary: money(salary),
		})
	}
	return st
}

func newExpander(st *memory.Store) *adjust.Expander {
	return adjust.NewExpander(adjust.NewResolver(st))
}

func employeeIDs(ids ...string) []adjust.EmployeeID {
	out := make([]adjust.EmployeeID, len(ids))
	for i, id := range ids {
		out[i] = adjust.EmployeeID(id)
	}
	return out
}

// =============================================================================
// CROSS-PRODUCT EXPANSION TESTS
// =============================================================================

func TestExpand_CrossProduct_EmployeesTimesPeriods(t *testing.T) {
	// GIVEN: 3 employees and 2 target periods
	// WHEN: Expanding a one-time rule
	// THEN: Exactly 6 line items with distinct identity keys

	st := seededStore(map[string]float64{"e1": 40000, "e2": 50000, "e3": 60000})
	exp := newExpander(st)

	result, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule:        rule(adjust.Increment, adjust.Percentage, 10),
		Kind:        testKind,
		EmployeeIDs: employeeIDs("e1", "e2", "e3"),
		Periods:     []adjust.PeriodKey{"2026-01", "2026-02"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Added) != 6 {
		t.Fatalf("expected 6 items, got %d", len(result.Added))
	}
	seen := make(map[adjust.IdentityKey]bool)
	for _, li := range result.Added {
		if seen[li.Key()] {
			t.Errorf("duplicate identity key %v", li.Key())
		}
		seen[li.Key()] = true
	}
}

func TestExpand_ComputesAmountFromResolvedBaseline(t *testing.T) {
	// GIVEN: An employee with salary 50000
	// WHEN: Expanding a 10 percent increment
	// THEN: The item carries baseline 50000 and amount 55000

	st := seededStore(map[string]float64{"e1": 50000})
	exp := newExpander(st)

	result, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule:        rule(adjust.Increment, adjust.Percentage, 10),
		Kind:        testKind,
		EmployeeIDs: employeeIDs("e1"),
		Periods:     []adjust.PeriodKey{"2026-03"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	li := result.Added[0]
	if !li.Baseline.Equal(money(50000)) {
		t.Errorf("expected baseline 50000, got %v", li.Baseline)
	}
	if !li.Amount.Equal(money(55000)) {
		t.Errorf("expected amount 55000, got %v", li.Amount)
	}
	if li.Unresolved || li.NeedsReview {
		t.Errorf("item should be cleanly resolved, got unresolved=%v review=%v", li.Unresolved, li.NeedsReview)
	}
}

func TestExpand_SkipsAlreadyStagedCombinations(t *testing.T) {
	// GIVEN: (e1, 2026-01) already staged for the same kind
	// WHEN: Expanding over e1, e2 and 2026-01
	// THEN: One item added, one skipped

	st := seededStore(map[string]float64{"e1": 40000, "e2": 50000})
	exp := newExpander(st)

	existing := map[adjust.IdentityKey]bool{
		{EmployeeID: "e1", Period: "2026-01", Kind: testKind.KindID()}: true,
	}

	result, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule:        rule(adjust.Increment, adjust.Amount, 1000),
		Kind:        testKind,
		EmployeeIDs: employeeIDs("e1", "e2"),
		Periods:     []adjust.PeriodKey{"2026-01"},
	}, existing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Added) != 1 {
		t.Errorf("expected 1 added, got %d", len(result.Added))
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", result.Skipped)
	}
	if result.Added[0].EmployeeID != "e2" {
		t.Errorf("expected the new item to target e2, got %s", result.Added[0].EmployeeID)
	}
}

func TestExpand_DuplicateEmployeeSelection_SingleItem(t *testing.T) {
	// GIVEN: A selection listing e1 twice
	// WHEN: Expanding over two periods
	// THEN: One item per (employee, period), duplicates counted as skipped

	st := seededStore(map[string]float64{"e1": 40000})
	exp := newExpander(st)

	result, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule:        rule(adjust.Increment, adjust.Amount, 1000),
		Kind:        testKind,
		EmployeeIDs: employeeIDs("e1", "e1"),
		Periods:     []adjust.PeriodKey{"2026-01", "2026-02"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Added) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Added))
	}
	if result.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", result.Skipped)
	}
	ids := make(map[adjust.LineItemID]bool)
	for _, li := range result.Added {
		if ids[li.ID] {
			t.Errorf("duplicate line-item id %s", li.ID)
		}
		ids[li.ID] = true
	}
}

// =============================================================================
// VALIDATION EDGE CASES
// =============================================================================

func TestExpand_ZeroEmployees_ValidationError(t *testing.T) {
	// GIVEN: An empty employee selection
	// WHEN: Expanding
	// THEN: ErrNoEmployees, no items produced

	exp := newExpander(seededStore(nil))
	_, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule:    rule(adjust.Increment, adjust.Amount, 100),
		Kind:    testKind,
		Periods: []adjust.PeriodKey{"2026-01"},
	}, nil)

	if !errors.Is(err, adjust.ErrNoEmployees) {
		t.Errorf("expected ErrNoEmployees, got %v", err)
	}
}

func TestExpand_OneTimeWithoutPeriods_ValidationError(t *testing.T) {
	// GIVEN: A one-time rule with no target periods
	// WHEN: Expanding
	// THEN: ErrNoPeriods

	exp := newExpander(seededStore(map[string]float64{"e1": 40000}))
	_, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule:        rule(adjust.Increment, adjust.Amount, 100),
		Kind:        testKind,
		EmployeeIDs: employeeIDs("e1"),
	}, nil)

	if !errors.Is(err, adjust.ErrNoPeriods) {
		t.Errorf("expected ErrNoPeriods, got %v", err)
	}
}

func TestExpand_RecurringRule_UsesSyntheticCurrentPeriod(t *testing.T) {
	// GIVEN: A recurring rule with explicit (ignored) period selection
	// WHEN: Expanding over 2 employees
	// THEN: Exactly one item per employee, targeting the current period

	st := seededStore(map[string]float64{"e1": 40000, "e2": 50000})
	exp := newExpander(st)

	result, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule: adjust.Rule{
			Direction: adjust.Increment,
			Method:    adjust.Amount,
			Value:     money(500),
			Category:  adjust.Recurring,
		},
		Kind:        testKind,
		EmployeeIDs: employeeIDs("e1", "e2"),
		Periods:     []adjust.PeriodKey{"2024-01", "2024-02", "2024-03"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Added) != 2 {
		t.Fatalf("expected 2 items (one per employee), got %d", len(result.Added))
	}
	current := adjust.CurrentPeriod()
	for _, li := range result.Added {
		if li.Period != current {
			t.Errorf("expected period %s, got %s", current, li.Period)
		}
	}
}

// =============================================================================
// FAILURE ISOLATION
// =============================================================================

func TestExpand_FailedLookup_IsolatedToThatEmployee(t *testing.T) {
	// GIVEN: e2's directory lookup fails; e1 and e3 resolve fine
	// WHEN: Expanding over all three
	// THEN: e2's item is Unresolved with no amount; the others compute normally

	st := seededStore(map[string]float64{"e1": 40000, "e3": 60000})
	st.FailEmployees["e2"] = errors.New("directory timeout")
	exp := newExpander(st)

	result, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule:        rule(adjust.Increment, adjust.Percentage, 10),
		Kind:        testKind,
		EmployeeIDs: employeeIDs("e1", "e2", "e3"),
		Periods:     []adjust.PeriodKey{"2026-01"},
	}, nil)
	if err != nil {
		t.Fatalf("a per-employee failure must not abort the batch: %v", err)
	}

	if len(result.Added) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.Added))
	}
	if len(result.Unresolved) != 1 || result.Unresolved[0] != "e2" {
		t.Fatalf("expected [e2] unresolved, got %v", result.Unresolved)
	}

	for _, li := range result.Added {
		if li.EmployeeID == "e2" {
			if !li.Unresolved {
				t.Error("e2's item should be unresolved")
			}
			if !li.Amount.IsZero() {
				t.Errorf("unresolved item must not carry a computed amount, got %v", li.Amount)
			}
			continue
		}
		if li.Unresolved {
			t.Errorf("%s should have resolved", li.EmployeeID)
		}
		if li.Amount.IsZero() {
			t.Errorf("%s should have a computed amount", li.EmployeeID)
		}
	}
}

func TestExpand_PercentageAgainstZeroBaseline_FallsBackAndFlags(t *testing.T) {
	// GIVEN: An employee whose recorded salary is zero
	// WHEN: Expanding a percentage rule
	// THEN: The amount falls back to the raw baseline and the item is flagged

	st := seededStore(map[string]float64{"e1": 0})
	exp := newExpander(st)

	result, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule:        rule(adjust.Increment, adjust.Percentage, 10),
		Kind:        testKind,
		EmployeeIDs: employeeIDs("e1"),
		Periods:     []adjust.PeriodKey{"2026-01"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	li := result.Added[0]
	if !li.NeedsReview {
		t.Error("expected NeedsReview for percentage against zero baseline")
	}
	if !li.Amount.Equal(li.Baseline) {
		t.Errorf("expected no-op fallback, got amount %v baseline %v", li.Amount, li.Baseline)
	}
}

func TestExpand_DecrementBelowZero_Flagged(t *testing.T) {
	// GIVEN: A fixed deduction larger than the employee's baseline
	// WHEN: Expanding
	// THEN: The negative amount is kept but flagged for review

	st := seededStore(map[string]float64{"e1": 1000})
	exp := newExpander(st)

	result, err := exp.Expand(context.Background(), adjust.ExpandInput{
		Rule:        rule(adjust.Decrement, adjust.Amount, 1500),
		Kind:        testKind,
		EmployeeIDs: employeeIDs("e1"),
		Periods:     []adjust.PeriodKey{"2026-01"},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	li := result.Added[0]
	if !li.Amount.Equal(money(-500)) {
		t.Errorf("expected -500, got %v", li.Amount)
	}
	if !li.NeedsReview {
		t.Error("negative decrement result should be flagged for review")
	}
}
