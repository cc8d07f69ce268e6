package adjust_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/adjust"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func rule(d adjust.Direction, m adjust.Method, v float64) adjust.Rule {
	return adjust.Rule{Direction: d, Method: m, Value: money(v), Category: adjust.OneTime}
}

// approxEqual checks if two decimals are approximately equal (reverse
// derivation of percentage rules divides, so exact equality is too strict).
func approxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(money(0.0001))
}

// =============================================================================
// FORWARD COMPUTATION TESTS
// =============================================================================

func TestCompute_AmountIncrement_AddsValue(t *testing.T) {
	// GIVEN: Baseline of 50000 and a fixed increment of 2500
	// WHEN: Computing the adjusted amount
	// THEN: Result is 52500

	got := adjust.Compute(money(50000), rule(adjust.Increment, adjust.Amount, 2500))
	if !got.Equal(money(52500)) {
		t.Errorf("expected 52500, got %v", got)
	}
}

func TestCompute_AmountDecrement_SubtractsValue(t *testing.T) {
	// GIVEN: Baseline of 50000 and a fixed deduction of 1200
	// WHEN: Computing the adjusted amount
	// THEN: Result is 48800

	got := adjust.Compute(money(50000), rule(adjust.Decrement, adjust.Amount, 1200))
	if !got.Equal(money(48800)) {
		t.Errorf("expected 48800, got %v", got)
	}
}

func TestCompute_PercentageIncrement_TenPercent(t *testing.T) {
	// GIVEN: Baseline of 50000 and a 10 percent increment
	// WHEN: Computing the adjusted amount
	// THEN: Result is 55000

	got := adjust.Compute(money(50000), rule(adjust.Increment, adjust.Percentage, 10))
	if !got.Equal(money(55000)) {
		t.Errorf("expected 55000, got %v", got)
	}
}

func TestCompute_PercentageDecrement_EightPercent(t *testing.T) {
	// GIVEN: Baseline of 50000 and an 8 percent deduction
	// WHEN: Computing the adjusted amount
	// THEN: Result is 46000

	got := adjust.Compute(money(50000), rule(adjust.Decrement, adjust.Percentage, 8))
	if !got.Equal(money(46000)) {
		t.Errorf("expected 46000, got %v", got)
	}
}

func TestCompute_AmountDecrement_MayGoNegative(t *testing.T) {
	// GIVEN: A fixed deduction larger than the baseline
	// WHEN: Computing the adjusted amount
	// THEN: The result is negative; the engine does not clamp

	got := adjust.Compute(money(1000), rule(adjust.Decrement, adjust.Amount, 1500))
	if !got.Equal(money(-500)) {
		t.Errorf("expected -500, got %v", got)
	}
}

// =============================================================================
// REVERSE COMPUTATION TESTS
// =============================================================================

func TestReverseBaseline_AmountIncrement(t *testing.T) {
	// GIVEN: A stored amount of 52500 produced by a fixed increment of 2500
	// WHEN: Reconstructing the prior baseline
	// THEN: Result is 50000

	got, err := adjust.ReverseBaseline(money(52500), rule(adjust.Increment, adjust.Amount, 2500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(money(50000)) {
		t.Errorf("expected 50000, got %v", got)
	}
}

func TestReverseBaseline_PercentageIncrement(t *testing.T) {
	// GIVEN: A stored amount of 55000 produced by a 10 percent increment
	// WHEN: Reconstructing the prior baseline
	// THEN: Result is 50000

	got, err := adjust.ReverseBaseline(money(55000), rule(adjust.Increment, adjust.Percentage, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approxEqual(got, money(50000)) {
		t.Errorf("expected ~50000, got %v", got)
	}
}

func TestReverseBaseline_RoundTrip(t *testing.T) {
	// GIVEN: Every direction/method combination applied to a baseline
	// WHEN: Reversing the computed amount with the same rule
	// THEN: The original baseline is recovered (within decimal tolerance)

	rules := []adjust.Rule{
		rule(adjust.Increment, adjust.Amount, 2500),
		rule(adjust.Decrement, adjust.Amount, 1200),
		rule(adjust.Increment, adjust.Percentage, 10),
		rule(adjust.Decrement, adjust.Percentage, 8),
		rule(adjust.Increment, adjust.Percentage, 33.33),
	}
	baseline := money(50000)

	for _, r := range rules {
		amount := adjust.Compute(baseline, r)
		back, err := adjust.ReverseBaseline(amount, r)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error: %v", r.Direction, r.Method, err)
		}
		if !approxEqual(back, baseline) {
			t.Errorf("%s/%s: expected ~50000, got %v", r.Direction, r.Method, back)
		}
	}
}

func TestReverseBaseline_HundredPercentDecrement_DividesByZero(t *testing.T) {
	// GIVEN: A (historically stored) 100 percent decrement snapshot
	// WHEN: Reconstructing the baseline from the zero amount
	// THEN: ErrReverseDivideByZero, never infinity

	_, err := adjust.ReverseBaseline(money(0), rule(adjust.Decrement, adjust.Percentage, 100))
	if err != adjust.ErrReverseDivideByZero {
		t.Errorf("expected ErrReverseDivideByZero, got %v", err)
	}
}

// =============================================================================
// RULE VALIDATION TESTS
// =============================================================================

func TestRuleValidate_RejectsBadFields(t *testing.T) {
	cases := []struct {
		name string
		rule adjust.Rule
	}{
		{"zero value", rule(adjust.Increment, adjust.Amount, 0)},
		{"negative value", rule(adjust.Increment, adjust.Amount, -10)},
		{"percentage over 100", rule(adjust.Increment, adjust.Percentage, 120)},
		{"hundred percent decrement", rule(adjust.Decrement, adjust.Percentage, 100)},
		{"bad direction", adjust.Rule{Direction: "sideways", Method: adjust.Amount, Value: money(1), Category: adjust.OneTime}},
		{"bad method", adjust.Rule{Direction: adjust.Increment, Method: "guess", Value: money(1), Category: adjust.OneTime}},
		{"bad category", adjust.Rule{Direction: adjust.Increment, Method: adjust.Amount, Value: money(1), Category: "sometimes"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !adjust.IsValidationError(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
		})
	}
}

func TestRuleValidate_AcceptsHundredPercentIncrement(t *testing.T) {
	// GIVEN: A 100 percent increment (doubling)
	// WHEN: Validating
	// THEN: Accepted; only the decrement at 100 is degenerate

	if err := rule(adjust.Increment, adjust.Percentage, 100).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
