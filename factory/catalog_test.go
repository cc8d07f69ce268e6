package factory_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/adjust"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// CATALOG PARSING TESTS
// =============================================================================

func TestParseCatalog_ParsesEntries(t *testing.T) {
	// GIVEN: A JSON catalog with an allowance head and a deduction head
	// WHEN: Parsing
	// THEN: Two typed entries with the right kinds and fixed values

	jsonStr := `[
		{
			"id": "house-rent",
			"name": "House Rent Allowance",
			"kind": "allowance",
			"calculation_method": "percentage",
			"fixed_percentage": 40
		},
		{
			"id": "provident-fund",
			"name": "Provident Fund",
			"kind": "deduction",
			"calculation_method": "percentage",
			"fixed_percentage": 8.33
		}
	]`

	entries, err := factory.ParseCatalog(jsonStr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	hra := entries[0]
	if hra.Kind != payroll.KindAllowance {
		t.Errorf("expected allowance, got %s", hra.Kind)
	}
	if hra.CalculationMethod != adjust.Percentage {
		t.Errorf("expected percentage, got %s", hra.CalculationMethod)
	}
	if hra.FixedPercentage == nil || !hra.FixedPercentage.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected fixed percentage 40, got %v", hra.FixedPercentage)
	}

	pf := entries[1]
	if pf.Kind != payroll.KindDeduction {
		t.Errorf("expected deduction, got %s", pf.Kind)
	}
	if pf.FixedPercentage == nil || !pf.FixedPercentage.Equal(decimal.NewFromFloat(8.33)) {
		t.Errorf("expected fixed percentage 8.33, got %v", pf.FixedPercentage)
	}
}

func TestFromJSON_DefaultsToAmountMethod(t *testing.T) {
	// GIVEN: An entry with no calculation method
	// WHEN: Converting
	// THEN: The amount method is assumed

	entry, err := factory.FromJSON(factory.RuleTypeJSON{
		ID:   "adhoc-bonus",
		Name: "Ad-hoc Bonus",
		Kind: "bonus",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.CalculationMethod != adjust.Amount {
		t.Errorf("expected amount, got %s", entry.CalculationMethod)
	}
}

func TestFromJSON_UnknownKind_Rejected(t *testing.T) {
	_, err := factory.FromJSON(factory.RuleTypeJSON{
		ID:   "x",
		Name: "X",
		Kind: "overtime",
	})
	if err == nil {
		t.Fatal("expected error for unregistered kind")
	}
}

func TestFromJSON_MissingIDOrName_Rejected(t *testing.T) {
	if _, err := factory.FromJSON(factory.RuleTypeJSON{Name: "X", Kind: "bonus"}); err == nil {
		t.Error("expected error for missing id")
	}
	if _, err := factory.FromJSON(factory.RuleTypeJSON{ID: "x", Kind: "bonus"}); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestToJSON_RoundTrip(t *testing.T) {
	// GIVEN: A typed entry with a fixed amount
	// WHEN: Converting to JSON form and back
	// THEN: The entry survives unchanged

	amt := decimal.NewFromInt(1500)
	original := payroll.RuleType{
		ID:                "conveyance",
		Name:              "Conveyance Allowance",
		Kind:              payroll.KindAllowance,
		CalculationMethod: adjust.Amount,
		FixedAmount:       &amt,
	}

	back, err := factory.FromJSON(factory.ToJSON(original))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.ID != original.ID || back.Kind != original.Kind || back.CalculationMethod != original.CalculationMethod {
		t.Errorf("round trip changed the entry: %+v", back)
	}
	if back.FixedAmount == nil || !back.FixedAmount.Equal(amt) {
		t.Errorf("expected fixed amount 1500, got %v", back.FixedAmount)
	}
}

func TestParseCatalog_MalformedJSON_Rejected(t *testing.T) {
	if _, err := factory.ParseCatalog(`{not json`); err == nil {
		t.Fatal("expected parse error")
	}
}
