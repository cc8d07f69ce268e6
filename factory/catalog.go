/*
Package factory provides JSON to Go rule-type catalog conversion.

PURPOSE:
  Converts JSON catalog definitions into payroll.RuleType entries. This
  enables head configuration without code changes - HR can define deduction
  heads, allowance heads, and bonus types in JSON, and the factory creates
  the proper Go structs.

JSON SCHEMA:
  [
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
  ]

KEY FEATURES:
  - Validates kind against the engine registry
  - Sets sensible defaults (amount method when unspecified)
  - Round-trips back to JSON for storage and admin UI

USAGE:
  entries, err := factory.ParseCatalog(jsonStr)

SEE ALSO:
  - payroll/types.go: RuleType definition
  - adjust/kind.go: Kind registry
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/adjust"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleTypeJSON is the JSON representation of one catalog entry.
type RuleTypeJSON struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Kind              string   `json:"kind"`
	CalculationMethod string   `json:"calculation_method"`
	FixedAmount       *float64 `json:"fixed_amount,omitempty"`
	FixedPercentage   *float64 `json:"fixed_percentage,omitempty"`
}

// =============================================================================
// CATALOG FACTORY
// =============================================================================

// ParseCatalog parses a JSON array of catalog entries.
func ParseCatalog(jsonStr string) ([]payroll.RuleType, error) {
	var raw []RuleTypeJSON
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}

	entries := make([]payroll.RuleType, 0, len(raw))
	for _, rj := range raw {
		entry, err := FromJSON(rj)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FromJSON converts one RuleTypeJSON into a payroll.RuleType.
func FromJSON(rj RuleTypeJSON) (payroll.RuleType, error) {
	if rj.ID == "" || rj.Name == "" {
		return payroll.RuleType{}, fmt.Errorf("catalog entry requires id and name")
	}

	// Kinds are registered by the payroll package on init; anything else
	// is a typo in the definition, not a new domain.
	if adjust.LookupKind(rj.Kind) == nil {
		return payroll.RuleType{}, fmt.Errorf("unknown adjustment kind: %s", rj.Kind)
	}

	entry := payroll.RuleType{
		ID:                rj.ID,
		Name:              rj.Name,
		Kind:              payroll.Kind(rj.Kind),
		CalculationMethod: parseMethod(rj.CalculationMethod),
	}

	if rj.FixedAmount != nil {
		v := decimal.NewFromFloat(*rj.FixedAmount)
		entry.FixedAmount = &v
	}
	if rj.FixedPercentage != nil {
		v := decimal.NewFromFloat(*rj.FixedPercentage)
		entry.FixedPercentage = &v
	}
	return entry, nil
}

// ToJSON converts a RuleType back to its JSON form.
func ToJSON(rt payroll.RuleType) RuleTypeJSON {
	rj := RuleTypeJSON{
		ID:                rt.ID,
		Name:              rt.Name,
		Kind:              string(rt.Kind),
		CalculationMethod: string(rt.CalculationMethod),
	}
	if rt.FixedAmount != nil {
		v, _ := rt.FixedAmount.Float64()
		rj.FixedAmount = &v
	}
	if rt.FixedPercentage != nil {
		v, _ := rt.FixedPercentage.Float64()
		rj.FixedPercentage = &v
	}
	return rj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseMethod(s string) adjust.Method {
	switch s {
	case "percentage":
		return adjust.Percentage
	default:
		return adjust.Amount
	}
}
