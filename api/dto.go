/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers and in the engine, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - adjust: Domain types these map to
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/adjust"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// RuleDTO is the wire form of an adjustment rule.
type RuleDTO struct {
	Direction string  `json:"direction"`
	Method    string  `json:"method"`
	Value     float64 `json:"value"`
	Category  string  `json:"category"`
}

// RuleTypeDTO represents one catalog entry (head / bonus type).
type RuleTypeDTO struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Kind              string   `json:"kind"`
	CalculationMethod string   `json:"calculation_method"`
	FixedAmount       *float64 `json:"fixed_amount,omitempty"`
	FixedPercentage   *float64 `json:"fixed_percentage,omitempty"`
}

// PreviewRequest asks for an expansion without persisting anything.
type PreviewRequest struct {
	Kind        string   `json:"kind"`
	Rule        RuleDTO  `json:"rule"`
	EmployeeIDs []string `json:"employee_ids"`
	Periods     []string `json:"periods"`
	RuleTypeID  string   `json:"rule_type_id,omitempty"`
	TaxPercent  float64  `json:"tax_percent,omitempty"`
	PaymentMode string   `json:"payment_mode,omitempty"`
}

// LineItemDTO is one staged or persisted adjustment.
type LineItemDTO struct {
	ID          string  `json:"id"`
	EmployeeID  string  `json:"employee_id"`
	Kind        string  `json:"kind"`
	Period      string  `json:"period"`
	Rule        RuleDTO `json:"rule"`
	Baseline    float64 `json:"baseline"`
	Amount      float64 `json:"amount"`
	Unresolved  bool    `json:"unresolved,omitempty"`
	NeedsReview bool    `json:"needs_review,omitempty"`
	RuleTypeID  string  `json:"rule_type_id,omitempty"`
	TaxPercent  float64 `json:"tax_percent,omitempty"`
	Notes       string  `json:"notes,omitempty"`
	PaymentMode string  `json:"payment_mode,omitempty"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// PreviewResponse reports the expansion outcome.
type PreviewResponse struct {
	Added      []LineItemDTO `json:"added"`
	Skipped    int           `json:"skipped"`
	Unresolved []string      `json:"unresolved,omitempty"`
}

// SubmitRequest carries the final (possibly edited) staged items.
// Correlations maps a period to the correlation id a previous submission
// reported for it; re-sending those ids makes a retry idempotent at the
// persistence boundary. Periods without an entry get a fresh id.
type SubmitRequest struct {
	Items        []LineItemDTO     `json:"items"`
	Correlations map[string]string `json:"correlations,omitempty"`
}

// SubmitResponse is the single aggregate notification for a submission.
type SubmitResponse struct {
	Outcome        string           `json:"outcome"`
	PersistedItems int              `json:"persisted_items"`
	FirstFailure   string           `json:"first_failure,omitempty"`
	Groups         []GroupStatusDTO `json:"groups"`
}

// GroupStatusDTO is the per-period commit status.
type GroupStatusDTO struct {
	Period        string `json:"period"`
	CorrelationID string `json:"correlation_id"`
	Persisted     int    `json:"persisted"`
	Error         string `json:"error,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRuleDTO(r adjust.Rule) RuleDTO {
	v, _ := r.Value.Float64()
	return RuleDTO{
		Direction: string(r.Direction),
		Method:    string(r.Method),
		Value:     v,
		Category:  string(r.Category),
	}
}

func fromRuleDTO(d RuleDTO) adjust.Rule {
	return adjust.Rule{
		Direction: adjust.Direction(d.Direction),
		Method:    adjust.Method(d.Method),
		Value:     decimal.NewFromFloat(d.Value),
		Category:  adjust.Category(d.Category),
	}
}

func toLineItemDTO(li adjust.LineItem) LineItemDTO {
	baseline, _ := li.Baseline.Float64()
	amount, _ := li.Amount.Float64()
	tax, _ := li.TaxPercent.Float64()

	dto := LineItemDTO{
		ID:          string(li.ID),
		EmployeeID:  string(li.EmployeeID),
		Kind:        li.Kind.KindID(),
		Period:      string(li.Period),
		Rule:        toRuleDTO(li.RuleSnapshot),
		Baseline:    baseline,
		Amount:      amount,
		Unresolved:  li.Unresolved,
		NeedsReview: li.NeedsReview,
		RuleTypeID:  li.RuleTypeID,
		TaxPercent:  tax,
		Notes:       li.Notes,
		PaymentMode: li.PaymentMode,
	}
	if !li.CreatedAt.IsZero() {
		dto.CreatedAt = li.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toLineItemDTOs(items []adjust.LineItem) []LineItemDTO {
	dtos := make([]LineItemDTO, len(items))
	for i, li := range items {
		dtos[i] = toLineItemDTO(li)
	}
	return dtos
}

func fromLineItemDTO(d LineItemDTO) adjust.LineItem {
	return adjust.LineItem{
		ID:           adjust.LineItemID(d.ID),
		EmployeeID:   adjust.EmployeeID(d.EmployeeID),
		Kind:         adjust.GetOrCreateKind(d.Kind),
		Period:       adjust.PeriodKey(d.Period),
		RuleSnapshot: fromRuleDTO(d.Rule),
		Baseline:     decimal.NewFromFloat(d.Baseline),
		Amount:       decimal.NewFromFloat(d.Amount),
		Unresolved:   d.Unresolved,
		NeedsReview:  d.NeedsReview,
		RuleTypeID:   d.RuleTypeID,
		TaxPercent:   decimal.NewFromFloat(d.TaxPercent),
		Notes:        d.Notes,
		PaymentMode:  d.PaymentMode,
	}
}

func toRuleTypeDTO(rt payroll.RuleType) RuleTypeDTO {
	dto := RuleTypeDTO{
		ID:                rt.ID,
		Name:              rt.Name,
		Kind:              string(rt.Kind),
		CalculationMethod: string(rt.CalculationMethod),
	}
	if rt.FixedAmount != nil {
		v, _ := rt.FixedAmount.Float64()
		dto.FixedAmount = &v
	}
	if rt.FixedPercentage != nil {
		v, _ := rt.FixedPercentage.Float64()
		dto.FixedPercentage = &v
	}
	return dto
}
