/*
handlers.go - HTTP API handlers for the compensation adjustment engine

PURPOSE:
  Exposes the adjustment engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Master data:
    GET    /api/employees                       Dropdown list (filterable)
    POST   /api/employees                       Create employee
    GET    /api/departments/{id}/subdepartments Sub-department dropdown
    GET    /api/ruletypes                       Catalog for a kind
    POST   /api/ruletypes                       Create catalog entry

  Adjustments:
    POST   /api/adjustments/preview  Expand a rule without persisting
    POST   /api/adjustments          Submit edited line items
    GET    /api/adjustments          Persisted items for a period

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (expander, coordinator, store)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Employee or item not found
  - 500: Internal errors

  Submission failures are NOT HTTP errors: the aggregate outcome
  (all_succeeded / partially_failed / all_failed) is reported in the
  200 response body, mirroring the single-notification model.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/adjust"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. The store serves as
// both the employee directory and the batch persistence boundary.
type Handler struct {
	Store *sqlite.Store
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	return &Handler{Store: store}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the dropdown projection, filterable by department
// and sub-department query parameters.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	departmentID := r.URL.Query().Get("department_id")
	subDepartmentID := r.URL.Query().Get("sub_department_id")

	employees, err := h.Store.ListEmployees(r.Context(), departmentID, subDepartmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	if employees == nil {
		employees = []sqlite.DropdownEmployee{}
	}

	writeJSON(w, http.StatusOK, employees)
}

// CreateEmployee creates a directory record.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID              string  `json:"id"`
		DisplayName     string  `json:"display_name"`
		Code            string  `json:"code"`
		DepartmentID    string  `json:"department_id"`
		SubDepartmentID string  `json:"sub_department_id"`
		Grade           string  `json:"grade"`
		Designation     string  `json:"designation"`
		Salary          float64 `json:"salary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.DisplayName == "" {
		writeError(w, http.StatusBadRequest, "id and display_name are required", nil)
		return
	}

	emp := sqlite.Employee{
		ID:              req.ID,
		DisplayName:     req.DisplayName,
		Code:            req.Code,
		DepartmentID:    req.DepartmentID,
		SubDepartmentID: req.SubDepartmentID,
		Grade:           req.Grade,
		Designation:     req.Designation,
		Salary:          decimal.NewFromFloat(req.Salary).String(),
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": emp.ID})
}

// GetEmployee returns the full directory detail for one employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := adjust.EmployeeID(chi.URLParam(r, "id"))

	detail, err := h.Store.EmployeeByID(r.Context(), id)
	if errors.Is(err, adjust.ErrEmployeeNotFound) {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}

	salary, _ := detail.Salary.Float64()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                string(detail.ID),
		"display_name":      detail.DisplayName,
		"code":              detail.Code,
		"department_id":     detail.DepartmentID,
		"sub_department_id": detail.SubDepartmentID,
		"grade":             detail.Grade,
		"designation":       detail.Designation,
		"salary":            salary,
	})
}

// ListSubDepartments returns the subdivisions of one department.
func (h *Handler) ListSubDepartments(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "id")

	subs, err := h.Store.SubDepartmentsByDepartment(r.Context(), departmentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sub-departments", err)
		return
	}
	if subs == nil {
		subs = []sqlite.SubDepartment{}
	}

	writeJSON(w, http.StatusOK, subs)
}

// =============================================================================
// RULE-TYPE CATALOG HANDLERS
// =============================================================================

// ListRuleTypes returns the catalog entries for a kind.
func (h *Handler) ListRuleTypes(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		writeError(w, http.StatusBadRequest, "kind query parameter is required", nil)
		return
	}
	if adjust.LookupKind(kind) == nil {
		writeUnknownKind(w, kind)
		return
	}

	entries, err := h.Store.RuleTypesByKind(r.Context(), payroll.Kind(kind))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rule types", err)
		return
	}

	dtos := make([]RuleTypeDTO, len(entries))
	for i, rt := range entries {
		dtos[i] = toRuleTypeDTO(rt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRuleType creates a catalog entry from its JSON definition.
func (h *Handler) CreateRuleType(w http.ResponseWriter, r *http.Request) {
	var req factory.RuleTypeJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	entry, err := factory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule type definition", err)
		return
	}

	if err := h.Store.SaveRuleType(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create rule type", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRuleTypeDTO(entry))
}

// =============================================================================
// ADJUSTMENT HANDLERS
// =============================================================================

// PreviewAdjustments expands a rule against the selected employees and
// periods without persisting anything. The client holds the staged items
// and sends the edited set back on submit.
func (h *Handler) PreviewAdjustments(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind := adjust.LookupKind(req.Kind)
	if kind == nil {
		writeUnknownKind(w, req.Kind)
		return
	}

	employeeIDs := make([]adjust.EmployeeID, len(req.EmployeeIDs))
	for i, id := range req.EmployeeIDs {
		employeeIDs[i] = adjust.EmployeeID(id)
	}
	periods := make([]adjust.PeriodKey, 0, len(req.Periods))
	for _, p := range req.Periods {
		key, err := adjust.ParsePeriodKey(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period: "+p, err)
			return
		}
		periods = append(periods, key)
	}

	expander := adjust.NewExpander(adjust.NewResolver(h.Store))
	result, err := expander.Expand(r.Context(), adjust.ExpandInput{
		Rule:        fromRuleDTO(req.Rule),
		Kind:        kind,
		EmployeeIDs: employeeIDs,
		Periods:     periods,
		RuleTypeID:  req.RuleTypeID,
		TaxPercent:  decimal.NewFromFloat(req.TaxPercent),
		PaymentMode: req.PaymentMode,
	}, nil)
	if err != nil {
		if adjust.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, "Invalid expansion request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to expand rule", err)
		return
	}

	resp := PreviewResponse{
		Added:   toLineItemDTOs(result.Added),
		Skipped: result.Skipped,
	}
	for _, id := range result.Unresolved {
		resp.Unresolved = append(resp.Unresolved, string(id))
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitAdjustments groups the final edited items by period and fans them
// out to the persistence boundary. The response carries the aggregate
// outcome; a partial failure is still a 200 with the outcome in the body.
func (h *Handler) SubmitAdjustments(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "No items to submit", nil)
		return
	}

	items := make([]adjust.LineItem, 0, len(req.Items))
	for _, d := range req.Items {
		if d.Unresolved {
			writeError(w, http.StatusBadRequest,
				"Item "+d.ID+" has an unresolved baseline; retry resolution before submitting", nil)
			return
		}
		li := fromLineItemDTO(d)
		li.CreatedAt = time.Now()
		items = append(items, li)
	}

	groups := adjust.GroupByPeriod(items)
	for i := range groups {
		if id, ok := req.Correlations[string(groups[i].Period)]; ok {
			groups[i].CorrelationID = id
		}
	}
	coordinator := adjust.NewCoordinator(h.Store)
	result, err := coordinator.Submit(r.Context(), groups)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to submit adjustments", err)
		return
	}

	resp := SubmitResponse{
		Outcome:        string(result.Outcome),
		PersistedItems: result.PersistedItems,
		FirstFailure:   result.FirstFailure,
	}
	for _, g := range result.Groups {
		status := GroupStatusDTO{
			Period:        string(g.Period),
			CorrelationID: g.CorrelationID,
			Persisted:     g.Persisted,
		}
		if g.Err != nil {
			status.Error = g.Err.Error()
		}
		resp.Groups = append(resp.Groups, status)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAdjustments returns the persisted items for one period, optionally
// filtered by kind.
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	period, err := adjust.ParsePeriodKey(r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid or missing period (use YYYY-MM)", err)
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind != "" && adjust.LookupKind(kind) == nil {
		writeUnknownKind(w, kind)
		return
	}

	stored, err := h.Store.ListItemsByPeriod(r.Context(), period, payroll.Kind(kind))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list adjustments", err)
		return
	}

	dtos := make([]LineItemDTO, len(stored))
	for i, st := range stored {
		dtos[i] = toLineItemDTO(st.Item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeUnknownKind(w http.ResponseWriter, kind string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   "Unknown adjustment kind: " + kind,
		Details: "registered kinds: " + strings.Join(adjust.RegisteredKindIDs(), ", "),
	})
}
