/*
Package sqlite provides a SQLite-backed implementation of the engine's
external boundaries.

PURPOSE:
  Implements the adjust.Directory (employee lookup) and adjust.Submitter
  (batch creation) contracts plus the master-data queries the workflow
  layer needs: employee dropdowns, sub-departments by department, and
  rule-type catalogs per adjustment kind.

KEY TABLES:
  employees:          Directory records with current salary (the baseline)
  sub_departments:    Department → sub-department master data
  rule_types:         Catalog entries (heads / bonus types) per kind
  adjustment_batches: One row per submitted period group, keyed by the
                      client correlation id
  adjustment_items:   Persisted line items, linked to their batch

IDEMPOTENT BATCHES:
  CreateBatch is keyed on the client-generated correlation id. A retried
  submission that re-sends an already-persisted group is answered from the
  existing batch row instead of creating duplicate items. This is what
  makes "re-invoking submission re-sends every group" survivable.

WAL MODE:
  SQLite is opened with WAL for better concurrency: the coordinator calls
  CreateBatch from one goroutine per period group.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  session := adjust.NewSession(store, store)

SEE ALSO:
  - adjust/resolver.go: Directory contract
  - adjust/submit.go: Submitter contract
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/warp/payroll-engine/adjust"
	"github.com/warp/payroll-engine/payroll"
)

// Store implements adjust.Directory and adjust.Submitter using SQLite.
type Store struct {
	db *sqlx.DB
}

// Compile-time boundary checks
var (
	_ adjust.Directory = (*Store)(nil)
	_ adjust.Submitter = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each pooled connection to ":memory:" opens its own empty
		// database. Pin the pool to one connection so the migrated schema
		// and the data live on it; concurrent callers serialize here.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		code TEXT NOT NULL,
		department_id TEXT NOT NULL DEFAULT '',
		sub_department_id TEXT NOT NULL DEFAULT '',
		grade TEXT NOT NULL DEFAULT '',
		designation TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_department
		ON employees(department_id, sub_department_id);

	CREATE TABLE IF NOT EXISTS sub_departments (
		id TEXT PRIMARY KEY,
		department_id TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sub_departments_department
		ON sub_departments(department_id);

	CREATE TABLE IF NOT EXISTS rule_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		calculation_method TEXT NOT NULL,
		fixed_amount TEXT,
		fixed_percentage TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_rule_types_kind
		ON rule_types(kind);

	-- One row per submitted period group. The correlation id is generated
	-- client-side; a retried group hits the primary key and is answered
	-- from this row instead of duplicating items.
	CREATE TABLE IF NOT EXISTS adjustment_batches (
		correlation_id TEXT PRIMARY KEY,
		period TEXT NOT NULL,
		item_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS adjustment_items (
		id TEXT NOT NULL,
		correlation_id TEXT NOT NULL REFERENCES adjustment_batches(correlation_id),
		employee_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		period TEXT NOT NULL,
		rule_json TEXT NOT NULL,
		baseline TEXT NOT NULL,
		amount TEXT NOT NULL,
		rule_type_id TEXT NOT NULL DEFAULT '',
		tax_percent TEXT NOT NULL DEFAULT '0',
		notes TEXT NOT NULL DEFAULT '',
		payment_mode TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		PRIMARY KEY (correlation_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_adjustment_items_period
		ON adjustment_items(period, kind);
	CREATE INDEX IF NOT EXISTS idx_adjustment_items_employee
		ON adjustment_items(employee_id, period);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES - adjust.Directory plus master-data queries
// =============================================================================

// Employee is the storage representation of a directory record.
type Employee struct {
	ID              string `db:"id"`
	DisplayName     string `db:"display_name"`
	Code            string `db:"code"`
	DepartmentID    string `db:"department_id"`
	SubDepartmentID string `db:"sub_department_id"`
	Grade           string `db:"grade"`
	Designation     string `db:"designation"`
	Salary          string `db:"salary"`
	CreatedAt       string `db:"created_at"`
}

// EmployeeByID implements adjust.Directory.
func (s *Store) EmployeeByID(ctx context.Context, id adjust.EmployeeID) (*adjust.EmployeeDetail, error) {
	var row Employee
	err := s.db.GetContext(ctx, &row,
		`SELECT id, display_name, code, department_id, sub_department_id,
		        grade, designation, salary, created_at
		 FROM employees WHERE id = ?`, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, adjust.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee %s: %w", id, err)
	}

	return &adjust.EmployeeDetail{
		ID:              adjust.EmployeeID(row.ID),
		DisplayName:     row.DisplayName,
		Code:            row.Code,
		DepartmentID:    row.DepartmentID,
		SubDepartmentID: row.SubDepartmentID,
		Grade:           row.Grade,
		Designation:     row.Designation,
		Salary:          adjust.MustParseMoney(row.Salary),
	}, nil
}

// SaveEmployee inserts or replaces a directory record.
func (s *Store) SaveEmployee(ctx context.Context, emp Employee) error {
	if emp.CreatedAt == "" {
		emp.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO employees
		 (id, display_name, code, department_id, sub_department_id,
		  grade, designation, salary, created_at)
		 VALUES (:id, :display_name, :code, :department_id, :sub_department_id,
		         :grade, :designation, :salary, :created_at)`, emp)
	return err
}

// DropdownEmployee is the projection the selection UI needs.
type DropdownEmployee struct {
	ID              string `db:"id" json:"id"`
	DisplayName     string `db:"display_name" json:"display_name"`
	Code            string `db:"code" json:"code"`
	DepartmentID    string `db:"department_id" json:"department_id"`
	SubDepartmentID string `db:"sub_department_id" json:"sub_department_id"`
}

// ListEmployees returns the dropdown projection, optionally filtered by
// department and sub-department.
func (s *Store) ListEmployees(ctx context.Context, departmentID, subDepartmentID string) ([]DropdownEmployee, error) {
	query := `SELECT id, display_name, code, department_id, sub_department_id
	          FROM employees`
	var args []any
	switch {
	case departmentID != "" && subDepartmentID != "":
		query += ` WHERE department_id = ? AND sub_department_id = ?`
		args = append(args, departmentID, subDepartmentID)
	case departmentID != "":
		query += ` WHERE department_id = ?`
		args = append(args, departmentID)
	}
	query += ` ORDER BY display_name`

	var rows []DropdownEmployee
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// SubDepartment is one department subdivision.
type SubDepartment struct {
	ID           string `db:"id" json:"id"`
	DepartmentID string `db:"department_id" json:"department_id"`
	Name         string `db:"name" json:"name"`
}

// SubDepartmentsByDepartment lists subdivisions of one department.
func (s *Store) SubDepartmentsByDepartment(ctx context.Context, departmentID string) ([]SubDepartment, error) {
	var rows []SubDepartment
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, department_id, name FROM sub_departments
		 WHERE department_id = ? ORDER BY name`, departmentID)
	return rows, err
}

// SaveSubDepartment inserts or replaces a subdivision.
func (s *Store) SaveSubDepartment(ctx context.Context, sd SubDepartment) error {
	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO sub_departments (id, department_id, name)
		 VALUES (:id, :department_id, :name)`, sd)
	return err
}

// =============================================================================
// RULE-TYPE CATALOGS
// =============================================================================

type ruleTypeRow struct {
	ID                string  `db:"id"`
	Name              string  `db:"name"`
	Kind              string  `db:"kind"`
	CalculationMethod string  `db:"calculation_method"`
	FixedAmount       *string `db:"fixed_amount"`
	FixedPercentage   *string `db:"fixed_percentage"`
}

// SaveRuleType inserts or replaces a catalog entry.
func (s *Store) SaveRuleType(ctx context.Context, rt payroll.RuleType) error {
	row := ruleTypeRow{
		ID:                rt.ID,
		Name:              rt.Name,
		Kind:              string(rt.Kind),
		CalculationMethod: string(rt.CalculationMethod),
	}
	if rt.FixedAmount != nil {
		v := rt.FixedAmount.String()
		row.FixedAmount = &v
	}
	if rt.FixedPercentage != nil {
		v := rt.FixedPercentage.String()
		row.FixedPercentage = &v
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO rule_types
		 (id, name, kind, calculation_method, fixed_amount, fixed_percentage)
		 VALUES (:id, :name, :kind, :calculation_method, :fixed_amount, :fixed_percentage)`, row)
	return err
}

// RuleTypesByKind returns the catalog for one adjustment kind.
func (s *Store) RuleTypesByKind(ctx context.Context, kind payroll.Kind) ([]payroll.RuleType, error) {
	var rows []ruleTypeRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, kind, calculation_method, fixed_amount, fixed_percentage
		 FROM rule_types WHERE kind = ? ORDER BY name`, string(kind))
	if err != nil {
		return nil, err
	}

	entries := make([]payroll.RuleType, 0, len(rows))
	for _, row := range rows {
		entry := payroll.RuleType{
			ID:                row.ID,
			Name:              row.Name,
			Kind:              payroll.Kind(row.Kind),
			CalculationMethod: adjust.Method(row.CalculationMethod),
		}
		if row.FixedAmount != nil {
			v := adjust.MustParseMoney(*row.FixedAmount)
			entry.FixedAmount = &v
		}
		if row.FixedPercentage != nil {
			v := adjust.MustParseMoney(*row.FixedPercentage)
			entry.FixedPercentage = &v
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// =============================================================================
// BATCH CREATION - adjust.Submitter
// =============================================================================

type itemRow struct {
	ID            string `db:"id"`
	CorrelationID string `db:"correlation_id"`
	EmployeeID    string `db:"employee_id"`
	Kind          string `db:"kind"`
	Period        string `db:"period"`
	RuleJSON      string `db:"rule_json"`
	Baseline      string `db:"baseline"`
	Amount        string `db:"amount"`
	RuleTypeID    string `db:"rule_type_id"`
	TaxPercent    string `db:"tax_percent"`
	Notes         string `db:"notes"`
	PaymentMode   string `db:"payment_mode"`
	CreatedAt     string `db:"created_at"`
}

type ruleJSON struct {
	Direction string `json:"direction"`
	Method    string `json:"method"`
	Value     string `json:"value"`
	Category  string `json:"category"`
}

// CreateBatch implements adjust.Submitter. All items of one period group
// are written atomically; a correlation id that already exists is answered
// from the prior batch row without inserting anything.
func (s *Store) CreateBatch(ctx context.Context, req adjust.BatchRequest) (adjust.BatchResult, error) {
	if len(req.Items) == 0 {
		return adjust.BatchResult{}, fmt.Errorf("empty batch for period %s", req.Period)
	}

	// Dedup on the client correlation id: a retried submission re-sends
	// groups that already persisted.
	var existing int
	err := s.db.GetContext(ctx, &existing,
		`SELECT item_count FROM adjustment_batches WHERE correlation_id = ?`, req.CorrelationID)
	if err == nil {
		return adjust.BatchResult{Created: existing, Message: "batch already persisted"}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return adjust.BatchResult{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return adjust.BatchResult{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO adjustment_batches (correlation_id, period, item_count, created_at)
		 VALUES (?, ?, ?, ?)`,
		req.CorrelationID, string(req.Period), len(req.Items), now)
	if err != nil {
		// Two callers can race the same correlation id past the dedup
		// read. The primary key decides; the loser answers like a retry.
		if isConstraintErr(err) {
			tx.Rollback()
			if qerr := s.db.GetContext(ctx, &existing,
				`SELECT item_count FROM adjustment_batches WHERE correlation_id = ?`, req.CorrelationID); qerr == nil {
				return adjust.BatchResult{Created: existing, Message: "batch already persisted"}, nil
			}
		}
		return adjust.BatchResult{}, err
	}

	for _, li := range req.Items {
		rj, err := json.Marshal(ruleJSON{
			Direction: string(li.RuleSnapshot.Direction),
			Method:    string(li.RuleSnapshot.Method),
			Value:     li.RuleSnapshot.Value.String(),
			Category:  string(li.RuleSnapshot.Category),
		})
		if err != nil {
			return adjust.BatchResult{}, err
		}

		row := itemRow{
			ID:            string(li.ID),
			CorrelationID: req.CorrelationID,
			EmployeeID:    string(li.EmployeeID),
			Kind:          li.Kind.KindID(),
			Period:        string(li.Period),
			RuleJSON:      string(rj),
			Baseline:      li.Baseline.String(),
			Amount:        li.Amount.String(),
			RuleTypeID:    li.RuleTypeID,
			TaxPercent:    li.TaxPercent.String(),
			Notes:         li.Notes,
			PaymentMode:   li.PaymentMode,
			CreatedAt:     now,
		}
		_, err = tx.NamedExecContext(ctx,
			`INSERT INTO adjustment_items
			 (id, correlation_id, employee_id, kind, period, rule_json, baseline,
			  amount, rule_type_id, tax_percent, notes, payment_mode, created_at)
			 VALUES (:id, :correlation_id, :employee_id, :kind, :period, :rule_json,
			         :baseline, :amount, :rule_type_id, :tax_percent, :notes,
			         :payment_mode, :created_at)`, row)
		if err != nil {
			return adjust.BatchResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return adjust.BatchResult{}, err
	}
	return adjust.BatchResult{Created: len(req.Items)}, nil
}

func isConstraintErr(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}

// =============================================================================
// PERSISTED ITEM QUERIES - Review screens and the edit flow
// =============================================================================

// StoredItem is one persisted adjustment. The stored amount is the
// post-adjustment value; the edit flow reverse-derives the baseline via
// adjust.NewEditDraft.
type StoredItem struct {
	Item          adjust.LineItem
	CorrelationID string
}

// ListItemsByPeriod returns persisted adjustments for one period, oldest
// batch first. An empty kind matches all kinds.
func (s *Store) ListItemsByPeriod(ctx context.Context, period adjust.PeriodKey, kind payroll.Kind) ([]StoredItem, error) {
	query := `SELECT id, correlation_id, employee_id, kind, period, rule_json,
	                 baseline, amount, rule_type_id, tax_percent, notes,
	                 payment_mode, created_at
	          FROM adjustment_items WHERE period = ?`
	args := []any{string(period)}
	if kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY created_at, id`

	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	items := make([]StoredItem, 0, len(rows))
	for _, row := range rows {
		var rj ruleJSON
		if err := json.Unmarshal([]byte(row.RuleJSON), &rj); err != nil {
			return nil, fmt.Errorf("corrupt rule snapshot on item %s: %w", row.ID, err)
		}
		createdAt, _ := time.Parse(time.RFC3339, row.CreatedAt)

		items = append(items, StoredItem{
			CorrelationID: row.CorrelationID,
			Item: adjust.LineItem{
				ID:         adjust.LineItemID(row.ID),
				EmployeeID: adjust.EmployeeID(row.EmployeeID),
				Kind:       adjust.GetOrCreateKind(row.Kind),
				Period:     adjust.PeriodKey(row.Period),
				RuleSnapshot: adjust.Rule{
					Direction: adjust.Direction(rj.Direction),
					Method:    adjust.Method(rj.Method),
					Value:     adjust.MustParseMoney(rj.Value),
					Category:  adjust.Category(rj.Category),
				},
				Baseline:    adjust.MustParseMoney(row.Baseline),
				Amount:      adjust.MustParseMoney(row.Amount),
				RuleTypeID:  row.RuleTypeID,
				TaxPercent:  adjust.MustParseMoney(row.TaxPercent),
				Notes:       row.Notes,
				PaymentMode: row.PaymentMode,
				CreatedAt:   createdAt,
			},
		})
	}
	return items, nil
}
