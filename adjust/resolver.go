/*
resolver.go - Per-employee baseline resolution with session caching

PURPOSE:
  Obtains each employee's current baseline value (salary) from the external
  employee directory. A resolution is requested exactly once per employee
  per session unless the cache is explicitly invalidated; repeated UI
  interactions over the same selection never refetch.

CONTRACT:
  resolve(employeeId) -> baseline | pending | failed

  - While pending, dependent computation must NOT treat the baseline as
    zero; it must visibly defer (see LineItem.Unresolved).
  - Multiple employees are resolved concurrently, each an independent
    request; a failure for one employee never blocks the others.
  - Results merge into the cache as they arrive; no ordering is guaranteed
    or required.

SEE ALSO:
  - expand.go: Consumes resolved baselines during expansion
  - store/sqlite: Directory implementation
*/
package adjust

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DIRECTORY - External employee lookup boundary
// =============================================================================

// EmployeeDetail is what the external directory knows about an employee.
type EmployeeDetail struct {
	ID              EmployeeID
	DisplayName     string
	Code            string
	DepartmentID    string
	SubDepartmentID string
	Grade           string
	Designation     string
	Salary          decimal.Decimal
}

// Directory is the employee-detail collaborator. Implementations live
// outside the engine (SQLite store, HTTP client, in-memory fake).
type Directory interface {
	EmployeeByID(ctx context.Context, id EmployeeID) (*EmployeeDetail, error)
}

// =============================================================================
// BASELINE STATE
// =============================================================================

type BaselineState int

const (
	BaselinePending BaselineState = iota
	BaselineResolved
	BaselineFailed
)

// Baseline is the resolution outcome for one employee.
type Baseline struct {
	State BaselineState
	Value decimal.Decimal // meaningful only when State == BaselineResolved
	Err   error           // meaningful only when State == BaselineFailed
}

// =============================================================================
// CACHING RESOLVER
// =============================================================================

// Resolver resolves baselines with a session-scoped cache.
type Resolver struct {
	dir   Directory
	mu    sync.Mutex
	cache map[EmployeeID]Baseline
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir, cache: make(map[EmployeeID]Baseline)}
}

// Resolve fetches one employee's baseline, consulting the cache first.
// Failed lookups are cached too: the UI retries explicitly via Invalidate,
// not implicitly on every interaction.
func (r *Resolver) Resolve(ctx context.Context, id EmployeeID) Baseline {
	r.mu.Lock()
	if b, ok := r.cache[id]; ok {
		r.mu.Unlock()
		return b
	}
	r.mu.Unlock()

	b := r.fetch(ctx, id)

	r.mu.Lock()
	r.cache[id] = b
	r.mu.Unlock()
	return b
}

// ResolveAll resolves a set of employees concurrently. Each lookup is an
// independent request; one failure does not block the rest. Results are
// merged into the cache as they arrive.
func (r *Resolver) ResolveAll(ctx context.Context, ids []EmployeeID) map[EmployeeID]Baseline {
	// Figure out which ids actually need a fetch. The input may repeat an
	// id; each distinct employee is fetched once.
	r.mu.Lock()
	var missing []EmployeeID
	queued := make(map[EmployeeID]bool, len(ids))
	for _, id := range ids {
		if queued[id] {
			continue
		}
		queued[id] = true
		if _, ok := r.cache[id]; !ok {
			missing = append(missing, id)
		}
	}
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range missing {
		wg.Add(1)
		go func(id EmployeeID) {
			defer wg.Done()
			b := r.fetch(ctx, id)
			r.mu.Lock()
			r.cache[id] = b
			r.mu.Unlock()
		}(id)
	}
	wg.Wait()

	out := make(map[EmployeeID]Baseline, len(ids))
	r.mu.Lock()
	for _, id := range ids {
		out[id] = r.cache[id]
	}
	r.mu.Unlock()
	return out
}

// Peek returns the cached state without triggering a fetch.
// Unknown employees report BaselinePending.
func (r *Resolver) Peek(id EmployeeID) Baseline {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.cache[id]; ok {
		return b
	}
	return Baseline{State: BaselinePending}
}

// Invalidate drops one employee from the cache so the next Resolve
// refetches. Used to retry failed lookups.
func (r *Resolver) Invalidate(id EmployeeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, id)
}

// Reset clears the whole session cache.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[EmployeeID]Baseline)
}

func (r *Resolver) fetch(ctx context.Context, id EmployeeID) Baseline {
	detail, err := r.dir.EmployeeByID(ctx, id)
	if err != nil {
		return Baseline{State: BaselineFailed, Err: &ResolutionError{EmployeeID: id, Err: err}}
	}
	return Baseline{State: BaselineResolved, Value: detail.Salary}
}
