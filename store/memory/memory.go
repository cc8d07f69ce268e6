// Package memory provides in-memory Directory and Submitter implementations
// (for testing/dev).
package memory

import (
	"context"
	"sync"

	"github.com/warp/payroll-engine/adjust"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store holds employees and persisted batches in maps. Failure injection
// hooks let tests exercise resolution and submission error paths.
type Store struct {
	mu        sync.RWMutex
	employees map[adjust.EmployeeID]adjust.EmployeeDetail
	batches   map[string]adjust.BatchRequest // by correlation id

	// FailEmployees makes EmployeeByID fail for the listed ids.
	FailEmployees map[adjust.EmployeeID]error

	// FailPeriods makes CreateBatch fail for the listed periods.
	FailPeriods map[adjust.PeriodKey]error

	// Lookups counts EmployeeByID calls per employee, so tests can assert
	// the resolver caches.
	Lookups map[adjust.EmployeeID]int
}

var (
	_ adjust.Directory = (*Store)(nil)
	_ adjust.Submitter = (*Store)(nil)
)

func New() *Store {
	return &Store{
		employees:     make(map[adjust.EmployeeID]adjust.EmployeeDetail),
		batches:       make(map[string]adjust.BatchRequest),
		FailEmployees: make(map[adjust.EmployeeID]error),
		FailPeriods:   make(map[adjust.PeriodKey]error),
		Lookups:       make(map[adjust.EmployeeID]int),
	}
}

// AddEmployee registers a directory record.
func (m *Store) AddEmployee(detail adjust.EmployeeDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[detail.ID] = detail
}

// EmployeeByID implements adjust.Directory.
func (m *Store) EmployeeByID(_ context.Context, id adjust.EmployeeID) (*adjust.EmployeeDetail, error) {
	m.mu.Lock()
	m.Lookups[id]++
	err, failing := m.FailEmployees[id]
	detail, ok := m.employees[id]
	m.mu.Unlock()

	if failing {
		return nil, err
	}
	if !ok {
		return nil, adjust.ErrEmployeeNotFound
	}
	return &detail, nil
}

// CreateBatch implements adjust.Submitter. Batches are deduplicated on the
// correlation id the way the real boundary is.
func (m *Store) CreateBatch(_ context.Context, req adjust.BatchRequest) (adjust.BatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, failing := m.FailPeriods[req.Period]; failing {
		return adjust.BatchResult{}, err
	}
	if prior, ok := m.batches[req.CorrelationID]; ok {
		return adjust.BatchResult{Created: len(prior.Items), Message: "batch already persisted"}, nil
	}
	m.batches[req.CorrelationID] = req
	return adjust.BatchResult{Created: len(req.Items)}, nil
}

// Batches returns all persisted batch requests, for assertions.
func (m *Store) Batches() []adjust.BatchRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]adjust.BatchRequest, 0, len(m.batches))
	for _, b := range m.batches {
		out = append(out, b)
	}
	return out
}

// ItemCount returns the total number of persisted line items.
func (m *Store) ItemCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, b := range m.batches {
		n += len(b.Items)
	}
	return n
}
