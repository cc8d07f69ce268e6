/*
kind.go - Adjustment kind registration and lookup

PURPOSE:
  Provides a registry for domain packages to register their adjustment
  kinds. The engine itself is kind-agnostic: an increment, an allowance,
  and a bonus all expand and submit the same way, but identity keys and
  persistence are partitioned by kind.

HOW IT WORKS:
  1. Domain packages define their Kind implementations
  2. Domain packages register them on init()
  3. Factory/storage uses the registry to reconstruct types from strings

SEE ALSO:
  - payroll/types.go: Concrete payroll kinds
  - factory/catalog.go: Uses the registry during catalog parsing
*/
package adjust

import (
	"sort"
	"sync"
)

// Kind identifies what kind of adjustment is being generated.
// Domain packages define their own concrete types; the engine has no
// knowledge of specific kinds.
type Kind interface {
	// KindID returns the unique identifier for this adjustment kind.
	KindID() string

	// KindDomain returns which domain this kind belongs to.
	KindDomain() string
}

// =============================================================================
// KIND REGISTRY
// =============================================================================

// kindIndex holds the registered kinds, keyed by id. Domain package init()
// and request handlers both touch it, hence the lock.
type kindIndex struct {
	mu   sync.RWMutex
	byID map[string]Kind
}

var kinds = &kindIndex{byID: make(map[string]Kind)}

// RegisterKind adds a kind to the global registry.
// Call this from domain package init() functions.
func RegisterKind(k Kind) {
	kinds.mu.Lock()
	defer kinds.mu.Unlock()
	kinds.byID[k.KindID()] = k
}

// LookupKind finds a registered kind by ID. Returns nil if not found.
func LookupKind(id string) Kind {
	kinds.mu.RLock()
	defer kinds.mu.RUnlock()
	return kinds.byID[id]
}

// RegisteredKindIDs returns the ids of every registered kind, sorted.
// Handlers use this to explain what a caller may ask for.
func RegisteredKindIDs() []string {
	kinds.mu.RLock()
	defer kinds.mu.RUnlock()
	ids := make([]string, 0, len(kinds.byID))
	for id := range kinds.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// =============================================================================
// STRING KIND - For testing and fallback
// =============================================================================

// StringKind is a simple string-based kind.
// Use only for testing or as a fallback during deserialization.
type StringKind struct {
	ID     string
	Domain string
}

func (k StringKind) KindID() string     { return k.ID }
func (k StringKind) KindDomain() string { return k.Domain }

// GetOrCreateKind looks up a kind, or creates a StringKind fallback.
// Use this in deserialization when the domain might not be loaded.
func GetOrCreateKind(id string) Kind {
	if k := LookupKind(id); k != nil {
		return k
	}
	return StringKind{ID: id, Domain: "unknown"}
}
