package adjust

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// PERIOD KEY - Year-month identifier used for scoping and partitioning
// =============================================================================

// PeriodKey is a year-month key in "YYYY-MM" form. It scopes one-off rules
// to explicit months and partitions submissions (the persistence boundary
// accepts one period per request).
type PeriodKey string

// NewPeriodKey builds a key from a year and month.
func NewPeriodKey(year int, month time.Month) PeriodKey {
	return PeriodKey(fmt.Sprintf("%04d-%02d", year, int(month)))
}

// ParsePeriodKey parses a "YYYY-MM" string.
func ParsePeriodKey(s string) (PeriodKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("invalid period key %q (want YYYY-MM): %w", s, err)
	}
	return NewPeriodKey(t.Year(), t.Month()), nil
}

// CurrentPeriod returns the key for the current month. A Recurring rule is
// not bound to a specific period at authoring time; it expands against this
// single synthetic period so at least one line item always exists.
func CurrentPeriod() PeriodKey {
	now := time.Now()
	return NewPeriodKey(now.Year(), now.Month())
}

// Valid reports whether the key is a well-formed "YYYY-MM".
func (p PeriodKey) Valid() bool {
	_, err := time.Parse("2006-01", string(p))
	return err == nil
}

// Year returns the year component, or 0 if the key is malformed.
func (p PeriodKey) Year() int {
	t, err := time.Parse("2006-01", string(p))
	if err != nil {
		return 0
	}
	return t.Year()
}

// Month returns the month component, or 0 if the key is malformed.
func (p PeriodKey) Month() time.Month {
	t, err := time.Parse("2006-01", string(p))
	if err != nil {
		return 0
	}
	return t.Month()
}

func (p PeriodKey) String() string { return string(p) }

// SortPeriods orders keys chronologically in place. "YYYY-MM" sorts
// lexicographically in date order.
func SortPeriods(keys []PeriodKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
