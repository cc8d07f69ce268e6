package adjust

// =============================================================================
// PERIOD GROUPER - Partition the staging list before submission
// =============================================================================

// PeriodGroup is one submission unit: all staged items targeting a single
// period. The persistence boundary accepts one period per request. The
// correlation id is optional; when set it is reused on retried submissions
// so the boundary can deduplicate.
type PeriodGroup struct {
	Period        PeriodKey
	CorrelationID string
	Items         []LineItem
}

// GroupByPeriod partitions line items by their period key. Groups are
// ordered chronologically for determinism; within a group the input order
// is preserved unchanged.
func GroupByPeriod(items []LineItem) []PeriodGroup {
	byPeriod := make(map[PeriodKey][]LineItem)
	var order []PeriodKey
	for _, li := range items {
		if _, seen := byPeriod[li.Period]; !seen {
			order = append(order, li.Period)
		}
		byPeriod[li.Period] = append(byPeriod[li.Period], li)
	}

	SortPeriods(order)

	groups := make([]PeriodGroup, 0, len(order))
	for _, p := range order {
		groups = append(groups, PeriodGroup{Period: p, Items: byPeriod[p]})
	}
	return groups
}
