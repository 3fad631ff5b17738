package engine

// ============================================================================
// FILTERS — Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy.
// Matching is exact: categorical labels come from the data files verbatim.
// ============================================================================

// All is the selection sentinel meaning "no restriction".
const All = "ALL"

// ApplyFilters returns a view of records matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Empty filter = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if filters.IsEmpty() {
		return view
	}

	sets := make(map[string]map[string]bool)
	for dim, allowed := range filters.Dimensions {
		if len(allowed) > 0 {
			sets[dim] = toSet(allowed)
		}
	}

	if len(sets) == 0 {
		return view
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[view.Dimension(i, dim)] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// MatchDimension restricts a view to rows whose dimension equals value.
// The All sentinel leaves the view unrestricted.
func MatchDimension(view RecordView, dimension, value string) RecordView {
	if value == All {
		return view
	}
	return ApplyFilters(view, Filters{Dimensions: map[string][]string{dimension: {value}}})
}

// Where returns a view of the rows for which keep returns true.
func Where(view RecordView, keep func(view RecordView, i int) bool) RecordView {
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep(view, i) {
			indices = append(indices, i)
		}
	}
	return newSubView(view, indices)
}

// DropEmptyKeys removes rows with an empty value in any of dimensions.
// Loaders read null labels as "", and grouping treats them as missing.
func DropEmptyKeys(view RecordView, dimensions ...string) RecordView {
	return Where(view, func(v RecordView, i int) bool {
		for _, dim := range dimensions {
			if v.Dimension(i, dim) == "" {
				return false
			}
		}
		return true
	})
}

// toSet converts a string slice to a lookup set.
func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
