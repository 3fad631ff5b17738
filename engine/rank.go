package engine

import "sort"

// ============================================================================
// RANK — Window-style ranking over a view
// ============================================================================
// Row ranks are 1-based positions after a stable descending sort, so ties
// keep input order (first seen wins). Competition ranks share a rank across
// ties and leave gaps, like a SQL RANK() window.
// ============================================================================

// SortByMeasureDesc returns a view ordered by measure, largest first.
// The sort is stable; null values sort last.
func SortByMeasureDesc(view RecordView, measure string) RecordView {
	n := view.Len()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		va := view.Measure(indices[a], measure)
		vb := view.Measure(indices[b], measure)
		if IsNull(vb) {
			return !IsNull(va)
		}
		if IsNull(va) {
			return false
		}
		return va > vb
	})
	return newSubView(view, indices)
}

// KeepRanked orders a view by measure descending and keeps the rows whose
// 1-based row rank satisfies keep.
func KeepRanked(view RecordView, measure string, keep func(rank int) bool) RecordView {
	if !hasKey(view.MeasureKeys(), measure) {
		return newSubView(view, nil)
	}
	sorted := SortByMeasureDesc(view, measure)
	return Where(sorted, func(_ RecordView, i int) bool { return keep(i + 1) })
}

// CompetitionRanks ranks values descending; equal values share a rank and
// the next distinct value skips ahead (1, 2, 2, 4).
func CompetitionRanks(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	ranks := make([]int, len(values))
	for pos, idx := range order {
		if pos > 0 && values[idx] == values[order[pos-1]] {
			ranks[idx] = ranks[order[pos-1]]
			continue
		}
		ranks[idx] = pos + 1
	}
	return ranks
}

// BucketTopK sums measure per dimension value, keeps the labels of the
// categories whose row rank is below k, and folds every other category into
// a single otherLabel row. Output: kept categories in rank order, then the
// other bucket (only if something was folded).
func BucketTopK(view RecordView, dimension, measure string, k int, otherLabel string) []Record {
	if view.Len() == 0 || !hasKey(view.DimensionKeys(), dimension) {
		return nil
	}

	groups := GroupAndAggregate(view, []string{dimension}, measure, AggSum, SortValueDesc, 0)

	out := make([]Record, 0, k)
	var other float64
	folded := false
	for i, g := range groups {
		rank := i + 1
		if rank < k {
			rec := NewRecord()
			rec.Dimensions[dimension] = g.Label
			rec.Measures[measure] = g.Value
			out = append(out, rec)
			continue
		}
		other += g.Value
		folded = true
	}
	if folded {
		rec := NewRecord()
		rec.Dimensions[dimension] = otherLabel
		rec.Measures[measure] = other
		out = append(out, rec)
	}
	return out
}
