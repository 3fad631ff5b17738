package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// Grouping produces SubViews (index lists into parent view).
// ============================================================================

// Aggregation function names.
const (
	AggCount = "count"
	AggSum   = "sum"
	AggMean  = "mean"
	AggMax   = "max"
	AggMin   = "min"
)

// Sort modes understood by SortGroups.
const (
	SortValueDesc = "value_desc"
	SortKeyAsc    = "key_asc"
)

const keySeparator = "\x1f"

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → aggregate → sort → limit.
func GroupAndAggregate(
	view RecordView,
	groupBy []string,
	measure string,
	aggregation string,
	sortBy string,
	limit int,
) []Group {
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	if len(groupBy) == 0 {
		groups = []Group{{
			Key:   "all",
			Label: "Total",
			View:  view,
		}}
	} else {
		groups = GroupBy(view, groupBy...)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateGroup(&groups[i], measure, aggregation)
	}

	// 3. Sort
	SortGroups(groups, sortBy)

	// 4. Limit
	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}

	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

// GroupBy partitions a view by one or more dimensions.
// Groups come back in first-seen order; use SortGroups for key order.
func GroupBy(view RecordView, dimensions ...string) []Group {
	if len(dimensions) == 0 {
		return nil
	}

	grouped := make(map[string][]int)
	keysOf := make(map[string][]string)
	order := make([]string, 0)

	parts := make([]string, len(dimensions))
	for i := 0; i < view.Len(); i++ {
		for d, dim := range dimensions {
			parts[d] = view.Dimension(i, dim)
		}
		key := strings.Join(parts, keySeparator)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
			keysOf[key] = append([]string(nil), parts...)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		keys := keysOf[key]
		groups = append(groups, Group{
			Key:   key,
			Keys:  keys,
			Label: strings.Join(keys, " / "),
			View:  newSubView(view, grouped[key]),
		})
	}
	return groups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measure string, aggregation string) {
	group.Count = group.View.Len()
	group.Value = Aggregate(group.View, measure, aggregation)
}

// Aggregate applies a named aggregation to a measure across a view.
// Unknown names fall back to sum.
func Aggregate(view RecordView, measure string, aggregation string) float64 {
	switch aggregation {
	case AggCount:
		return float64(view.Len())
	case AggMean:
		return MeanMeasure(view, measure)
	case AggMax:
		return MaxMeasure(view, measure)
	case AggMin:
		return MinMeasure(view, measure)
	default:
		return SumMeasure(view, measure)
	}
}

// SumMeasure sums a named measure across a view, skipping nulls.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if IsNull(v) {
			continue
		}
		total += v
	}
	return total
}

// MeanMeasure computes the average of the non-null values of a measure.
// All-null (or empty) input yields Null.
func MeanMeasure(view RecordView, measure string) float64 {
	var total float64
	n := 0
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if IsNull(v) {
			continue
		}
		total += v
		n++
	}
	if n == 0 {
		return Null
	}
	return total / float64(n)
}

// MaxMeasure returns the largest non-null value of a measure, or Null.
func MaxMeasure(view RecordView, measure string) float64 {
	m := math.Inf(-1)
	found := false
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if IsNull(v) {
			continue
		}
		if !found || v > m {
			m = v
			found = true
		}
	}
	if !found {
		return Null
	}
	return m
}

// MinMeasure returns the smallest non-null value of a measure, or Null.
func MinMeasure(view RecordView, measure string) float64 {
	m := math.Inf(1)
	found := false
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if IsNull(v) {
			continue
		}
		if !found || v < m {
			m = v
			found = true
		}
	}
	if !found {
		return Null
	}
	return m
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups sorts aggregate groups by the specified sort mode.
// All sorts are stable: equal groups keep their input order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case SortValueDesc:
		sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	case SortKeyAsc:
		sort.SliceStable(groups, func(i, j int) bool { return lessKeys(groups[i].Keys, groups[j].Keys) })
	default:
		// preserve grouping order
	}
}

func lessKeys(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// GroupsToRecords turns aggregated groups back into rows: one dimension per
// grouping key and the group value under measure.
func GroupsToRecords(groups []Group, dimensions []string, measure string) []Record {
	out := make([]Record, 0, len(groups))
	for _, g := range groups {
		rec := NewRecord()
		for d, dim := range dimensions {
			if d < len(g.Keys) {
				rec.Dimensions[dim] = g.Keys[d]
			}
		}
		rec.Measures[measure] = g.Value
		out = append(out, rec)
	}
	return out
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatNumber renders a measure for tables: whole numbers without
// decimals, fractions with two, nulls as empty.
func FormatNumber(v float64) string {
	if IsNull(v) {
		return ""
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return FormatInt(int(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct non-empty values for a dimension, first-seen order.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

// LabelForDimension returns a capitalized label for a dimension.
func LabelForDimension(dimension string) string {
	if len(dimension) == 0 {
		return ""
	}
	return strings.ToUpper(dimension[:1]) + dimension[1:]
}

func sortStrings(s []string) { sort.Strings(s) }
