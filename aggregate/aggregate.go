// Package aggregate derives the summary tables behind every dashboard view.
//
// Functions are pure: they read loaded tables (through engine views) and
// return new rows. Missing grouping columns or empty inputs produce empty
// results, never errors.
package aggregate

import (
	"sort"
	"time"

	"github.com/spektr-org/inkdash/engine"
	"github.com/spektr-org/inkdash/inmates"
)

// ============================================================================
// COUNTY AGGREGATES
// ============================================================================

// ByCounty groups offenses by county and reports mean prison, probation and
// parole terms plus the row count. Rows, not distinct inmates, are counted.
// Output is ordered by county name; rows without a county are skipped.
func ByCounty(view engine.RecordView) []inmates.CountyAggregate {
	if !engine.HasDimensions(view, inmates.ColCounty) {
		return nil
	}
	groups := engine.GroupBy(engine.DropEmptyKeys(view, inmates.ColCounty), inmates.ColCounty)
	engine.SortGroups(groups, engine.SortKeyAsc)

	out := make([]inmates.CountyAggregate, 0, len(groups))
	for _, g := range groups {
		out = append(out, inmates.CountyAggregate{
			County:            g.Keys[0],
			MeanPrisonTerm:    engine.MeanMeasure(g.View, inmates.ColPrisonTerm),
			MeanProbationTerm: engine.MeanMeasure(g.View, inmates.ColProbationTerm),
			MeanParoleTerm:    engine.MeanMeasure(g.View, inmates.ColParoleTerm),
			Count:             float64(g.View.Len()),
		})
	}
	return out
}

// FilterCounty restricts offenses to one county; engine.All keeps every row.
func FilterCounty(view engine.RecordView, county string) engine.RecordView {
	return engine.MatchDimension(view, inmates.ColCounty, county)
}

// ByCountyRaceSex counts offense rows per (county, race, sex), ordered by key.
// Callers pass a view already narrowed by FilterCounty. Rows missing any
// of the three keys are skipped.
func ByCountyRaceSex(view engine.RecordView) []inmates.DemographicCount {
	if !engine.HasDimensions(view, inmates.ColCounty, inmates.ColRace, inmates.ColSex) {
		return nil
	}
	keys := []string{inmates.ColCounty, inmates.ColRace, inmates.ColSex}
	groups := engine.GroupBy(engine.DropEmptyKeys(view, keys...), keys...)
	engine.SortGroups(groups, engine.SortKeyAsc)

	out := make([]inmates.DemographicCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, inmates.DemographicCount{
			County: g.Keys[0],
			Race:   g.Keys[1],
			Sex:    g.Keys[2],
			Count:  float64(g.View.Len()),
		})
	}
	return out
}

// ============================================================================
// CHARGE TIME SERIES
// ============================================================================

// YearRange is a half-open interval of years: After is excluded, Through
// is included.
type YearRange struct {
	After   time.Time
	Through time.Time
}

// DefaultYearRange is (1970-01-01, 2016-01-01].
var DefaultYearRange = YearRange{
	After:   time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
	Through: time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC),
}

// Contains reports After < t <= Through.
func (r YearRange) Contains(t time.Time) bool {
	return t.After(r.After) && !t.After(r.Through)
}

// FilterTimeSeries keeps rows inside the year range whose charge is in
// charges. An empty charge set keeps nothing.
func FilterTimeSeries(series []inmates.ChargeCount, charges []string, r YearRange) []inmates.ChargeCount {
	if len(charges) == 0 {
		return nil
	}
	set := make(map[string]bool, len(charges))
	for _, c := range charges {
		set[c] = true
	}

	var out []inmates.ChargeCount
	for _, row := range series {
		if set[row.Charge] && r.Contains(row.Year) {
			out = append(out, row)
		}
	}
	return out
}

// ============================================================================
// RANKING
// ============================================================================

// RankTopNInclusive keeps rows whose descending rank by metric is <= n.
// Ties keep input order.
func RankTopNInclusive(view engine.RecordView, metric string, n int) engine.RecordView {
	return engine.KeepRanked(view, metric, func(rank int) bool { return rank <= n })
}

// RankTopNExclusive keeps rows whose descending rank by metric is < n, so
// the nth row is dropped. Ties keep input order.
func RankTopNExclusive(view engine.RecordView, metric string, n int) engine.RecordView {
	return engine.KeepRanked(view, metric, func(rank int) bool { return rank < n })
}

// CountyTotals sums demographic counts per county (ordered by county).
func CountyTotals(rows []inmates.DemographicCount) engine.RecordView {
	groups := engine.GroupAndAggregate(inmates.DemographicView(rows),
		[]string{inmates.ColCounty}, inmates.ColDCNumber, engine.AggSum, engine.SortKeyAsc, 0)
	records := engine.GroupsToRecords(groups, []string{inmates.ColCounty}, ColSum)
	return engine.NewSliceViewWithKeys(records, []string{inmates.ColCounty}, []string{ColSum})
}

// TopCountiesByRace keeps the demographic rows of the counties whose total
// offense count ranks <= n.
func TopCountiesByRace(rows []inmates.DemographicCount, n int) []inmates.DemographicCount {
	top := RankTopNInclusive(CountyTotals(rows), ColSum, n)
	keep := make(map[string]bool, top.Len())
	for i := 0; i < top.Len(); i++ {
		keep[top.Dimension(i, inmates.ColCounty)] = true
	}

	var out []inmates.DemographicCount
	for _, r := range rows {
		if keep[r.County] {
			out = append(out, r)
		}
	}
	return out
}

// Output column names of derived tables.
const (
	ColSum         = "sum"
	ColSumOffenses = "sum_offenses"
	ColRankedRace  = "ranked_race"
	ColRank        = "rank"
)

// ============================================================================
// RACE BUCKETS
// ============================================================================

// OtherLabel names the bucket that absorbs low-ranked categories.
const OtherLabel = "All Others"

// DefaultBucketK keeps the two largest races and buckets the rest.
const DefaultBucketK = 3

// BucketRaceIntoTopKPlusOther sums offense counts per race, keeps the races
// ranked below k (1-based) under their own label and folds every other race
// into "All Others". Rows carry ranked_race and sum_offenses.
func BucketRaceIntoTopKPlusOther(rows []inmates.DemographicCount, k int) []engine.Record {
	buckets := engine.BucketTopK(inmates.DemographicView(rows), inmates.ColRace, inmates.ColDCNumber, k, OtherLabel)

	out := make([]engine.Record, 0, len(buckets))
	for _, b := range buckets {
		rec := engine.NewRecord()
		rec.Dimensions[ColRankedRace] = b.Dimensions[inmates.ColRace]
		rec.Measures[ColSumOffenses] = b.Measures[inmates.ColDCNumber]
		out = append(out, rec)
	}
	return out
}

// RaceShares reports each race's percentage of offense rows, largest first.
func RaceShares(rows []inmates.DemographicCount) []engine.Share {
	return engine.BuildShares(inmates.DemographicView(rows), inmates.ColRace, inmates.ColDCNumber)
}

// ============================================================================
// OPTION LISTS
// ============================================================================

// Counties lists distinct counties plus engine.All, sorted.
func Counties(offenses []inmates.OffenseRecord) []string {
	return withAll(engine.UniqueValues(inmates.OffenseView(offenses), inmates.ColCounty))
}

// Charges lists distinct charge labels in first-seen order.
func Charges(series []inmates.ChargeCount) []string {
	return engine.UniqueValues(inmates.ChargeView(series), inmates.ColCharge)
}

// TattooLocations lists distinct tattoo locations plus engine.All, sorted.
func TattooLocations(tattoos []inmates.TattooRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tattoos {
		if t.Location != "" && !seen[t.Location] {
			seen[t.Location] = true
			out = append(out, t.Location)
		}
	}
	return withAll(out)
}

func withAll(values []string) []string {
	out := make([]string, 0, len(values)+1)
	out = append(out, values...)
	hasAll := false
	for _, v := range values {
		if v == engine.All {
			hasAll = true
			break
		}
	}
	if !hasAll {
		out = append(out, engine.All)
	}
	sort.Strings(out)
	return out
}
