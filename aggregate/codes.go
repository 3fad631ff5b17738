package aggregate

import (
	"sort"
	"strconv"

	"github.com/spektr-org/inkdash/engine"
	"github.com/spektr-org/inkdash/inmates"
)

// Code measure names produced by the ordinal joins.
const (
	ColReleaseCode = "rd_code"
	ColRaceCode    = "race_code"
)

// ReleaseFlagLabels fixes the display order of release-date flags.
var ReleaseFlagLabels = []string{
	"valid release date",
	"life sentence",
	"coterminous Florida and other state/federal custody",
	"death sentence",
	"pending",
	"to be set",
}

// RaceLabels fixes the display order of race codes.
var RaceLabels = []string{"W", "B", "H", "U", "I", "A"}

// ReleaseFlagCodes maps release flags to rd_code.
var ReleaseFlagCodes = engine.NewCodeTable(inmates.ColReleaseFlag, ColReleaseCode, ReleaseFlagLabels)

// RaceCodes maps races to race_code.
var RaceCodes = engine.NewCodeTable(inmates.ColRace, ColRaceCode, RaceLabels)

// JoinCategoryCodes left-joins the two ordinal tables onto offense rows by
// exact label. Unmatched labels get a null code.
func JoinCategoryCodes(view engine.RecordView, x, y engine.CodeTable) engine.RecordView {
	return engine.JoinCodes(view, x, y)
}

// MeanMaxByFlagAndRace groups offenses by (release flag, race) and reports
// prison term mean and max plus the max of each ordinal code. The
// two-level column names are flattened to identifiers:
// releasedateflagdescr, Race, prisontermmean, prisontermmax, racecodemax,
// rdcodemax. Rows without a flag or race are skipped.
func MeanMaxByFlagAndRace(view engine.RecordView) *engine.Frame {
	known := engine.DropEmptyKeys(view, inmates.ColReleaseFlag, inmates.ColRace)
	joined := JoinCategoryCodes(known, ReleaseFlagCodes, RaceCodes)
	frame := engine.Summarize(joined,
		[]string{inmates.ColReleaseFlag, inmates.ColRace},
		[]engine.AggSpec{
			{Measure: inmates.ColPrisonTerm, Func: engine.AggMean},
			{Measure: inmates.ColPrisonTerm, Func: engine.AggMax},
			{Measure: ColRaceCode, Func: engine.AggMax},
			{Measure: ColReleaseCode, Func: engine.AggMax},
		})
	return frame.Flatten()
}

// Flattened column names of MeanMaxByFlagAndRace.
const (
	ColFlatReleaseFlag = "releasedateflagdescr"
	ColFlatPrisonMean  = "prisontermmean"
	ColFlatPrisonMax   = "prisontermmax"
	ColFlatRaceCodeMax = "racecodemax"
	ColFlatRelCodeMax  = "rdcodemax"
)

// ============================================================================
// RELEASE FLAG BUMP
// ============================================================================

// BumpAfterYear is the first excluded offense year of the bump chart.
const BumpAfterYear = 1984

// ReleaseFlagRank is one release flag's standing within an offense year.
type ReleaseFlagRank struct {
	Year  string
	Flag  string
	Count float64
	Rank  int
}

// ReleaseFlagRanksByYear counts offenses per (offense year, release flag)
// for years after afterYear and ranks flags within each year by count,
// largest first; ties share a rank. Output is ordered by year, then rank.
// Rows without a release flag are skipped.
func ReleaseFlagRanksByYear(view engine.RecordView, afterYear int) []ReleaseFlagRank {
	if !engine.HasDimensions(view, inmates.ColOffenseYear, inmates.ColReleaseFlag) {
		return nil
	}

	recent := engine.Where(engine.DropEmptyKeys(view, inmates.ColReleaseFlag), func(v engine.RecordView, i int) bool {
		year, err := strconv.Atoi(v.Dimension(i, inmates.ColOffenseYear))
		return err == nil && year > afterYear
	})

	byYear := engine.GroupBy(recent, inmates.ColOffenseYear)
	engine.SortGroups(byYear, engine.SortKeyAsc)

	var out []ReleaseFlagRank
	for _, y := range byYear {
		flags := engine.GroupBy(y.View, inmates.ColReleaseFlag)
		engine.SortGroups(flags, engine.SortKeyAsc)

		counts := make([]float64, len(flags))
		for i, f := range flags {
			counts[i] = float64(f.View.Len())
		}
		ranks := engine.CompetitionRanks(counts)

		rows := make([]ReleaseFlagRank, len(flags))
		for i, f := range flags {
			rows[i] = ReleaseFlagRank{Year: y.Keys[0], Flag: f.Keys[0], Count: counts[i], Rank: ranks[i]}
		}
		sort.SliceStable(rows, func(a, b int) bool { return rows[a].Rank < rows[b].Rank })
		out = append(out, rows...)
	}
	return out
}

var bumpAdapter = engine.NewDomainAdapter[ReleaseFlagRank]().
	Dimension(inmates.ColOffenseDate, func(r ReleaseFlagRank) string { return r.Year }).
	Dimension(inmates.ColReleaseFlag, func(r ReleaseFlagRank) string { return r.Flag }).
	Measure(inmates.ColDCNumber, func(r ReleaseFlagRank) float64 { return r.Count }).
	Measure(ColRank, func(r ReleaseFlagRank) float64 { return float64(r.Rank) })

// ReleaseFlagRankView exposes bump rows under the source column names
// (year as OffenseDate, count as DCNumber) plus rank.
func ReleaseFlagRankView(rows []ReleaseFlagRank) engine.RecordView { return bumpAdapter.Bind(rows) }
