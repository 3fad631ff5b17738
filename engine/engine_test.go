package engine

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

type row struct {
	County string
	Race   string
	Term   float64
}

var rowAdapter = NewDomainAdapter[row]().
	Dimension("County", func(r row) string { return r.County }).
	Dimension("Race", func(r row) string { return r.Race }).
	Measure("term", func(r row) float64 { return r.Term })

var sampleRows = []row{
	{"DADE", "B", 10},
	{"DADE", "W", 20},
	{"LEON", "W", Null},
	{"LEON", "W", 40},
	{"ORANGE", "H", 5},
}

func dims(view RecordView, key string) []string {
	out := make([]string, view.Len())
	for i := range out {
		out[i] = view.Dimension(i, key)
	}
	return out
}

// ============================================================================
// VIEWS
// ============================================================================

func TestDomainViewReadsThroughAccessors(t *testing.T) {
	view := rowAdapter.Bind(sampleRows)

	assert.Equal(t, 5, view.Len())
	assert.Equal(t, []string{"County", "Race"}, view.DimensionKeys())
	assert.Equal(t, []string{"term"}, view.MeasureKeys())
	assert.Equal(t, "LEON", view.Dimension(2, "County"))
	assert.True(t, IsNull(view.Measure(2, "term")))
	assert.Equal(t, "", view.Dimension(99, "County"))
	assert.True(t, IsNull(view.Measure(0, "missing")))
}

func TestSliceViewDiscoversSortedKeys(t *testing.T) {
	rec := NewRecord()
	rec.Dimensions["b"] = "x"
	rec.Dimensions["a"] = "y"
	rec.Measures["m"] = 1

	view := NewSliceView([]Record{rec})
	assert.Equal(t, []string{"a", "b"}, view.DimensionKeys())
	assert.Equal(t, []string{"m"}, view.MeasureKeys())
	assert.True(t, IsNull(view.Measure(0, "other")))
}

func TestRecordValuesEncodesNullAsJSONNull(t *testing.T) {
	rec := NewRecord()
	rec.Dimensions["County"] = "DADE"
	rec.Measures["term"] = Null
	rec.Measures["count"] = 3

	out, err := json.Marshal(rec.Values())
	require.NoError(t, err)
	assert.JSONEq(t, `{"County":"DADE","term":null,"count":3}`, string(out))
}

// ============================================================================
// FILTERS
// ============================================================================

func TestMatchDimension(t *testing.T) {
	view := rowAdapter.Bind(sampleRows)

	leon := MatchDimension(view, "County", "LEON")
	assert.Equal(t, []string{"LEON", "LEON"}, dims(leon, "County"))

	assert.Same(t, view, MatchDimension(view, "County", All))
	assert.Equal(t, 0, MatchDimension(view, "County", "NOWHERE").Len())
}

func TestApplyFiltersANDsDimensions(t *testing.T) {
	view := rowAdapter.Bind(sampleRows)
	out := ApplyFilters(view, Filters{Dimensions: map[string][]string{
		"County": {"DADE", "LEON"},
		"Race":   {"W"},
	}})
	assert.Equal(t, []string{"DADE", "LEON", "LEON"}, dims(out, "County"))
}

func TestDropEmptyKeys(t *testing.T) {
	view := rowAdapter.Bind([]row{
		{"DADE", "B", 1}, {"", "W", 2}, {"LEON", "", 3}, {"LEON", "H", 4},
	})

	assert.Equal(t, []string{"DADE", "LEON", "LEON"}, dims(DropEmptyKeys(view, "County"), "County"))
	assert.Equal(t, []string{"DADE", "LEON"}, dims(DropEmptyKeys(view, "County", "Race"), "County"))
	assert.Len(t, GroupBy(DropEmptyKeys(view, "County"), "County"), 2)
}

// ============================================================================
// AGGREGATION
// ============================================================================

func TestAggregatesSkipNulls(t *testing.T) {
	leon := MatchDimension(rowAdapter.Bind(sampleRows), "County", "LEON")

	assert.Equal(t, 40.0, MeanMeasure(leon, "term"))
	assert.Equal(t, 40.0, MaxMeasure(leon, "term"))
	assert.Equal(t, 40.0, SumMeasure(leon, "term"))
	assert.Equal(t, 2.0, Aggregate(leon, "term", AggCount))

	empty := MatchDimension(rowAdapter.Bind(sampleRows), "County", "NOWHERE")
	assert.True(t, IsNull(MeanMeasure(empty, "term")))
	assert.True(t, IsNull(MaxMeasure(empty, "term")))
}

func TestGroupAndAggregate(t *testing.T) {
	groups := GroupAndAggregate(rowAdapter.Bind(sampleRows), []string{"County"}, "term", AggSum, SortValueDesc, 2)
	require.Len(t, groups, 2)
	assert.Equal(t, "LEON", groups[0].Label)
	assert.Equal(t, 40.0, groups[0].Value)
	assert.Equal(t, 2, groups[0].Count)
	assert.Equal(t, "DADE", groups[1].Label)
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "1,234", FormatNumber(1234))
	assert.Equal(t, "12.50", FormatNumber(12.5))
	assert.Equal(t, "", FormatNumber(Null))
	assert.Equal(t, "-1,000", FormatInt(-1000))
}

// ============================================================================
// RANK
// ============================================================================

func TestKeepRankedInclusiveVsExclusive(t *testing.T) {
	view := rowAdapter.Bind([]row{
		{"A", "", 1}, {"B", "", 5}, {"C", "", 3}, {"D", "", 4},
	})

	inclusive := KeepRanked(view, "term", func(r int) bool { return r <= 3 })
	exclusive := KeepRanked(view, "term", func(r int) bool { return r < 3 })

	assert.Equal(t, []string{"B", "D", "C"}, dims(inclusive, "County"))
	assert.Equal(t, []string{"B", "D"}, dims(exclusive, "County"))
}

func TestKeepRankedTiesKeepInputOrder(t *testing.T) {
	view := rowAdapter.Bind([]row{{"A", "", 2}, {"B", "", 2}, {"C", "", 2}})
	top := KeepRanked(view, "term", func(r int) bool { return r <= 2 })
	assert.Equal(t, []string{"A", "B"}, dims(top, "County"))
}

func TestKeepRankedMissingMetric(t *testing.T) {
	top := KeepRanked(rowAdapter.Bind(sampleRows), "nope", func(int) bool { return true })
	assert.Equal(t, 0, top.Len())
}

func TestSortByMeasureDescNullsLast(t *testing.T) {
	sorted := SortByMeasureDesc(rowAdapter.Bind(sampleRows), "term")
	assert.Equal(t, []string{"LEON", "DADE", "DADE", "ORANGE", "LEON"}, dims(sorted, "County"))
	assert.True(t, IsNull(sorted.Measure(4, "term")))
}

func TestCompetitionRanks(t *testing.T) {
	assert.Equal(t, []int{1, 2, 2, 4}, CompetitionRanks([]float64{9, 5, 5, 1}))
	assert.Equal(t, []int{3, 1, 2}, CompetitionRanks([]float64{1, 7, 4}))
	assert.Empty(t, CompetitionRanks(nil))
}

func TestBucketTopK(t *testing.T) {
	view := rowAdapter.Bind([]row{
		{"", "W", 50}, {"", "B", 30}, {"", "H", 10},
		{"", "U", 5}, {"", "I", 3}, {"", "A", 2},
	})

	got := BucketTopK(view, "Race", "term", 3, "All Others")
	require.Len(t, got, 3)

	labels := []string{got[0].Dimensions["Race"], got[1].Dimensions["Race"], got[2].Dimensions["Race"]}
	assert.Equal(t, []string{"W", "B", "All Others"}, labels)
	assert.Equal(t, 20.0, got[2].Measures["term"])
}

func TestBucketTopKNothingFolded(t *testing.T) {
	view := rowAdapter.Bind([]row{{"", "W", 5}})
	got := BucketTopK(view, "Race", "term", 3, "All Others")
	require.Len(t, got, 1)
	assert.Equal(t, "W", got[0].Dimensions["Race"])
}

// ============================================================================
// LOOKUP
// ============================================================================

func TestJoinCodes(t *testing.T) {
	codes := NewCodeTable("Race", "race_code", []string{"W", "B", "H"})
	view := JoinCodes(rowAdapter.Bind(sampleRows), codes)

	assert.Equal(t, []string{"term", "race_code"}, view.MeasureKeys())
	assert.Equal(t, 1.0, view.Measure(0, "race_code"))
	assert.Equal(t, 0.0, view.Measure(1, "race_code"))
	assert.Equal(t, 2.0, view.Measure(4, "race_code"))
	assert.Equal(t, 10.0, view.Measure(0, "term"))

	unmatched := JoinCodes(rowAdapter.Bind([]row{{"X", "Z", 1}}), codes)
	assert.True(t, IsNull(unmatched.Measure(0, "race_code")))
}

// ============================================================================
// COLUMNS
// ============================================================================

func TestFlattenColumnName(t *testing.T) {
	assert.Equal(t, "prisontermmean", FlattenColumnName(ColumnPath{"prisonterm", "mean"}.String()))
	assert.Equal(t, "releasedateflagdescr", FlattenColumnName(ColumnPath{"releasedateflag_descr", ""}.String()))
	assert.Equal(t, "Race", FlattenColumnName("Race"))
}

func TestSummarizeAndFlatten(t *testing.T) {
	frame := Summarize(rowAdapter.Bind(sampleRows), []string{"County"}, []AggSpec{
		{Measure: "term", Func: AggMean},
		{Measure: "term", Func: AggMax},
	})
	assert.Equal(t, []string{"(County, )", "(term, mean)", "(term, max)"}, frame.ColumnNames())

	flat := frame.Flatten()
	if diff := cmp.Diff([]string{"County", "termmean", "termmax"}, flat.ColumnNames()); diff != "" {
		t.Errorf("flattened columns mismatch (-want +got):\n%s", diff)
	}

	view := flat.View()
	assert.Equal(t, []string{"DADE", "LEON", "ORANGE"}, dims(view, "County"))
	assert.Equal(t, 15.0, view.Measure(0, "termmean"))
	assert.Equal(t, 40.0, view.Measure(1, "termmax"))
}

func TestSummarizeMissingKey(t *testing.T) {
	frame := Summarize(rowAdapter.Bind(sampleRows), []string{"Nope"}, []AggSpec{{Measure: "term", Func: AggMean}})
	assert.Empty(t, frame.Records)
}

// ============================================================================
// BUILDERS
// ============================================================================

func TestBuildChartEmptyViewIsValid(t *testing.T) {
	spec := BuildChart(rowAdapter.Bind(nil), MarkLine, WithTitle("Empty"))
	assert.Equal(t, VegaLiteSchema, spec.Schema)
	assert.Equal(t, "line", spec.Mark.Type)
	assert.NotNil(t, spec.Data.Values)
	assert.Empty(t, spec.Data.Values)
}

func TestBuildChartOptions(t *testing.T) {
	spec := BuildChart(rowAdapter.Bind(sampleRows), MarkBar,
		WithSize(200, 400),
		WithX(Field("County", Nominal, "County")),
		WithY(Field("term", Quantitative, "Term").Agg(AggSum)),
		WithColor(Field("Race", Nominal, "Race").Scheme("category20c")),
		WithTooltip(Field("County", Nominal, "County")),
	)
	assert.Equal(t, 200, spec.Width)
	assert.Equal(t, "sum", spec.Encoding.Y.Aggregate)
	assert.Equal(t, "category20c", spec.Encoding.Color.Scale.Scheme)
	assert.False(t, spec.Mark.Tooltip)
	require.Len(t, spec.Data.Values, 5)
	assert.Nil(t, spec.Data.Values[2]["term"])
}

func TestBuildTableWithTotal(t *testing.T) {
	view := rowAdapter.Bind(sampleRows)
	table := BuildTable("Rows", view, nil).WithTotal(view, "term")

	assert.Equal(t, []string{"DADE", "B", "10"}, table.Rows[0])
	assert.Equal(t, []string{"LEON", "W", ""}, table.Rows[2])
	assert.Equal(t, "Total (5 rows)", table.Summary.Label)
	assert.Equal(t, "75", table.Summary.Values["term"])
}

func TestBuildSharesAndDescribe(t *testing.T) {
	view := rowAdapter.Bind([]row{{"", "W", 3}, {"", "B", 1}})
	shares := BuildShares(view, "Race", "term")
	require.Len(t, shares, 2)
	assert.Equal(t, 75.0, shares[0].Percent)

	text := DescribeShares(shares, 2, map[string]string{"W": "Whites"})
	assert.Equal(t, "Whites **75%** and B **25%**", text)
	assert.Equal(t, "", DescribeShares(nil, 2, nil))
}

func TestResolvePlaceholders(t *testing.T) {
	assert.Equal(t, "Top 10 counties", ResolvePlaceholders("Top {n} counties", map[string]string{"n": "10"}))
	assert.Equal(t, "Offenses in", ResolvePlaceholders("Offenses in {county}.", nil))
	assert.Equal(t, "Plain caption.", ResolvePlaceholders("Plain caption.", nil))
}
