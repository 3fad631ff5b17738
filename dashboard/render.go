// Package dashboard turns a selection and the loaded tables into the
// rendered dashboard: Vega-Lite chart specs, tables, narratives and word
// frequencies, grouped by tab.
package dashboard

import (
	"fmt"

	"github.com/spektr-org/inkdash/aggregate"
	"github.com/spektr-org/inkdash/artifact"
	"github.com/spektr-org/inkdash/engine"
	"github.com/spektr-org/inkdash/inmates"
	"github.com/spektr-org/inkdash/selection"
	"github.com/spektr-org/inkdash/textmine"
)

// BumpTitle is the release-flag bump chart title template.
const BumpTitle = "Bump Chart for Release Flag for {county}"

// Color schemes.
const (
	SchemeCategorical = "category20c"
	SchemeHeat        = "yelloworangered"
)

// Dashboard is one immutable rendering of every tab.
type Dashboard struct {
	Version      uint64          `json:"version"`
	Selection    selection.State `json:"selection"`
	Overview     Overview        `json:"overview"`
	Demographics Demographics    `json:"demographics"`
	Tattoos      Tattoos         `json:"tattoos"`
}

// Overview is the first tab: charge trends and release-flag ranks.
type Overview struct {
	ChargeSeries *engine.ChartSpec `json:"chargeSeries"`
	ReleaseBump  *engine.ChartSpec `json:"releaseBump"`
	Captions     []string          `json:"captions"`
}

// Demographics is the race and county tab.
type Demographics struct {
	RaceBar         *engine.ChartSpec `json:"raceBar"`
	MeanTermByRace  *engine.ChartSpec `json:"meanTermByRace"`
	CountyBar       *engine.ChartSpec `json:"countyBar"`
	CountyRaceBar   *engine.ChartSpec `json:"countyRaceBar"`
	CountyTable     *engine.TableData `json:"countyTable"`
	Narrative       string            `json:"narrative"`
	CountyNarrative string            `json:"countyNarrative"`
	Caption         string            `json:"caption"`
}

// Tattoos is the text-mining tab.
type Tattoos struct {
	Location    string            `json:"location"`
	TattooCloud WordCloud         `json:"tattooCloud"`
	ChargeCloud WordCloud         `json:"chargeCloud"`
	Topics      *engine.TableData `json:"topics,omitempty"`
	Embedding   *engine.ChartSpec `json:"embedding,omitempty"`
	Artifacts   []Link            `json:"artifacts"`
}

// WordCloud is a word-frequency table the browser lays out inside a mask
// silhouette.
type WordCloud struct {
	Caption  string               `json:"caption"`
	Words    []textmine.WordCount `json:"words"`
	Mask     Link                 `json:"mask"`
	Colormap string               `json:"colormap"`
	Width    int                  `json:"width"`
	Height   int                  `json:"height"`
}

// Link points at a static artifact.
type Link struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

func link(key, title string) Link {
	return Link{Key: key, Title: title, URL: artifact.Link(key)}
}

// CloudColormap colours both word clouds.
const CloudColormap = "gnuplot"

// Mask links of the two word clouds.
var (
	TattooMask = link(artifact.KeyTattooMask, "Florida state silhouette")
	ChargeMask = link(artifact.KeyChargeMask, "Florida lettering")
)

// ArtifactLinks are the standalone pages the tattoo tab links to.
var ArtifactLinks = []Link{
	link(artifact.KeyTattooTopicsUI, "Tattoo topic model (pyLDAvis)"),
}

// RaceNames are display names for race codes in narratives.
var RaceNames = map[string]string{
	"W": "Whites",
	"B": "Black/African Americans",
	"H": "Hispanics",
	"A": "Asians",
	"I": "American Indians",
	"U": "Unknown",
}

// Render computes the full dashboard for state. It does not modify tables
// and returns the same output for the same inputs.
func Render(state selection.State, tables *inmates.Tables) *Dashboard {
	if tables == nil {
		tables = &inmates.Tables{}
	}

	offenses := inmates.OffenseView(tables.Offenses)
	inCounty := aggregate.FilterCounty(offenses, state.County)
	demographics := aggregate.ByCountyRaceSex(inCounty)
	counties := aggregate.ByCounty(offenses)

	return &Dashboard{
		Version:   state.Version,
		Selection: state,
		Overview: Overview{
			ChargeSeries: ChargeSeriesChart(tables.Charges, state.Charges),
			ReleaseBump:  ReleaseBumpChart(inCounty, state.County),
			Captions: []string{
				"Select Charges in the sidebar to plot.",
				"Adjust the Rank Limit in the side bar to show more counties.",
			},
		},
		Demographics: Demographics{
			RaceBar:         RaceBarChart(demographics),
			MeanTermByRace:  MeanTermByRaceChart(offenses),
			CountyBar:       CountyBarChart(counties, state.RankLimit),
			CountyRaceBar:   CountyRaceBarChart(demographics, state.RankLimit),
			CountyTable:     CountyTable(counties),
			Narrative:       RaceNarrative(aggregate.RaceShares(demographics), state.County),
			CountyNarrative: CountyNarrative(counties),
			Caption:         "Adjust the Rank Limit in the side bar to show more counties.",
		},
		Tattoos: Tattoos{
			Location:    state.TattooLocation,
			TattooCloud: TattooCloud(tables.Tattoos, state.TattooFilter()),
			ChargeCloud: ChargeCloud(tables.Summaries),
			Topics:      TopicTable(tables.Topics),
			Embedding:   EmbeddingChart(tables.Embedding),
			Artifacts:   ArtifactLinks,
		},
	}
}

// ============================================================================
// OVERVIEW
// ============================================================================

// ChargeSeriesChart plots yearly offense counts of the selected charges.
func ChargeSeriesChart(series []inmates.ChargeCount, charges []string) *engine.ChartSpec {
	rows := aggregate.FilterTimeSeries(series, charges, aggregate.DefaultYearRange)
	count := engine.Field(inmates.ColDCNumber, engine.Quantitative, "Count").Agg(engine.AggSum)

	return engine.BuildChart(inmates.ChargeView(rows), engine.MarkLine,
		engine.WithTitle("Charges by Year of Offense"),
		engine.WithSize(900, 450),
		engine.WithX(engine.Field(inmates.ColYear, engine.Temporal, "Year of Offense")),
		engine.WithY(count),
		engine.WithColor(engine.Field(inmates.ColCharge, engine.Nominal, "Charge").Scheme(SchemeCategorical)),
		engine.WithTooltip(
			engine.Field(inmates.ColCharge, engine.Nominal, "Charge"),
			engine.Field(inmates.ColYear, engine.Temporal, "Year"),
			engine.Field(inmates.ColDCNumber, engine.Quantitative, "Count of Charge").Agg(engine.AggSum),
		),
	)
}

// ReleaseBumpChart ranks release-date flags per offense year for the
// (already county-filtered) offenses.
func ReleaseBumpChart(offenses engine.RecordView, county string) *engine.ChartSpec {
	ranks := aggregate.ReleaseFlagRanksByYear(offenses, aggregate.BumpAfterYear)

	return engine.BuildChart(aggregate.ReleaseFlagRankView(ranks), engine.MarkLine,
		engine.WithTitle(engine.ResolvePlaceholders(BumpTitle, map[string]string{"county": county})),
		engine.WithPoints(),
		engine.WithX(engine.Field(inmates.ColOffenseDate, engine.Ordinal, "date")),
		engine.WithY(engine.Field(aggregate.ColRank, engine.Ordinal, "rank")),
		engine.WithColor(engine.Field(inmates.ColReleaseFlag, engine.Nominal, "Release Date Flag").Scheme(SchemeCategorical)),
		engine.WithTooltip(
			engine.Field(inmates.ColOffenseDate, engine.Ordinal, "Year of Offense"),
			engine.Field(inmates.ColReleaseFlag, engine.Nominal, "Release Date Flag"),
			engine.Field(inmates.ColDCNumber, engine.Quantitative, "Count"),
		),
	)
}

// ============================================================================
// DEMOGRAPHICS
// ============================================================================

// RaceBarChart shows offense counts of the two largest races and an
// "All Others" bucket.
func RaceBarChart(rows []inmates.DemographicCount) *engine.ChartSpec {
	buckets := aggregate.BucketRaceIntoTopKPlusOther(rows, aggregate.DefaultBucketK)
	view := engine.NewSliceViewWithKeys(buckets, []string{aggregate.ColRankedRace}, []string{aggregate.ColSumOffenses})

	sortBySum := map[string]any{"op": engine.AggSum, "field": aggregate.ColSumOffenses, "order": "descending"}
	return engine.BuildChart(view, engine.MarkBar,
		engine.WithTitle("Count of Offenses by Race"),
		engine.WithSize(200, 400),
		engine.WithX(engine.Field(aggregate.ColRankedRace, engine.Nominal, "Race").Sorted(sortBySum)),
		engine.WithY(engine.Field(aggregate.ColSumOffenses, engine.Quantitative, "Sum of Offenses")),
		engine.WithColor(engine.Field(aggregate.ColRankedRace, engine.Nominal, "Race").Scheme(SchemeHeat)),
	)
}

// MeanTermByRaceChart plots the mean prison term per race from the
// flattened flag-by-race summary.
func MeanTermByRaceChart(offenses engine.RecordView) *engine.ChartSpec {
	frame := aggregate.MeanMaxByFlagAndRace(offenses)

	return engine.BuildChart(frame.View(), engine.MarkBar,
		engine.WithTitle("Mean Prison term by Race"),
		engine.WithSize(400, 400),
		engine.WithX(engine.Field(inmates.ColRace, engine.Nominal, "Race")),
		engine.WithY(engine.Field(aggregate.ColFlatPrisonMean, engine.Quantitative, "Mean Prison Term by Days").Agg(engine.AggMean)),
		engine.WithColor(engine.Field(inmates.ColRace, engine.Nominal, "Race").Scheme(SchemeHeat)),
	)
}

// CountyBarChart shows offense counts of the counties ranked below limit,
// coloured by mean prison term.
func CountyBarChart(counties []inmates.CountyAggregate, limit int) *engine.ChartSpec {
	top := aggregate.RankTopNExclusive(inmates.CountyView(counties), inmates.ColDCNumber, limit)

	return engine.BuildChart(top, engine.MarkBar,
		engine.WithTitle("Count of Offenses by County"),
		engine.WithSize(500, 400),
		engine.WithX(engine.Field(inmates.ColDCNumber, engine.Quantitative, "Count")),
		engine.WithY(engine.Field(inmates.ColCounty, engine.Nominal, "County").Sorted("-x")),
		engine.WithColor(engine.Field(inmates.ColPrisonTerm, engine.Quantitative, "Mean Prison Term").Scheme(SchemeHeat)),
	)
}

// CountyRaceBarChart stacks race counts for the counties whose total
// ranks at or above limit.
func CountyRaceBarChart(rows []inmates.DemographicCount, limit int) *engine.ChartSpec {
	top := aggregate.TopCountiesByRace(rows, limit)

	return engine.BuildChart(inmates.DemographicView(top), engine.MarkBar,
		engine.WithTitle("Number of Offenses by County and Race"),
		engine.WithX(engine.Field(inmates.ColDCNumber, engine.Quantitative, "Number of Offenses").Agg(engine.AggSum)),
		engine.WithY(engine.Field(inmates.ColCounty, engine.Nominal, "County").Sorted("-x")),
		engine.WithColor(engine.Field(inmates.ColRace, engine.Nominal, "Race")),
	)
}

// CountyTable lists every county aggregate with a total row count.
func CountyTable(counties []inmates.CountyAggregate) *engine.TableData {
	view := inmates.CountyView(counties)
	return engine.BuildTable("Offenses by County", view, []engine.Column{
		engine.TextColumn(inmates.ColCounty, "County"),
		engine.NumberColumn(inmates.ColDCNumber, "Offenses"),
		engine.NumberColumn(inmates.ColPrisonTerm, "Mean Prison Term"),
		engine.NumberColumn(inmates.ColProbationTerm, "Mean Probation Term"),
		engine.NumberColumn(inmates.ColParoleTerm, "Mean Parole Term"),
	}).WithTotal(view, inmates.ColDCNumber)
}

// RaceNarrative describes the leading races' share of offenses.
func RaceNarrative(shares []engine.Share, county string) string {
	if len(shares) == 0 {
		return ""
	}
	place := "Florida"
	if county != "" && county != engine.All {
		place = county + " county"
	}

	text := fmt.Sprintf("%s are charged with the vast majority of offenses in %s.",
		engine.DescribeShares(shares, 2, RaceNames), place)
	if len(shares) > 2 {
		third := shares[2]
		name := third.Label
		if n, ok := RaceNames[name]; ok {
			name = n
		}
		text += fmt.Sprintf(" %s come in third with only **%s** of offenses.", name, engine.FormatPercent(third.Percent))
	}
	return text
}

// CountyNarrative names the county with the most offenses.
func CountyNarrative(counties []inmates.CountyAggregate) string {
	if len(counties) == 0 {
		return ""
	}
	best := counties[0]
	for _, c := range counties[1:] {
		if c.Count > best.Count {
			best = c
		}
	}
	text := fmt.Sprintf("%s county has the most offenses (%s)", best.County, engine.FormatNumber(best.Count))
	if !engine.IsNull(best.MeanPrisonTerm) {
		text += fmt.Sprintf(" with a mean prison term of %s days", engine.FormatNumber(engine.RoundTo2(best.MeanPrisonTerm)))
	}
	return text + "."
}

// ============================================================================
// TATTOOS
// ============================================================================

// TattooCloud is the tattoo word cloud for a location filter ("" for all
// locations), drawn into the Florida state silhouette.
func TattooCloud(tattoos []inmates.TattooRecord, location string) WordCloud {
	return WordCloud{
		Caption:  "The Florida state represents the most common tattoos associated to inmates.",
		Words:    textmine.TattooFrequencies(tattoos, location),
		Mask:     TattooMask,
		Colormap: CloudColormap,
		Width:    1800,
		Height:   800,
	}
}

// ChargeCloud is the charge word cloud, drawn into the Florida lettering.
func ChargeCloud(summaries []inmates.InmateSummary) WordCloud {
	return WordCloud{
		Caption:  "The Florida letters wordcloud highlight the most common words in the charges associated to inmate crimes.",
		Words:    textmine.ChargeFrequencies(summaries),
		Mask:     ChargeMask,
		Colormap: CloudColormap,
		Width:    1800,
		Height:   1200,
	}
}

// TopicTable lists the topic-model topics, or nil when none were loaded.
func TopicTable(topics []inmates.Topic) *engine.TableData {
	if len(topics) == 0 {
		return nil
	}
	return engine.BuildTable("Tattoo Topics", inmates.TopicView(topics), []engine.Column{
		engine.NumberColumn(inmates.ColTopic, "Topic"),
		engine.TextColumn(inmates.ColLabel, "Label"),
		engine.TextColumn(inmates.ColTerms, "Top Terms"),
		engine.NumberColumn(inmates.ColWeight, "Weight"),
	})
}

// EmbeddingChart scatters the 2D embedding coloured by topic, or nil when
// no embedding was loaded.
func EmbeddingChart(points []inmates.EmbeddingPoint) *engine.ChartSpec {
	if len(points) == 0 {
		return nil
	}
	return engine.BuildChart(inmates.EmbeddingView(points), engine.MarkPoint,
		engine.WithTitle("Tattoo Descriptions by Topic"),
		engine.WithSize(600, 600),
		engine.WithX(engine.Field(inmates.ColX, engine.Quantitative, "x")),
		engine.WithY(engine.Field(inmates.ColY, engine.Quantitative, "y")),
		engine.WithColor(engine.Field(inmates.ColTopic, engine.Nominal, "Topic").Scheme(SchemeCategorical)),
		engine.WithTooltip(
			engine.Field(inmates.ColText, engine.Nominal, "Description"),
			engine.Field(inmates.ColTopic, engine.Nominal, "Topic"),
		),
	)
}
