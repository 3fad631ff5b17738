// Package inmates holds the typed records of the Florida inmate dataset
// and binds them to engine views.
package inmates

import (
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/inkdash/engine"
)

// Column names as they appear in the source files.
const (
	ColDCNumber      = "DCNumber"
	ColCounty        = "County"
	ColRace          = "Race"
	ColSex           = "Sex"
	ColOffenseDate   = "OffenseDate"
	ColPrisonTerm    = "prisonterm"
	ColProbationTerm = "ProbationTerm"
	ColParoleTerm    = "ParoleTerm"
	ColReleaseFlag   = "releasedateflag_descr"

	ColCharge = "charge"
	ColYear   = "year"

	ColLocation  = "Location"
	ColTextToken = "text_token"

	ColChargeTokens = "charge_tokens"

	ColTopic  = "topic"
	ColLabel  = "label"
	ColTerms  = "terms"
	ColWeight = "weight"

	ColX    = "x"
	ColY    = "y"
	ColText = "text"
)

// Derived column names.
const (
	ColOffenseYear = "OffenseYear"
	ColCount       = "count"
)

// DateLayout is the wire format for dates in chart data.
const DateLayout = "2006-01-02"

// OffenseRecord is one row per inmate offense. DCNumber repeats across
// an inmate's offenses. Missing terms are NaN.
type OffenseRecord struct {
	DCNumber      string
	County        string
	Race          string
	Sex           string
	OffenseDate   time.Time
	PrisonTerm    float64
	ProbationTerm float64
	ParoleTerm    float64
	ReleaseFlag   string
}

// OffenseYear is the calendar year of the offense, or "" when undated.
func (o OffenseRecord) OffenseYear() string {
	if o.OffenseDate.IsZero() {
		return ""
	}
	return strconv.Itoa(o.OffenseDate.Year())
}

// ChargeCount is one (charge, year) cell of the charge time series.
type ChargeCount struct {
	Charge string
	Year   time.Time
	Count  float64
}

// TattooRecord is one tattoo description.
type TattooRecord struct {
	Location string
	Tokens   []string
}

// InmateSummary carries an inmate's tokenized charge text.
type InmateSummary struct {
	DCNumber     string
	ChargeTokens []string
}

// Topic is one precomputed topic-model topic.
type Topic struct {
	ID     int      `json:"id"`
	Label  string   `json:"label"`
	Terms  []string `json:"terms"`
	Weight float64  `json:"weight"`
}

// EmbeddingPoint is one precomputed 2D embedding coordinate.
type EmbeddingPoint struct {
	X     float64
	Y     float64
	Topic int
	Text  string
}

// CountyAggregate summarizes the offenses of one county.
type CountyAggregate struct {
	County            string
	MeanPrisonTerm    float64
	MeanProbationTerm float64
	MeanParoleTerm    float64
	Count             float64
}

// DemographicCount counts offenses per (county, race, sex).
type DemographicCount struct {
	County string
	Race   string
	Sex    string
	Count  float64
}

// Tables is the full set of loaded inputs. Read-only after load.
type Tables struct {
	Offenses  []OffenseRecord
	Charges   []ChargeCount
	Tattoos   []TattooRecord
	Summaries []InmateSummary
	Topics    []Topic
	Embedding []EmbeddingPoint
}

// ============================================================================
// VIEWS
// ============================================================================

var offenseAdapter = engine.NewDomainAdapter[OffenseRecord]().
	Dimension(ColDCNumber, func(o OffenseRecord) string { return o.DCNumber }).
	Dimension(ColCounty, func(o OffenseRecord) string { return o.County }).
	Dimension(ColRace, func(o OffenseRecord) string { return o.Race }).
	Dimension(ColSex, func(o OffenseRecord) string { return o.Sex }).
	Dimension(ColOffenseYear, func(o OffenseRecord) string { return o.OffenseYear() }).
	Dimension(ColReleaseFlag, func(o OffenseRecord) string { return o.ReleaseFlag }).
	Measure(ColPrisonTerm, func(o OffenseRecord) float64 { return o.PrisonTerm }).
	Measure(ColProbationTerm, func(o OffenseRecord) float64 { return o.ProbationTerm }).
	Measure(ColParoleTerm, func(o OffenseRecord) float64 { return o.ParoleTerm })

var chargeAdapter = engine.NewDomainAdapter[ChargeCount]().
	Dimension(ColCharge, func(c ChargeCount) string { return c.Charge }).
	Dimension(ColYear, func(c ChargeCount) string { return c.Year.Format(DateLayout) }).
	Measure(ColDCNumber, func(c ChargeCount) float64 { return c.Count })

var countyAdapter = engine.NewDomainAdapter[CountyAggregate]().
	Dimension(ColCounty, func(c CountyAggregate) string { return c.County }).
	Measure(ColPrisonTerm, func(c CountyAggregate) float64 { return c.MeanPrisonTerm }).
	Measure(ColProbationTerm, func(c CountyAggregate) float64 { return c.MeanProbationTerm }).
	Measure(ColParoleTerm, func(c CountyAggregate) float64 { return c.MeanParoleTerm }).
	Measure(ColDCNumber, func(c CountyAggregate) float64 { return c.Count })

var demographicAdapter = engine.NewDomainAdapter[DemographicCount]().
	Dimension(ColCounty, func(d DemographicCount) string { return d.County }).
	Dimension(ColRace, func(d DemographicCount) string { return d.Race }).
	Dimension(ColSex, func(d DemographicCount) string { return d.Sex }).
	Measure(ColDCNumber, func(d DemographicCount) float64 { return d.Count })

var embeddingAdapter = engine.NewDomainAdapter[EmbeddingPoint]().
	Dimension(ColTopic, func(p EmbeddingPoint) string { return strconv.Itoa(p.Topic) }).
	Dimension(ColText, func(p EmbeddingPoint) string { return p.Text }).
	Measure(ColX, func(p EmbeddingPoint) float64 { return p.X }).
	Measure(ColY, func(p EmbeddingPoint) float64 { return p.Y })

var topicAdapter = engine.NewDomainAdapter[Topic]().
	Dimension(ColLabel, func(t Topic) string { return t.Label }).
	Dimension(ColTerms, func(t Topic) string { return strings.Join(t.Terms, " ") }).
	Measure(ColTopic, func(t Topic) float64 { return float64(t.ID) }).
	Measure(ColWeight, func(t Topic) float64 { return t.Weight })

// OffenseView exposes offenses with their source column names plus the
// derived OffenseYear dimension.
func OffenseView(rows []OffenseRecord) engine.RecordView { return offenseAdapter.Bind(rows) }

// ChargeView exposes the charge time series; the count is under DCNumber
// as in the source file.
func ChargeView(rows []ChargeCount) engine.RecordView { return chargeAdapter.Bind(rows) }

// CountyView exposes county aggregates under the source column names
// (means under the term columns, row count under DCNumber).
func CountyView(rows []CountyAggregate) engine.RecordView { return countyAdapter.Bind(rows) }

// DemographicView exposes (county, race, sex) counts, count under DCNumber.
func DemographicView(rows []DemographicCount) engine.RecordView {
	return demographicAdapter.Bind(rows)
}

// EmbeddingView exposes embedding coordinates.
func EmbeddingView(rows []EmbeddingPoint) engine.RecordView { return embeddingAdapter.Bind(rows) }

// TopicView exposes topics with their terms space-joined.
func TopicView(rows []Topic) engine.RecordView { return topicAdapter.Bind(rows) }
