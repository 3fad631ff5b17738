package inmates

import "github.com/spektr-org/inkdash/schema"

// Source table names; each maps to a file stem under the data directory
// or a table in a database source.
const (
	TableOffenses  = "offense_inmate"
	TableCharges   = "ts_charges"
	TableTattoos   = "tattoos"
	TableSummaries = "inmate_summary"
	TableTopics    = "topic_summary"
	TableEmbedding = "tsne_embedding"
)

// OffenseSchema is the column contract of the offense table.
var OffenseSchema = schema.Config{
	Name:        TableOffenses,
	Description: "One row per inmate offense",
	Dimensions: []schema.DimensionMeta{
		schema.DefaultDimension(ColDCNumber, "Inmate"),
		schema.DefaultDimension(ColCounty, "County"),
		schema.DefaultDimension(ColRace, "Race"),
		schema.DefaultDimension(ColSex, "Sex"),
		schema.TemporalDimension(ColOffenseDate, "Offense Date"),
		schema.DefaultDimension(ColReleaseFlag, "Release Date Flag"),
	},
	Measures: []schema.MeasureMeta{
		schema.DefaultMeasure(ColPrisonTerm, "Prison Term", "days"),
		schema.DefaultMeasure(ColProbationTerm, "Probation Term", "days"),
		schema.DefaultMeasure(ColParoleTerm, "Parole Term", "days"),
	},
}

// ChargeSchema is the column contract of the charge time series.
var ChargeSchema = schema.Config{
	Name:        TableCharges,
	Description: "Offense counts per charge and year",
	Dimensions: []schema.DimensionMeta{
		schema.DefaultDimension(ColCharge, "Charge"),
		schema.TemporalDimension(ColYear, "Year"),
	},
	Measures: []schema.MeasureMeta{
		{Key: ColDCNumber, DisplayName: "Count", Unit: "count", DefaultAggregation: "sum"},
	},
}

// TattooSchema is the column contract of the tattoo table.
var TattooSchema = schema.Config{
	Name:        TableTattoos,
	Description: "One row per tattoo description",
	Dimensions: []schema.DimensionMeta{
		schema.DefaultDimension(ColLocation, "Location"),
		schema.TokenDimension(ColTextToken, "Description"),
	},
}

// SummarySchema is the column contract of the inmate summary table.
var SummarySchema = schema.Config{
	Name:        TableSummaries,
	Description: "One row per inmate with tokenized charge text",
	Dimensions: []schema.DimensionMeta{
		schema.DefaultDimension(ColDCNumber, "Inmate"),
		schema.TokenDimension(ColChargeTokens, "Charges"),
	},
}

// TopicSchema is the column contract of the precomputed topic table.
var TopicSchema = schema.Config{
	Name:        TableTopics,
	Description: "Topic model summary",
	Optional:    true,
	Dimensions: []schema.DimensionMeta{
		schema.DefaultDimension(ColLabel, "Label"),
		schema.TokenDimension(ColTerms, "Top Terms"),
	},
	Measures: []schema.MeasureMeta{
		{Key: ColTopic, DisplayName: "Topic"},
		{Key: ColWeight, DisplayName: "Weight"},
	},
}

// EmbeddingSchema is the column contract of the 2D embedding table.
var EmbeddingSchema = schema.Config{
	Name:        TableEmbedding,
	Description: "Precomputed 2D embedding of tattoo descriptions",
	Optional:    true,
	Dimensions: []schema.DimensionMeta{
		schema.DefaultDimension(ColText, "Description"),
	},
	Measures: []schema.MeasureMeta{
		{Key: ColX, DisplayName: "x"},
		{Key: ColY, DisplayName: "y"},
		{Key: ColTopic, DisplayName: "Topic"},
	},
}

// Schemas lists every source table in load order.
var Schemas = []schema.Config{
	OffenseSchema,
	ChargeSchema,
	TattooSchema,
	SummarySchema,
	TopicSchema,
	EmbeddingSchema,
}
