package engine

// ============================================================================
// ENGINE TYPES — Records, Groups, and Render-Ready Output
// ============================================================================
// Record is the generic row; aggregation output is []Record so every
// derived table can be viewed, filtered, and ranked like a raw one.
// ChartSpec is a Vega-Lite v5 document; the browser renders it.
// ============================================================================

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
// A missing measure is stored as NaN (see Null).
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// NewRecord returns a Record with initialized maps.
func NewRecord() Record {
	return Record{
		Dimensions: make(map[string]string),
		Measures:   make(map[string]float64),
	}
}

// Values flattens a record into a single field → value map, the shape
// chart data rows take. NaN measures become nil (JSON null).
func (r Record) Values() map[string]any {
	out := make(map[string]any, len(r.Dimensions)+len(r.Measures))
	for k, v := range r.Dimensions {
		out[k] = v
	}
	for k, v := range r.Measures {
		if IsNull(v) {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return out
}

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	if f.Dimensions == nil {
		return true
	}
	for _, vals := range f.Dimensions {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group represents a grouped/aggregated result.
// Keys holds one value per grouping dimension, in grouping order.
type Group struct {
	Key   string     `json:"key"`
	Keys  []string   `json:"keys"`
	Label string     `json:"label"`
	Value float64    `json:"value"`
	Count int        `json:"count"`
	View  RecordView `json:"-"` // Sub-view for records in this group (zero-copy)
}

// ============================================================================
// CHART TYPES — Vega-Lite v5
// ============================================================================

// VegaLiteSchema is the $schema URL stamped on every chart.
const VegaLiteSchema = "https://vega.github.io/schema/vega-lite/v5.json"

// ChartSpec is a declarative Vega-Lite chart.
type ChartSpec struct {
	Schema   string    `json:"$schema"`
	Title    string    `json:"title,omitempty"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	Data     ChartData `json:"data"`
	Mark     Mark      `json:"mark"`
	Encoding Encoding  `json:"encoding"`
}

// ChartData holds inline data rows.
type ChartData struct {
	Values []map[string]any `json:"values"`
}

// Mark is the chart's geometric mark.
type Mark struct {
	Type    string `json:"type"`
	Point   bool   `json:"point,omitempty"`
	Tooltip bool   `json:"tooltip,omitempty"`
}

// Encoding maps data fields to visual channels.
type Encoding struct {
	X       *Channel  `json:"x,omitempty"`
	Y       *Channel  `json:"y,omitempty"`
	Color   *Channel  `json:"color,omitempty"`
	Tooltip []Channel `json:"tooltip,omitempty"`
}

// Channel is a single field → channel binding.
type Channel struct {
	Field     string `json:"field"`
	Type      string `json:"type,omitempty"` // "quantitative", "nominal", "ordinal", "temporal"
	Title     string `json:"title,omitempty"`
	Aggregate string `json:"aggregate,omitempty"`
	Sort      any    `json:"sort,omitempty"`
	Scale     *Scale `json:"scale,omitempty"`
}

// Scale configures a channel's scale.
type Scale struct {
	Scheme string `json:"scheme,omitempty"`
}

// Vega-Lite field types.
const (
	Quantitative = "quantitative"
	Nominal      = "nominal"
	Ordinal      = "ordinal"
	Temporal     = "temporal"
)

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "integer"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary provides totals or aggregations for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// Share is one category's portion of a total.
type Share struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
}
