package engine

// ============================================================================
// CHART BUILDER — Produces Vega-Lite ChartSpec from a RecordView
// ============================================================================
// Data rows are materialized from the view; encodings come from options.
// An empty view still yields a valid spec with no rows, so an empty
// selection renders an empty chart rather than failing.
// ============================================================================

// Mark types.
const (
	MarkBar   = "bar"
	MarkLine  = "line"
	MarkPoint = "point"
)

// BuildChart produces a ChartSpec over the rows of view.
func BuildChart(view RecordView, mark string, opts ...ChartOption) *ChartSpec {
	if mark == "" {
		mark = MarkBar
	}

	spec := &ChartSpec{
		Schema: VegaLiteSchema,
		Data:   ChartData{Values: chartValues(view)},
		Mark:   Mark{Type: mark, Tooltip: true},
	}
	for _, opt := range opts {
		opt(spec)
	}
	if len(spec.Encoding.Tooltip) > 0 {
		spec.Mark.Tooltip = false
	}
	return spec
}

func chartValues(view RecordView) []map[string]any {
	values := make([]map[string]any, 0, view.Len())
	for _, rec := range Materialize(view) {
		values = append(values, rec.Values())
	}
	return values
}
