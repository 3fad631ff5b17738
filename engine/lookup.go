package engine

// ============================================================================
// LOOKUP — Ordinal code tables joined on read
// ============================================================================
// A CodeTable maps fixed category labels to integer codes (label order).
// CodeView left-joins a table onto any view: the code appears as an extra
// measure, Null when the label is absent from the table. No data copy.
// ============================================================================

// CodeTable is a fixed label → ordinal code lookup.
type CodeTable struct {
	Dimension string   // dimension to match on
	Measure   string   // name of the produced code measure
	Labels    []string // code = position in Labels
	codes     map[string]int
}

// NewCodeTable builds a lookup where each label's code is its position.
func NewCodeTable(dimension, measure string, labels []string) CodeTable {
	codes := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := codes[l]; !dup {
			codes[l] = i
		}
	}
	return CodeTable{
		Dimension: dimension,
		Measure:   measure,
		Labels:    append([]string(nil), labels...),
		codes:     codes,
	}
}

// Code returns the ordinal for label, or Null when unmatched.
func (t CodeTable) Code(label string) float64 {
	if c, ok := t.codes[label]; ok {
		return float64(c)
	}
	return Null
}

// CodeView wraps a RecordView and adds a code measure on read.
type CodeView struct {
	parent  RecordView
	table   CodeTable
	mesKeys []string
}

// JoinCodes left-joins each table onto view by exact label match.
func JoinCodes(view RecordView, tables ...CodeTable) RecordView {
	for _, t := range tables {
		keys := append([]string(nil), view.MeasureKeys()...)
		if !hasKey(keys, t.Measure) {
			keys = append(keys, t.Measure)
		}
		view = &CodeView{parent: view, table: t, mesKeys: keys}
	}
	return view
}

func (v *CodeView) Len() int { return v.parent.Len() }

func (v *CodeView) Dimension(i int, key string) string { return v.parent.Dimension(i, key) }

func (v *CodeView) Measure(i int, key string) float64 {
	if key == v.table.Measure {
		if i < 0 || i >= v.parent.Len() {
			return Null
		}
		return v.table.Code(v.parent.Dimension(i, v.table.Dimension))
	}
	return v.parent.Measure(i, key)
}

func (v *CodeView) DimensionKeys() []string { return v.parent.DimensionKeys() }
func (v *CodeView) MeasureKeys() []string   { return v.mesKeys }
