package engine

import "fmt"

// ============================================================================
// TABLE BUILDER — Produces TableData from a RecordView
// ============================================================================
// Column discovery uses view.DimensionKeys()/MeasureKeys() unless the
// caller supplies columns explicitly.
// ============================================================================

// BuildTable produces a TableData with one row per view row.
// When columns is empty, dimensions then measures are listed in view order.
func BuildTable(title string, view RecordView, columns []Column) *TableData {
	if len(columns) == 0 {
		columns = discoverColumns(view)
	}

	measures := make(map[string]bool)
	for _, k := range view.MeasureKeys() {
		measures[k] = true
	}

	rows := make([][]string, 0, view.Len())
	for i := 0; i < view.Len(); i++ {
		row := make([]string, 0, len(columns))
		for _, c := range columns {
			if measures[c.Key] {
				row = append(row, FormatNumber(view.Measure(i, c.Key)))
				continue
			}
			row = append(row, view.Dimension(i, c.Key))
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("Total (%s rows)", FormatInt(view.Len())),
			Values: map[string]string{},
		},
	}
}

// WithTotal adds the sum of a measure column to the table summary.
func (t *TableData) WithTotal(view RecordView, measure string) *TableData {
	if t.Summary == nil {
		t.Summary = &Summary{Label: "Total", Values: map[string]string{}}
	}
	t.Summary.Values[measure] = FormatNumber(SumMeasure(view, measure))
	return t
}

func discoverColumns(view RecordView) []Column {
	dimKeys := view.DimensionKeys()
	mesKeys := view.MeasureKeys()
	columns := make([]Column, 0, len(dimKeys)+len(mesKeys))

	for _, key := range dimKeys {
		columns = append(columns, TextColumn(key, LabelForDimension(key)))
	}
	for _, key := range mesKeys {
		columns = append(columns, NumberColumn(key, LabelForDimension(key)))
	}
	return columns
}

// TextColumn is a left-aligned text column.
func TextColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "text", Align: "left"}
}

// NumberColumn is a right-aligned numeric column.
func NumberColumn(key, label string) Column {
	return Column{Key: key, Label: label, Type: "number", Align: "right"}
}
