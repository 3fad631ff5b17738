package engine

import (
	"strings"
	"unicode"
)

// ============================================================================
// COLUMNS — Multi-level aggregation output and name flattening
// ============================================================================
// Summarize produces a Frame whose value columns are two-level paths
// (measure, function). Chart field references must be plain identifiers,
// so Frame.Flatten strips every non-alphanumeric character from each name:
// "(prisonterm, mean)" → "prisontermmean".
// ============================================================================

// ColumnPath names a column of a multi-level result.
type ColumnPath []string

// String renders a path: single level as-is, multi-level as "(a, b)".
func (p ColumnPath) String() string {
	if len(p) == 1 {
		return p[0]
	}
	return "(" + strings.Join(p, ", ") + ")"
}

// FlattenColumnName keeps only letters and digits.
func FlattenColumnName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AggSpec requests one aggregation of one measure.
type AggSpec struct {
	Measure string
	Func    string // AggMean, AggMax, ...
}

// Frame is a grouped summary table.
type Frame struct {
	Keys    []ColumnPath
	Values  []ColumnPath
	Records []Record
}

// Summarize groups a view by keys (ascending key order) and applies each
// AggSpec per group. Key columns are named (key, ""), value columns
// (measure, func). A missing key dimension yields an empty frame.
func Summarize(view RecordView, keys []string, specs []AggSpec) *Frame {
	f := &Frame{}
	for _, k := range keys {
		f.Keys = append(f.Keys, ColumnPath{k, ""})
	}
	for _, s := range specs {
		f.Values = append(f.Values, ColumnPath{s.Measure, s.Func})
	}

	dims := view.DimensionKeys()
	for _, k := range keys {
		if !hasKey(dims, k) {
			return f
		}
	}

	groups := GroupBy(view, keys...)
	SortGroups(groups, SortKeyAsc)

	for _, g := range groups {
		rec := NewRecord()
		for i, path := range f.Keys {
			rec.Dimensions[path.String()] = g.Keys[i]
		}
		for i, path := range f.Values {
			rec.Measures[path.String()] = Aggregate(g.View, specs[i].Measure, specs[i].Func)
		}
		f.Records = append(f.Records, rec)
	}
	return f
}

// ColumnNames lists key then value column names.
func (f *Frame) ColumnNames() []string {
	names := make([]string, 0, len(f.Keys)+len(f.Values))
	for _, p := range f.Keys {
		names = append(names, p.String())
	}
	for _, p := range f.Values {
		names = append(names, p.String())
	}
	return names
}

// Flatten returns a copy of the frame whose columns are single-level,
// alphanumeric-only names. When two names flatten to the same identifier
// the first column wins.
func (f *Frame) Flatten() *Frame {
	out := &Frame{}
	rename := make(map[string]string)
	taken := make(map[string]bool)

	for _, p := range f.Keys {
		if flat, ok := claim(p, taken); ok {
			out.Keys = append(out.Keys, ColumnPath{flat})
			rename[p.String()] = flat
		}
	}
	for _, p := range f.Values {
		if flat, ok := claim(p, taken); ok {
			out.Values = append(out.Values, ColumnPath{flat})
			rename[p.String()] = flat
		}
	}

	out.Records = make([]Record, 0, len(f.Records))
	for _, r := range f.Records {
		rec := NewRecord()
		for k, v := range r.Dimensions {
			if flat, ok := rename[k]; ok {
				rec.Dimensions[flat] = v
			}
		}
		for k, v := range r.Measures {
			if flat, ok := rename[k]; ok {
				rec.Measures[flat] = v
			}
		}
		out.Records = append(out.Records, rec)
	}
	return out
}

func claim(p ColumnPath, taken map[string]bool) (string, bool) {
	flat := FlattenColumnName(p.String())
	if taken[flat] {
		return "", false
	}
	taken[flat] = true
	return flat, true
}

// View exposes the frame's records with columns in declared order.
func (f *Frame) View() RecordView {
	dims := make([]string, len(f.Keys))
	for i, p := range f.Keys {
		dims[i] = p.String()
	}
	meas := make([]string, len(f.Values))
	for i, p := range f.Values {
		meas[i] = p.String()
	}
	return NewSliceViewWithKeys(f.Records, dims, meas)
}
