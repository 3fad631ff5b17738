package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// SCHEMA — Describes the shape of a source table
// ============================================================================
// Every input table has a fixed column contract. Loaders project columns in
// schema order and refuse tables whose headers miss a column.
// ============================================================================

// ErrMissingColumn is returned when a table lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Config describes the complete shape of a table.
type Config struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`

	// Optional tables may be absent from the data directory.
	Optional bool `json:"optional,omitempty"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key         string `json:"key"`
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	Groupable   bool   `json:"groupable"`
	Filterable  bool   `json:"filterable"`
	IsTemporal  bool   `json:"isTemporal,omitempty"`
	IsTokenList bool   `json:"isTokenList,omitempty"` // sequence of words
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string `json:"key"`
	DisplayName        string `json:"displayName"`
	Description        string `json:"description,omitempty"`
	Unit               string `json:"unit,omitempty"` // "days", "count", ...
	DefaultAggregation string `json:"defaultAggregation,omitempty"`
}

// DefaultDimension creates a DimensionMeta with sensible defaults.
func DefaultDimension(key, displayName string) DimensionMeta {
	return DimensionMeta{
		Key:         key,
		DisplayName: displayName,
		Groupable:   true,
		Filterable:  true,
	}
}

// TemporalDimension creates a date-valued dimension.
func TemporalDimension(key, displayName string) DimensionMeta {
	d := DefaultDimension(key, displayName)
	d.IsTemporal = true
	return d
}

// TokenDimension creates a word-sequence column; never grouped on.
func TokenDimension(key, displayName string) DimensionMeta {
	return DimensionMeta{Key: key, DisplayName: displayName, IsTokenList: true}
}

// DefaultMeasure creates a MeasureMeta with sensible defaults.
func DefaultMeasure(key, displayName, unit string) MeasureMeta {
	return MeasureMeta{
		Key:                key,
		DisplayName:        displayName,
		Unit:               unit,
		DefaultAggregation: "mean",
	}
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Columns returns dimension keys followed by measure keys: the projection
// order loaders use.
func (c Config) Columns() []string {
	return append(c.DimensionKeys(), c.MeasureKeys()...)
}

// Dimension looks up a dimension by key.
func (c Config) Dimension(key string) (DimensionMeta, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionMeta{}, false
}

// Validate checks that headers contain every schema column (exact names)
// and returns, per schema column, its index in headers.
func (c Config) Validate(headers []string) ([]int, error) {
	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	cols := c.Columns()
	idx := make([]int, len(cols))
	var missing []string
	for i, col := range cols {
		p, ok := pos[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[i] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("table %s: %w: %s", c.Name, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}
