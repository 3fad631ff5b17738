package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/inkdash/engine"
	"github.com/spektr-org/inkdash/inmates"
)

// dateLayouts are tried in order; dataframe exports carry a time part.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006",
}

// parseFloat reads a numeric cell; blanks and NaN spellings are null.
func parseFloat(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "null", "none", "<na>", "nat":
		return engine.Null, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return engine.Null, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

// parseDate reads a date cell; blanks are the zero time.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nat", "null", "none":
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("not a date: %q", s)
}

// parseTokens reads a word sequence. Accepted forms: "[a, b]" (DuckDB
// list), "['a', 'b']" (Python list repr) and plain whitespace-separated
// text.
func parseTokens(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner == "" {
			return nil
		}
		var out []string
		for _, part := range strings.Split(inner, ",") {
			part = strings.Trim(strings.TrimSpace(part), `'"`)
			if part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return strings.Fields(s)
}

type rowError struct {
	table  string
	row    int
	column string
	err    error
}

func (e *rowError) Error() string {
	return fmt.Sprintf("%s row %d column %s: %v", e.table, e.row+1, e.column, e.err)
}

func (e *rowError) Unwrap() error { return e.err }

// cells reads typed values from one table, recording the first error.
type cells struct {
	t   *Table
	err error
}

func (c *cells) str(i int, col string) string { return c.t.Value(i, col) }

func (c *cells) num(i int, col string) float64 {
	f, err := parseFloat(c.t.Value(i, col))
	if err != nil && c.err == nil {
		c.err = &rowError{table: c.t.Name, row: i, column: col, err: err}
	}
	return f
}

func (c *cells) date(i int, col string) time.Time {
	d, err := parseDate(c.t.Value(i, col))
	if err != nil && c.err == nil {
		c.err = &rowError{table: c.t.Name, row: i, column: col, err: err}
	}
	return d
}

func (c *cells) integer(i int, col string) int {
	f := c.num(i, col)
	if engine.IsNull(f) {
		return -1
	}
	return int(f)
}

// ============================================================================
// DECODERS
// ============================================================================

// DecodeOffenses converts the offense table.
func DecodeOffenses(t *Table) ([]inmates.OffenseRecord, error) {
	c := &cells{t: t}
	out := make([]inmates.OffenseRecord, t.Len())
	for i := range out {
		out[i] = inmates.OffenseRecord{
			DCNumber:      c.str(i, inmates.ColDCNumber),
			County:        c.str(i, inmates.ColCounty),
			Race:          c.str(i, inmates.ColRace),
			Sex:           c.str(i, inmates.ColSex),
			OffenseDate:   c.date(i, inmates.ColOffenseDate),
			PrisonTerm:    c.num(i, inmates.ColPrisonTerm),
			ProbationTerm: c.num(i, inmates.ColProbationTerm),
			ParoleTerm:    c.num(i, inmates.ColParoleTerm),
			ReleaseFlag:   c.str(i, inmates.ColReleaseFlag),
		}
		if c.err != nil {
			return nil, c.err
		}
	}
	return out, nil
}

// DecodeCharges converts the charge time series. Counts default to zero
// when blank.
func DecodeCharges(t *Table) ([]inmates.ChargeCount, error) {
	c := &cells{t: t}
	out := make([]inmates.ChargeCount, t.Len())
	for i := range out {
		n := c.num(i, inmates.ColDCNumber)
		if engine.IsNull(n) {
			n = 0
		}
		out[i] = inmates.ChargeCount{
			Charge: c.str(i, inmates.ColCharge),
			Year:   c.date(i, inmates.ColYear),
			Count:  n,
		}
		if c.err != nil {
			return nil, c.err
		}
	}
	return out, nil
}

// DecodeTattoos converts the tattoo table.
func DecodeTattoos(t *Table) []inmates.TattooRecord {
	out := make([]inmates.TattooRecord, t.Len())
	for i := range out {
		out[i] = inmates.TattooRecord{
			Location: t.Value(i, inmates.ColLocation),
			Tokens:   parseTokens(t.Value(i, inmates.ColTextToken)),
		}
	}
	return out
}

// DecodeSummaries converts the inmate summary table.
func DecodeSummaries(t *Table) []inmates.InmateSummary {
	out := make([]inmates.InmateSummary, t.Len())
	for i := range out {
		out[i] = inmates.InmateSummary{
			DCNumber:     t.Value(i, inmates.ColDCNumber),
			ChargeTokens: parseTokens(t.Value(i, inmates.ColChargeTokens)),
		}
	}
	return out
}

// DecodeTopics converts the topic table. Blank weights read as zero.
func DecodeTopics(t *Table) ([]inmates.Topic, error) {
	c := &cells{t: t}
	out := make([]inmates.Topic, t.Len())
	for i := range out {
		out[i] = inmates.Topic{
			ID:     c.integer(i, inmates.ColTopic),
			Label:  c.str(i, inmates.ColLabel),
			Terms:  parseTokens(c.str(i, inmates.ColTerms)),
			Weight: c.num(i, inmates.ColWeight),
		}
		if c.err != nil {
			return nil, c.err
		}
		if engine.IsNull(out[i].Weight) {
			out[i].Weight = 0
		}
	}
	return out, nil
}

// DecodeEmbedding converts the embedding table.
func DecodeEmbedding(t *Table) ([]inmates.EmbeddingPoint, error) {
	c := &cells{t: t}
	out := make([]inmates.EmbeddingPoint, t.Len())
	for i := range out {
		out[i] = inmates.EmbeddingPoint{
			X:     c.num(i, inmates.ColX),
			Y:     c.num(i, inmates.ColY),
			Topic: c.integer(i, inmates.ColTopic),
			Text:  c.str(i, inmates.ColText),
		}
		if c.err != nil {
			return nil, c.err
		}
	}
	return out, nil
}
