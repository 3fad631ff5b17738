package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spektr-org/inkdash/schema"
)

// ============================================================================
// CSV SOURCE — <dir>/<table>.csv
// ============================================================================
// The first row is the header. Columns outside the schema are skipped;
// missing schema columns fail the load.
// ============================================================================

// CSVSource reads tables from CSV files in a directory.
type CSVSource struct {
	Dir string
}

// NewCSVSource returns a source rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{Dir: dir}
}

func (s *CSVSource) Table(_ context.Context, sch schema.Config) (*Table, error) {
	path := filepath.Join(s.Dir, sch.Name+".csv")
	if !fileExists(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrTableNotFound)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ParseCSV(f, sch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func (s *CSVSource) Close() error { return nil }

// ParseCSV reads a CSV stream and projects it onto sch.
func ParseCSV(r io.Reader, sch schema.Config) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	// pandas writes an unnamed index column first.
	if len(headers) > 0 && headers[0] == "" {
		headers[0] = "_index"
	}

	var rows [][]string
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	return project(sch, headers, rows)
}
