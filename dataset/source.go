// Package dataset loads the inmate tables from the data directory.
//
// A Source yields raw string tables projected onto a schema; the decoders
// in this package turn them into typed inmates records. Parquet files are
// read through an in-memory DuckDB, CSV files directly, and SQLite
// databases through modernc.org/sqlite.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spektr-org/inkdash/schema"
)

var (
	// ErrTableNotFound is returned when a source has no table of that name.
	ErrTableNotFound = errors.New("table not found")

	// ErrUnknownSource is returned by Open for an unsupported source kind.
	ErrUnknownSource = errors.New("unknown data source")

	// ErrMissingColumn is returned when a table lacks a schema column.
	ErrMissingColumn = schema.ErrMissingColumn
)

// Source kinds accepted by Open.
const (
	KindAuto    = "auto"
	KindParquet = "parquet"
	KindCSV     = "csv"
	KindSQLite  = "sqlite"
)

// Source reads raw tables.
type Source interface {
	// Table returns the rows of sch.Name projected onto sch.Columns().
	Table(ctx context.Context, sch schema.Config) (*Table, error)
	Close() error
}

// Table is a raw string table. Columns follow schema order; missing
// values are empty strings.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table with the given columns.
func NewTable(name string, columns []string, rows [][]string) *Table {
	t := &Table{Name: name, Columns: columns, Rows: rows, index: make(map[string]int, len(columns))}
	for i, c := range columns {
		t.index[c] = i
	}
	return t
}

// Len returns the row count.
func (t *Table) Len() int { return len(t.Rows) }

// Value returns row i's value for column, or "" when absent.
func (t *Table) Value(i int, column string) string {
	c, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.Rows) || c >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][c]
}

// project maps rows with arbitrary headers onto the schema's columns.
func project(sch schema.Config, headers []string, rows [][]string) (*Table, error) {
	idx, err := sch.Validate(headers)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(rows))
	for r, row := range rows {
		proj := make([]string, len(idx))
		for i, c := range idx {
			if c < len(row) {
				proj[i] = strings.TrimSpace(row[c])
			}
		}
		out[r] = proj
	}
	return NewTable(sch.Name, sch.Columns(), out), nil
}

// ============================================================================
// OPEN
// ============================================================================

// Options select and locate a source.
type Options struct {
	Kind       string // auto, parquet, csv, sqlite
	Dir        string // data directory for parquet and csv
	SQLitePath string // database file for sqlite
}

// Open returns the Source described by opts. KindAuto picks SQLite when a
// database path is set, Parquet when the directory holds .parquet files,
// and CSV otherwise.
func Open(opts Options) (Source, error) {
	kind := strings.ToLower(strings.TrimSpace(opts.Kind))
	if kind == "" || kind == KindAuto {
		kind = detectKind(opts)
	}

	switch kind {
	case KindParquet:
		return NewParquetSource(opts.Dir)
	case KindCSV:
		return NewCSVSource(opts.Dir), nil
	case KindSQLite:
		return NewSQLiteSource(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, opts.Kind)
	}
}

func detectKind(opts Options) string {
	if opts.SQLitePath != "" {
		return KindSQLite
	}
	matches, err := filepath.Glob(filepath.Join(opts.Dir, "*.parquet"))
	if err == nil && len(matches) > 0 {
		return KindParquet
	}
	return KindCSV
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ============================================================================
// MEMORY SOURCE
// ============================================================================

// MemorySource serves tables held in memory, keyed by name. Headers may
// be in any order; Table projects them onto the schema.
type MemorySource struct {
	tables map[string]memTable
}

type memTable struct {
	headers []string
	rows    [][]string
}

// NewMemorySource returns an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{tables: make(map[string]memTable)}
}

// Put registers a table.
func (m *MemorySource) Put(name string, headers []string, rows [][]string) *MemorySource {
	m.tables[name] = memTable{headers: headers, rows: rows}
	return m
}

func (m *MemorySource) Table(_ context.Context, sch schema.Config) (*Table, error) {
	t, ok := m.tables[sch.Name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", sch.Name, ErrTableNotFound)
	}
	return project(sch, t.headers, t.rows)
}

func (m *MemorySource) Close() error { return nil }
