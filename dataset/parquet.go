package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/spektr-org/inkdash/schema"
)

// ParquetSource reads <dir>/<table>.parquet through an in-memory DuckDB.
type ParquetSource struct {
	db  *sql.DB
	dir string
}

// NewParquetSource opens an in-memory DuckDB for reading Parquet files
// under dir.
func NewParquetSource(dir string) (*ParquetSource, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// Session settings do not carry across pooled connections.
	db.SetMaxOpenConns(1)

	threads := runtime.GOMAXPROCS(0)
	if _, err := db.Exec(fmt.Sprintf("SET threads = %d", threads)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set threads: %w", err)
	}
	return &ParquetSource{db: db, dir: dir}, nil
}

func (s *ParquetSource) Table(ctx context.Context, sch schema.Config) (*Table, error) {
	path := filepath.Join(s.dir, sch.Name+".parquet")
	if !fileExists(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrTableNotFound)
	}
	from := fmt.Sprintf("read_parquet('%s')", strings.ReplaceAll(path, "'", "''"))

	headers, err := columnNames(ctx, s.db, "SELECT * FROM "+from+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := sch.Validate(headers); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Lists render as "[a, b, c]"; parseTokens understands that form.
	rows, err := queryStrings(ctx, s.db, selectColumns(sch.Columns(), "VARCHAR", from), len(sch.Columns()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewTable(sch.Name, sch.Columns(), rows), nil
}

// Close releases DuckDB resources.
func (s *ParquetSource) Close() error {
	return s.db.Close()
}

// ============================================================================
// SQL HELPERS — shared by the DuckDB and SQLite sources
// ============================================================================

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func selectColumns(columns []string, castType, from string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("CAST(%s AS %s)", quoteIdent(c), castType)
	}
	return "SELECT " + strings.Join(parts, ", ") + " FROM " + from
}

func columnNames(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("describe columns: %w", err)
	}
	defer rows.Close()
	return rows.Columns()
}

// queryStrings runs query and scans every cell as a nullable string;
// NULL becomes "".
func queryStrings(ctx context.Context, db *sql.DB, query string, width int) ([][]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cells := make([]sql.NullString, width)
	dest := make([]any, width)
	for i := range cells {
		dest[i] = &cells[i]
	}

	var out [][]string
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		row := make([]string, width)
		for i, c := range cells {
			if c.Valid {
				row[i] = strings.TrimSpace(c.String)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return out, nil
}
