package dataset

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/spektr-org/inkdash/schema"
)

// SQLiteSource reads tables from a SQLite database, one table per input.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens path read-only.
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	if !fileExists(path) {
		return nil, fmt.Errorf("sqlite %s: %w", path, ErrTableNotFound)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(4)
	return &SQLiteSource{db: db}, nil
}

// NewSQLiteSourceDB wraps an open database. The source takes ownership.
func NewSQLiteSourceDB(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

func (s *SQLiteSource) Table(ctx context.Context, sch schema.Config) (*Table, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?`, sch.Name).Scan(&name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", sch.Name, ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup table %s: %w", sch.Name, err)
	}

	from := quoteIdent(sch.Name)
	headers, err := columnNames(ctx, s.db, "SELECT * FROM "+from+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sch.Name, err)
	}
	if _, err := sch.Validate(headers); err != nil {
		return nil, err
	}

	rows, err := queryStrings(ctx, s.db, selectColumns(sch.Columns(), "TEXT", from), len(sch.Columns()))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sch.Name, err)
	}
	return NewTable(sch.Name, sch.Columns(), rows), nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
