package dataset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spektr-org/inkdash/inmates"
	"github.com/spektr-org/inkdash/schema"
)

// Load reads and decodes every inmates table from src. Required tables
// that are missing or malformed fail the load; missing optional tables
// are logged and left empty.
func Load(ctx context.Context, src Source, logger *zap.Logger) (*inmates.Tables, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	tables := &inmates.Tables{}

	for _, sch := range inmates.Schemas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := src.Table(ctx, sch)
		if err != nil {
			if sch.Optional && errors.Is(err, ErrTableNotFound) {
				logger.Warn("optional table missing", zap.String("table", sch.Name), zap.Error(err))
				continue
			}
			return nil, fmt.Errorf("load %s: %w", sch.Name, err)
		}

		if err := decodeInto(tables, sch, raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", sch.Name, err)
		}
		logger.Debug("table loaded", zap.String("table", sch.Name), zap.Int("rows", raw.Len()))
	}

	logger.Info("dataset loaded",
		zap.Int("offenses", len(tables.Offenses)),
		zap.Int("charges", len(tables.Charges)),
		zap.Int("tattoos", len(tables.Tattoos)),
		zap.Int("summaries", len(tables.Summaries)),
		zap.Int("topics", len(tables.Topics)),
		zap.Int("embedding", len(tables.Embedding)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return tables, nil
}

func decodeInto(tables *inmates.Tables, sch schema.Config, raw *Table) error {
	var err error
	switch sch.Name {
	case inmates.TableOffenses:
		tables.Offenses, err = DecodeOffenses(raw)
	case inmates.TableCharges:
		tables.Charges, err = DecodeCharges(raw)
	case inmates.TableTattoos:
		tables.Tattoos = DecodeTattoos(raw)
	case inmates.TableSummaries:
		tables.Summaries = DecodeSummaries(raw)
	case inmates.TableTopics:
		tables.Topics, err = DecodeTopics(raw)
	case inmates.TableEmbedding:
		tables.Embedding, err = DecodeEmbedding(raw)
	default:
		err = fmt.Errorf("no decoder for table %q", sch.Name)
	}
	return err
}

// ============================================================================
// MEMO — load once per process
// ============================================================================

// Memo loads the tables on first use and returns the same result (tables
// or error) to every later caller. It is never invalidated. The memo owns
// its source and closes it once the load finishes.
type Memo struct {
	once   sync.Once
	src    Source
	logger *zap.Logger

	tables *inmates.Tables
	err    error
}

// NewMemo wraps src.
func NewMemo(src Source, logger *zap.Logger) *Memo {
	return &Memo{src: src, logger: logger}
}

// Tables loads on the first call; concurrent callers wait for it.
func (m *Memo) Tables(ctx context.Context) (*inmates.Tables, error) {
	m.once.Do(func() {
		m.tables, m.err = Load(ctx, m.src, m.logger)
		if err := m.src.Close(); err != nil && m.logger != nil {
			m.logger.Warn("close dataset source", zap.Error(err))
		}
	})
	return m.tables, m.err
}
