package dashboard

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/spektr-org/inkdash/aggregate"
	"github.com/spektr-org/inkdash/inmates"
	"github.com/spektr-org/inkdash/selection"
)

// ==============================================================================
// Prometheus Metrics
// ==============================================================================

var (
	// renderDuration tracks full dashboard recomputation latency
	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inkdash_render_duration_seconds",
		Help:    "Dashboard render duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	// selectionChanges counts selection transitions by result
	selectionChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkdash_selection_changes_total",
		Help: "Selection changes by result",
	}, []string{"result"})
)

// OptionsFor derives the selectable values from the loaded tables.
func OptionsFor(tables *inmates.Tables) selection.Options {
	return selection.Options{
		Charges:         aggregate.Charges(tables.Charges),
		Counties:        aggregate.Counties(tables.Offenses),
		TattooLocations: aggregate.TattooLocations(tables.Tattoos),
		MinRankLimit:    selection.MinRankLimit,
		MaxRankLimit:    selection.MaxRankLimit,
	}
}

// NewStore opens a selection store at the default state, validated
// against the loaded tables. Seed charges absent from the data are
// dropped rather than rejected.
func NewStore(tables *inmates.Tables) (*selection.Store, error) {
	opts := OptionsFor(tables)
	initial := selection.Default()
	if len(opts.Charges) > 0 {
		var kept []string
		for _, c := range initial.Charges {
			if slices.Contains(opts.Charges, c) {
				kept = append(kept, c)
			}
		}
		initial.Charges = kept
	}
	return selection.NewStore(initial, opts)
}

// Session binds a selection Store to the loaded tables. Every accepted
// change recomputes the whole dashboard before Apply returns; readers
// always see a complete snapshot.
type Session struct {
	mu      sync.Mutex
	store   *selection.Store
	tables  *inmates.Tables
	logger  *zap.Logger
	current atomic.Pointer[Dashboard]
}

// NewSession renders the store's current state and subscribes to later
// changes.
func NewSession(store *selection.Store, tables *inmates.Tables, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{store: store, tables: tables, logger: logger}
	s.render(store.Current())
	store.Subscribe(func(ev selection.Event) { s.render(ev.Current) })
	return s
}

// Dashboard returns the latest snapshot.
func (s *Session) Dashboard() *Dashboard {
	return s.current.Load()
}

// Selection returns the active selection.
func (s *Session) Selection() selection.State {
	return s.store.Current()
}

// Options returns the selectable values.
func (s *Session) Options() selection.Options {
	return s.store.Options()
}

// Tables returns the loaded tables.
func (s *Session) Tables() *inmates.Tables {
	return s.tables
}

// Apply installs a selection change and returns the recomputed dashboard.
// Invalid changes leave both the selection and the dashboard untouched.
func (s *Session) Apply(c selection.Change) (*Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Apply(c); err != nil {
		selectionChanges.WithLabelValues("rejected").Inc()
		s.logger.Debug("selection rejected", zap.Error(err))
		return s.current.Load(), err
	}
	selectionChanges.WithLabelValues("applied").Inc()
	return s.current.Load(), nil
}

// Preview renders the current selection with c applied, without
// installing it.
func (s *Session) Preview(c selection.Change) (*Dashboard, error) {
	next, err := s.store.Current().Apply(c, s.store.Options())
	if err != nil {
		return nil, err
	}
	return Render(next, s.tables), nil
}

func (s *Session) render(state selection.State) {
	start := time.Now()
	d := Render(state, s.tables)
	elapsed := time.Since(start)
	renderDuration.Observe(elapsed.Seconds())

	s.current.Store(d)
	s.logger.Debug("dashboard rendered",
		zap.Uint64("version", state.Version),
		zap.String("county", state.County),
		zap.Int("charges", len(state.Charges)),
		zap.Int("rank_limit", state.RankLimit),
		zap.Duration("elapsed", elapsed),
	)
}
