// Package selection holds the dashboard's filter configuration.
//
// A State is an immutable value. Every change produces a new State with a
// higher Version; the Store publishes each accepted change to its
// listeners synchronously, before Apply returns.
package selection

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/spektr-org/inkdash/engine"
)

// Rank limit bounds and default.
const (
	MinRankLimit     = 2
	MaxRankLimit     = 71
	DefaultRankLimit = 10
)

// All is the "no restriction" value for county and tattoo location.
const All = engine.All

// Unknown is the tattoo location that, like All, disables location filtering.
const Unknown = "UNKNOWN"

// DefaultCharges seeds the charge selection on first load.
var DefaultCharges = []string{
	"1ST DG MUR/PREMED. OR ATT.",
	"2ND DEG.MURD,DANGEROUS ACT",
	"ESCAPE",
}

// ErrInvalid wraps every rejected state or change.
var ErrInvalid = errors.New("invalid selection")

var validate = validator.New()

// State is one version of the filter configuration.
type State struct {
	Charges        []string `json:"charges" validate:"dive,required"`
	County         string   `json:"county" validate:"required"`
	TattooLocation string   `json:"tattooLocation" validate:"required"`
	RankLimit      int      `json:"rankLimit" validate:"min=2,max=71"`
	Version        uint64   `json:"version"`
}

// Default returns the first-load state.
func Default() State {
	return State{
		Charges:        slices.Clone(DefaultCharges),
		County:         All,
		TattooLocation: All,
		RankLimit:      DefaultRankLimit,
		Version:        1,
	}
}

// TattooFilter maps a tattoo location to the location rows are filtered
// by: "" for All and Unknown, the location itself otherwise.
func TattooFilter(location string) string {
	if location == All || location == Unknown {
		return ""
	}
	return location
}

// TattooFilter is the location the state's tattoo rows are filtered by.
func (s State) TattooFilter() string {
	return TattooFilter(s.TattooLocation)
}

// Change is a partial update; nil fields are left as they are.
type Change struct {
	Charges        *[]string `json:"charges,omitempty"`
	County         *string   `json:"county,omitempty"`
	TattooLocation *string   `json:"tattooLocation,omitempty"`
	RankLimit      *int      `json:"rankLimit,omitempty"`
}

// IsEmpty reports whether the change touches nothing.
func (c Change) IsEmpty() bool {
	return c.Charges == nil && c.County == nil && c.TattooLocation == nil && c.RankLimit == nil
}

// Options are the values the loaded data allows. Empty lists accept anything.
type Options struct {
	Charges         []string `json:"charges"`
	Counties        []string `json:"counties"`
	TattooLocations []string `json:"tattooLocations"`
	MinRankLimit    int      `json:"minRankLimit"`
	MaxRankLimit    int      `json:"maxRankLimit"`
}

// Apply returns the state with c applied and the version bumped. The
// receiver is never modified.
func (s State) Apply(c Change, opts Options) (State, error) {
	next := s
	next.Charges = slices.Clone(s.Charges)
	if c.Charges != nil {
		next.Charges = dedupe(*c.Charges)
	}
	if c.County != nil {
		next.County = strings.TrimSpace(*c.County)
	}
	if c.TattooLocation != nil {
		next.TattooLocation = strings.TrimSpace(*c.TattooLocation)
	}
	if c.RankLimit != nil {
		next.RankLimit = *c.RankLimit
	}
	next.Version = s.Version + 1

	if err := next.Validate(opts); err != nil {
		return s, err
	}
	return next, nil
}

// Validate checks bounds and, when opts lists values, membership.
func (s State) Validate(opts Options) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(opts.Counties) > 0 && !slices.Contains(opts.Counties, s.County) {
		return fmt.Errorf("%w: unknown county %q", ErrInvalid, s.County)
	}
	if len(opts.TattooLocations) > 0 && s.TattooLocation != Unknown &&
		!slices.Contains(opts.TattooLocations, s.TattooLocation) {
		return fmt.Errorf("%w: unknown tattoo location %q", ErrInvalid, s.TattooLocation)
	}
	if len(opts.Charges) > 0 {
		for _, c := range s.Charges {
			if !slices.Contains(opts.Charges, c) {
				return fmt.Errorf("%w: unknown charge %q", ErrInvalid, c)
			}
		}
	}
	return nil
}

// WithCharges replaces the charge selection.
func (s State) WithCharges(charges []string, opts Options) (State, error) {
	return s.Apply(Change{Charges: &charges}, opts)
}

// WithCounty selects a county; All removes the county filter.
func (s State) WithCounty(county string, opts Options) (State, error) {
	return s.Apply(Change{County: &county}, opts)
}

// WithTattooLocation selects a tattoo body location.
func (s State) WithTattooLocation(location string, opts Options) (State, error) {
	return s.Apply(Change{TattooLocation: &location}, opts)
}

// WithRankLimit sets how many counties the ranked bars keep.
func (s State) WithRankLimit(n int, opts Options) (State, error) {
	return s.Apply(Change{RankLimit: &n}, opts)
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ============================================================================
// STORE
// ============================================================================

// Event describes one accepted state transition.
type Event struct {
	Previous State
	Current  State
}

// Listener receives state-changed events.
type Listener func(Event)

// Store owns the current State.
type Store struct {
	mu        sync.Mutex
	current   State
	options   Options
	listeners []Listener
}

// NewStore validates initial against opts and returns a Store holding it.
func NewStore(initial State, opts Options) (*Store, error) {
	if opts.MinRankLimit == 0 {
		opts.MinRankLimit = MinRankLimit
	}
	if opts.MaxRankLimit == 0 {
		opts.MaxRankLimit = MaxRankLimit
	}
	if err := initial.Validate(opts); err != nil {
		return nil, err
	}
	return &Store{current: initial, options: opts}, nil
}

// Current returns the active state.
func (st *Store) Current() State {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.current
}

// Options returns the allowed values.
func (st *Store) Options() Options {
	return st.options
}

// Subscribe registers a listener for subsequent changes.
func (st *Store) Subscribe(l Listener) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.listeners = append(st.listeners, l)
}

// Apply validates and installs a change, then notifies every listener in
// registration order. An empty change is a no-op and notifies nobody.
func (st *Store) Apply(c Change) (State, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if c.IsEmpty() {
		return st.current, nil
	}

	next, err := st.current.Apply(c, st.options)
	if err != nil {
		return st.current, err
	}

	ev := Event{Previous: st.current, Current: next}
	st.current = next
	for _, l := range st.listeners {
		l(ev)
	}
	return next, nil
}
