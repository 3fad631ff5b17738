package selection

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

var testOptions = Options{
	Charges:         append([]string{"ROBBERY"}, DefaultCharges...),
	Counties:        []string{All, "DADE", "LEON"},
	TattooLocations: []string{All, "ARM", "CHEST"},
}

func ptr[T any](v T) *T { return &v }

// ============================================================================
// STATE
// ============================================================================

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, DefaultCharges, s.Charges)
	assert.Equal(t, All, s.County)
	assert.Equal(t, All, s.TattooLocation)
	assert.Equal(t, DefaultRankLimit, s.RankLimit)
	assert.Equal(t, uint64(1), s.Version)
	assert.NoError(t, s.Validate(testOptions))
	assert.Equal(t, "", s.TattooFilter())
}

func TestApplyBumpsVersionAndLeavesReceiver(t *testing.T) {
	s := Default()
	next, err := s.Apply(Change{County: ptr("DADE"), RankLimit: ptr(20)}, testOptions)
	require.NoError(t, err)

	assert.Equal(t, "DADE", next.County)
	assert.Equal(t, 20, next.RankLimit)
	assert.Equal(t, s.Version+1, next.Version)
	assert.Equal(t, All, s.County)
	assert.Equal(t, DefaultRankLimit, s.RankLimit)
}

func TestApplyDedupesCharges(t *testing.T) {
	next, err := Default().WithCharges([]string{"ESCAPE", " ESCAPE ", "", "ROBBERY"}, testOptions)
	require.NoError(t, err)
	assert.Equal(t, []string{"ESCAPE", "ROBBERY"}, next.Charges)
}

func TestEmptyChargeSetIsValid(t *testing.T) {
	next, err := Default().WithCharges(nil, testOptions)
	require.NoError(t, err)
	assert.Empty(t, next.Charges)
}

func TestRankLimitBounds(t *testing.T) {
	s := Default()
	for _, n := range []int{MinRankLimit, MaxRankLimit} {
		_, err := s.WithRankLimit(n, testOptions)
		assert.NoError(t, err, "rank %d", n)
	}
	for _, n := range []int{0, 1, 72, -5} {
		got, err := s.WithRankLimit(n, testOptions)
		assert.True(t, errors.Is(err, ErrInvalid), "rank %d", n)
		assert.Equal(t, s, got, "rejected change must return the original state")
	}
}

func TestMembership(t *testing.T) {
	s := Default()

	_, err := s.WithCounty("NOWHERE", testOptions)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.WithCharges([]string{"JAYWALKING"}, testOptions)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.WithTattooLocation("KNEE", testOptions)
	assert.ErrorIs(t, err, ErrInvalid)

	unknown, err := s.WithTattooLocation(Unknown, testOptions)
	require.NoError(t, err)
	assert.Equal(t, "", unknown.TattooFilter())

	arm, err := s.WithTattooLocation("ARM", testOptions)
	require.NoError(t, err)
	assert.Equal(t, "ARM", arm.TattooFilter())

	_, err = s.WithCounty("ANYWHERE", Options{})
	assert.NoError(t, err, "empty option lists accept any value")
}

// ============================================================================
// STORE
// ============================================================================

func TestNewStoreRejectsInvalidInitial(t *testing.T) {
	bad := Default()
	bad.RankLimit = 1
	_, err := NewStore(bad, testOptions)
	assert.ErrorIs(t, err, ErrInvalid)

	st, err := NewStore(Default(), Options{})
	require.NoError(t, err)
	assert.Equal(t, MinRankLimit, st.Options().MinRankLimit)
	assert.Equal(t, MaxRankLimit, st.Options().MaxRankLimit)
}

func TestStoreNotifiesBeforeApplyReturns(t *testing.T) {
	st, err := NewStore(Default(), testOptions)
	require.NoError(t, err)

	var events []Event
	st.Subscribe(func(ev Event) { events = append(events, ev) })

	got, err := st.Apply(Change{County: ptr("LEON")})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, got, events[0].Current)
	assert.Equal(t, All, events[0].Previous.County)
	assert.Equal(t, got, st.Current())
}

func TestStoreRejectedChangeNotifiesNobody(t *testing.T) {
	st, err := NewStore(Default(), testOptions)
	require.NoError(t, err)

	calls := 0
	st.Subscribe(func(Event) { calls++ })

	before := st.Current()
	got, err := st.Apply(Change{RankLimit: ptr(100)})
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, before, got)
	assert.Equal(t, before.Version, st.Current().Version)

	got, err = st.Apply(Change{})
	require.NoError(t, err)
	assert.Equal(t, before, got)
	assert.Zero(t, calls)
}

func TestStoreListenersRunInOrder(t *testing.T) {
	st, err := NewStore(Default(), testOptions)
	require.NoError(t, err)

	var order []int
	st.Subscribe(func(Event) { order = append(order, 1) })
	st.Subscribe(func(Event) { order = append(order, 2) })

	_, err = st.Apply(Change{RankLimit: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, order)
}

func TestStoreConcurrentApplyVersionsAreDistinct(t *testing.T) {
	st, err := NewStore(Default(), testOptions)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := make(map[uint64]bool)
	st.Subscribe(func(ev Event) {
		mu.Lock()
		seen[ev.Current.Version] = true
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = st.Apply(Change{RankLimit: ptr(MinRankLimit + n)})
		}(i)
	}
	wg.Wait()

	assert.Len(t, seen, 20)
	assert.Equal(t, uint64(21), st.Current().Version)
}
