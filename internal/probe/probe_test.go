package probe

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcoop/console/internal/testutil"
)

type fetcherFunc func(ctx context.Context, materialID int64) (Level, error)

func (f fetcherFunc) StockLevel(ctx context.Context, materialID int64) (Level, error) {
	return f(ctx, materialID)
}

func fixedLevels(levels map[int64]Level) fetcherFunc {
	return func(_ context.Context, id int64) (Level, error) {
		l, ok := levels[id]
		if !ok {
			return Level{}, errors.New("material not found")
		}
		return l, nil
	}
}

func TestSelect_AppliesSnapshot(t *testing.T) {
	p := New(fixedLevels(map[int64]Level{
		1: {AvailableQty: 100, Unit: "kg"},
	}), NewClock())

	snap, err := p.Select(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(1), snap.MaterialID)
	assert.Equal(t, 100.0, snap.AvailableQty)
	assert.Equal(t, "kg", snap.Unit)

	cur, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, *snap, cur)
}

func TestSelect_FailureClearsDisplay(t *testing.T) {
	p := New(fixedLevels(map[int64]Level{
		1: {AvailableQty: 100, Unit: "kg"},
	}), NewClock())

	_, err := p.Select(context.Background(), 1)
	require.NoError(t, err)

	_, err = p.Select(context.Background(), 99)
	require.Error(t, err)

	_, ok := p.Current()
	assert.False(t, ok, "probe failure clears the displayed quantity")
}

func TestClear_NullProbe(t *testing.T) {
	p := New(fixedLevels(map[int64]Level{
		1: {AvailableQty: 100, Unit: "kg"},
	}), NewClock())

	_, err := p.Select(context.Background(), 1)
	require.NoError(t, err)

	p.Clear()

	_, ok := p.Current()
	assert.False(t, ok, "no material selected means no stock display")
}

// TestSelect_StaleResponseSuppressed issues probe A then probe B, lets B's
// response arrive first, and verifies A's late response does not overwrite
// B's displayed value.
func TestSelect_StaleResponseSuppressed(t *testing.T) {
	releaseA := make(chan struct{})
	aStarted := make(chan struct{})

	fetch := fetcherFunc(func(_ context.Context, id int64) (Level, error) {
		if id == 1 {
			close(aStarted)
			<-releaseA // hold A in flight
			return Level{AvailableQty: 100, Unit: "kg"}, nil
		}
		return Level{AvailableQty: 40, Unit: "kg"}, nil
	})
	p := New(fetch, NewClock())

	var wg sync.WaitGroup
	var aSnap *Snapshot
	var aErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		aSnap, aErr = p.Select(context.Background(), 1)
	}()

	<-aStarted

	// B issued after A, resolves immediately.
	bSnap, err := p.Select(context.Background(), 2)
	require.NoError(t, err)
	require.NotNil(t, bSnap)
	require.Equal(t, int64(2), bSnap.MaterialID)

	// A's response arrives late.
	close(releaseA)
	wg.Wait()

	require.NoError(t, aErr)
	assert.Nil(t, aSnap, "superseded probe result must be discarded")

	cur, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, int64(2), cur.MaterialID, "display still shows B")
	assert.Equal(t, 40.0, cur.AvailableQty)
}

// A late failure from a superseded probe must not clear the newer display.
func TestSelect_StaleFailureSuppressed(t *testing.T) {
	releaseA := make(chan struct{})
	aStarted := make(chan struct{})

	fetch := fetcherFunc(func(_ context.Context, id int64) (Level, error) {
		if id == 1 {
			close(aStarted)
			<-releaseA
			return Level{}, errors.New("timeout")
		}
		return Level{AvailableQty: 40, Unit: "kg"}, nil
	})
	p := New(fetch, NewClock())

	var wg sync.WaitGroup
	wg.Add(1)
	var aErr error
	go func() {
		defer wg.Done()
		_, aErr = p.Select(context.Background(), 1)
	}()

	<-aStarted
	_, err := p.Select(context.Background(), 2)
	require.NoError(t, err)

	close(releaseA)
	wg.Wait()

	assert.NoError(t, aErr, "superseded failures are dropped, not surfaced")
	cur, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, int64(2), cur.MaterialID)
}

func TestClear_InvalidatesInFlightResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	fetch := fetcherFunc(func(_ context.Context, id int64) (Level, error) {
		close(started)
		<-release
		return Level{AvailableQty: 10, Unit: "kg"}, nil
	})
	p := New(fetch, NewClock())

	var wg sync.WaitGroup
	wg.Add(1)
	var snap *Snapshot
	go func() {
		defer wg.Done()
		snap, _ = p.Select(context.Background(), 1)
	}()

	<-started
	p.Clear()
	close(release)
	wg.Wait()

	assert.Nil(t, snap)
	_, ok := p.Current()
	assert.False(t, ok)
}

// With a resettable clock the same scenario produces identical token
// values run after run.
func TestSelect_DeterministicTokens(t *testing.T) {
	levels := fixedLevels(map[int64]Level{
		1: {AvailableQty: 100, Unit: "kg"},
	})
	clock := testutil.NewDeterministicClock()

	for run := 0; run < 2; run++ {
		clock.Reset()
		p := New(levels, clock)

		snap, err := p.Select(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), snap.token)

		p.Clear()
		assert.Equal(t, int64(2), clock.Current(), "clear issues a fresh token")
	}
}

func TestClock_Monotonic(t *testing.T) {
	c := NewClock()
	prev := int64(0)
	for i := 0; i < 10; i++ {
		next := c.Next()
		assert.Greater(t, next, prev)
		prev = next
	}
}
