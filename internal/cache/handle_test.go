package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_BumpIncrementsAndNotifies(t *testing.T) {
	h := NewHandle(Sales)
	require.Equal(t, uint64(0), h.Counter())

	fired := 0
	h.Subscribe(func() { fired++ })

	h.Bump()
	h.Bump()

	assert.Equal(t, uint64(2), h.Counter())
	assert.Equal(t, 2, fired, "subscriber fires once per bump, never on reads")
}

func TestHandle_SubscribeCancel(t *testing.T) {
	h := NewHandle(Stock)

	fired := 0
	cancel := h.Subscribe(func() { fired++ })

	h.Bump()
	cancel()
	h.Bump()

	assert.Equal(t, 1, fired, "cancelled subscriber must not fire again")
}

func TestHandle_FilterChangeResetsCursor(t *testing.T) {
	h := NewHandle(Sales)
	h.SetPage(3)
	require.Equal(t, 3, h.Page())

	h.SetFilter("buyer_id", "7")

	assert.Equal(t, 0, h.Page(), "skip resets to 0 whenever filters change")
	p := h.Params()
	assert.Equal(t, 0, p.Skip)
	assert.Equal(t, DefaultPageSize, p.Limit)
	assert.Equal(t, "7", p.Filters.Get("buyer_id"))
}

func TestHandle_ClearFilterAlsoResetsCursor(t *testing.T) {
	h := NewHandle(Purchases)
	h.SetFilter("start_date", "2026-08-01")
	h.SetPage(2)

	h.SetFilter("start_date", "")

	assert.Equal(t, 0, h.Page())
	assert.Empty(t, h.Params().Filters.Get("start_date"))
}

func TestHandle_ParamsSnapshotIsIsolated(t *testing.T) {
	h := NewHandle(Sales)
	h.SetFilter("material_id", "2")

	p := h.Params()
	p.Filters.Set("material_id", "99")

	assert.Equal(t, "2", h.Params().Filters.Get("material_id"),
		"mutating a snapshot must not leak into the handle")
}

func TestHandle_ConcurrentBumpsMonotonic(t *testing.T) {
	h := NewHandle(Stock)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Bump()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(50), h.Counter())
}

func TestHandle_ResetDropsSubscribers(t *testing.T) {
	h := NewHandle(Sales)
	fired := 0
	h.Subscribe(func() { fired++ })

	h.Reset()
	h.Bump()

	assert.Equal(t, 0, fired, "abandoned views must not observe bumps")
}
