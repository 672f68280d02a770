// Package probe implements the supersedable stock probe.
//
// A probe is an on-demand query for one material's currently available
// quantity. Each request is tagged with a generation token from a monotonic
// logical clock; only the response matching the latest outstanding token is
// applied, so a response for a previously selected material can never
// overwrite the current one (stale-response suppression).
package probe

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TokenSource issues monotonically increasing generation tokens.
// Implemented by Clock (production) and testutil.DeterministicClock (tests).
type TokenSource interface {
	Next() int64
}

// Clock is a monotonic logical clock for generation tokens.
//
// NEVER use wall-clock timestamps for ordering probe responses: tokens
// must be strictly increasing per issue, regardless of timer resolution.
type Clock struct {
	mu  sync.Mutex
	seq int64
}

// NewClock creates a clock starting at 0; the first token is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next generation token.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Level is what the ledger reports for one material.
type Level struct {
	AvailableQty float64 `json:"available_qty"`
	Unit         string  `json:"unit"`
}

// Fetcher retrieves the current stock level for a material.
// Implemented by the ledger client.
type Fetcher interface {
	StockLevel(ctx context.Context, materialID int64) (Level, error)
}

// Snapshot is a point-in-time stock reading for one material.
type Snapshot struct {
	MaterialID   int64
	AvailableQty float64
	Unit         string
	FetchedAt    time.Time
	token        int64
}

// Prober owns the current stock snapshot for the material the operator has
// selected. Selecting a new material supersedes any probe still in flight.
//
// Thread-safety: safe for concurrent use; suppression decisions are made
// under the lock at response-application time, never at issue time.
type Prober struct {
	fetch Fetcher
	clock TokenSource

	mu      sync.Mutex
	latest  int64     // token of the most recently issued request
	current *Snapshot // nil when no material selected or last probe failed
}

// New creates a Prober using the given fetcher and token source.
func New(fetch Fetcher, clock TokenSource) *Prober {
	return &Prober{fetch: fetch, clock: clock}
}

// Select probes the stock of materialID. The returned snapshot is also
// retained as the current one, unless a newer Select superseded this call
// while its fetch was in flight - then the result is discarded and
// (nil, nil) is returned.
//
// A probe failure clears the current snapshot (no stock display) but is
// not fatal: quantity-bound validation is simply disabled until a new
// probe succeeds.
func (p *Prober) Select(ctx context.Context, materialID int64) (*Snapshot, error) {
	p.mu.Lock()
	token := p.clock.Next()
	p.latest = token
	p.mu.Unlock()

	level, err := p.fetch.StockLevel(ctx, materialID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if token != p.latest {
		// Superseded while in flight; a newer selection owns the display.
		slog.Debug("stale probe response dropped",
			"material_id", materialID, "token", token, "latest", p.latest)
		return nil, nil
	}

	if err != nil {
		p.current = nil
		slog.Warn("stock probe failed", "material_id", materialID, "error", err)
		return nil, err
	}

	p.current = &Snapshot{
		MaterialID:   materialID,
		AvailableQty: level.AvailableQty,
		Unit:         level.Unit,
		FetchedAt:    time.Now(),
		token:        token,
	}
	return p.current, nil
}

// Clear deselects the material: null probe, no stock display, and any
// in-flight response is invalidated.
func (p *Prober) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = p.clock.Next()
	p.current = nil
}

// Current returns the snapshot for the selected material, if one exists.
func (p *Prober) Current() (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Snapshot{}, false
	}
	return *p.current, true
}
