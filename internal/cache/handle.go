package cache

import (
	"net/url"
	"sync"

	"github.com/rcoop/console/internal/api"
)

// Collection names. One Handle exists per name; mutations refer to these
// in the edge table.
const (
	Stock        = "stock"
	Categories   = "categories"
	Associations = "associations"
	Partners     = "partners"
	PartnerTypes = "partner-types"
	Buyers       = "buyers"
	Receipts     = "receipts"
	Purchases    = "purchases"
	Sales        = "sales"
	CashBalance  = "cash-balance"
)

// DefaultPageSize is the page length every list view uses.
const DefaultPageSize = 20

// Handle is a named, independently paginated resource view.
//
// The refresh counter is monotonically non-decreasing and increases exactly
// once per successful mutation whose edge set includes this collection.
// The skip/limit cursor and filters are view-local; changing a filter
// resets the cursor to the first page.
//
// Thread-safety: all methods are safe for concurrent use. Subscribers are
// invoked synchronously on the bumping goroutine and must not call back
// into the Handle's mutating methods.
type Handle struct {
	name string

	mu      sync.Mutex
	counter uint64
	skip    int
	limit   int
	filters url.Values
	subs    []func()
}

// NewHandle creates a handle with the default page size and no filters.
func NewHandle(name string) *Handle {
	return &Handle{
		name:    name,
		limit:   DefaultPageSize,
		filters: url.Values{},
	}
}

// Name returns the collection name.
func (h *Handle) Name() string { return h.name }

// Counter returns the current refresh counter.
// Consumers only compare against their last-seen value.
func (h *Handle) Counter() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counter
}

// Bump increments the refresh counter and notifies subscribers.
// No data travels with the bump; it is a signal to refetch.
func (h *Handle) Bump() {
	h.mu.Lock()
	h.counter++
	subs := make([]func(), len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, fn := range subs {
		runSub(fn)
	}
}

// Subscribe registers fn to run on every Bump. It returns an unsubscribe
// function. Subscription decouples refetch timing from any rendering
// concern: fn fires on bumps only, never on reads.
func (h *Handle) Subscribe(fn func()) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subs = append(h.subs, fn)
	i := len(h.subs) - 1
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if i < len(h.subs) {
			h.subs[i] = nil
		}
	}
}

// SetFilter sets (or clears, with an empty value) one filter and resets
// the cursor to the first page.
func (h *Handle) SetFilter(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if value == "" {
		h.filters.Del(key)
	} else {
		h.filters.Set(key, value)
	}
	h.skip = 0
}

// SetPage positions the cursor at the given zero-based page.
func (h *Handle) SetPage(page int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if page < 0 {
		page = 0
	}
	h.skip = page * h.limit
}

// Page returns the zero-based page the cursor is on.
func (h *Handle) Page() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.skip / h.limit
}

// SetPageSize overrides the page length and resets the cursor.
func (h *Handle) SetPageSize(limit int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > 0 {
		h.limit = limit
		h.skip = 0
	}
}

// Params snapshots the cursor and filters for a list call.
func (h *Handle) Params() api.ListParams {
	h.mu.Lock()
	defer h.mu.Unlock()

	filters := url.Values{}
	for k, vs := range h.filters {
		for _, v := range vs {
			filters.Add(k, v)
		}
	}
	return api.ListParams{Skip: h.skip, Limit: h.limit, Filters: filters}
}

// Reset drops subscribers and filters and rewinds the cursor.
// Called on session expiry: abandoned fetch loops must not fire again.
func (h *Handle) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = nil
	h.filters = url.Values{}
	h.skip = 0
}

// notify-safe iteration helper for nil'd subscriber slots.
func runSub(fn func()) {
	if fn != nil {
		fn()
	}
}
