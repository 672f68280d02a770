package cache

import (
	"log/slog"
	"sync"
)

// Mutation identifies a mutation kind in the edge table.
type Mutation string

// Mutation kinds. Create/update/cancel variants of one entity share an
// edge set, so they share a kind.
const (
	MutateMaterial    Mutation = "material"
	MutateAssociation Mutation = "association"
	MutatePartner     Mutation = "partner"
	MutatePartnerType Mutation = "partner-type"
	MutateBuyer       Mutation = "buyer"
	MutateReceipt     Mutation = "receipt"
	MutatePurchase    Mutation = "purchase"
	MutateSale        Mutation = "sale"
	MutateCashTx      Mutation = "cash-tx"
)

// edges is the static invalidation table: mutation kind to the collections
// it may affect. Fixed configuration data, never mutated at runtime.
//
// The materials view reads the stock resource, so material mutations
// invalidate the stock collection.
var edges = map[Mutation][]string{
	MutateMaterial:    {Stock},
	MutateAssociation: {Associations, Partners},
	MutatePartner:     {Partners},
	MutatePartnerType: {PartnerTypes},
	MutateBuyer:       {Buyers},
	MutateReceipt:     {Receipts, Stock},
	MutatePurchase:    {Purchases, Stock, CashBalance},
	MutateSale:        {Sales, Stock},
	MutateCashTx:      {CashBalance},
}

// Affected returns the collection names a mutation kind invalidates,
// in declaration order. Returns nil for unknown kinds.
func Affected(m Mutation) []string {
	return edges[m]
}

// Synchronizer owns one Handle per collection and applies the edge table.
//
// It is the explicit, injected state container shared by every view: any
// view can trigger any collection's refresh, but only through a mutation
// kind declared in the table.
type Synchronizer struct {
	mu      sync.Mutex
	handles map[string]*Handle
}

// NewSynchronizer creates a Synchronizer with one handle per known
// collection.
func NewSynchronizer() *Synchronizer {
	s := &Synchronizer{handles: make(map[string]*Handle)}
	for _, name := range []string{
		Stock, Categories, Associations, Partners,
		PartnerTypes, Buyers, Receipts, Purchases, Sales, CashBalance,
	} {
		s.handles[name] = NewHandle(name)
	}
	return s
}

// Handle returns the handle for a collection name, or nil if unknown.
func (s *Synchronizer) Handle(name string) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[name]
}

// Invalidate bumps every collection the mutation kind maps to.
//
// Callers invoke it only after the mutation's network call resolved
// successfully; a failed mutation must leave every counter untouched.
// Concurrent invalidations of the same collection simply keep
// incrementing - consumers only test inequality with their last-seen
// value.
func (s *Synchronizer) Invalidate(m Mutation) {
	names := Affected(m)
	if names == nil {
		slog.Warn("invalidate for unknown mutation kind", "kind", string(m))
		return
	}

	for _, name := range names {
		if h := s.Handle(name); h != nil {
			h.Bump()
		}
	}
	slog.Debug("collections invalidated", "kind", string(m), "collections", names)
}

// Shutdown resets every handle. Called on session expiry so abandoned
// views stop observing bumps.
func (s *Synchronizer) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.handles {
		h.Reset()
	}
	slog.Info("cache synchronizer shut down")
}
