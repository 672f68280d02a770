// Package cache implements the cross-view cache-invalidation protocol.
//
// Every named collection (sales, stock, partners, ...) is an independently
// fetched, independently paginated view over one ledger resource. There is
// no shared transactional store: consistency between views is maintained by
// a staleness signal, not by pushing data.
//
// ARCHITECTURE:
//
// Each collection has one Handle carrying a monotonic refresh counter and
// the view-local cursor (skip/limit/filters). A fixed edge table maps every
// mutation kind to the set of collections it may affect. After a mutation's
// network call resolves successfully - and only then - the Synchronizer
// bumps the counter of every mapped collection. Subscribers refetch when
// the counter they observe changes.
//
// The bump carries no payload. Consumers compare against their last-seen
// value; the counter's absolute magnitude is meaningless. Counters are
// process-local: there is no cross-process or cross-operator coordination.
//
// The edge table is declaration data, not runtime state. It is evaluated
// the same way on every mutation, which keeps the refetch cascade
// deterministic for a given sequence of successful mutations.
package cache
