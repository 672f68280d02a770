package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allCollections lists every handle the synchronizer owns.
var allCollections = []string{
	Stock, Categories, Associations, Partners,
	PartnerTypes, Buyers, Receipts, Purchases, Sales, CashBalance,
}

func snapshotCounters(s *Synchronizer) map[string]uint64 {
	seen := make(map[string]uint64, len(allCollections))
	for _, name := range allCollections {
		seen[name] = s.Handle(name).Counter()
	}
	return seen
}

// TestInvalidate_Completeness walks the whole edge table: after each
// mutation kind, every mapped collection's counter has strictly increased
// by exactly one and every unmapped collection's counter is unchanged.
func TestInvalidate_Completeness(t *testing.T) {
	cases := []struct {
		kind     Mutation
		affected []string
	}{
		{MutateMaterial, []string{Stock}},
		{MutateAssociation, []string{Associations, Partners}},
		{MutatePartner, []string{Partners}},
		{MutatePartnerType, []string{PartnerTypes}},
		{MutateBuyer, []string{Buyers}},
		{MutateReceipt, []string{Receipts, Stock}},
		{MutatePurchase, []string{Purchases, Stock, CashBalance}},
		{MutateSale, []string{Sales, Stock}},
		{MutateCashTx, []string{CashBalance}},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			s := NewSynchronizer()
			before := snapshotCounters(s)

			s.Invalidate(tc.kind)

			mapped := make(map[string]bool, len(tc.affected))
			for _, name := range tc.affected {
				mapped[name] = true
			}
			for _, name := range allCollections {
				after := s.Handle(name).Counter()
				if mapped[name] {
					assert.Equal(t, before[name]+1, after,
						"%s must increase exactly once", name)
				} else {
					assert.Equal(t, before[name], after,
						"%s is unmapped and must be unchanged", name)
				}
			}
		})
	}
}

func TestAffected_MatchesEdgeTable(t *testing.T) {
	assert.Equal(t, []string{Sales, Stock}, Affected(MutateSale))
	assert.Nil(t, Affected(Mutation("bogus")))
}

func TestInvalidate_UnknownKindIsNoop(t *testing.T) {
	s := NewSynchronizer()
	before := snapshotCounters(s)

	s.Invalidate(Mutation("bogus"))

	assert.Equal(t, before, snapshotCounters(s))
}

func TestInvalidate_NotifiesSubscribedViews(t *testing.T) {
	s := NewSynchronizer()

	salesRefetch, stockRefetch, buyersRefetch := 0, 0, 0
	s.Handle(Sales).Subscribe(func() { salesRefetch++ })
	s.Handle(Stock).Subscribe(func() { stockRefetch++ })
	s.Handle(Buyers).Subscribe(func() { buyersRefetch++ })

	s.Invalidate(MutateSale)
	s.Invalidate(MutateSale)

	assert.Equal(t, 2, salesRefetch)
	assert.Equal(t, 2, stockRefetch)
	assert.Equal(t, 0, buyersRefetch)
}

func TestSynchronizer_RepeatedBumpsKeepIncrementing(t *testing.T) {
	s := NewSynchronizer()
	for i := 0; i < 5; i++ {
		s.Invalidate(MutateCashTx)
	}
	assert.Equal(t, uint64(5), s.Handle(CashBalance).Counter())
}

func TestSynchronizer_Shutdown(t *testing.T) {
	s := NewSynchronizer()
	fired := 0
	s.Handle(Sales).Subscribe(func() { fired++ })

	s.Shutdown()
	s.Invalidate(MutateSale)

	require.Equal(t, 0, fired, "session expiry abandons all fetch loops")
}

func TestSynchronizer_UnknownHandle(t *testing.T) {
	s := NewSynchronizer()
	assert.Nil(t, s.Handle("bogus"))
}
