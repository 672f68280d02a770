package composer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/cache"
	"github.com/rcoop/console/internal/ledger"
	"github.com/rcoop/console/internal/probe"
)

// fakeStock is a settable stand-in for the prober.
type fakeStock struct {
	snap    *probe.Snapshot
	cleared int
}

func (f *fakeStock) Current() (probe.Snapshot, bool) {
	if f.snap == nil {
		return probe.Snapshot{}, false
	}
	return *f.snap, true
}

func (f *fakeStock) Clear() {
	f.snap = nil
	f.cleared++
}

func (f *fakeStock) set(materialID int64, qty float64, unit string) {
	f.snap = &probe.Snapshot{MaterialID: materialID, AvailableQty: qty, Unit: unit}
}

// fakeSubmitter records create-order calls and fails on demand.
type fakeSubmitter struct {
	calls []ledger.SaleDraft
	err   error
}

func (f *fakeSubmitter) CreateSale(_ context.Context, d ledger.SaleDraft) error {
	f.calls = append(f.calls, d)
	return f.err
}

// fakeInvalidator records invalidated mutation kinds.
type fakeInvalidator struct {
	kinds []cache.Mutation
}

func (f *fakeInvalidator) Invalidate(m cache.Mutation) {
	f.kinds = append(f.kinds, m)
}

func newTestComposer() (*Composer, *fakeStock, *fakeSubmitter, *fakeInvalidator) {
	stock := &fakeStock{}
	sub := &fakeSubmitter{}
	inv := &fakeInvalidator{}
	return New(stock, sub, inv), stock, sub, inv
}

func TestOpen_ClearsLeftovers(t *testing.T) {
	c, _, _, _ := newTestComposer()
	require.NoError(t, c.Open())
	require.NoError(t, c.SetBuyer(3))
	require.NoError(t, c.AddLine(1, 10, 2.5))

	require.NoError(t, c.Open())

	assert.Equal(t, Composing, c.State())
	assert.Zero(t, c.BuyerID())
	assert.Empty(t, c.Lines())
}

func TestAddLine_AcceptedWithinProbeBound(t *testing.T) {
	// Scenario: probe reports 100 available, line of 50 is accepted.
	c, stock, _, _ := newTestComposer()
	require.NoError(t, c.Open())
	stock.set(1, 100, "kg")

	require.NoError(t, c.AddLine(1, 50, 2.0))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, ledger.SaleLine{MaterialID: 1, Quantity: 50, UnitPrice: 2.0}, lines[0])
	assert.Equal(t, 1, stock.cleared, "staged probe is cleared after a successful add")
}

func TestAddLine_RejectedOverProbeBound(t *testing.T) {
	// Scenario: probe reports 100 available, line of 150 is rejected.
	c, stock, _, _ := newTestComposer()
	require.NoError(t, c.Open())
	stock.set(1, 100, "kg")

	err := c.AddLine(1, 150, 2.0)

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CodeInsufficientStock, ve.Code)
	assert.Empty(t, c.Lines(), "composer unchanged on rejection")
	assert.NotNil(t, stock.snap, "probe kept so the operator can correct the quantity")
}

func TestAddLine_NoProbeDisablesBound(t *testing.T) {
	// Probe failure (or none yet) disables quantity-bound validation.
	c, _, _, _ := newTestComposer()
	require.NoError(t, c.Open())

	require.NoError(t, c.AddLine(1, 99999, 2.0))
	assert.Len(t, c.Lines(), 1)
}

func TestAddLine_ProbeForOtherMaterialDoesNotBound(t *testing.T) {
	c, stock, _, _ := newTestComposer()
	require.NoError(t, c.Open())
	stock.set(2, 5, "kg")

	require.NoError(t, c.AddLine(1, 100, 2.0))
}

func TestAddLine_InputValidation(t *testing.T) {
	cases := []struct {
		name     string
		material int64
		qty      float64
		price    float64
		code     string
	}{
		{"missing material", 0, 10, 2, CodeMissingMaterial},
		{"zero quantity", 1, 0, 2, CodeInvalidQuantity},
		{"negative quantity", 1, -5, 2, CodeInvalidQuantity},
		{"zero price", 1, 10, 0, CodeInvalidPrice},
		{"negative price", 1, 10, -1, CodeInvalidPrice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _, _, _ := newTestComposer()
			require.NoError(t, c.Open())

			err := c.AddLine(tc.material, tc.qty, tc.price)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.code, ve.Code)
			assert.Empty(t, c.Lines())
		})
	}
}

func TestAddLine_RequiresComposing(t *testing.T) {
	c, _, _, _ := newTestComposer()
	err := c.AddLine(1, 10, 2)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CodeNotComposing, ve.Code)
}

func TestRemoveLine_PreservesOrder(t *testing.T) {
	// Scenario: two lines added, removeLine(0) leaves exactly the second
	// line at index 0.
	c, _, _, _ := newTestComposer()
	require.NoError(t, c.Open())
	require.NoError(t, c.AddLine(1, 10, 2.0))
	require.NoError(t, c.AddLine(2, 20, 3.0))

	require.NoError(t, c.RemoveLine(0))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].MaterialID)
}

func TestRemoveLine_NoRevalidation(t *testing.T) {
	// A line admitted under an older probe stays valid even if the
	// current snapshot would now reject it.
	c, stock, _, _ := newTestComposer()
	require.NoError(t, c.Open())
	stock.set(1, 100, "kg")
	require.NoError(t, c.AddLine(1, 80, 2.0))
	require.NoError(t, c.AddLine(2, 10, 1.0))

	stock.set(1, 5, "kg") // stock collapsed since
	require.NoError(t, c.RemoveLine(1))

	require.Len(t, c.Lines(), 1)
	assert.Equal(t, 80.0, c.Lines()[0].Quantity)
}

func TestRemoveLine_BadIndex(t *testing.T) {
	c, _, _, _ := newTestComposer()
	require.NoError(t, c.Open())
	require.NoError(t, c.AddLine(1, 10, 2.0))

	for _, idx := range []int{-1, 1, 7} {
		err := c.RemoveLine(idx)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, CodeBadLineIndex, ve.Code)
	}
	assert.Len(t, c.Lines(), 1)
}

func TestCommit_RequiresBuyerAndLines(t *testing.T) {
	c, _, sub, _ := newTestComposer()
	require.NoError(t, c.Open())

	err := c.Commit(context.Background())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CodeNoBuyer, ve.Code)

	require.NoError(t, c.SetBuyer(3))
	err = c.Commit(context.Background())
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CodeNoLines, ve.Code)

	assert.Empty(t, sub.calls, "no network call without buyer and lines")
	assert.Equal(t, Composing, c.State())
}

func TestCommit_Success(t *testing.T) {
	// Scenario: buyer set, two lines, remote succeeds: composer resets to
	// Empty and sales+stock counters each increase by exactly one.
	sync := cache.NewSynchronizer()
	stock := &fakeStock{}
	sub := &fakeSubmitter{}
	c := New(stock, sub, sync)

	require.NoError(t, c.Open())
	require.NoError(t, c.SetBuyer(3))
	require.NoError(t, c.AddLine(1, 50, 2.0))
	require.NoError(t, c.AddLine(2, 10, 1.5))

	salesBefore := sync.Handle(cache.Sales).Counter()
	stockBefore := sync.Handle(cache.Stock).Counter()
	buyersBefore := sync.Handle(cache.Buyers).Counter()

	require.NoError(t, c.Commit(context.Background()))

	assert.Equal(t, Empty, c.State())
	assert.Zero(t, c.BuyerID())
	assert.Empty(t, c.Lines())

	require.Len(t, sub.calls, 1)
	assert.Equal(t, ledger.SaleDraft{
		BuyerID: 3,
		Lines: []ledger.SaleLine{
			{MaterialID: 1, Quantity: 50, UnitPrice: 2.0},
			{MaterialID: 2, Quantity: 10, UnitPrice: 1.5},
		},
	}, sub.calls[0], "one atomic call carrying the whole order")

	assert.Equal(t, salesBefore+1, sync.Handle(cache.Sales).Counter())
	assert.Equal(t, stockBefore+1, sync.Handle(cache.Stock).Counter())
	assert.Equal(t, buyersBefore, sync.Handle(cache.Buyers).Counter(), "unmapped collection unchanged")
}

func TestCommit_FailurePreservesDraft(t *testing.T) {
	// Scenario: remote rejects with "stock insufficient"; composer stays in
	// Composing with its lines intact and the message surfaces verbatim.
	c, _, sub, inv := newTestComposer()
	sub.err = &api.RemoteError{Status: 400, Message: "stock insufficient"}

	require.NoError(t, c.Open())
	require.NoError(t, c.SetBuyer(3))
	require.NoError(t, c.AddLine(1, 50, 2.0))
	require.NoError(t, c.AddLine(2, 10, 1.5))

	err := c.Commit(context.Background())

	require.Error(t, err)
	assert.Equal(t, "stock insufficient", err.Error())
	assert.Equal(t, Composing, c.State())
	assert.Equal(t, int64(3), c.BuyerID())
	assert.Len(t, c.Lines(), 2)
	assert.Empty(t, inv.kinds, "no invalidation on failure")
}

func TestCommit_FailureThenRetrySucceeds(t *testing.T) {
	c, _, sub, inv := newTestComposer()
	sub.err = &api.RemoteError{Status: 400, Message: "stock insufficient"}

	require.NoError(t, c.Open())
	require.NoError(t, c.SetBuyer(3))
	require.NoError(t, c.AddLine(1, 50, 2.0))
	require.Error(t, c.Commit(context.Background()))

	// Operator edits the draft and retries.
	require.NoError(t, c.RemoveLine(0))
	require.NoError(t, c.AddLine(1, 20, 2.0))
	sub.err = nil
	require.NoError(t, c.Commit(context.Background()))

	assert.Equal(t, Empty, c.State())
	assert.Equal(t, []cache.Mutation{cache.MutateSale}, inv.kinds)
}

func TestCommit_OnlyFromComposing(t *testing.T) {
	c, _, sub, _ := newTestComposer()

	err := c.Commit(context.Background())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CodeNotComposing, ve.Code)
	assert.Empty(t, sub.calls)
}

func TestDiscard_DropsDraft(t *testing.T) {
	// Session expiry: the draft is discarded, never resumed.
	c, stock, _, _ := newTestComposer()
	require.NoError(t, c.Open())
	require.NoError(t, c.SetBuyer(3))
	require.NoError(t, c.AddLine(1, 50, 2.0))
	stock.set(2, 10, "kg")

	c.Discard()

	assert.Equal(t, Empty, c.State())
	assert.Zero(t, c.BuyerID())
	assert.Empty(t, c.Lines())
	assert.Nil(t, stock.snap)
}

func TestSetBuyer_Validation(t *testing.T) {
	c, _, _, _ := newTestComposer()
	require.NoError(t, c.Open())

	err := c.SetBuyer(0)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, CodeInvalidBuyer, ve.Code)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "empty", Empty.String())
	assert.Equal(t, "composing", Composing.String())
	assert.Equal(t, "committing", Committing.String())
}
