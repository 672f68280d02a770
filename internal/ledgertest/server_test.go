package ledgertest

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/ledger"
)

// newTestLedger spins up a seeded fake ledger and a client holding a
// valid credential.
func newTestLedger(t *testing.T) (*Server, *ledger.Client) {
	t.Helper()

	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.SeedDefault())

	srv := NewServer(store)
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	client := ledger.NewClient(api.New(hs.URL, api.WithToken(srv.IssueToken())))
	return srv, client
}

func TestLogin(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	srv := NewServer(store)
	srv.AddOperator("maria", "hunter2")
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	client := ledger.NewClient(api.New(hs.URL))

	t.Run("valid credentials", func(t *testing.T) {
		tok, err := client.Login(context.Background(), ledger.Credentials{Username: "maria", Password: "hunter2"})
		require.NoError(t, err)
		assert.NotEmpty(t, tok.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := client.Login(context.Background(), ledger.Credentials{Username: "maria", Password: "nope"})
		assert.ErrorIs(t, err, api.ErrSessionExpired)
	})
}

func TestAuthRequired(t *testing.T) {
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	hs := httptest.NewServer(NewServer(store).Handler())
	defer hs.Close()

	client := ledger.NewClient(api.New(hs.URL))
	_, err = client.Stock(context.Background(), api.ListParams{})
	assert.ErrorIs(t, err, api.ErrSessionExpired)
}

func TestRevokeAllExpiresSessions(t *testing.T) {
	srv, client := newTestLedger(t)

	_, err := client.Stock(context.Background(), api.ListParams{})
	require.NoError(t, err)

	srv.RevokeAll()
	_, err = client.Stock(context.Background(), api.ListParams{})
	assert.ErrorIs(t, err, api.ErrSessionExpired)
}

func TestStockListAndProbe(t *testing.T) {
	_, client := newTestLedger(t)
	ctx := context.Background()

	page, err := client.Stock(ctx, api.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 3, page.TotalCount)
	assert.Equal(t, "PET bottles", page.Items[0].Name)
	assert.Equal(t, 100.0, page.Items[0].CurrentStock)

	t.Run("name filter", func(t *testing.T) {
		p := api.ListParams{}
		p.Filters = map[string][]string{ledger.FilterName: {"Alum"}}
		page, err := client.Stock(ctx, p)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Aluminum cans", page.Items[0].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := client.Stock(ctx, api.ListParams{Skip: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.TotalCount)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Cardboard", page.Items[0].Name)
	})

	t.Run("probe", func(t *testing.T) {
		level, err := client.StockLevel(ctx, page.Items[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 100.0, level.AvailableQty)
		assert.Equal(t, "kg", level.Unit)
	})

	t.Run("probe unknown material", func(t *testing.T) {
		_, err := client.StockLevel(ctx, 999)
		assert.True(t, api.IsRemote(err))
	})
}

func TestBareArrayCollections(t *testing.T) {
	_, client := newTestLedger(t)
	ctx := context.Background()

	cats, err := client.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 3)

	types, err := client.PartnerTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 3)
	assert.Equal(t, "School", types[0].Name)
}

func TestReceiptMovesStock(t *testing.T) {
	_, client := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, client.CreateReceipt(ctx, ledger.Receipt{
		PartnerID:  1,
		MaterialID: 1,
		Quantity:   40,
	}))

	level, err := client.StockLevel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 140.0, level.AvailableQty)

	page, err := client.Receipts(ctx, api.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)

	require.NoError(t, client.CancelReceipt(ctx, page.Items[0].ID))
	level, err = client.StockLevel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, level.AvailableQty)
}

func TestPurchaseMovesStockAndCash(t *testing.T) {
	_, client := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, client.CreatePurchase(ctx, ledger.Purchase{
		PartnerID:  2,
		MaterialID: 2,
		Quantity:   50,
		UnitCost:   1.2,
	}))

	level, err := client.StockLevel(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 300.0, level.AvailableQty)

	bal, err := client.CashBalanceNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, -60.0, bal.Balance)
	assert.Equal(t, 60.0, bal.TotalOut)
}

func TestSaleLifecycle(t *testing.T) {
	_, client := newTestLedger(t)
	ctx := context.Background()

	draft := ledger.SaleDraft{
		BuyerID: 1,
		Lines: []ledger.SaleLine{
			{MaterialID: 1, Quantity: 30, UnitPrice: 2.5},
			{MaterialID: 2, Quantity: 100, UnitPrice: 4.0},
		},
	}
	require.NoError(t, client.CreateSale(ctx, draft))

	level, err := client.StockLevel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 70.0, level.AvailableQty)
	level, err = client.StockLevel(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 150.0, level.AvailableQty)

	page, err := client.Sales(ctx, api.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	sale := page.Items[0]
	assert.Equal(t, "S-0001", sale.Code)
	require.Len(t, sale.Lines, 2)
	assert.Equal(t, 30.0, sale.Lines[0].Quantity)

	bal, err := client.CashBalanceNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30*2.5+100*4.0, bal.TotalIn)

	require.NoError(t, client.CancelSale(ctx, sale.ID))
	level, err = client.StockLevel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, level.AvailableQty)
}

func TestSaleRejectedOnShortStock(t *testing.T) {
	_, client := newTestLedger(t)
	ctx := context.Background()

	err := client.CreateSale(ctx, ledger.SaleDraft{
		BuyerID: 1,
		Lines: []ledger.SaleLine{
			{MaterialID: 1, Quantity: 30, UnitPrice: 2.5},
			{MaterialID: 2, Quantity: 9999, UnitPrice: 4.0},
		},
	})
	require.Error(t, err)
	assert.True(t, api.IsRemote(err))
	assert.EqualError(t, err, "stock insufficient")

	// Whole order rejected: the first line must not have moved stock.
	level, err := client.StockLevel(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, level.AvailableQty)
}

func TestSaleFilters(t *testing.T) {
	_, client := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, client.CreateSale(ctx, ledger.SaleDraft{
		BuyerID: 1,
		Lines:   []ledger.SaleLine{{MaterialID: 1, Quantity: 10, UnitPrice: 2}},
	}))
	require.NoError(t, client.CreateSale(ctx, ledger.SaleDraft{
		BuyerID: 2,
		Lines:   []ledger.SaleLine{{MaterialID: 2, Quantity: 10, UnitPrice: 3}},
	}))

	p := api.ListParams{}
	p.Filters = map[string][]string{ledger.FilterBuyerID: {"2"}}
	page, err := client.Sales(ctx, p)
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, int64(2), page.Items[0].BuyerID)

	p.Filters = map[string][]string{ledger.FilterMaterialID: {"1"}}
	page, err = client.Sales(ctx, p)
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalCount)
	assert.Equal(t, int64(1), page.Items[0].BuyerID)
}

func TestCashTransactions(t *testing.T) {
	_, client := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, client.CreateCashTransaction(ctx, ledger.CashTransaction{
		Type: ledger.TxIn, Description: "municipal grant", Amount: 500,
	}))
	require.NoError(t, client.CreateCashTransaction(ctx, ledger.CashTransaction{
		Type: ledger.TxOut, Description: "truck fuel", Amount: 120,
	}))

	bal, err := client.CashBalanceNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 380.0, bal.Balance)
	assert.Equal(t, 500.0, bal.TotalIn)
	assert.Equal(t, 120.0, bal.TotalOut)

	page, err := client.CashTransactions(ctx, api.ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)

	t.Run("rejects bad type", func(t *testing.T) {
		err := client.CreateCashTransaction(ctx, ledger.CashTransaction{
			Type: "SIDEWAYS", Description: "x", Amount: 1,
		})
		assert.True(t, api.IsRemote(err))
	})
}

func TestRegistryCRUD(t *testing.T) {
	_, client := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, client.CreateBuyer(ctx, ledger.Buyer{Name: "New Buyer Co", Active: true}))
	page, err := client.Buyers(ctx, api.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 3, page.TotalCount)

	last := page.Items[2]
	last.Name = "Renamed Buyer Co"
	require.NoError(t, client.UpdateBuyer(ctx, last.ID, last))

	require.NoError(t, client.InactivateBuyer(ctx, last.ID))
	page, err = client.Buyers(ctx, api.ListParams{})
	require.NoError(t, err)
	assert.False(t, page.Items[2].Active)

	t.Run("partner with history cannot be deleted", func(t *testing.T) {
		require.NoError(t, client.CreateReceipt(ctx, ledger.Receipt{
			PartnerID: 1, MaterialID: 1, Quantity: 5,
		}))
		err := client.DeletePartner(ctx, 1)
		require.Error(t, err)
		assert.EqualError(t, err, "partner has recorded movements")
	})
}

func TestFixtureParseErrors(t *testing.T) {
	_, err := ParseFixture([]byte("materials: {not: [a, list"))
	assert.Error(t, err)
}
