package ledger

import (
	"context"
	"fmt"

	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/probe"
)

// Filter keys accepted by list endpoints.
const (
	FilterName       = "name"
	FilterStartDate  = "start_date"
	FilterEndDate    = "end_date"
	FilterBuyerID    = "buyer_id"
	FilterPartnerID  = "partner_id"
	FilterMaterialID = "material_id"
)

// Client binds the ledger's endpoints to typed Go calls.
type Client struct {
	api *api.Client
}

// NewClient wraps an api.Client.
func NewClient(c *api.Client) *Client {
	return &Client{api: c}
}

// Login exchanges operator credentials for a bearer token. The returned
// token is not installed on the underlying client; callers decide whether
// to persist it first.
func (c *Client) Login(ctx context.Context, creds Credentials) (Token, error) {
	var tok Token
	if err := c.api.Post(ctx, "/auth/token", creds, &tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// Stock lists materials with their current levels (the materials view and
// the stock view read the same resource).
func (c *Client) Stock(ctx context.Context, p api.ListParams) (api.Page[Material], error) {
	var page api.Page[Material]
	err := c.api.Get(ctx, "/stock/", p.Query(), &page)
	return page, err
}

// StockLevel probes the available quantity for one material.
// Implements probe.Fetcher.
func (c *Client) StockLevel(ctx context.Context, materialID int64) (probe.Level, error) {
	var level probe.Level
	err := c.api.Get(ctx, fmt.Sprintf("/stock/%d", materialID), nil, &level)
	return level, err
}

func (c *Client) CreateMaterial(ctx context.Context, d MaterialDraft) error {
	return c.api.Post(ctx, "/materials/", d, nil)
}

func (c *Client) UpdateMaterial(ctx context.Context, id int64, d MaterialDraft) error {
	return c.api.Put(ctx, fmt.Sprintf("/materials/%d", id), d, nil)
}

// InactivateMaterial marks a material inactive; the ledger keeps its
// history (DELETE means cancel/inactivate throughout the service).
func (c *Client) InactivateMaterial(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/materials/%d", id))
}

// Categories returns the whole category collection (bare array endpoint).
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var page api.Page[Category]
	if err := c.api.Get(ctx, "/categories/", nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) Associations(ctx context.Context, p api.ListParams) (api.Page[Association], error) {
	var page api.Page[Association]
	err := c.api.Get(ctx, "/associations/", p.Query(), &page)
	return page, err
}

func (c *Client) CreateAssociation(ctx context.Context, a Association) error {
	return c.api.Post(ctx, "/associations/", a, nil)
}

func (c *Client) UpdateAssociation(ctx context.Context, id int64, a Association) error {
	return c.api.Put(ctx, fmt.Sprintf("/associations/%d", id), a, nil)
}

func (c *Client) InactivateAssociation(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/associations/%d", id))
}

func (c *Client) Partners(ctx context.Context, p api.ListParams) (api.Page[Partner], error) {
	var page api.Page[Partner]
	err := c.api.Get(ctx, "/partners/", p.Query(), &page)
	return page, err
}

func (c *Client) CreatePartner(ctx context.Context, p Partner) error {
	return c.api.Post(ctx, "/partners/", p, nil)
}

func (c *Client) UpdatePartner(ctx context.Context, id int64, p Partner) error {
	return c.api.Put(ctx, fmt.Sprintf("/partners/%d", id), p, nil)
}

func (c *Client) DeletePartner(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/partners/%d", id))
}

// PartnerTypes returns the whole partner-type collection (bare array).
func (c *Client) PartnerTypes(ctx context.Context) ([]PartnerType, error) {
	var page api.Page[PartnerType]
	if err := c.api.Get(ctx, "/partner-types/", nil, &page); err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (c *Client) CreatePartnerType(ctx context.Context, t PartnerType) error {
	return c.api.Post(ctx, "/partner-types/", t, nil)
}

func (c *Client) Buyers(ctx context.Context, p api.ListParams) (api.Page[Buyer], error) {
	var page api.Page[Buyer]
	err := c.api.Get(ctx, "/buyers/", p.Query(), &page)
	return page, err
}

func (c *Client) CreateBuyer(ctx context.Context, b Buyer) error {
	return c.api.Post(ctx, "/buyers/", b, nil)
}

func (c *Client) UpdateBuyer(ctx context.Context, id int64, b Buyer) error {
	return c.api.Put(ctx, fmt.Sprintf("/buyers/%d", id), b, nil)
}

func (c *Client) InactivateBuyer(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/buyers/%d", id))
}

func (c *Client) Receipts(ctx context.Context, p api.ListParams) (api.Page[Receipt], error) {
	var page api.Page[Receipt]
	err := c.api.Get(ctx, "/receipts/", p.Query(), &page)
	return page, err
}

func (c *Client) CreateReceipt(ctx context.Context, r Receipt) error {
	return c.api.Post(ctx, "/receipts/", r, nil)
}

func (c *Client) CancelReceipt(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/receipts/%d", id))
}

func (c *Client) Purchases(ctx context.Context, p api.ListParams) (api.Page[Purchase], error) {
	var page api.Page[Purchase]
	err := c.api.Get(ctx, "/purchases/", p.Query(), &page)
	return page, err
}

func (c *Client) CreatePurchase(ctx context.Context, pu Purchase) error {
	return c.api.Post(ctx, "/purchases/", pu, nil)
}

func (c *Client) CancelPurchase(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/purchases/%d", id))
}

func (c *Client) Sales(ctx context.Context, p api.ListParams) (api.Page[Sale], error) {
	var page api.Page[Sale]
	err := c.api.Get(ctx, "/sales/", p.Query(), &page)
	return page, err
}

// CreateSale submits one atomic sale order. The ledger performs the
// authoritative stock validation here; the client-side probe check is
// advisory only.
func (c *Client) CreateSale(ctx context.Context, d SaleDraft) error {
	return c.api.Post(ctx, "/sales/", d, nil)
}

func (c *Client) CancelSale(ctx context.Context, id int64) error {
	return c.api.Delete(ctx, fmt.Sprintf("/sales/%d", id))
}

// CashBalanceNow returns the server-computed cash position.
func (c *Client) CashBalanceNow(ctx context.Context) (CashBalance, error) {
	var b CashBalance
	err := c.api.Get(ctx, "/cash/balance", nil, &b)
	return b, err
}

func (c *Client) CashTransactions(ctx context.Context, p api.ListParams) (api.Page[CashTransaction], error) {
	var page api.Page[CashTransaction]
	err := c.api.Get(ctx, "/cash/transactions", p.Query(), &page)
	return page, err
}

func (c *Client) CreateCashTransaction(ctx context.Context, tx CashTransaction) error {
	return c.api.Post(ctx, "/cash/transactions", tx, nil)
}
