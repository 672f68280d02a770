// Package ledger provides typed bindings for the remote ledger service.
//
// The ledger owns all business rules (stock accounting, cash balance,
// report aggregation); this package only models its HTTP boundary.
package ledger

// Material is a recyclable material registered with the cooperative.
// The stock resource serves materials together with their current level.
type Material struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	CategoryID   int64   `json:"category_id,omitempty"`
	Unit         string  `json:"unit"`
	Active       bool    `json:"active"`
	CurrentStock float64 `json:"current_stock"`
}

// MaterialDraft is the create/update payload for a material.
type MaterialDraft struct {
	Name       string `json:"name"`
	CategoryID int64  `json:"category_id,omitempty"`
	Unit       string `json:"unit"`
	Active     bool   `json:"active"`
}

// Category groups materials. Small unpaginated collection.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Association is a member cooperative of the network.
type Association struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	TaxID  string `json:"tax_id,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
	Active bool   `json:"active"`
}

// Partner is a donating organization or individual.
type Partner struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	TypeID int64  `json:"type_id"`
	Active bool   `json:"active"`
}

// PartnerType classifies partners. Small unpaginated collection.
type PartnerType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Buyer purchases material from the network.
type Buyer struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	TaxID  string `json:"tax_id,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
	Active bool   `json:"active"`
}

// Receipt records a material donation entering stock.
type Receipt struct {
	ID         int64   `json:"id"`
	Date       string  `json:"date"`
	PartnerID  int64   `json:"partner_id"`
	MaterialID int64   `json:"material_id"`
	Quantity   float64 `json:"quantity"`
}

// Purchase records material bought into stock, moving cash out.
type Purchase struct {
	ID         int64   `json:"id"`
	Date       string  `json:"date"`
	PartnerID  int64   `json:"partner_id"`
	MaterialID int64   `json:"material_id"`
	Quantity   float64 `json:"quantity"`
	UnitCost   float64 `json:"unit_cost"`
}

// SaleLine is one material/quantity/price line of a sale.
type SaleLine struct {
	MaterialID int64   `json:"material_id"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
}

// Sale as reported by the ledger.
type Sale struct {
	ID      int64      `json:"id"`
	Code    string     `json:"code,omitempty"`
	Date    string     `json:"date"`
	BuyerID int64      `json:"buyer_id"`
	Buyer   *Buyer     `json:"buyer,omitempty"`
	Lines   []SaleLine `json:"lines"`
}

// SaleDraft is the atomic sale-creation payload: one buyer, all lines,
// submitted as a single all-or-nothing unit.
type SaleDraft struct {
	BuyerID int64      `json:"buyer_id"`
	Lines   []SaleLine `json:"lines"`
}

// Cash transaction types.
const (
	TxIn  = "IN"
	TxOut = "OUT"
)

// CashTransaction is one cash movement outside purchases and sales.
type CashTransaction struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	Type        string  `json:"type"` // TxIn or TxOut
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// CashBalance is the server-computed cash position.
type CashBalance struct {
	Balance  float64 `json:"balance"`
	TotalIn  float64 `json:"total_in"`
	TotalOut float64 `json:"total_out"`
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
}
