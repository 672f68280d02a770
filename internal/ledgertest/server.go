package ledgertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rcoop/console/internal/ledger"
)

// Server is the HTTP face of the fake ledger. It enforces the same
// boundary contract as the production service: bearer auth on every
// route, {items, total_count} pages, bare arrays for small collections,
// machine-readable detail on failure, and authoritative stock checks on
// sale creation.
type Server struct {
	store *Store
	mux   *http.ServeMux

	mu     sync.Mutex
	users  map[string]string
	tokens map[string]bool
}

// NewServer builds a server over the given store.
func NewServer(store *Store) *Server {
	s := &Server{
		store:  store,
		mux:    http.NewServeMux(),
		users:  map[string]string{},
		tokens: map[string]bool{},
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler; mount it on an httptest server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// AddOperator registers login credentials.
func (s *Server) AddOperator(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = password
}

// IssueToken mints a valid bearer token without the login round trip.
func (s *Server) IssueToken() string {
	tok := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tok] = true
	return tok
}

// RevokeAll expires every session: all subsequent calls get 401.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]bool{}
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /auth/token", s.handleLogin)

	s.mux.HandleFunc("GET /stock/", s.auth(s.handleStockList))
	s.mux.HandleFunc("GET /stock/{id}", s.auth(s.handleStockProbe))

	s.mux.HandleFunc("POST /materials/", s.auth(s.handleMaterialCreate))
	s.mux.HandleFunc("PUT /materials/{id}", s.auth(s.handleMaterialUpdate))
	s.mux.HandleFunc("DELETE /materials/{id}", s.auth(s.handleMaterialInactivate))

	s.mux.HandleFunc("GET /categories/", s.auth(s.handleCategories))

	s.mux.HandleFunc("GET /partner-types/", s.auth(s.handlePartnerTypes))
	s.mux.HandleFunc("POST /partner-types/", s.auth(s.handlePartnerTypeCreate))

	s.mux.HandleFunc("GET /partners/", s.auth(s.handlePartnerList))
	s.mux.HandleFunc("POST /partners/", s.auth(s.handlePartnerCreate))
	s.mux.HandleFunc("PUT /partners/{id}", s.auth(s.handlePartnerUpdate))
	s.mux.HandleFunc("DELETE /partners/{id}", s.auth(s.handlePartnerDelete))

	s.mux.HandleFunc("GET /associations/", s.auth(s.handleAssociationList))
	s.mux.HandleFunc("POST /associations/", s.auth(s.handleAssociationCreate))
	s.mux.HandleFunc("PUT /associations/{id}", s.auth(s.handleAssociationUpdate))
	s.mux.HandleFunc("DELETE /associations/{id}", s.auth(s.handleAssociationInactivate))

	s.mux.HandleFunc("GET /buyers/", s.auth(s.handleBuyerList))
	s.mux.HandleFunc("POST /buyers/", s.auth(s.handleBuyerCreate))
	s.mux.HandleFunc("PUT /buyers/{id}", s.auth(s.handleBuyerUpdate))
	s.mux.HandleFunc("DELETE /buyers/{id}", s.auth(s.handleBuyerInactivate))

	s.mux.HandleFunc("GET /receipts/", s.auth(s.handleReceiptList))
	s.mux.HandleFunc("POST /receipts/", s.auth(s.handleReceiptCreate))
	s.mux.HandleFunc("DELETE /receipts/{id}", s.auth(s.handleReceiptCancel))

	s.mux.HandleFunc("GET /purchases/", s.auth(s.handlePurchaseList))
	s.mux.HandleFunc("POST /purchases/", s.auth(s.handlePurchaseCreate))
	s.mux.HandleFunc("DELETE /purchases/{id}", s.auth(s.handlePurchaseCancel))

	s.mux.HandleFunc("GET /sales/", s.auth(s.handleSaleList))
	s.mux.HandleFunc("POST /sales/", s.auth(s.handleSaleCreate))
	s.mux.HandleFunc("DELETE /sales/{id}", s.auth(s.handleSaleCancel))

	s.mux.HandleFunc("GET /cash/balance", s.auth(s.handleCashBalance))
	s.mux.HandleFunc("GET /cash/transactions", s.auth(s.handleCashTxList))
	s.mux.HandleFunc("POST /cash/transactions", s.auth(s.handleCashTxCreate))
}

// --- plumbing ---

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		ok := s.tokens[tok]
		s.mu.Unlock()
		if tok == "" || !ok {
			writeDetail(w, http.StatusUnauthorized, "invalid or expired credential")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 20
	}
	return skip, limit
}

type page struct {
	Items      any `json:"items"`
	TotalCount int `json:"total_count"`
}

func today() string {
	return time.Now().Format("2006-01-02")
}

// --- auth ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds ledger.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	s.mu.Lock()
	pass, known := s.users[creds.Username]
	s.mu.Unlock()
	if !known || pass != creds.Password {
		writeDetail(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, ledger.Token{AccessToken: s.IssueToken()})
}

// --- stock / materials ---

func (s *Server) handleStockList(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	where, args := "1=1", []any{}
	if name := r.URL.Query().Get("name"); name != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}

	var total int
	if err := s.store.db.QueryRow("SELECT COUNT(*) FROM materials WHERE "+where, args...).Scan(&total); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows, err := s.store.db.Query(
		"SELECT id, name, COALESCE(category_id, 0), unit, active, stock FROM materials WHERE "+where+
			" ORDER BY id LIMIT ? OFFSET ?", append(args, limit, skip)...)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []ledger.Material{}
	for rows.Next() {
		var m ledger.Material
		if err := rows.Scan(&m.ID, &m.Name, &m.CategoryID, &m.Unit, &m.Active, &m.CurrentStock); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, m)
	}
	writeJSON(w, http.StatusOK, page{Items: items, TotalCount: total})
}

func (s *Server) handleStockProbe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	qty, unit, err := s.store.StockOf(id)
	if err != nil {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("material %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"available_qty": qty, "unit": unit})
}

func (s *Server) handleMaterialCreate(w http.ResponseWriter, r *http.Request) {
	var d ledger.MaterialDraft
	if !decodeBody(w, r, &d) {
		return
	}
	if d.Name == "" || d.Unit == "" {
		writeDetail(w, http.StatusBadRequest, "name and unit are required")
		return
	}
	res, err := s.store.db.Exec(
		"INSERT INTO materials (name, category_id, unit, active) VALUES (?, NULLIF(?, 0), ?, ?)",
		d.Name, d.CategoryID, d.Unit, d.Active)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleMaterialUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var d ledger.MaterialDraft
	if !decodeBody(w, r, &d) {
		return
	}
	res, err := s.store.db.Exec(
		"UPDATE materials SET name = ?, category_id = NULLIF(?, 0), unit = ?, active = ? WHERE id = ?",
		d.Name, d.CategoryID, d.Unit, d.Active, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("material %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMaterialInactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.store.db.Exec("UPDATE materials SET active = 0 WHERE id = ?", id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("material %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- small unpaginated collections (bare arrays) ---

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.db.Query("SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []ledger.Category{}
	for rows.Next() {
		var c ledger.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, c)
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handlePartnerTypes(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.db.Query("SELECT id, name FROM partner_types ORDER BY id")
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []ledger.PartnerType{}
	for rows.Next() {
		var t ledger.PartnerType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, t)
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handlePartnerTypeCreate(w http.ResponseWriter, r *http.Request) {
	var t ledger.PartnerType
	if !decodeBody(w, r, &t) {
		return
	}
	if t.Name == "" {
		writeDetail(w, http.StatusBadRequest, "name is required")
		return
	}
	res, err := s.store.db.Exec("INSERT INTO partner_types (name) VALUES (?)", t.Name)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
