package ledgertest

import (
	"fmt"
	"net/http"

	"github.com/rcoop/console/internal/ledger"
)

// Movement handlers. Receipts and purchases add stock; sales subtract
// it under the authoritative check; cancelling any movement reverses
// its stock effect.

func movementFilters(r *http.Request, dateCol string) (where string, args []any) {
	where = "1=1"
	q := r.URL.Query()
	if v := q.Get(ledger.FilterPartnerID); v != "" {
		where += " AND partner_id = ?"
		args = append(args, v)
	}
	if v := q.Get(ledger.FilterMaterialID); v != "" {
		where += " AND material_id = ?"
		args = append(args, v)
	}
	if v := q.Get(ledger.FilterStartDate); v != "" {
		where += " AND " + dateCol + " >= ?"
		args = append(args, v)
	}
	if v := q.Get(ledger.FilterEndDate); v != "" {
		where += " AND " + dateCol + " <= ?"
		args = append(args, v)
	}
	return where, args
}

func (s *Server) handleReceiptList(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	where, args := movementFilters(r, "date")

	var total int
	if err := s.store.db.QueryRow("SELECT COUNT(*) FROM receipts WHERE "+where, args...).Scan(&total); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows, err := s.store.db.Query(
		"SELECT id, date, partner_id, material_id, quantity FROM receipts WHERE "+where+
			" ORDER BY id LIMIT ? OFFSET ?", append(args, limit, skip)...)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []ledger.Receipt{}
	for rows.Next() {
		var rc ledger.Receipt
		if err := rows.Scan(&rc.ID, &rc.Date, &rc.PartnerID, &rc.MaterialID, &rc.Quantity); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, rc)
	}
	writeJSON(w, http.StatusOK, page{Items: items, TotalCount: total})
}

func (s *Server) handleReceiptCreate(w http.ResponseWriter, r *http.Request) {
	var rc ledger.Receipt
	if !decodeBody(w, r, &rc) {
		return
	}
	if rc.PartnerID <= 0 || rc.MaterialID <= 0 || rc.Quantity <= 0 {
		writeDetail(w, http.StatusBadRequest, "partner_id, material_id and a positive quantity are required")
		return
	}
	if rc.Date == "" {
		rc.Date = today()
	}
	res, err := s.store.db.Exec(
		"INSERT INTO receipts (date, partner_id, material_id, quantity) VALUES (?, ?, ?, ?)",
		rc.Date, rc.PartnerID, rc.MaterialID, rc.Quantity)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.AdjustStock(rc.MaterialID, rc.Quantity); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleReceiptCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var materialID int64
	var qty float64
	err := s.store.db.QueryRow(
		"SELECT material_id, quantity FROM receipts WHERE id = ?", id,
	).Scan(&materialID, &qty)
	if err != nil {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("receipt %d not found", id))
		return
	}
	if _, err := s.store.db.Exec("DELETE FROM receipts WHERE id = ?", id); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.AdjustStock(materialID, -qty); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePurchaseList(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	where, args := movementFilters(r, "date")

	var total int
	if err := s.store.db.QueryRow("SELECT COUNT(*) FROM purchases WHERE "+where, args...).Scan(&total); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows, err := s.store.db.Query(
		"SELECT id, date, partner_id, material_id, quantity, unit_cost FROM purchases WHERE "+where+
			" ORDER BY id LIMIT ? OFFSET ?", append(args, limit, skip)...)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []ledger.Purchase{}
	for rows.Next() {
		var p ledger.Purchase
		if err := rows.Scan(&p.ID, &p.Date, &p.PartnerID, &p.MaterialID, &p.Quantity, &p.UnitCost); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, p)
	}
	writeJSON(w, http.StatusOK, page{Items: items, TotalCount: total})
}

func (s *Server) handlePurchaseCreate(w http.ResponseWriter, r *http.Request) {
	var p ledger.Purchase
	if !decodeBody(w, r, &p) {
		return
	}
	if p.PartnerID <= 0 || p.MaterialID <= 0 || p.Quantity <= 0 || p.UnitCost < 0 {
		writeDetail(w, http.StatusBadRequest, "partner_id, material_id, positive quantity and non-negative unit_cost are required")
		return
	}
	if p.Date == "" {
		p.Date = today()
	}
	res, err := s.store.db.Exec(
		"INSERT INTO purchases (date, partner_id, material_id, quantity, unit_cost) VALUES (?, ?, ?, ?, ?)",
		p.Date, p.PartnerID, p.MaterialID, p.Quantity, p.UnitCost)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.AdjustStock(p.MaterialID, p.Quantity); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handlePurchaseCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var materialID int64
	var qty float64
	err := s.store.db.QueryRow(
		"SELECT material_id, quantity FROM purchases WHERE id = ?", id,
	).Scan(&materialID, &qty)
	if err != nil {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("purchase %d not found", id))
		return
	}
	if _, err := s.store.db.Exec("DELETE FROM purchases WHERE id = ?", id); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.AdjustStock(materialID, -qty); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaleList(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	q := r.URL.Query()
	where, args := "1=1", []any{}
	if v := q.Get(ledger.FilterBuyerID); v != "" {
		where += " AND buyer_id = ?"
		args = append(args, v)
	}
	if v := q.Get(ledger.FilterMaterialID); v != "" {
		where += " AND EXISTS (SELECT 1 FROM sale_lines l WHERE l.sale_id = sales.id AND l.material_id = ?)"
		args = append(args, v)
	}
	if v := q.Get(ledger.FilterStartDate); v != "" {
		where += " AND date >= ?"
		args = append(args, v)
	}
	if v := q.Get(ledger.FilterEndDate); v != "" {
		where += " AND date <= ?"
		args = append(args, v)
	}

	var total int
	if err := s.store.db.QueryRow("SELECT COUNT(*) FROM sales WHERE "+where, args...).Scan(&total); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows, err := s.store.db.Query(
		"SELECT id, code, date, buyer_id FROM sales WHERE "+where+
			" ORDER BY id LIMIT ? OFFSET ?", append(args, limit, skip)...)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	items := []ledger.Sale{}
	for rows.Next() {
		var sale ledger.Sale
		if err := rows.Scan(&sale.ID, &sale.Code, &sale.Date, &sale.BuyerID); err != nil {
			rows.Close()
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, sale)
	}
	rows.Close()

	for i := range items {
		lines, err := s.saleLines(items[i].ID)
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items[i].Lines = lines
	}
	writeJSON(w, http.StatusOK, page{Items: items, TotalCount: total})
}

func (s *Server) saleLines(saleID int64) ([]ledger.SaleLine, error) {
	rows, err := s.store.db.Query(
		"SELECT material_id, quantity, unit_price FROM sale_lines WHERE sale_id = ? ORDER BY id", saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []ledger.SaleLine{}
	for rows.Next() {
		var l ledger.SaleLine
		if err := rows.Scan(&l.MaterialID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// handleSaleCreate is the authoritative commit point. Every line is
// checked against current stock before anything is written; one short
// line rejects the whole order and leaves stock untouched.
func (s *Server) handleSaleCreate(w http.ResponseWriter, r *http.Request) {
	var d ledger.SaleDraft
	if !decodeBody(w, r, &d) {
		return
	}
	if d.BuyerID <= 0 {
		writeDetail(w, http.StatusBadRequest, "buyer_id is required")
		return
	}
	if len(d.Lines) == 0 {
		writeDetail(w, http.StatusBadRequest, "a sale needs at least one line")
		return
	}

	var exists int
	if err := s.store.db.QueryRow("SELECT COUNT(*) FROM buyers WHERE id = ?", d.BuyerID).Scan(&exists); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if exists == 0 {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("buyer %d not found", d.BuyerID))
		return
	}

	for _, l := range d.Lines {
		if l.MaterialID <= 0 || l.Quantity <= 0 || l.UnitPrice <= 0 {
			writeDetail(w, http.StatusBadRequest, "each line needs material_id, positive quantity and positive unit_price")
			return
		}
		qty, _, err := s.store.StockOf(l.MaterialID)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("material %d not found", l.MaterialID))
			return
		}
		if l.Quantity > qty {
			writeDetail(w, http.StatusBadRequest, "stock insufficient")
			return
		}
	}

	tx, err := s.store.db.Begin()
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(id), 0) + 1 FROM sales").Scan(&seq); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	code := fmt.Sprintf("S-%04d", seq)

	res, err := tx.Exec(
		"INSERT INTO sales (code, date, buyer_id) VALUES (?, ?, ?)",
		code, today(), d.BuyerID)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	saleID, _ := res.LastInsertId()

	for _, l := range d.Lines {
		if _, err := tx.Exec(
			"INSERT INTO sale_lines (sale_id, material_id, quantity, unit_price) VALUES (?, ?, ?, ?)",
			saleID, l.MaterialID, l.Quantity, l.UnitPrice); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		if _, err := tx.Exec(
			"UPDATE materials SET stock = stock - ? WHERE id = ?",
			l.Quantity, l.MaterialID); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if err := tx.Commit(); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": saleID, "code": code})
}

func (s *Server) handleSaleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	lines, err := s.saleLines(id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := s.store.db.Exec("DELETE FROM sales WHERE id = ?", id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("sale %d not found", id))
		return
	}
	for _, l := range lines {
		if err := s.store.AdjustStock(l.MaterialID, l.Quantity); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCashBalance computes the position from every cash source:
// sales and IN transactions add, purchases and OUT transactions subtract.
func (s *Server) handleCashBalance(w http.ResponseWriter, r *http.Request) {
	var salesIn, txIn, purchasesOut, txOut float64
	queries := []struct {
		sql  string
		dest *float64
	}{
		{"SELECT COALESCE(SUM(quantity * unit_price), 0) FROM sale_lines", &salesIn},
		{"SELECT COALESCE(SUM(amount), 0) FROM cash_transactions WHERE type = 'IN'", &txIn},
		{"SELECT COALESCE(SUM(quantity * unit_cost), 0) FROM purchases", &purchasesOut},
		{"SELECT COALESCE(SUM(amount), 0) FROM cash_transactions WHERE type = 'OUT'", &txOut},
	}
	for _, q := range queries {
		if err := s.store.db.QueryRow(q.sql).Scan(q.dest); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	totalIn := salesIn + txIn
	totalOut := purchasesOut + txOut
	writeJSON(w, http.StatusOK, ledger.CashBalance{
		Balance:  totalIn - totalOut,
		TotalIn:  totalIn,
		TotalOut: totalOut,
	})
}

func (s *Server) handleCashTxList(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	where, args := "1=1", []any{}
	q := r.URL.Query()
	if v := q.Get(ledger.FilterStartDate); v != "" {
		where += " AND date >= ?"
		args = append(args, v)
	}
	if v := q.Get(ledger.FilterEndDate); v != "" {
		where += " AND date <= ?"
		args = append(args, v)
	}

	var total int
	if err := s.store.db.QueryRow("SELECT COUNT(*) FROM cash_transactions WHERE "+where, args...).Scan(&total); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows, err := s.store.db.Query(
		"SELECT id, date, type, description, amount FROM cash_transactions WHERE "+where+
			" ORDER BY id LIMIT ? OFFSET ?", append(args, limit, skip)...)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []ledger.CashTransaction{}
	for rows.Next() {
		var t ledger.CashTransaction
		if err := rows.Scan(&t.ID, &t.Date, &t.Type, &t.Description, &t.Amount); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, t)
	}
	writeJSON(w, http.StatusOK, page{Items: items, TotalCount: total})
}

func (s *Server) handleCashTxCreate(w http.ResponseWriter, r *http.Request) {
	var t ledger.CashTransaction
	if !decodeBody(w, r, &t) {
		return
	}
	if t.Type != ledger.TxIn && t.Type != ledger.TxOut {
		writeDetail(w, http.StatusBadRequest, "type must be IN or OUT")
		return
	}
	if t.Amount <= 0 {
		writeDetail(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if t.Description == "" {
		writeDetail(w, http.StatusBadRequest, "description is required")
		return
	}
	if t.Date == "" {
		t.Date = today()
	}
	res, err := s.store.db.Exec(
		"INSERT INTO cash_transactions (date, type, description, amount) VALUES (?, ?, ?, ?)",
		t.Date, t.Type, t.Description, t.Amount)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}
