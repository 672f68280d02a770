package ledgertest

import (
	"fmt"
	"net/http"
)

// Trade-side handlers: the registries and movement records that feed the
// stock and cash positions.

func (s *Server) handlePartnerList(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r)
	where, args := "1=1", []any{}
	if name := r.URL.Query().Get("name"); name != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}

	var total int
	if err := s.store.db.QueryRow("SELECT COUNT(*) FROM partners WHERE "+where, args...).Scan(&total); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows, err := s.store.db.Query(
		"SELECT id, name, COALESCE(type_id, 0), active FROM partners WHERE "+where+
			" ORDER BY id LIMIT ? OFFSET ?", append(args, limit, skip)...)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []partner{}
	for rows.Next() {
		var p partner
		if err := rows.Scan(&p.ID, &p.Name, &p.TypeID, &p.Active); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, p)
	}
	writeJSON(w, http.StatusOK, page{Items: items, TotalCount: total})
}

func (s *Server) handlePartnerCreate(w http.ResponseWriter, r *http.Request) {
	var p partner
	if !decodeBody(w, r, &p) {
		return
	}
	if p.Name == "" {
		writeDetail(w, http.StatusBadRequest, "name is required")
		return
	}
	res, err := s.store.db.Exec(
		"INSERT INTO partners (name, type_id, active) VALUES (?, NULLIF(?, 0), ?)",
		p.Name, p.TypeID, p.Active)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handlePartnerUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p partner
	if !decodeBody(w, r, &p) {
		return
	}
	res, err := s.store.db.Exec(
		"UPDATE partners SET name = ?, type_id = NULLIF(?, 0), active = ? WHERE id = ?",
		p.Name, p.TypeID, p.Active, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("partner %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePartnerDelete removes a partner outright, but only when no
// receipt or purchase references it. Partners with history keep their
// rows so the movement records stay consistent.
func (s *Server) handlePartnerDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var refs int
	err := s.store.db.QueryRow(
		"SELECT (SELECT COUNT(*) FROM receipts WHERE partner_id = ?) + (SELECT COUNT(*) FROM purchases WHERE partner_id = ?)",
		id, id).Scan(&refs)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if refs > 0 {
		writeDetail(w, http.StatusBadRequest, "partner has recorded movements")
		return
	}
	res, err := s.store.db.Exec("DELETE FROM partners WHERE id = ?", id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("partner %d not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAssociationList(w http.ResponseWriter, r *http.Request) {
	s.listParty(w, r, "associations")
}

func (s *Server) handleAssociationCreate(w http.ResponseWriter, r *http.Request) {
	s.createParty(w, r, "associations")
}

func (s *Server) handleAssociationUpdate(w http.ResponseWriter, r *http.Request) {
	s.updateParty(w, r, "associations", "association")
}

func (s *Server) handleAssociationInactivate(w http.ResponseWriter, r *http.Request) {
	s.inactivateParty(w, r, "associations", "association")
}

func (s *Server) handleBuyerList(w http.ResponseWriter, r *http.Request) {
	s.listParty(w, r, "buyers")
}

func (s *Server) handleBuyerCreate(w http.ResponseWriter, r *http.Request) {
	s.createParty(w, r, "buyers")
}

func (s *Server) handleBuyerUpdate(w http.ResponseWriter, r *http.Request) {
	s.updateParty(w, r, "buyers", "buyer")
}

func (s *Server) handleBuyerInactivate(w http.ResponseWriter, r *http.Request) {
	s.inactivateParty(w, r, "buyers", "buyer")
}

// Associations and buyers share one row shape; the four helpers below
// serve both tables.

func (s *Server) listParty(w http.ResponseWriter, r *http.Request, table string) {
	skip, limit := pageParams(r)
	where, args := "1=1", []any{}
	if name := r.URL.Query().Get("name"); name != "" {
		where += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}

	var total int
	if err := s.store.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&total); err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	rows, err := s.store.db.Query(
		"SELECT id, name, COALESCE(tax_id, ''), COALESCE(phone, ''), COALESCE(email, ''), active FROM "+table+
			" WHERE "+where+" ORDER BY id LIMIT ? OFFSET ?", append(args, limit, skip)...)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	items := []party{}
	for rows.Next() {
		var p party
		if err := rows.Scan(&p.ID, &p.Name, &p.TaxID, &p.Phone, &p.Email, &p.Active); err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, p)
	}
	writeJSON(w, http.StatusOK, page{Items: items, TotalCount: total})
}

func (s *Server) createParty(w http.ResponseWriter, r *http.Request, table string) {
	var p party
	if !decodeBody(w, r, &p) {
		return
	}
	if p.Name == "" {
		writeDetail(w, http.StatusBadRequest, "name is required")
		return
	}
	res, err := s.store.db.Exec(
		"INSERT INTO "+table+" (name, tax_id, phone, email, active) VALUES (?, ?, ?, ?, ?)",
		p.Name, p.TaxID, p.Phone, p.Email, p.Active)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	id, _ := res.LastInsertId()
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) updateParty(w http.ResponseWriter, r *http.Request, table, kind string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p party
	if !decodeBody(w, r, &p) {
		return
	}
	res, err := s.store.db.Exec(
		"UPDATE "+table+" SET name = ?, tax_id = ?, phone = ?, email = ?, active = ? WHERE id = ?",
		p.Name, p.TaxID, p.Phone, p.Email, p.Active, id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("%s %d not found", kind, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) inactivateParty(w http.ResponseWriter, r *http.Request, table, kind string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.store.db.Exec("UPDATE "+table+" SET active = 0 WHERE id = ?", id)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("%s %d not found", kind, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// partner and party mirror the ledger's JSON shapes; ledgertest keeps
// its own structs so boolean active maps cleanly onto sqlite integers.

type partner struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	TypeID int64  `json:"type_id"`
	Active bool   `json:"active"`
}

type party struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	TaxID  string `json:"tax_id,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
	Active bool   `json:"active"`
}
