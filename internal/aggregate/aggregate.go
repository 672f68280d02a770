// Package aggregate folds the currently loaded page of a collection into
// display totals.
//
// Every function here is pure and strictly page-scoped: it sees exactly
// the items the caller holds and never reaches across pages. These totals
// are NOT a substitute for server-computed global figures; when a
// collection is paginated, presentation must label them as page-scoped.
package aggregate

import (
	"sort"
	"time"

	"github.com/rcoop/console/internal/ledger"
)

// Sum folds a selector over items.
func Sum[T any](items []T, sel func(T) float64) float64 {
	var total float64
	for _, it := range items {
		total += sel(it)
	}
	return total
}

// SaleTotals is quantity and revenue summed over sale lines.
type SaleTotals struct {
	Quantity float64
	Revenue  float64
}

// TotalsForLines sums one sale's lines.
func TotalsForLines(lines []ledger.SaleLine) SaleTotals {
	var t SaleTotals
	for _, l := range lines {
		t.Quantity += l.Quantity
		t.Revenue += l.Quantity * l.UnitPrice
	}
	return t
}

// TotalsForSales sums all lines of all sales in the page.
func TotalsForSales(sales []ledger.Sale) SaleTotals {
	var t SaleTotals
	for _, s := range sales {
		lt := TotalsForLines(s.Lines)
		t.Quantity += lt.Quantity
		t.Revenue += lt.Revenue
	}
	return t
}

// PurchasesTotal is the cash spent on the purchases in the page.
func PurchasesTotal(ps []ledger.Purchase) float64 {
	return Sum(ps, func(p ledger.Purchase) float64 { return p.Quantity * p.UnitCost })
}

// Movement is one material's in/out totals over the loaded items.
type Movement struct {
	MaterialID int64
	In         float64 // receipts + purchases
	Out        float64 // sale lines
}

// Balance is the net movement (in minus out).
func (m Movement) Balance() float64 {
	return m.In - m.Out
}

// StockMovements groups receipts, purchases and sale lines by material,
// returning per-material in/out totals sorted by material id. Inputs are
// whatever pages the caller holds; the result is page-scoped like
// everything else here.
func StockMovements(receipts []ledger.Receipt, purchases []ledger.Purchase, sales []ledger.Sale) []Movement {
	byMaterial := map[int64]*Movement{}
	get := func(id int64) *Movement {
		m, ok := byMaterial[id]
		if !ok {
			m = &Movement{MaterialID: id}
			byMaterial[id] = m
		}
		return m
	}

	for _, r := range receipts {
		get(r.MaterialID).In += r.Quantity
	}
	for _, p := range purchases {
		get(p.MaterialID).In += p.Quantity
	}
	for _, s := range sales {
		for _, l := range s.Lines {
			get(l.MaterialID).Out += l.Quantity
		}
	}

	out := make([]Movement, 0, len(byMaterial))
	for _, m := range byMaterial {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialID < out[j].MaterialID })
	return out
}

// InMonth reports whether the ISO date (2006-01-02) falls in ref's month.
// Malformed dates are excluded rather than failing the whole report.
func InMonth(isoDate string, ref time.Time) bool {
	d, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return false
	}
	return d.Year() == ref.Year() && d.Month() == ref.Month()
}
