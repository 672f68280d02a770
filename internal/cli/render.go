package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rcoop/console/internal/aggregate"
	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/ledger"
)

// Text renderers. Every list view ends with the page footer so the
// operator can tell a page apart from the whole collection.

func pageFooter(shown, total int) string {
	return fmt.Sprintf("showing %d of %d", shown, total)
}

func activeMark(active bool) string {
	if active {
		return "yes"
	}
	return "no"
}

func renderTable(header []string, rows [][]string, footer string) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	w.Flush()
	if footer != "" {
		b.WriteString(footer)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderMaterials(p api.Page[ledger.Material]) string {
	rows := make([][]string, 0, len(p.Items))
	for _, m := range p.Items {
		rows = append(rows, []string{
			fmt.Sprint(m.ID), m.Name, fmt.Sprintf("%.2f %s", m.CurrentStock, m.Unit), activeMark(m.Active),
		})
	}
	return renderTable(
		[]string{"ID", "NAME", "STOCK", "ACTIVE"}, rows,
		pageFooter(len(p.Items), p.TotalCount))
}

func renderParties[T any](p api.Page[T], row func(T) []string) string {
	rows := make([][]string, 0, len(p.Items))
	for _, item := range p.Items {
		rows = append(rows, row(item))
	}
	return renderTable(
		[]string{"ID", "NAME", "ACTIVE"}, rows,
		pageFooter(len(p.Items), p.TotalCount))
}

func renderReceipts(p api.Page[ledger.Receipt]) string {
	rows := make([][]string, 0, len(p.Items))
	for _, r := range p.Items {
		rows = append(rows, []string{
			fmt.Sprint(r.ID), aggregate.FormatDateBR(r.Date),
			fmt.Sprint(r.PartnerID), fmt.Sprint(r.MaterialID), fmt.Sprintf("%.2f", r.Quantity),
		})
	}
	return renderTable(
		[]string{"ID", "DATE", "PARTNER", "MATERIAL", "QTY"}, rows,
		pageFooter(len(p.Items), p.TotalCount))
}

func renderPurchases(p api.Page[ledger.Purchase]) string {
	rows := make([][]string, 0, len(p.Items))
	for _, pu := range p.Items {
		rows = append(rows, []string{
			fmt.Sprint(pu.ID), aggregate.FormatDateBR(pu.Date),
			fmt.Sprint(pu.PartnerID), fmt.Sprint(pu.MaterialID),
			fmt.Sprintf("%.2f", pu.Quantity), aggregate.FormatBRL(pu.Quantity * pu.UnitCost),
		})
	}
	footer := fmt.Sprintf("%s\npage total: %s",
		pageFooter(len(p.Items), p.TotalCount),
		aggregate.FormatBRL(aggregate.PurchasesTotal(p.Items)))
	return renderTable(
		[]string{"ID", "DATE", "PARTNER", "MATERIAL", "QTY", "COST"}, rows, footer)
}

func renderSales(p api.Page[ledger.Sale]) string {
	rows := make([][]string, 0, len(p.Items))
	for _, s := range p.Items {
		t := aggregate.TotalsForLines(s.Lines)
		rows = append(rows, []string{
			fmt.Sprint(s.ID), s.Code, aggregate.FormatDateBR(s.Date),
			fmt.Sprint(s.BuyerID), fmt.Sprint(len(s.Lines)), aggregate.FormatBRL(t.Revenue),
		})
	}
	t := aggregate.TotalsForSales(p.Items)
	footer := fmt.Sprintf("%s\npage total: %s (%0.2f kg)",
		pageFooter(len(p.Items), p.TotalCount),
		aggregate.FormatBRL(t.Revenue), t.Quantity)
	return renderTable(
		[]string{"ID", "CODE", "DATE", "BUYER", "LINES", "TOTAL"}, rows, footer)
}

func renderCashTransactions(p api.Page[ledger.CashTransaction]) string {
	rows := make([][]string, 0, len(p.Items))
	for _, t := range p.Items {
		rows = append(rows, []string{
			fmt.Sprint(t.ID), aggregate.FormatDateBR(t.Date), t.Type, t.Description,
			aggregate.FormatBRL(t.Amount),
		})
	}
	return renderTable(
		[]string{"ID", "DATE", "TYPE", "DESCRIPTION", "AMOUNT"}, rows,
		pageFooter(len(p.Items), p.TotalCount))
}

func renderCashBalance(b ledger.CashBalance) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "in\t%s\n", aggregate.FormatBRL(b.TotalIn))
	fmt.Fprintf(w, "out\t%s\n", aggregate.FormatBRL(b.TotalOut))
	fmt.Fprintf(w, "balance\t%s\n", aggregate.FormatBRL(b.Balance))
	w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}
