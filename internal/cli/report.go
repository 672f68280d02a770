package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/aggregate"
	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/ledger"
)

// ReportOptions holds flags for the monthly report.
type ReportOptions struct {
	*RootOptions
	Month string // YYYY-MM, defaults to the current month
	Limit int
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Monthly movement and revenue summary",
		Long: `Summarize one month's receipts, purchases and sales: per-material
stock movements and cash totals. Figures are computed from the loaded
pages; raise --limit if a month has more movements than one page.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Month, "month", "", "month to report (YYYY-MM, default current)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 200, "max items fetched per collection")
	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ref := time.Now()
	if opts.Month != "" {
		var err error
		ref, err = time.Parse("2006-01", opts.Month)
		if err != nil {
			return fail(f, NewExitError(ExitCommandError, "invalid --month: want YYYY-MM"))
		}
	}
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	c, err := opts.connect()
	if err != nil {
		return fail(f, err)
	}

	params := api.ListParams{
		Limit: opts.Limit,
		Filters: map[string][]string{
			ledger.FilterStartDate: {first.Format("2006-01-02")},
			ledger.FilterEndDate:   {last.Format("2006-01-02")},
		},
	}

	ctx := cmd.Context()
	receipts, err := c.ledger.Receipts(ctx, params)
	if err != nil {
		return fail(f, err)
	}
	purchases, err := c.ledger.Purchases(ctx, params)
	if err != nil {
		return fail(f, err)
	}
	sales, err := c.ledger.Sales(ctx, params)
	if err != nil {
		return fail(f, err)
	}

	movements := aggregate.StockMovements(receipts.Items, purchases.Items, sales.Items)
	saleTotals := aggregate.TotalsForSales(sales.Items)
	purchaseTotal := aggregate.PurchasesTotal(purchases.Items)

	if opts.Format == "json" {
		return f.Success(map[string]any{
			"month":           first.Format("2006-01"),
			"movements":       movements,
			"sales_quantity":  saleTotals.Quantity,
			"sales_revenue":   saleTotals.Revenue,
			"purchases_spent": purchaseTotal,
			"receipts_loaded": len(receipts.Items),
			"loaded_partial": receipts.TotalCount > len(receipts.Items) ||
				purchases.TotalCount > len(purchases.Items) ||
				sales.TotalCount > len(sales.Items),
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Report for %s\n\n", first.Format("01/2006"))

	rows := make([][]string, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, []string{
			fmt.Sprint(m.MaterialID),
			fmt.Sprintf("%.2f", m.In),
			fmt.Sprintf("%.2f", m.Out),
			fmt.Sprintf("%+.2f", m.Balance()),
		})
	}
	b.WriteString(renderTable([]string{"MATERIAL", "IN", "OUT", "NET"}, rows, ""))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "sales: %.2f kg for %s\n", saleTotals.Quantity, aggregate.FormatBRL(saleTotals.Revenue))
	fmt.Fprintf(&b, "purchases: %s\n", aggregate.FormatBRL(purchaseTotal))

	if receipts.TotalCount > len(receipts.Items) ||
		purchases.TotalCount > len(purchases.Items) ||
		sales.TotalCount > len(sales.Items) {
		b.WriteString("note: figures cover the loaded page only; raise --limit for the full month\n")
	}
	return f.Success(strings.TrimRight(b.String(), "\n"))
}
