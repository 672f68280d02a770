package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/aggregate"
	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/cache"
	"github.com/rcoop/console/internal/composer"
	"github.com/rcoop/console/internal/ledger"
	"github.com/rcoop/console/internal/probe"
)

// SalesNewOptions holds flags for composing a sale.
type SalesNewOptions struct {
	*RootOptions
	BuyerID int64
	Lines   []string
}

// NewSalesCommand creates the sales command group.
func NewSalesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Compose, review and cancel sales orders",
	}
	cmd.AddCommand(newSalesListCommand(rootOpts))
	cmd.AddCommand(newSalesNewCommand(rootOpts))
	cmd.AddCommand(newSalesCancelCommand(rootOpts))
	return cmd
}

func newSalesListCommand(rootOpts *RootOptions) *cobra.Command {
	var skip, limit int
	var buyerID, materialID int64
	var from, to string

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List sales",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			p := api.ListParams{Skip: skip, Limit: limit, Filters: map[string][]string{}}
			if buyerID > 0 {
				p.Filters.Set(ledger.FilterBuyerID, fmt.Sprint(buyerID))
			}
			if materialID > 0 {
				p.Filters.Set(ledger.FilterMaterialID, fmt.Sprint(materialID))
			}
			if from != "" {
				p.Filters.Set(ledger.FilterStartDate, from)
			}
			if to != "" {
				p.Filters.Set(ledger.FilterEndDate, to)
			}
			page, err := c.ledger.Sales(cmd.Context(), p)
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(page)
			}
			return f.Success(renderSales(page))
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 0, "items to skip")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	cmd.Flags().Int64Var(&buyerID, "buyer", 0, "filter by buyer id")
	cmd.Flags().Int64Var(&materialID, "material", 0, "filter by material id")
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	return cmd
}

func newSalesNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SalesNewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Compose and submit a multi-line sale",
		Long: `Compose a sale as one atomic order: every line is validated against a
fresh stock probe as it is added, and the ledger performs the final
authoritative check on submission. A rejected order leaves nothing
partially applied.

Example:
  rcoop sales new --buyer 3 --line 1:50:2.50 --line 2:100:4.00`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSalesNew(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.BuyerID, "buyer", 0, "buyer id")
	cmd.Flags().StringArrayVar(&opts.Lines, "line", nil, "order line as material:qty:unit-price (repeatable)")
	return cmd
}

func runSalesNew(opts *SalesNewOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if len(opts.Lines) == 0 {
		return fail(f, NewExitError(ExitCommandError, "at least one --line is required"))
	}

	c, err := opts.connect()
	if err != nil {
		return fail(f, err)
	}

	prober := probe.New(c.ledger, probe.NewClock())
	comp := composer.New(prober, c.ledger, c.sync)
	if err := comp.Open(); err != nil {
		return fail(f, err)
	}
	if err := comp.SetBuyer(opts.BuyerID); err != nil {
		return fail(f, err)
	}

	ctx := cmd.Context()
	for _, spec := range opts.Lines {
		materialID, qty, price, err := parseLine(spec)
		if err != nil {
			return fail(f, err)
		}
		// Probe first so the advisory bound applies to this line.
		if _, err := prober.Select(ctx, materialID); err != nil {
			return fail(f, err)
		}
		if err := comp.AddLine(materialID, qty, price); err != nil {
			return fail(f, err)
		}
		f.VerboseLog("line staged: material %d, %.2f @ %s", materialID, qty, aggregate.FormatBRL(price))
	}

	lines := comp.Lines()
	totals := aggregate.TotalsForLines(lines)
	if !confirm(cmd, opts.RootOptions, fmt.Sprintf(
		"Submit sale: %d line(s), total %s?", len(lines), aggregate.FormatBRL(totals.Revenue))) {
		comp.Discard()
		return f.Success("Cancelled")
	}

	if err := comp.Commit(ctx); err != nil {
		return fail(f, err)
	}
	return f.Success(fmt.Sprintf("Sale submitted: %d line(s), total %s",
		len(lines), aggregate.FormatBRL(totals.Revenue)))
}

// parseLine decodes a material:qty:unit-price flag value.
func parseLine(spec string) (materialID int64, qty, price float64, err error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return 0, 0, 0, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid --line %q: want material:qty:unit-price", spec))
	}
	materialID, err = strconv.ParseInt(parts[0], 10, 64)
	if err == nil {
		qty, err = strconv.ParseFloat(parts[1], 64)
	}
	if err == nil {
		price, err = strconv.ParseFloat(parts[2], 64)
	}
	if err != nil {
		return 0, 0, 0, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid --line %q: want material:qty:unit-price", spec))
	}
	return materialID, qty, price, nil
}

func newSalesCancelCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "cancel <id>",
		Short:         "Cancel a sale, restoring its stock",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return fail(f, err)
			}
			if !confirm(cmd, rootOpts, fmt.Sprintf("Cancel sale %d?", id)) {
				return f.Success("Cancelled")
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.CancelSale(cmd.Context(), id); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateSale)
			return f.Success(fmt.Sprintf("Sale %d cancelled", id))
		},
	}
}
