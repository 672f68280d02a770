package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/ledger"
	"github.com/rcoop/console/internal/probe"
)

// ListFlags are the pagination and filter flags shared by list commands.
type ListFlags struct {
	Skip  int
	Limit int
	Name  string
}

func (l *ListFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&l.Skip, "skip", 0, "items to skip")
	cmd.Flags().IntVar(&l.Limit, "limit", 20, "page size")
	cmd.Flags().StringVar(&l.Name, "name", "", "filter by name")
}

func (l *ListFlags) params() api.ListParams {
	p := api.ListParams{Skip: l.Skip, Limit: l.Limit}
	if l.Name != "" {
		p.Filters = map[string][]string{ledger.FilterName: {l.Name}}
	}
	return p
}

// NewStockCommand creates the stock command group.
func NewStockCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Inspect material stock levels",
	}
	cmd.AddCommand(newStockListCommand(rootOpts))
	cmd.AddCommand(newStockProbeCommand(rootOpts))
	return cmd
}

func newStockListCommand(rootOpts *RootOptions) *cobra.Command {
	list := &ListFlags{}
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List materials with their current stock",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			page, err := c.ledger.Stock(cmd.Context(), list.params())
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(page)
			}
			return f.Success(renderMaterials(page))
		},
	}
	list.register(cmd)
	return cmd
}

func newStockProbeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "probe <material-id>",
		Short:         "Fetch the live stock level of one material",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fail(f, NewExitError(ExitCommandError, "material id must be a positive integer"))
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}

			p := probe.New(c.ledger, probe.NewClock())
			snap, err := p.Select(cmd.Context(), id)
			if err != nil {
				return fail(f, err)
			}
			if snap == nil {
				return fail(f, NewExitError(ExitCommandError, "probe superseded"))
			}
			if rootOpts.Format == "json" {
				return f.Success(map[string]any{
					"material_id":   id,
					"available_qty": snap.AvailableQty,
					"unit":          snap.Unit,
				})
			}
			return f.Success(fmt.Sprintf("material %d: %.2f %s available", id, snap.AvailableQty, snap.Unit))
		},
	}
	return cmd
}
