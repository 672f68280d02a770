package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/cache"
	"github.com/rcoop/console/internal/ledger"
)

// MovementListFlags extend the shared list flags with movement filters.
type MovementListFlags struct {
	Skip       int
	Limit      int
	PartnerID  int64
	MaterialID int64
	StartDate  string
	EndDate    string
}

func (l *MovementListFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&l.Skip, "skip", 0, "items to skip")
	cmd.Flags().IntVar(&l.Limit, "limit", 20, "page size")
	cmd.Flags().Int64Var(&l.PartnerID, "partner", 0, "filter by partner id")
	cmd.Flags().Int64Var(&l.MaterialID, "material", 0, "filter by material id")
	cmd.Flags().StringVar(&l.StartDate, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&l.EndDate, "to", "", "end date (YYYY-MM-DD)")
}

func (l *MovementListFlags) params() api.ListParams {
	p := api.ListParams{Skip: l.Skip, Limit: l.Limit, Filters: map[string][]string{}}
	if l.PartnerID > 0 {
		p.Filters.Set(ledger.FilterPartnerID, fmt.Sprint(l.PartnerID))
	}
	if l.MaterialID > 0 {
		p.Filters.Set(ledger.FilterMaterialID, fmt.Sprint(l.MaterialID))
	}
	if l.StartDate != "" {
		p.Filters.Set(ledger.FilterStartDate, l.StartDate)
	}
	if l.EndDate != "" {
		p.Filters.Set(ledger.FilterEndDate, l.EndDate)
	}
	return p
}

// NewReceiptsCommand creates the receipts (donation intake) command group.
func NewReceiptsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "Record and review donation intakes",
	}

	list := &MovementListFlags{}
	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List receipts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			page, err := c.ledger.Receipts(cmd.Context(), list.params())
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(page)
			}
			return f.Success(renderReceipts(page))
		},
	}
	list.register(listCmd)

	var partnerID, materialID int64
	var quantity float64
	var date string
	create := &cobra.Command{
		Use:           "add",
		Short:         "Record a donation entering stock",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if partnerID <= 0 || materialID <= 0 || quantity <= 0 {
				return fail(f, NewExitError(ExitCommandError, "--partner, --material and a positive --qty are required"))
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			r := ledger.Receipt{
				Date: date, PartnerID: partnerID, MaterialID: materialID, Quantity: quantity,
			}
			if err := c.ledger.CreateReceipt(cmd.Context(), r); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateReceipt)
			return f.Success(fmt.Sprintf("Receipt recorded: %.2f of material %d", quantity, materialID))
		},
	}
	create.Flags().Int64Var(&partnerID, "partner", 0, "partner id")
	create.Flags().Int64Var(&materialID, "material", 0, "material id")
	create.Flags().Float64Var(&quantity, "qty", 0, "quantity")
	create.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")

	cancel := &cobra.Command{
		Use:           "cancel <id>",
		Short:         "Cancel a receipt, reversing its stock effect",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return fail(f, err)
			}
			if !confirm(cmd, rootOpts, fmt.Sprintf("Cancel receipt %d?", id)) {
				return f.Success("Cancelled")
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.CancelReceipt(cmd.Context(), id); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateReceipt)
			return f.Success(fmt.Sprintf("Receipt %d cancelled", id))
		},
	}

	cmd.AddCommand(listCmd, create, cancel)
	return cmd
}

// NewPurchasesCommand creates the purchases command group.
func NewPurchasesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purchases",
		Short: "Record and review material purchases",
	}

	list := &MovementListFlags{}
	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List purchases",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			page, err := c.ledger.Purchases(cmd.Context(), list.params())
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(page)
			}
			return f.Success(renderPurchases(page))
		},
	}
	list.register(listCmd)

	var partnerID, materialID int64
	var quantity, unitCost float64
	var date string
	create := &cobra.Command{
		Use:           "add",
		Short:         "Record a purchase entering stock",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if partnerID <= 0 || materialID <= 0 || quantity <= 0 {
				return fail(f, NewExitError(ExitCommandError, "--partner, --material and a positive --qty are required"))
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			p := ledger.Purchase{
				Date: date, PartnerID: partnerID, MaterialID: materialID,
				Quantity: quantity, UnitCost: unitCost,
			}
			if err := c.ledger.CreatePurchase(cmd.Context(), p); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutatePurchase)
			return f.Success(fmt.Sprintf("Purchase recorded: %.2f of material %d", quantity, materialID))
		},
	}
	create.Flags().Int64Var(&partnerID, "partner", 0, "partner id")
	create.Flags().Int64Var(&materialID, "material", 0, "material id")
	create.Flags().Float64Var(&quantity, "qty", 0, "quantity")
	create.Flags().Float64Var(&unitCost, "cost", 0, "unit cost")
	create.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")

	cancel := &cobra.Command{
		Use:           "cancel <id>",
		Short:         "Cancel a purchase, reversing its stock effect",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return fail(f, err)
			}
			if !confirm(cmd, rootOpts, fmt.Sprintf("Cancel purchase %d?", id)) {
				return f.Success("Cancelled")
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.CancelPurchase(cmd.Context(), id); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutatePurchase)
			return f.Success(fmt.Sprintf("Purchase %d cancelled", id))
		},
	}

	cmd.AddCommand(listCmd, create, cancel)
	return cmd
}
