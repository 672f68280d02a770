package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/cache"
	"github.com/rcoop/console/internal/ledger"
)

// NewCashCommand creates the cash book command group.
func NewCashCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cash",
		Short: "Review the cash position and record transactions",
	}

	balance := &cobra.Command{
		Use:           "balance",
		Short:         "Show the server-computed cash position",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			b, err := c.ledger.CashBalanceNow(cmd.Context())
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(b)
			}
			return f.Success(renderCashBalance(b))
		},
	}

	var skip, limit int
	var from, to string
	txList := &cobra.Command{
		Use:           "transactions",
		Short:         "List cash transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			p := api.ListParams{Skip: skip, Limit: limit, Filters: map[string][]string{}}
			if from != "" {
				p.Filters.Set(ledger.FilterStartDate, from)
			}
			if to != "" {
				p.Filters.Set(ledger.FilterEndDate, to)
			}
			page, err := c.ledger.CashTransactions(cmd.Context(), p)
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(page)
			}
			return f.Success(renderCashTransactions(page))
		},
	}
	txList.Flags().IntVar(&skip, "skip", 0, "items to skip")
	txList.Flags().IntVar(&limit, "limit", 20, "page size")
	txList.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	txList.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")

	var txType, description, date string
	var amount float64
	txAdd := &cobra.Command{
		Use:           "add",
		Short:         "Record a cash transaction",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			kind := strings.ToUpper(txType)
			if kind != ledger.TxIn && kind != ledger.TxOut {
				return fail(f, NewExitError(ExitCommandError, "--type must be IN or OUT"))
			}
			if amount <= 0 {
				return fail(f, NewExitError(ExitCommandError, "--amount must be positive"))
			}
			if description == "" {
				return fail(f, NewExitError(ExitCommandError, "--description is required"))
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			tx := ledger.CashTransaction{
				Date: date, Type: kind, Description: description, Amount: amount,
			}
			if err := c.ledger.CreateCashTransaction(cmd.Context(), tx); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateCashTx)
			return f.Success(fmt.Sprintf("Cash %s recorded: %s", strings.ToLower(kind), description))
		},
	}
	txAdd.Flags().StringVar(&txType, "type", "", "IN or OUT")
	txAdd.Flags().StringVar(&description, "description", "", "what the money moved for")
	txAdd.Flags().Float64Var(&amount, "amount", 0, "amount in BRL")
	txAdd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD, default today)")

	cmd.AddCommand(balance, txList, txAdd)
	return cmd
}
