// Package cli implements the rcoop operator console commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/session"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	BaseURL    string
	ConfigPath string
	Yes        bool // skip confirmation prompts
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the rcoop console.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "rcoop",
		Short: "Operator console for the recycling cooperative network",
		Long: `rcoop is the operator console for the cooperative network's ledger:
stock, donations, purchases, multi-line sales and the cash book.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.BaseURL, "server", "", "ledger service URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.Yes, "yes", "y", false, "assume yes on confirmation prompts")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewStockCommand(opts))
	cmd.AddCommand(NewMaterialsCommand(opts))
	cmd.AddCommand(NewBuyersCommand(opts))
	cmd.AddCommand(NewPartnersCommand(opts))
	cmd.AddCommand(NewAssociationsCommand(opts))
	cmd.AddCommand(NewReceiptsCommand(opts))
	cmd.AddCommand(NewPurchasesCommand(opts))
	cmd.AddCommand(NewSalesCommand(opts))
	cmd.AddCommand(NewCashCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

// loadConfig resolves the effective configuration for a command run.
func (o *RootOptions) loadConfig() (session.Config, error) {
	path := o.ConfigPath
	if path == "" {
		var err error
		path, err = session.DefaultConfigPath()
		if err != nil {
			return session.Config{}, err
		}
	}
	cfg, err := session.LoadConfig(path)
	if err != nil {
		return session.Config{}, err
	}
	if o.BaseURL != "" {
		cfg.BaseURL = o.BaseURL
	}
	return cfg, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
