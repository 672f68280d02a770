package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/cache"
	"github.com/rcoop/console/internal/ledger"
)

// MaterialOptions holds flags for material create/update.
type MaterialOptions struct {
	Name       string
	CategoryID int64
	Unit       string
	Inactive   bool
}

func (o *MaterialOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Name, "name", "", "material name")
	cmd.Flags().Int64Var(&o.CategoryID, "category", 0, "category id")
	cmd.Flags().StringVar(&o.Unit, "unit", "kg", "measurement unit")
	cmd.Flags().BoolVar(&o.Inactive, "inactive", false, "register as inactive")
}

func (o *MaterialOptions) draft() ledger.MaterialDraft {
	return ledger.MaterialDraft{
		Name:       o.Name,
		CategoryID: o.CategoryID,
		Unit:       o.Unit,
		Active:     !o.Inactive,
	}
}

// NewMaterialsCommand creates the materials command group.
func NewMaterialsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "materials",
		Short: "Manage the material registry",
	}

	createOpts := &MaterialOptions{}
	create := &cobra.Command{
		Use:           "create",
		Short:         "Register a new material",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if createOpts.Name == "" {
				return fail(f, NewExitError(ExitCommandError, "--name is required"))
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.CreateMaterial(cmd.Context(), createOpts.draft()); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateMaterial)
			return f.Success(fmt.Sprintf("Material %q registered", createOpts.Name))
		},
	}
	createOpts.register(create)

	updateOpts := &MaterialOptions{}
	update := &cobra.Command{
		Use:           "update <id>",
		Short:         "Update a material",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return fail(f, err)
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.UpdateMaterial(cmd.Context(), id, updateOpts.draft()); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateMaterial)
			return f.Success(fmt.Sprintf("Material %d updated", id))
		},
	}
	updateOpts.register(update)

	inactivate := &cobra.Command{
		Use:           "inactivate <id>",
		Short:         "Mark a material inactive (history is kept)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return fail(f, err)
			}
			if !confirm(cmd, rootOpts, fmt.Sprintf("Inactivate material %d?", id)) {
				return f.Success("Cancelled")
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.InactivateMaterial(cmd.Context(), id); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateMaterial)
			return f.Success(fmt.Sprintf("Material %d inactivated", id))
		},
	}

	categories := &cobra.Command{
		Use:           "categories",
		Short:         "List material categories",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			cats, err := c.ledger.Categories(cmd.Context())
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(cats)
			}
			rows := make([][]string, 0, len(cats))
			for _, cat := range cats {
				rows = append(rows, []string{fmt.Sprint(cat.ID), cat.Name})
			}
			return f.Success(renderTable([]string{"ID", "NAME"}, rows, ""))
		},
	}

	cmd.AddCommand(create, update, inactivate, categories)
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, "id must be a positive integer")
	}
	return id, nil
}
