package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/cache"
	"github.com/rcoop/console/internal/ledger"
)

// Registry commands: buyers, partners and associations share the same
// list/create/update/retire cycle, so they are built from one template.

// PartyOptions holds flags for buyer/association create and update.
type PartyOptions struct {
	Name     string
	TaxID    string
	Phone    string
	Email    string
	Inactive bool
}

func (o *PartyOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Name, "name", "", "name")
	cmd.Flags().StringVar(&o.TaxID, "tax-id", "", "tax id")
	cmd.Flags().StringVar(&o.Phone, "phone", "", "phone")
	cmd.Flags().StringVar(&o.Email, "email", "", "email")
	cmd.Flags().BoolVar(&o.Inactive, "inactive", false, "register as inactive")
}

// NewBuyersCommand creates the buyers command group.
func NewBuyersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buyers",
		Short: "Manage the buyer registry",
	}

	list := &ListFlags{}
	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List buyers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			page, err := c.ledger.Buyers(cmd.Context(), list.params())
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(page)
			}
			return f.Success(renderParties(page, func(b ledger.Buyer) []string {
				return []string{fmt.Sprint(b.ID), b.Name, activeMark(b.Active)}
			}))
		},
	}
	list.register(listCmd)

	createOpts := &PartyOptions{}
	create := &cobra.Command{
		Use:           "create",
		Short:         "Register a buyer",
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
			b := ledger.Buyer{
				Name: createOpts.Name, TaxID: createOpts.TaxID,
				Phone: createOpts.Phone, Email: createOpts.Email,
				Active: !createOpts.Inactive,
			}
			if err := c.ledger.CreateBuyer(cmd.Context(), b); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateBuyer)
			return f.Success(fmt.Sprintf("Buyer %q registered", b.Name))
		},
	}
	createOpts.register(create)

	updateOpts := &PartyOptions{}
	update := &cobra.Command{
		Use:           "update <id>",
		Short:         "Update a buyer",
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
			b := ledger.Buyer{
				Name: updateOpts.Name, TaxID: updateOpts.TaxID,
				Phone: updateOpts.Phone, Email: updateOpts.Email,
				Active: !updateOpts.Inactive,
			}
			if err := c.ledger.UpdateBuyer(cmd.Context(), id, b); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateBuyer)
			return f.Success(fmt.Sprintf("Buyer %d updated", id))
		},
	}
	updateOpts.register(update)

	inactivate := &cobra.Command{
		Use:           "inactivate <id>",
		Short:         "Mark a buyer inactive",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return fail(f, err)
			}
			if !confirm(cmd, rootOpts, fmt.Sprintf("Inactivate buyer %d?", id)) {
				return f.Success("Cancelled")
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.InactivateBuyer(cmd.Context(), id); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateBuyer)
			return f.Success(fmt.Sprintf("Buyer %d inactivated", id))
		},
	}

	cmd.AddCommand(listCmd, create, update, inactivate)
	return cmd
}

// NewPartnersCommand creates the partners command group, including the
// partner-type subcommands.
func NewPartnersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "partners",
		Short: "Manage the donating-partner registry",
	}

	list := &ListFlags{}
	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List partners",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			page, err := c.ledger.Partners(cmd.Context(), list.params())
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(page)
			}
			return f.Success(renderParties(page, func(p ledger.Partner) []string {
				return []string{fmt.Sprint(p.ID), p.Name, activeMark(p.Active)}
			}))
		},
	}
	list.register(listCmd)

	var createName string
	var createType int64
	create := &cobra.Command{
		Use:           "create",
		Short:         "Register a partner",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if createName == "" {
				return fail(f, NewExitError(ExitCommandError, "--name is required"))
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			p := ledger.Partner{Name: createName, TypeID: createType, Active: true}
			if err := c.ledger.CreatePartner(cmd.Context(), p); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutatePartner)
			return f.Success(fmt.Sprintf("Partner %q registered", p.Name))
		},
	}
	create.Flags().StringVar(&createName, "name", "", "partner name")
	create.Flags().Int64Var(&createType, "type", 0, "partner type id")

	del := &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete a partner (refused when it has movements)",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return fail(f, err)
			}
			if !confirm(cmd, rootOpts, fmt.Sprintf("Delete partner %d?", id)) {
				return f.Success("Cancelled")
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.DeletePartner(cmd.Context(), id); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutatePartner)
			return f.Success(fmt.Sprintf("Partner %d deleted", id))
		},
	}

	types := &cobra.Command{
		Use:   "types",
		Short: "Manage partner types",
	}
	typesList := &cobra.Command{
		Use:           "list",
		Short:         "List partner types",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			ts, err := c.ledger.PartnerTypes(cmd.Context())
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(ts)
			}
			rows := make([][]string, 0, len(ts))
			for _, t := range ts {
				rows = append(rows, []string{fmt.Sprint(t.ID), t.Name})
			}
			return f.Success(renderTable([]string{"ID", "NAME"}, rows, ""))
		},
	}
	var typeName string
	typesCreate := &cobra.Command{
		Use:           "create",
		Short:         "Register a partner type",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			if typeName == "" {
				return fail(f, NewExitError(ExitCommandError, "--name is required"))
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.CreatePartnerType(cmd.Context(), ledger.PartnerType{Name: typeName}); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutatePartnerType)
			return f.Success(fmt.Sprintf("Partner type %q registered", typeName))
		},
	}
	typesCreate.Flags().StringVar(&typeName, "name", "", "type name")
	types.AddCommand(typesList, typesCreate)

	cmd.AddCommand(listCmd, create, del, types)
	return cmd
}

// NewAssociationsCommand creates the associations command group.
func NewAssociationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "associations",
		Short: "Manage the member-association registry",
	}

	list := &ListFlags{}
	listCmd := &cobra.Command{
		Use:           "list",
		Short:         "List associations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			page, err := c.ledger.Associations(cmd.Context(), list.params())
			if err != nil {
				return fail(f, err)
			}
			if rootOpts.Format == "json" {
				return f.Success(page)
			}
			return f.Success(renderParties(page, func(a ledger.Association) []string {
				return []string{fmt.Sprint(a.ID), a.Name, activeMark(a.Active)}
			}))
		},
	}
	list.register(listCmd)

	createOpts := &PartyOptions{}
	create := &cobra.Command{
		Use:           "create",
		Short:         "Register an association",
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
			a := ledger.Association{
				Name: createOpts.Name, TaxID: createOpts.TaxID,
				Phone: createOpts.Phone, Email: createOpts.Email,
				Active: !createOpts.Inactive,
			}
			if err := c.ledger.CreateAssociation(cmd.Context(), a); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateAssociation)
			return f.Success(fmt.Sprintf("Association %q registered", a.Name))
		},
	}
	createOpts.register(create)

	inactivate := &cobra.Command{
		Use:           "inactivate <id>",
		Short:         "Mark an association inactive",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			id, err := parseID(args[0])
			if err != nil {
				return fail(f, err)
			}
			if !confirm(cmd, rootOpts, fmt.Sprintf("Inactivate association %d?", id)) {
				return f.Success("Cancelled")
			}
			c, err := rootOpts.connect()
			if err != nil {
				return fail(f, err)
			}
			if err := c.ledger.InactivateAssociation(cmd.Context(), id); err != nil {
				return fail(f, err)
			}
			c.sync.Invalidate(cache.MutateAssociation)
			return f.Success(fmt.Sprintf("Association %d inactivated", id))
		},
	}

	cmd.AddCommand(listCmd, create, inactivate)
	return cmd
}
