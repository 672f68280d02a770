package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/ledger"
)

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Username string
	Password string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "login",
		Short:         "Authenticate against the ledger service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Username, "username", "u", "", "operator username")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "operator password (prompted when omitted)")

	return cmd
}

func runLogin(opts *LoginOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	c, err := opts.dial()
	if err != nil {
		return fail(f, err)
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	if opts.Username == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fail(f, WrapExitError(ExitCommandError, "read username", err))
		}
		opts.Username = strings.TrimSpace(line)
	}
	if opts.Password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fail(f, WrapExitError(ExitCommandError, "read password", err))
		}
		opts.Password = strings.TrimSpace(line)
	}

	tok, err := c.ledger.Login(cmd.Context(), ledger.Credentials{
		Username: opts.Username,
		Password: opts.Password,
	})
	if err != nil {
		return fail(f, err)
	}
	if err := c.creds.Save(tok.AccessToken); err != nil {
		return fail(f, WrapExitError(ExitCommandError, "store credential", err))
	}
	return f.Success(fmt.Sprintf("Logged in as %s", opts.Username))
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Discard the stored credential",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			c, err := rootOpts.dial()
			if err != nil {
				return fail(f, err)
			}
			if err := c.creds.Clear(); err != nil {
				return fail(f, WrapExitError(ExitCommandError, "clear credential", err))
			}
			return f.Success("Logged out")
		},
	}
}
