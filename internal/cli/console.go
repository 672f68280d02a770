package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rcoop/console/internal/api"
	"github.com/rcoop/console/internal/cache"
	"github.com/rcoop/console/internal/ledger"
	"github.com/rcoop/console/internal/session"
)

// console wires one command run: config, credential store, ledger client
// and the cache synchronizer. Built fresh per invocation.
type console struct {
	cfg    session.Config
	creds  *session.Store
	api    *api.Client
	ledger *ledger.Client
	sync   *cache.Synchronizer
}

// dial builds a console without requiring a stored credential.
// Used by login; everything else goes through connect.
func (o *RootOptions) dial() (*console, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath, err = session.DefaultTokenPath()
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "resolve credential path", err)
		}
	}
	creds := session.NewStore(tokenPath)

	c := &console{
		cfg:   cfg,
		creds: creds,
		sync:  cache.NewSynchronizer(),
	}
	// On 401 the whole session is void: drop the credential and abandon
	// every cached view before the error surfaces to the command.
	c.api = api.New(cfg.BaseURL, api.WithUnauthorizedHook(func() {
		c.sync.Shutdown()
		if err := creds.Clear(); err != nil {
			slog.Warn("clear credential after session expiry", "error", err)
		}
	}))
	c.ledger = ledger.NewClient(c.api)
	return c, nil
}

// connect builds a console and installs the stored credential.
func (o *RootOptions) connect() (*console, error) {
	c, err := o.dial()
	if err != nil {
		return nil, err
	}
	tok, err := c.creds.Load()
	if errors.Is(err, session.ErrNoCredential) {
		return nil, NewExitError(ExitFailure, "not logged in: run 'rcoop login' first")
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load credential", err)
	}
	c.api.SetToken(tok)
	return c, nil
}

// formatter builds the output formatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// fail renders err through the formatter and converts it to an ExitError
// so main exits with the right code. Remote refusals surface verbatim.
func fail(f *OutputFormatter, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		f.Error(ErrCodeConfig, exitErr.Error(), nil)
		return exitErr
	}
	code := ClassifyError(err)
	f.Error(code, err.Error(), nil)
	if code == ErrCodeGeneric {
		return WrapExitError(ExitCommandError, "command failed", err)
	}
	return WrapExitError(ExitFailure, "operation rejected", err)
}
