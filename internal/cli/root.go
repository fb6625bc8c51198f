// Package cli is the protokoll command line client for archived protocols.
package cli

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/elektroprotokolle/pruefprotokoll/internal/app"
	"github.com/elektroprotokolle/pruefprotokoll/internal/config"
	"github.com/elektroprotokolle/pruefprotokoll/internal/service"
)

// Opener provides the services a command runs against and a func releasing
// them.
type Opener func(ctx context.Context) (*service.Services, func(), error)

// OpenConfigured loads configuration and restores the configured archive.
func OpenConfigured(ctx context.Context) (*service.Services, func(), error) {
	if err := config.Load(); err != nil {
		return nil, nil, err
	}
	app.ConfigureLogging()
	a, err := app.Build(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	return a.Services, a.Close, nil
}

// Execute runs the root command against the configured archive.
func Execute() error {
	return NewRootCmd(OpenConfigured).Execute()
}

// options are the persistent flags shared by every subcommand.
type options struct {
	open    Opener
	verbose bool
	json    bool
}

// with opens the services around fn.
func (o *options) with(fn func(cmd *cobra.Command, args []string, svcs *service.Services) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svcs, closeFn, err := o.open(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(cmd, args, svcs)
	}
}

func NewRootCmd(open Opener) *cobra.Command {
	o := &options{open: open}
	root := &cobra.Command{
		Use:   "protokoll",
		Short: "Inspect archived VDE 0100 inspection protocols",
		Long: `protokoll reads the protocol archive configured through the environment
(ARCHIVE_BACKEND, DB_DSN, DYNAMODB_TABLE, ...) and lists, summarizes or exports
the protocols in it.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if o.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&o.json, "json", false, "Print JSON instead of tab separated text")

	root.AddCommand(listCmd(o), summaryCmd(o), dueCmd(o), exportCmd(o), cloudCheckCmd())
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
