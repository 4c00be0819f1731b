// Package cmd provides the CLI commands for tenderindex.
package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/mapletenders/tenderindex/internal/config"
	"github.com/mapletenders/tenderindex/internal/version"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	env     string
	timeout time.Duration
}

// NewRootCmd creates the root command for the tenderindex CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "tenderindex",
		Short: "Hybrid search index for procurement tenders",
		Long: `tenderindex keeps a Redis search index in sync with the tenders table
and answers natural-language tender queries that blend semantic similarity
with lexical matching and structured filters.

Run 'tenderindex serve' to start the HTTP API, or use the sync commands
to reconcile the index from the command line.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	cmd.SetVersionTemplate("tenderindex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(),
		"Configuration environment (loads config/<env>.yaml)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0,
		"Deadline for one-shot commands, e.g. 10m (0 means none)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newSyncCmd(opts))
	cmd.AddCommand(newSyncOneCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newWipeCmd(opts))
	cmd.AddCommand(newCreateIndexCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// withTimeout bounds ctx by the --timeout flag. A zero timeout leaves ctx unbounded.
func (o *rootOptions) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, o.timeout)
}
