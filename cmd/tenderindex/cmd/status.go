package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	reconcileuc "github.com/mapletenders/tenderindex/internal/usecase/reconcile"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Compare source and index document counts",
		Long: `Count rows in the tenders table and documents in the search index,
and report index health. The two are "in sync" when the counts match;
content is not compared.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout(), opts, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newWipeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wipe",
		Short: "Drop the search index and all indexed tenders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndexAction(cmd.Context(), cmd.OutOrStdout(), opts,
				func(ctx context.Context, a *app) error { return a.reconcile.Wipe(ctx) },
				"Tenders index deleted")
		},
	}
}

func newCreateIndexCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-index",
		Short: "Create the search index if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndexAction(cmd.Context(), cmd.OutOrStdout(), opts,
				func(ctx context.Context, a *app) error { return a.reconcile.CreateIndex(ctx) },
				"Tenders index created successfully")
		},
	}
}

func runStatus(ctx context.Context, out io.Writer, opts *rootOptions, jsonOutput bool) error {
	ctx, cancel := opts.withTimeout(ctx)
	defer cancel()

	a, err := newApp(ctx, opts.env)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.reconcile.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect status: %w", err)
	}
	return renderStatus(out, report, jsonOutput)
}

func runIndexAction(
	ctx context.Context, out io.Writer, opts *rootOptions,
	action func(context.Context, *app) error, done string,
) error {
	ctx, cancel := opts.withTimeout(ctx)
	defer cancel()

	a, err := newApp(ctx, opts.env)
	if err != nil {
		return err
	}
	defer a.close()

	if err := action(ctx, a); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, done)
	return err
}

// statusView is the printable form of a status report.
type statusView struct {
	SourceTenders int    `json:"source_tenders"`
	IndexTenders  int    `json:"index_tenders"`
	InSync        bool   `json:"in_sync"`
	IndexHealth   string `json:"index_health"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
}

func renderStatus(out io.Writer, r reconcileuc.StatusReport, jsonOutput bool) error {
	view := statusView{
		SourceTenders: r.SourceCount,
		IndexTenders:  r.IndexCount,
		InSync:        r.InSync,
		IndexHealth:   string(r.Health.Color),
		Status:        string(r.Health.Status),
		Error:         r.Health.Error,
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	sync := "yes"
	if !view.InSync {
		sync = fmt.Sprintf("no (drift %d)", view.SourceTenders-view.IndexTenders)
	}
	_, err := fmt.Fprintf(out,
		"Source tenders: %d\nIndex tenders:  %d\nIn sync:        %s\nIndex health:   %s (%s)\n",
		view.SourceTenders, view.IndexTenders, sync, view.IndexHealth, view.Status)
	if err != nil {
		return err
	}
	if view.Error != "" {
		_, err = fmt.Fprintf(out, "Health error:   %s\n", view.Error)
	}
	return err
}
