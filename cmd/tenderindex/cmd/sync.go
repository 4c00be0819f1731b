package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mapletenders/tenderindex/internal/domain/syncrun"
)

func newSyncCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Index every tender from the source store",
		Long: `Create the index if needed, read every row of the tenders table,
and upsert each one. Failed records are counted and reported; the run
continues past them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), opts, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the sync report as JSON")

	return cmd
}

func newSyncOneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-one <id>",
		Short: "Index a single tender by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSyncOne(cmd.Context(), cmd.OutOrStdout(), opts, args[0])
		},
	}
}

func runSync(ctx context.Context, out io.Writer, opts *rootOptions, jsonOutput bool) error {
	ctx, cancel := opts.withTimeout(ctx)
	defer cancel()

	a, err := newApp(ctx, opts.env)
	if err != nil {
		return err
	}
	defer a.close()

	report := a.reconcile.SyncAll(ctx)
	if err := renderSyncReport(out, report, jsonOutput); err != nil {
		return err
	}
	if report.Status == syncrun.StatusError {
		return fmt.Errorf("sync failed: %w", report.Err)
	}
	return nil
}

func runSyncOne(ctx context.Context, out io.Writer, opts *rootOptions, id string) error {
	ctx, cancel := opts.withTimeout(ctx)
	defer cancel()

	a, err := newApp(ctx, opts.env)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.reconcile.SyncOne(ctx, id)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s: %s\n", res.TenderID, res.Message)
	return err
}

// syncReportView is the printable form of a sync report.
type syncReportView struct {
	Status         syncrun.Status `json:"status"`
	RunID          string         `json:"run_id"`
	TotalTenders   int            `json:"total_tenders"`
	Indexed        int            `json:"indexed"`
	Failed         int            `json:"failed"`
	FailedIDs      []string       `json:"failed_ids"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	Error          string         `json:"error,omitempty"`
}

func renderSyncReport(out io.Writer, r syncrun.Report, jsonOutput bool) error {
	view := syncReportView{
		Status:         r.Status,
		RunID:          r.RunID,
		TotalTenders:   r.Total,
		Indexed:        r.Tally.Indexed,
		Failed:         r.Tally.Failed,
		FailedIDs:      r.Tally.FailedIDs,
		ElapsedSeconds: r.Elapsed.Seconds(),
	}
	if view.FailedIDs == nil {
		view.FailedIDs = []string{}
	}
	if r.Err != nil {
		view.Error = r.Err.Error()
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Sync %s (run %s)\n", view.Status, view.RunID)
	fmt.Fprintf(&b, "  Tenders:  %d\n", view.TotalTenders)
	fmt.Fprintf(&b, "  Indexed:  %d\n", view.Indexed)
	fmt.Fprintf(&b, "  Failed:   %d\n", view.Failed)
	if len(view.FailedIDs) > 0 {
		fmt.Fprintf(&b, "  Failed IDs: %s\n", strings.Join(view.FailedIDs, ", "))
	}
	fmt.Fprintf(&b, "  Elapsed:  %.2fs\n", view.ElapsedSeconds)
	if view.Error != "" {
		fmt.Fprintf(&b, "  Error:    %s\n", view.Error)
	}
	_, err := io.WriteString(out, b.String())
	return err
}
