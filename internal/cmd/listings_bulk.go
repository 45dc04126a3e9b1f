package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/core"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/output"
)

var (
	bulkFile        string
	bulkConcurrency int
	bulkYes         bool
	bulkOutput      string
)

var listingsBulkCmd = &cobra.Command{
	Use:   "bulk <approve|reject|delete> [id...]",
	Short: "Apply one moderation action to many listings",
	Long: `Apply one moderation action to many listings with a bounded worker pool.

IDs come from positional arguments or from --file (one per line, '#' starts
a comment, '-' reads stdin). Per-item failures are reported in the summary
and do not abort the run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		action := core.BulkAction(strings.ToLower(strings.TrimSpace(args[0])))
		if !action.Valid() {
			return fmt.Errorf("unsupported bulk action: %s (expected approve, reject, or delete)", args[0])
		}

		format, err := output.ParseFormat(bulkOutput)
		if err != nil {
			return err
		}

		ids, err := resolveIDs(args[1:], bulkFile)
		if err != nil {
			return err
		}

		if action == core.BulkActionDelete && !bulkYes {
			return errors.New("bulk delete requires --yes")
		}

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		client, cfg, err := newMarketClient(ctx, db, true)
		if err != nil {
			return err
		}

		concurrency := bulkConcurrency
		if concurrency < 1 {
			concurrency = cfg.Workers
		}

		observability.CLILogger.Info("Starting bulk update",
			zap.String("action", string(action)),
			zap.Int("ids", len(ids)),
			zap.Int("concurrency", concurrency))

		results, runErr := client.BulkUpdateListings(ctx, ids, action, concurrency)
		summary := core.Summarize(action, results)

		rendered, err := output.FormatBulkSummary(format, summary)
		if err != nil {
			return err
		}

		sink, err := resolveSink(cmd, fmt.Sprintf("listings.bulk.%s", action), format)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if _, err := fmt.Fprint(sink.writer, rendered); err != nil {
			return err
		}

		if runErr != nil {
			return runErr
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d updates failed", summary.Failed, summary.Requested)
		}
		return nil
	},
}

func init() {
	listingsCmd.AddCommand(listingsBulkCmd)

	listingsBulkCmd.Flags().StringVar(&bulkFile, "file", "", "read listing ids from a file ('-' for stdin)")
	listingsBulkCmd.Flags().IntVar(&bulkConcurrency, "concurrency", 0, "worker pool size (defaults to the workers config)")
	listingsBulkCmd.Flags().BoolVar(&bulkYes, "yes", false, "confirm destructive bulk delete")
	listingsBulkCmd.Flags().StringVar(&bulkOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
	listingsBulkCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	listingsBulkCmd.Flags().String("out-dir", "", "Write output to a directory")
}
