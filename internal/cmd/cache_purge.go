package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/cataloro/cataloro/internal/core/store"
	"github.com/cataloro/cataloro/internal/output"
)

var (
	cachePurgeAll      bool
	cachePurgeEndpoint string
	cachePurgePrefix   string
	cachePurgeExpired  bool
	cachePurgeYes      bool
	cachePurgeDryRun   bool
	cachePurgeOutput   string
)

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove cached API responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(cachePurgeOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		query := store.CacheQuery{
			All:      cachePurgeAll,
			Endpoint: strings.TrimSpace(cachePurgeEndpoint),
			Prefix:   strings.TrimSpace(cachePurgePrefix),
			Expired:  cachePurgeExpired,
		}
		if err := query.Validate(); err != nil {
			return err
		}

		if query.All && !cachePurgeYes && !cachePurgeDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.CountCacheEntries(cmd.Context(), query)
		if err != nil {
			return err
		}

		sink, err := resolveSink(cmd, "cache.purge", format)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if cachePurgeDryRun {
			return writeCachePurgeResult(format, sink.writer, matched, 0, true)
		}

		deleted, err := db.PurgeCache(cmd.Context(), query)
		if err != nil {
			return err
		}

		return writeCachePurgeResult(format, sink.writer, matched, deleted, false)
	},
}

func writeCachePurgeResult(format output.Format, w io.Writer, matched int, deleted int64, dryRun bool) error {
	result := map[string]any{
		"matched": matched,
		"deleted": deleted,
		"dry_run": dryRun,
	}

	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	lines := []string{"Response Cache", ""}
	if dryRun {
		lines = append(lines, fmt.Sprintf("Would delete %d cache entr(ies)", matched))
	} else {
		lines = append(lines, fmt.Sprintf("Deleted %d/%d cache entr(ies)", deleted, matched))
	}
	_, err := fmt.Fprint(w, ascii.DrawBox(strings.Join(lines, "\n"), 0))
	return err
}

func init() {
	cachePurgeCmd.Flags().BoolVar(&cachePurgeAll, "all", false, "Purge all entries")
	cachePurgeCmd.Flags().StringVar(&cachePurgeEndpoint, "endpoint", "", "Purge a single endpoint (exact match)")
	cachePurgeCmd.Flags().StringVar(&cachePurgePrefix, "prefix", "", "Purge entries with matching endpoint prefix")
	cachePurgeCmd.Flags().BoolVar(&cachePurgeExpired, "expired", false, "Purge only expired entries")
	cachePurgeCmd.Flags().BoolVar(&cachePurgeYes, "yes", false, "Confirm destructive purge")
	cachePurgeCmd.Flags().BoolVar(&cachePurgeDryRun, "dry-run", false, "Show what would be deleted")
	cachePurgeCmd.Flags().StringVar(&cachePurgeOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	cachePurgeCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	cachePurgeCmd.Flags().String("out-dir", "", "Write output to a directory")
}
