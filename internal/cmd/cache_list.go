package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cataloro/cataloro/internal/core/store"
	"github.com/cataloro/cataloro/internal/output"
)

var (
	cacheListOutput  string
	cacheListAll     bool
	cacheListPrefix  string
	cacheListExpired bool
)

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached API responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(cacheListOutput)
		if err != nil {
			return err
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		query := store.CacheQuery{
			All:     cacheListAll,
			Prefix:  strings.TrimSpace(cacheListPrefix),
			Expired: cacheListExpired,
		}
		if !query.All && query.Prefix == "" && !query.Expired {
			query.All = true
		}

		entries, err := db.ListCacheEntries(cmd.Context(), query)
		if err != nil {
			return err
		}

		rendered, err := output.FormatCacheEntries(format, entries)
		if err != nil {
			return err
		}

		sink, err := resolveSink(cmd, "cache.list", format)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		_, err = fmt.Fprint(sink.writer, rendered)
		return err
	},
}

func init() {
	cacheListCmd.Flags().StringVar(&cacheListOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
	cacheListCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	cacheListCmd.Flags().String("out-dir", "", "Write output to a directory")
	cacheListCmd.Flags().BoolVar(&cacheListAll, "all", false, "List all entries")
	cacheListCmd.Flags().StringVar(&cacheListPrefix, "prefix", "", "List entries with matching endpoint prefix")
	cacheListCmd.Flags().BoolVar(&cacheListExpired, "expired", false, "List only expired entries")
}
