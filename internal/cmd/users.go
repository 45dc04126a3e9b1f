package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cataloro/cataloro/internal/core"
	"github.com/cataloro/cataloro/internal/output"
)

var usersSearchOutput string

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Look up marketplace users",
}

var usersSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search users by name or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		query := strings.TrimSpace(args[0])
		if query == "" {
			return fmt.Errorf("search query is required")
		}

		format, err := output.ParseFormat(usersSearchOutput)
		if err != nil {
			return err
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

		path := "/users/search?q=" + url.QueryEscape(query)
		users, err := cachedJSON(ctx, db, cfg, path, func(ctx context.Context) ([]core.User, error) {
			return client.SearchUsers(ctx, query)
		})
		if err != nil {
			return err
		}

		rendered, err := output.FormatUsers(format, users)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersSearchCmd)

	usersSearchCmd.Flags().StringVar(&usersSearchOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
}
