package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/core"
	"github.com/cataloro/cataloro/internal/market"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/output"
)

var (
	favoritesUser       string
	favoritesListOutput string
)

var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage favorite listings",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorite listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(favoritesListOutput)
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

		userID, err := resolveUserID(ctx, client, favoritesUser)
		if err != nil {
			return err
		}

		listings, err := cachedJSON(ctx, db, cfg, "/api/user/"+userID+"/favorites", func(ctx context.Context) ([]core.Listing, error) {
			return client.ListFavorites(ctx, userID)
		})
		if err != nil {
			return err
		}

		rendered, err := output.FormatListings(format, listings)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <item-id>",
	Short: "Add a listing to favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		client, _, err := newMarketClient(ctx, db, true)
		if err != nil {
			return err
		}

		userID, err := resolveUserID(ctx, client, favoritesUser)
		if err != nil {
			return err
		}

		itemID := strings.TrimSpace(args[0])
		if err := client.AddFavorite(ctx, userID, itemID); err != nil {
			return err
		}

		observability.CLILogger.Info("Favorite added", zap.String("item_id", itemID))
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <item-id>",
	Short: "Remove a listing from favorites",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		client, _, err := newMarketClient(ctx, db, true)
		if err != nil {
			return err
		}

		userID, err := resolveUserID(ctx, client, favoritesUser)
		if err != nil {
			return err
		}

		itemID := strings.TrimSpace(args[0])
		if err := client.RemoveFavorite(ctx, userID, itemID); err != nil {
			return err
		}

		observability.CLILogger.Info("Favorite removed", zap.String("item_id", itemID))
		return nil
	},
}

// resolveUserID returns the explicit --user value or falls back to the
// account behind the stored token.
func resolveUserID(ctx context.Context, client *market.Client, flagValue string) (string, error) {
	if id := strings.TrimSpace(flagValue); id != "" {
		return id, nil
	}

	user, err := client.Profile(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve own user id: %w", err)
	}
	if strings.TrimSpace(user.ID) == "" {
		return "", fmt.Errorf("profile response missing user id")
	}
	return user.ID, nil
}

func init() {
	rootCmd.AddCommand(favoritesCmd)
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)

	favoritesCmd.PersistentFlags().StringVar(&favoritesUser, "user", "", "user id (defaults to the logged-in account)")
	favoritesListCmd.Flags().StringVar(&favoritesListOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
}
