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
	listingsBrowseOutput   string
	listingsBrowseStatus   string
	listingsBrowseCategory string
	listingsBrowseSearch   string
	listingsBrowsePage     int
	listingsBrowseSize     int
	listingsShowOutput     string
)

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "Browse and moderate marketplace listings",
}

var listingsBrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(listingsBrowseOutput)
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

		query := market.BrowseQuery{
			Status:   core.ListingStatus(strings.TrimSpace(listingsBrowseStatus)),
			Category: listingsBrowseCategory,
			Search:   listingsBrowseSearch,
			Page:     listingsBrowsePage,
			PageSize: listingsBrowseSize,
		}

		listings, err := cachedJSON(ctx, db, cfg, query.RequestPath(), func(ctx context.Context) ([]core.Listing, error) {
			return client.BrowseListings(ctx, query)
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

var listingsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(listingsShowOutput)
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

		id := strings.TrimSpace(args[0])
		listing, err := cachedJSON(ctx, db, cfg, "/api/listings/"+id, func(ctx context.Context) (*core.Listing, error) {
			return client.GetListing(ctx, id)
		})
		if err != nil {
			return err
		}

		rendered, err := output.FormatListings(format, []core.Listing{*listing})
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	},
}

var listingsApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListingStatusUpdate(cmd.Context(), args[0], core.ListingStatusActive)
	},
}

var listingsRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending listing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListingStatusUpdate(cmd.Context(), args[0], core.ListingStatusRejected)
	},
}

var listingsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a listing",
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

		id := strings.TrimSpace(args[0])
		if err := client.DeleteListing(ctx, id); err != nil {
			return err
		}

		observability.CLILogger.Info("Listing deleted", zap.String("listing_id", id))
		return nil
	},
}

func runListingStatusUpdate(ctx context.Context, rawID string, status core.ListingStatus) error {
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	client, _, err := newMarketClient(ctx, db, true)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(rawID)
	updated, err := client.UpdateListingStatus(ctx, id, status)
	if err != nil {
		return err
	}

	observability.CLILogger.Info("Listing status updated",
		zap.String("listing_id", updated.ID),
		zap.String("status", string(updated.Status)))
	return nil
}

func init() {
	rootCmd.AddCommand(listingsCmd)
	listingsCmd.AddCommand(listingsBrowseCmd)
	listingsCmd.AddCommand(listingsShowCmd)
	listingsCmd.AddCommand(listingsApproveCmd)
	listingsCmd.AddCommand(listingsRejectCmd)
	listingsCmd.AddCommand(listingsDeleteCmd)

	listingsBrowseCmd.Flags().StringVar(&listingsBrowseOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
	listingsBrowseCmd.Flags().StringVar(&listingsBrowseStatus, "status", "", "filter by status: pending|active|rejected|sold|expired")
	listingsBrowseCmd.Flags().StringVar(&listingsBrowseCategory, "category", "", "filter by category")
	listingsBrowseCmd.Flags().StringVar(&listingsBrowseSearch, "search", "", "full-text search term")
	listingsBrowseCmd.Flags().IntVar(&listingsBrowsePage, "page", 0, "result page (1-based)")
	listingsBrowseCmd.Flags().IntVar(&listingsBrowseSize, "page-size", 0, "results per page")

	listingsShowCmd.Flags().StringVar(&listingsShowOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
}
