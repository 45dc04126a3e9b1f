package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/core"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/output"
)

var (
	notificationsUser        string
	notificationsListOutput  string
	notificationsSendTitle   string
	notificationsSendMessage string
	notificationsSendType    string
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Read and create in-app notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications for the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(notificationsListOutput)
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

		userID, err := resolveUserID(ctx, client, notificationsUser)
		if err != nil {
			return err
		}

		notifications, err := cachedJSON(ctx, db, cfg, "/api/user/"+userID+"/notifications", func(ctx context.Context) ([]core.Notification, error) {
			return client.ListNotifications(ctx, userID)
		})
		if err != nil {
			return err
		}

		rendered, err := output.FormatNotifications(format, notifications)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	},
}

var notificationsSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Create a notification for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		title := strings.TrimSpace(notificationsSendTitle)
		if title == "" {
			return fmt.Errorf("--title is required")
		}

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		client, _, err := newMarketClient(ctx, db, true)
		if err != nil {
			return err
		}

		userID, err := resolveUserID(ctx, client, notificationsUser)
		if err != nil {
			return err
		}

		created, err := client.CreateNotification(ctx, userID, core.NewNotification{
			Title:   title,
			Message: strings.TrimSpace(notificationsSendMessage),
			Type:    core.NotificationType(strings.TrimSpace(notificationsSendType)),
		})
		if err != nil {
			return err
		}

		observability.CLILogger.Info("Notification created",
			zap.String("notification_id", created.ID),
			zap.String("user_id", userID))
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <notification-id>",
	Short: "Mark a notification as read",
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

		userID, err := resolveUserID(ctx, client, notificationsUser)
		if err != nil {
			return err
		}

		notificationID := strings.TrimSpace(args[0])
		if err := client.MarkNotificationRead(ctx, userID, notificationID); err != nil {
			return err
		}

		observability.CLILogger.Info("Notification marked read", zap.String("notification_id", notificationID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsListCmd)
	notificationsCmd.AddCommand(notificationsSendCmd)
	notificationsCmd.AddCommand(notificationsReadCmd)

	notificationsCmd.PersistentFlags().StringVar(&notificationsUser, "user", "", "user id (defaults to the logged-in account)")
	notificationsListCmd.Flags().StringVar(&notificationsListOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
	notificationsSendCmd.Flags().StringVar(&notificationsSendTitle, "title", "", "notification title")
	notificationsSendCmd.Flags().StringVar(&notificationsSendMessage, "message", "", "notification body")
	notificationsSendCmd.Flags().StringVar(&notificationsSendType, "type", "", "notification type: system|message|favorite|order")
}
