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
	messagesUser        string
	messagesListOutput  string
	messagesSendTo      string
	messagesSendSubject string
	messagesSendContent string
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Read and send marketplace messages",
}

var messagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List messages for the account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(messagesListOutput)
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

		userID, err := resolveUserID(ctx, client, messagesUser)
		if err != nil {
			return err
		}

		messages, err := cachedJSON(ctx, db, cfg, "/api/user/"+userID+"/messages", func(ctx context.Context) ([]core.Message, error) {
			return client.ListMessages(ctx, userID)
		})
		if err != nil {
			return err
		}

		rendered, err := output.FormatMessages(format, messages)
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	},
}

var messagesSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message to another user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		recipient := strings.TrimSpace(messagesSendTo)
		if recipient == "" {
			return fmt.Errorf("--to is required")
		}
		content := strings.TrimSpace(messagesSendContent)
		if content == "" {
			return fmt.Errorf("--content is required")
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

		userID, err := resolveUserID(ctx, client, messagesUser)
		if err != nil {
			return err
		}

		sent, err := client.SendMessage(ctx, userID, core.NewMessage{
			RecipientID: recipient,
			Subject:     strings.TrimSpace(messagesSendSubject),
			Content:     content,
		})
		if err != nil {
			return err
		}

		observability.CLILogger.Info("Message sent",
			zap.String("message_id", sent.ID),
			zap.String("recipient_id", recipient))
		return nil
	},
}

var messagesReadCmd = &cobra.Command{
	Use:   "read <message-id>",
	Short: "Mark a message as read",
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

		userID, err := resolveUserID(ctx, client, messagesUser)
		if err != nil {
			return err
		}

		messageID := strings.TrimSpace(args[0])
		if err := client.MarkMessageRead(ctx, userID, messageID); err != nil {
			return err
		}

		observability.CLILogger.Info("Message marked read", zap.String("message_id", messageID))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(messagesCmd)
	messagesCmd.AddCommand(messagesListCmd)
	messagesCmd.AddCommand(messagesSendCmd)
	messagesCmd.AddCommand(messagesReadCmd)

	messagesCmd.PersistentFlags().StringVar(&messagesUser, "user", "", "user id (defaults to the logged-in account)")
	messagesListCmd.Flags().StringVar(&messagesListOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
	messagesSendCmd.Flags().StringVar(&messagesSendTo, "to", "", "recipient user id")
	messagesSendCmd.Flags().StringVar(&messagesSendSubject, "subject", "", "message subject")
	messagesSendCmd.Flags().StringVar(&messagesSendContent, "content", "", "message body")
}
