package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cataloro/cataloro/internal/core"
	"github.com/cataloro/cataloro/internal/core/store"
	"github.com/cataloro/cataloro/internal/observability"
	"github.com/cataloro/cataloro/internal/output"
)

var (
	loginEmail    string
	loginPassword string
	whoamiOutput  string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the marketplace and store the API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		email := strings.TrimSpace(loginEmail)
		if email == "" {
			value, err := promptForValue("Email: ")
			if err != nil {
				return err
			}
			email = value
		}
		if email == "" {
			return fmt.Errorf("email is required")
		}

		password := loginPassword
		if password == "" {
			value, err := promptForValue("Password: ")
			if err != nil {
				return err
			}
			password = value
		}
		if password == "" {
			return fmt.Errorf("password is required")
		}

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		client, _, err := newMarketClient(ctx, nil, false)
		if err != nil {
			return err
		}

		result, err := client.Login(ctx, email, password)
		if err != nil {
			return err
		}

		if err := db.SetCredential(ctx, store.TokenKey, result.Token); err != nil {
			return fmt.Errorf("store token: %w", err)
		}

		observability.CLILogger.Info("Logged in",
			zap.String("username", result.User.Username),
			zap.String("role", result.User.Role))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		db, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		existed, err := db.DeleteCredential(ctx, store.TokenKey)
		if err != nil {
			return err
		}

		if existed {
			observability.CLILogger.Info("Logged out")
		} else {
			observability.CLILogger.Info("No stored token; nothing to do")
		}
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account behind the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := output.ParseFormat(whoamiOutput)
		if err != nil {
			return err
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

		user, err := client.Profile(ctx)
		if err != nil {
			return err
		}

		rendered, err := output.FormatUsers(format, []core.User{*user})
		if err != nil {
			return err
		}
		fmt.Print(rendered)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email (prompted when omitted)")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password (prompted when omitted)")

	whoamiCmd.Flags().StringVar(&whoamiOutput, "output-format", string(output.FormatTable), "Output format: table|json|markdown")
}
