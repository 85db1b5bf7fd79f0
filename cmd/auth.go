package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxagent/internal/google"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize read-only Gmail access",
		Long: `Run the OAuth consent flow for the Google client in
GMAIL_APP_CREDENTIALS_FILE and save the resulting token to
GMAIL_APP_TOKEN_FILE (default: gmail_token.json).

The command prints a URL to open in a browser and listens on a loopback
port for the redirect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			if err := cfg.RequireGmail(); err != nil {
				return err
			}
			conf, err := google.LoadConfig(cfg.CredentialsFile)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if _, err := google.AuthorizeInteractive(ctx, conf, cfg.TokenFile, cmd.OutOrStdout()); err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}
			return nil
		},
	}
}
