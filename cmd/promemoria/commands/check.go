package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/notexe/promemoria-bot/internal/config"
	"github.com/notexe/promemoria-bot/internal/telegram"
)

// NewCheckCmd creates the command that verifies configuration.
func NewCheckCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check configuration and the Telegram token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), cmd.OutOrStdout(), cfg, offline)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "skip the getMe call")
	return cmd
}

func runCheck(ctx context.Context, w io.Writer, cfg *config.Config, offline bool) error {
	fmt.Fprintln(w, "Checking Promemoria configuration...")
	fmt.Fprintln(w)

	failed := false

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(w, "❌ config: %v\n", err)
		failed = true
	} else {
		fmt.Fprintln(w, "✓ config: valid")
	}

	fmt.Fprintf(w, "✓ storage: %s\n", storageLabel(cfg))

	if loc, err := cfg.Location(); err != nil {
		fmt.Fprintf(w, "❌ timezone: %v\n", err)
		failed = true
	} else {
		fmt.Fprintf(w, "✓ timezone: %s\n", loc)
	}

	token := cfg.Telegram.BotToken
	if token == "" {
		fmt.Fprintf(w, "❌ %s: NOT SET\n", config.TokenEnv)
		fmt.Fprintf(w, "   Set with: export %s=\"your-token\"\n", config.TokenEnv)
		failed = true
	} else {
		fmt.Fprintf(w, "✓ %s: %s\n", config.TokenEnv, maskToken(token))

		if !offline {
			ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()

			client := telegram.NewClient(token, telegram.WithAPIURL(cfg.Telegram.APIURL))
			me, err := client.GetMe(ctx)
			if err != nil {
				fmt.Fprintf(w, "❌ getMe: %v\n", err)
				failed = true
			} else {
				fmt.Fprintf(w, "✓ bot: @%s (id %d)\n", me.Username, me.ID)
			}
		}
	}

	fmt.Fprintln(w)
	if failed {
		return fmt.Errorf("configuration check failed")
	}
	fmt.Fprintln(w, "All checks passed.")
	return nil
}

func maskToken(token string) string {
	if len(token) > 14 {
		return token[:10] + "..." + token[len(token)-4:]
	}
	return "***"
}
