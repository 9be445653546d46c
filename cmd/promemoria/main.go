// Command promemoria runs the reminder bot.
//
// Usage:
//
//	promemoria serve     # Telegram bot, scheduler and HTTP endpoints
//	promemoria console   # same conversation in the terminal
//	promemoria mcp       # MCP tool server over stdio
//	promemoria check     # validate configuration and the bot token
//
// Environment:
//
//	TELEGRAM_BOT_TOKEN  Bot token from @BotFather
//	PROMEMORIA_*        Overrides for any config key (PROMEMORIA_STORAGE__BACKEND=sqlite)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/notexe/promemoria-bot/cmd/promemoria/commands"
	"github.com/notexe/promemoria-bot/internal/config"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:           "promemoria",
		Short:         "Telegram reminder bot",
		Long:          "Conversational reminder bot: write what to remember, then a date and a time.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", config.GetDefaultConfigPath(), "path to the YAML config file")

	rootCmd.AddCommand(commands.NewServeCmd())
	rootCmd.AddCommand(commands.NewConsoleCmd())
	rootCmd.AddCommand(commands.NewMCPCmd())
	rootCmd.AddCommand(commands.NewCheckCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
