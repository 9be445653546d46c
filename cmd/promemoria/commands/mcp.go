package commands

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/notexe/promemoria-bot/internal/logger"
	"github.com/notexe/promemoria-bot/internal/reminder"
)

// NewMCPCmd creates the command that exposes the store as MCP tools.
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve reminder tools over MCP stdio",
		Long: `Expose list_todos, list_remembers, list_reminders, add_reminder,
acknowledge_reminders and clear_user to an MCP client over stdin/stdout.

Do not point this at the same storage as a running "serve": each process
rewrites the whole snapshot on every change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}

			// The production logger writes to stderr, leaving stdout to the protocol.
			cfg.Log.Development = false
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(log) }()

			store, closeStore, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			s := reminder.NewServer(store, loc)
			if err := server.ServeStdio(s.MCPServer()); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
