package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/notexe/promemoria-bot/internal/conversation"
	"github.com/notexe/promemoria-bot/internal/logger"
	"github.com/notexe/promemoria-bot/internal/metrics"
	"github.com/notexe/promemoria-bot/internal/repl"
	"github.com/notexe/promemoria-bot/internal/scheduler"
	"github.com/notexe/promemoria-bot/internal/ui"
)

// NewConsoleCmd creates the command that chats with the bot in the terminal.
func NewConsoleCmd() *cobra.Command {
	var noScheduler bool

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Talk to the bot from the terminal",
		Long:  "Run the conversation locally. Notifications for due reminders are printed inline.",
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

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(log) }()

			// Ctrl-C is read by readline in raw mode; SIGTERM is not.
			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithCancel(sigCtx)
			defer cancel()

			store, closeStore, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			handler := conversation.NewHandler(store,
				conversation.WithLocation(loc),
				conversation.WithLogger(log.Named("conversation")),
				conversation.WithMetrics(metrics.NewCollector("promemoria")))

			user := conversation.User{ID: cfg.Console.UserID, FirstName: cfg.Console.FirstName}
			console := repl.NewREPL(handler, user, ui.NewFormatter(cfg.Console.ColoredOutput), os.Stdout, log.Named("console"))

			g, gctx := errgroup.WithContext(ctx)

			if cfg.Scheduler.Enabled && !noScheduler {
				sched := scheduler.New(store, console,
					scheduler.Config{
						Interval:     cfg.SchedulerInterval(),
						InitialDelay: cfg.SchedulerInitialDelay(),
					},
					scheduler.WithLogger(log.Named("scheduler")))
				g.Go(func() error { return sched.Run(gctx) })
			}

			g.Go(func() error {
				defer cancel()
				return console.Start(gctx, storageLabel(cfg))
			})
			g.Go(func() error {
				// Unblocks the pending read when the scheduler fails or
				// SIGTERM arrives.
				<-gctx.Done()
				console.Stop()
				return nil
			})

			return g.Wait()
		},
	}

	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "do not print notifications for due reminders")
	return cmd
}
