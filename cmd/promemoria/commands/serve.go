package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notexe/promemoria-bot/internal/conversation"
	"github.com/notexe/promemoria-bot/internal/httpserver"
	"github.com/notexe/promemoria-bot/internal/logger"
	"github.com/notexe/promemoria-bot/internal/metrics"
	"github.com/notexe/promemoria-bot/internal/scheduler"
	"github.com/notexe/promemoria-bot/internal/telegram"
)

// NewServeCmd creates the command that runs the Telegram bot.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long:  "Long-poll Telegram, sweep reminders for notifications and serve the HTTP endpoints until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.ValidateTelegram(); err != nil {
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

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			m := metrics.NewCollector("promemoria")
			handler := conversation.NewHandler(store,
				conversation.WithLocation(loc),
				conversation.WithLogger(log.Named("conversation")),
				conversation.WithMetrics(m))

			client := telegram.NewClient(cfg.Telegram.BotToken, telegram.WithAPIURL(cfg.Telegram.APIURL))
			me, err := client.GetMe(ctx)
			if err != nil {
				return fmt.Errorf("telegram: %w", err)
			}
			log.Info("connected to telegram", zap.String("bot", me.Username))

			poller := telegram.NewPoller(client, handler,
				telegram.WithPollTimeout(cfg.Telegram.PollTimeout),
				telegram.WithPollerLogger(log.Named("telegram")))

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error { return poller.Run(ctx) })

			if cfg.Scheduler.Enabled {
				sched := scheduler.New(store, client,
					scheduler.Config{
						Interval:     cfg.SchedulerInterval(),
						InitialDelay: cfg.SchedulerInitialDelay(),
					},
					scheduler.WithLogger(log.Named("scheduler")),
					scheduler.WithMetrics(m))
				g.Go(func() error { return sched.Run(ctx) })
			}

			if cfg.HTTP.Enabled {
				srv := httpserver.New(cfg.HTTP.Addr, store, m.Handler(), log.Named("http"))
				g.Go(func() error { return srv.Run(ctx) })
			}

			err = g.Wait()
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			log.Info("bot stopped")
			return nil
		},
	}
}
