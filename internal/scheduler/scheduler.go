package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notexe/promemoria-bot/internal/metrics"
	"github.com/notexe/promemoria-bot/internal/reminder"
)

// Sender delivers a text message to a user.
type Sender interface {
	Send(ctx context.Context, userID int64, text string) error
}

// Config controls the sweep cadence.
type Config struct {
	Interval     time.Duration
	InitialDelay time.Duration
}

// Scheduler periodically sweeps the store and sends staged notifications.
type Scheduler struct {
	store   *reminder.Store
	sender  Sender
	config  Config
	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the clock used to compare due times.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// New creates a new Scheduler.
func New(store *reminder.Store, sender Sender, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:  store,
		sender: sender,
		config: cfg,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run blocks, sweeping once after the initial delay and then on every
// interval. It exits when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.config.Interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.config.Interval)
	}

	s.logger.Info("started",
		zap.Duration("interval", s.config.Interval),
		zap.Duration("initial_delay", s.config.InitialDelay))

	delay := time.NewTimer(s.config.InitialDelay)
	defer delay.Stop()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
		return nil
	case <-delay.C:
	}

	s.Sweep(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep inspects every unacknowledged reminder once and returns how many
// notifications were delivered. The stage only advances after a successful
// send; a failed send leaves the reminder eligible on the next sweep.
func (s *Scheduler) Sweep(ctx context.Context) int {
	now := s.now()
	sent := 0

	for _, r := range s.store.Unacknowledged() {
		notice, ok := NextNotice(r, now)
		if !ok {
			continue
		}

		// The snapshot may be stale by now; skip reminders acknowledged or
		// cleared since it was taken.
		if current, err := s.store.Get(r.ID); err != nil || current.Acknowledged || current.Stage != notice.From {
			continue
		}

		if err := s.sender.Send(ctx, r.UserID, notice.Text(r)); err != nil {
			s.metrics.DeliveryFailed()
			s.logger.Error("notification send failed",
				zap.String("reminder_id", r.ID),
				zap.Int64("user_id", r.UserID),
				zap.Int("stage", notice.From+1),
				zap.Error(err))
			continue
		}

		advanced, err := s.store.AdvanceStage(ctx, r.ID, notice.From)
		if err != nil && !errors.Is(err, reminder.ErrNotFound) {
			s.metrics.PersistFailed()
			s.logger.Error("failed to record notification",
				zap.String("reminder_id", r.ID),
				zap.Error(err))
		}
		if !advanced {
			// Acknowledged, cleared or advanced while the send was in flight.
			continue
		}

		sent++
		s.metrics.NotificationSent(notice.From + 1)
		s.logger.Info("notification sent",
			zap.String("reminder_id", r.ID),
			zap.Int64("user_id", r.UserID),
			zap.Int("stage", notice.From+1))
	}

	if sent == 0 {
		s.logger.Debug("no notifications due")
	}
	return sent
}
