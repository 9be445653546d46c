// Package conversation drives the per-user dialogue that turns a free-text
// message into a scheduled reminder.
package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/notexe/promemoria-bot/internal/metrics"
	"github.com/notexe/promemoria-bot/internal/reminder"
)

// Command names of the command surface.
const (
	CommandStart         = "start"
	CommandHelp          = "help"
	CommandViewTodos     = "view_todos"
	CommandViewRemembers = "view_remembers"
	CommandViewReminders = "view_reminders"
	CommandClear         = "clear"
)

var knownCommands = map[string]struct{}{
	CommandStart:         {},
	CommandHelp:          {},
	CommandViewTodos:     {},
	CommandViewRemembers: {},
	CommandViewReminders: {},
	CommandClear:         {},
}

var affirmatives = map[string]struct{}{
	"ok":       {},
	"ok!":      {},
	"ok.":      {},
	"va bene":  {},
	"perfetto": {},
}

// IsAffirmative reports whether text acknowledges pending reminders.
func IsAffirmative(text string) bool {
	_, ok := affirmatives[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// User identifies who a message came from.
type User struct {
	ID        int64
	FirstName string
}

// Reply is what the bot answers. An empty Text means nothing is sent.
// Markdown replies contain no user-provided text except escaped names.
type Reply struct {
	Text     string
	Markdown bool
}

// Empty reports whether there is nothing to send.
func (r Reply) Empty() bool { return r.Text == "" }

func plain(text string) Reply { return Reply{Text: text} }

// Handler runs the conversation state machine against the store.
type Handler struct {
	store   *reminder.Store
	loc     *time.Location
	logger  *zap.Logger
	metrics *metrics.Collector
}

// Option configures a Handler.
type Option func(*Handler)

// WithLocation sets the location user-supplied dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(h *Handler) { h.loc = loc }
}

// WithLogger sets the handler logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler creates a handler over store.
func NewHandler(store *reminder.Store, opts ...Option) *Handler {
	h := &Handler{
		store:  store,
		loc:    time.Local,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle routes a raw inbound message. Commands are dispatched before the
// state machine sees the text, so /clear works in every state.
func (h *Handler) Handle(ctx context.Context, user User, text string) (Reply, error) {
	if name, ok := ParseCommand(text); ok {
		return h.HandleCommand(ctx, user, name)
	}
	return h.HandleText(ctx, user, text)
}

// HandleText advances the user's dialogue by one message.
func (h *Handler) HandleText(ctx context.Context, user User, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, nil
	}

	state := h.store.State(user.ID)
	h.metrics.MessageHandled("text", state.Pending.Stage.String())

	// Acknowledgment never consumes the message as dialogue input, so an
	// in-progress capture survives an "ok".
	if IsAffirmative(text) {
		return h.acknowledge(ctx, user)
	}

	switch state.Pending.Stage {
	case reminder.StageAwaitingDate:
		if err := h.store.SetPendingDate(ctx, user.ID, text); err != nil {
			return h.fail(err)
		}
		return plain(msgAskTime), nil

	case reminder.StageAwaitingTime:
		return h.completeDraft(ctx, user, state.Pending.DateText, text)

	default:
		category := reminder.Classify(text)
		if err := h.store.BeginDraft(ctx, user.ID, text, category); err != nil {
			return h.fail(err)
		}
		h.logger.Debug("draft started",
			zap.Int64("user_id", user.ID),
			zap.String("category", string(category)))
		return plain(categorizedText(category)), nil
	}
}

func (h *Handler) acknowledge(ctx context.Context, user User) (Reply, error) {
	n, err := h.store.MarkAcknowledged(ctx, user.ID)
	if err != nil {
		return h.fail(err)
	}
	if n == 0 {
		return Reply{}, nil
	}
	h.metrics.Acknowledged(n)
	h.logger.Info("reminders acknowledged", zap.Int64("user_id", user.ID), zap.Int("count", n))
	return plain(msgAcknowledged), nil
}

// completeDraft parses the date/time pair. On failure the pair is restarted
// from the date so the prompt and the state agree.
func (h *Handler) completeDraft(ctx context.Context, user User, dateText, timeText string) (Reply, error) {
	dueAt, err := reminder.ParseDateTime(dateText, timeText, h.loc)
	if err != nil {
		h.metrics.ParseFailed()
		h.logger.Debug("date/time not recognized",
			zap.Int64("user_id", user.ID),
			zap.String("date", dateText),
			zap.String("time", timeText))
		if err := h.store.RestartDraft(ctx, user.ID); err != nil {
			return h.fail(err)
		}
		return plain(msgInvalid), nil
	}

	r, err := h.store.CompleteDraft(ctx, user.ID, dueAt)
	if err != nil {
		return h.fail(err)
	}
	h.metrics.ReminderCreated(string(r.Category))
	h.logger.Info("reminder scheduled",
		zap.String("id", r.ID),
		zap.Int64("user_id", user.ID),
		zap.Time("due_at", r.DueAt))
	return plain(confirmationText(r)), nil
}

// HandleCommand answers one of the stateless commands. name is given without
// the leading slash.
func (h *Handler) HandleCommand(ctx context.Context, user User, name string) (Reply, error) {
	if _, known := knownCommands[name]; known {
		h.metrics.MessageHandled("command", name)
	} else {
		// Command names are user input; keep the label set closed.
		h.metrics.MessageHandled("command", "unknown")
	}

	switch name {
	case CommandStart:
		return Reply{Text: startText(user.FirstName), Markdown: true}, nil

	case CommandHelp:
		return Reply{Text: helpText, Markdown: true}, nil

	case CommandViewTodos:
		items := h.store.Tasks(user.ID)
		if len(items) == 0 {
			return plain(msgNoTodos), nil
		}
		return plain(itemsText("✅ LA TUA TO-DO LIST:", items)), nil

	case CommandViewRemembers:
		items := h.store.Remembers(user.ID)
		if len(items) == 0 {
			return plain(msgNoRemembers), nil
		}
		return plain(itemsText("📌 COSE DA RICORDARE:", items)), nil

	case CommandViewReminders:
		reminders := h.store.ListByUser(user.ID)
		if len(reminders) == 0 {
			return plain(msgNoReminders), nil
		}
		return plain(remindersText(reminders)), nil

	case CommandClear:
		if err := h.store.ClearUser(ctx, user.ID); err != nil {
			return h.fail(err)
		}
		h.logger.Info("user cleared", zap.Int64("user_id", user.ID))
		return plain(msgCleared), nil

	default:
		return plain(msgUnknownCommand), nil
	}
}

func (h *Handler) fail(err error) (Reply, error) {
	if !errors.Is(err, reminder.ErrNoDraft) {
		h.metrics.PersistFailed()
	}
	return Reply{}, err
}

// ParseCommand splits "/name@bot args" into name. ok is false for text that
// is not a command.
func ParseCommand(text string) (name string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", false
	}
	name = fields[0]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name), name != ""
}
