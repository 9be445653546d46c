package telegram

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/notexe/promemoria-bot/internal/conversation"
)

// ParseModeMarkdown is Telegram's legacy Markdown parse mode.
const ParseModeMarkdown = "Markdown"

const msgInternalError = "⚠️ Si è verificato un errore, riprova più tardi."

// MessageHandler answers one inbound text message.
type MessageHandler interface {
	Handle(ctx context.Context, user conversation.User, text string) (conversation.Reply, error)
}

// Poller long-polls getUpdates and feeds text messages to a handler.
type Poller struct {
	client     *Client
	handler    MessageHandler
	logger     *zap.Logger
	timeout    int
	retryDelay time.Duration
	offset     int64
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithPollTimeout sets the long-poll timeout in seconds.
func WithPollTimeout(seconds int) PollerOption {
	return func(p *Poller) { p.timeout = seconds }
}

// WithRetryDelay sets the pause after a failed getUpdates call.
func WithRetryDelay(d time.Duration) PollerOption {
	return func(p *Poller) { p.retryDelay = d }
}

// WithPollerLogger sets the poller logger.
func WithPollerLogger(logger *zap.Logger) PollerOption {
	return func(p *Poller) { p.logger = logger }
}

// NewPoller creates a poller that answers through client.
func NewPoller(client *Client, handler MessageHandler, opts ...PollerOption) *Poller {
	p := &Poller{
		client:     client,
		handler:    handler,
		logger:     zap.NewNop(),
		timeout:    30,
		retryDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("polling for updates", zap.Int("timeout_seconds", p.timeout))

	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := p.client.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warn("getUpdates failed", zap.Error(err))

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.retryDelay):
			}
			continue
		}

		p.Process(ctx, updates)
	}
}

// Process handles a batch of updates and advances the offset past them.
func (p *Poller) Process(ctx context.Context, updates []Update) {
	for _, u := range updates {
		if u.UpdateID >= p.offset {
			p.offset = u.UpdateID + 1
		}
		p.dispatch(ctx, u)
	}
}

// Offset is the next update ID to request.
func (p *Poller) Offset() int64 { return p.offset }

func (p *Poller) dispatch(ctx context.Context, u Update) {
	msg := u.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		return
	}

	user := conversation.User{ID: msg.From.ID, FirstName: msg.From.FirstName}
	reply, err := p.handler.Handle(ctx, user, msg.Text)
	if err != nil {
		p.logger.Error("failed to handle message",
			zap.Int64("user_id", user.ID),
			zap.Int64("update_id", u.UpdateID),
			zap.Error(err))
		reply = conversation.Reply{Text: msgInternalError}
	}
	if reply.Empty() {
		return
	}

	opts := SendOptions{}
	if reply.Markdown {
		opts.ParseMode = ParseModeMarkdown
	}

	if err := p.client.SendMessage(ctx, msg.Chat.ID, reply.Text, opts); err != nil {
		var apiErr *APIError
		if opts.ParseMode != "" && errors.As(err, &apiErr) {
			// Retry without formatting if Telegram rejects the entities.
			err = p.client.SendMessage(ctx, msg.Chat.ID, reply.Text, SendOptions{})
		}
		if err != nil {
			p.logger.Error("failed to send reply",
				zap.Int64("chat_id", msg.Chat.ID),
				zap.Error(err))
		}
	}
}
