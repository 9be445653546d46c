// Package repl is a terminal front end for the reminder conversation. It
// talks to the same handler the Telegram poller uses and prints scheduler
// notifications inline.
package repl

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/notexe/promemoria-bot/internal/conversation"
	"github.com/notexe/promemoria-bot/internal/ui"
)

// MessageHandler answers one message.
type MessageHandler interface {
	Handle(ctx context.Context, user conversation.User, text string) (conversation.Reply, error)
}

type REPL struct {
	handler   MessageHandler
	user      conversation.User
	formatter *ui.Formatter
	logger    *zap.Logger

	mu      sync.Mutex
	rl      *readline.Instance
	out     io.Writer
	stopped bool
}

// NewREPL creates a console bound to one user. Call Start to attach a
// terminal; until then output goes to out.
func NewREPL(handler MessageHandler, user conversation.User, formatter *ui.Formatter, out io.Writer, logger *zap.Logger) *REPL {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &REPL{
		handler:   handler,
		user:      user,
		formatter: formatter,
		logger:    logger,
		out:       out,
	}
}

// Start reads lines until the user quits, input ends, ctx is done or Stop
// is called.
func (r *REPL) Start(ctx context.Context, storage string) error {
	if r.isStopped() {
		return nil
	}

	rl, err := setupReadline(r.formatter.FormatUserPrompt(r.promptName()))
	if err != nil {
		return fmt.Errorf("failed to setup readline: %w", err)
	}
	defer rl.Close()

	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.rl = rl
	r.out = rl.Stdout()
	r.mu.Unlock()

	r.print(r.formatter.FormatWelcome(r.user.ID, storage))

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := r.readInput()
		if err != nil {
			if isEOF(err) {
				r.println("\nCiao!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		if quit := r.HandleLine(ctx, input); quit {
			r.println("Ciao!")
			return nil
		}
	}
}

// Stop closes the terminal so a blocked Start returns. It is safe to call
// before Start and more than once.
func (r *REPL) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.rl != nil {
		r.rl.Close()
	}
}

func (r *REPL) isStopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// HandleLine processes one line of input and reports whether the user
// asked to leave.
func (r *REPL) HandleLine(ctx context.Context, input string) bool {
	if input == "" {
		return false
	}
	if isQuit(input) {
		return true
	}

	reply, err := r.handler.Handle(ctx, r.user, input)
	if err != nil {
		r.logger.Error("failed to handle message", zap.Error(err))
		r.displayError(err)
		return false
	}
	r.displayReply(reply)
	return false
}

// Send prints a notification. It satisfies the scheduler's delivery
// interface so the console can run without Telegram.
func (r *REPL) Send(_ context.Context, userID int64, text string) error {
	if userID != r.user.ID {
		// Reminders created through Telegram or MCP for other users.
		r.displayInfo(fmt.Sprintf("[utente %d]", userID))
	}
	r.displayNotice(text)
	return nil
}

func (r *REPL) promptName() string {
	if r.user.FirstName != "" {
		return r.user.FirstName
	}
	return "tu"
}
