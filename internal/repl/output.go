package repl

import (
	"fmt"

	"github.com/notexe/promemoria-bot/internal/conversation"
)

// Writes go through rl.Stdout() once attached so notifications printed from
// the scheduler goroutine redraw the prompt instead of clobbering it.

func (r *REPL) print(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprint(r.out, s)
}

func (r *REPL) println(s string) {
	r.print(s + "\n")
}

func (r *REPL) displayReply(reply conversation.Reply) {
	if reply.Empty() {
		return
	}
	r.println(r.formatter.FormatReply(reply.Text, reply.Markdown))
	r.println("")
}

func (r *REPL) displayNotice(text string) {
	r.println("")
	r.println(r.formatter.FormatNotice(text))
	r.println("")
}

func (r *REPL) displayError(err error) {
	r.println(r.formatter.FormatError(err))
	r.println("")
}

func (r *REPL) displayInfo(msg string) {
	r.println(r.formatter.FormatInfo(msg))
}
