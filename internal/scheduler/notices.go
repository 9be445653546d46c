package scheduler

import (
	"fmt"
	"time"

	"github.com/notexe/promemoria-bot/internal/reminder"
)

// Notification windows relative to the due time.
const (
	FirstWarningWindow  = 10 * time.Minute
	SecondWarningWindow = 5 * time.Minute
	OverdueGrace        = 5 * time.Minute
)

// Notice is the staged notification a reminder is due for.
type Notice struct {
	// From is the stage the reminder must still be in; the notice moves it
	// to From+1.
	From  int
	Title string
	Lead  string
}

var notices = [reminder.MaxStage]Notice{
	{From: 0, Title: "🔔 PRIMO AVVISO", Lead: "Tra 10 minuti"},
	{From: 1, Title: "🔔 SECONDO AVVISO", Lead: "Tra 5 minuti"},
	{From: 2, Title: "🔔 AVVISO IMMEDIATO", Lead: "È il momento"},
}

// NextNotice reports which notification, if any, r should receive at now.
// At most one notice applies because each one requires a distinct stage.
func NextNotice(r reminder.Reminder, now time.Time) (Notice, bool) {
	if r.Acknowledged || r.Stage >= reminder.MaxStage {
		return Notice{}, false
	}

	diff := r.DueAt.Sub(now)
	switch {
	case r.Stage == 0 && diff > 0 && diff <= FirstWarningWindow:
		return notices[0], true
	case r.Stage == 1 && diff > 0 && diff <= SecondWarningWindow:
		return notices[1], true
	case r.Stage == 2 && diff <= 0 && diff >= -OverdueGrace:
		return notices[2], true
	}
	return Notice{}, false
}

// Text renders the notice for r.
func (n Notice) Text(r reminder.Reminder) string {
	label := "⏰ Orario"
	if n.From == 2 {
		label = "⏰ Ora"
	}
	return fmt.Sprintf("%s\n\n%s: %s\n%s: %s\n\nRispondi 'OK' per confermare!",
		n.Title, n.Lead, r.Text, label, r.DueAt.Format("15:04"))
}
