package conversation

import (
	"fmt"
	"strings"

	"github.com/notexe/promemoria-bot/internal/reminder"
)

// DueLayout formats due times in confirmations and list views.
const DueLayout = "02/01/2006 alle 15:04"

const helpText = `*Formato data/ora consigliato:*

- Data: GG/MM/AAAA (es: 25/12/2024)
- Ora: HH:MM (es: 14:30)

*Sistema di notifiche:*

- 1° notifica: 10 minuti prima
- 2° notifica: 5 minuti prima (se non rispondi OK)
- 3° notifica: all'orario esatto

Rispondi 'ok' per confermare e fermare le notifiche!`

const startTemplate = `Ciao %s! Sono il tuo assistente personale! ✨

*Come funziono:*

1. Scrivi un task o promemoria
2. Ti chiederò data e ora
3. Ti ricorderò quando è il momento!

*Comandi disponibili:*

- /view\_todos - Vedi to-do list
- /view\_remembers - Vedi remember
- /view\_reminders - Vedi tutti i promemoria
- /clear - Pulisci tutto
- /help - Aiuto`

const (
	msgAskDate        = "📅 Ora dimmi la data (formato GG/MM/AAAA):"
	msgAskTime        = "📅 Ok! Ora mandami l'ora (formato HH:MM):"
	msgInvalid        = "❌ Formato data/ora non valido. Ricominciamo:\n📅 Data (GG/MM/AAAA):"
	msgAcknowledged   = "✅ Grazie! Ho registrato la tua conferma."
	msgCleared        = "🗑️ Tutto pulito! Liste e promemoria cancellati."
	msgUnknownCommand = "❓ Comando sconosciuto. Usa /help per vedere i comandi disponibili."
	msgNoTodos        = "📝 La tua to-do list è vuota!"
	msgNoRemembers    = "🧠 Non hai nulla da ricordare!"
	msgNoReminders    = "⏰ Non hai promemoria attivi!"
)

// markdownEscaper escapes the characters Telegram's legacy Markdown treats as
// entity markers. CommonMark accepts the same backslash escapes.
var markdownEscaper = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

func startText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "amico"
	}
	return fmt.Sprintf(startTemplate, markdownEscaper.Replace(name))
}

func categoryLabel(c reminder.Category) (emoji, label string) {
	if c == reminder.CategoryTask {
		return "✅", "TO-DO"
	}
	return "📌", "REMEMBER"
}

func categorizedText(c reminder.Category) string {
	emoji, label := categoryLabel(c)
	return fmt.Sprintf("%s Ho categorizzato come: %s\n\n%s", emoji, label, msgAskDate)
}

func confirmationText(r reminder.Reminder) string {
	return fmt.Sprintf("✅ Perfetto! Ti ricorderò:\n\"%s\"\n📅 Il %s\n\n"+
		"Riceverai:\n"+
		"• 1 notifica 10 minuti prima\n"+
		"• 1 notifica 5 minuti prima\n"+
		"• 1 notifica all'orario esatto\n\n"+
		"Rispondi 'ok' per confermare!",
		r.Text, r.DueAt.Format(DueLayout))
}

func itemsText(header string, items []reminder.Item) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n   ⏰ %s\n\n", i+1, item.Text, item.DueAt.Format(DueLayout))
	}
	return strings.TrimRight(b.String(), "\n")
}

func remindersText(reminders []reminder.Reminder) string {
	var b strings.Builder
	b.WriteString("⏰ I TUOI PROMEMORIA:\n\n")
	for i, r := range reminders {
		status := "⏳ In attesa"
		if r.Acknowledged {
			status = "✅ Confermato"
		}
		fmt.Fprintf(&b, "%d. %s\n   📅 %s\n   %s\n\n", i+1, r.Text, r.DueAt.Format(DueLayout), status)
	}
	return strings.TrimRight(b.String(), "\n")
}
