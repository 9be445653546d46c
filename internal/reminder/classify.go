package reminder

import "strings"

var taskKeywords = []string{
	"devo", "dovrei", "devi", "fare", "completare", "finire",
	"task", "compito", "lavoro", "progetto", "preparare",
	"scrivere", "leggere", "studiare", "comprare", "prenotare",
	"chiamare", "inviare", "mandare", "consegnare", "svolgere",
}

var rememberKeywords = []string{
	"ricordare", "ricorda", "memoria", "importante",
	"non dimenticare", "ricordati", "promemoria",
	"appuntamento", "data", "compleanno", "anniversario",
	"memorizza", "ricordarmi", "non scordare",
}

// Consulted only when the main scores tie.
var (
	taskTieBreak     = []string{"dovere", "compito", "lavoro", "project"}
	rememberTieBreak = []string{"compleanno", "anniversario", "appuntamento"}
)

// Classify files text as a task or a remember by keyword scoring.
// Keywords match as substrings, so a keyword embedded in a longer word still
// counts. Ties fall back to a short tie-break list and finally to
// CategoryRemember.
func Classify(text string) Category {
	lower := strings.ToLower(text)

	taskScore := countContained(lower, taskKeywords)
	rememberScore := countContained(lower, rememberKeywords)

	switch {
	case taskScore > rememberScore:
		return CategoryTask
	case rememberScore > taskScore:
		return CategoryRemember
	}

	switch {
	case countContained(lower, taskTieBreak) > 0:
		return CategoryTask
	case countContained(lower, rememberTieBreak) > 0:
		return CategoryRemember
	default:
		return CategoryRemember
	}
}

func countContained(s string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			n++
		}
	}
	return n
}
