package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	UserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")). // Bright cyan
			Bold(true)

	BotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")) // Soft green

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // Coral red
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")) // Warm yellow

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	// Notifications arrive unprompted, so they get a box.
	NoticeStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("215")). // Orange
			Padding(0, 1)
)

type Formatter struct {
	colored bool
}

func NewFormatter(colored bool) *Formatter {
	return &Formatter{colored: colored}
}

func (f *Formatter) FormatUserPrompt(name string) string {
	prompt := name + "> "
	if f.colored {
		return UserStyle.Render(prompt)
	}
	return prompt
}

// FormatReply renders a bot answer. Markdown replies go through glamour.
func (f *Formatter) FormatReply(text string, markdown bool) string {
	if markdown {
		text = f.RenderMarkdown(text)
	}
	prefix := "Bot: "
	if f.colored {
		prefix = BotStyle.Render(prefix)
	}
	if strings.Contains(text, "\n") {
		return prefix + "\n" + text
	}
	return prefix + text
}

// RenderMarkdown converts Markdown to terminal output, falling back to the
// source text if rendering fails.
func (f *Formatter) RenderMarkdown(content string) string {
	style := glamour.WithAutoStyle()
	if !f.colored {
		style = glamour.WithStandardStyle("notty")
	}

	renderer, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimSpace(rendered)
}

func (f *Formatter) FormatNotice(text string) string {
	if f.colored {
		return NoticeStyle.Render(text)
	}
	return "----\n" + text + "\n----"
}

func (f *Formatter) FormatError(err error) string {
	prefix := "Error: "
	if f.colored {
		prefix = ErrorStyle.Render(prefix)
	}
	return prefix + err.Error()
}

func (f *Formatter) FormatInfo(info string) string {
	if f.colored {
		return InfoStyle.Render(info)
	}
	return info
}

func (f *Formatter) FormatWelcome(userID int64, storage string) string {
	title := "Promemoria console"
	details := fmt.Sprintf("user %d · storage %s · /quit to exit", userID, storage)
	if f.colored {
		return HeaderStyle.Render(title) + "\n" + DimStyle.Render(details) + "\n\n"
	}
	return title + "\n" + details + "\n\n"
}
