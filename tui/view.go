package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
	"github.com/Sahil-Bhoite/Mars-2.0/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#B33A3A")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B575"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D8AF4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F25D94"))

	sourceStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("#888888"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8B339"))

	fileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	helpStyle = lipgloss.NewStyle().
			Faint(true).
			Foreground(lipgloss.Color("#626262"))
)

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.showPicker {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Mars 2.0 — pick a file to upload"),
			"",
			m.picker.View(),
			"",
			helpStyle.Render("enter to select • esc to cancel"),
		)
	}

	sections := []string{
		titleStyle.Render("Mars 2.0 — chat with your documents"),
		m.statusLine(),
		m.viewport.View(),
		m.filesSection(),
		m.inputLine(),
	}
	if m.showHelp {
		sections = append(sections, helpStyle.Render(helpText))
	} else {
		sections = append(sections, helpStyle.Render("ctrl+o upload • ctrl+g model • /help for more • ctrl+c quit"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

const helpText = `commands: /clear  reset the session    /remove <file>  drop a file locally
          /model  toggle gemini/ollama  /help  toggle this help
keys:     ctrl+o file picker • ctrl+g toggle model • pgup/pgdown scroll • ctrl+c quit
dropping files into the drop directory uploads them automatically`

func (m Model) statusLine() string {
	sessionID := m.store.ID()
	if sessionID == "" {
		sessionID = "none"
	}
	line := fmt.Sprintf("session: %s • files: %d • chunks: %d • model: %s",
		sessionID, len(m.store.Files()), m.store.TotalChunks(), m.modelLabel(m.chatCtl.Model()))
	if m.watcher != nil {
		line += " • drop dir: " + m.watcher.Dir()
	}
	return statusStyle.Render(line)
}

func (m Model) filesSection() string {
	var lines []string

	files := m.store.Files()
	if len(files) == 0 {
		lines = append(lines, fileStyle.Render("no files uploaded — ctrl+o to pick one"))
	} else {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, fmt.Sprintf("%s (%d chunks)", f.Name, f.Chunks))
		}
		lines = append(lines, fileStyle.Render("files: "+strings.Join(names, ", ")))
	}

	if m.uploadCtl.Pending() {
		lines = append(lines, noticeStyle.Render(m.spin.View() + " uploading..."))
	}
	if notice := m.uploadCtl.Notice(); notice != "" {
		lines = append(lines, noticeStyle.Render(notice))
	}
	if m.flash != "" {
		lines = append(lines, noticeStyle.Render(m.flash))
	}
	return strings.Join(lines, "\n")
}

func (m Model) inputLine() string {
	if m.chatCtl.Pending() {
		return m.spin.View() + " thinking..."
	}
	return m.input.View()
}

// transcriptHeight is what is left for the viewport once the fixed chrome
// (title, status, files, input, help) has claimed its lines.
func (m Model) transcriptHeight() int {
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	return h
}

// refreshTranscript rebuilds the viewport content from the store and keeps
// the view pinned to the latest message.
func (m *Model) refreshTranscript() {
	var b strings.Builder
	for _, msg := range m.store.Messages() {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderMessage(msg session.Message) string {
	width := m.width - 2
	if width < 20 {
		width = 20
	}

	if msg.Role == session.RoleUser {
		return userStyle.Render("You: ") + msg.Content + "\n"
	}

	label := "Mars"
	if msg.Model != "" {
		label = "Mars/" + msg.Model
	}
	if msg.IsError {
		return assistantStyle.Render(label+": ") + errorStyle.Render(msg.Content) + "\n"
	}

	body := renderMarkdown(msg.Content, width)
	out := assistantStyle.Render(label+":") + "\n" + body
	if len(msg.Sources) > 0 {
		out += sourceStyle.Render("sources: "+strings.Join(msg.Sources, ", ")) + "\n"
	}
	return out
}

// renderMarkdown renders assistant markdown for the terminal, falling back
// to the raw text when rendering fails.
func renderMarkdown(content string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content + "\n"
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return rendered
}

// modelLabel resolves a wire model id to its display name when the backend
// model list has been fetched.
func (m Model) modelLabel(id string) string {
	if name, ok := m.modelNames[id]; ok {
		return name
	}
	switch id {
	case api.ModelGemini:
		return "gemini (online)"
	case api.ModelOllama:
		return "ollama (local)"
	}
	return id
}
