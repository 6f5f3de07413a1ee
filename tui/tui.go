// Package tui renders the client state and feeds user events into the
// controllers. All state mutation happens inside Update, so the store only
// ever sees a single execution context.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
	"github.com/Sahil-Bhoite/Mars-2.0/chat"
	"github.com/Sahil-Bhoite/Mars-2.0/dropwatch"
	"github.com/Sahil-Bhoite/Mars-2.0/session"
	"github.com/Sahil-Bhoite/Mars-2.0/upload"
)

// dropMsg carries a batch from the drop directory watcher.
type dropMsg struct {
	batch dropwatch.Batch
}

// pickedMsg carries a file read from the picker selection.
type pickedMsg struct {
	file api.FilePayload
	err  error
}

// modelsMsg carries the backend's model list, fetched at startup.
type modelsMsg struct {
	response *api.ModelsResponse
	err      error
}

// formatsMsg carries the backend's supported extensions, fetched at startup.
type formatsMsg struct {
	extensions []string
	err        error
}

// Model is the bubbletea model gluing the controllers to the terminal.
type Model struct {
	store     *session.Store
	chatCtl   *chat.Controller
	uploadCtl *upload.Controller
	client    *api.Client
	watcher   *dropwatch.Watcher
	logger    *zap.Logger

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	picker   filepicker.Model

	showPicker bool
	showHelp   bool
	flash      string
	modelNames map[string]string
	width      int
	height     int
	ready      bool
}

// NewModel wires the TUI around already-constructed components. watcher may
// be nil when the drop directory is disabled.
func NewModel(store *session.Store, chatCtl *chat.Controller, uploadCtl *upload.Controller,
	client *api.Client, watcher *dropwatch.Watcher, logger *zap.Logger) Model {

	input := textinput.New()
	input.Placeholder = "Ask about your documents (or /help)"
	input.Prompt = "> "
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	picker := filepicker.New()
	if home, err := os.UserHomeDir(); err == nil {
		picker.CurrentDirectory = home
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return Model{
		store:      store,
		chatCtl:    chatCtl,
		uploadCtl:  uploadCtl,
		client:     client,
		watcher:    watcher,
		logger:     logger,
		input:      input,
		viewport:   viewport.New(0, 0),
		spin:       spin,
		picker:     picker,
		modelNames: make(map[string]string),
	}
}

// Start runs the TUI until the user quits.
func Start(m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.fetchModels(),
		m.fetchFormats(),
	}
	if m.watcher != nil {
		cmds = append(cmds, waitForDrop(m.watcher.Batches()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = m.transcriptHeight()
		m.input.Width = msg.Width - 4
		m.picker.Height = msg.Height - 6
		m.ready = true
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case chat.ResultMsg:
		m.chatCtl.Resolve(msg)
		m.refreshTranscript()
		return m, nil

	case upload.ResultMsg:
		m.uploadCtl.Resolve(msg)
		return m, nil

	case dropMsg:
		cmds := []tea.Cmd{waitForDrop(m.watcher.Batches())}
		if cmd := m.uploadCtl.Submit(msg.batch.Files); cmd != nil {
			cmds = append(cmds, cmd, m.spin.Tick)
		}
		return m, tea.Batch(cmds...)

	case pickedMsg:
		if msg.err != nil {
			m.logger.Warn("picked file unreadable", zap.Error(msg.err))
			m.flash = fmt.Sprintf("failed to read file: %v", msg.err)
			return m, nil
		}
		if cmd := m.uploadCtl.Submit([]api.FilePayload{msg.file}); cmd != nil {
			return m, tea.Batch(cmd, m.spin.Tick)
		}
		return m, nil

	case modelsMsg:
		if msg.err == nil {
			for _, info := range msg.response.Models {
				m.modelNames[info.ID] = fmt.Sprintf("%s (%s)", info.Name, info.Type)
			}
		}
		return m, nil

	case formatsMsg:
		if msg.err == nil {
			m.uploadCtl.SetFormats(msg.extensions)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.chatCtl.Pending() && !m.uploadCtl.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	if m.showPicker {
		return m.updatePicker(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showPicker {
		if msg.String() == "esc" {
			m.showPicker = false
			return m, nil
		}
		return m.updatePicker(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		if m.watcher != nil {
			m.watcher.Close()
		}
		return m, tea.Quit

	case "ctrl+o":
		m.showPicker = true
		return m, m.picker.Init()

	case "ctrl+g":
		m.chatCtl.ToggleModel()
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		return m.handleSubmit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	trimmed := strings.TrimSpace(value)

	if strings.HasPrefix(trimmed, "/") {
		m.input.SetValue("")
		return m.handleCommand(trimmed)
	}

	cmd := m.chatCtl.Submit(value)
	if cmd == nil {
		// Rejected: empty input or a call already pending.
		return m, nil
	}
	m.input.SetValue("")
	m.flash = ""
	m.refreshTranscript()
	return m, tea.Batch(cmd, m.spin.Tick)
}

// handleCommand runs the slash commands.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	switch parts[0] {
	case "/clear":
		m.logger.Info("clearing session", zap.String("session_id", m.store.ID()))
		cmd := m.uploadCtl.Clear()
		m.flash = "session cleared"
		m.refreshTranscript()
		return m, cmd

	case "/remove":
		if len(parts) < 2 {
			m.flash = "usage: /remove <filename>"
			return m, nil
		}
		name := strings.TrimSpace(strings.TrimPrefix(input, "/remove"))
		m.uploadCtl.RemoveFile(name)
		return m, nil

	case "/model":
		m.chatCtl.ToggleModel()
		return m, nil

	case "/help":
		m.showHelp = !m.showHelp
		return m, nil

	default:
		m.flash = "unknown command: " + parts[0]
		return m, nil
	}
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if didSelect, path := m.picker.DidSelectFile(msg); didSelect {
		m.showPicker = false
		return m, readPickedFile(path)
	}
	return m, cmd
}

// waitForDrop blocks on the watcher channel and resumes the event loop when
// a batch lands.
func waitForDrop(batches <-chan dropwatch.Batch) tea.Cmd {
	return func() tea.Msg {
		batch, ok := <-batches
		if !ok {
			return nil
		}
		return dropMsg{batch: batch}
	}
}

func readPickedFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return pickedMsg{err: err}
		}
		return pickedMsg{file: api.FilePayload{Name: filepath.Base(path), Data: data}}
	}
}

func (m Model) fetchModels() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		response, err := client.Models(context.Background())
		return modelsMsg{response: response, err: err}
	}
}

func (m Model) fetchFormats() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		extensions, err := client.SupportedFormats(context.Background())
		return formatsMsg{extensions: extensions, err: err}
	}
}
