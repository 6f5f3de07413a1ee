package chat

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
	"github.com/Sahil-Bhoite/Mars-2.0/session"
)

// DefaultSessionID is sent when the user chats before any upload, so a
// session-less question is still a well-formed request.
const DefaultSessionID = "default"

// Backend is the slice of the transport client the chat controller needs.
type Backend interface {
	Chat(ctx context.Context, request api.ChatRequest) (*api.ChatResponse, error)
}

// ResultMsg is delivered to the event loop when a chat call settles.
type ResultMsg struct {
	Response *api.ChatResponse
	Err      error
}

// Controller turns one submitted question into one transcript exchange.
// A pending flag keeps at most one chat call in flight; the user message is
// appended synchronously on submission and the assistant message when the
// call settles, so transcript order always matches submission order.
type Controller struct {
	store   *session.Store
	backend Backend
	logger  *zap.Logger
	model   string
	pending bool
}

// NewController creates a chat controller using the given model id for
// outgoing requests.
func NewController(store *session.Store, backend Backend, model string, logger *zap.Logger) *Controller {
	if model == "" {
		model = api.ModelGemini
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:   store,
		backend: backend,
		logger:  logger,
		model:   model,
	}
}

// Pending reports whether a chat call is in flight.
func (c *Controller) Pending() bool {
	return c.pending
}

// Model returns the model id used by the next submission.
func (c *Controller) Model() string {
	return c.model
}

// SetModel changes the model used by the next submission. It has no effect
// on messages already in the transcript.
func (c *Controller) SetModel(model string) {
	c.model = model
}

// ToggleModel flips between the online and local model.
func (c *Controller) ToggleModel() {
	if c.model == api.ModelOllama {
		c.model = api.ModelGemini
	} else {
		c.model = api.ModelOllama
	}
}

// Submit accepts one user message. Empty-after-trim input and submissions
// made while a call is pending are rejected as silent no-ops (nil command).
// Otherwise the user message is appended to the transcript immediately and
// the returned command performs the network call, settling as a ResultMsg.
func (c *Controller) Submit(input string) tea.Cmd {
	text := strings.TrimSpace(input)
	if text == "" || c.pending {
		return nil
	}

	c.pending = true
	c.store.AppendMessage(session.Message{
		Role:    session.RoleUser,
		Content: text,
	})

	request := api.ChatRequest{
		Message:   text,
		SessionID: c.store.ID(),
		Model:     c.model,
	}
	if request.SessionID == "" {
		request.SessionID = DefaultSessionID
	}

	backend := c.backend
	return func() tea.Msg {
		response, err := backend.Chat(context.Background(), request)
		return ResultMsg{Response: response, Err: err}
	}
}

// Resolve applies a settled chat call: exactly one assistant message is
// appended, carrying the answer or an error marker, and the pending flag is
// released regardless of outcome. Every error message carries the uniform
// "Error: " prefix, whether it wraps a server detail or the generic
// "failed to get response" fallback.
func (c *Controller) Resolve(msg ResultMsg) {
	c.pending = false

	if msg.Err != nil {
		content := "Error: failed to get response"
		if detail := api.ErrorDetail(msg.Err); detail != "" {
			content = "Error: " + detail
		}
		c.logger.Warn("chat failed", zap.Error(msg.Err))
		c.store.AppendMessage(session.Message{
			Role:    session.RoleAssistant,
			Content: content,
			IsError: true,
		})
		return
	}

	c.store.AppendMessage(session.Message{
		Role:    session.RoleAssistant,
		Content: msg.Response.Response,
		Sources: msg.Response.Sources,
		Model:   msg.Response.Model,
	})
}
