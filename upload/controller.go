package upload

import (
	"context"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
	"github.com/Sahil-Bhoite/Mars-2.0/session"
)

// Backend is the slice of the transport client the upload controller needs.
type Backend interface {
	Upload(ctx context.Context, files []api.FilePayload, sessionID string) (*api.UploadResponse, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// ResultMsg is delivered to the event loop when an upload call settles.
// Skipped lists files that were filtered out client-side before the request
// because the backend does not support their extension.
type ResultMsg struct {
	Response *api.UploadResponse
	Err      error
	Skipped  []string
}

// Controller turns a batch of selected files into session state updates.
// Both file origins (the drop directory and the picker) funnel into Submit
// and behave identically.
type Controller struct {
	store   *session.Store
	backend Backend
	logger  *zap.Logger
	pending bool
	notice  string
	formats map[string]struct{}
}

// NewController creates an upload controller.
func NewController(store *session.Store, backend Backend, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:   store,
		backend: backend,
		logger:  logger,
	}
}

// Pending reports whether an upload call is in flight.
func (c *Controller) Pending() bool {
	return c.pending
}

// Notice returns the current user-facing upload notice ("" when none).
// It is rendered next to the file list and replaced by the next operation.
func (c *Controller) Notice() string {
	return c.notice
}

// SetFormats records the backend's supported extensions (without dots).
// When known, unsupported files are skipped before the request, mirroring
// the filter the backend itself applies.
func (c *Controller) SetFormats(extensions []string) {
	if len(extensions) == 0 {
		return
	}
	c.formats = make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		c.formats[strings.ToLower(ext)] = struct{}{}
	}
}

// supported reports whether the backend can ingest the file. Unknown format
// lists are treated as permissive; the backend remains the authority.
func (c *Controller) supported(name string) bool {
	if c.formats == nil {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	_, ok := c.formats[ext]
	return ok
}

// Submit uploads a batch of files as a single multipart request carrying
// the current session id when one exists. An empty batch is a no-op.
// The returned command settles as a ResultMsg.
func (c *Controller) Submit(files []api.FilePayload) tea.Cmd {
	if len(files) == 0 {
		return nil
	}

	var accepted []api.FilePayload
	var skipped []string
	for _, f := range files {
		if c.supported(f.Name) {
			accepted = append(accepted, f)
		} else {
			skipped = append(skipped, f.Name)
		}
	}
	if len(accepted) == 0 {
		c.notice = "unsupported file type: " + strings.Join(skipped, ", ")
		return nil
	}

	c.pending = true
	c.notice = ""
	sessionID := c.store.ID()

	backend := c.backend
	return func() tea.Msg {
		response, err := backend.Upload(context.Background(), accepted, sessionID)
		return ResultMsg{Response: response, Err: err, Skipped: skipped}
	}
}

// Resolve applies a settled upload call. On success the first response's
// session id is adopted, accepted files become descriptors, and per-file
// failures surface as a notice without blocking the accepted files. On a
// hard failure no descriptors are added and a single error notice is set.
// The pending flag is released on every path.
func (c *Controller) Resolve(msg ResultMsg) {
	c.pending = false

	if msg.Err != nil {
		c.notice = "upload failed, verify the backend is reachable"
		if detail := api.ErrorDetail(msg.Err); detail != "" {
			c.notice = detail
		}
		c.logger.Warn("upload failed", zap.Error(msg.Err))
		return
	}

	response := msg.Response
	c.store.SetSession(response.SessionID)

	descriptors := make([]session.FileDescriptor, 0, len(response.ProcessedFiles))
	for _, f := range response.ProcessedFiles {
		descriptors = append(descriptors, session.FileDescriptor{
			Name:   f.Filename,
			Chunks: f.Chunks,
		})
	}
	c.store.AddFiles(descriptors)

	failed := make([]string, 0, len(response.Errors)+len(msg.Skipped))
	for _, e := range response.Errors {
		failed = append(failed, e.Filename)
	}
	failed = append(failed, msg.Skipped...)
	if len(failed) > 0 {
		c.notice = "failed to process: " + strings.Join(failed, ", ")
	}

	c.logger.Info("upload settled",
		zap.String("session_id", response.SessionID),
		zap.Int("accepted", len(response.ProcessedFiles)),
		zap.Int("failed", len(failed)))
}

// RemoveFile drops every tracked descriptor with the given name. This is a
// local-state operation only; the backend's vectors are left untouched.
func (c *Controller) RemoveFile(name string) {
	c.store.RemoveFile(name)
}

// Clear resets the local session state and returns a fire-and-forget
// command that asks the backend to delete the old session. The deletion's
// failure is logged, never surfaced, and never blocks the local clear,
// which has already happened by the time the command runs.
func (c *Controller) Clear() tea.Cmd {
	sessionID := c.store.ID()
	c.store.Clear()
	c.notice = ""

	if sessionID == "" {
		return nil
	}

	backend := c.backend
	logger := c.logger
	return func() tea.Msg {
		if err := backend.DeleteSession(context.Background(), sessionID); err != nil {
			logger.Warn("session delete failed",
				zap.String("session_id", sessionID),
				zap.Error(err))
		}
		return nil
	}
}
