package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// DefaultTimeout for backend requests. Chat answers can take a while when
// the backend is running a local model.
const DefaultTimeout = 120 * time.Second

// uploadFieldName is the multipart field the backend reads file parts from.
const uploadFieldName = "files"

// APIError is a server-reported request failure. Detail carries the
// backend's `detail` string when the error body had one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// ErrorDetail returns the server-supplied detail message when err wraps an
// APIError that carried one, otherwise "".
func ErrorDetail(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// Client issues requests against the Mars backend. It performs exactly one
// network call per method invocation and never retries; transient failures
// are returned to the caller.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

// NewClient creates a backend client. An empty baseURL falls back to
// DefaultBaseURL, a zero timeout to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
	}
}

// BaseURL returns the resolved backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload sends every file in one multipart request. sessionID is attached
// as a form field when non-empty; on the very first upload it is omitted
// and the backend assigns a new session id in the response.
func (c *Client) Upload(ctx context.Context, files []FilePayload, sessionID string) (*UploadResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for _, f := range files {
		part, err := writer.CreateFormFile(uploadFieldName, f.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file for %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("failed to write form file for %s: %w", f.Name, err)
		}
	}
	if sessionID != "" {
		if err := writer.WriteField("session_id", sessionID); err != nil {
			return nil, fmt.Errorf("failed to write session_id field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	reqID := uuid.NewString()
	c.logger.Info("upload request",
		zap.String("request_id", reqID),
		zap.Int("files", len(files)),
		zap.String("session_id", sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var response UploadResponse
	if err := c.do(req, reqID, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// Chat sends one question and returns the backend's answer.
func (c *Client) Chat(ctx context.Context, request ChatRequest) (*ChatResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqID := uuid.NewString()
	c.logger.Info("chat request",
		zap.String("request_id", reqID),
		zap.String("session_id", request.SessionID),
		zap.String("model", request.Model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var response ChatResponse
	if err := c.do(req, reqID, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// DeleteSession asks the backend to drop a session and its vectors.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	reqID := uuid.NewString()
	c.logger.Info("delete session request",
		zap.String("request_id", reqID),
		zap.String("session_id", sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/session/"+sessionID, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, reqID, nil)
}

// SessionInfo fetches the backend's view of a session: tracked filenames
// and the total chunk count.
func (c *Client) SessionInfo(ctx context.Context, sessionID string) (*SessionInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var info SessionInfo
	if err := c.do(req, uuid.NewString(), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Models fetches the answer-generation models the backend offers.
func (c *Client) Models(ctx context.Context) (*ModelsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var response ModelsResponse
	if err := c.do(req, uuid.NewString(), &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// SupportedFormats fetches the file extensions the backend can ingest.
func (c *Client) SupportedFormats(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/supported-formats", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var response FormatsResponse
	if err := c.do(req, uuid.NewString(), &response); err != nil {
		return nil, err
	}
	return response.Extensions, nil
}

// do executes one request and decodes the response into out (skipped when
// out is nil). Non-2xx responses become an *APIError carrying the body's
// `detail` field when present.
func (c *Client) do(req *http.Request, reqID string, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("request_id", reqID),
			zap.Error(err))
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errBody struct {
			Detail string `json:"detail"`
		}
		if body, readErr := io.ReadAll(resp.Body); readErr == nil {
			if json.Unmarshal(body, &errBody) == nil {
				apiErr.Detail = errBody.Detail
			}
		}
		c.logger.Warn("request rejected",
			zap.String("request_id", reqID),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", apiErr.Detail))
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
