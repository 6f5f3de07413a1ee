package api

// Model identifiers accepted by the backend.
const (
	ModelGemini = "gemini" // online, Google-hosted
	ModelOllama = "ollama" // local
)

// FilePayload is one file selected for upload: its name and raw content.
type FilePayload struct {
	Name string
	Data []byte
}

// ProcessedFile reports one file the backend accepted and chunked.
type ProcessedFile struct {
	Filename string `json:"filename"`
	Chunks   int    `json:"chunks"`
}

// FileError reports one file the backend rejected within an otherwise
// successful upload.
type FileError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// UploadResponse is the body of a successful POST /upload.
type UploadResponse struct {
	SessionID      string          `json:"session_id"`
	ProcessedFiles []ProcessedFile `json:"processed_files"`
	TotalChunks    int             `json:"total_chunks"`
	Errors         []FileError     `json:"errors"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Response  string   `json:"response"`
	Sources   []string `json:"sources,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	Model     string   `json:"model,omitempty"`
}

// ModelInfo describes one answer-generation model the backend offers.
type ModelInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Provider string `json:"provider"`
}

// ModelsResponse is the body of GET /models.
type ModelsResponse struct {
	Models  []ModelInfo `json:"models"`
	Default string      `json:"default"`
}

// SessionInfo is the body of GET /session/{id}.
type SessionInfo struct {
	Files       []string `json:"files"`
	TotalChunks int      `json:"total_chunks"`
}

// FormatsResponse is the body of GET /supported-formats.
type FormatsResponse struct {
	Extensions []string `json:"extensions"`
}
