package session

// Role identifies who produced a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FileDescriptor is one uploaded file as the client tracks it: the name the
// backend accepted and how many chunks the ingestion pipeline produced.
type FileDescriptor struct {
	Name   string
	Chunks int
}

// Message is one transcript entry. Sources and Model are only set on
// assistant messages, and only when the backend reported them.
type Message struct {
	Role    Role
	Content string
	Sources []string
	Model   string
	IsError bool
}

// Store holds the client's authoritative session state: the server-assigned
// session id, the uploaded-file descriptors, and the message transcript.
// All mutation goes through the methods below, and callers must invoke them
// from a single event loop; the store does no locking of its own.
type Store struct {
	id       string
	files    []FileDescriptor
	messages []Message
}

// NewStore creates an empty store with no active session.
func NewStore() *Store {
	return &Store{
		files:    make([]FileDescriptor, 0),
		messages: make([]Message, 0),
	}
}

// ID returns the current session id, or "" when no session is active.
func (s *Store) ID() string {
	return s.id
}

// HasSession reports whether a server-assigned session id is being tracked.
func (s *Store) HasSession() bool {
	return s.id != ""
}

// SetSession records the server-assigned session id. The first non-empty id
// wins: once a session is active the id is never replaced until Clear.
func (s *Store) SetSession(id string) {
	if s.id != "" || id == "" {
		return
	}
	s.id = id
}

// AddFiles appends descriptors to the tail of the file set. Names are not
// de-duplicated; a re-uploaded file coexists with its earlier entry.
func (s *Store) AddFiles(descriptors []FileDescriptor) {
	s.files = append(s.files, descriptors...)
}

// RemoveFile removes every descriptor whose name matches.
func (s *Store) RemoveFile(name string) {
	kept := s.files[:0]
	for _, f := range s.files {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	s.files = kept
}

// Files returns a copy of the tracked file descriptors in insertion order.
func (s *Store) Files() []FileDescriptor {
	out := make([]FileDescriptor, len(s.files))
	copy(out, s.files)
	return out
}

// TotalChunks returns the chunk count summed over all tracked files.
func (s *Store) TotalChunks() int {
	total := 0
	for _, f := range s.files {
		total += f.Chunks
	}
	return total
}

// AppendMessage appends one message to the tail of the transcript. The
// transcript is never reordered or truncated except by Clear.
func (s *Store) AppendMessage(message Message) {
	s.messages = append(s.messages, message)
}

// Messages returns a copy of the transcript in append order.
func (s *Store) Messages() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear resets the session id, empties the file set, and empties the
// transcript, in that order. Callers observe it as a single transition.
func (s *Store) Clear() {
	s.id = ""
	s.files = s.files[:0]
	s.messages = s.messages[:0]
}
