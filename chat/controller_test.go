package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sahil-Bhoite/Mars-2.0/api"
	"github.com/Sahil-Bhoite/Mars-2.0/session"
)

type fakeBackend struct {
	requests []api.ChatRequest
	response *api.ChatResponse
	err      error
}

func (f *fakeBackend) Chat(_ context.Context, request api.ChatRequest) (*api.ChatResponse, error) {
	f.requests = append(f.requests, request)
	return f.response, f.err
}

func newTestController(backend *fakeBackend) (*Controller, *session.Store) {
	store := session.NewStore()
	return NewController(store, backend, api.ModelGemini, nil), store
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	backend := &fakeBackend{}
	ctl, store := newTestController(backend)

	for _, input := range []string{"", "   ", "\t\n"} {
		cmd := ctl.Submit(input)
		assert.Nil(t, cmd, "input %q should be rejected", input)
	}

	assert.Empty(t, store.Messages())
	assert.Empty(t, backend.requests)
	assert.False(t, ctl.Pending())
}

func TestSubmitRejectsWhilePending(t *testing.T) {
	backend := &fakeBackend{response: &api.ChatResponse{Response: "hi"}}
	ctl, store := newTestController(backend)

	first := ctl.Submit("question one")
	require.NotNil(t, first)
	require.True(t, ctl.Pending())

	second := ctl.Submit("question two")
	assert.Nil(t, second)

	// Only the first user message was appended.
	require.Len(t, store.Messages(), 1)
	assert.Equal(t, "question one", store.Messages()[0].Content)
}

func TestSubmitAppendsUserMessageBeforeCallSettles(t *testing.T) {
	backend := &fakeBackend{response: &api.ChatResponse{Response: "answer"}}
	ctl, store := newTestController(backend)

	cmd := ctl.Submit("  What is X?  ")
	require.NotNil(t, cmd)

	// The trimmed user message is already in the transcript.
	messages := store.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, session.RoleUser, messages[0].Role)
	assert.Equal(t, "What is X?", messages[0].Content)

	// The backend has not been called until the command runs.
	assert.Empty(t, backend.requests)
}

func TestChatWithoutSessionUsesDefaultID(t *testing.T) {
	backend := &fakeBackend{response: &api.ChatResponse{
		Response: "X is...",
		Sources:  []string{"notes.pdf"},
	}}
	ctl, store := newTestController(backend)

	cmd := ctl.Submit("What is X?")
	require.NotNil(t, cmd)
	msg := cmd().(ResultMsg)

	require.Len(t, backend.requests, 1)
	assert.Equal(t, DefaultSessionID, backend.requests[0].SessionID)
	assert.Equal(t, api.ModelGemini, backend.requests[0].Model)

	ctl.Resolve(msg)

	messages := store.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, session.RoleAssistant, messages[1].Role)
	assert.Equal(t, "X is...", messages[1].Content)
	assert.Equal(t, []string{"notes.pdf"}, messages[1].Sources)
	assert.False(t, messages[1].IsError)
	assert.False(t, ctl.Pending())
}

func TestChatUsesTrackedSessionID(t *testing.T) {
	backend := &fakeBackend{response: &api.ChatResponse{Response: "ok"}}
	ctl, store := newTestController(backend)
	store.SetSession("s1")

	cmd := ctl.Submit("hello")
	require.NotNil(t, cmd)
	cmd()

	require.Len(t, backend.requests, 1)
	assert.Equal(t, "s1", backend.requests[0].SessionID)
}

func TestSequentialSubmissionsKeepTranscriptOrder(t *testing.T) {
	backend := &fakeBackend{response: &api.ChatResponse{Response: "answer one"}}
	ctl, store := newTestController(backend)

	cmd := ctl.Submit("question one")
	require.NotNil(t, cmd)
	ctl.Resolve(cmd().(ResultMsg))

	backend.response = &api.ChatResponse{Response: "answer two"}
	cmd = ctl.Submit("question two")
	require.NotNil(t, cmd)
	ctl.Resolve(cmd().(ResultMsg))

	messages := store.Messages()
	require.Len(t, messages, 4)
	assert.Equal(t, "question one", messages[0].Content)
	assert.Equal(t, "answer one", messages[1].Content)
	assert.Equal(t, "question two", messages[2].Content)
	assert.Equal(t, "answer two", messages[3].Content)
}

func TestFailureWithDetailAppendsErrorMessage(t *testing.T) {
	backend := &fakeBackend{err: &api.APIError{StatusCode: 503, Detail: "Backend unavailable"}}
	ctl, store := newTestController(backend)

	cmd := ctl.Submit("hello")
	require.NotNil(t, cmd)
	ctl.Resolve(cmd().(ResultMsg))

	messages := store.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, session.RoleAssistant, messages[1].Role)
	assert.True(t, messages[1].IsError)
	assert.Equal(t, "Error: Backend unavailable", messages[1].Content)
	assert.False(t, ctl.Pending())
}

func TestFailureWithoutDetailFallsBack(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	ctl, store := newTestController(backend)

	cmd := ctl.Submit("hello")
	require.NotNil(t, cmd)
	ctl.Resolve(cmd().(ResultMsg))

	messages := store.Messages()
	require.Len(t, messages, 2)
	assert.True(t, messages[1].IsError)
	assert.Equal(t, "Error: failed to get response", messages[1].Content)
}

func TestClearMidPendingChatAppendsLateAnswerToEmptiedTranscript(t *testing.T) {
	backend := &fakeBackend{response: &api.ChatResponse{Response: "late answer"}}
	ctl, store := newTestController(backend)
	store.SetSession("s1")

	cmd := ctl.Submit("question")
	require.NotNil(t, cmd)
	require.True(t, ctl.Pending())

	// The session is cleared while the call is still in flight.
	store.Clear()
	assert.Equal(t, "", store.ID())
	assert.Empty(t, store.Messages())

	// The late answer is applied to whatever state exists at arrival, so it
	// lands alone in the emptied transcript, and the pending flag releases.
	ctl.Resolve(cmd().(ResultMsg))
	messages := store.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, session.RoleAssistant, messages[0].Role)
	assert.Equal(t, "late answer", messages[0].Content)
	assert.False(t, ctl.Pending())
}

func TestToggleModel(t *testing.T) {
	ctl, _ := newTestController(&fakeBackend{})

	assert.Equal(t, api.ModelGemini, ctl.Model())
	ctl.ToggleModel()
	assert.Equal(t, api.ModelOllama, ctl.Model())
	ctl.ToggleModel()
	assert.Equal(t, api.ModelGemini, ctl.Model())
}

func TestModelRidesEveryRequest(t *testing.T) {
	backend := &fakeBackend{response: &api.ChatResponse{Response: "ok"}}
	ctl, _ := newTestController(backend)

	cmd := ctl.Submit("first")
	require.NotNil(t, cmd)
	ctl.Resolve(cmd().(ResultMsg))

	ctl.ToggleModel()
	cmd = ctl.Submit("second")
	require.NotNil(t, cmd)
	ctl.Resolve(cmd().(ResultMsg))

	require.Len(t, backend.requests, 2)
	assert.Equal(t, api.ModelGemini, backend.requests[0].Model)
	assert.Equal(t, api.ModelOllama, backend.requests[1].Model)
}
