package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/intake-agent/internal/brief"
	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/history"
	"github.com/p-blackswan/intake-agent/internal/llm"
	"github.com/p-blackswan/intake-agent/internal/retry"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestHTTPClient_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, chatPath, r.URL.Path)
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Message)
		assert.Equal(t, "Website Development", req.ServiceName)
		assert.Len(t, req.ConversationHistory, 1)
		_, _ = w.Write([]byte(`{"success":true,"message":"Hi! What's your name?","contextUpdate":{"clientName":"Asha"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", zerolog.Nop(), WithRetry(fastRetry()))
	resp, err := c.Chat(context.Background(), ChatRequest{
		Message:             "hello",
		ServiceName:         "Website Development",
		ConversationHistory: []history.Message{{Role: "assistant", Content: "Welcome"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi! What's your name?", resp.Message)
	require.NotNil(t, resp.ContextUpdate)
	assert.Equal(t, "Asha", resp.ContextUpdate.ClientName)
}

func TestHTTPClient_ChatUnsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"model overloaded"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, zerolog.Nop(), WithRetry(fastRetry()))
	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrRemoteFailure)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"upstream"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"proposal":"# Proposal"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, zerolog.Nop(), WithRetry(fastRetry()))
	resp, err := c.GenerateProposal(context.Background(), ProposalRequest{ServiceName: "SEO"})
	require.NoError(t, err)
	assert.Equal(t, "# Proposal", resp.Proposal)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad payload"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, zerolog.Nop(), WithRetry(fastRetry()))
	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.True(t, apperrors.IsRemote(err))
	assert.ErrorIs(t, err, apperrors.ErrRemoteFailure)
	assert.Contains(t, err.Error(), "bad payload")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_MalformedAndEmpty(t *testing.T) {
	body := `not json`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()
	c := NewHTTPClient(srv.URL, zerolog.Nop(), WithRetry(fastRetry()))

	_, err := c.Chat(context.Background(), ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrMalformedResult)

	body = `{"success":true,"proposal":"   "}`
	_, err = c.GenerateProposal(context.Background(), ProposalRequest{})
	assert.ErrorIs(t, err, apperrors.ErrMalformedResult)
}

func TestHTTPClient_Ping(t *testing.T) {
	status := http.StatusNotFound
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()
	c := NewHTTPClient(srv.URL, zerolog.Nop())

	assert.NoError(t, c.Ping(context.Background()))
	status = http.StatusServiceUnavailable
	assert.Error(t, c.Ping(context.Background()))
}

type fakeProvider struct {
	text string
	err  error
	last llm.CompletionRequest
}

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Text: f.text, StopReason: llm.StopReasonEndTurn}, nil
}

func (f *fakeProvider) ModelID() string { return "fake" }

func TestModelBackend_ChatExtractsContext(t *testing.T) {
	p := &fakeProvider{text: `Nice to meet you, Asha! What is your company called?
<context>{"clientName":"Asha","scope.features":["Blog"]}</context>`}
	m := NewModelBackend(p, 0, zerolog.Nop())

	known := brief.New("Website Development")
	resp, err := m.Chat(context.Background(), ChatRequest{
		Message:     "I'm Asha and I want a blog",
		ServiceName: "Website Development",
		Context:     &known,
		ConversationHistory: []history.Message{
			{Role: "assistant", Content: "Welcome!"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Nice to meet you, Asha! What is your company called?", resp.Message)
	require.NotNil(t, resp.ContextUpdate)
	assert.Equal(t, "Asha", resp.ContextUpdate.ClientName)
	assert.Equal(t, []string{"Blog"}, resp.ContextUpdate.Scope.Features)

	assert.Contains(t, p.last.SystemPrompt, "Website Development")
	assert.Equal(t, "I'm Asha and I want a blog", p.last.Messages[len(p.last.Messages)-1].Content)
}

func TestModelBackend_BadContextIgnored(t *testing.T) {
	p := &fakeProvider{text: `Sounds good. <context>{oops}</context>`}
	m := NewModelBackend(p, 0, zerolog.Nop())
	resp, err := m.Chat(context.Background(), ChatRequest{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Sounds good.", resp.Message)
	assert.Nil(t, resp.ContextUpdate)
}

func TestModelBackend_EmptyReplyIsMalformed(t *testing.T) {
	m := NewModelBackend(&fakeProvider{text: "<context>{}</context>"}, 0, zerolog.Nop())
	_, err := m.Chat(context.Background(), ChatRequest{Message: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrMalformedResult)
}

func TestModelBackend_Proposal(t *testing.T) {
	p := &fakeProvider{text: "  # Proposal for Acme  "}
	m := NewModelBackend(p, 0, zerolog.Nop())
	b := brief.New("SEO")
	b.CompanyName = "Acme"
	resp, err := m.GenerateProposal(context.Background(), ProposalRequest{
		ProposalContext: b,
		ServiceName:     "SEO",
		ChatHistory:     []history.Message{{Role: "user", Content: "we sell shoes"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "# Proposal for Acme", resp.Proposal)
	assert.Contains(t, p.last.Messages[0].Content, `"companyName": "Acme"`)
	assert.Contains(t, p.last.Messages[0].Content, "user: we sell shoes")
}

func TestModelBackend_ProviderError(t *testing.T) {
	m := NewModelBackend(&fakeProvider{err: apperrors.NewAPIError("anthropic", 401, "bad key")}, 2, zerolog.Nop())
	_, err := m.Chat(context.Background(), ChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.True(t, apperrors.IsRemote(err))
}

func TestCheckChat(t *testing.T) {
	assert.ErrorIs(t, CheckChat(nil), apperrors.ErrMalformedResult)
	assert.ErrorIs(t, CheckChat(&ChatResponse{}), apperrors.ErrRemoteFailure)
	assert.ErrorIs(t, CheckChat(&ChatResponse{Success: true}), apperrors.ErrMalformedResult)
	assert.NoError(t, CheckChat(&ChatResponse{Success: true, Message: "ok"}))
}
