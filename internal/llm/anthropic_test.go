package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
)

func TestAlternate(t *testing.T) {
	in := []Message{
		{Role: RoleAssistant, Content: "Welcome!"},
		{Role: RoleUser, Content: "hi"},
		{Role: RoleUser, Content: "attached notes"},
		{Role: RoleAssistant, Content: ""},
		{Role: RoleAssistant, Content: "Hello"},
	}
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "hi\n\nattached notes"},
		{Role: RoleAssistant, Content: "Hello"},
	}, Alternate(in))
}

func TestAnthropic_Complete(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"msg_1","content":[{"type":"text","text":"Hello "},{"type":"text","text":"there"}],"stop_reason":"end_turn","usage":{"input_tokens":12,"output_tokens":3}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("secret", WithBaseURL(srv.URL), WithModel("test-model"), WithMaxTokens(100))
	resp, err := p.Complete(context.Background(), CompletionRequest{
		SystemPrompt: "be brief",
		Messages:     []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", resp.Text)
	assert.Equal(t, StopReasonEndTurn, resp.StopReason)
	assert.Equal(t, 12, resp.InputTokens)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 100, got.MaxTokens)
	assert.Equal(t, "be brief", got.System)
	assert.Equal(t, "test-model", p.ModelID())
}

func TestAnthropic_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("k", WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Error(t, err)
	assert.True(t, apperrors.IsRetryable(err))
	assert.Contains(t, err.Error(), "slow down")
}

func TestAnthropic_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	p := NewAnthropicProvider("k", WithBaseURL(srv.URL))
	_, err := p.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.ErrorIs(t, err, apperrors.ErrMalformedResult)
}

func TestAnthropic_NoMessages(t *testing.T) {
	p := NewAnthropicProvider("k")
	_, err := p.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
