package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	in := []Turn{
		{Role: "Human", Content: "  hello  "},
		{Role: "bot", Content: "hi there"},
		{Role: "system", Content: "ignored"},
		{Role: "user", Content: "   "},
	}
	out := Sanitize(in)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi there"},
	}, out)
	assert.Equal(t, "Human", in[0].Role, "input untouched")
}

func TestForRemote_DropsFailedExchanges(t *testing.T) {
	turns := []Turn{
		User("hello"),
		Assistant(KindRemote, "Hi! What's your name?"),
		User("Asha"),
		Failure("Sorry, something went wrong.", "Asha"),
		User("Asha"),
		Assistant(KindRemote, "Nice to meet you, Asha."),
	}
	msgs := ForRemote(turns, 0)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "Hi! What's your name?"},
		{Role: RoleUser, Content: "Asha"},
		{Role: RoleAssistant, Content: "Nice to meet you, Asha."},
	}, msgs)

	assert.Len(t, ForRemote(turns, 2), 2)
	assert.Equal(t, "Nice to meet you, Asha.", ForRemote(turns, 1)[0].Content)
}

func TestFailure(t *testing.T) {
	f := Failure("oops", "resend me")
	assert.True(t, f.Error)
	assert.True(t, f.Retryable)
	assert.Equal(t, "resend me", f.RetryText)
	assert.Equal(t, RoleAssistant, f.Role)

	assert.False(t, Failure("oops", "").Retryable)
}

func TestLastAssistant(t *testing.T) {
	turns := []Turn{
		Assistant(KindRemote, "What is your budget?"),
		User("50k"),
		Failure("failed", "50k"),
	}
	assert.Equal(t, "What is your budget?", LastAssistant(turns))
	assert.Empty(t, LastAssistant(nil))
}

func TestClone(t *testing.T) {
	turns := []Turn{User("a")}
	c := Clone(turns)
	c[0].Content = "b"
	assert.Equal(t, "a", turns[0].Content)
	assert.Nil(t, Clone(nil))
}
