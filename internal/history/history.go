// Package history holds conversation turns and the passes that clean them
// before they are persisted or forwarded to the remote assistant.
package history

import (
	"strings"
	"time"
)

// Role constants for Turn.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Kinds of assistant turns produced locally.
const (
	KindClarification = "clarification"
	KindPrompt        = "prompt"
	KindRemote        = "remote"
	KindApproval      = "approval"
	KindProposal      = "proposal"
	KindNotice        = "notice"
	KindError         = "error"
)

// Turn is one message in a conversation.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind,omitempty"`
	Error     bool      `json:"error,omitempty"`
	Retryable bool      `json:"retryable,omitempty"`
	RetryText string    `json:"retryText,omitempty"`
	At        time.Time `json:"at"`
}

// Message is the wire shape sent to the remote assistant.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// User returns a user turn.
func User(content string) Turn {
	return Turn{Role: RoleUser, Content: content, At: time.Now().UTC()}
}

// Assistant returns an assistant turn of the given kind.
func Assistant(kind, content string) Turn {
	return Turn{Role: RoleAssistant, Kind: kind, Content: content, At: time.Now().UTC()}
}

// Failure returns a retryable error turn carrying the text to resend.
func Failure(content, retryText string) Turn {
	t := Assistant(KindError, content)
	t.Error = true
	t.Retryable = retryText != ""
	t.RetryText = retryText
	return t
}

// Clone returns a copy of turns that shares no backing array.
func Clone(turns []Turn) []Turn {
	if turns == nil {
		return nil
	}
	return append([]Turn(nil), turns...)
}

var roleAliases = map[string]string{
	"user":      RoleUser,
	"human":     RoleUser,
	"client":    RoleUser,
	"assistant": RoleAssistant,
	"bot":       RoleAssistant,
	"ai":        RoleAssistant,
	"model":     RoleAssistant,
}

// Sanitize normalizes roles, trims content and drops empty or unknown
// turns. It is applied to histories loaded from storage or supplied by
// clients.
func Sanitize(turns []Turn) []Turn {
	out := make([]Turn, 0, len(turns))
	for _, t := range turns {
		role, ok := roleAliases[strings.ToLower(strings.TrimSpace(t.Role))]
		if !ok {
			continue
		}
		t.Role = role
		t.Content = strings.TrimSpace(t.Content)
		if t.Content == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ForRemote converts turns to the messages forwarded to the remote
// assistant: error turns and the user turns that caused them are dropped,
// and only the last limit messages are kept (limit <= 0 keeps all).
func ForRemote(turns []Turn, limit int) []Message {
	msgs := make([]Message, 0, len(turns))
	for i, t := range turns {
		if t.Error {
			continue
		}
		if t.Role == RoleUser && i+1 < len(turns) && turns[i+1].Error {
			continue
		}
		msgs = append(msgs, Message{Role: t.Role, Content: t.Content})
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}

// LastAssistant returns the content of the most recent non-error assistant
// turn, or "".
func LastAssistant(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleAssistant && !turns[i].Error {
			return turns[i].Content
		}
	}
	return ""
}
