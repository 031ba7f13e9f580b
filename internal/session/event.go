package session

import (
	"fmt"
	"strings"

	"github.com/p-blackswan/intake-agent/internal/conversation"
	"github.com/p-blackswan/intake-agent/internal/history"
)

// EventKind identifies an input to a conversation.
type EventKind string

const (
	// EventSpeech carries transcribed speech for the compose buffer.
	EventSpeech EventKind = "speech"
	// EventAttachment carries extracted document text for the next message.
	EventAttachment EventKind = "attachment"
	// EventSubmit sends the compose buffer and Text as one user message.
	EventSubmit EventKind = "submit"
	// EventDecide answers the approval gate with Accept.
	EventDecide EventKind = "decide"
	// EventReset starts the conversation over.
	EventReset EventKind = "reset"
)

// Event is a single input to a conversation.
type Event struct {
	Kind   EventKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Name   string    `json:"name,omitempty"`
	Accept bool      `json:"accept,omitempty"`
}

// Attachment is extracted document text waiting for the next message.
type Attachment struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Result is what handling an Event produced.
type Result struct {
	Kind    EventKind             `json:"kind"`
	Outcome *conversation.Outcome `json:"outcome,omitempty"`
	// Turns holds assistant turns not covered by Outcome, such as the
	// greeting after a reset.
	Turns       []history.Turn `json:"turns,omitempty"`
	Compose     string         `json:"compose"`
	Attachments int            `json:"attachments"`
	Err         error          `json:"-"`
}

// Message returns the assistant text of the result.
func (r Result) Message() string {
	if r.Outcome != nil {
		return r.Outcome.Message()
	}
	parts := make([]string, 0, len(r.Turns))
	for _, t := range r.Turns {
		parts = append(parts, t.Content)
	}
	return strings.Join(parts, "\n\n")
}

// appendSpeech merges a transcript fragment into the compose buffer.
func appendSpeech(compose, text string) string {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return compose
	case compose == "":
		return text
	default:
		return strings.TrimRight(compose, " ") + " " + text
	}
}

// compose builds the outgoing user message from the buffer, the submitted
// text and any queued attachments.
func compose(buffer, text string, attachments []Attachment) string {
	msg := appendSpeech(buffer, text)
	for _, a := range attachments {
		body := strings.TrimSpace(a.Text)
		if body == "" {
			continue
		}
		name := a.Name
		if name == "" {
			name = "attachment"
		}
		block := fmt.Sprintf("[Attached document: %s]\n%s", name, body)
		if msg == "" {
			msg = block
		} else {
			msg += "\n\n" + block
		}
	}
	return msg
}
