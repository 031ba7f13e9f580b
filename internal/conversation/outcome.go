package conversation

import (
	"strings"

	"github.com/p-blackswan/intake-agent/internal/answer"
	"github.com/p-blackswan/intake-agent/internal/approval"
	"github.com/p-blackswan/intake-agent/internal/fields"
	"github.com/p-blackswan/intake-agent/internal/history"
)

// Action is what the engine did with a turn.
type Action string

const (
	// ActionClarify: the answer was rejected and the question repeated.
	ActionClarify Action = "clarify"
	// ActionPrompt: a local field question was asked.
	ActionPrompt Action = "prompt"
	// ActionRemote: the remote assistant answered.
	ActionRemote Action = "remote"
	// ActionApproval: approval of the brief was requested.
	ActionApproval Action = "approval"
	// ActionProposal: the proposal was generated.
	ActionProposal Action = "proposal"
	// ActionRejected: the user declined the approval request.
	ActionRejected Action = "rejected"
	// ActionError: a remote call failed; the turn can be retried.
	ActionError Action = "error"
)

// Outcome describes the result of one turn.
type Outcome struct {
	Action Action `json:"action"`
	// Turns are the assistant turns appended to the history by this turn.
	Turns []history.Turn `json:"turns"`
	// Field is the descriptor now awaiting an answer, if any.
	Field    *fields.Descriptor `json:"field,omitempty"`
	Reason   answer.Reason      `json:"reason,omitempty"`
	Proposal string             `json:"proposal,omitempty"`
	// Approval is the request created or answered by this turn.
	Approval *approval.Request `json:"-"`
	// Err is the remote failure behind ActionError.
	Err error `json:"-"`
}

// Message joins the content of the appended turns.
func (o *Outcome) Message() string {
	parts := make([]string, 0, len(o.Turns))
	for _, t := range o.Turns {
		parts = append(parts, t.Content)
	}
	return strings.Join(parts, "\n\n")
}

// Retryable reports whether the outcome carries text to resend.
func (o *Outcome) Retryable() (string, bool) {
	for _, t := range o.Turns {
		if t.Retryable {
			return t.RetryText, true
		}
	}
	return "", false
}
