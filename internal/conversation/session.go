// Package conversation is the turn handler of the intake engine. Each user
// message is validated against the pending field, merged into the brief,
// and then answered locally, forwarded to the remote assistant, or turned
// into an approval request.
package conversation

import (
	"strings"

	"github.com/p-blackswan/intake-agent/internal/approval"
	"github.com/p-blackswan/intake-agent/internal/brief"
	"github.com/p-blackswan/intake-agent/internal/history"
)

// Session is the complete state of one (user, service) conversation. The
// engine mutates it in place; callers own persistence and locking.
type Session struct {
	User    string         `json:"user"`
	Service string         `json:"service"`
	Brief   brief.Brief    `json:"brief"`
	History []history.Turn `json:"history"`
	// Pending is the id of the field whose answer is expected next, or "".
	Pending string `json:"pending,omitempty"`
	// BudgetGate is set while the remote assistant has flagged the budget
	// as insufficient; it blocks direct proposal requests.
	BudgetGate bool          `json:"budgetGate,omitempty"`
	Approval   approval.Gate `json:"approval"`
	Proposal   string        `json:"proposal,omitempty"`
}

// NewSession returns an empty session.
func NewSession(user, service string) *Session {
	service = strings.TrimSpace(service)
	return &Session{
		User:    user,
		Service: service,
		Brief:   brief.New(service),
	}
}

// Reset starts the conversation over: brief, history, pending field,
// approval and proposal are all cleared together.
func (s *Session) Reset() {
	*s = Session{
		User:    s.User,
		Service: s.Service,
		Brief:   brief.New(s.Service),
	}
}

func (s *Session) append(turns ...history.Turn) {
	s.History = append(s.History, turns...)
}
