// Package approval implements the two-step approval gate that sits between
// a finished brief and proposal generation.
package approval

import (
	"time"

	"github.com/google/uuid"

	"github.com/p-blackswan/intake-agent/internal/brief"
	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/history"
)

// State is the gate's position in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRequested State = "requested"
	StateResponded State = "responded"
)

// Decision is the user's answer to an approval request.
type Decision string

const (
	DecisionNone     Decision = ""
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// Request is an immutable snapshot of the brief and conversation taken at
// the moment approval was requested.
type Request struct {
	ID          string         `json:"id"`
	Brief       brief.Brief    `json:"brief"`
	History     []history.Turn `json:"history"`
	RequestedAt time.Time      `json:"requestedAt"`
	Decision    Decision       `json:"decision,omitempty"`
	RespondedAt time.Time      `json:"respondedAt,omitempty"`
}

func (r Request) clone() Request {
	r.Brief = brief.Clone(r.Brief)
	r.History = history.Clone(r.History)
	return r
}

// Gate tracks one session's approval state. The zero value is idle.
// Fields are exported so the gate can be persisted with the session.
type Gate struct {
	State   State    `json:"state"`
	Pending *Request `json:"pending,omitempty"`
}

func (g *Gate) state() State {
	if g.State == "" {
		return StateIdle
	}
	return g.State
}

// Current returns the gate state.
func (g *Gate) Current() State { return g.state() }

// Awaiting reports whether a request is waiting for a decision.
func (g *Gate) Awaiting() bool { return g.state() == StateRequested }

// Request snapshots b and turns and moves the gate to requested. If a
// request is already pending the existing one is returned together with
// ErrApprovalPending and nothing changes.
func (g *Gate) Request(b brief.Brief, turns []history.Turn) (Request, error) {
	if g.state() == StateRequested && g.Pending != nil {
		return g.Pending.clone(), apperrors.ErrApprovalPending
	}
	req := Request{
		ID:          uuid.NewString(),
		Brief:       brief.Clone(b),
		History:     history.Clone(turns),
		RequestedAt: time.Now().UTC(),
	}
	g.State = StateRequested
	g.Pending = &req
	return req.clone(), nil
}

// Snapshot returns a copy of the pending request.
func (g *Gate) Snapshot() (Request, bool) {
	if g.Pending == nil {
		return Request{}, false
	}
	return g.Pending.clone(), true
}

// Respond records the decision and moves the gate to responded. It fails
// with ErrNoApproval when nothing is pending.
func (g *Gate) Respond(accept bool) (Request, error) {
	if g.state() != StateRequested || g.Pending == nil {
		return Request{}, apperrors.ErrNoApproval
	}
	g.Pending.Decision = DecisionRejected
	if accept {
		g.Pending.Decision = DecisionAccepted
	}
	g.Pending.RespondedAt = time.Now().UTC()
	g.State = StateResponded
	return g.Pending.clone(), nil
}

// Complete returns the gate to idle after a decision has been handled.
func (g *Gate) Complete() {
	g.State = StateIdle
	g.Pending = nil
}

// Reset discards any pending request.
func (g *Gate) Reset() { g.Complete() }
