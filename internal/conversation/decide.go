package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/p-blackswan/intake-agent/internal/approval"
	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/history"
	"github.com/p-blackswan/intake-agent/internal/notify"
	"github.com/p-blackswan/intake-agent/internal/remote"
)

const (
	approvalLead     = "Here's a summary of what I've gathered:"
	approvalQuestion = "Shall I generate the proposal from this brief? Reply yes to approve or no to make changes."
	approvalWaiting  = "I'm still waiting for your go-ahead on the brief above. Reply yes to generate the proposal or no to make changes."
	rejectionAck     = "No problem, I won't generate the proposal yet. Tell me what you'd like to change."
)

// requestApproval moves the gate to requested with a snapshot of the
// current brief and history. A second request while one is pending only
// repeats the reminder.
func (e *Engine) requestApproval(s *Session) *Outcome {
	req, err := s.Approval.Request(s.Brief, s.History)
	if errors.Is(err, apperrors.ErrApprovalPending) {
		t := history.Assistant(history.KindApproval, approvalWaiting)
		s.append(t)
		return &Outcome{Action: ActionApproval, Turns: []history.Turn{t}, Approval: &req}
	}
	if e.metrics != nil {
		e.metrics.RecordApproval("requested")
	}
	e.logger.Info().Str("approval_id", req.ID).Str("service", s.Service).Msg("approval requested")

	text := approvalLead + "\n\n" + req.Brief.Summary() + "\n\n" + approvalQuestion
	t := history.Assistant(history.KindApproval, text)
	s.append(t)
	return &Outcome{Action: ActionApproval, Turns: []history.Turn{t}, Approval: &req}
}

// Decide answers a pending approval request. Accepting generates the
// proposal from the snapshot taken when approval was requested; rejecting
// leaves the brief as it is. ErrNoApproval is returned when nothing is
// pending.
func (e *Engine) Decide(ctx context.Context, s *Session, accept bool) (*Outcome, error) {
	start := time.Now()
	out, err := e.decide(ctx, s, accept)
	if err != nil {
		return nil, err
	}
	e.observeTurn(s, out, time.Since(start))
	return out, nil
}

func (e *Engine) decide(ctx context.Context, s *Session, accept bool) (*Outcome, error) {
	req, err := s.Approval.Respond(accept)
	if err != nil {
		return nil, err
	}
	e.logger.Info().Str("approval_id", req.ID).Str("decision", string(req.Decision)).Msg("approval answered")

	if !accept {
		s.Approval.Complete()
		if e.metrics != nil {
			e.metrics.RecordApproval("rejected")
		}
		t := history.Assistant(history.KindNotice, rejectionAck)
		s.append(t)
		return &Outcome{Action: ActionRejected, Turns: []history.Turn{t}, Approval: &req}, nil
	}

	if e.metrics != nil {
		e.metrics.RecordApproval("accepted")
	}
	out := e.generate(ctx, s, req)
	out.Approval = &req
	return out, nil
}

// generate calls the proposal collaborator with the approved snapshot and
// returns the gate to idle whatever the result.
func (e *Engine) generate(ctx context.Context, s *Session, req approval.Request) *Outcome {
	defer s.Approval.Complete()

	if e.proposals == nil {
		return e.fail(s, retryProposal, "proposal", apperrors.ErrUnavailable)
	}
	start := time.Now()
	resp, err := e.proposals.GenerateProposal(ctx, remote.ProposalRequest{
		ProposalContext: req.Brief,
		ChatHistory:     history.ForRemote(req.History, 0),
		ServiceName:     s.Service,
	})
	if err == nil {
		err = remote.CheckProposal(resp)
	}
	if e.metrics != nil {
		e.metrics.ObserveRemote("proposal", time.Since(start).Seconds(), err != nil)
	}
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordApproval("failed")
		}
		return e.fail(s, retryProposal, "proposal", err)
	}

	s.Proposal = resp.Proposal
	t := history.Assistant(history.KindProposal, resp.Proposal)
	s.append(t)

	if e.notifier != nil {
		err := e.notifier.NotifyProposal(ctx, notify.Proposal{
			ApprovalID: req.ID,
			User:       s.User,
			Service:    s.Service,
			Brief:      req.Brief,
			Text:       resp.Proposal,
		})
		if err != nil {
			e.logger.Warn().Err(err).Str("approval_id", req.ID).Msg("proposal notification failed")
		}
	}
	return &Outcome{Action: ActionProposal, Turns: []history.Turn{t}, Proposal: resp.Proposal}
}
