// Package notify tells people outside the conversation that a proposal has
// been generated.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/intake-agent/internal/brief"
)

// Proposal describes a generated proposal.
type Proposal struct {
	ApprovalID string
	User       string
	Service    string
	Brief      brief.Brief
	Text       string
}

// Notifier is told about every generated proposal.
type Notifier interface {
	NotifyProposal(ctx context.Context, p Proposal) error
}

// MultiNotifier fans out to multiple notifiers. Every notifier is called;
// failures are joined.
type MultiNotifier struct {
	notifiers []Notifier
}

func NewMultiNotifier(ns ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: ns}
}

func (m *MultiNotifier) NotifyProposal(ctx context.Context, p Proposal) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.NotifyProposal(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier logs proposals (useful for dev and as a default).
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

func (l *LogNotifier) NotifyProposal(_ context.Context, p Proposal) error {
	l.logger.Info().
		Str("approval_id", p.ApprovalID).
		Str("user", p.User).
		Str("service", p.Service).
		Str("company", p.Brief.CompanyName).
		Int("proposal_bytes", len(p.Text)).
		Msg("proposal generated")
	return nil
}
