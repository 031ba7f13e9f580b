package session

import (
	"context"
	"fmt"

	"github.com/p-blackswan/intake-agent/internal/approval"
	"github.com/p-blackswan/intake-agent/internal/brief"
	"github.com/p-blackswan/intake-agent/internal/conversation"
	"github.com/p-blackswan/intake-agent/internal/history"
	"github.com/p-blackswan/intake-agent/internal/store"
)

// persistedState is the "state" record: everything a restarted server
// needs to resume mid-conversation beyond brief, history and proposal.
type persistedState struct {
	Pending     string        `json:"pending,omitempty"`
	BudgetGate  bool          `json:"budgetGate,omitempty"`
	Compose     string        `json:"compose,omitempty"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	Approval    approval.Gate `json:"approval"`
}

// load reads the records for key. found is false when nothing was stored.
func (m *Manager) load(ctx context.Context, key Key) (*live, bool, error) {
	conv := conversation.NewSession(key.User, key.Service)
	l := &live{conv: conv}

	var turns []history.Turn
	foundHistory, err := store.GetJSON(ctx, m.kv, store.Key(store.RecordHistory, key.User, key.Service), &turns)
	if err != nil {
		return nil, false, fmt.Errorf("load history: %w", err)
	}
	conv.History = history.Sanitize(turns)

	var b brief.Brief
	foundBrief, err := store.GetJSON(ctx, m.kv, store.Key(store.RecordBrief, key.User, key.Service), &b)
	if err != nil {
		return nil, false, fmt.Errorf("load brief: %w", err)
	}
	if foundBrief {
		conv.Brief = brief.Merge(conv.Brief, b)
	}

	if _, err := store.GetJSON(ctx, m.kv, store.Key(store.RecordProposal, key.User, key.Service), &conv.Proposal); err != nil {
		return nil, false, fmt.Errorf("load proposal: %w", err)
	}

	var st persistedState
	if _, err := store.GetJSON(ctx, m.kv, store.Key(store.RecordState, key.User, key.Service), &st); err != nil {
		return nil, false, fmt.Errorf("load state: %w", err)
	}
	conv.Pending = st.Pending
	conv.BudgetGate = st.BudgetGate
	conv.Approval = st.Approval
	l.compose = st.Compose
	l.attachments = st.Attachments

	return l, foundHistory || foundBrief, nil
}

// save writes every record for key. conv must not be mutated concurrently.
func (m *Manager) save(ctx context.Context, key Key, conv *conversation.Session, compose string, attachments []Attachment) error {
	records := []struct {
		name  string
		value any
	}{
		{store.RecordHistory, conv.History},
		{store.RecordBrief, conv.Brief},
		{store.RecordState, persistedState{
			Pending:     conv.Pending,
			BudgetGate:  conv.BudgetGate,
			Compose:     compose,
			Attachments: attachments,
			Approval:    conv.Approval,
		}},
	}
	for _, r := range records {
		if err := store.SetJSON(ctx, m.kv, store.Key(r.name, key.User, key.Service), r.value); err != nil {
			return m.storeFailure(r.name, err)
		}
	}

	proposalKey := store.Key(store.RecordProposal, key.User, key.Service)
	var err error
	if conv.Proposal != "" {
		err = store.SetJSON(ctx, m.kv, proposalKey, conv.Proposal)
	} else {
		err = m.kv.Delete(ctx, proposalKey)
	}
	if err != nil {
		return m.storeFailure(store.RecordProposal, err)
	}
	return nil
}

// clear removes every record for key.
func (m *Manager) clear(ctx context.Context, key Key) error {
	for _, r := range store.Records {
		if err := m.kv.Delete(ctx, store.Key(r, key.User, key.Service)); err != nil {
			return m.storeFailure(r, err)
		}
	}
	return nil
}

func (m *Manager) storeFailure(record string, err error) error {
	if m.metrics != nil {
		m.metrics.RecordError("store", record)
	}
	m.logger.Error().Err(err).Str("record", record).Msg("failed to persist session record")
	return fmt.Errorf("persist %s: %w", record, err)
}

func cloneSession(s *conversation.Session) *conversation.Session {
	c := *s
	c.Brief = brief.Clone(s.Brief)
	c.History = history.Clone(s.History)
	if s.Approval.Pending != nil {
		p := *s.Approval.Pending
		p.Brief = brief.Clone(p.Brief)
		p.History = history.Clone(p.History)
		c.Approval.Pending = &p
	}
	return &c
}
