package session

import (
	"github.com/p-blackswan/intake-agent/internal/approval"
	"github.com/p-blackswan/intake-agent/internal/brief"
	"github.com/p-blackswan/intake-agent/internal/fields"
	"github.com/p-blackswan/intake-agent/internal/history"
)

// View is a read-only copy of a conversation for display.
type View struct {
	User        string              `json:"user"`
	Service     string              `json:"service"`
	Brief       brief.Brief         `json:"brief"`
	History     []history.Turn      `json:"history"`
	Pending     *fields.Descriptor  `json:"pending,omitempty"`
	Missing     []fields.Descriptor `json:"missing"`
	Complete    bool                `json:"complete"`
	Approval    approval.State      `json:"approval"`
	Request     *approval.Request   `json:"approvalRequest,omitempty"`
	Proposal    string              `json:"proposal,omitempty"`
	Compose     string              `json:"compose,omitempty"`
	Attachments []Attachment        `json:"attachments,omitempty"`
	Busy        bool                `json:"busy"`
}

func (m *Manager) view(l *live, busy bool) *View {
	l.mu.Lock()
	conv := cloneSession(l.conv)
	v := &View{
		Compose:     l.compose,
		Attachments: append([]Attachment(nil), l.attachments...),
	}
	l.mu.Unlock()

	res := m.engine.Resolver().Resolve(conv.Brief, conv.Service)
	v.User = conv.User
	v.Service = conv.Service
	v.Brief = conv.Brief
	v.History = conv.History
	v.Missing = res.Missing
	v.Complete = res.Complete()
	v.Approval = conv.Approval.Current()
	v.Proposal = conv.Proposal
	v.Busy = busy
	if conv.Pending != "" {
		d := m.engine.Resolver().Descriptor(conv.Pending)
		v.Pending = &d
	}
	if req, ok := conv.Approval.Snapshot(); ok {
		v.Request = &req
	}
	return v
}
