// Package remote talks to the collaborators that sit behind the intake
// engine: the conversational assistant and the proposal generator.
package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/p-blackswan/intake-agent/internal/brief"
	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/history"
)

// ChatRequest is sent to the remote assistant for one user turn.
type ChatRequest struct {
	Message             string            `json:"message"`
	ConversationHistory []history.Message `json:"conversationHistory"`
	ServiceName         string            `json:"serviceName"`
	// Context is the current brief, offered so the assistant does not ask
	// for what is already known.
	Context *brief.Brief `json:"context,omitempty"`
}

// ChatResponse is the assistant's reply. ContextUpdate is an optional
// partial brief asserted by the assistant.
type ChatResponse struct {
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	ContextUpdate *brief.Brief `json:"contextUpdate,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// ProposalRequest asks for a proposal document built from an approved brief.
type ProposalRequest struct {
	ProposalContext brief.Brief       `json:"proposalContext"`
	ChatHistory     []history.Message `json:"chatHistory"`
	ServiceName     string            `json:"serviceName"`
}

// ProposalResponse carries the generated proposal text.
type ProposalResponse struct {
	Success  bool   `json:"success"`
	Proposal string `json:"proposal"`
	Error    string `json:"error,omitempty"`
}

// ChatClient forwards a turn to the remote assistant.
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ProposalClient generates a proposal from an approved brief.
type ProposalClient interface {
	GenerateProposal(ctx context.Context, req ProposalRequest) (*ProposalResponse, error)
}

// Backend is a remote implementing both calls.
type Backend interface {
	ChatClient
	ProposalClient
	Ping(ctx context.Context) error
}

// CheckChat rejects unsuccessful or empty chat responses.
func CheckChat(resp *ChatResponse) error {
	switch {
	case resp == nil:
		return fmt.Errorf("chat: %w: empty response", apperrors.ErrMalformedResult)
	case !resp.Success:
		return fmt.Errorf("chat: %w: %s", apperrors.ErrRemoteFailure, orUnknown(resp.Error))
	case strings.TrimSpace(resp.Message) == "":
		return fmt.Errorf("chat: %w: empty message", apperrors.ErrMalformedResult)
	}
	return nil
}

// CheckProposal rejects unsuccessful or empty proposal responses.
func CheckProposal(resp *ProposalResponse) error {
	switch {
	case resp == nil:
		return fmt.Errorf("proposal: %w: empty response", apperrors.ErrMalformedResult)
	case !resp.Success:
		return fmt.Errorf("proposal: %w: %s", apperrors.ErrRemoteFailure, orUnknown(resp.Error))
	case strings.TrimSpace(resp.Proposal) == "":
		return fmt.Errorf("proposal: %w: empty proposal", apperrors.ErrMalformedResult)
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown error"
	}
	return s
}
