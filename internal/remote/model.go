package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/intake-agent/internal/brief"
	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/history"
	"github.com/p-blackswan/intake-agent/internal/llm"
	"github.com/p-blackswan/intake-agent/internal/retry"
)

const chatSystemPrompt = `You are a friendly project consultant gathering requirements for a %s project.
Ask one question at a time and keep replies short.
If you do not yet know the client's name or company name, ask for them first.
When the client mentions facts about the project, append a block of the form
<context>{"clientName":"...","companyName":"...", ...}</context>
containing only the fields you learned in this message, using these JSON keys:
clientName, companyName, companyBackground, timeline, budget, requirements,
preferences, constraints, notes, scope.objectives, scope.features.
When every detail is known, tell the client you are ready to generate the proposal.

Known so far:
%s`

const proposalSystemPrompt = `You write concise, professional project proposals in Markdown.
Use the brief as the source of truth. Include: overview, scope, deliverables,
timeline, budget and next steps. Do not invent a budget or timeline that is not in the brief.`

var contextBlock = regexp.MustCompile(`(?s)<context>(.*?)</context>`)

// ModelBackend answers chat and proposal calls with a language model.
type ModelBackend struct {
	provider llm.Provider
	retry    retry.Config
	logger   zerolog.Logger
}

// NewModelBackend wraps provider.
func NewModelBackend(provider llm.Provider, retries int, logger zerolog.Logger) *ModelBackend {
	return &ModelBackend{
		provider: provider,
		retry:    retry.WithRetries(retries),
		logger:   logger.With().Str("component", "remote-model").Logger(),
	}
}

// Chat implements ChatClient. A <context> block in the model's reply is
// stripped from the message and returned as ContextUpdate.
func (m *ModelBackend) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	known := "(nothing yet)"
	if req.Context != nil && !req.Context.IsEmpty() {
		known = req.Context.Summary()
	}
	msgs := toLLM(req.ConversationHistory)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Message})

	text, err := m.complete(ctx, llm.CompletionRequest{
		SystemPrompt: fmt.Sprintf(chatSystemPrompt, req.ServiceName, known),
		Messages:     msgs,
	})
	if err != nil {
		return nil, err
	}

	message, update := splitContext(text, m.logger)
	resp := &ChatResponse{Success: true, Message: message, ContextUpdate: update}
	if err := CheckChat(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GenerateProposal implements ProposalClient.
func (m *ModelBackend) GenerateProposal(ctx context.Context, req ProposalRequest) (*ProposalResponse, error) {
	raw, err := json.MarshalIndent(req.ProposalContext, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal brief: %w", err)
	}
	var transcript strings.Builder
	for _, h := range req.ChatHistory {
		fmt.Fprintf(&transcript, "%s: %s\n", h.Role, h.Content)
	}
	prompt := fmt.Sprintf("Service: %s\n\nBrief:\n%s\n\nConversation:\n%s", req.ServiceName, raw, transcript.String())

	text, err := m.complete(ctx, llm.CompletionRequest{
		SystemPrompt: proposalSystemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:    8192,
	})
	if err != nil {
		return nil, err
	}
	resp := &ProposalResponse{Success: true, Proposal: strings.TrimSpace(text)}
	if err := CheckProposal(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Ping reports whether a provider is configured.
func (m *ModelBackend) Ping(context.Context) error {
	if m.provider == nil {
		return apperrors.ErrUnavailable
	}
	return nil
}

func (m *ModelBackend) complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	var text string
	cfg := m.retry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		m.logger.Warn().Err(err).Int("attempt", attempt).Dur("backoff", delay).Msg("retrying model call")
	}
	err := retry.Do(ctx, cfg, func(ctx context.Context) error {
		resp, err := m.provider.Complete(ctx, req)
		if err != nil {
			return err
		}
		text = resp.Text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("model %s: %w", m.provider.ModelID(), err)
	}
	return text, nil
}

func toLLM(msgs []history.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs)+1)
	for _, h := range msgs {
		out = append(out, llm.Message{Role: h.Role, Content: h.Content})
	}
	return out
}

// splitContext removes <context> blocks from text and decodes the first
// one that parses. Unparseable blocks are dropped with a warning.
func splitContext(text string, logger zerolog.Logger) (string, *brief.Brief) {
	var update *brief.Brief
	for _, m := range contextBlock.FindAllStringSubmatch(text, -1) {
		if update != nil {
			break
		}
		b, err := decodeContext(m[1])
		if err != nil {
			logger.Warn().Err(err).Msg("discarding unparseable context block")
			continue
		}
		update = &b
	}
	return strings.TrimSpace(contextBlock.ReplaceAllString(text, "")), update
}

// decodeContext accepts both nested {"scope":{"features":[...]}} and the
// dotted "scope.features" keys the prompt advertises.
func decodeContext(raw string) (brief.Brief, error) {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &flat); err != nil {
		return brief.Brief{}, err
	}
	scope := map[string]json.RawMessage{}
	if nested, ok := flat["scope"]; ok {
		if err := json.Unmarshal(nested, &scope); err != nil {
			return brief.Brief{}, err
		}
	}
	for k, v := range flat {
		if name, ok := strings.CutPrefix(k, "scope."); ok {
			scope[name] = v
			delete(flat, k)
		}
	}
	if len(scope) > 0 {
		s, err := json.Marshal(scope)
		if err != nil {
			return brief.Brief{}, err
		}
		flat["scope"] = s
	}
	joined, err := json.Marshal(flat)
	if err != nil {
		return brief.Brief{}, err
	}
	var b brief.Brief
	if err := json.Unmarshal(joined, &b); err != nil {
		return brief.Brief{}, err
	}
	return brief.Normalize(b), nil
}
