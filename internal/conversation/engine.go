package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/intake-agent/internal/answer"
	"github.com/p-blackswan/intake-agent/internal/brief"
	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/fields"
	"github.com/p-blackswan/intake-agent/internal/history"
	"github.com/p-blackswan/intake-agent/internal/metrics"
	"github.com/p-blackswan/intake-agent/internal/notify"
	"github.com/p-blackswan/intake-agent/internal/remote"
)

const (
	greeting       = "Hi! I'll help you put together a project brief."
	remoteFailure  = "Sorry, I couldn't reach the assistant just now. Your answer was not lost: please try sending it again."
	defaultHistory = 30
	retryProposal  = "Please generate the proposal."
)

// Engine handles conversation turns. It holds no per-session state and is
// safe for concurrent use across sessions.
type Engine struct {
	resolver     *fields.Resolver
	chat         remote.ChatClient
	proposals    remote.ProposalClient
	notifier     notify.Notifier
	metrics      *metrics.Metrics
	routes       []Route
	historyLimit int
	logger       zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records turn, rejection, remote and approval metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithNotifier is told about generated proposals.
func WithNotifier(n notify.Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithHistoryLimit caps the history forwarded to the remote assistant.
func WithHistoryLimit(n int) Option { return func(e *Engine) { e.historyLimit = n } }

// WithRoutes replaces DefaultRoutes.
func WithRoutes(r []Route) Option { return func(e *Engine) { e.routes = r } }

// NewEngine creates an engine. A nil resolver selects the built-in catalog.
func NewEngine(resolver *fields.Resolver, chat remote.ChatClient, proposals remote.ProposalClient, logger zerolog.Logger, opts ...Option) *Engine {
	if resolver == nil {
		resolver = fields.NewResolver(nil)
	}
	e := &Engine{
		resolver:     resolver,
		chat:         chat,
		proposals:    proposals,
		routes:       DefaultRoutes,
		historyLimit: defaultHistory,
		logger:       logger.With().Str("component", "conversation").Logger(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Resolver returns the resolver used to compute missing fields.
func (e *Engine) Resolver() *fields.Resolver { return e.resolver }

// Greet appends the opening message to a session with no history.
func (e *Engine) Greet(s *Session) []history.Turn {
	if len(s.History) > 0 {
		return nil
	}
	q := e.resolver.Descriptor(fields.FieldName).Question
	t := history.Assistant(history.KindPrompt, greeting+" "+q)
	s.append(t)
	return []history.Turn{t}
}

// HandleTurn processes one user message. Validation and remote failures are
// reported through the Outcome; an error is returned only for unusable input.
func (e *Engine) HandleTurn(ctx context.Context, s *Session, text string) (*Outcome, error) {
	start := time.Now()
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty message", apperrors.ErrInvalidInput)
	}

	prev := history.LastAssistant(s.History)
	s.append(history.User(text))

	out, err := e.turn(ctx, s, text, prev)
	if err != nil {
		return nil, err
	}
	e.observeTurn(s, out, time.Since(start))
	return out, nil
}

func (e *Engine) turn(ctx context.Context, s *Session, text, prev string) (*Outcome, error) {
	if s.Approval.Awaiting() {
		switch {
		case IsAffirmation(text):
			return e.decide(ctx, s, true)
		case IsNegation(text):
			return e.decide(ctx, s, false)
		}
	}

	// Validate against the pending field, or route by the last question.
	var update brief.Brief
	if s.Pending != "" {
		d := e.resolver.Descriptor(s.Pending)
		res := answer.Parse(d, text)
		if !res.Accepted {
			return e.clarify(s, d, res), nil
		}
		update, _ = fields.Update(d.ID, res.Value)
	} else if u, field, ok := e.route(s.Brief, prev, text); ok {
		update = u
		e.logger.Debug().Str("field", field).Msg("routed reply from previous question")
	}

	staged := brief.Merge(s.Brief, update)
	staged = brief.Merge(staged, opportunistic(s.Brief, text))
	budgetAnswered := update.Budget != "" || update.BudgetAmount > 0

	res := e.resolver.Resolve(staged, s.Service)
	if res.Next != nil {
		e.commit(s, staged, budgetAnswered)
		return e.prompt(s, *res.Next), nil
	}

	if !res.DeferToRemote() && res.Complete() && !s.BudgetGate && wantsProposal(text, prev) {
		e.commit(s, staged, budgetAnswered)
		return e.requestApproval(s), nil
	}

	return e.forward(ctx, s, text, staged, budgetAnswered), nil
}

// commit replaces the session brief and clears the pending field.
func (e *Engine) commit(s *Session, b brief.Brief, budgetAnswered bool) {
	s.Brief = b
	s.Pending = ""
	if budgetAnswered {
		s.BudgetGate = false
	}
}

func (e *Engine) clarify(s *Session, d fields.Descriptor, res answer.Result) *Outcome {
	if e.metrics != nil {
		e.metrics.RecordRejection(d.ID, string(res.Reason))
	}
	e.logger.Info().Str("field", d.ID).Str("reason", string(res.Reason)).Msg("answer rejected")
	t := history.Assistant(history.KindClarification, res.Clarification)
	s.append(t)
	return &Outcome{Action: ActionClarify, Turns: []history.Turn{t}, Field: &d, Reason: res.Reason}
}

func (e *Engine) prompt(s *Session, d fields.Descriptor) *Outcome {
	s.Pending = d.ID
	t := history.Assistant(history.KindPrompt, answer.Prompt(d))
	s.append(t)
	return &Outcome{Action: ActionPrompt, Turns: []history.Turn{t}, Field: &d}
}

// forward sends the turn to the remote assistant. The staged brief is only
// committed when the call succeeds.
func (e *Engine) forward(ctx context.Context, s *Session, text string, staged brief.Brief, budgetAnswered bool) *Outcome {
	if e.chat == nil {
		return e.fail(s, text, "chat", fmt.Errorf("chat: %w: no remote configured", apperrors.ErrUnavailable))
	}

	// The new user turn is the message itself, not history.
	prior := s.History[:len(s.History)-1]
	req := remote.ChatRequest{
		Message:             text,
		ConversationHistory: history.ForRemote(prior, e.historyLimit),
		ServiceName:         s.Service,
		Context:             &staged,
	}

	start := time.Now()
	resp, err := e.chat.Chat(ctx, req)
	if err == nil {
		err = remote.CheckChat(resp)
	}
	if e.metrics != nil {
		e.metrics.ObserveRemote("chat", time.Since(start).Seconds(), err != nil)
	}
	if err != nil {
		return e.fail(s, text, "chat", err)
	}

	if resp.ContextUpdate != nil {
		staged = brief.Merge(staged, *resp.ContextUpdate)
		if resp.ContextUpdate.Budget != "" || resp.ContextUpdate.BudgetAmount > 0 {
			budgetAnswered = true
		}
	}
	e.commit(s, staged, budgetAnswered)

	reply := history.Assistant(history.KindRemote, strings.TrimSpace(resp.Message))
	s.append(reply)
	out := &Outcome{Action: ActionRemote, Turns: []history.Turn{reply}}

	if IsBudgetGate(reply.Content) {
		// Passed through verbatim; the gate blocks direct proposal requests
		// until the budget is answered again.
		s.BudgetGate = true
		e.logger.Info().Msg("budget gate raised by remote assistant")
		return out
	}

	res := e.resolver.Resolve(s.Brief, s.Service)
	if res.Next != nil {
		// The assistant has captured the identity fields; local questions
		// take over from here.
		next := e.prompt(s, *res.Next)
		out.Turns = append(out.Turns, next.Turns...)
		out.Field = next.Field
		return out
	}
	if IsProposalReady(reply.Content) && res.Complete() && !res.DeferToRemote() {
		appr := e.requestApproval(s)
		out.Action = ActionApproval
		out.Turns = append(out.Turns, appr.Turns...)
		out.Approval = appr.Approval
	}
	return out
}

// fail records a remote failure as a retryable error turn carrying the
// original text. The brief is left untouched.
func (e *Engine) fail(s *Session, retryText, call string, err error) *Outcome {
	e.logger.Warn().Err(err).
		Str("call", call).
		Str("code", apperrors.Code(err)).
		Str("service", s.Service).
		Msg("remote call failed")
	if e.metrics != nil {
		e.metrics.RecordError("remote", call)
	}
	msg := remoteFailure
	if call == "proposal" {
		msg = "Sorry, I couldn't generate the proposal. Please try again."
	}
	if errors.Is(err, context.Canceled) {
		msg = "The request was cancelled before the assistant answered. Please send it again."
	}
	t := history.Failure(msg, retryText)
	s.append(t)
	return &Outcome{Action: ActionError, Turns: []history.Turn{t}, Err: err}
}

func (e *Engine) observeTurn(s *Session, out *Outcome, d time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordTurn(string(out.Action), d.Seconds())
	}
	e.logger.Info().
		Str("user", s.User).
		Str("service", s.Service).
		Str("action", string(out.Action)).
		Str("pending", s.Pending).
		Dur("duration", d).
		Msg("turn handled")
}
