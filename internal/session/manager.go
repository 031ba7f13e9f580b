// Package session owns live conversations: it loads and persists them per
// (user, service) key, caches them in an LRU, serializes turns with a busy
// flag and turns input events into engine calls.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/intake-agent/internal/approval"
	"github.com/p-blackswan/intake-agent/internal/conversation"
	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/metrics"
	"github.com/p-blackswan/intake-agent/internal/store"
	"github.com/p-blackswan/intake-agent/lru"
)

const defaultCacheSize = 512

// Key identifies one conversation.
type Key struct {
	User    string
	Service string
}

func (k Key) id() string {
	return k.User + "\x00" + strings.ToLower(strings.TrimSpace(k.Service))
}

func (k Key) valid() error {
	if strings.TrimSpace(k.User) == "" || strings.TrimSpace(k.Service) == "" {
		return fmt.Errorf("%w: user and service are required", apperrors.ErrInvalidInput)
	}
	return nil
}

// live is a cached conversation. conv is replaced, never mutated, while a
// turn is in flight; mu guards the pointer and the compose state.
type live struct {
	mu          sync.Mutex
	conv        *conversation.Session
	compose     string
	attachments []Attachment
}

// Manager dispatches events to conversations.
type Manager struct {
	engine  *conversation.Engine
	kv      store.KV
	audit   store.ApprovalLog
	metrics *metrics.Metrics
	logger  zerolog.Logger

	cacheSize int
	idleTTL   time.Duration
	cache     *lru.Cache[string, *live]

	mu   sync.Mutex // guards cache fill and busy
	busy map[string]bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithCacheSize sets how many conversations stay in memory.
func WithCacheSize(n int) Option { return func(m *Manager) { m.cacheSize = n } }

// WithIdleTTL drops cached conversations untouched for d. They are reloaded
// from the store on next use.
func WithIdleTTL(d time.Duration) Option { return func(m *Manager) { m.idleTTL = d } }

// WithMetrics reports the cached session count and persistence errors.
func WithMetrics(mt *metrics.Metrics) Option { return func(m *Manager) { m.metrics = mt } }

// WithAudit records approval requests and decisions. It defaults to the
// store when the store keeps an approval log.
func WithAudit(a store.ApprovalLog) Option { return func(m *Manager) { m.audit = a } }

// NewManager creates a session manager over engine and kv.
func NewManager(engine *conversation.Engine, kv store.KV, logger zerolog.Logger, opts ...Option) *Manager {
	m := &Manager{
		engine:    engine,
		kv:        kv,
		cacheSize: defaultCacheSize,
		busy:      make(map[string]bool),
		logger:    logger.With().Str("component", "session").Logger(),
	}
	if a, ok := kv.(store.ApprovalLog); ok {
		m.audit = a
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cacheSize < 1 {
		m.cacheSize = defaultCacheSize
	}
	m.cache = lru.New[string, *live](m.cacheSize,
		lru.WithTTL[string, *live](m.idleTTL),
		lru.WithOnEvict[string, *live](func(id string, _ *live) {
			m.logger.Debug().Str("session", strings.ReplaceAll(id, "\x00", "/")).Msg("session evicted from cache")
			m.reportCached()
		}),
	)
	return m
}

func (m *Manager) reportCached() {
	if m.metrics != nil {
		m.metrics.SetSessionsCached(m.cache.Len())
	}
}

// get returns the cached conversation for key, loading it from the store
// (and greeting it if new) on a miss.
func (m *Manager) get(ctx context.Context, key Key) (*live, error) {
	id := key.id()
	if l, ok := m.cache.Get(id); ok {
		if m.idleTTL > 0 {
			m.cache.Put(id, l)
		}
		return l, nil
	}

	l, found, err := m.load(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		m.engine.Greet(l.conv)
		if err := m.save(ctx, key, l.conv, l.compose, l.attachments); err != nil {
			return nil, err
		}
		m.logger.Info().Str("user", key.User).Str("service", key.Service).Msg("conversation started")
	}

	m.mu.Lock()
	if existing, ok := m.cache.Peek(id); ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.cache.Put(id, l)
	m.mu.Unlock()
	m.reportCached()
	return l, nil
}

// acquire sets the busy flag for key. The returned func clears it.
func (m *Manager) acquire(key Key) (func(), error) {
	id := key.id()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[id] {
		return nil, fmt.Errorf("%w: a message is already being processed", apperrors.ErrBusy)
	}
	m.busy[id] = true
	return func() {
		m.mu.Lock()
		delete(m.busy, id)
		m.mu.Unlock()
	}, nil
}

// Busy reports whether a turn is in flight for key.
func (m *Manager) Busy(key Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy[key.id()]
}

// Open loads (or starts) the conversation for key and returns its view.
func (m *Manager) Open(ctx context.Context, key Key) (*View, error) {
	if err := key.valid(); err != nil {
		return nil, err
	}
	l, err := m.get(ctx, key)
	if err != nil {
		return nil, err
	}
	return m.view(l, m.Busy(key)), nil
}

// Dispatch handles one event for key. Speech and attachment events only
// touch the compose state and are accepted while a turn is in flight;
// submit, decide and reset fail with ErrBusy instead.
func (m *Manager) Dispatch(ctx context.Context, key Key, ev Event) (Result, error) {
	if err := key.valid(); err != nil {
		return Result{Kind: ev.Kind}, err
	}
	l, err := m.get(ctx, key)
	if err != nil {
		return Result{Kind: ev.Kind}, err
	}

	switch ev.Kind {
	case EventSpeech:
		return m.speech(ctx, key, l, ev.Text)
	case EventAttachment:
		return m.attach(ctx, key, l, Attachment{Name: ev.Name, Text: ev.Text})
	case EventSubmit, EventDecide, EventReset:
		release, err := m.acquire(key)
		if err != nil {
			return Result{Kind: ev.Kind}, err
		}
		defer release()
		return m.turn(ctx, key, l, ev)
	default:
		return Result{Kind: ev.Kind}, fmt.Errorf("%w: unknown event %q", apperrors.ErrInvalidInput, ev.Kind)
	}
}

// Run consumes events for key until the channel closes or ctx is done,
// reporting each result to emit. Errors are carried in Result.Err.
func (m *Manager) Run(ctx context.Context, key Key, events <-chan Event, emit func(Result)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			res, err := m.Dispatch(ctx, key, ev)
			res.Err = err
			emit(res)
		}
	}
}

func (m *Manager) speech(ctx context.Context, key Key, l *live, text string) (Result, error) {
	return m.updateCompose(ctx, key, l, EventSpeech, func() {
		l.compose = appendSpeech(l.compose, text)
	})
}

func (m *Manager) attach(ctx context.Context, key Key, l *live, a Attachment) (Result, error) {
	if strings.TrimSpace(a.Text) == "" {
		return Result{Kind: EventAttachment}, fmt.Errorf("%w: attachment has no text", apperrors.ErrInvalidInput)
	}
	return m.updateCompose(ctx, key, l, EventAttachment, func() {
		l.attachments = append(l.attachments, a)
	})
}

// updateCompose applies change to the compose state and persists it. l.mu
// is held through the save so the records written always match the
// conversation a concurrent turn last swapped in. While a turn is in flight
// the save is skipped; the turn persists the compose state when it finishes.
func (m *Manager) updateCompose(ctx context.Context, key Key, l *live, kind EventKind, change func()) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	change()
	res := Result{Kind: kind, Compose: l.compose, Attachments: len(l.attachments)}
	if m.Busy(key) {
		return res, nil
	}
	return res, m.save(ctx, key, l.conv, l.compose, l.attachments)
}

// turn runs a submit, decide or reset against a copy of the conversation
// and swaps the copy in when done. The caller holds the busy flag.
func (m *Manager) turn(ctx context.Context, key Key, l *live, ev Event) (Result, error) {
	l.mu.Lock()
	work := cloneSession(l.conv)
	buf, atts := l.compose, l.attachments
	if ev.Kind == EventSubmit || ev.Kind == EventReset {
		l.compose, l.attachments = "", nil
	}
	l.mu.Unlock()

	restore := func() {
		if ev.Kind != EventSubmit {
			return
		}
		l.mu.Lock()
		l.compose = appendSpeech(buf, l.compose)
		l.attachments = append(atts, l.attachments...)
		l.mu.Unlock()
	}

	res := Result{Kind: ev.Kind}
	before := work.Approval.Pending

	switch ev.Kind {
	case EventSubmit:
		out, err := m.engine.HandleTurn(ctx, work, compose(buf, ev.Text, atts))
		if err != nil {
			restore()
			return res, err
		}
		res.Outcome = out
	case EventDecide:
		out, err := m.engine.Decide(ctx, work, ev.Accept)
		if err != nil {
			return res, err
		}
		res.Outcome = out
	case EventReset:
		work.Reset()
		if err := m.clear(ctx, key); err != nil {
			restore()
			return res, err
		}
		res.Turns = m.engine.Greet(work)
		m.logger.Info().Str("user", key.User).Str("service", key.Service).Msg("conversation reset")
	}

	l.mu.Lock()
	l.conv = work
	res.Compose, res.Attachments = l.compose, len(l.attachments)
	buf, atts = l.compose, append([]Attachment(nil), l.attachments...)
	l.mu.Unlock()

	m.cache.Put(key.id(), l)
	if res.Outcome != nil {
		m.auditOutcome(ctx, key, before, res.Outcome)
	}
	return res, m.save(ctx, key, work, buf, atts)
}

// auditOutcome records approval requests and decisions when an audit log
// is configured. Failures are logged only.
func (m *Manager) auditOutcome(ctx context.Context, key Key, before *approval.Request, out *conversation.Outcome) {
	if m.audit == nil || out.Approval == nil {
		return
	}
	req := out.Approval
	var err error
	switch {
	case req.Decision != approval.DecisionNone:
		err = m.audit.DecideApproval(ctx, req.ID, string(req.Decision), req.RespondedAt)
	case before == nil || before.ID != req.ID:
		raw, jerr := json.Marshal(req.Brief)
		if jerr != nil {
			err = jerr
			break
		}
		err = m.audit.SaveApproval(ctx, &store.ApprovalRecord{
			ID:          req.ID,
			User:        key.User,
			Service:     key.Service,
			Brief:       string(raw),
			RequestedAt: req.RequestedAt,
		})
	}
	if err != nil {
		if m.metrics != nil {
			m.metrics.RecordError("store", "approval_audit")
		}
		m.logger.Warn().Err(err).Str("approval_id", req.ID).Msg("failed to audit approval")
	}
}

// Sweep drops idle conversations from the cache.
func (m *Manager) Sweep() int {
	n := m.cache.Sweep()
	if n > 0 {
		m.reportCached()
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug().Int("count", n).Msg("swept idle sessions")
			}
		}
	}
}

// Cached returns the number of conversations held in memory.
func (m *Manager) Cached() int { return m.cache.Len() }
