package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/p-blackswan/intake-agent/internal/config"
	"github.com/p-blackswan/intake-agent/internal/conversation"
	"github.com/p-blackswan/intake-agent/internal/fields"
	"github.com/p-blackswan/intake-agent/internal/llm"
	"github.com/p-blackswan/intake-agent/internal/metrics"
	"github.com/p-blackswan/intake-agent/internal/notify"
	"github.com/p-blackswan/intake-agent/internal/remote"
	"github.com/p-blackswan/intake-agent/internal/retry"
	"github.com/p-blackswan/intake-agent/internal/session"
	"github.com/p-blackswan/intake-agent/internal/store"
)

// newLogger builds the root logger: JSON with unix timestamps and caller,
// console output in development, and an optional rotated file sink.
func newLogger(cfg *config.Config, console io.Writer) (zerolog.Logger, io.Closer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var out io.Writer = os.Stdout
	if cfg.IsDevelopment() {
		out = zerolog.ConsoleWriter{Out: console}
	}

	var closer io.Closer = nopCloser{}
	if cfg.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	logger := zerolog.New(out).With().Timestamp().Caller().Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Logger = logger
	return logger, closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// app is the wired engine shared by serve and chat.
type app struct {
	kv       store.KV
	backend  remote.Backend
	metrics  *metrics.Metrics
	engine   *conversation.Engine
	sessions *session.Manager
}

func newApp(cfg *config.Config, logger zerolog.Logger) (*app, error) {
	kv, err := store.Open(cfg.StoreDriver, cfg.StorePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	catalog, err := fields.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		kv.Close()
		return nil, err
	}

	m := metrics.New()
	backend := newBackend(cfg, m, logger)

	engine := conversation.NewEngine(fields.NewResolver(catalog), backend, backend, logger,
		conversation.WithMetrics(m),
		conversation.WithNotifier(newNotifier(cfg, logger)),
		conversation.WithHistoryLimit(cfg.HistoryLimit),
	)

	sessions := session.NewManager(engine, kv, logger,
		session.WithCacheSize(cfg.SessionCacheSize),
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithMetrics(m),
	)

	logger.Info().
		Str("store", cfg.StoreDriver).
		Str("remote", cfg.RemoteMode).
		Bool("slack_enabled", cfg.SlackEnabled()).
		Msg("intake engine ready")

	return &app{kv: kv, backend: backend, metrics: m, engine: engine, sessions: sessions}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

func newBackend(cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) remote.Backend {
	if cfg.RemoteMode == config.RemoteAnthropic {
		provider := llm.NewAnthropicProvider(cfg.AnthropicAPIKey,
			llm.WithModel(cfg.AnthropicModel),
			llm.WithLogger(logger),
		)
		return remote.NewModelBackend(provider, cfg.RemoteRetries, logger)
	}

	policy := retry.WithRetries(cfg.RemoteRetries)
	policy.OnRetry = func(attempt int, delay time.Duration, err error) {
		m.RecordError("remote", "retry")
		logger.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying remote call")
	}
	return remote.NewHTTPClient(cfg.RemoteBaseURL, logger,
		remote.WithTimeout(cfg.RemoteTimeout),
		remote.WithRetry(policy),
	)
}

func newNotifier(cfg *config.Config, logger zerolog.Logger) notify.Notifier {
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if cfg.SlackEnabled() {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, logger))
	}
	return notify.NewMultiNotifier(notifiers...)
}

// loadConfig reads and validates the environment. adjust runs before
// validation so a command can relax settings it does not use.
func loadConfig(adjust func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(errors.New("invalid configuration"), err)
	}
	return cfg, nil
}
