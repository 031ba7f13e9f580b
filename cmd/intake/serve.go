package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/p-blackswan/intake-agent/internal/api"
	"github.com/p-blackswan/intake-agent/internal/config"
	"github.com/p-blackswan/intake-agent/internal/health"
	"github.com/p-blackswan/intake-agent/internal/store"
)

const (
	sweepEvery     = time.Minute
	retentionEvery = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		logger, closer := newLogger(cfg, os.Stderr)
		defer closer.Close()
		return serve(cmd.Context(), cfg, logger)
	},
}

func serve(parent context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.ListenAddr).
		Str("auth_mode", cfg.AuthMode).
		Msg("starting intake service")

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	checker := health.NewChecker(logger)
	checker.Register("store", health.Critical(a.kv))
	checker.Register("remote", health.Optional(a.backend))

	go a.sessions.RunSweeper(ctx, sweepEvery)
	if db, ok := a.kv.(*store.Store); ok && cfg.StoreRetention > 0 {
		go runRetention(ctx, db, cfg.StoreRetention, logger)
	}

	srv := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		Auth: api.AuthConfig{
			Mode:      cfg.AuthMode,
			APIKey:    cfg.APIKey,
			JWTSecret: cfg.JWTSecret,
		},
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOriginList(),
	}, a.sessions, checker, a.metrics, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutdown signal received")
	if err := srv.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("API server shutdown error")
	}
	logger.Info().Msg("intake service stopped")
	return nil
}

// runRetention prunes conversations and decided approvals older than age
// every hour and logs the database size.
func runRetention(ctx context.Context, db *store.Store, age time.Duration, logger zerolog.Logger) {
	ticker := time.NewTicker(retentionEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := db.RunRetention(ctx, age, age); err != nil {
				logger.Error().Err(err).Msg("retention failed")
				continue
			}
			if size, err := db.DBSizeBytes(); err == nil {
				logger.Info().Str("size", humanize.Bytes(uint64(size))).Msg("store retention complete")
			}
		}
	}
}
