// Package store persists conversation records behind a small key-value
// interface, with SQLite, Badger and in-memory drivers.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Record names used in persistence keys.
const (
	RecordHistory  = "history"
	RecordBrief    = "brief"
	RecordProposal = "proposal"
	RecordState    = "state"
)

// Records lists every record kept per conversation.
var Records = []string{RecordHistory, RecordBrief, RecordProposal, RecordState}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

// KV is the persistence adapter. Values are JSON documents.
type KV interface {
	// Get returns nil, nil when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Key builds the composite key for one record of a (user, service)
// conversation.
func Key(record, user, service string) string {
	return "intake:" + record + ":" + user + ":" + strings.ToLower(strings.TrimSpace(service))
}

// GetJSON decodes key into v. found is false when the key is absent.
func GetJSON(ctx context.Context, kv KV, key string, v any) (found bool, err error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw)
}

// Open opens the driver named by driver at path.
func Open(driver, path string, logger zerolog.Logger) (KV, error) {
	switch driver {
	case DriverSQLite, "":
		return New(path, logger)
	case DriverBadger:
		return OpenBadger(path, logger)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
