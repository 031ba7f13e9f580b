package store

import (
	"context"
	"fmt"
	"time"
)

// RunRetention deletes decided approval rows older than maxAge and
// conversation records untouched for longer than idle. A zero duration
// disables that rule.
func (s *Store) RunRetention(ctx context.Context, maxAge, idle time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if maxAge > 0 {
		res, err := s.db.ExecContext(ctx,
			"DELETE FROM approvals WHERE decided_at IS NOT NULL AND decided_at < ?",
			now.Add(-maxAge).UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to delete old approvals: %w", err)
		}
		n, _ := res.RowsAffected()
		s.logger.Debug().Int64("rows", n).Msg("pruned approvals")
	}
	if idle > 0 {
		res, err := s.db.ExecContext(ctx,
			"DELETE FROM kv WHERE updated_at < ?",
			now.Add(-idle).UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to delete idle records: %w", err)
		}
		n, _ := res.RowsAffected()
		s.logger.Debug().Int64("rows", n).Msg("pruned idle records")
	}
	return nil
}

// DBSizeBytes returns the database file size.
func (s *Store) DBSizeBytes() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to get page size: %w", err)
	}
	return pageCount * pageSize, nil
}
