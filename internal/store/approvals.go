package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ApprovalRecord is one row of the approval audit log.
type ApprovalRecord struct {
	ID          string
	User        string
	Service     string
	Brief       string // JSON snapshot
	Decision    string // "" while pending
	RequestedAt time.Time
	DecidedAt   time.Time
}

// ApprovalLog is implemented by drivers that keep an approval audit log.
type ApprovalLog interface {
	SaveApproval(ctx context.Context, a *ApprovalRecord) error
	DecideApproval(ctx context.Context, id, decision string, at time.Time) error
}

// SaveApproval records an approval request.
func (s *Store) SaveApproval(ctx context.Context, a *ApprovalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.RequestedAt.IsZero() {
		a.RequestedAt = time.Now()
	}

	query := `
	INSERT OR REPLACE INTO approvals (
		id, user_id, service, brief, decision, requested_at, decided_at
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.User, a.Service, a.Brief,
		sql.NullString{String: a.Decision, Valid: a.Decision != ""},
		a.RequestedAt.UnixMilli(),
		sql.NullInt64{Int64: a.DecidedAt.UnixMilli(), Valid: !a.DecidedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("failed to save approval: %w", err)
	}
	return nil
}

// DecideApproval records the decision for a saved request.
func (s *Store) DecideApproval(ctx context.Context, id, decision string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE approvals SET decision = ?, decided_at = ? WHERE id = ?`,
		decision, at.UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to decide approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("approval %s not found", id)
	}
	return nil
}

// GetApproval retrieves an approval by id. It returns nil, nil when absent.
func (s *Store) GetApproval(ctx context.Context, id string) (*ApprovalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
	SELECT id, user_id, service, brief, decision, requested_at, decided_at
	FROM approvals WHERE id = ?`, id)
	a, err := scanApproval(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return a, nil
}

// ListApprovals returns the approvals of one conversation, newest first.
func (s *Store) ListApprovals(ctx context.Context, user, service string) ([]*ApprovalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, user_id, service, brief, decision, requested_at, decided_at
	FROM approvals WHERE user_id = ? AND service = ?
	ORDER BY requested_at DESC`, user, service)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var out []*ApprovalRecord
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApproval(row scanner) (*ApprovalRecord, error) {
	a := &ApprovalRecord{}
	var decision sql.NullString
	var requested int64
	var decided sql.NullInt64
	if err := row.Scan(&a.ID, &a.User, &a.Service, &a.Brief, &decision, &requested, &decided); err != nil {
		return nil, err
	}
	a.RequestedAt = time.UnixMilli(requested)
	if decision.Valid {
		a.Decision = decision.String
	}
	if decided.Valid {
		a.DecidedAt = time.UnixMilli(decided.Int64)
	}
	return a, nil
}
