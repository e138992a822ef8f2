package store

import (
	"context"
	"fmt"

	"github.com/roach88/genstore/internal/host"
)

// LastSeq returns the highest journaled sequence number, or 0 for an empty
// journal.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM call_log
	`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// AppendCall journals one call. Sequence numbers must be unique.
func (s *Store) AppendCall(ctx context.Context, rec host.CallRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO call_log (seq, op, caller, outcome, digest)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Seq, rec.Op, rec.Caller, rec.Outcome, rec.Digest)
	if err != nil {
		return fmt.Errorf("append call %d: %w", rec.Seq, err)
	}
	return nil
}

// Calls returns the most recent journaled calls in ascending seq order.
// An empty op matches every operation; limit <= 0 returns everything.
func (s *Store) Calls(ctx context.Context, op string, limit int) ([]host.CallRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, op, caller, outcome, digest FROM (
			SELECT seq, op, caller, outcome, digest FROM call_log
			WHERE ? = '' OR op = ?
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC
	`, op, op, limit)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	var out []host.CallRecord
	for rows.Next() {
		var rec host.CallRecord
		if err := rows.Scan(&rec.Seq, &rec.Op, &rec.Caller, &rec.Outcome, &rec.Digest); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calls: %w", err)
	}
	return out, nil
}
