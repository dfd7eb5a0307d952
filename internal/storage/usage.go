package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// IncrementUsage atomically increments the owner's question counter for the
// given day, but only while the counter is still below limit. It returns the
// counter value after the increment and whether the increment was admitted.
//
// The insert-or-conditional-update runs as a single statement, so two
// concurrent requests near the limit cannot both slip past the ceiling.
func (s *Store) IncrementUsage(ctx context.Context, ownerID, day string, limit int) (int, bool, error) {
	if limit <= 0 {
		used, err := s.UsageFor(ctx, ownerID, day)
		return used, false, err
	}

	var used int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO usage_records (owner_id, day, questions_used) VALUES (?, ?, 1)
		ON CONFLICT(owner_id, day) DO UPDATE SET questions_used = questions_used + 1
		WHERE questions_used < ?
		RETURNING questions_used`,
		ownerID, day, limit).Scan(&used)
	if err == sql.ErrNoRows {
		// Ceiling hit: the conditional update matched no row.
		used, err := s.UsageFor(ctx, ownerID, day)
		return used, false, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("incrementing usage: %w", err)
	}
	return used, true, nil
}

// UsageFor returns the owner's question count for the given day, 0 if no
// record exists yet.
func (s *Store) UsageFor(ctx context.Context, ownerID, day string) (int, error) {
	var used int
	err := s.db.QueryRowContext(ctx,
		`SELECT questions_used FROM usage_records WHERE owner_id = ? AND day = ?`,
		ownerID, day).Scan(&used)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading usage: %w", err)
	}
	return used, nil
}
