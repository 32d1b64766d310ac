package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Usage returns how many diagrams user generated on date (YYYY-MM-DD).
func (s *Store) Usage(ctx context.Context, user, date string) (int, error) {
	var count int
	err := sq.Select("generations").
		From("diagram_usage").
		Where(sq.Eq{"user_id": user, "date": date}).
		RunWith(s.db).
		QueryRowContext(ctx).
		Scan(&count)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage for %s on %s: %w", user, date, err)
	}
	return count, nil
}

// IncrementUsage adds one generation for user on date and returns the new count.
func (s *Store) IncrementUsage(ctx context.Context, user, date string) (int, error) {
	_, err := sq.Insert("diagram_usage").
		Columns("user_id", "date", "generations").
		Values(user, date, 1).
		Suffix("ON CONFLICT(user_id, date) DO UPDATE SET generations = generations + 1").
		RunWith(s.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage for %s on %s: %w", user, date, err)
	}
	return s.Usage(ctx, user, date)
}
