package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Storage persists the focus ledger in the focus_history table, one row per
// (user, day).
type Storage struct {
	pool *pgxpool.Pool
}

func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Storage) Increment(ctx context.Context, userID uuid.UUID, date string, seconds int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO focus_history (user_id, date, seconds)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, date)
		DO UPDATE SET seconds = focus_history.seconds + EXCLUDED.seconds`,
		userID, date, seconds)
	if err != nil {
		return fmt.Errorf("increment focus: %w", err)
	}
	return nil
}

func (s *Storage) Set(ctx context.Context, userID uuid.UUID, date string, seconds int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO focus_history (user_id, date, seconds)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, date)
		DO UPDATE SET seconds = EXCLUDED.seconds`,
		userID, date, seconds)
	if err != nil {
		return fmt.Errorf("set focus: %w", err)
	}
	return nil
}

func (s *Storage) GetHistory(ctx context.Context, userID uuid.UUID, date string) (map[string]int, error) {
	query := `SELECT date, seconds FROM focus_history WHERE user_id = $1`
	args := []any{userID}

	if date != "" {
		query += ` AND date = $2`
		args = append(args, date)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select focus history: %w", err)
	}
	defer rows.Close()

	res := make(map[string]int)
	for rows.Next() {
		var day string
		var seconds int
		if err := rows.Scan(&day, &seconds); err != nil {
			return nil, fmt.Errorf("scan focus row: %w", err)
		}
		res[day] = seconds
	}
	return res, rows.Err()
}
