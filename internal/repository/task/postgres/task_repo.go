package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focusTracker/internal/logger"
	"focusTracker/internal/models/task"
	repo "focusTracker/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool *pgxpool.Pool
}

// PoolSettings tunes the shared pgx pool. Zero values fall back to defaults.
type PoolSettings struct {
	MaxConns    int32
	MinConns    int32
	IdleTimeout time.Duration
}

func New(ctx context.Context, connString string, settings ...PoolSettings) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: parsing pool config", err)
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if len(settings) > 0 {
		s := settings[0]
		if s.MaxConns > 0 {
			config.MaxConns = s.MaxConns
		}
		if s.MinConns > 0 {
			config.MinConns = s.MinConns
		}
		if s.IdleTimeout > 0 {
			config.MaxConnIdleTime = s.IdleTimeout
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: creating pool", err)
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("Repository: connected to PostgreSQL")
	return &Storage{pool: pool}, nil
}

// NewWithPool wraps an existing pool, used by tests and by sibling
// repositories sharing one connection pool.
func NewWithPool(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: closed PostgreSQL connections")
}

func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

const taskColumns = `id, user_id, title, duration_minutes, category, scheduled_date,
	remaining_ms, status, created_at, started_at, last_resumed_at, exhausted_on`

func (s *Storage) Create(ctx context.Context, t *task.Task) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO tasks (` + taskColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = tx.Exec(ctx, query,
		t.ID, t.UserID, t.Title, t.DurationMinutes, t.Category, t.ScheduledDate,
		t.RemainingMs, t.Status, t.CreatedAt, t.StartedAt, t.LastResumedAt, nullableDay(t.ExhaustedOn))
	if err != nil {
		logger.Error("Repository: inserting task", err, zap.String("task_id", t.ID.String()))
		return fmt.Errorf("insert task: %w", err)
	}

	if err := insertSubtasks(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logSlow("create task", start)
	return nil
}

// Update rewrites the task row and replaces the subtask list wholesale.
func (s *Storage) Update(ctx context.Context, t *task.Task) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE tasks SET
				title = $1, duration_minutes = $2, category = $3, scheduled_date = $4,
				remaining_ms = $5, status = $6, created_at = $7, started_at = $8,
				last_resumed_at = $9, exhausted_on = $10
			WHERE id = $11 AND user_id = $12`

	tag, err := tx.Exec(ctx, query,
		t.Title, t.DurationMinutes, t.Category, t.ScheduledDate,
		t.RemainingMs, t.Status, t.CreatedAt, t.StartedAt,
		t.LastResumedAt, nullableDay(t.ExhaustedOn), t.ID, t.UserID)
	if err != nil {
		logger.Error("Repository: updating task", err, zap.String("task_id", t.ID.String()))
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM subtasks WHERE task_id = $1`, t.ID); err != nil {
		return fmt.Errorf("clear subtasks: %w", err)
	}
	if err := insertSubtasks(ctx, tx, t); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	logSlow("update task", start)
	return nil
}

func (s *Storage) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	t, err := scanTask(s.pool.QueryRow(ctx, query, taskID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		return nil, fmt.Errorf("select task: %w", err)
	}

	if err := s.attachSubtasks(ctx, []*task.Task{t}); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Storage) GetByUser(ctx context.Context, userID uuid.UUID, scheduledDate string) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}

	if scheduledDate != "" {
		query += ` AND scheduled_date = $2`
		args = append(args, scheduledDate)
	}
	query += ` ORDER BY created_at DESC, id`

	return s.queryTasks(ctx, query, args...)
}

func (s *Storage) GetRunning(ctx context.Context) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE status = $1 ORDER BY created_at DESC, id`
	return s.queryTasks(ctx, query, task.StatusRunning)
}

func (s *Storage) GetExhaustedBefore(ctx context.Context, day string) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
			WHERE exhausted_on IS NOT NULL AND exhausted_on < $1 AND status != $2
			ORDER BY created_at DESC, id`
	return s.queryTasks(ctx, query, day, task.StatusCompleted)
}

func (s *Storage) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	// subtasks go with the task via ON DELETE CASCADE
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		logger.Error("Repository: deleting task", err, zap.String("task_id", taskID.String()))
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*task.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	if err := s.attachSubtasks(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *Storage) attachSubtasks(ctx context.Context, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(tasks))
	byID := make(map[uuid.UUID]*task.Task, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		byID[t.ID] = t
		t.Subtasks = []*task.SubTask{}
	}

	rows, err := s.pool.Query(ctx,
		`SELECT task_id, id, title, completed FROM subtasks
		WHERE task_id = ANY($1) ORDER BY position, id`, ids)
	if err != nil {
		return fmt.Errorf("select subtasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var taskID uuid.UUID
		st := &task.SubTask{}
		if err := rows.Scan(&taskID, &st.ID, &st.Title, &st.Completed); err != nil {
			return fmt.Errorf("scan subtask: %w", err)
		}
		if parent, ok := byID[taskID]; ok {
			parent.Subtasks = append(parent.Subtasks, st)
		}
	}
	return rows.Err()
}

func insertSubtasks(ctx context.Context, tx pgx.Tx, t *task.Task) error {
	for i, st := range t.Subtasks {
		_, err := tx.Exec(ctx,
			`INSERT INTO subtasks (id, task_id, title, completed, position)
			VALUES ($1, $2, $3, $4, $5)`,
			st.ID, t.ID, st.Title, st.Completed, i)
		if err != nil {
			logger.Error("Repository: inserting subtask", err, zap.String("task_id", t.ID.String()))
			return fmt.Errorf("insert subtask: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask normalizes rows written by older clients: missing remaining_ms
// falls back to the full duration, missing status to PAUSED.
func scanTask(row rowScanner) (*task.Task, error) {
	t := &task.Task{}
	var remaining *int64
	var status *string
	var exhaustedOn *string

	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.DurationMinutes, &t.Category,
		&t.ScheduledDate, &remaining, &status, &t.CreatedAt, &t.StartedAt,
		&t.LastResumedAt, &exhaustedOn)
	if err != nil {
		return nil, err
	}

	if remaining != nil {
		t.RemainingMs = *remaining
	} else {
		t.RemainingMs = t.TotalMs()
	}
	if status != nil && *status != "" {
		t.Status = task.Status(*status)
	} else {
		t.Status = task.StatusPaused
	}
	if exhaustedOn != nil {
		t.ExhaustedOn = *exhaustedOn
	}
	return t, nil
}

func nullableDay(day string) *string {
	if day == "" {
		return nil
	}
	return &day
}

func logSlow(op string, start time.Time) {
	if elapsed := time.Since(start); elapsed > time.Millisecond*100 {
		logger.Warn("Repository: slow operation",
			zap.String("op", op),
			zap.Duration("ms", elapsed))
	}
}
