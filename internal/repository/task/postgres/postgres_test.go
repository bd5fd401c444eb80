package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"focusTracker/internal/models/task"
	"focusTracker/internal/models/user"
	"focusTracker/internal/repository"
	focuspostgres "focusTracker/internal/repository/focus/postgres"
	"focusTracker/internal/repository/task/postgres"
	userpostgres "focusTracker/internal/repository/user/postgres"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type PostgresTestSuite struct {
	suite.Suite
	container testcontainers.Container
	storage   *postgres.Storage
	focus     *focuspostgres.Storage
	users     *userpostgres.Storage
	ctx       context.Context
	userID    uuid.UUID
}

func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb", host, port.Port())

	s.storage, err = postgres.New(s.ctx, connString)
	require.NoError(s.T(), err)
	s.focus = focuspostgres.NewWithPool(s.storage.Pool())
	s.users = userpostgres.NewWithPool(s.storage.Pool())

	migration, err := os.ReadFile("../../../../migrations/0001_init.up.sql")
	require.NoError(s.T(), err)
	_, err = s.storage.Pool().Exec(s.ctx, string(migration))
	require.NoError(s.T(), err)
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

func (s *PostgresTestSuite) SetupTest() {
	_, err := s.storage.Pool().Exec(s.ctx, "TRUNCATE users CASCADE")
	require.NoError(s.T(), err)

	s.userID = uuid.New()
	require.NoError(s.T(), s.users.Create(s.ctx, &user.User{
		ID:           s.userID,
		Username:     "test-user-" + s.userID.String()[:8],
		PasswordHash: "x",
		CreatedAt:    time.Now(),
	}))
}

func (s *PostgresTestSuite) newTask(title string, createdAt time.Time) *task.Task {
	return &task.Task{
		ID:              uuid.New(),
		UserID:          s.userID,
		Title:           title,
		DurationMinutes: 25,
		Category:        task.CategoryProfessional,
		ScheduledDate:   "2026-03-14",
		RemainingMs:     25 * 60_000,
		Status:          task.StatusPaused,
		CreatedAt:       createdAt,
		Subtasks:        []*task.SubTask{},
	}
}

func (s *PostgresTestSuite) TestHealthCheck() {
	assert.NoError(s.T(), s.storage.HealthCheck(s.ctx))
}

func (s *PostgresTestSuite) TestCreateAndGet() {
	created := s.newTask("integration", time.Now().UTC().Truncate(time.Millisecond))
	created.Subtasks = []*task.SubTask{
		{ID: uuid.New(), Title: "first"},
		{ID: uuid.New(), Title: "second", Completed: true},
	}
	require.NoError(s.T(), s.storage.Create(s.ctx, created))

	got, err := s.storage.GetByID(s.ctx, s.userID, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "integration", got.Title)
	assert.Equal(s.T(), task.CategoryProfessional, got.Category)
	assert.Equal(s.T(), created.RemainingMs, got.RemainingMs)

	// subtask order survives the round trip
	require.Len(s.T(), got.Subtasks, 2)
	assert.Equal(s.T(), "first", got.Subtasks[0].Title)
	assert.Equal(s.T(), "second", got.Subtasks[1].Title)
	assert.True(s.T(), got.Subtasks[1].Completed)

	_, err = s.storage.GetByID(s.ctx, uuid.New(), created.ID)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestUpdate() {
	created := s.newTask("before", time.Now())
	created.Subtasks = []*task.SubTask{{ID: uuid.New(), Title: "old"}}
	require.NoError(s.T(), s.storage.Create(s.ctx, created))

	now := time.Now().UTC().Truncate(time.Millisecond)
	created.Title = "after"
	created.Status = task.StatusRunning
	created.LastResumedAt = &now
	created.ExhaustedOn = "2026-03-13"
	created.Subtasks = []*task.SubTask{
		{ID: uuid.New(), Title: "new one"},
		{ID: uuid.New(), Title: "new two"},
	}
	require.NoError(s.T(), s.storage.Update(s.ctx, created))

	got, err := s.storage.GetByID(s.ctx, s.userID, created.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "after", got.Title)
	assert.Equal(s.T(), task.StatusRunning, got.Status)
	assert.Equal(s.T(), "2026-03-13", got.ExhaustedOn)
	require.NotNil(s.T(), got.LastResumedAt)
	assert.True(s.T(), got.LastResumedAt.Equal(now))
	require.Len(s.T(), got.Subtasks, 2)

	missing := s.newTask("ghost", time.Now())
	assert.ErrorIs(s.T(), s.storage.Update(s.ctx, missing), repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestGetByUser() {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	oldest := s.newTask("oldest", base)
	newest := s.newTask("newest", base.Add(time.Minute))
	other := s.newTask("other day", base.Add(2*time.Minute))
	other.ScheduledDate = "2026-03-15"

	for _, tk := range []*task.Task{oldest, newest, other} {
		require.NoError(s.T(), s.storage.Create(s.ctx, tk))
	}

	all, err := s.storage.GetByUser(s.ctx, s.userID, "")
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 3)
	assert.Equal(s.T(), "other day", all[0].Title)
	assert.Equal(s.T(), "newest", all[1].Title)
	assert.Equal(s.T(), "oldest", all[2].Title)

	filtered, err := s.storage.GetByUser(s.ctx, s.userID, "2026-03-14")
	require.NoError(s.T(), err)
	require.Len(s.T(), filtered, 2)
}

func (s *PostgresTestSuite) TestGetRunning() {
	running := s.newTask("running", time.Now())
	running.Status = task.StatusRunning
	paused := s.newTask("paused", time.Now())

	require.NoError(s.T(), s.storage.Create(s.ctx, running))
	require.NoError(s.T(), s.storage.Create(s.ctx, paused))

	got, err := s.storage.GetRunning(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), running.ID, got[0].ID)
}

func (s *PostgresTestSuite) TestGetExhaustedBefore() {
	stale := s.newTask("stale", time.Now())
	stale.ExhaustedOn = "2026-03-13"

	today := s.newTask("today", time.Now())
	today.ExhaustedOn = "2026-03-14"

	done := s.newTask("done", time.Now())
	done.ExhaustedOn = "2026-03-13"
	done.Status = task.StatusCompleted

	for _, tk := range []*task.Task{stale, today, done} {
		require.NoError(s.T(), s.storage.Create(s.ctx, tk))
	}

	got, err := s.storage.GetExhaustedBefore(s.ctx, "2026-03-14")
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 1)
	assert.Equal(s.T(), stale.ID, got[0].ID)
}

func (s *PostgresTestSuite) TestDeleteCascades() {
	created := s.newTask("condemned", time.Now())
	created.Subtasks = []*task.SubTask{{ID: uuid.New(), Title: "goes too"}}
	require.NoError(s.T(), s.storage.Create(s.ctx, created))

	require.NoError(s.T(), s.storage.Delete(s.ctx, s.userID, created.ID))
	assert.ErrorIs(s.T(), s.storage.Delete(s.ctx, s.userID, created.ID), repository.ErrNotFound)

	var count int
	err := s.storage.Pool().QueryRow(s.ctx,
		"SELECT count(*) FROM subtasks WHERE task_id = $1", created.ID).Scan(&count)
	require.NoError(s.T(), err)
	assert.Zero(s.T(), count)
}

func (s *PostgresTestSuite) TestFocusStorage() {
	require.NoError(s.T(), s.focus.Increment(s.ctx, s.userID, "2026-03-14", 30))
	require.NoError(s.T(), s.focus.Increment(s.ctx, s.userID, "2026-03-14", 15))
	require.NoError(s.T(), s.focus.Increment(s.ctx, s.userID, "2026-03-13", 60))

	history, err := s.focus.GetHistory(s.ctx, s.userID, "")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 45, history["2026-03-14"])
	assert.Equal(s.T(), 60, history["2026-03-13"])

	require.NoError(s.T(), s.focus.Set(s.ctx, s.userID, "2026-03-14", 10))
	history, err = s.focus.GetHistory(s.ctx, s.userID, "2026-03-14")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 10, history["2026-03-14"])
	assert.NotContains(s.T(), history, "2026-03-13")
}

func (s *PostgresTestSuite) TestUserStorage() {
	u := &user.User{
		ID:           uuid.New(),
		Username:     "dupcheck",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
	require.NoError(s.T(), s.users.Create(s.ctx, u))

	dup := &user.User{
		ID:           uuid.New(),
		Username:     "dupcheck",
		PasswordHash: "hash2",
		CreatedAt:    time.Now(),
	}
	assert.ErrorIs(s.T(), s.users.Create(s.ctx, dup), repository.ErrAlreadyExists)

	got, err := s.users.GetByUsername(s.ctx, "dupcheck")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, got.ID)

	_, err = s.users.GetByUsername(s.ctx, "nobody")
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(PostgresTestSuite))
}
