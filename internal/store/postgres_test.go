package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reflect-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "data/reflections.txt", "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "data/reflections.txt")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, input_path, status, result, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_WithResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()
	resultJSON := []byte(`{"items":3,"themes":["Critical Thinking"],"assignments":3}`)

	mock.ExpectQuery(`SELECT id, input_path, status, result, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "input_path", "status", "result", "created_at", "updated_at"},
		).AddRow("run-1", "a.txt", model.RunStatusCompleted, &resultJSON, now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, 3, run.Result.Items)
	assert.Equal(t, []string{"Critical Thinking"}, run.Result.Themes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("failed", pgxmock.AnyArg(), "nonexistent-run").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "nonexistent-run", model.RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunResult_SetsCompleted(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET result`).
		WithArgs(pgxmock.AnyArg(), "completed", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateRunResult(context.Background(), "run-1", &model.RunResult{Items: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_StatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, input_path, status, result, created_at, updated_at FROM runs WHERE true AND status = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("completed", 100).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "input_path", "status", "result", "created_at", "updated_at"},
		).
			AddRow("run-2", "b.txt", model.RunStatusCompleted, (*[]byte)(nil), now, now).
			AddRow("run-1", "a.txt", model.RunStatusCompleted, (*[]byte)(nil), now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusCompleted})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Nil(t, runs[0].Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}
