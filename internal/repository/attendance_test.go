package repository_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vludko/workformat-bot/internal/models"
	"github.com/vludko/workformat-bot/internal/repository"
)

var upsertEntryPattern = regexp.QuoteMeta(`
	INSERT INTO attendance_entries (employee_id, entry_date, status, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (employee_id, entry_date) DO UPDATE SET
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at`)

func TestUpsertEntry(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(upsertEntryPattern).
			WithArgs(int64(1), "2025-01-15", "Офис").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err = repo.UpsertEntry(ctx, 1, "2025-01-15", "Офис")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - exec failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectExec(upsertEntryPattern).
			WithArgs(int64(1), "2025-01-15", "Офис").
			WillReturnError(assert.AnError)

		err = repo.UpsertEntry(ctx, 1, "2025-01-15", "Офис")

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to upsert attendance entry")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetEntry(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	updatedAt := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery("SELECT employee_id, entry_date, status, updated_at FROM attendance_entries").
			WithArgs(int64(1), "2025-01-15").
			WillReturnRows(pgxmock.NewRows([]string{"employee_id", "entry_date", "status", "updated_at"}).
				AddRow(int64(1), "2025-01-15", "Удалёнка", updatedAt))

		entry, err := repo.GetEntry(ctx, 1, "2025-01-15")

		require.NoError(t, err)
		assert.Equal(t, "Удалёнка", entry.Status)
		assert.Equal(t, "2025-01-15", entry.Date)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery("SELECT employee_id, entry_date, status, updated_at FROM attendance_entries").
			WithArgs(int64(1), "2025-01-16").
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetEntry(ctx, 1, "2025-01-16")

		require.ErrorIs(t, err, repository.ErrEntryNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListEntries(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	updatedAt := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := repository.NewRepository(mock)

	mock.ExpectQuery("SELECT employee_id, entry_date, status, updated_at FROM attendance_entries").
		WithArgs(int64(1), "2025-01-14", "2025-01-16").
		WillReturnRows(pgxmock.NewRows([]string{"employee_id", "entry_date", "status", "updated_at"}).
			AddRow(int64(1), "2025-01-14", "Офис", updatedAt).
			AddRow(int64(1), "2025-01-15", "Отпуск", updatedAt))

	entries, err := repo.ListEntries(ctx, 1, "2025-01-14", "2025-01-16")

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-01-14", entries[0].Date)
	assert.Equal(t, "Отпуск", entries[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasEntry(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	existsPattern := regexp.QuoteMeta(
		"SELECT EXISTS (SELECT 1 FROM attendance_entries WHERE employee_id = $1 AND entry_date = $2)")

	t.Run("entry exists", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(existsPattern).
			WithArgs(int64(1), "2025-01-15").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.HasEntry(ctx, 1, "2025-01-15")

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no entry", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(existsPattern).
			WithArgs(int64(1), "2025-01-16").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.HasEntry(ctx, 1, "2025-01-16")

		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSaveLeaveRange(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	insertLeavePattern := regexp.QuoteMeta(`
		INSERT INTO leave_intervals (employee_id, start_date, end_date, kind)
		VALUES ($1, $2, $3, $4)`)
	days := []string{"2025-11-30", "2025-12-01", "2025-12-02"}

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		mock.ExpectExec(insertLeavePattern).
			WithArgs(int64(1), "2025-11-30", "2025-12-02", "vacation").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		for _, day := range days {
			mock.ExpectExec(upsertEntryPattern).
				WithArgs(int64(1), day, "Отпуск").
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mock.ExpectCommit()

		err = repo.SaveLeaveRange(ctx, 1, "2025-11-30", "2025-12-02", models.LeaveVacation, "Отпуск", days)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - upsert failed rolls back", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectBegin()
		mock.ExpectExec(insertLeavePattern).
			WithArgs(int64(1), "2025-11-30", "2025-12-02", "vacation").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(upsertEntryPattern).
			WithArgs(int64(1), "2025-11-30", "Отпуск").
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err = repo.SaveLeaveRange(ctx, 1, "2025-11-30", "2025-12-02", models.LeaveVacation, "Отпуск", days)

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListLeavesByEmployee(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	createdAt := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := repository.NewRepository(mock)

	mock.ExpectQuery("SELECT employee_id, start_date, end_date, kind, created_at FROM leave_intervals").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"employee_id", "start_date", "end_date", "kind", "created_at"}).
			AddRow(int64(1), "2025-11-30", "2025-12-02", "vacation", createdAt))

	leaves, err := repo.ListLeavesByEmployee(ctx, 1)

	require.NoError(t, err)
	require.Len(t, leaves, 1)
	assert.Equal(t, models.LeaveVacation, leaves[0].Kind)
	assert.Equal(t, "2025-11-30", leaves[0].StartDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUnansweredFor(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	createdAt := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := repository.NewRepository(mock)

	mock.ExpectQuery(employeeColumnsPattern).
		WithArgs("2025-01-15").
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).
			AddRow(int64(2), "bob", "Bob", "employee", true, true, createdAt))

	employees, err := repo.ListUnansweredFor(ctx, "2025-01-15")

	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, int64(2), employees[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
