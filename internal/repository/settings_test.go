package repository_test

import (
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vludko/workformat-bot/internal/repository"
)

var (
	selectSettingPattern = regexp.QuoteMeta("SELECT value FROM settings WHERE key = $1")
	upsertSettingPattern = regexp.QuoteMeta(`
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`)
)

func TestGetSetting(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectSettingPattern).
			WithArgs(repository.SettingMorningTime).
			WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("09:15"))

		value, err := repo.GetSetting(ctx, repository.SettingMorningTime)

		require.NoError(t, err)
		assert.Equal(t, "09:15", value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - missing key", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectSettingPattern).WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetSetting(ctx, "missing")

		require.ErrorIs(t, err, repository.ErrSettingNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpsertSetting(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := repository.NewRepository(mock)

	mock.ExpectExec(upsertSettingPattern).
		WithArgs(repository.SettingAfternoonTime, "13:25").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.UpsertSetting(ctx, repository.SettingAfternoonTime, "13:25"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMorningBroadcastTime(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("stored value wins", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectSettingPattern).
			WithArgs(repository.SettingMorningTime).
			WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("07:45"))

		value, err := repo.MorningBroadcastTime(ctx)

		require.NoError(t, err)
		assert.Equal(t, "07:45", value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row restores the default", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectSettingPattern).
			WithArgs(repository.SettingMorningTime).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectExec(upsertSettingPattern).
			WithArgs(repository.SettingMorningTime, repository.DefaultMorningTime).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		value, err := repo.MorningBroadcastTime(ctx)

		require.NoError(t, err)
		assert.Equal(t, repository.DefaultMorningTime, value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAfternoonReminderTime(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("missing row restores the default", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectSettingPattern).
			WithArgs(repository.SettingAfternoonTime).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectExec(upsertSettingPattern).
			WithArgs(repository.SettingAfternoonTime, repository.DefaultAfternoonTime).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		value, err := repo.AfternoonReminderTime(ctx)

		require.NoError(t, err)
		assert.Equal(t, repository.DefaultAfternoonTime, value)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - query failed", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repository.NewRepository(mock)

		mock.ExpectQuery(selectSettingPattern).
			WithArgs(repository.SettingAfternoonTime).
			WillReturnError(assert.AnError)

		_, err = repo.AfternoonReminderTime(ctx)

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
