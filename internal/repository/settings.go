package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Settings keys for the two reminder triggers.
const (
	SettingMorningTime   = "morning_broadcast_time"
	SettingAfternoonTime = "afternoon_reminder_time"
)

// Compiled-in defaults, restored lazily when the row is missing.
const (
	DefaultMorningTime   = "08:00"
	DefaultAfternoonTime = "15:00"
)

// ErrSettingNotFound is returned when no value is stored under the key.
var ErrSettingNotFound = errors.New("setting not found")

// GetSetting retrieves the raw value stored under the key.
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string

	err := r.db.QueryRow(ctx, "SELECT value FROM settings WHERE key = $1", key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrSettingNotFound
		}
		return "", fmt.Errorf("failed to get setting %q: %w", key, err)
	}

	return value, nil
}

// UpsertSetting stores the value under the key, overwriting any prior value.
func (r *Repository) UpsertSetting(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %q: %w", key, err)
	}

	return nil
}

// MorningBroadcastTime returns the HH:MM trigger of the morning broadcast.
// A missing row reads as the compiled-in default, which is persisted on
// the spot so later reads and edits see a concrete value.
func (r *Repository) MorningBroadcastTime(ctx context.Context) (string, error) {
	return r.settingWithDefault(ctx, SettingMorningTime, DefaultMorningTime)
}

// AfternoonReminderTime returns the HH:MM trigger of the afternoon
// reminder, restoring the compiled-in default when the row is missing.
func (r *Repository) AfternoonReminderTime(ctx context.Context) (string, error) {
	return r.settingWithDefault(ctx, SettingAfternoonTime, DefaultAfternoonTime)
}

func (r *Repository) settingWithDefault(ctx context.Context, key, fallback string) (string, error) {
	value, err := r.GetSetting(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrSettingNotFound) {
		return "", err
	}

	if err = r.UpsertSetting(ctx, key, fallback); err != nil {
		return "", fmt.Errorf("failed to restore default for %q: %w", key, err)
	}

	return fallback, nil
}
