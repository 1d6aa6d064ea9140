// Package tracker implements the attendance core of the bot: resolving a
// Telegram identity to a durable employee record, gating every mutation on
// consent and active employment, and recording validated work-format
// declarations with idempotent upsert semantics.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vludko/workformat-bot/internal/dates"
	"github.com/vludko/workformat-bot/internal/models"
	"github.com/vludko/workformat-bot/internal/repository"
)

// DefaultMaxSpanDays caps the inclusive length of a declared leave range.
const DefaultMaxSpanDays = 365

// Placeholder id offsets: admin placeholders occupy -1..-99, test-user
// placeholders start at -100, so the two ranges never collide.
const testPlaceholderOffset = 100

// ErrRangeTooLarge is returned when a leave range exceeds the allowed span.
var ErrRangeTooLarge = errors.New("date range is too large")

// leaveKindByLabel maps the work-format labels that declare a multi-day
// absence to their leave classification. Every other label records a
// single day.
var leaveKindByLabel = map[string]models.LeaveKind{
	"Отпуск":     models.LeaveVacation,
	"Болезнь":    models.LeaveSick,
	"Экспедиция": models.LeaveExpedition,
}

// LeaveKindFor reports whether the label declares a multi-day absence and,
// if so, its leave kind.
func LeaveKindFor(label string) (models.LeaveKind, bool) {
	kind, ok := leaveKindByLabel[label]
	return kind, ok
}

// Tracker is the identity reconciliation and attendance state engine.
type Tracker struct {
	log         *slog.Logger
	store       repository.Store
	dates       *dates.Engine
	admins      []string
	testUsers   []string
	maxSpanDays int
}

// New creates a Tracker over the given store and date engine. The handle
// lists drive placeholder seeding and first-contact auto-registration.
func New(
	log *slog.Logger,
	store repository.Store,
	engine *dates.Engine,
	adminHandles, testHandles []string,
) *Tracker {
	return &Tracker{
		log:         log,
		store:       store,
		dates:       engine,
		admins:      adminHandles,
		testUsers:   testHandles,
		maxSpanDays: DefaultMaxSpanDays,
	}
}

// Bootstrap seeds placeholder accounts for the configured admin and test
// handles, re-activates existing test accounts, and resyncs the reminder
// trigger times from the boot configuration. The environment wins over a
// stale stored value at boot time; runtime reconfiguration thereafter
// reads only from storage.
func (t *Tracker) Bootstrap(ctx context.Context, morningTime, afternoonTime string) error {
	for i, handle := range t.admins {
		if err := t.seedPlaceholder(ctx, -(int64(i) + 1), handle, models.RoleAdmin, false); err != nil {
			return err
		}
	}

	for i, handle := range t.testUsers {
		if err := t.seedPlaceholder(ctx, -(int64(i) + testPlaceholderOffset), handle, models.RoleEmployee, true); err != nil {
			return err
		}
	}

	if err := t.store.UpsertSetting(ctx, repository.SettingMorningTime, morningTime); err != nil {
		return fmt.Errorf("failed to sync morning broadcast time: %w", err)
	}
	if err := t.store.UpsertSetting(ctx, repository.SettingAfternoonTime, afternoonTime); err != nil {
		return fmt.Errorf("failed to sync afternoon reminder time: %w", err)
	}

	return nil
}

// seedPlaceholder inserts a placeholder row for the handle unless one
// already exists. forceActive additionally re-activates an existing row,
// which keeps test accounts usable across deactivations.
func (t *Tracker) seedPlaceholder(
	ctx context.Context,
	id int64,
	handle string,
	role models.Role,
	forceActive bool,
) error {
	existing, err := t.store.GetEmployeeByHandle(ctx, handle)
	if err == nil {
		if forceActive && !existing.Active {
			if err = t.store.UpdateActiveFlag(ctx, existing.ID, true); err != nil {
				return fmt.Errorf("failed to re-activate seeded account %q: %w", handle, err)
			}
			t.log.Info("Re-activated seeded account", "handle", handle, "id", existing.ID)
		}
		return nil
	}
	if !errors.Is(err, repository.ErrEmployeeNotFound) {
		return fmt.Errorf("failed to look up handle %q: %w", handle, err)
	}

	if err = t.store.CreateEmployee(ctx, id, handle, handle, role, true); err != nil {
		return fmt.Errorf("failed to seed placeholder for %q: %w", handle, err)
	}
	t.log.Info("Seeded placeholder account", "handle", handle, "id", id, "role", string(role))

	return nil
}

// IsAdmin reports whether the identity belongs to an active administrator.
func (t *Tracker) IsAdmin(ctx context.Context, id int64) bool {
	employee, err := t.store.GetEmployeeByID(ctx, id)
	if err != nil {
		return false
	}

	return employee.Role == models.RoleAdmin && employee.Active
}
