package tracker

import (
	"context"
	"errors"
	"slices"

	"github.com/vludko/workformat-bot/internal/models"
	"github.com/vludko/workformat-bot/internal/repository"
)

// reconcileIdentity maps an inbound Telegram identity onto a durable
// employee record. Called on first-contact events before the access gate:
// a configured admin handle is auto-registered or promoted from its
// placeholder, and a configured test handle is promoted from its
// placeholder. It reports whether a record now exists under the real id.
func (t *Tracker) reconcileIdentity(ctx context.Context, id int64, handle, displayName string) bool {
	if handle == "" {
		return false
	}

	// An existing row under the real id needs no reconciliation.
	if _, err := t.store.GetEmployeeByID(ctx, id); err == nil {
		return false
	}

	if t.registerAdminIfNeeded(ctx, id, handle, displayName) {
		return true
	}

	return t.promoteTestIfNeeded(ctx, id, handle)
}

// registerAdminIfNeeded creates or promotes an admin account when the
// handle is on the configured admin list and no real-identity record
// exists for it yet.
func (t *Tracker) registerAdminIfNeeded(ctx context.Context, id int64, handle, displayName string) bool {
	if !slices.Contains(t.admins, handle) {
		return false
	}

	existing, err := t.store.GetEmployeeByHandle(ctx, handle)
	if err != nil {
		if !errors.Is(err, repository.ErrEmployeeNotFound) {
			t.log.Error("Failed to look up admin handle", "handle", handle, "error", err)
			return false
		}

		if err = t.store.CreateEmployee(ctx, id, handle, displayName, models.RoleAdmin, true); err != nil {
			t.log.Error("Failed to register admin", "handle", handle, "id", id, "error", err)
			return false
		}
		t.log.Info("Registered admin on first contact", "handle", handle, "id", id)
		return true
	}

	if !existing.IsPlaceholder() {
		// A real account already owns this handle; nothing to do.
		return false
	}

	return t.promotePlaceholder(ctx, existing, id)
}

// promoteTestIfNeeded promotes a configured test handle from its
// placeholder to the real Telegram id.
func (t *Tracker) promoteTestIfNeeded(ctx context.Context, id int64, handle string) bool {
	if !slices.Contains(t.testUsers, handle) {
		return false
	}

	existing, err := t.store.GetEmployeeByHandle(ctx, handle)
	if err != nil || !existing.IsPlaceholder() {
		return false
	}

	return t.promotePlaceholder(ctx, existing, id)
}

// promotePlaceholder rewrites the placeholder's primary key to the real
// Telegram id, carrying over every field and reparenting child rows in a
// single transaction. Test handles are forced active on promotion even
// over an explicitly deactivated prior state. The promotion fails closed
// when the source is missing or the destination id is already occupied.
func (t *Tracker) promotePlaceholder(ctx context.Context, placeholder models.Employee, newID int64) bool {
	if err := t.store.ReassignIdentity(ctx, placeholder.ID, newID); err != nil {
		if errors.Is(err, repository.ErrIdentityTaken) || errors.Is(err, repository.ErrEmployeeNotFound) {
			t.log.Warn("Placeholder promotion failed closed",
				"handle", placeholder.Handle, "from", placeholder.ID, "to", newID, "error", err)
		} else {
			t.log.Error("Placeholder promotion failed",
				"handle", placeholder.Handle, "from", placeholder.ID, "to", newID, "error", err)
		}
		return false
	}

	if slices.Contains(t.testUsers, placeholder.Handle) && !placeholder.Active {
		if err := t.store.UpdateActiveFlag(ctx, newID, true); err != nil {
			t.log.Error("Failed to re-activate promoted test account", "id", newID, "error", err)
		}
	}

	t.log.Info("Promoted placeholder to real identity",
		"handle", placeholder.Handle, "from", placeholder.ID, "to", newID)

	return true
}
