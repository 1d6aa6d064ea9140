package tracker

import (
	"context"
	"errors"

	"github.com/vludko/workformat-bot/internal/repository"
)

// GateDecision is the outcome of evaluating the access gate for an
// inbound event.
type GateDecision int

// Gate decisions, from most to least restrictive.
const (
	// DecisionBlocked denies the event. Deliberately uniform: a caller
	// cannot tell an unknown identity from a deactivated one.
	DecisionBlocked GateDecision = iota
	// DecisionNeedsConsent admits a registered, active identity that has
	// not yet accepted data processing; only the consent flow may proceed.
	DecisionNeedsConsent
	// DecisionAllowed admits the event fully.
	DecisionAllowed
)

// HasAnyRecord reports whether any employee row, placeholder or real,
// exists for the identity. The consent buttons are admitted on this
// check alone so a deactivated account can still answer the consent
// prompt it was shown.
func (t *Tracker) HasAnyRecord(ctx context.Context, id int64) bool {
	_, err := t.store.GetEmployeeByID(ctx, id)
	return err == nil
}

// AllowMessage evaluates the access gate for a generic inbound message:
// the identity must be registered and active. When the identity is
// unknown, admin auto-registration is attempted once and the gate is
// re-evaluated immediately rather than denying.
func (t *Tracker) AllowMessage(ctx context.Context, id int64, handle, displayName string) bool {
	employee, err := t.store.GetEmployeeByID(ctx, id)
	if err == nil {
		return employee.Active
	}
	if !errors.Is(err, repository.ErrEmployeeNotFound) {
		t.log.Error("Failed to evaluate access gate", "id", id, "error", err)
		return false
	}

	if handle != "" && t.registerAdminIfNeeded(ctx, id, handle, displayName) {
		employee, err = t.store.GetEmployeeByID(ctx, id)
		return err == nil && employee.Active
	}

	return false
}
