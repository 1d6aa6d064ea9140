package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/vludko/workformat-bot/internal/dates"
	"github.com/vludko/workformat-bot/internal/repository"
)

// ConsentOutcome is the result of handling a consent response.
type ConsentOutcome int

// Consent outcomes.
const (
	// ConsentBlocked means the identity is unknown or declined consent;
	// the observable response is the uniform denial.
	ConsentBlocked ConsentOutcome = iota
	// ConsentRecordedActive means consent was recorded for an active account.
	ConsentRecordedActive
	// ConsentRecordedInactive means consent was recorded but the account
	// is deactivated and needs an administrator to restore access.
	ConsentRecordedInactive
)

// SelectionStatus classifies the result of a work-format selection.
type SelectionStatus int

// Selection statuses.
const (
	// SelectionBlocked denies the selection with the uniform denial.
	SelectionBlocked SelectionStatus = iota
	// SelectionNeedsConsent redirects the employee to the consent flow.
	SelectionNeedsConsent
	// SelectionNeedsRange asks the employee for a date range.
	SelectionNeedsRange
	// SelectionInvalid rejects the supplied date range; Reason carries the
	// validation error and nothing was persisted.
	SelectionInvalid
	// SelectionSaved confirms the recorded entry or range.
	SelectionSaved
)

// SelectionResult is the outcome of OnFormatSelection.
type SelectionResult struct {
	Status    SelectionStatus
	Reason    error    // validation error when Status is SelectionInvalid
	Days      []string // ISO dates written when Status is SelectionSaved
	StartDate string   // ISO bounds of the saved range (equal for a single day)
	EndDate   string
}

// OnFirstContact handles a first-contact event: the identity is
// reconciled (admin auto-registration, placeholder promotion) and the
// access gate is evaluated.
func (t *Tracker) OnFirstContact(ctx context.Context, id int64, handle, displayName string) GateDecision {
	t.reconcileIdentity(ctx, id, handle, displayName)

	employee, err := t.store.GetEmployeeByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrEmployeeNotFound) {
			t.log.Error("Failed to resolve identity on first contact", "id", id, "error", err)
		}
		return DecisionBlocked
	}

	switch {
	case !employee.Active:
		return DecisionBlocked
	case !employee.ConsentGiven:
		return DecisionNeedsConsent
	default:
		return DecisionAllowed
	}
}

// OnConsentResponse records the employee's consent decision. A decline is
// terminal: the refusal is recorded and the account is deactivated, so
// only an administrator can restore access.
func (t *Tracker) OnConsentResponse(ctx context.Context, id int64, accepted bool) (ConsentOutcome, error) {
	employee, err := t.store.GetEmployeeByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return ConsentBlocked, nil
		}
		return ConsentBlocked, fmt.Errorf("failed to resolve identity: %w", err)
	}

	if err = t.store.UpdateConsent(ctx, id, accepted); err != nil {
		return ConsentBlocked, fmt.Errorf("failed to record consent: %w", err)
	}

	if !accepted {
		if err = t.store.UpdateActiveFlag(ctx, id, false); err != nil {
			return ConsentBlocked, fmt.Errorf("failed to deactivate account: %w", err)
		}
		t.log.Info("Consent declined, account deactivated", "id", id)
		return ConsentBlocked, nil
	}

	t.log.Info("Consent recorded", "id", id, "active", employee.Active)
	if !employee.Active {
		return ConsentRecordedInactive, nil
	}

	return ConsentRecordedActive, nil
}

// OnFormatSelection handles a work-format selection. The gate and the
// consent requirement are evaluated first; then either a single entry for
// today is recorded, or — for the leave formats — the supplied date range
// is validated and expanded. An empty rangeText for a leave format asks
// the caller to collect one. An input validation failure comes back as
// SelectionInvalid with nothing persisted; the returned error is reserved
// for storage failures.
func (t *Tracker) OnFormatSelection(ctx context.Context, id int64, label, rangeText string) (SelectionResult, error) {
	employee, err := t.store.GetEmployeeByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeNotFound) {
			return SelectionResult{Status: SelectionBlocked}, nil
		}
		return SelectionResult{Status: SelectionBlocked}, fmt.Errorf("failed to resolve identity: %w", err)
	}

	if !employee.ConsentGiven {
		return SelectionResult{Status: SelectionNeedsConsent}, nil
	}
	if !employee.Active {
		return SelectionResult{Status: SelectionBlocked}, nil
	}

	kind, needsRange := LeaveKindFor(label)
	if !needsRange {
		today := t.dates.Today()
		if err = t.RecordSingle(ctx, id, today, label); err != nil {
			return SelectionResult{}, err
		}
		return SelectionResult{
			Status:    SelectionSaved,
			Days:      []string{today},
			StartDate: today,
			EndDate:   today,
		}, nil
	}

	if rangeText == "" {
		return SelectionResult{Status: SelectionNeedsRange}, nil
	}

	start, end, err := t.dates.ParseDateRange(rangeText)
	if err != nil {
		return SelectionResult{Status: SelectionInvalid, Reason: err}, nil
	}

	days, err := t.RecordRange(ctx, id, start, end, label, kind)
	if err != nil {
		if errors.Is(err, dates.ErrRangeOrder) || errors.Is(err, ErrRangeTooLarge) {
			return SelectionResult{Status: SelectionInvalid, Reason: err}, nil
		}
		return SelectionResult{}, err
	}

	return SelectionResult{
		Status:    SelectionSaved,
		Days:      days,
		StartDate: start.Format(dates.ISOFormat),
		EndDate:   end.Format(dates.ISOFormat),
	}, nil
}
