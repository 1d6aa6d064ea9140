package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/vludko/workformat-bot/internal/dates"
	"github.com/vludko/workformat-bot/internal/models"
)

// RecordSingle upserts the work format of one employee for one day.
// Last write wins; re-submission never creates a duplicate row.
func (t *Tracker) RecordSingle(ctx context.Context, employeeID int64, date, status string) error {
	if err := t.store.UpsertEntry(ctx, employeeID, date, status); err != nil {
		return fmt.Errorf("failed to record work format: %w", err)
	}

	t.log.Info("Recorded work format", "employee", employeeID, "date", date, "status", status)

	return nil
}

// RecordRange declares a leave interval and fills an attendance entry for
// every day of the inclusive [start, end] range, all within one storage
// transaction. Nothing is written when the bounds are reversed or the
// span exceeds the configured maximum.
func (t *Tracker) RecordRange(
	ctx context.Context,
	employeeID int64,
	start, end time.Time,
	status string,
	kind models.LeaveKind,
) ([]string, error) {
	if start.After(end) {
		return nil, dates.ErrRangeOrder
	}
	if dates.SpanDays(start, end) > t.maxSpanDays {
		return nil, fmt.Errorf("%w: the maximum is %d days", ErrRangeTooLarge, t.maxSpanDays)
	}

	days := dates.GenerateDateRange(start, end)
	startDate := start.Format(dates.ISOFormat)
	endDate := end.Format(dates.ISOFormat)

	err := t.store.SaveLeaveRange(ctx, employeeID, startDate, endDate, kind, status, days)
	if err != nil {
		return nil, fmt.Errorf("failed to record leave range: %w", err)
	}

	t.log.Info("Recorded leave range",
		"employee", employeeID, "from", startDate, "to", endDate, "kind", string(kind), "days", len(days))

	return days, nil
}

// HasRecorded reports whether the employee already declared a work format
// for the given date.
func (t *Tracker) HasRecorded(ctx context.Context, employeeID int64, date string) (bool, error) {
	return t.store.HasEntry(ctx, employeeID, date)
}

// Recipients returns every active, consenting employee; the morning
// broadcast goes to all of them regardless of prior response.
func (t *Tracker) Recipients(ctx context.Context) ([]models.Employee, error) {
	return t.store.ListActiveConsented(ctx)
}

// DueRecipients returns every active, consenting employee without an
// attendance entry for the reference date. An empty date means today in
// the bot's timezone.
func (t *Tracker) DueRecipients(ctx context.Context, referenceDate string) ([]models.Employee, error) {
	if referenceDate == "" {
		referenceDate = t.dates.Today()
	}

	return t.store.ListUnansweredFor(ctx, referenceDate)
}
