package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vludko/workformat-bot/internal/models"
)

// ErrEntryNotFound is returned when no attendance entry exists for the
// requested employee and date.
var ErrEntryNotFound = errors.New("attendance entry not found")

const upsertEntrySQL = `
	INSERT INTO attendance_entries (employee_id, entry_date, status, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (employee_id, entry_date) DO UPDATE SET
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at`

// UpsertEntry records the work format of one employee for one day.
// Re-submission for the same day overwrites the status, last write wins.
func (r *Repository) UpsertEntry(ctx context.Context, employeeID int64, date, status string) error {
	_, err := r.db.Exec(ctx, upsertEntrySQL, employeeID, date, status)
	if err != nil {
		return fmt.Errorf("failed to upsert attendance entry for employee %d: %w", employeeID, err)
	}

	return nil
}

// GetEntry retrieves the attendance entry of one employee for one date.
func (r *Repository) GetEntry(ctx context.Context, employeeID int64, date string) (models.AttendanceEntry, error) {
	var entry models.AttendanceEntry

	err := r.db.QueryRow(ctx, `
		SELECT employee_id, entry_date, status, updated_at FROM attendance_entries
		WHERE employee_id = $1 AND entry_date = $2`,
		employeeID, date,
	).Scan(&entry.EmployeeID, &entry.Date, &entry.Status, &entry.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.AttendanceEntry{}, ErrEntryNotFound
		}
		return models.AttendanceEntry{}, fmt.Errorf("failed to get attendance entry: %w", err)
	}

	return entry, nil
}

// ListEntries returns the attendance entries of one employee inside the
// inclusive [startDate, endDate] window, ascending by date.
func (r *Repository) ListEntries(
	ctx context.Context,
	employeeID int64,
	startDate, endDate string,
) ([]models.AttendanceEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT employee_id, entry_date, status, updated_at FROM attendance_entries
		WHERE employee_id = $1 AND entry_date >= $2 AND entry_date <= $3
		ORDER BY entry_date`,
		employeeID, startDate, endDate,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance entries: %w", err)
	}
	defer rows.Close()

	var entries []models.AttendanceEntry
	for rows.Next() {
		var entry models.AttendanceEntry
		if errScan := rows.Scan(&entry.EmployeeID, &entry.Date, &entry.Status, &entry.UpdatedAt); errScan != nil {
			return nil, fmt.Errorf("failed to scan attendance entry row: %w", errScan)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read attendance entry rows: %w", err)
	}

	return entries, nil
}

// HasEntry reports whether the employee already has an attendance entry
// for the given date.
func (r *Repository) HasEntry(ctx context.Context, employeeID int64, date string) (bool, error) {
	var exists bool

	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM attendance_entries WHERE employee_id = $1 AND entry_date = $2)",
		employeeID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check attendance entry: %w", err)
	}

	return exists, nil
}

// SaveLeaveRange persists one leave interval together with the per-day
// attendance entries covering it, all inside a single transaction. The
// caller supplies the already validated and expanded day list.
func (r *Repository) SaveLeaveRange(
	ctx context.Context,
	employeeID int64,
	startDate, endDate string,
	kind models.LeaveKind,
	status string,
	days []string,
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	_, err = tx.Exec(ctx, `
		INSERT INTO leave_intervals (employee_id, start_date, end_date, kind)
		VALUES ($1, $2, $3, $4)`,
		employeeID, startDate, endDate, string(kind),
	)
	if err != nil {
		return fmt.Errorf("failed to insert leave interval: %w", err)
	}

	for _, day := range days {
		if _, err = tx.Exec(ctx, upsertEntrySQL, employeeID, day, status); err != nil {
			return fmt.Errorf("failed to upsert attendance entry for %s: %w", day, err)
		}
	}

	return tx.Commit(ctx)
}

// ListLeavesByEmployee returns every declared leave interval of one
// employee, newest first.
func (r *Repository) ListLeavesByEmployee(ctx context.Context, employeeID int64) ([]models.LeaveInterval, error) {
	rows, err := r.db.Query(ctx, `
		SELECT employee_id, start_date, end_date, kind, created_at FROM leave_intervals
		WHERE employee_id = $1 ORDER BY start_date DESC`,
		employeeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave intervals: %w", err)
	}
	defer rows.Close()

	var leaves []models.LeaveInterval
	for rows.Next() {
		var leave models.LeaveInterval
		var kind string
		if errScan := rows.Scan(
			&leave.EmployeeID, &leave.StartDate, &leave.EndDate, &kind, &leave.CreatedAt,
		); errScan != nil {
			return nil, fmt.Errorf("failed to scan leave interval row: %w", errScan)
		}
		leave.Kind = models.LeaveKind(kind)
		leaves = append(leaves, leave)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leave interval rows: %w", err)
	}

	return leaves, nil
}

// ListUnansweredFor returns every active, consenting employee without an
// attendance entry for the given date. These are the recipients of the
// afternoon reminder.
func (r *Repository) ListUnansweredFor(ctx context.Context, date string) ([]models.Employee, error) {
	return r.listEmployees(ctx, `
		SELECT `+employeeColumns+` FROM employees e
		WHERE e.active AND e.consent_given
			AND NOT EXISTS (
				SELECT 1 FROM attendance_entries a
				WHERE a.employee_id = e.id AND a.entry_date = $1
			)
		ORDER BY e.id`,
		date,
	)
}
