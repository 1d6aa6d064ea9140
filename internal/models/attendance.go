package models

import "time"

// LeaveKind classifies a multi-day absence interval.
type LeaveKind string

// Known leave kinds.
const (
	LeaveVacation   LeaveKind = "vacation"   // LeaveVacation is a paid vacation.
	LeaveSick       LeaveKind = "sick"       // LeaveSick is a sick leave.
	LeaveExpedition LeaveKind = "expedition" // LeaveExpedition is a field expedition.
)

// AttendanceEntry is the declared work format of one employee for one
// calendar day. Dates are stored as timezone-free ISO strings (YYYY-MM-DD);
// at most one entry exists per (employee, date) pair.
type AttendanceEntry struct {
	EmployeeID int64     // Owner of the entry
	Date       string    // Calendar day in YYYY-MM-DD form
	Status     string    // Work-format label, e.g. "Офис" or "Отпуск"
	UpdatedAt  time.Time // Timestamp of the last overwrite
}

// LeaveInterval records a declared vacation, illness or expedition.
// Both bounds are inclusive ISO dates; the interval never drives the
// attendance display on its own, the per-day entries do.
type LeaveInterval struct {
	EmployeeID int64     // Owner of the interval
	StartDate  string    // First day, YYYY-MM-DD
	EndDate    string    // Last day, YYYY-MM-DD
	Kind       LeaveKind // Classification of the absence
	CreatedAt  time.Time // Timestamp of when the interval was declared
}

// Setting is a single key/value pair of runtime configuration,
// such as the reminder trigger times.
type Setting struct {
	Key   string
	Value string
}
