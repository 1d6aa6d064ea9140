package repository

import (
	"context"

	"github.com/vludko/workformat-bot/internal/models"
)

// Repository implements the attendance store on top of PostgreSQL.
type Repository struct {
	db Database
}

// EmployeeManager defines the storage operations on employee rows,
// including the primary-key reassignment used for placeholder promotion.
type EmployeeManager interface {
	CreateEmployee(ctx context.Context, id int64, handle, displayName string, role models.Role, active bool) error
	GetEmployeeByID(ctx context.Context, id int64) (models.Employee, error)
	GetEmployeeByHandle(ctx context.Context, handle string) (models.Employee, error)
	ListActiveEmployees(ctx context.Context) ([]models.Employee, error)
	ListActiveConsented(ctx context.Context) ([]models.Employee, error)
	UpdateConsent(ctx context.Context, id int64, consent bool) error
	UpdateActiveFlag(ctx context.Context, id int64, active bool) error
	DeleteEmployee(ctx context.Context, id int64) error
	ReassignIdentity(ctx context.Context, oldID, newID int64) error
}

// AttendanceManager defines the storage operations on daily attendance
// entries and leave intervals.
type AttendanceManager interface {
	UpsertEntry(ctx context.Context, employeeID int64, date, status string) error
	GetEntry(ctx context.Context, employeeID int64, date string) (models.AttendanceEntry, error)
	ListEntries(ctx context.Context, employeeID int64, startDate, endDate string) ([]models.AttendanceEntry, error)
	HasEntry(ctx context.Context, employeeID int64, date string) (bool, error)
	SaveLeaveRange(
		ctx context.Context,
		employeeID int64,
		startDate, endDate string,
		kind models.LeaveKind,
		status string,
		days []string,
	) error
	ListLeavesByEmployee(ctx context.Context, employeeID int64) ([]models.LeaveInterval, error)
	ListUnansweredFor(ctx context.Context, date string) ([]models.Employee, error)
}

// SettingsManager defines the key/value runtime settings operations.
type SettingsManager interface {
	GetSetting(ctx context.Context, key string) (string, error)
	UpsertSetting(ctx context.Context, key, value string) error
	MorningBroadcastTime(ctx context.Context) (string, error)
	AfternoonReminderTime(ctx context.Context) (string, error)
}

// Store is the full attendance store surface consumed by the tracker.
type Store interface {
	EmployeeManager
	AttendanceManager
	SettingsManager
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database) *Repository {
	return &Repository{db: db}
}
