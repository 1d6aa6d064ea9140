package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/vludko/workformat-bot/internal/models"
)

var (
	// ErrEmployeeNotFound is returned when no employee row matches the lookup.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrEmployeeExists is returned when an insert collides with an existing id.
	ErrEmployeeExists = errors.New("employee with this id already exists")
	// ErrIdentityTaken is returned when the promotion target id is already occupied.
	ErrIdentityTaken = errors.New("destination identity is already occupied")
)

const employeeColumns = "id, handle, display_name, role, active, consent_given, created_at"

// CreateEmployee inserts a new employee row. The id is the Telegram
// identifier, or a synthetic negative value for placeholder accounts.
func (r *Repository) CreateEmployee(
	ctx context.Context,
	id int64,
	handle, displayName string,
	role models.Role,
	active bool,
) error {
	cmdTag, err := r.db.Exec(ctx, `
		INSERT INTO employees (id, handle, display_name, role, active)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
		id, handle, displayName, string(role), active,
	)
	if err != nil {
		return fmt.Errorf("failed to insert employee %d: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrEmployeeExists
	}

	return nil
}

// GetEmployeeByID retrieves a single employee row by its Telegram identifier.
func (r *Repository) GetEmployeeByID(ctx context.Context, id int64) (models.Employee, error) {
	row := r.db.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id)

	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, ErrEmployeeNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to get employee by id %d: %w", id, err)
	}

	return employee, nil
}

// GetEmployeeByHandle retrieves an employee row by its Telegram username.
// When several rows share the handle, the oldest one wins.
func (r *Repository) GetEmployeeByHandle(ctx context.Context, handle string) (models.Employee, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE handle = $1 ORDER BY created_at LIMIT 1", handle)

	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Employee{}, ErrEmployeeNotFound
		}
		return models.Employee{}, fmt.Errorf("failed to get employee by handle %q: %w", handle, err)
	}

	return employee, nil
}

// ListActiveEmployees returns every employee whose employment has not ended.
func (r *Repository) ListActiveEmployees(ctx context.Context) ([]models.Employee, error) {
	return r.listEmployees(ctx, "SELECT "+employeeColumns+" FROM employees WHERE active ORDER BY id")
}

// ListActiveConsented returns every active employee who accepted data
// processing. These are the recipients of scheduled prompts.
func (r *Repository) ListActiveConsented(ctx context.Context) ([]models.Employee, error) {
	return r.listEmployees(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE active AND consent_given ORDER BY id")
}

// UpdateConsent records the employee's data-processing consent decision.
func (r *Repository) UpdateConsent(ctx context.Context, id int64, consent bool) error {
	cmdTag, err := r.db.Exec(ctx, "UPDATE employees SET consent_given = $1 WHERE id = $2", consent, id)
	if err != nil {
		return fmt.Errorf("failed to update consent for employee %d: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}

	return nil
}

// UpdateActiveFlag marks an employee as active or deactivated.
func (r *Repository) UpdateActiveFlag(ctx context.Context, id int64, active bool) error {
	cmdTag, err := r.db.Exec(ctx, "UPDATE employees SET active = $1 WHERE id = $2", active, id)
	if err != nil {
		return fmt.Errorf("failed to update active flag for employee %d: %w", id, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}

	return nil
}

// DeleteEmployee removes an employee row by id.
func (r *Repository) DeleteEmployee(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, "DELETE FROM employees WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete employee %d: %w", id, err)
	}

	return nil
}

// ReassignIdentity rewrites an employee's primary key from oldID to newID
// within a single transaction, carrying over every other field and
// reparenting attendance entries and leave intervals to the new id.
// The new row is inserted before the old one is deleted so child rows never
// point at a missing employee mid-transaction.
//
// It fails with ErrIdentityTaken when newID is already occupied and with
// ErrEmployeeNotFound when no row exists at oldID; neither case mutates
// anything.
func (r *Repository) ReassignIdentity(ctx context.Context, oldID, newID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	var occupied bool
	err = tx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)", newID).Scan(&occupied)
	if err != nil {
		return fmt.Errorf("failed to check destination id %d: %w", newID, err)
	}
	if occupied {
		return ErrIdentityTaken
	}

	source, err := scanEmployee(tx.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", oldID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to read source employee %d: %w", oldID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO employees (id, handle, display_name, role, active, consent_given, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		newID, source.Handle, source.DisplayName, string(source.Role),
		source.Active, source.ConsentGiven, source.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert employee under new id %d: %w", newID, err)
	}

	_, err = tx.Exec(ctx, "UPDATE attendance_entries SET employee_id = $1 WHERE employee_id = $2", newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to reparent attendance entries: %w", err)
	}

	_, err = tx.Exec(ctx, "UPDATE leave_intervals SET employee_id = $1 WHERE employee_id = $2", newID, oldID)
	if err != nil {
		return fmt.Errorf("failed to reparent leave intervals: %w", err)
	}

	_, err = tx.Exec(ctx, "DELETE FROM employees WHERE id = $1", oldID)
	if err != nil {
		return fmt.Errorf("failed to delete employee %d: %w", oldID, err)
	}

	return tx.Commit(ctx)
}

func (r *Repository) listEmployees(ctx context.Context, query string, args ...any) ([]models.Employee, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []models.Employee
	for rows.Next() {
		employee, scanErr := scanEmployee(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan employee row: %w", scanErr)
		}
		employees = append(employees, employee)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read employee rows: %w", err)
	}

	return employees, nil
}

func scanEmployee(row pgx.Row) (models.Employee, error) {
	var employee models.Employee
	var role string

	err := row.Scan(
		&employee.ID, &employee.Handle, &employee.DisplayName, &role,
		&employee.Active, &employee.ConsentGiven, &employee.CreatedAt,
	)
	if err != nil {
		return models.Employee{}, err
	}

	employee.Role = models.Role(role)
	return employee, nil
}
