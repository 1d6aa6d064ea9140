package models

import "time"

// Role describes the access level of an employee inside the bot.
type Role string

// Known employee roles.
const (
	RoleEmployee Role = "employee" // RoleEmployee is a regular staff member.
	RoleAdmin    Role = "admin"    // RoleAdmin may manage other employees and settings.
)

// Employee represents a single person known to the bot.
// The ID is the Telegram identifier; placeholder accounts seeded before
// the real person ever contacted the bot carry a negative ID.
type Employee struct {
	ID           int64     // Unique Telegram identifier, negative for placeholders
	Handle       string    // Telegram username, empty when not known
	DisplayName  string    // Human-readable name shown in admin replies
	Role         Role      // Access role: employee or admin
	Active       bool      // False once the employment ended
	ConsentGiven bool      // True after the person accepted data processing
	CreatedAt    time.Time // Timestamp of when the record was created
}

// IsPlaceholder reports whether the employee row was seeded ahead of first
// contact and still waits for its real Telegram identifier.
func (e Employee) IsPlaceholder() bool {
	return e.ID < 0
}
