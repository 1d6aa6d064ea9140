// Package dates implements the calendar logic of the bot: parsing and
// validation of user-supplied dates, inclusive range expansion and the
// "today" clock pinned to a single named timezone. The package is pure
// and performs no I/O.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISOFormat is the canonical storage form of a calendar date.
const ISOFormat = "2006-01-02"

// displayFormat is the form shown to users.
const displayFormat = "02.01.2006"

var (
	// ErrEmptyDate is returned when the date text is empty or blank.
	ErrEmptyDate = errors.New("date is empty")
	// ErrInvalidFormat is returned when the text is not dd.mm.yyyy or dd.mm.
	ErrInvalidFormat = errors.New("invalid date format, expected dd.mm.yyyy or dd.mm")
	// ErrInvalidCalendarDate is returned when the text parses but names a
	// day that does not exist, e.g. 31.02 or 29.02 of a non-leap year.
	ErrInvalidCalendarDate = errors.New("no such calendar date")
	// ErrRangeOrder is returned when the start of a range is after its end.
	ErrRangeOrder = errors.New("start date is after end date")
)

// Clock supplies the current time. It exists so tests can pin "today".
type Clock interface {
	Now() time.Time
}

type zoneClock struct {
	loc *time.Location
}

func (c zoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Engine parses, validates and formats calendar dates relative to
// a fixed named timezone.
type Engine struct {
	clock Clock
}

// NewEngine creates an Engine whose "today" is computed in the given
// named timezone, e.g. "Asia/Yekaterinburg".
func NewEngine(timezone string) (*Engine, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}

	return &Engine{clock: zoneClock{loc: loc}}, nil
}

// NewEngineWithClock creates an Engine with an injected clock.
func NewEngineWithClock(clock Clock) *Engine {
	return &Engine{clock: clock}
}

// Today returns the current date in the engine's timezone as YYYY-MM-DD.
func (e *Engine) Today() string {
	return e.clock.Now().Format(ISOFormat)
}

// ValidateDate parses user-supplied text in dd.mm.yyyy or dd.mm form.
// When the year is omitted, the current year in the engine's timezone is
// assumed. Single-digit day and month are accepted.
func (e *Engine) ValidateDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, ErrEmptyDate
	}

	parts := strings.Split(text, ".")
	if len(parts) != 2 && len(parts) != 3 {
		return time.Time{}, ErrInvalidFormat
	}

	day, err := parseDatePart(parts[0])
	if err != nil {
		return time.Time{}, ErrInvalidFormat
	}
	month, err := parseDatePart(parts[1])
	if err != nil {
		return time.Time{}, ErrInvalidFormat
	}

	year := e.clock.Now().Year()
	if len(parts) == 3 {
		year, err = parseYearPart(parts[2])
		if err != nil {
			return time.Time{}, ErrInvalidFormat
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, ErrInvalidCalendarDate
	}

	// time.Date normalizes overflow (31.04 becomes 01.05), so an exact
	// round-trip check is what rejects nonexistent days.
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return time.Time{}, ErrInvalidCalendarDate
	}

	return date, nil
}

// ParseDateRange splits text on a hyphen into exactly two dates and
// validates each via ValidateDate. Errors are tagged with the side that
// failed. When both sides parse but the start is after the end, the two
// dates are still returned together with ErrRangeOrder so callers may use
// them for diagnostics; nothing on this error path may be persisted.
func (e *Engine) ParseDateRange(text string) (time.Time, time.Time, error) {
	segments := strings.Split(text, "-")
	if len(segments) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf(
			"expected two dates separated by a hyphen: %w", ErrInvalidFormat)
	}

	start, err := e.ValidateDate(segments[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}

	end, err := e.ValidateDate(segments[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
	}

	if start.After(end) {
		return start, end, ErrRangeOrder
	}

	return start, end, nil
}

// GenerateDateRange enumerates every day of the inclusive [start, end]
// interval, ascending, as ISO date strings. An absent endpoint or a start
// after the end yields an empty slice.
func GenerateDateRange(start, end time.Time) []string {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(ISOFormat))
	}

	return days
}

// SpanDays returns the inclusive length of [start, end] in days.
func SpanDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// Display formats an ISO date as dd.mm.yyyy for user-facing messages.
// Malformed input is returned unchanged; this is a best-effort formatter,
// not a validation path.
func Display(isoDate string) string {
	date, err := time.Parse(ISOFormat, isoDate)
	if err != nil {
		return isoDate
	}

	return date.Format(displayFormat)
}

// parseDatePart accepts one- or two-digit day/month components.
func parseDatePart(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 1 || len(s) > 2 {
		return 0, ErrInvalidFormat
	}

	value, err := strconv.Atoi(s)
	if err != nil || value < 0 {
		return 0, ErrInvalidFormat
	}

	return value, nil
}

// parseYearPart accepts a four-digit year.
func parseYearPart(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return 0, ErrInvalidFormat
	}

	value, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidFormat
	}

	return value, nil
}
