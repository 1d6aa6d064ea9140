// Package scheduler drives the two daily triggers of the bot: the morning
// work-format broadcast and the afternoon reminder for employees who have
// not answered yet. Trigger times live in storage and can be swapped at
// runtime without a restart.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vludko/workformat-bot/internal/metrics"
	"github.com/vludko/workformat-bot/internal/models"
	"github.com/vludko/workformat-bot/internal/repository"
)

// ErrInvalidClockTime is returned when a trigger time is not a valid HH:MM.
var ErrInvalidClockTime = errors.New("invalid time, expected HH:MM")

// Notifier delivers scheduled messages to one employee. Implemented by
// the bot; a delivery failure for one recipient must not abort the run.
type Notifier interface {
	SendMorningPrompt(employee models.Employee) error
	SendAfternoonReminder(employee models.Employee) error
}

// RecipientSource resolves who receives each trigger.
type RecipientSource interface {
	Recipients(ctx context.Context) ([]models.Employee, error)
	DueRecipients(ctx context.Context, referenceDate string) ([]models.Employee, error)
}

// Scheduler owns the cron runner and the two registered triggers.
type Scheduler struct {
	log        *slog.Logger
	settings   repository.SettingsManager
	recipients RecipientSource
	notifier   Notifier
	metrics    *metrics.Metrics
	cron       *cron.Cron

	mu          sync.Mutex
	morningID   cron.EntryID
	afternoonID cron.EntryID
	started     bool
}

// New creates a Scheduler whose triggers fire in the given timezone.
func New(
	log *slog.Logger,
	settings repository.SettingsManager,
	recipients RecipientSource,
	notifier Notifier,
	appMetrics *metrics.Metrics,
	timezone string,
) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}

	return &Scheduler{
		log:        log,
		settings:   settings,
		recipients: recipients,
		notifier:   notifier,
		metrics:    appMetrics,
		cron:       cron.New(cron.WithLocation(loc)),
	}, nil
}

// Start registers both triggers from the stored times and starts the
// runner. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if err := s.registerLocked(ctx); err != nil {
		return err
	}

	s.cron.Start()
	s.started = true
	s.log.Info("Scheduler started")

	return nil
}

// Reconfigure re-reads the trigger times from storage and atomically
// replaces both cron entries. The runner keeps going throughout, so a
// time changed via an admin command takes effect without a restart.
func (s *Scheduler) Reconfigure(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registerLocked(ctx)
}

// MorningEntry returns the cron entry currently registered for the
// morning broadcast.
func (s *Scheduler) MorningEntry() cron.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cron.Entry(s.morningID)
}

// AfternoonEntry returns the cron entry currently registered for the
// afternoon reminder.
func (s *Scheduler) AfternoonEntry() cron.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cron.Entry(s.afternoonID)
}

// Entries returns a snapshot of every registered cron entry.
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cron.Entries()
}

// Shutdown stops the runner and waits for an in-flight trigger to finish.
// Safe to call more than once.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	<-s.cron.Stop().Done()
	s.started = false
	s.log.Info("Scheduler stopped")
}

// registerLocked swaps both cron entries for the currently stored times.
// Caller holds s.mu.
func (s *Scheduler) registerLocked(ctx context.Context) error {
	morning, err := s.settings.MorningBroadcastTime(ctx)
	if err != nil {
		return fmt.Errorf("failed to read morning broadcast time: %w", err)
	}
	afternoon, err := s.settings.AfternoonReminderTime(ctx)
	if err != nil {
		return fmt.Errorf("failed to read afternoon reminder time: %w", err)
	}

	morningSpec, err := CronSpec(morning)
	if err != nil {
		return fmt.Errorf("morning broadcast time %q: %w", morning, err)
	}
	afternoonSpec, err := CronSpec(afternoon)
	if err != nil {
		return fmt.Errorf("afternoon reminder time %q: %w", afternoon, err)
	}

	if s.morningID != 0 {
		s.cron.Remove(s.morningID)
	}
	if s.afternoonID != 0 {
		s.cron.Remove(s.afternoonID)
	}

	s.morningID, err = s.cron.AddFunc(morningSpec, func() { _ = s.RunMorningBroadcast(context.Background()) })
	if err != nil {
		return fmt.Errorf("failed to schedule morning broadcast: %w", err)
	}
	s.afternoonID, err = s.cron.AddFunc(afternoonSpec, func() { _ = s.RunAfternoonReminder(context.Background()) })
	if err != nil {
		return fmt.Errorf("failed to schedule afternoon reminder: %w", err)
	}

	s.log.Info("Triggers scheduled", "morning", morning, "afternoon", afternoon)

	return nil
}

// RunMorningBroadcast sends the work-format prompt to every active,
// consenting employee and returns the delivery count. One failed
// delivery is logged and skipped.
func (s *Scheduler) RunMorningBroadcast(ctx context.Context) int {
	recipients, err := s.recipients.Recipients(ctx)
	if err != nil {
		s.log.Error("Failed to resolve morning broadcast recipients", "error", err)
		return 0
	}

	delivered := s.deliver(recipients, "morning", s.notifier.SendMorningPrompt)
	s.log.Info("Morning broadcast finished", "recipients", len(recipients), "delivered", delivered)

	return delivered
}

// RunAfternoonReminder nudges every active, consenting employee who has
// not declared a work format for today and returns the delivery count.
func (s *Scheduler) RunAfternoonReminder(ctx context.Context) int {
	recipients, err := s.recipients.DueRecipients(ctx, "")
	if err != nil {
		s.log.Error("Failed to resolve afternoon reminder recipients", "error", err)
		return 0
	}

	delivered := s.deliver(recipients, "afternoon", s.notifier.SendAfternoonReminder)
	s.log.Info("Afternoon reminder finished", "recipients", len(recipients), "delivered", delivered)

	return delivered
}

func (s *Scheduler) deliver(
	recipients []models.Employee,
	kind string,
	send func(models.Employee) error,
) int {
	delivered := 0
	for _, employee := range recipients {
		if err := send(employee); err != nil {
			s.log.Warn("Failed to deliver scheduled message",
				"kind", kind, "employee", employee.ID, "error", err)
			s.metrics.ScheduledDeliveries.WithLabelValues(kind, "error").Inc()
			continue
		}
		delivered++
		s.metrics.ScheduledDeliveries.WithLabelValues(kind, "ok").Inc()
	}

	return delivered
}

// CronSpec converts a strict 24-hour HH:MM wall-clock time into a daily
// cron expression.
func CronSpec(clockTime string) (string, error) {
	hour, minute, err := ParseClockTime(clockTime)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// ParseClockTime validates a strict 24-hour HH:MM string.
func ParseClockTime(clockTime string) (int, int, error) {
	parts := strings.Split(clockTime, ":")
	const clockParts = 2
	if len(parts) != clockParts || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, ErrInvalidClockTime
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, ErrInvalidClockTime
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidClockTime
	}

	return hour, minute, nil
}
