package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vludko/workformat-bot/internal/metrics"
	"github.com/vludko/workformat-bot/internal/models"
	"github.com/vludko/workformat-bot/internal/repository"
	"github.com/vludko/workformat-bot/internal/scheduler"
)

type fakeSettings struct {
	morning   string
	afternoon string
}

func (s *fakeSettings) GetSetting(_ context.Context, _ string) (string, error) {
	return "", repository.ErrSettingNotFound
}

func (s *fakeSettings) UpsertSetting(_ context.Context, _, _ string) error { return nil }

func (s *fakeSettings) MorningBroadcastTime(_ context.Context) (string, error) {
	return s.morning, nil
}

func (s *fakeSettings) AfternoonReminderTime(_ context.Context) (string, error) {
	return s.afternoon, nil
}

type fakeRecipients struct {
	all []models.Employee
	due []models.Employee
}

func (r *fakeRecipients) Recipients(_ context.Context) ([]models.Employee, error) {
	return r.all, nil
}

func (r *fakeRecipients) DueRecipients(_ context.Context, _ string) ([]models.Employee, error) {
	return r.due, nil
}

type recordingNotifier struct {
	prompts   []int64
	reminders []int64
	failFor   int64
}

func (n *recordingNotifier) SendMorningPrompt(employee models.Employee) error {
	if employee.ID == n.failFor {
		return errors.New("chat not found")
	}
	n.prompts = append(n.prompts, employee.ID)
	return nil
}

func (n *recordingNotifier) SendAfternoonReminder(employee models.Employee) error {
	if employee.ID == n.failFor {
		return errors.New("chat not found")
	}
	n.reminders = append(n.reminders, employee.ID)
	return nil
}

func newScheduler(
	t *testing.T, settings *fakeSettings, recipients *fakeRecipients, notifier *recordingNotifier,
) *scheduler.Scheduler {
	t.Helper()
	sched, err := scheduler.New(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		settings,
		recipients,
		notifier,
		metrics.NewMetrics(prometheus.NewRegistry()),
		"Asia/Yekaterinburg",
	)
	require.NoError(t, err)
	return sched
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{name: "morning", input: "08:00", hour: 8, minute: 0},
		{name: "afternoon", input: "15:45", hour: 15, minute: 45},
		{name: "midnight", input: "00:00", hour: 0, minute: 0},
		{name: "last minute", input: "23:59", hour: 23, minute: 59},
		{name: "empty", input: "", wantErr: true},
		{name: "hour out of range", input: "25:00", wantErr: true},
		{name: "minute out of range", input: "12:60", wantErr: true},
		{name: "wrong separator", input: "08-00", wantErr: true},
		{name: "missing minutes", input: "12", wantErr: true},
		{name: "single digit hour", input: "8:00", wantErr: true},
		{name: "not a number", input: "ab:cd", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hour, minute, err := scheduler.ParseClockTime(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, scheduler.ErrInvalidClockTime)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.hour, hour)
			assert.Equal(t, tc.minute, minute)
		})
	}
}

func TestCronSpec(t *testing.T) {
	spec, err := scheduler.CronSpec("08:05")
	require.NoError(t, err)
	assert.Equal(t, "5 8 * * *", spec)

	_, err = scheduler.CronSpec("8 o'clock")
	assert.ErrorIs(t, err, scheduler.ErrInvalidClockTime)
}

func TestStartAndShutdown(t *testing.T) {
	settings := &fakeSettings{morning: "08:00", afternoon: "15:00"}
	sched := newScheduler(t, settings, &fakeRecipients{}, &recordingNotifier{})

	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))
	require.NoError(t, sched.Start(ctx), "second start must be a no-op")

	sched.Shutdown()
	sched.Shutdown()
}

func TestStartRejectsBadStoredTime(t *testing.T) {
	settings := &fakeSettings{morning: "soon", afternoon: "15:00"}
	sched := newScheduler(t, settings, &fakeRecipients{}, &recordingNotifier{})

	err := sched.Start(context.Background())
	assert.ErrorIs(t, err, scheduler.ErrInvalidClockTime)
}

func TestReconfigure(t *testing.T) {
	settings := &fakeSettings{morning: "08:00", afternoon: "15:00"}
	sched := newScheduler(t, settings, &fakeRecipients{}, &recordingNotifier{})

	ctx := context.Background()
	require.NoError(t, sched.Start(ctx))
	defer sched.Shutdown()

	settings.afternoon = "13:25"
	require.NoError(t, sched.Reconfigure(ctx))

	afternoon := sched.AfternoonEntry()
	require.True(t, afternoon.Valid())
	assert.Equal(t, 13, afternoon.Next.Hour())
	assert.Equal(t, 25, afternoon.Next.Minute())

	morning := sched.MorningEntry()
	require.True(t, morning.Valid())
	assert.Equal(t, 8, morning.Next.Hour())
	assert.Equal(t, 0, morning.Next.Minute())

	entries := sched.Entries()
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.False(t, entry.Next.Hour() == 15 && entry.Next.Minute() == 0,
			"the old afternoon trigger must be unregistered")
	}

	settings.afternoon = "half past one"
	assert.ErrorIs(t, sched.Reconfigure(ctx), scheduler.ErrInvalidClockTime)
	assert.Len(t, sched.Entries(), 2, "a rejected reconfiguration must leave both triggers in place")
}

func TestRunMorningBroadcast(t *testing.T) {
	recipients := &fakeRecipients{all: []models.Employee{{ID: 1}, {ID: 2}, {ID: 3}}}
	notifier := &recordingNotifier{failFor: 2}
	sched := newScheduler(t, &fakeSettings{morning: "08:00", afternoon: "15:00"}, recipients, notifier)

	delivered := sched.RunMorningBroadcast(context.Background())

	assert.Equal(t, 2, delivered)
	assert.Equal(t, []int64{1, 3}, notifier.prompts, "a failed delivery must not abort the run")
}

func TestRunAfternoonReminder(t *testing.T) {
	recipients := &fakeRecipients{
		all: []models.Employee{{ID: 1}, {ID: 2}},
		due: []models.Employee{{ID: 2}},
	}
	notifier := &recordingNotifier{}
	sched := newScheduler(t, &fakeSettings{morning: "08:00", afternoon: "15:00"}, recipients, notifier)

	delivered := sched.RunAfternoonReminder(context.Background())

	assert.Equal(t, 1, delivered)
	assert.Equal(t, []int64{2}, notifier.reminders, "only unanswered employees get the reminder")
	assert.Empty(t, notifier.prompts)
}
