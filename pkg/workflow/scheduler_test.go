package workflow

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redglass/conductor/pkg/models"
)

type countingRunner struct {
	calls atomic.Int32
}

func (r *countingRunner) Execute(_ context.Context, workflowID string, _ models.TriggerContext) (*models.ExecutionRecord, error) {
	r.calls.Add(1)

	return &models.ExecutionRecord{ID: "exec", WorkflowID: workflowID, Success: true}, nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *Store, *countingRunner) {
	t.Helper()

	store, _ := newTestStore(t)
	runner := &countingRunner{}
	scheduler := NewScheduler(store, runner, nil, testLogger())

	t.Cleanup(scheduler.Stop)

	return scheduler, store, runner
}

func scheduledWorkflow(t *testing.T, store *Store, schedule models.Schedule) *models.WorkflowDefinition {
	t.Helper()

	created, err := store.Create(context.Background(), &models.WorkflowDefinition{
		Name: "scheduled workflow",
		Trigger: models.Trigger{
			Type:     models.TriggerSchedule,
			Schedule: &schedule,
		},
	})
	require.NoError(t, err)

	return created
}

func localDate(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}

func TestComputeNextFire(t *testing.T) {
	now := localDate(2026, time.March, 10, 8, 30) // a Tuesday

	wednesday := time.Wednesday
	day31 := 31
	future := localDate(2026, time.April, 1, 12, 0)
	past := localDate(2026, time.January, 1, 12, 0)

	tests := []struct {
		name     string
		schedule models.Schedule
		want     time.Time
		armed    bool
	}{
		{
			name:     "once in the future",
			schedule: models.Schedule{Frequency: models.FrequencyOnce, At: &future},
			want:     future,
			armed:    true,
		},
		{
			name:     "once in the past",
			schedule: models.Schedule{Frequency: models.FrequencyOnce, At: &past},
			armed:    false,
		},
		{
			name:     "daily before the time",
			schedule: models.Schedule{Frequency: models.FrequencyDaily, Time: "09:00"},
			want:     localDate(2026, time.March, 10, 9, 0),
			armed:    true,
		},
		{
			name:     "daily after the time rolls to tomorrow",
			schedule: models.Schedule{Frequency: models.FrequencyDaily, Time: "08:00"},
			want:     localDate(2026, time.March, 11, 8, 0),
			armed:    true,
		},
		{
			name:     "weekly rolls to next occurrence",
			schedule: models.Schedule{Frequency: models.FrequencyWeekly, Time: "10:00", DayOfWeek: &wednesday},
			want:     localDate(2026, time.March, 11, 10, 0),
			armed:    true,
		},
		{
			name:     "monthly skips short months",
			schedule: models.Schedule{Frequency: models.FrequencyMonthly, Time: "00:00", DayOfMonth: &day31},
			want:     localDate(2026, time.March, 31, 0, 0),
			armed:    true,
		},
		{
			name:     "interval adds minutes",
			schedule: models.Schedule{Frequency: models.FrequencyInterval, IntervalMinutes: 45},
			want:     localDate(2026, time.March, 10, 9, 15),
			armed:    true,
		},
		{
			name:     "cron expression",
			schedule: models.Schedule{Frequency: models.FrequencyCron, CronExpression: "0 9 * * *"},
			want:     localDate(2026, time.March, 10, 9, 0),
			armed:    true,
		},
		{
			name:     "invalid cron expression",
			schedule: models.Schedule{Frequency: models.FrequencyCron, CronExpression: "not cron"},
			armed:    false,
		},
		{
			name:     "end date already passed",
			schedule: models.Schedule{Frequency: models.FrequencyDaily, Time: "09:00", EndDate: &past},
			armed:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ComputeNextFire(&tt.schedule, now)
			require.Equal(t, tt.armed, ok)

			if tt.armed {
				assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestFireDedupsWithinSameMinute(t *testing.T) {
	scheduler, store, runner := newTestScheduler(t)

	fireTime := localDate(2026, time.March, 10, 9, 0)
	scheduler.now = func() time.Time { return fireTime }

	def := scheduledWorkflow(t, store, models.Schedule{Frequency: models.FrequencyDaily, Time: "09:00"})

	scheduler.fire(def.ID)
	scheduler.fire(def.ID)

	assert.Equal(t, int32(1), runner.calls.Load(), "second fire in the same minute must be suppressed")

	got, err := store.Get(def.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ExecutionCount)
	require.NotNil(t, got.LastExecuted)

	// Still armed for the following day.
	scheduler.mu.Lock()
	_, armed := scheduler.timers[def.ID]
	scheduler.mu.Unlock()
	assert.True(t, armed)
}

func TestOnceWorkflowRetiresAfterFiring(t *testing.T) {
	scheduler, store, runner := newTestScheduler(t)

	at := localDate(2026, time.March, 10, 9, 0)
	scheduler.now = func() time.Time { return at }

	def := scheduledWorkflow(t, store, models.Schedule{Frequency: models.FrequencyOnce, At: &at})

	scheduler.fire(def.ID)

	assert.Equal(t, int32(1), runner.calls.Load())

	got, err := store.Get(def.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled, "one-shot workflow must be disabled after firing")

	scheduler.mu.Lock()
	_, armed := scheduler.timers[def.ID]
	scheduler.mu.Unlock()
	assert.False(t, armed, "one-shot workflow must not be re-armed")
}

func TestMaxExecutionsRetiresWorkflow(t *testing.T) {
	scheduler, store, runner := newTestScheduler(t)

	clock := localDate(2026, time.March, 10, 9, 0)
	scheduler.now = func() time.Time { return clock }

	limit := 2
	def := scheduledWorkflow(t, store, models.Schedule{
		Frequency:       models.FrequencyInterval,
		IntervalMinutes: 5,
		MaxExecutions:   &limit,
	})

	scheduler.fire(def.ID)
	clock = clock.Add(5 * time.Minute)
	scheduler.fire(def.ID)

	assert.Equal(t, int32(2), runner.calls.Load())

	got, err := store.Get(def.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)
	assert.Equal(t, 2, got.ExecutionCount)

	// A stray timer callback after retirement is a no-op.
	clock = clock.Add(5 * time.Minute)
	scheduler.fire(def.ID)
	assert.Equal(t, int32(2), runner.calls.Load())
}

func TestArmIgnoresNonScheduleWorkflows(t *testing.T) {
	scheduler, store, _ := newTestScheduler(t)

	created, err := store.Create(context.Background(), &models.WorkflowDefinition{
		Name:    "manual workflow",
		Trigger: models.Trigger{Type: models.TriggerManual},
	})
	require.NoError(t, err)

	scheduler.Arm(created)

	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	assert.Empty(t, scheduler.timers)
}

func TestArmAllArmsPersistedSchedules(t *testing.T) {
	scheduler, store, _ := newTestScheduler(t)

	scheduler.now = func() time.Time { return localDate(2026, time.March, 10, 8, 0) }

	def := scheduledWorkflow(t, store, models.Schedule{Frequency: models.FrequencyDaily, Time: "09:00"})
	scheduledWorkflow(t, store, models.Schedule{Frequency: models.FrequencyInterval, IntervalMinutes: 30})

	scheduler.ArmAll()

	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()
	assert.Len(t, scheduler.timers, 2)
	assert.Contains(t, scheduler.timers, def.ID)
}
