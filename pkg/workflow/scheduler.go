package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"

	"github.com/redglass/conductor/pkg/eventbus"
	"github.com/redglass/conductor/pkg/events"
	"github.com/redglass/conductor/pkg/models"
)

const (
	dedupTTL        = 2 * time.Minute
	recheckInterval = time.Minute
)

// Runner executes one workflow; satisfied by *Executor.
type Runner interface {
	Execute(ctx context.Context, workflowID string, trigger models.TriggerContext) (*models.ExecutionRecord, error)
}

// Scheduler arms one-shot timers for enabled schedule-triggered workflows and
// re-arms or retires them after each fire. No armed state is durable: on
// startup everything is recomputed from the persisted definitions.
type Scheduler struct {
	logger   *slog.Logger
	store    *Store
	runner   Runner
	eventBus eventbus.EventPublisher

	// now is the clock source; overridable in tests.
	now func() time.Time

	dedup *cache.Cache

	mu     sync.Mutex
	timers map[string]*time.Timer
	stop   chan struct{}
	closed bool
}

func NewScheduler(store *Store, runner Runner, eventBus eventbus.EventPublisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		logger:   logger.With("module", "scheduler"),
		store:    store,
		runner:   runner,
		eventBus: eventBus,
		now:      time.Now,
		dedup:    cache.New(dedupTTL, dedupTTL),
		timers:   make(map[string]*time.Timer),
		stop:     make(chan struct{}),
	}
}

// Start arms every persisted, enabled, schedule-triggered workflow and begins
// the periodic re-check loop.
func (s *Scheduler) Start() {
	s.ArmAll()

	go s.recheckLoop()

	s.logger.Info("Scheduler started")
}

// ArmAll recomputes and arms timers for all eligible workflows.
func (s *Scheduler) ArmAll() {
	for _, def := range s.store.ListEnabled() {
		s.Arm(def)
	}
}

// Arm computes the next fire time for one workflow and schedules a one-shot
// callback. Workflows that are not schedule-triggered, or whose next fire
// cannot be computed, are left unarmed; other workflows are unaffected.
func (s *Scheduler) Arm(def *models.WorkflowDefinition) {
	if !def.Enabled || def.Trigger.Type != models.TriggerSchedule || def.Trigger.Schedule == nil {
		s.Cancel(def.ID)

		return
	}

	now := s.now()

	next, ok := ComputeNextFire(def.Trigger.Schedule, now)
	if !ok {
		s.logger.Debug("No future fire time, not arming", "workflow_id", def.ID)
		s.Cancel(def.ID)

		return
	}

	workflowID := def.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if timer, exists := s.timers[workflowID]; exists {
		timer.Stop()
	}

	s.timers[workflowID] = time.AfterFunc(next.Sub(now), func() {
		s.fire(workflowID)
	})

	s.logger.Debug("Armed workflow", "workflow_id", workflowID, "next_fire", next)
}

// Cancel clears any armed timer for a workflow; idempotent.
func (s *Scheduler) Cancel(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, exists := s.timers[workflowID]; exists {
		timer.Stop()
		delete(s.timers, workflowID)
	}
}

// Stop cancels all timers and halts the re-check loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return
	}

	s.closed = true

	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}

	s.mu.Unlock()

	close(s.stop)
	s.logger.Info("Scheduler stopped")
}

// recheckLoop periodically re-arms everything. Timers normally make this a
// no-op; it recovers workflows whose timers were lost to clock jumps or
// definitions changed behind the scheduler's back.
func (s *Scheduler) recheckLoop() {
	ticker := time.NewTicker(recheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.ArmAll()
		case <-s.stop:
			return
		}
	}
}

// fire runs one scheduled execution: dedup check, execute, bookkeeping, then
// re-arm or retire. Failures inside the execution never stop the loop or
// other workflows.
func (s *Scheduler) fire(workflowID string) {
	def, err := s.store.Get(workflowID)
	if err != nil || !def.Enabled {
		s.Cancel(workflowID)

		return
	}

	now := s.now()

	dedupKey := workflowID + "@" + now.Format("2006-01-02T15:04")
	if _, seen := s.dedup.Get(dedupKey); seen {
		s.logger.Debug("Duplicate fire suppressed", "workflow_id", workflowID)
		s.Arm(def)

		return
	}

	s.dedup.Set(dedupKey, struct{}{}, cache.DefaultExpiration)

	s.logger.Info("Schedule fired", "workflow_id", workflowID, "name", def.Name)

	ctx := context.Background()

	record, err := s.runner.Execute(ctx, workflowID, models.TriggerContext{
		Data: map[string]any{"scheduled": true, "firedAt": now.Format(time.RFC3339)},
	})
	if err != nil {
		s.logger.Error("Scheduled execution failed", "workflow_id", workflowID, "error", err)
	} else if !record.Success {
		s.logger.Warn("Scheduled execution completed with errors", "workflow_id", workflowID)
	}

	if err := s.store.MarkExecuted(ctx, workflowID, now); err != nil {
		s.logger.Error("Failed to record execution bookkeeping", "workflow_id", workflowID, "error", err)
	}

	rearmed := s.finalize(workflowID)

	s.publish(workflowID, events.ScheduleFired{
		BaseEvent:  events.NewBaseEvent(events.ScheduleFiredEvent),
		WorkflowID: workflowID,
		FiredAt:    now,
		Rearmed:    rearmed,
	})
}

// finalize decides between re-arming and retiring after a fire. One-shot
// schedules and exhausted limits disable the workflow; everything else is
// re-armed from the refreshed definition.
func (s *Scheduler) finalize(workflowID string) bool {
	def, err := s.store.Get(workflowID)
	if err != nil {
		s.Cancel(workflowID)

		return false
	}

	schedule := def.Trigger.Schedule
	if schedule == nil {
		s.Cancel(workflowID)

		return false
	}

	if schedule.Frequency == models.FrequencyOnce || !s.withinLimits(def) {
		s.Cancel(workflowID)

		if err := s.store.SetEnabled(context.Background(), workflowID, false); err != nil {
			s.logger.Error("Failed to disable finished workflow", "workflow_id", workflowID, "error", err)
		}

		return false
	}

	s.Arm(def)

	return true
}

func (s *Scheduler) withinLimits(def *models.WorkflowDefinition) bool {
	schedule := def.Trigger.Schedule

	if schedule.MaxExecutions != nil && def.ExecutionCount >= *schedule.MaxExecutions {
		return false
	}

	if schedule.EndDate != nil && !s.now().Before(*schedule.EndDate) {
		return false
	}

	return true
}

func (s *Scheduler) publish(key string, event eventbus.Event) {
	if s.eventBus == nil {
		return
	}

	if err := s.eventBus.Publish(context.Background(), key, event); err != nil {
		s.logger.Warn("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

// ComputeNextFire resolves a schedule's next fire instant strictly after now.
// The second return is false when the schedule has no future fire.
func ComputeNextFire(schedule *models.Schedule, now time.Time) (time.Time, bool) {
	var next time.Time

	switch schedule.Frequency {
	case models.FrequencyOnce:
		if schedule.At == nil {
			return time.Time{}, false
		}

		next = *schedule.At
	case models.FrequencyDaily:
		clock, err := models.ParseClock(schedule.Time)
		if err != nil {
			return time.Time{}, false
		}

		next = atClock(now, clock)
		if !next.After(now) {
			next = atClock(now.AddDate(0, 0, 1), clock)
		}
	case models.FrequencyWeekly:
		if schedule.DayOfWeek == nil {
			return time.Time{}, false
		}

		clock, err := models.ParseClock(schedule.Time)
		if err != nil {
			return time.Time{}, false
		}

		next = nextWeekday(now, *schedule.DayOfWeek, clock)
	case models.FrequencyMonthly:
		if schedule.DayOfMonth == nil {
			return time.Time{}, false
		}

		clock, err := models.ParseClock(schedule.Time)
		if err != nil {
			return time.Time{}, false
		}

		next = nextMonthDay(now, *schedule.DayOfMonth, clock)
	case models.FrequencyInterval:
		if schedule.IntervalMinutes <= 0 {
			return time.Time{}, false
		}

		next = now.Add(time.Duration(schedule.IntervalMinutes) * time.Minute)
	case models.FrequencyCron:
		parsed, err := cron.ParseStandard(schedule.CronExpression)
		if err != nil {
			return time.Time{}, false
		}

		next = parsed.Next(now)
	default:
		return time.Time{}, false
	}

	if next.IsZero() || !next.After(now) {
		return time.Time{}, false
	}

	if schedule.EndDate != nil && next.After(*schedule.EndDate) {
		return time.Time{}, false
	}

	return next, true
}

func atClock(day time.Time, clock models.Clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour, clock.Minute, 0, 0, day.Location())
}

func nextWeekday(now time.Time, weekday time.Weekday, clock models.Clock) time.Time {
	daysAhead := (int(weekday) - int(now.Weekday()) + 7) % 7

	candidate := atClock(now.AddDate(0, 0, daysAhead), clock)
	if !candidate.After(now) {
		candidate = atClock(now.AddDate(0, 0, daysAhead+7), clock)
	}

	return candidate
}

func nextMonthDay(now time.Time, day int, clock models.Clock) time.Time {
	// Walk forward until a month actually contains the requested day, so a
	// day like 31 skips short months instead of normalizing into the next.
	for offset := range 12 {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, offset, 0)
		if day > daysIn(first) {
			continue
		}

		candidate := time.Date(first.Year(), first.Month(), day, clock.Hour, clock.Minute, 0, 0, now.Location())
		if candidate.After(now) {
			return candidate
		}
	}

	return time.Time{}
}

func daysIn(month time.Time) int {
	return time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location()).AddDate(0, 1, -1).Day()
}
