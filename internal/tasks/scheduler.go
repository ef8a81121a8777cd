package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/storage"
)

// defaultRunTimeout bounds one scheduled price check.
const defaultRunTimeout = 5 * time.Minute

// Runner executes the work a task schedules, typically a price-monitor
// pass over the task's competitor domain.
type Runner interface {
	RunTask(ctx context.Context, task *domain.MonitoringTask) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, task *domain.MonitoringTask) error

func (f RunnerFunc) RunTask(ctx context.Context, task *domain.MonitoringTask) error {
	return f(ctx, task)
}

// Scheduler keeps a cron entry per enabled task and updates task run
// metadata after every execution.
type Scheduler struct {
	cron   *cron.Cron
	store  storage.TaskStore
	runner Runner
	log    logger.Interface

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler. Call Start to begin firing entries.
func NewScheduler(store storage.TaskStore, runner Runner, log logger.Interface) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithParser(cronParser)),
		store:   store,
		runner:  runner,
		log:     log,
		entries: make(map[string]cron.EntryID),
	}
}

// Start loads every enabled task into the cron runtime and starts it.
func (s *Scheduler) Start(ctx context.Context) error {
	tasks, err := s.store.ListTasks(ctx, "")
	if err != nil {
		return fmt.Errorf("scheduler start: list tasks: %w", err)
	}

	for _, task := range tasks {
		if err := s.Schedule(ctx, task); err != nil {
			s.log.Warn("Skipping unschedulable task",
				"task_id", task.ID, "error", err)
		}
	}

	s.cron.Start()
	s.log.Info("Scheduler started", "tasks", len(s.entries))
	return nil
}

// Stop halts the cron runtime and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

// Schedule adds or replaces the cron entry for task. Disabled tasks only
// have their entry removed.
func (s *Scheduler) Schedule(ctx context.Context, task *domain.MonitoringTask) error {
	s.Unschedule(task.ID)

	if !task.Enabled {
		return nil
	}

	taskID := task.ID
	entryID, err := s.cron.AddFunc(task.Frequency, func() {
		s.run(taskID)
	})
	if err != nil {
		return fmt.Errorf("schedule task %s: %w", task.ID, err)
	}

	s.mu.Lock()
	s.entries[task.ID] = entryID
	s.mu.Unlock()

	if next, ok := nextRun(task.Frequency); ok {
		task.NextRun = &next
		if err := s.store.UpdateTask(ctx, task); err != nil {
			s.log.Warn("Failed to record next run", "task_id", task.ID, "error", err)
		}
	}

	return nil
}

// nextRun computes the next firing time for a cron frequency.
func nextRun(frequency string) (time.Time, bool) {
	schedule, err := cronParser.Parse(frequency)
	if err != nil {
		return time.Time{}, false
	}
	return schedule.Next(time.Now()), true
}

// Unschedule removes the task's cron entry if one exists.
func (s *Scheduler) Unschedule(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[taskID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, taskID)
	}
}

// run is the cron callback for one task firing.
func (s *Scheduler) run(taskID string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	if err := s.RunNow(ctx, taskID); err != nil {
		s.log.Error("Scheduled task run failed", "task_id", taskID, "error", err)
	}
}

// RunNow executes one task immediately, updating its status, lastRun and
// nextRun fields around the run.
func (s *Scheduler) RunNow(ctx context.Context, taskID string) error {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return fmt.Errorf("run task %s: %w", taskID, err)
	}
	if !task.Enabled {
		return nil
	}

	task.Status = domain.TaskStatusRunning
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("run task %s: %w", taskID, err)
	}

	runErr := s.runner.RunTask(ctx, task)

	now := time.Now().UTC()
	task.LastRun = &now
	task.UpdatedAt = now
	if runErr != nil {
		task.Status = domain.TaskStatusError
	} else {
		task.Status = domain.TaskStatusActive
	}

	if next, ok := nextRun(task.Frequency); ok {
		task.NextRun = &next
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("run task %s: %w", taskID, err)
	}

	if runErr != nil {
		return fmt.Errorf("run task %s: %w", taskID, runErr)
	}

	s.log.Debug("Task run finished", "task_id", taskID)
	return nil
}
