package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/storage/memory"
	"github.com/rivalscan/rivalscan/internal/tasks"
)

func TestRunNowUpdatesRunMetadata(t *testing.T) {
	t.Parallel()

	store := memory.NewTaskStore()
	svc := tasks.NewService(store, logger.NewNoop())
	ctx := context.Background()

	task, err := svc.Create(ctx, tasks.CreateInput{
		UserID:           "user-1",
		CompetitorDomain: "rival.example",
		Frequency:        "daily",
	})
	require.NoError(t, err)

	var runs atomic.Int32
	runner := tasks.RunnerFunc(func(_ context.Context, got *domain.MonitoringTask) error {
		runs.Add(1)
		assert.Equal(t, task.ID, got.ID)
		return nil
	})

	scheduler := tasks.NewScheduler(store, runner, logger.NewNoop())
	require.NoError(t, scheduler.RunNow(ctx, task.ID))

	assert.Equal(t, int32(1), runs.Load())

	stored, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusActive, stored.Status)
	require.NotNil(t, stored.LastRun)
}

func TestRunNowRecordsFailure(t *testing.T) {
	t.Parallel()

	store := memory.NewTaskStore()
	svc := tasks.NewService(store, logger.NewNoop())
	ctx := context.Background()

	task, err := svc.Create(ctx, tasks.CreateInput{
		UserID:           "user-1",
		CompetitorDomain: "rival.example",
		Frequency:        "daily",
	})
	require.NoError(t, err)

	runner := tasks.RunnerFunc(func(_ context.Context, _ *domain.MonitoringTask) error {
		return errors.New("fetch blew up")
	})

	scheduler := tasks.NewScheduler(store, runner, logger.NewNoop())
	require.Error(t, scheduler.RunNow(ctx, task.ID))

	stored, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusError, stored.Status)
	require.NotNil(t, stored.LastRun)
}

func TestRunNowSkipsDisabledTask(t *testing.T) {
	t.Parallel()

	store := memory.NewTaskStore()
	svc := tasks.NewService(store, logger.NewNoop())
	ctx := context.Background()

	task, err := svc.Create(ctx, tasks.CreateInput{
		UserID:           "user-1",
		CompetitorDomain: "rival.example",
		Frequency:        "daily",
	})
	require.NoError(t, err)

	disabled := false
	_, err = svc.Update(ctx, task.ID, tasks.UpdateInput{Enabled: &disabled})
	require.NoError(t, err)

	var runs atomic.Int32
	runner := tasks.RunnerFunc(func(_ context.Context, _ *domain.MonitoringTask) error {
		runs.Add(1)
		return nil
	})

	scheduler := tasks.NewScheduler(store, runner, logger.NewNoop())
	require.NoError(t, scheduler.RunNow(ctx, task.ID))
	assert.Equal(t, int32(0), runs.Load())
}

func TestScheduleAndUnschedule(t *testing.T) {
	t.Parallel()

	store := memory.NewTaskStore()
	svc := tasks.NewService(store, logger.NewNoop())
	ctx := context.Background()

	task, err := svc.Create(ctx, tasks.CreateInput{
		UserID:           "user-1",
		CompetitorDomain: "rival.example",
		Frequency:        "daily",
	})
	require.NoError(t, err)

	scheduler := tasks.NewScheduler(store, tasks.RunnerFunc(func(context.Context, *domain.MonitoringTask) error {
		return nil
	}), logger.NewNoop())

	require.NoError(t, scheduler.Schedule(ctx, task))

	stored, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NextRun, "scheduling records the next run time")

	// Re-scheduling a disabled task removes the entry without error.
	task.Enabled = false
	require.NoError(t, scheduler.Schedule(ctx, task))

	scheduler.Unschedule(task.ID)
}
