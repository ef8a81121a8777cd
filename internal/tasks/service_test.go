package tasks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/storage"
	"github.com/rivalscan/rivalscan/internal/storage/memory"
	"github.com/rivalscan/rivalscan/internal/tasks"
)

func newService() *tasks.Service {
	return tasks.NewService(memory.NewTaskStore(), logger.NewNoop())
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	svc := newService()

	task, err := svc.Create(context.Background(), tasks.CreateInput{
		UserID:           "user-1",
		CompetitorDomain: "rival.example",
		ProductURLs:      []string{"https://rival.example/widget"},
		Frequency:        "daily",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "@daily", task.Frequency, "human frequency resolves to a cron descriptor")
	assert.True(t, task.Enabled)
	assert.Equal(t, domain.TaskStatusActive, task.Status)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestCreateTaskValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    tasks.CreateInput
		expected error
	}{
		{
			name:     "missing user",
			input:    tasks.CreateInput{CompetitorDomain: "rival.example", Frequency: "daily"},
			expected: tasks.ErrMissingUserID,
		},
		{
			name:     "missing domain",
			input:    tasks.CreateInput{UserID: "user-1", Frequency: "daily"},
			expected: tasks.ErrMissingDomain,
		},
		{
			name:     "bad frequency",
			input:    tasks.CreateInput{UserID: "user-1", CompetitorDomain: "rival.example", Frequency: "whenever"},
			expected: tasks.ErrBadFrequency,
		},
		{
			name:     "empty frequency",
			input:    tasks.CreateInput{UserID: "user-1", CompetitorDomain: "rival.example"},
			expected: tasks.ErrBadFrequency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newService().Create(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCreateTaskAcceptsCronExpression(t *testing.T) {
	t.Parallel()

	task, err := newService().Create(context.Background(), tasks.CreateInput{
		UserID:           "user-1",
		CompetitorDomain: "rival.example",
		Frequency:        "30 6 * * *",
	})
	require.NoError(t, err)
	assert.Equal(t, "30 6 * * *", task.Frequency)
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	svc := newService()
	ctx := context.Background()

	task, err := svc.Create(ctx, tasks.CreateInput{
		UserID:           "user-1",
		CompetitorDomain: "rival.example",
		Frequency:        "daily",
	})
	require.NoError(t, err)

	weekly := "weekly"
	disabled := false
	updated, err := svc.Update(ctx, task.ID, tasks.UpdateInput{
		Frequency: &weekly,
		Enabled:   &disabled,
	})
	require.NoError(t, err)

	assert.Equal(t, "@weekly", updated.Frequency)
	assert.False(t, updated.Enabled)
	assert.Equal(t, domain.TaskStatusDisabled, updated.Status)

	enabled := true
	updated, err = svc.Update(ctx, task.ID, tasks.UpdateInput{Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusActive, updated.Status)
}

func TestUpdateUnknownTask(t *testing.T) {
	t.Parallel()

	_, err := newService().Update(context.Background(), "nope", tasks.UpdateInput{})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()

	svc := newService()
	ctx := context.Background()

	task, err := svc.Create(ctx, tasks.CreateInput{
		UserID:           "user-1",
		CompetitorDomain: "rival.example",
		Frequency:        "daily",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, task.ID))
	assert.ErrorIs(t, svc.Delete(ctx, task.ID), storage.ErrNotFound)

	listed, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, listed)
}
