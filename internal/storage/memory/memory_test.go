package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/storage"
	"github.com/rivalscan/rivalscan/internal/storage/memory"
)

func TestTaskStoreCRUD(t *testing.T) {
	t.Parallel()

	store := memory.NewTaskStore()
	ctx := context.Background()

	task := &domain.MonitoringTask{
		ID:               "task-1",
		UserID:           "user-1",
		CompetitorDomain: "rival.example",
		ProductURLs:      []string{"https://rival.example/widget"},
		Frequency:        "daily",
		Enabled:          true,
		Status:           domain.TaskStatusActive,
	}

	require.NoError(t, store.CreateTask(ctx, task))
	assert.ErrorIs(t, store.CreateTask(ctx, task), storage.ErrAlreadyExists)

	got, err := store.GetTask(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "rival.example", got.CompetitorDomain)

	// The store keeps its own copy.
	got.CompetitorDomain = "mutated.example"
	again, err := store.GetTask(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "rival.example", again.CompetitorDomain)

	task.Frequency = "weekly"
	require.NoError(t, store.UpdateTask(ctx, task))

	listed, err := store.ListTasks(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "weekly", listed[0].Frequency)

	other, err := store.ListTasks(ctx, "someone-else")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, store.DeleteTask(ctx, "task-1"))
	assert.ErrorIs(t, store.DeleteTask(ctx, "task-1"), storage.ErrNotFound)

	_, err = store.GetTask(ctx, "task-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCompetitorStore(t *testing.T) {
	t.Parallel()

	store := memory.NewCompetitorStore()
	ctx := context.Background()

	has, err := store.HasCompetitor(ctx, "user-1", "rival.example")
	require.NoError(t, err)
	assert.False(t, has)

	insight := &domain.CompetitorInsight{Domain: "rival.example", MatchScore: 80}
	require.NoError(t, store.SaveInsight(ctx, "user-1", insight))

	has, err = store.HasCompetitor(ctx, "user-1", "rival.example")
	require.NoError(t, err)
	assert.True(t, has)

	got, err := store.GetInsight(ctx, "user-1", "rival.example")
	require.NoError(t, err)
	assert.Equal(t, 80, got.MatchScore)

	// Insights are scoped per user.
	_, err = store.GetInsight(ctx, "user-2", "rival.example")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	listed, err := store.ListInsights(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestPriceHistoryStore(t *testing.T) {
	t.Parallel()

	store := memory.NewPriceHistoryStore()
	ctx := context.Background()

	_, err := store.GetHistory(ctx, "user-1", "https://rival.example/widget")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	day1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.AppendObservation(ctx, "user-1", "https://rival.example/widget",
		domain.PriceObservation{Price: 100, Currency: "USD", ObservedAt: day1}))
	require.NoError(t, store.AppendObservation(ctx, "user-1", "https://rival.example/widget",
		domain.PriceObservation{Price: 110, Currency: "USD", ObservedAt: day1.Add(24 * time.Hour)}))

	history, err := store.GetHistory(ctx, "user-1", "https://rival.example/widget")
	require.NoError(t, err)
	assert.InDelta(t, 110.0, history.Current.Price, 0.001)
	require.Len(t, history.History, 2)
	assert.InDelta(t, 100.0, history.History[0].Price, 0.001)
}
