// Package memory provides in-memory store implementations guarded by
// RWMutexes. Stored values are copied on the way in and out so callers
// cannot mutate store state through shared pointers.
package memory

import (
	"context"
	"sync"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/storage"
)

// TaskStore is an in-memory storage.TaskStore.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]domain.MonitoringTask
}

// NewTaskStore creates an empty in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]domain.MonitoringTask)}
}

func (s *TaskStore) CreateTask(_ context.Context, task *domain.MonitoringTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return storage.ErrAlreadyExists
	}
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *TaskStore) GetTask(_ context.Context, id string) (*domain.MonitoringTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := copyTask(&task)
	return &out, nil
}

func (s *TaskStore) ListTasks(_ context.Context, userID string) ([]*domain.MonitoringTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.MonitoringTask
	for _, task := range s.tasks {
		if userID != "" && task.UserID != userID {
			continue
		}
		clone := copyTask(&task)
		out = append(out, &clone)
	}
	return out, nil
}

func (s *TaskStore) UpdateTask(_ context.Context, task *domain.MonitoringTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; !exists {
		return storage.ErrNotFound
	}
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *TaskStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return storage.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func copyTask(task *domain.MonitoringTask) domain.MonitoringTask {
	clone := *task
	clone.ProductURLs = append([]string(nil), task.ProductURLs...)
	return clone
}

// CompetitorStore is an in-memory storage.CompetitorStore keyed by user
// then domain.
type CompetitorStore struct {
	mu       sync.RWMutex
	insights map[string]map[string]domain.CompetitorInsight
}

// NewCompetitorStore creates an empty in-memory competitor store.
func NewCompetitorStore() *CompetitorStore {
	return &CompetitorStore{insights: make(map[string]map[string]domain.CompetitorInsight)}
}

func (s *CompetitorStore) SaveInsight(_ context.Context, userID string, insight *domain.CompetitorInsight) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDomain, ok := s.insights[userID]
	if !ok {
		byDomain = make(map[string]domain.CompetitorInsight)
		s.insights[userID] = byDomain
	}
	byDomain[insight.Domain] = *insight
	return nil
}

func (s *CompetitorStore) GetInsight(_ context.Context, userID, domainName string) (*domain.CompetitorInsight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	insight, ok := s.insights[userID][domainName]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := insight
	return &clone, nil
}

func (s *CompetitorStore) HasCompetitor(_ context.Context, userID, domainName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.insights[userID][domainName]
	return ok, nil
}

func (s *CompetitorStore) ListInsights(_ context.Context, userID string) ([]*domain.CompetitorInsight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.CompetitorInsight
	for _, insight := range s.insights[userID] {
		clone := insight
		out = append(out, &clone)
	}
	return out, nil
}

// PriceHistoryStore is an in-memory storage.PriceHistoryStore keyed by
// user then product URL.
type PriceHistoryStore struct {
	mu      sync.RWMutex
	history map[string]map[string][]domain.PriceObservation
}

// NewPriceHistoryStore creates an empty in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{history: make(map[string]map[string][]domain.PriceObservation)}
}

func (s *PriceHistoryStore) AppendObservation(
	_ context.Context,
	userID, productURL string,
	obs domain.PriceObservation,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byProduct, ok := s.history[userID]
	if !ok {
		byProduct = make(map[string][]domain.PriceObservation)
		s.history[userID] = byProduct
	}
	byProduct[productURL] = append(byProduct[productURL], obs)
	return nil
}

func (s *PriceHistoryStore) GetHistory(
	_ context.Context,
	userID, productURL string,
) (*domain.PriceHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	observations, ok := s.history[userID][productURL]
	if !ok || len(observations) == 0 {
		return nil, storage.ErrNotFound
	}

	current := observations[len(observations)-1]
	history := &domain.PriceHistory{
		ProductURL: productURL,
		Current:    &current,
		History:    append([]domain.PriceObservation(nil), observations...),
	}
	return history, nil
}
