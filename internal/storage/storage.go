// Package storage defines the persistence interfaces for monitoring tasks,
// discovered competitors, and price history, along with the errors their
// implementations return.
package storage

import (
	"context"
	"errors"

	"github.com/rivalscan/rivalscan/internal/domain"
)

// Errors returned by store implementations.
var (
	ErrNotFound      = errors.New("storage: not found")
	ErrAlreadyExists = errors.New("storage: already exists")
)

// TaskStore persists monitoring tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task *domain.MonitoringTask) error
	GetTask(ctx context.Context, id string) (*domain.MonitoringTask, error)
	ListTasks(ctx context.Context, userID string) ([]*domain.MonitoringTask, error)
	UpdateTask(ctx context.Context, task *domain.MonitoringTask) error
	DeleteTask(ctx context.Context, id string) error
}

// CompetitorStore persists competitor insights per user.
type CompetitorStore interface {
	SaveInsight(ctx context.Context, userID string, insight *domain.CompetitorInsight) error
	GetInsight(ctx context.Context, userID, domainName string) (*domain.CompetitorInsight, error)
	HasCompetitor(ctx context.Context, userID, domainName string) (bool, error)
	ListInsights(ctx context.Context, userID string) ([]*domain.CompetitorInsight, error)
}

// PriceHistoryStore persists per-product price observations.
type PriceHistoryStore interface {
	AppendObservation(ctx context.Context, userID, productURL string, obs domain.PriceObservation) error
	GetHistory(ctx context.Context, userID, productURL string) (*domain.PriceHistory, error)
}
