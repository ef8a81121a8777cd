// Package tasks manages monitoring tasks: CRUD over the task store and a
// cron-backed scheduler that runs the price monitor on each task's
// configured frequency.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/storage"
)

// Validation errors.
var (
	ErrMissingUserID = errors.New("tasks: user id is required")
	ErrMissingDomain = errors.New("tasks: competitor domain is required")
	ErrBadFrequency  = errors.New("tasks: invalid frequency")
)

// frequencyAliases maps human frequencies onto cron descriptors.
var frequencyAliases = map[string]string{
	"hourly":  "@hourly",
	"daily":   "@daily",
	"weekly":  "@weekly",
	"monthly": "@monthly",
}

// cronParser accepts standard five-field cron expressions and descriptors
// like @daily.
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Service provides CRUD over monitoring tasks.
type Service struct {
	store storage.TaskStore
	log   logger.Interface
}

// NewService creates a task service.
func NewService(store storage.TaskStore, log logger.Interface) *Service {
	return &Service{store: store, log: log}
}

// CreateInput is the caller-supplied part of a new task.
type CreateInput struct {
	UserID           string   `json:"user_id"`
	CompetitorDomain string   `json:"competitor_domain"`
	ProductURLs      []string `json:"product_urls"`
	Frequency        string   `json:"frequency"`
}

// Create validates the input and stores a new enabled task.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.MonitoringTask, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, ErrMissingUserID
	}
	if strings.TrimSpace(in.CompetitorDomain) == "" {
		return nil, ErrMissingDomain
	}

	frequency, err := normalizeFrequency(in.Frequency)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &domain.MonitoringTask{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		CompetitorDomain: in.CompetitorDomain,
		ProductURLs:      in.ProductURLs,
		Frequency:        frequency,
		Enabled:          true,
		Status:           domain.TaskStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.log.Info("Monitoring task created",
		"task_id", task.ID,
		"domain", task.CompetitorDomain,
		"frequency", task.Frequency)

	return task, nil
}

// UpdateInput holds optional task mutations; nil fields are left alone.
type UpdateInput struct {
	ProductURLs *[]string `json:"product_urls"`
	Frequency   *string   `json:"frequency"`
	Enabled     *bool     `json:"enabled"`
}

// Update applies the non-nil fields of in to the task.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*domain.MonitoringTask, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}

	if in.ProductURLs != nil {
		task.ProductURLs = *in.ProductURLs
	}
	if in.Frequency != nil {
		frequency, err := normalizeFrequency(*in.Frequency)
		if err != nil {
			return nil, err
		}
		task.Frequency = frequency
	}
	if in.Enabled != nil {
		task.Enabled = *in.Enabled
		if task.Enabled {
			task.Status = domain.TaskStatusActive
		} else {
			task.Status = domain.TaskStatusDisabled
		}
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}

	return task, nil
}

// Get returns one task by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.MonitoringTask, error) {
	return s.store.GetTask(ctx, id)
}

// List returns the user's tasks.
func (s *Service) List(ctx context.Context, userID string) ([]*domain.MonitoringTask, error) {
	return s.store.ListTasks(ctx, userID)
}

// Delete removes a task. The schedule entry goes with it; stored insights
// and price history are untouched.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	s.log.Info("Monitoring task deleted", "task_id", id)
	return nil
}

// normalizeFrequency resolves aliases and validates the cron expression.
func normalizeFrequency(frequency string) (string, error) {
	frequency = strings.TrimSpace(strings.ToLower(frequency))
	if frequency == "" {
		return "", ErrBadFrequency
	}

	if alias, ok := frequencyAliases[frequency]; ok {
		frequency = alias
	}

	if _, err := cronParser.Parse(frequency); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrBadFrequency, frequency, err)
	}

	return frequency, nil
}
