package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rivalscan/rivalscan/internal/domain"
	"github.com/rivalscan/rivalscan/internal/logger"
	"github.com/rivalscan/rivalscan/internal/storage"
	"github.com/rivalscan/rivalscan/internal/tasks"
)

// TaskService provides monitoring task CRUD.
type TaskService interface {
	Create(ctx context.Context, in tasks.CreateInput) (*domain.MonitoringTask, error)
	Update(ctx context.Context, id string, in tasks.UpdateInput) (*domain.MonitoringTask, error)
	Get(ctx context.Context, id string) (*domain.MonitoringTask, error)
	List(ctx context.Context, userID string) ([]*domain.MonitoringTask, error)
	Delete(ctx context.Context, id string) error
}

// TaskScheduler keeps the cron runtime in sync with task mutations.
type TaskScheduler interface {
	Schedule(ctx context.Context, task *domain.MonitoringTask) error
	Unschedule(taskID string)
}

// TasksHandler handles monitoring task requests.
type TasksHandler struct {
	service   TaskService
	scheduler TaskScheduler
	log       logger.Interface
}

// NewTasksHandler creates a tasks handler. scheduler may be nil when no
// cron runtime is attached.
func NewTasksHandler(service TaskService, scheduler TaskScheduler, log logger.Interface) *TasksHandler {
	return &TasksHandler{
		service:   service,
		scheduler: scheduler,
		log:       log,
	}
}

// CreateTask handles POST /api/v1/tasks.
func (h *TasksHandler) CreateTask(c *gin.Context) {
	var in tasks.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	task, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		if isTaskInputError(err) {
			respondBadRequest(c, err.Error())
			return
		}
		h.log.Error("Task creation failed", "error", err)
		respondInternalError(c, "Task creation failed")
		return
	}

	if h.scheduler != nil {
		if err := h.scheduler.Schedule(c.Request.Context(), task); err != nil {
			h.log.Warn("Task created but not scheduled", "task_id", task.ID, "error", err)
		}
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask handles PATCH /api/v1/tasks/:id.
func (h *TasksHandler) UpdateTask(c *gin.Context) {
	id := c.Param("id")

	var in tasks.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "Invalid request body")
		return
	}

	task, err := h.service.Update(c.Request.Context(), id, in)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			respondNotFound(c, "task")
		case isTaskInputError(err):
			respondBadRequest(c, err.Error())
		default:
			h.log.Error("Task update failed", "task_id", id, "error", err)
			respondInternalError(c, "Task update failed")
		}
		return
	}

	if h.scheduler != nil {
		if err := h.scheduler.Schedule(c.Request.Context(), task); err != nil {
			h.log.Warn("Task updated but not rescheduled", "task_id", task.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, task)
}

// GetTask handles GET /api/v1/tasks/:id.
func (h *TasksHandler) GetTask(c *gin.Context) {
	id := c.Param("id")

	task, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(c, "task")
			return
		}
		h.log.Error("Task lookup failed", "task_id", id, "error", err)
		respondInternalError(c, "Task lookup failed")
		return
	}

	c.JSON(http.StatusOK, task)
}

// ListTasks handles GET /api/v1/tasks.
func (h *TasksHandler) ListTasks(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		respondBadRequest(c, "user_id is required")
		return
	}

	list, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("Task listing failed", "user_id", userID, "error", err)
		respondInternalError(c, "Task listing failed")
		return
	}
	if list == nil {
		list = []*domain.MonitoringTask{}
	}

	c.JSON(http.StatusOK, gin.H{"tasks": list, "total": len(list)})
}

// DeleteTask handles DELETE /api/v1/tasks/:id.
func (h *TasksHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondNotFound(c, "task")
			return
		}
		h.log.Error("Task deletion failed", "task_id", id, "error", err)
		respondInternalError(c, "Task deletion failed")
		return
	}

	if h.scheduler != nil {
		h.scheduler.Unschedule(id)
	}

	c.Status(http.StatusNoContent)
}

// isTaskInputError reports whether err is a caller input error.
func isTaskInputError(err error) bool {
	return errors.Is(err, tasks.ErrMissingUserID) ||
		errors.Is(err, tasks.ErrMissingDomain) ||
		errors.Is(err, tasks.ErrBadFrequency)
}
