package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	rep "todoTracker/internal/repository"

	"go.uber.org/zap"
)

const resourceTask = "task"

type TaskService struct {
	repo TaskRepository
}

func NewTaskService(repo TaskRepository) *TaskService {
	return &TaskService{
		repo: repo,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("service health check: %w", err)
	}
	return nil
}

func (s *TaskService) List(ctx context.Context) ([]task.Task, error) {
	tasks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id int64) (task.Task, error) {
	found, ok, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return task.Task{}, fmt.Errorf("get task: %w", err)
	}
	if !ok {
		logger.Info("Service: task not found", zap.Int64("target_id", id))
		return task.Task{}, NewNotFound(resourceTask, id)
	}
	return found, nil
}

func (s *TaskService) Save(ctx context.Context, draft task.Draft) (task.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return task.Task{}, NewValidationError("title", "must not be blank")
	}

	saved, err := s.repo.Save(ctx, draft)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: task to update not found", zap.Int64("target_id", draft.ID))
			notFound := NewNotFound(resourceTask, draft.ID)
			notFound.Err = err
			return task.Task{}, notFound
		}
		return task.Task{}, fmt.Errorf("save task: %w", err)
	}
	return saved, nil
}

// Delete looks the task up first so that an unknown id is reported as not
// found. The lookup and the removal are not atomic.
func (s *TaskService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, existing); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	logger.Info("Service: task deleted", zap.Int64("task_id", id))
	return nil
}
