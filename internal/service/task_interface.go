package service

import (
	"context"
	"todoTracker/internal/models/task"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	FindAll(context.Context) ([]task.Task, error)
	FindByID(context.Context, int64) (task.Task, bool, error)
	Save(context.Context, task.Draft) (task.Task, error)
	Delete(context.Context, task.Task) error
}
