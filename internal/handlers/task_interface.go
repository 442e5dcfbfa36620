package handlers

import (
	"context"
	"todoTracker/internal/models/task"
)

type Service interface {
	HealthCheck(context.Context) error
	List(context.Context) ([]task.Task, error)
	Get(context.Context, int64) (task.Task, error)
	Save(context.Context, task.Draft) (task.Task, error)
	Delete(context.Context, int64) error
}
