package inmemory

import (
	"context"
	"sync"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	repo "todoTracker/internal/repository"

	"go.uber.org/zap"
)

type TaskStorage struct {
	storage map[int64]task.Task
	mtx     *sync.RWMutex
	ids     []int64
	lastID  int64
	now     func() time.Time
}

func NewTaskStorage() *TaskStorage {
	return NewTaskStorageWithClock(time.Now)
}

func NewTaskStorageWithClock(now func() time.Time) *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []int64{},
		now:     now,
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: in-memory storage is healthy")
	return nil
}

func (s *TaskStorage) FindAll(ctx context.Context) ([]task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]task.Task, 0, len(s.ids))
	for _, id := range s.ids {
		res = append(res, detach(s.storage[id]))
	}
	return res, nil
}

func (s *TaskStorage) FindByID(ctx context.Context, id int64) (task.Task, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	return detach(taskToGet), ok, nil
}

func (s *TaskStorage) Save(ctx context.Context, draft task.Draft) (task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := s.now().UTC()

	if draft.IsNew() {
		s.lastID++
		saved := task.Task{
			ID:          s.lastID,
			Title:       draft.Title,
			Description: cloneString(draft.Description),
			Done:        draft.Done,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.storage[saved.ID] = saved
		s.ids = append(s.ids, saved.ID)
		return detach(saved), nil
	}

	existing, ok := s.storage[draft.ID]
	if !ok {
		logger.Warn("Repository: update of a missing task", zap.Int64("task_id", draft.ID))
		return task.Task{}, repo.ErrNotFound
	}

	// the clock may step back, updated_at must not
	if now.Before(existing.UpdatedAt) {
		now = existing.UpdatedAt
	}

	existing.Title = draft.Title
	existing.Description = cloneString(draft.Description)
	existing.Done = draft.Done
	existing.UpdatedAt = now
	s.storage[existing.ID] = existing

	return detach(existing), nil
}

func (s *TaskStorage) Delete(ctx context.Context, taskToDelete task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToDelete.ID]; !ok {
		return nil
	}

	delete(s.storage, taskToDelete.ID)
	for ind, val := range s.ids {
		if val == taskToDelete.ID {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

// detach returns t with its own description, so callers never alias stored rows.
func detach(t task.Task) task.Task {
	t.Description = cloneString(t.Description)
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
