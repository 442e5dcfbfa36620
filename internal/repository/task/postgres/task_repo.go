package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	repo "todoTracker/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

const taskColumns = `id, title, description, done, created_at, updated_at`

type Storage struct {
	pool *pgxpool.Pool
}

type Option func(*pgxpool.Config)

func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

func WithMinConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MinConns = n
		}
	}
}

func WithMaxConnIdleTime(d time.Duration) Option {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.MaxConnIdleTime = d
		}
	}
}

func New(ctx context.Context, connString string, options ...Option) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: failed to parse connection config", err)
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	for _, opt := range options {
		opt(config)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: failed to create pool", err)
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Repository: ping failed", err)
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("Repository: connected to PostgreSQL",
		zap.Int32("max_conns", config.MaxConns),
		zap.Int32("min_conns", config.MinConns))
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: closed all PostgreSQL connections")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func warnIfSlow(operation string, start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: slow query", zap.String("operation", operation), zap.Duration("ms", elapsed))
	}
}

func normalize(t task.Task) task.Task {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t
}

func (s *Storage) FindAll(ctx context.Context) ([]task.Task, error) {
	start := time.Now()
	defer warnIfSlow("find_all", start)

	query := `SELECT ` + taskColumns + `
				FROM todos
				ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: failed to list tasks", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, pgx.RowToStructByName[task.Task])
	if err != nil {
		logger.Error("Repository: failed to scan tasks", err)
		return nil, fmt.Errorf("scan tasks: %w", err)
	}

	for i := range tasks {
		tasks[i] = normalize(tasks[i])
	}
	return tasks, nil
}

func (s *Storage) FindByID(ctx context.Context, id int64) (task.Task, bool, error) {
	start := time.Now()
	defer warnIfSlow("find_by_id", start)

	query := `SELECT ` + taskColumns + `
				FROM todos
				WHERE id = $1`

	found, err := s.collectOne(ctx, query, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, false, nil
		}
		logger.Error("Repository: failed to get task", err, zap.Int64("task_id", id))
		return task.Task{}, false, fmt.Errorf("get task %d: %w", id, err)
	}
	return found, true, nil
}

func (s *Storage) Save(ctx context.Context, draft task.Draft) (task.Task, error) {
	if draft.IsNew() {
		return s.insert(ctx, draft)
	}
	return s.update(ctx, draft)
}

func (s *Storage) insert(ctx context.Context, draft task.Draft) (task.Task, error) {
	start := time.Now()
	defer warnIfSlow("insert", start)

	query := `INSERT INTO todos
				(title, description, done, created_at, updated_at)
				VALUES ($1, $2, $3, NOW(), NOW())
				RETURNING ` + taskColumns

	saved, err := s.collectOne(ctx, query, draft.Title, draft.Description, draft.Done)
	if err != nil {
		logger.Error("Repository: failed to insert task", err, zap.Duration("ms", time.Since(start)))
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return saved, nil
}

func (s *Storage) update(ctx context.Context, draft task.Draft) (task.Task, error) {
	start := time.Now()
	defer warnIfSlow("update", start)

	query := `UPDATE todos
			SET title = $1,
				description = $2,
				done = $3,
				updated_at = GREATEST(NOW(), updated_at)
			WHERE id = $4
			RETURNING ` + taskColumns

	saved, err := s.collectOne(ctx, query, draft.Title, draft.Description, draft.Done, draft.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: update of a missing task", zap.Int64("task_id", draft.ID))
			return task.Task{}, repo.ErrNotFound
		}
		logger.Error("Repository: failed to update task", err, zap.Int64("task_id", draft.ID))
		return task.Task{}, fmt.Errorf("update task %d: %w", draft.ID, err)
	}
	return saved, nil
}

func (s *Storage) Delete(ctx context.Context, taskToDelete task.Task) error {
	start := time.Now()
	defer warnIfSlow("delete", start)

	query := `DELETE FROM todos
				WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, taskToDelete.ID); err != nil {
		logger.Error("Repository: failed to delete task", err, zap.Int64("task_id", taskToDelete.ID))
		return fmt.Errorf("delete task %d: %w", taskToDelete.ID, err)
	}
	return nil
}

func (s *Storage) collectOne(ctx context.Context, query string, args ...any) (task.Task, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return task.Task{}, err
	}

	found, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[task.Task])
	if err != nil {
		return task.Task{}, err
	}
	return normalize(found), nil
}
