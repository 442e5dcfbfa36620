package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"todoTracker/internal/config"
	"todoTracker/internal/handlers"
	"todoTracker/internal/logger"
	"todoTracker/internal/middleware"
	"todoTracker/internal/migrations"
	"todoTracker/internal/repository/task/inmemory"
	"todoTracker/internal/repository/task/postgres"
	"todoTracker/internal/service"
	"todoTracker/internal/view"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository
	service    handlers.Service
	shutdowns  []func() // run in reverse order by Close
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init wires store, service, handler and router. Call Close on error to
// release whatever was acquired.
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: flushing logs")
		logger.Sync()
	})

	repository, err := a.initRepository(ctx)
	if err != nil {
		return err
	}
	a.repository = repository
	a.service = service.NewTaskService(repository)

	renderer, err := view.New()
	if err != nil {
		return fmt.Errorf("init templates: %w", err)
	}

	a.router = a.newRouter(handlers.NewTaskHandler(a.service, renderer))
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           otelhttp.NewHandler(a.router, "todo-tracker"),
		ReadHeaderTimeout: a.config.Server.ReadHeaderTimeout,
	}

	logger.Info("App: initialized",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return nil
}

func (a *App) initRepository(ctx context.Context) (service.TaskRepository, error) {
	switch a.config.Repository.Type {
	case config.RepositoryInMemory:
		logger.Warn("App: using in-memory repository, data is lost on restart")
		return inmemory.NewTaskStorage(), nil

	case config.RepositoryPostgres:
		dsn, err := a.config.Database.DSN()
		if err != nil {
			return nil, err
		}

		if a.config.Database.Migrate {
			if err := migrations.Up(dsn); err != nil {
				return nil, fmt.Errorf("migrate database: %w", err)
			}
		}

		storage, err := postgres.New(ctx, dsn,
			postgres.WithMaxConns(int32(a.config.Database.MaxConnections)),
			postgres.WithMinConns(int32(a.config.Database.MinConnections)),
			postgres.WithMaxConnIdleTime(a.config.Database.IdleTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.shutdowns = append(a.shutdowns, storage.Close)
		return storage, nil
	}

	return nil, fmt.Errorf("unknown repository type %q", a.config.Repository.Type)
}

func (a *App) newRouter(taskHandler *handlers.TaskHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	if origins := a.config.Server.CORSOrigins; len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	taskHandler.Register(r)
	return r
}

// Handler returns the fully wrapped HTTP handler. Init must have succeeded.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled or the listener fails, then shuts the
// server down gracefully and runs the shutdown hooks.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: server started", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("App: shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Close()
	return err
}

func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
