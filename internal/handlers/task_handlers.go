package handlers

import (
	"net/http"
	"time"
	"todoTracker/internal/handlers/dto"
	"todoTracker/internal/logger"
	"todoTracker/internal/models/task"
	"todoTracker/internal/service"
	"todoTracker/internal/view"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxFormBytes = 1 << 20

type TaskHandler struct {
	TaskService Service
	Renderer    view.Renderer
}

func NewTaskHandler(taskService Service, renderer view.Renderer) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
		Renderer:    renderer,
	}
}

// Register adds the handler routes to r.
func (h *TaskHandler) Register(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.HealthCheck)

	r.Route("/todos", func(r chi.Router) {
		r.Get("/", h.ListTodos)      // GET /todos
		r.Post("/", h.CreateTodo)    // POST /todos
		r.Get("/new", h.NewTodoForm) // GET /todos/new

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTodo)           // GET /todos/{id}
			r.Post("/delete", h.DeleteTodo) // POST /todos/{id}/delete
		})
	})
}

func (h *TaskHandler) Root(w http.ResponseWriter, r *http.Request) {
	redirectToList(w, r)
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: health check")

	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: health check failed", err)
		responseWithJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":  "unavailable",
			"service": "todo-tracker",
		})
		return
	}

	responseWithJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "todo-tracker",
	})
}

func (h *TaskHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	todos, err := h.TaskService.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "list_todos")
		return
	}

	h.render(w, r, http.StatusOK, templateIndex, map[string]any{"todos": todos})
}

func (h *TaskHandler) NewTodoForm(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	h.render(w, r, http.StatusOK, templateForm, map[string]any{"todo": task.NewDraft()})
}

func (h *TaskHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if r.Header.Get("Content-Type") != "" && !checkContentType(r, "application/x-www-form-urlencoded", "multipart/form-data") {
		logger.Warn("HTTP: unsupported content type",
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		h.renderError(w, r, http.StatusUnsupportedMediaType, "The form must be submitted as application/x-www-form-urlencoded.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var err error
	if checkContentType(r, "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		logger.Warn("HTTP: failed to parse form", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		h.renderError(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}

	form, err := dto.ParseTaskForm(r.PostForm)
	if err != nil {
		logger.Warn("HTTP: invalid form", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		h.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	draft := form.ToDraft()
	saved, err := h.TaskService.Save(r.Context(), draft)
	if err != nil {
		if businessErr, ok := service.AsBusinessError(err, service.CodeValidationError); ok {
			logger.Warn("HTTP: validation error",
				zap.Any("details", businessErr.Details),
				zap.String("client_ip", r.RemoteAddr))

			h.render(w, r, http.StatusBadRequest, templateForm, map[string]any{
				"todo":  draft,
				"error": businessErr.Message,
			})
			return
		}
		h.handleServiceError(w, r, err, "save_todo")
		return
	}

	logger.Info("HTTP_OUT: todo saved",
		zap.Int64("task_id", saved.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusSeeOther))

	redirectToList(w, r)
}

func (h *TaskHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: invalid id", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		h.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	todo, err := h.TaskService.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err, "get_todo")
		return
	}

	h.render(w, r, http.StatusOK, templateDetail, map[string]any{"todo": todo})
}

func (h *TaskHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	id, err := parseID(r)
	if err != nil {
		logger.Warn("HTTP: invalid id", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		h.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.TaskService.Delete(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err, "delete_todo")
		return
	}

	logger.Info("HTTP_OUT: todo deleted",
		zap.Int64("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusSeeOther))

	redirectToList(w, r)
}
