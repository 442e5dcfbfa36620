package handlers_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"todoTracker/internal/handlers"
	"todoTracker/internal/models/task"
	"todoTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService is a testify mock of the service layer.
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) List(ctx context.Context) ([]task.Task, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]task.Task), args.Error(1)
}

func (m *MockTaskService) Get(ctx context.Context, id int64) (task.Task, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(task.Task), args.Error(1)
}

func (m *MockTaskService) Save(ctx context.Context, draft task.Draft) (task.Task, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(task.Task), args.Error(1)
}

func (m *MockTaskService) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ handlers.Service = (*MockTaskService)(nil)

type renderCall struct {
	name  string
	model map[string]any
}

// recordingRenderer remembers every render call and writes the template name.
type recordingRenderer struct {
	mu     sync.Mutex
	calls  []renderCall
	failOn string
}

func (r *recordingRenderer) Render(w io.Writer, name string, model map[string]any) error {
	r.mu.Lock()
	r.calls = append(r.calls, renderCall{name: name, model: model})
	r.mu.Unlock()

	if name == r.failOn {
		return errors.New("template exploded")
	}
	_, err := fmt.Fprintf(w, "<p>%s</p>", name)
	return err
}

func (r *recordingRenderer) last(t *testing.T) renderCall {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls, "nothing was rendered")
	return r.calls[len(r.calls)-1]
}

func newRouter(svc handlers.Service, renderer *recordingRenderer) http.Handler {
	r := chi.NewRouter()
	handlers.NewTaskHandler(svc, renderer).Register(r)
	return r
}

func postForm(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("service unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			newRouter(mockService, &recordingRenderer{}).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "todo-tracker")
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_Root(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	newRouter(new(MockTaskService), &recordingRenderer{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/todos", w.Header().Get("Location"))
}

func TestTaskHandler_ListTodos(t *testing.T) {
	now := time.Now().UTC()
	stored := []task.Task{{ID: 1, Title: "Buy milk", CreatedAt: now, UpdatedAt: now}}

	tests := []struct {
		name             string
		setupMock        func(*MockTaskService)
		expectedStatus   int
		expectedTemplate string
	}{
		{
			name: "success",
			setupMock: func(m *MockTaskService) {
				m.On("List", mock.Anything).Return(stored, nil)
			},
			expectedStatus:   http.StatusOK,
			expectedTemplate: "index",
		},
		{
			name: "error - storage failure",
			setupMock: func(m *MockTaskService) {
				m.On("List", mock.Anything).Return(nil, errors.New("connection refused"))
			},
			expectedStatus:   http.StatusInternalServerError,
			expectedTemplate: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			renderer := &recordingRenderer{}

			req := httptest.NewRequest(http.MethodGet, "/todos", nil)
			w := httptest.NewRecorder()
			newRouter(mockService, renderer).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

			call := renderer.last(t)
			assert.Equal(t, tt.expectedTemplate, call.name)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, stored, call.model["todos"])
				assert.Len(t, call.model, 1)
			} else {
				assert.NotContains(t, call.model["error"], "connection refused")
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_NewTodoForm(t *testing.T) {
	renderer := &recordingRenderer{}

	req := httptest.NewRequest(http.MethodGet, "/todos/new", nil)
	w := httptest.NewRecorder()
	newRouter(new(MockTaskService), renderer).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	call := renderer.last(t)
	assert.Equal(t, "form", call.name)
	assert.Equal(t, task.Draft{}, call.model["todo"])
	assert.Len(t, call.model, 1)
}

func TestTaskHandler_CreateTodo(t *testing.T) {
	saved := task.Task{ID: 1, Title: "Buy milk"}

	tests := []struct {
		name             string
		body             string
		contentType      string
		setupMock        func(*MockTaskService)
		expectedStatus   int
		expectedTemplate string
	}{
		{
			name:        "success - create task",
			body:        "title=Buy+milk&done=false",
			contentType: "application/x-www-form-urlencoded",
			setupMock: func(m *MockTaskService) {
				m.On("Save", mock.Anything, task.Draft{Title: "Buy milk"}).Return(saved, nil)
			},
			expectedStatus: http.StatusSeeOther,
		},
		{
			name:        "success - update task",
			body:        "id=1&title=Buy+milk&description=two+liters&done=on",
			contentType: "application/x-www-form-urlencoded; charset=utf-8",
			setupMock: func(m *MockTaskService) {
				m.On("Save", mock.Anything, mock.MatchedBy(func(d task.Draft) bool {
					return d.ID == 1 && d.Done && d.DescriptionText() == "two liters"
				})).Return(saved, nil)
			},
			expectedStatus: http.StatusSeeOther,
		},
		{
			name:        "error - blank title re-renders the form",
			body:        "title=&done=false",
			contentType: "application/x-www-form-urlencoded",
			setupMock: func(m *MockTaskService) {
				m.On("Save", mock.Anything, task.Draft{}).
					Return(task.Task{}, service.NewValidationError("title", "must not be blank"))
			},
			expectedStatus:   http.StatusBadRequest,
			expectedTemplate: "form",
		},
		{
			name:             "error - malformed id",
			body:             "id=abc&title=Buy+milk",
			contentType:      "application/x-www-form-urlencoded",
			setupMock:        func(m *MockTaskService) {},
			expectedStatus:   http.StatusBadRequest,
			expectedTemplate: "error",
		},
		{
			name:             "error - malformed done",
			body:             "title=Buy+milk&done=sometimes",
			contentType:      "application/x-www-form-urlencoded",
			setupMock:        func(m *MockTaskService) {},
			expectedStatus:   http.StatusBadRequest,
			expectedTemplate: "error",
		},
		{
			name:             "error - unsupported content type",
			body:             `{"title":"Buy milk"}`,
			contentType:      "application/json",
			setupMock:        func(m *MockTaskService) {},
			expectedStatus:   http.StatusUnsupportedMediaType,
			expectedTemplate: "error",
		},
		{
			name:        "error - update of a missing task",
			body:        "id=77&title=ghost",
			contentType: "application/x-www-form-urlencoded",
			setupMock: func(m *MockTaskService) {
				m.On("Save", mock.Anything, mock.Anything).Return(task.Task{}, service.NewNotFound("task", 77))
			},
			expectedStatus:   http.StatusNotFound,
			expectedTemplate: "error",
		},
		{
			name:        "error - storage failure",
			body:        "title=Buy+milk",
			contentType: "application/x-www-form-urlencoded",
			setupMock: func(m *MockTaskService) {
				m.On("Save", mock.Anything, mock.Anything).Return(task.Task{}, errors.New("disk full"))
			},
			expectedStatus:   http.StatusInternalServerError,
			expectedTemplate: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			renderer := &recordingRenderer{}

			req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			newRouter(mockService, renderer).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusSeeOther {
				assert.Equal(t, "/todos", w.Header().Get("Location"))
				assert.Empty(t, w.Body.String())
				assert.Empty(t, renderer.calls)
			} else {
				assert.Equal(t, tt.expectedTemplate, renderer.last(t).name)
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_CreateTodo_ValidationModel(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("Save", mock.Anything, mock.Anything).
		Return(task.Task{}, service.NewValidationError("title", "must not be blank"))
	renderer := &recordingRenderer{}

	w := httptest.NewRecorder()
	newRouter(mockService, renderer).ServeHTTP(w, postForm("/todos", "title=+++&description=keep+me"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	call := renderer.last(t)
	assert.Equal(t, "form", call.name)
	draft, ok := call.model["todo"].(task.Draft)
	require.True(t, ok)
	assert.Equal(t, "keep me", draft.DescriptionText())
	assert.Contains(t, call.model["error"], "title")
}

func TestTaskHandler_GetTodo(t *testing.T) {
	found := task.Task{ID: 1, Title: "Buy milk"}

	tests := []struct {
		name             string
		path             string
		setupMock        func(*MockTaskService)
		expectedStatus   int
		expectedTemplate string
	}{
		{
			name: "success",
			path: "/todos/1",
			setupMock: func(m *MockTaskService) {
				m.On("Get", mock.Anything, int64(1)).Return(found, nil)
			},
			expectedStatus:   http.StatusOK,
			expectedTemplate: "detail",
		},
		{
			name:             "error - non numeric id",
			path:             "/todos/abc",
			setupMock:        func(m *MockTaskService) {},
			expectedStatus:   http.StatusBadRequest,
			expectedTemplate: "error",
		},
		{
			name:             "error - zero id",
			path:             "/todos/0",
			setupMock:        func(m *MockTaskService) {},
			expectedStatus:   http.StatusBadRequest,
			expectedTemplate: "error",
		},
		{
			name: "error - not found",
			path: "/todos/2",
			setupMock: func(m *MockTaskService) {
				m.On("Get", mock.Anything, int64(2)).Return(task.Task{}, service.NewNotFound("task", 2))
			},
			expectedStatus:   http.StatusNotFound,
			expectedTemplate: "error",
		},
		{
			name: "error - storage failure",
			path: "/todos/3",
			setupMock: func(m *MockTaskService) {
				m.On("Get", mock.Anything, int64(3)).Return(task.Task{}, errors.New("timeout"))
			},
			expectedStatus:   http.StatusInternalServerError,
			expectedTemplate: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)
			renderer := &recordingRenderer{}

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()
			newRouter(mockService, renderer).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			call := renderer.last(t)
			assert.Equal(t, tt.expectedTemplate, call.name)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, found, call.model["todo"])
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_DeleteTodo(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success",
			path: "/todos/1/delete",
			setupMock: func(m *MockTaskService) {
				m.On("Delete", mock.Anything, int64(1)).Return(nil)
			},
			expectedStatus: http.StatusSeeOther,
		},
		{
			name:           "error - non numeric id",
			path:           "/todos/abc/delete",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "error - not found",
			path: "/todos/999/delete",
			setupMock: func(m *MockTaskService) {
				m.On("Delete", mock.Anything, int64(999)).Return(service.NewNotFound("task", 999))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "error - storage failure",
			path: "/todos/5/delete",
			setupMock: func(m *MockTaskService) {
				m.On("Delete", mock.Anything, int64(5)).Return(errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			w := httptest.NewRecorder()
			newRouter(mockService, &recordingRenderer{}).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusSeeOther {
				assert.Equal(t, "/todos", w.Header().Get("Location"))
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_DeleteTodo_RequiresPost(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/todos/1/delete", nil)
	w := httptest.NewRecorder()
	newRouter(new(MockTaskService), &recordingRenderer{}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestTaskHandler_TemplateFailure(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("List", mock.Anything).Return([]task.Task{}, nil)
	renderer := &recordingRenderer{failOn: "index"}

	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	w := httptest.NewRecorder()
	newRouter(mockService, renderer).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", renderer.last(t).name)
	assert.NotContains(t, w.Body.String(), "template exploded")
}

func TestTaskHandler_ErrorTemplateFailure(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("Get", mock.Anything, int64(1)).Return(task.Task{}, service.NewNotFound("task", 1))
	renderer := &recordingRenderer{failOn: "error"}

	req := httptest.NewRequest(http.MethodGet, "/todos/1", nil)
	w := httptest.NewRecorder()
	newRouter(mockService, renderer).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "template exploded")
}

func TestTaskHandler_ClientGone(t *testing.T) {
	mockService := new(MockTaskService)
	mockService.On("List", mock.Anything).Return([]task.Task{}, nil)
	renderer := &recordingRenderer{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/todos", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	newRouter(mockService, renderer).ServeHTTP(w, req)

	assert.Empty(t, renderer.calls)
	assert.Empty(t, w.Body.String())
	mockService.AssertExpectations(t)
}
