package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"todoTracker/internal/logger"

	"go.uber.org/zap"
)

const (
	templateIndex  = "index"
	templateForm   = "form"
	templateDetail = "detail"
	templateError  = "error"

	internalErrorMessage = "Something went wrong. Please try again later."
	listPath             = "/todos"
)

// render buffers the page so that a failing template never leaves a half
// written 200 behind.
func (h *TaskHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, model map[string]any) {
	if err := r.Context().Err(); err != nil {
		logger.Warn("HTTP: client went away, rendering abandoned",
			zap.String("template", name),
			zap.Error(err))
		return
	}

	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, name, model); err != nil {
		logger.Error("HTTP: template failure", err, zap.String("template", name))
		if name == templateError {
			http.Error(w, internalErrorMessage, http.StatusInternalServerError)
			return
		}
		h.renderError(w, r, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("HTTP: failed to write response", zap.Error(err))
	}
}

func (h *TaskHandler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, templateError, map[string]any{
		"status": status,
		"error":  message,
	})
}

func redirectToList(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, listPath, http.StatusSeeOther)
}

func responseWithJSON(w http.ResponseWriter, code int, payload map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("HTTP: failed to encode JSON", zap.Error(err))
	}
}
