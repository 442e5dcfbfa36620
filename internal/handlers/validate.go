package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func checkContentType(r *http.Request, targets ...string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	for _, target := range targets {
		if mediaType == target {
			return true
		}
	}
	return false
}

func parseID(r *http.Request) (int64, error) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not a number", idParam)
	}
	if id <= 0 {
		return 0, fmt.Errorf("id %d must be positive", id)
	}
	return id, nil
}
