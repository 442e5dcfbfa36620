package dto

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"todoTracker/internal/models/task"
)

var ErrInvalidForm = errors.New("invalid form")

// TaskForm is the urlencoded body posted by the todo form.
type TaskForm struct {
	ID          int64
	Title       string
	Description string
	Done        bool
}

func ParseTaskForm(values url.Values) (TaskForm, error) {
	form := TaskForm{
		Title:       values.Get("title"),
		Description: values.Get("description"),
	}

	if raw := strings.TrimSpace(values.Get("id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return TaskForm{}, fmt.Errorf("%w: id %q is not a positive integer", ErrInvalidForm, raw)
		}
		form.ID = id
	}

	// a hidden "false" input may precede the checkbox value
	for _, raw := range values["done"] {
		done, err := parseCheckbox(raw)
		if err != nil {
			return TaskForm{}, fmt.Errorf("%w: done %q is not a boolean", ErrInvalidForm, raw)
		}
		form.Done = form.Done || done
	}

	return form, nil
}

func parseCheckbox(raw string) (bool, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "":
		return false, nil
	case "on":
		return true, nil
	}
	return strconv.ParseBool(raw)
}

func (f TaskForm) ToDraft() task.Draft {
	return task.NewDraft(
		task.WithID(f.ID),
		task.WithTitle(f.Title),
		task.WithDescription(f.Description),
		task.WithDone(f.Done),
	)
}
