package task

import "strings"

type DraftOption func(*Draft)

func NewDraft(options ...DraftOption) Draft {
	draft := Draft{}
	for _, opt := range options {
		if opt != nil {
			opt(&draft)
		}
	}
	return draft
}

func WithID(id int64) DraftOption {
	if id <= 0 {
		return nil
	}
	return func(draft *Draft) {
		draft.ID = id
	}
}

func WithTitle(title string) DraftOption {
	return func(draft *Draft) {
		draft.Title = strings.TrimSpace(title)
	}
}

// blank descriptions are stored as NULL
func WithDescription(description string) DraftOption {
	if strings.TrimSpace(description) == "" {
		return nil
	}
	return func(draft *Draft) {
		draft.Description = &description
	}
}

func WithDone(done bool) DraftOption {
	return func(draft *Draft) {
		draft.Done = done
	}
}
