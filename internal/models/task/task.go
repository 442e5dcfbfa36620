package task

import "time"

// Draft is a task that has not been persisted with its current contents.
// ID is zero for a task the store has never seen.
type Draft struct {
	ID          int64   `json:"id,omitempty" db:"id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description,omitempty" db:"description"`
	Done        bool    `json:"done" db:"done"`
}

// Task is a persisted todo item. All fields are populated by the store.
type Task struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Done        bool      `json:"done" db:"done"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

func (d Draft) IsNew() bool {
	return d.ID == 0
}

func (d Draft) DescriptionText() string {
	if d.Description == nil {
		return ""
	}
	return *d.Description
}

// Equal reports whether both tasks refer to the same stored row.
func (t Task) Equal(other Task) bool {
	return t.ID != 0 && t.ID == other.ID
}

func (t Task) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// Draft returns the user editable part of t, keeping its id so that saving
// it updates the existing row.
func (t Task) Draft() Draft {
	return Draft{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Done:        t.Done,
	}
}
