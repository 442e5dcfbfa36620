package repository

import "errors"

// ErrNotFound is returned by Save when an update targets a row that does not exist.
var ErrNotFound = errors.New("task not found")
