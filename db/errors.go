package db

import "errors"

var (
	// ErrNotFound is returned when a single required row does not exist.
	ErrNotFound = errors.New("not found")
)
