package domain

import "errors"

var (
	// ErrValidation marks caller input that can never succeed as given.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a lookup miss for an entity that is expected to exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a state transition rejected by the current entity state.
	ErrConflict = errors.New("conflict")
)
