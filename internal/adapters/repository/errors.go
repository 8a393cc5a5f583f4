package repository

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a unique constraint violation, typically a second
	// artist row for the same spotify id. The caller may retry the unit of work.
	ErrConflict = errors.New("unique constraint conflict")
	ErrClosed   = errors.New("store closed")
)
