package store

import "errors"

var (
	// ErrNotFound indicates a referenced document is absent.
	ErrNotFound = errors.New("store: document not found")
	// ErrLocked indicates the database file is owned by another process.
	ErrLocked = errors.New("store: database locked by another process")
)
