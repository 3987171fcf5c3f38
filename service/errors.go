package service

import "errors"

var (
	// ErrNoChange indicates committed content equals the current latest
	// version; nothing is written.
	ErrNoChange = errors.New("service: content identical to last version")
	// ErrNotText indicates reconstructed bytes are not valid UTF-8 where
	// a text caller requires it.
	ErrNotText = errors.New("service: content is not valid UTF-8 text")
	// ErrTimestampExists indicates the document already has a patch at
	// the requested timestamp.
	ErrTimestampExists = errors.New("service: patch timestamp already exists for document")
)
