package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnsupportedBackend = errors.New("unsupported store backend")
	ErrInvalidRecord      = errors.New("invalid record")
	ErrDuplicate          = errors.New("record already stored")
)
