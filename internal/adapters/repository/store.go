// Package repository stores prediction records and the identities reports are addressed to.
package repository

import (
	"context"

	"github.com/okian/heartfuse/internal/domain/model"
)

// Backend names a Store implementation.
type Backend string

// Supported backends.
const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendMySQL    Backend = "mysql"
)

// Store provides read/write access to submissions and users.
type Store interface {
	// PutUser creates or replaces a user identity.
	PutUser(ctx context.Context, u model.User) error
	// User returns ErrNotFound for unknown IDs.
	User(ctx context.Context, id string) (model.User, error)

	// AddRecord stores r, assigning an ID when empty and canonicalizing the
	// modality. The stored record is returned. IDs are unique per user; a
	// second record with the same user and ID fails with ErrDuplicate.
	AddRecord(ctx context.Context, r model.PredictionRecord) (model.PredictionRecord, error)
	// Records returns a user's records newest first; ties go to the most
	// recent insertion.
	Records(ctx context.Context, userID string) ([]model.PredictionRecord, error)
	// Record returns ErrNotFound when the user has no record with that ID.
	Record(ctx context.Context, userID, id string) (model.PredictionRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	Close() error
}

// Open builds the Store for backend. dsn is ignored by the memory backend.
func Open(ctx context.Context, backend Backend, dsn string, opts ...Option) (Store, error) {
	if backend == BackendMemory || backend == "" {
		return NewMemoryStore(ctx, opts...), nil
	}
	return NewSQLStore(ctx, backend, dsn, opts...)
}
