package progress

import (
	"context"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/domain/shared"
)

// Repository defines the persistence contract for progress records.
// The engine itself performs no I/O; command handlers load a record, run the
// pure pipeline over it, and save the result. Implementations live in the
// infrastructure layer.
type Repository interface {
	// Load returns the record for a key, or shared.ErrProgressNotFound.
	Load(ctx context.Context, key shared.ProgressKey) (*Record, error)

	// Save persists a record. Implementations should reject stale writes
	// using Record.Version (shared.ErrOptimisticLock).
	Save(ctx context.Context, record *Record) error

	// ListKeys returns every stored progress key. Used by the worker sweep.
	ListKeys(ctx context.Context) ([]shared.ProgressKey, error)
}

// KeyLocker serializes pipeline runs per progress key. The engine assumes
// at-most-one in-flight update per key; the caller acquires the key's lock
// for the duration of the load-transform-save cycle.
type KeyLocker interface {
	// Acquire takes the lock for a key, returning an unlock function.
	// Returns shared.ErrKeyLocked if another writer holds it.
	Acquire(ctx context.Context, key shared.ProgressKey) (func(), error)
}
