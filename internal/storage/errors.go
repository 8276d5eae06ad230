package storage

import "errors"

// Sentinel errors shared by the snapshot stores.
var (
	// ErrNotFound reports that no snapshot matches the query.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey reports an insert for a (key, slot) pair that is
	// already recorded. Snapshots are append-only; callers re-syncing
	// the same slot treat this as success.
	ErrDuplicateKey = errors.New("duplicate key: snapshot already recorded for this slot")

	// ErrInvalidInput reports a snapshot rejected by validation before
	// it reaches the backend.
	ErrInvalidInput = errors.New("invalid input")
)
