package storage

import (
	"errors"
	"fmt"

	"github.com/renderinc/brewblog/internal/sync"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")

	// ErrIndexSync matches any *IndexSyncError.
	ErrIndexSync = errors.New("search index sync failed")
)

// IndexSyncError is returned when a transaction committed but replaying it
// against the search index failed. The relational write stands; the index
// catches up on the next reindex.
type IndexSyncError struct {
	Stats *sync.Stats
	Err   error
}

func (e *IndexSyncError) Error() string {
	return fmt.Sprintf("committed, but search index sync failed: %v", e.Err)
}

func (e *IndexSyncError) Unwrap() error {
	return e.Err
}

func (e *IndexSyncError) Is(target error) bool {
	return target == ErrIndexSync
}
