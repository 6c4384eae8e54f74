// Package persistence defines the bulk load / bulk replace contract between the
// domain store and a relational backend, plus the row codec shared by backends.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/macrotrack/internal/diary"
)

// Gateway loads every collection at startup and writes back dirty collections.
type Gateway interface {
	LoadAll(ctx context.Context) (*diary.Snapshot, error)
	// Sync replaces the dirty collections in priority order, one transaction
	// per collection. The first failure aborts the remaining collections.
	Sync(ctx context.Context, dirty diary.DirtySet) error
	Ping(ctx context.Context) error
	Close() error
}

// ConnectionError means the backend could not be reached at all.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: connection: %s", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SyncError names the collection whose write failed.
type SyncError struct {
	Collection diary.Collection
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %s", e.Collection, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// OrDefault returns the built-in default snapshot when nothing was stored yet.
func OrDefault(s *diary.Snapshot) *diary.Snapshot {
	if s == nil || s.IsEmpty() {
		return diary.DefaultSnapshot()
	}
	return s
}
