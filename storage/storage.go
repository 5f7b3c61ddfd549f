// Package storage provides page-addressed blob stores for the playdb B-tree.
//
// A Manager maps integer page identifiers to opaque byte records. Disk is the
// persistent implementation: it splits records into fixed-size pages, reuses
// freed pages lowest-first and persists its bookkeeping on Flush. Memory is a
// non-persistent implementation used by tests and demos.
//
// None of the stores synchronize internally. A store must be owned by one
// goroutine at a time or guarded by a caller-held lock.
package storage

import "github.com/xzrunner/playdb/internal/base"

// PageID identifies a record inside a Manager.
type PageID int32

// NewPage asks Store to allocate a fresh identity for the record.
const NewPage PageID = -1

// Manager is a generic blob store. It imposes no structure on the bytes.
type Manager interface {
	// Load returns a copy of the record stored under id, or ErrInvalidPage.
	Load(id PageID) ([]byte, error)
	// Store writes data. With id == NewPage a fresh identity is allocated
	// and returned; otherwise the record under id is overwritten in place
	// and id is returned.
	Store(id PageID, data []byte) (PageID, error)
	// Delete releases the record under id, or returns ErrInvalidPage.
	Delete(id PageID) error
}

// Logger is the logging interface used by the stores. *slog.Logger
// satisfies it; see package logger for zap and logrus adapters.
type Logger = base.Logger
