package storage

import "github.com/xzrunner/playdb/internal/base"

// SyncMode controls whether Flush fsyncs the index and data files.
type SyncMode int

const (
	// SyncEveryFlush fsyncs both files at the end of every Flush.
	// - Flushed bookkeeping survives power failure
	// - Use for: anything that is reopened later
	SyncEveryFlush SyncMode = iota

	// SyncOff leaves durability to the operating system.
	// - Flushed bookkeeping may be lost on power failure
	// - Use for: tests, throwaway stores
	SyncOff
)

// Options configures a Disk store.
type Options struct {
	pageSize  int  // Page size for a new store. Ignored when reopening.
	overwrite bool // Discard existing files and create a new store.
	syncMode  SyncMode
	logger    base.Logger
}

func defaultOptions() Options {
	return Options{
		syncMode: SyncEveryFlush,
		logger:   base.DiscardLogger{},
	}
}

// Option configures Disk options using the functional options pattern.
type Option func(*Options)

// WithPageSize sets the page size used when a new store is created. An
// existing store always keeps the page size it was created with.
func WithPageSize(size int) Option {
	return func(opts *Options) {
		opts.pageSize = size
	}
}

// WithOverwrite truncates existing index and data files and starts a new
// store. WithPageSize is required alongside it.
func WithOverwrite() Option {
	return func(opts *Options) {
		opts.overwrite = true
	}
}

// WithSyncMode selects the fsync behavior of Flush.
func WithSyncMode(mode SyncMode) Option {
	return func(opts *Options) {
		opts.syncMode = mode
	}
}

// WithLogger sets the logger used for open, flush and close events.
func WithLogger(logger Logger) Option {
	return func(opts *Options) {
		if logger == nil {
			logger = base.DiscardLogger{}
		}
		opts.logger = logger
	}
}
