package playdb

import "github.com/xzrunner/playdb/storage"

// Options configures how a BTree is opened.
type Options struct {
	degree   int            // Branching degree for a new tree. 0 means reopen.
	headerID storage.PageID // Where an existing tree keeps its header.
	logger   Logger
}

func defaultOptions() Options {
	return Options{
		headerID: 0,
		logger:   DiscardLogger{},
	}
}

// Option configures BTree options using the functional options pattern.
type Option func(*Options)

// WithDegree creates a new, empty tree with the given minimum degree. A node
// holds between degree-1 and 2*degree-1 entries. Without this option Open
// reopens an existing tree and recovers its degree from the header.
func WithDegree(degree int) Option {
	return func(opts *Options) {
		opts.degree = degree
	}
}

// WithHeaderID sets the page id of the header record read when reopening.
// A tree created in an empty store always has its header at page 0.
func WithHeaderID(id storage.PageID) Option {
	return func(opts *Options) {
		opts.headerID = id
	}
}

// WithLogger sets the logger used for open and root growth events.
func WithLogger(logger Logger) Option {
	return func(opts *Options) {
		if logger == nil {
			logger = DiscardLogger{}
		}
		opts.logger = logger
	}
}
