package playdb

import "github.com/xzrunner/playdb/internal/base"

// Logger interface matches the implementation of slog.
// See pkg logger for adapters implementations for common logger libraries.
type Logger = base.Logger

// DiscardLogger is the default logger that compiles to a no-op
type DiscardLogger = base.DiscardLogger
