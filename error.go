package playdb

import "github.com/xzrunner/playdb/internal/base"

//goland:noinspection GoUnusedGlobalVariable
var (
	ErrKeyNotFound = base.ErrKeyNotFound

	ErrInvalidPage      = base.ErrInvalidPage
	ErrIndexOutOfBounds = base.ErrIndexOutOfBounds
	ErrIllegalState     = base.ErrIllegalState
	ErrIllegalArgument  = base.ErrIllegalArgument
	ErrShortBuffer      = base.ErrShortBuffer
)
