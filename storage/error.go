package storage

import "github.com/xzrunner/playdb/internal/base"

//goland:noinspection GoUnusedGlobalVariable
var (
	ErrInvalidPage      = base.ErrInvalidPage
	ErrIndexOutOfBounds = base.ErrIndexOutOfBounds
	ErrIllegalState     = base.ErrIllegalState
	ErrIllegalArgument  = base.ErrIllegalArgument
)
