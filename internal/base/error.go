package base

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPage reports an unknown page id on load or delete.
	ErrInvalidPage = errors.New("invalid page")
	// ErrIndexOutOfBounds reports an unknown id on an overwrite-style store.
	ErrIndexOutOfBounds = errors.New("index out of bounds")
	// ErrIllegalState reports corrupted or unreadable persisted state and
	// I/O failures in the middle of an operation.
	ErrIllegalState = errors.New("illegal state")
	// ErrIllegalArgument reports a bad argument such as an oversized string
	// or a missing construction parameter.
	ErrIllegalArgument = errors.New("illegal argument")

	// ErrShortBuffer reports a decode that ran past the end of its input.
	ErrShortBuffer = fmt.Errorf("%w: short buffer", ErrIllegalState)
	ErrKeyNotFound = errors.New("key not found")
)
