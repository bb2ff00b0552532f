package classfile

import (
	"errors"
)

// ---------------------------------------------------------------------------
// Error kinds
// ---------------------------------------------------------------------------

// Every failure returned by this package wraps exactly one of these sentinel
// errors, so callers can classify failures with errors.Is while the wrapped
// message carries the offending offset, pool index, or label.
var (
	ErrTruncatedInput     = errors.New("truncated input")
	ErrTrailingBytes      = errors.New("trailing bytes after class structure")
	ErrInvalidMagic       = errors.New("invalid class file magic")
	ErrUnsupportedVersion = errors.New("unsupported class file version")
	ErrInvalidPoolRef     = errors.New("invalid constant pool reference")
	ErrUnknownOpcode      = errors.New("unknown opcode")
	ErrInvalidJumpTarget  = errors.New("invalid jump target")
	ErrInvalidDescriptor  = errors.New("invalid descriptor")
	ErrStackFrameMismatch = errors.New("stack frame mismatch")
	ErrDepthLimitExceeded = errors.New("nesting depth limit exceeded")
)
