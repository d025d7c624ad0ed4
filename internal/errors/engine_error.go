// Package errors provides standardized error types for dataset operations.
// This package defines EngineError for consistent error handling across
// the engine, with operation context, the originating partition and record
// offset, and error wrapping support.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an EngineError.
type Kind int

const (
	KindInternal Kind = iota
	KindSourceUnavailable
	KindTransform
	KindJoinKeyTypeMismatch
	KindCacheCorruption
	KindResultTooLarge
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindSourceUnavailable:
		return "source unavailable"
	case KindTransform:
		return "transform error"
	case KindJoinKeyTypeMismatch:
		return "join key type mismatch"
	case KindCacheCorruption:
		return "cache corruption"
	case KindResultTooLarge:
		return "result too large"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "internal error"
	}
}

// noPosition marks Partition or Offset as not applicable.
const noPosition = -1

// EngineError represents standardized errors across all dataset operations
type EngineError struct {
	Op        string // Operation name (e.g., "Map", "Join", "Collect")
	Kind      Kind   // Error classification
	Partition int    // Originating partition id, -1 if not applicable
	Offset    int    // Record offset within the partition, -1 if not applicable
	Message   string // Human-readable error description
	Cause     error  // Underlying error cause
}

// Error implements the error interface
func (e *EngineError) Error() string {
	msg := fmt.Sprintf("%s operation failed", e.Op)
	if e.Partition >= 0 {
		msg += fmt.Sprintf(" at partition %d", e.Partition)
		if e.Offset >= 0 {
			msg += fmt.Sprintf(" offset %d", e.Offset)
		}
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is(). A target with an
// empty Op and Message matches every error of the same Kind, which is how
// the predefined sentinels below are meant to be used.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	if t.Op != "" && t.Op != e.Op {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// KindOf returns the Kind of the first EngineError in err's chain, or
// KindInternal if there is none.
func KindOf(err error) Kind {
	var ee *EngineError
	if stderrors.As(err, &ee) {
		return ee.Kind
	}
	return KindInternal
}

// Common error constructors for consistent error creation

// NewTransformError reports a user function failure on a specific record.
func NewTransformError(op string, partition, offset int, cause error) *EngineError {
	return &EngineError{
		Op:        op,
		Kind:      KindTransform,
		Partition: partition,
		Offset:    offset,
		Message:   "user function failed",
		Cause:     cause,
	}
}

// NewSourceUnavailableError reports that a source path cannot be read.
func NewSourceUnavailableError(op, path string, cause error) *EngineError {
	return &EngineError{
		Op:        op,
		Kind:      KindSourceUnavailable,
		Partition: noPosition,
		Offset:    noPosition,
		Message:   fmt.Sprintf("cannot read %q", path),
		Cause:     cause,
	}
}

// NewJoinKeyTypeMismatchError reports incomparable key types on the two
// sides of a join.
func NewJoinKeyTypeMismatchError(op, leftType, rightType string) *EngineError {
	return &EngineError{
		Op:        op,
		Kind:      KindJoinKeyTypeMismatch,
		Partition: noPosition,
		Offset:    noPosition,
		Message:   fmt.Sprintf("left key type %s is not comparable with right key type %s", leftType, rightType),
	}
}

// NewCacheCorruptionError reports a cache entry that failed its integrity check.
func NewCacheCorruptionError(op, key, message string) *EngineError {
	return &EngineError{
		Op:        op,
		Kind:      KindCacheCorruption,
		Partition: noPosition,
		Offset:    noPosition,
		Message:   fmt.Sprintf("entry %s: %s", key, message),
	}
}

// NewResultTooLargeError reports an action result above the configured bound.
func NewResultTooLargeError(op string, limit int64, unit string) *EngineError {
	return &EngineError{
		Op:        op,
		Kind:      KindResultTooLarge,
		Partition: noPosition,
		Offset:    noPosition,
		Message:   fmt.Sprintf("result exceeds limit of %d %s", limit, unit),
	}
}

// NewInvalidArgumentError creates an error for invalid operation inputs
func NewInvalidArgumentError(op, message string) *EngineError {
	return &EngineError{
		Op:        op,
		Kind:      KindInvalidArgument,
		Partition: noPosition,
		Offset:    noPosition,
		Message:   message,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *EngineError {
	return &EngineError{
		Op:        op,
		Kind:      KindInternal,
		Partition: noPosition,
		Offset:    noPosition,
		Message:   "internal error occurred",
		Cause:     cause,
	}
}

// Predefined error variables for use with errors.Is
var (
	ErrSourceUnavailable   = &EngineError{Kind: KindSourceUnavailable}
	ErrTransform           = &EngineError{Kind: KindTransform}
	ErrJoinKeyTypeMismatch = &EngineError{Kind: KindJoinKeyTypeMismatch}
	ErrCacheCorruption     = &EngineError{Kind: KindCacheCorruption}
	ErrResultTooLarge      = &EngineError{Kind: KindResultTooLarge}
	ErrInvalidArgument     = &EngineError{Kind: KindInvalidArgument}
)
