package runtime

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorCode categorizes runtime errors.
type ErrorCode string

const (
	// ErrCodeConsistency indicates an edge referencing a missing or
	// already-removed endpoint, or an operation on an unregistered anchor.
	ErrCodeConsistency ErrorCode = "CONSISTENCY"

	// ErrCodeBadSpawn indicates Spawn was not given exactly one walker and
	// one start location.
	ErrCodeBadSpawn ErrorCode = "BAD_SPAWN"

	// ErrCodeLifecycle indicates a context or walker operation out of its
	// init -> use -> reset (or created -> running -> done) order.
	ErrCodeLifecycle ErrorCode = "LIFECYCLE"

	// ErrCodeEdgeBuild indicates an edge factory could not produce or
	// pre-assign its architype.
	ErrCodeEdgeBuild ErrorCode = "EDGE_BUILD"
)

// RuntimeError is the structured error type for graph, memory, and
// traversal failures. Anchor identifiers are carried as fields so callers
// can log them without parsing messages.
type RuntimeError struct {
	Code    ErrorCode
	Op      string // Operation that failed: "edge_ref", "connect", "spawn", ...
	Anchor  uuid.UUID
	Message string
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Anchor != uuid.Nil {
		return fmt.Sprintf("%s: %s: %s (anchor=%s)", e.Code, e.Op, e.Message, e.Anchor)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Op, e.Message)
}

// IsConsistencyError reports whether err is a consistency violation.
// Uses errors.As to handle wrapped errors.
func IsConsistencyError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeConsistency
	}
	return false
}

// NewConsistencyError creates a RuntimeError for a dangling or missing
// anchor reference.
func NewConsistencyError(op string, anchor uuid.UUID, message string) *RuntimeError {
	return &RuntimeError{Code: ErrCodeConsistency, Op: op, Anchor: anchor, Message: message}
}

func newLifecycleError(op, message string) *RuntimeError {
	return &RuntimeError{Code: ErrCodeLifecycle, Op: op, Message: message}
}
