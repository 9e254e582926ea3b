package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound          = fmt.Errorf("not found")
	ErrTimeout           = fmt.Errorf("operation timed out")
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrUnsupportedFormat = fmt.Errorf("unsupported media format")
	ErrFileTooLarge      = fmt.Errorf("file exceeds download limit")
	ErrEngineFailure     = fmt.Errorf("engine lookup failed")
	ErrHostUnavailable   = fmt.Errorf("image host unavailable")
	ErrTransportFailure  = fmt.Errorf("chat transport failure")
	ErrConfigLoad        = fmt.Errorf("failed to load configuration")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op     string // operation name (e.g., "Resolver.Resolve")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsUnsupported reports whether err is the unsupported-format outcome that is
// reported to the user rather than the operator.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}
