package queryir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes filter compilation errors.
type ErrorCode string

const (
	// ErrCodeInvalidFieldPath indicates a field key with an empty segment or unsafe characters.
	ErrCodeInvalidFieldPath ErrorCode = "INVALID_FIELD_PATH"

	// ErrCodeUnsupportedOperator indicates an operator tag outside the closed catalog,
	// or a known operator used where it is not allowed.
	ErrCodeUnsupportedOperator ErrorCode = "UNSUPPORTED_OPERATOR"

	// ErrCodeEmptyNegation indicates $not over an empty condition set.
	ErrCodeEmptyNegation ErrorCode = "EMPTY_NEGATION"

	// ErrCodeTypeMismatch indicates an operand whose shape does not fit its operator.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"

	// ErrCodeDepthExceeded indicates a filter nested deeper than the caller's
	// configured limit. The compiler itself imposes no limit.
	ErrCodeDepthExceeded ErrorCode = "DEPTH_EXCEEDED"
)

// FilterError is returned for every rejected filter.
//
// Filter errors are raised synchronously while parsing or compiling and are
// terminal for that call. Callers surface them as "invalid filter" errors,
// distinct from database errors.
type FilterError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the dotted field path involved, if any.
	Path string

	// Operator is the operator or logical key involved, if any.
	Operator string
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	switch {
	case e.Path != "" && e.Operator != "":
		return fmt.Sprintf("%s: %s (path=%s, operator=%s)", e.Code, e.Message, e.Path, e.Operator)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (path=%s)", e.Code, e.Message, e.Path)
	case e.Operator != "":
		return fmt.Sprintf("%s: %s (operator=%s)", e.Code, e.Message, e.Operator)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not a FilterError.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var fe *FilterError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsFilterError returns true if err is (or wraps) a FilterError.
func IsFilterError(err error) bool {
	return CodeOf(err) != ""
}

// IsInvalidFieldPath returns true if the error is an invalid field path error.
func IsInvalidFieldPath(err error) bool {
	return CodeOf(err) == ErrCodeInvalidFieldPath
}

// IsUnsupportedOperator returns true if the error is an unsupported operator error.
func IsUnsupportedOperator(err error) bool {
	return CodeOf(err) == ErrCodeUnsupportedOperator
}

// IsEmptyNegation returns true if the error is an empty negation error.
func IsEmptyNegation(err error) bool {
	return CodeOf(err) == ErrCodeEmptyNegation
}

// IsTypeMismatch returns true if the error is a type mismatch error.
func IsTypeMismatch(err error) bool {
	return CodeOf(err) == ErrCodeTypeMismatch
}

// NewInvalidFieldPath creates a FilterError for an unsafe field key.
func NewInvalidFieldPath(path, reason string) *FilterError {
	return &FilterError{
		Code:    ErrCodeInvalidFieldPath,
		Message: reason,
		Path:    path,
	}
}

// NewUnsupportedOperator creates a FilterError for an unknown or misplaced operator.
func NewUnsupportedOperator(path, op, reason string) *FilterError {
	return &FilterError{
		Code:     ErrCodeUnsupportedOperator,
		Message:  reason,
		Path:     path,
		Operator: op,
	}
}

// NewEmptyNegation creates a FilterError for $not over nothing.
func NewEmptyNegation(path string) *FilterError {
	return &FilterError{
		Code:     ErrCodeEmptyNegation,
		Message:  "cannot negate an empty condition group",
		Path:     path,
		Operator: KeyNot,
	}
}

// NewTypeMismatch creates a FilterError for an operand of the wrong shape.
func NewTypeMismatch(path, op, format string, args ...any) *FilterError {
	return &FilterError{
		Code:     ErrCodeTypeMismatch,
		Message:  fmt.Sprintf(format, args...),
		Path:     path,
		Operator: op,
	}
}

// IsDepthExceeded checks if an error is a depth-limit error.
func IsDepthExceeded(err error) bool {
	return CodeOf(err) == ErrCodeDepthExceeded
}

// NewDepthExceeded creates a depth-limit error.
func NewDepthExceeded(path string, limit int) *FilterError {
	return &FilterError{
		Code:    ErrCodeDepthExceeded,
		Message: fmt.Sprintf("filter nesting exceeds the limit of %d", limit),
		Path:    path,
	}
}
