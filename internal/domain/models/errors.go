package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	KindData       ErrorKind = "DataError"
	KindModel      ErrorKind = "ModelError"
	KindInference  ErrorKind = "InferenceFailure"
	KindExtraction ErrorKind = "ExtractionError"
	KindInternal   ErrorKind = "InternalError"
)

// AnalysisError carries the kind of a pipeline failure and the operation that raised it.
type AnalysisError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// NewError wraps err with a kind and operation.
func NewError(kind ErrorKind, op string, err error) *AnalysisError {
	return &AnalysisError{Kind: kind, Op: op, Err: err}
}

// Errorf builds an AnalysisError from a format string.
func Errorf(kind ErrorKind, op, format string, args ...any) *AnalysisError {
	return NewError(kind, op, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the outermost AnalysisError in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
