// Package errs holds the error taxonomy shared by every stage of a run.
package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRejectedByPolicy marks a question declined by the compliance gate. It is not a failure.
	ErrRejectedByPolicy      = errors.New("rejected by policy")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrGenerationUnavailable = errors.New("generation unavailable")
	ErrRetrievalUnavailable  = errors.New("retrieval unavailable")
	// ErrDecompositionFormat means the generated text lacked the subtask markers.
	ErrDecompositionFormat = errors.New("decomposition format error")
	ErrInvalidQuestion     = errors.New("invalid question")
	ErrInvalidUpload       = errors.New("invalid upload")
)

// StageError ties a failure to the operation that produced it.
type StageError struct {
	Kind error
	Op   string
	Err  error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind. Errors that already carry kind are returned unchanged.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return &StageError{Kind: kind, Op: op, Err: err}
}

// New builds a StageError without an underlying cause.
func New(kind error, op, msg string) error {
	return &StageError{Kind: kind, Op: op, Err: errors.New(msg)}
}

// HTTPStatus maps an error to the status code surfaced to API callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrRejectedByPolicy):
		return http.StatusOK
	case errors.Is(err, ErrInvalidQuestion), errors.Is(err, ErrInvalidUpload):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrClassifierUnavailable), errors.Is(err, ErrGenerationUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrRetrievalUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
