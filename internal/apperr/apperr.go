// internal/apperr/apperr.go
// Package apperr defines the error kinds surfaced by the ingestion and query pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Use errors.Is against these to classify a pipeline failure.
var (
	// ErrDataLoad reports a missing, unreadable or malformed dataset.
	ErrDataLoad = errors.New("data load error")
	// ErrStorage reports an inaccessible or corrupt index location.
	ErrStorage = errors.New("storage error")
	// ErrRetrieval reports a failed similarity query against the index.
	ErrRetrieval = errors.New("retrieval error")
	// ErrGeneration reports a failed call to the text generation provider.
	ErrGeneration = errors.New("generation error")
)

// Error attaches an operation name and a kind to an underlying error.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// New wraps err with the given kind and operation. A nil err still yields an error
// so callers can report kind-only failures.
func New(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// DataLoad wraps err as ErrDataLoad.
func DataLoad(op string, err error) error { return New(ErrDataLoad, op, err) }

// Storage wraps err as ErrStorage.
func Storage(op string, err error) error { return New(ErrStorage, op, err) }

// Retrieval wraps err as ErrRetrieval.
func Retrieval(op string, err error) error { return New(ErrRetrieval, op, err) }

// Generation wraps err as ErrGeneration.
func Generation(op string, err error) error { return New(ErrGeneration, op, err) }

// KindOf returns the sentinel kind carried by err, or nil when err is unclassified.
func KindOf(err error) error {
	for _, kind := range []error{ErrDataLoad, ErrStorage, ErrRetrieval, ErrGeneration} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
