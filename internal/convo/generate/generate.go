// Package generate defines the reply-generation capability consumed by the
// turn orchestrator. The capability is opaque to the core: it may be slow,
// may be cancelled, and distinguishes transient failures from fatal ones.
package generate

import (
	"context"
	"errors"
	"fmt"

	"github.com/mizutani/convo/internal/convo"
)

// Generator produces the assistant reply for one turn. History carries the
// prior conversation (possibly windowed by the caller); utterance is the new
// user message, not yet part of history.
type Generator interface {
	GenerateReply(ctx context.Context, handlerID string, history []convo.Message, utterance string) (string, error)
}

// TransientError marks a generation failure that the caller may retry. The
// core never retries automatically; retry policy belongs to the caller.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient generation failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// FatalError marks a generation failure that will not succeed on retry, such
// as the capability refusing the request.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("generation refused: %v", e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable generation failure.
func Transient(err error) error { return &TransientError{Err: err} }

// Fatal wraps err as a non-retryable generation failure.
func Fatal(err error) error { return &FatalError{Err: err} }

// IsTransient reports whether err carries a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsFatal reports whether err carries a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
