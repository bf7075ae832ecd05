package notifier

import "errors"

var (
	// ErrInvalidPayload is returned when a queued push payload cannot be
	// parsed; the message is dropped, not requeued.
	ErrInvalidPayload = errors.New("invalid push payload")
)

// RetryableError wraps transient delivery errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
