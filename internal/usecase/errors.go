package usecase

import "fmt"

type ErrorCode string

const (
	// ErrorValidation marks bad or missing input; never retried and never
	// causes durable side effects beyond what already committed.
	ErrorValidation ErrorCode = "VALIDATION_ERROR"
	// ErrorStorage marks a conversation-store failure.
	ErrorStorage ErrorCode = "STORAGE_ERROR"
	// ErrorGeneration marks a failed or malformed backend generation call.
	ErrorGeneration ErrorCode = "GENERATION_ERROR"
	// ErrorDownstream marks an enqueue failure after a successful store
	// write: the user turn is durable but will never be processed.
	ErrorDownstream ErrorCode = "DOWNSTREAM_ERROR"
	// ErrorInternal is the fallback for unexpected failures.
	ErrorInternal ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
