// Package errors provides the error-code taxonomy shared across fieldsync.
package errors

import "fmt"

// ErrorCode identifies a class of failure. Codes are stable strings so
// they can be persisted in queue entries and shown in diagnostics.
type ErrorCode string

const (
	// ErrValidation marks malformed input to a store write. Rejected
	// before any persistence, never retried.
	ErrValidation ErrorCode = "VALIDATION_ERROR"

	// ErrNotFound marks a referenced record id that does not exist.
	ErrNotFound ErrorCode = "NOT_FOUND"

	// ErrConstraint marks a referential-integrity violation, e.g. a
	// delete blocked by dependent child rows.
	ErrConstraint ErrorCode = "CONSTRAINT_VIOLATION"

	// ErrOffline marks a manual sync requested while offline.
	ErrOffline ErrorCode = "OFFLINE"

	// ErrRemote marks a transport or backend failure while talking to
	// the remote. Retried up to the attempt cap for queue entries.
	ErrRemote ErrorCode = "REMOTE_ERROR"

	// ErrTimeout marks a bounded wait that expired, e.g. an edge worker
	// stats query left unanswered.
	ErrTimeout ErrorCode = "TIMEOUT"

	// ErrDatabase marks a local storage failure.
	ErrDatabase ErrorCode = "DATABASE_ERROR"
)

// AppError carries a code, a human-readable message and an optional cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an error code.
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code ErrorCode) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CodeOf returns the code of err, or ErrDatabase when err carries none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrDatabase
}
