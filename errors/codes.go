package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Iteration contract errors
const (
	// ErrCodeIllegalSequencing indicates an element was consumed without a
	// preceding successful readiness check.
	ErrCodeIllegalSequencing ErrorCode = "ILLEGAL_SEQUENCING"
	// ErrCodeExhausted indicates the sequence is known to be exhausted or
	// was cancelled.
	ErrCodeExhausted ErrorCode = "EXHAUSTED"
)

// Availability errors (retryable)
const (
	// ErrCodeTimeout indicates an operation did not complete in time.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:           true,
	ErrCodeIllegalSequencing: false,
	ErrCodeExhausted:         false,
	ErrCodeInternal:          false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
