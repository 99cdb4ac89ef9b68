package fault

import "errors"

// Code classifies engine failures so the API layer can map them to
// transport responses without string matching.
type Code string

const (
	CodeValidation       Code = "VALIDATION"
	CodeUnsafeParameter  Code = "UNSAFE_PARAMETER"
	CodeDispatch         Code = "DISPATCH"
	CodeRemoteExecution  Code = "REMOTE_EXECUTION"
	CodeLookbackExceeded Code = "LOOKBACK_EXCEEDED"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeNotCancellable   Code = "NOT_CANCELLABLE"
	CodeNotFound         Code = "NOT_FOUND"
	CodeStateConflict    Code = "STATE_CONFLICT"
	CodeInternal         Code = "INTERNAL"
)

var (
	ErrReportNotFound    = errors.New("report definition not found")
	ErrExecutionNotFound = errors.New("execution not found")
	ErrScheduleNotFound  = errors.New("schedule not found")
	ErrSegmentNotFound   = errors.New("segment not found")
	ErrBackfillNotFound  = errors.New("backfill collection not found")
	ErrScheduleExists    = errors.New("report already has an active schedule")
)

// Error is a coded error carried across the service boundary.
type Error struct {
	code    Code
	message string
	cause   error
}

func New(code Code, message string, cause error) *Error {
	return &Error{code: code, message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Code() Code {
	return e.code
}

func (e *Error) Message() string {
	return e.message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the fault code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.code
	}
	switch {
	case errors.Is(err, ErrReportNotFound),
		errors.Is(err, ErrExecutionNotFound),
		errors.Is(err, ErrScheduleNotFound),
		errors.Is(err, ErrSegmentNotFound),
		errors.Is(err, ErrBackfillNotFound):
		return CodeNotFound
	case errors.Is(err, ErrScheduleExists):
		return CodeStateConflict
	}
	return CodeInternal
}
