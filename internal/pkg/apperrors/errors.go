package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Throttling
	ErrTooManyRequests = errors.New("too many requests")
)

// User errors
var (
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailAlreadyExists     = errors.New("email already exists")
	ErrRollNumberExists       = errors.New("roll number already exists")
	ErrStudentNotFound        = errors.New("student not found")
	ErrTeacherNotFound        = errors.New("teacher not found")
	ErrStudentProfileRequired = errors.New("student profile required")
)

// Catalogue errors
var (
	ErrBatchNotFound         = errors.New("batch not found")
	ErrBatchAlreadyExists    = errors.New("batch with this name and year already exists")
	ErrSubjectNotFound       = errors.New("subject not found")
	ErrSubjectAlreadyExists  = errors.New("subject with this code already exists")
	ErrSubjectNotTaught      = errors.New("subject is not taught by this teacher")
	ErrSubjectBatchMismatch  = errors.New("subject does not belong to the selected batch")
	ErrTimetableSlotNotFound = errors.New("timetable slot not found")
	ErrTimetableSlotTaken    = errors.New("batch already has a slot at this time")
	ErrSyllabusNotFound      = errors.New("syllabus not found")
)

// Attendance errors
var (
	ErrSessionNotFound = errors.New("attendance session not found")
	ErrSessionInactive = errors.New("attendance session is not active")
	ErrRecordNotFound  = errors.New("attendance record not found")
	// ErrAlreadyMarked is raised by the ledger when the (session, student)
	// uniqueness constraint rejects an insert.
	ErrAlreadyMarked = errors.New("attendance already marked")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}
