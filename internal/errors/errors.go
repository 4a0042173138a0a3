package errors

import "fmt"

// ErrorCode represents a Glimpse error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400: malformed or out-of-range input
	ErrInvalidQuery   ErrorCode = "INVALID_QUERY"   // 400: query reduces to nothing searchable
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrStorage        ErrorCode = "STORAGE"         // 500: persistence or file-system failure
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// GlimpseError represents a structured error with code, status, and details.
type GlimpseError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *GlimpseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *GlimpseError {
	return &GlimpseError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidQuery creates a 400 error for queries that tokenize to nothing.
func NewInvalidQuery(query string) *GlimpseError {
	return &GlimpseError{
		Code:    ErrInvalidQuery,
		Status:  400,
		Message: fmt.Sprintf("query contains no searchable terms: %q", query),
		Details: map[string]any{"query": query},
	}
}

// NewNotFound creates a 404 error for an unknown screenshot id.
func NewNotFound(id int64) *GlimpseError {
	return &GlimpseError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("screenshot not found: %d", id),
		Details: map[string]any{"id": id},
	}
}

// NewStorage creates a 500 error for persistence failures.
func NewStorage(msg string, err error) *GlimpseError {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &GlimpseError{
		Code:    ErrStorage,
		Status:  500,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *GlimpseError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GlimpseError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a GlimpseError with the given code.
func Is(err error, code ErrorCode) bool {
	if gErr, ok := err.(*GlimpseError); ok {
		return gErr.Code == code
	}
	return false
}
