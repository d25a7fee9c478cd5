package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	// Details carries structured context for errors that are not field level,
	// e.g. the stock shortage behind an InsufficientStock error.
	Details interface{} `json:"details,omitempty"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StockShortage describes a bill line that asked for more units than a product has.
type StockShortage struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Available   int       `json:"available"`
	Requested   int       `json:"requested"`
}

func (e *AppError) Error() string {
	return e.Message
}

// ErrInternalServer hides the cause of errors that are not AppErrors
var ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "Internal server error"}

// NewAppError creates a new application error
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewFieldError is a shortcut for a validation error on a single field.
func NewFieldError(field, message string) *AppError {
	return NewValidationError([]FieldError{{Field: field, Message: message}})
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

// NewInsufficientStockError reports the first product that cannot cover its bill line.
func NewInsufficientStockError(s StockShortage) *AppError {
	return &AppError{
		Code: http.StatusConflict,
		Message: fmt.Sprintf("Insufficient stock for %s: available %d, requested %d",
			s.ProductName, s.Available, s.Requested),
		Details: s,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsInsufficientStock reports whether err carries a StockShortage.
func IsInsufficientStock(err error) (StockShortage, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if s, ok := appErr.Details.(StockShortage); ok {
			return s, true
		}
	}
	return StockShortage{}, false
}

// GetAppError converts an error to AppError if possible.
// Anything else becomes a generic internal error; the original message is not exposed.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer
}
