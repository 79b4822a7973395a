// Package errors provides custom error types for the wallet API.
// All service-layer errors should use AppError so that callers can branch on
// the error kind and the HTTP layer never leaks internal details to clients.
package errors

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of its transport mapping.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
	KindRateLimit  Kind = "rate_limit"
)

// AppError represents a structured application error with a kind, an error
// code, a safe human-readable message, an HTTP status code, and an optional
// internal error that is logged but never rendered.
type AppError struct {
	Kind       Kind   `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies of a sentinel still match it.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same kind/code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Kind:       sentinel.Kind,
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Kind:       sentinel.Kind,
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// KindOf returns the kind of err. Errors that are not AppErrors are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }

func validation(code, msg string) *AppError {
	return &AppError{Kind: KindValidation, Code: code, Message: msg, StatusCode: http.StatusBadRequest}
}

func notFound(code, msg string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: msg, StatusCode: http.StatusNotFound}
}

func conflict(code, msg string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: msg, StatusCode: http.StatusConflict}
}

// General errors.
var (
	ErrInvalidInput   = validation("INVALID_INPUT", "Invalid input")
	ErrNotFound       = notFound("NOT_FOUND", "Resource not found")
	ErrInternalServer = &AppError{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrRateLimited    = &AppError{Kind: KindRateLimit, Code: "RATE_LIMITED", Message: "Too many requests", StatusCode: http.StatusTooManyRequests}
)

// Category errors.
var (
	ErrCategoryNotFound       = notFound("CATEGORY_NOT_FOUND", "Category not found")
	ErrParentCategoryNotFound = notFound("PARENT_CATEGORY_NOT_FOUND", "Parent category not found")
	ErrDuplicateCategoryName  = conflict("DUPLICATE_CATEGORY_NAME", "A category with this name already exists under the same parent")
	ErrSelfParentCategory     = conflict("SELF_PARENT_CATEGORY", "A category cannot be its own parent")
	ErrCategoryCycle          = conflict("CATEGORY_CYCLE", "A category cannot be moved under one of its descendants")
	ErrCategoryHasChildren    = conflict("CATEGORY_HAS_CHILDREN", "Category has child categories")
	ErrCategoryInUse          = conflict("CATEGORY_IN_USE", "Category is used by existing transactions")
	ErrCategoryHasBudgets     = conflict("CATEGORY_HAS_BUDGETS", "Category is used by existing budgets")
)

// Transaction errors.
var (
	ErrTransactionNotFound    = notFound("TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrInvalidTransactionType = validation("INVALID_TRANSACTION_TYPE", "Unsupported transaction type")
	ErrInvalidPaymentMethod   = validation("INVALID_PAYMENT_METHOD", "Unsupported payment method")
	ErrFutureTransaction      = validation("FUTURE_TRANSACTION", "Transaction date cannot be in the future")
)

// Budget errors.
var (
	ErrBudgetNotFound = notFound("BUDGET_NOT_FOUND", "Budget not found")
	ErrBudgetOverlap  = conflict("BUDGET_OVERLAP", "Another budget already exists for this category during the specified period")
	ErrInvalidPeriod  = validation("INVALID_PERIOD", "Budget start date cannot be after end date")
)
