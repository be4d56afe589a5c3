package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an AppError for callers and transport mapping.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindConditionsNotMet ErrorKind = "conditions_not_met"
	KindInvalidOperation ErrorKind = "invalid_operation"
	KindValidation       ErrorKind = "validation"
	KindConflict         ErrorKind = "conflict"
	KindUnauthorized     ErrorKind = "unauthorized"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrNotFound         = &AppError{Kind: KindNotFound}
	ErrConditionsNotMet = &AppError{Kind: KindConditionsNotMet}
	ErrInvalidOperation = &AppError{Kind: KindInvalidOperation}
	ErrValidation       = &AppError{Kind: KindValidation}
	ErrConflict         = &AppError{Kind: KindConflict}
	ErrUnauthorized     = &AppError{Kind: KindUnauthorized}
)

// AppError is a domain failure that is surfaced to the caller as is.
type AppError struct {
	Kind    ErrorKind
	Message string
}

func (e *AppError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is reports whether target is an AppError of the same kind.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s with id %s not found", entity, id)}
}

// NewConditionsNotMetError reports a failed domain precondition.
func NewConditionsNotMetError(msg string) *AppError {
	return &AppError{Kind: KindConditionsNotMet, Message: msg}
}

// NewInvalidOperationError reports that the caller lacks the required relationship to a resource.
func NewInvalidOperationError(msg string) *AppError {
	return &AppError{Kind: KindInvalidOperation, Message: msg}
}

// NewValidationError reports malformed input.
func NewValidationError(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

// NewConflictError reports a concurrent modification.
func NewConflictError(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

// NewUnauthorizedError reports a missing or invalid caller identity.
func NewUnauthorizedError(msg string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: msg}
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}
