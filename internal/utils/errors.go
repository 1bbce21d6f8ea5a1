package utils

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinels for errors.Is checks. The typed errors below match them via Is().
var (
	ErrValidation         = errors.New("validation_error")
	ErrNotFound           = errors.New("not_found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrStorageUnavailable = errors.New("storage_unavailable")
	ErrIntegrityAnomaly   = errors.New("integrity_anomaly")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")
)

// ValidationError reports bad input shape or range. Field names the first
// offending input.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AuthorizationError is raised by the role gate only; services never return it.
type AuthorizationError struct {
	Forbidden bool
	Reason    string
}

func (e *AuthorizationError) Error() string { return e.Reason }

func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }

// StorageUnavailableError wraps a transient database failure (timeout,
// refused connection, closed pool). Callers may retry idempotent reads.
type StorageUnavailableError struct {
	Op  string
	Err error
}

func NewStorageUnavailableError(op string, err error) error {
	return &StorageUnavailableError{Op: op, Err: err}
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

func (e *StorageUnavailableError) Is(target error) bool { return target == ErrStorageUnavailable }

func (e *StorageUnavailableError) Retryable() bool { return true }

// IntegrityAnomalyError describes a property whose detail rows do not match its
// declared type. It is logged, never surfaced to API clients.
type IntegrityAnomalyError struct {
	PropertyID string
	Declared   string
	Counts     map[string]int
}

func (e *IntegrityAnomalyError) Error() string {
	keys := make([]string, 0, len(e.Counts))
	for k := range e.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, e.Counts[k]))
	}
	return fmt.Sprintf(
		"property %s declared %q has inconsistent detail rows [%s]",
		e.PropertyID, e.Declared, strings.Join(parts, " "),
	)
}

func (e *IntegrityAnomalyError) Is(target error) bool { return target == ErrIntegrityAnomaly }

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		HandleServiceError(w, err)
	}
}

// HandleServiceError maps the service error taxonomy onto HTTP responses.
func HandleServiceError(w http.ResponseWriter, err error) {
	var (
		valErr   *ValidationError
		nfErr    *NotFoundError
		authErr  *AuthorizationError
		storeErr *StorageUnavailableError
	)
	switch {
	case errors.As(err, &valErr):
		RespondErrorWithCode(w, http.StatusBadRequest, ErrCodeValidation, valErr.Error(), map[string]string{"field": valErr.Field})
	case errors.As(err, &nfErr):
		RespondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, nfErr.Error(), nil)
	case errors.As(err, &authErr):
		if authErr.Forbidden {
			RespondErrorWithCode(w, http.StatusForbidden, ErrCodeForbidden, authErr.Reason, nil)
		} else {
			RespondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, authErr.Reason, nil)
		}
	case errors.As(err, &storeErr):
		RespondErrorWithCode(w, http.StatusServiceUnavailable, ErrCodeStorageUnavailable, "Storage temporarily unavailable, please retry", nil, err)
	case errors.Is(err, ErrRowVersionConflict):
		RespondErrorWithCode(w, http.StatusConflict, ErrCodeRowVersionConflict, "Another update occurred, please refresh", nil, err)
	default:
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
