package domain

import (
	"errors"
	"fmt"
)

// Error codes surfaced to the presentation layer.
const (
	CodeNameTaken      = "NAME_TAKEN"
	CodeNotFound       = "NOT_FOUND"
	CodeBadCredentials = "BAD_CREDENTIALS"
	CodeStorageFailure = "STORAGE_FAILURE"
	CodeValidation     = "VALIDATION_ERROR"
)

// AppError is the base domain error type. Business failures are always
// returned as values carrying one of the codes above; callers branch on
// the code, not on error identity.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Standard domain error constructors.

func ErrNameTaken(name string) *AppError {
	return &AppError{Code: CodeNameTaken, Message: fmt.Sprintf("trainer name %q is already taken", name)}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// ErrBadCredentials is deliberately uniform: login returns it both for an
// unknown name and for a wrong password, so the surface leaks neither.
func ErrBadCredentials() *AppError {
	return &AppError{Code: CodeBadCredentials, Message: "invalid name or password"}
}

func ErrStorage(msg string, cause error) *AppError {
	return &AppError{Code: CodeStorageFailure, Message: msg, Cause: cause}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg}
}

// CodeOf extracts the domain error code, or CodeStorageFailure for
// anything that is not an AppError (unclassified faults are storage-level
// by definition here).
func CodeOf(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code
	}
	return CodeStorageFailure
}
