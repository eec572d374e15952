package models

import (
	"errors"
	"fmt"
	"time"
)

// Error codes surfaced to the transport collaborator as refusals.
const (
	CodeNotRegistered     = "NOT_REGISTERED"
	CodeAlreadyRegistered = "ALREADY_REGISTERED"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidPostID     = "INVALID_POST_ID"
	CodeInvalidDuration   = "INVALID_DURATION"
	CodeAlreadyReacted    = "ALREADY_REACTED"
	CodeBanned            = "BANNED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeMalformedInput    = "MALFORMED_INPUT"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotRegisteredError(userID int64) *AppError {
	return &AppError{
		Code:    CodeNotRegistered,
		Message: fmt.Sprintf("user %d is not a registered member", userID),
	}
}

func NewAlreadyRegisteredError(userID int64) *AppError {
	return &AppError{
		Code:    CodeAlreadyRegistered,
		Message: fmt.Sprintf("user %d is already registered or awaiting approval", userID),
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewInvalidPostIDError(postID interface{}) *AppError {
	return &AppError{
		Code:    CodeInvalidPostID,
		Message: fmt.Sprintf("post %v does not exist", postID),
	}
}

func NewInvalidDurationError(raw string) *AppError {
	return &AppError{
		Code:    CodeInvalidDuration,
		Message: fmt.Sprintf("invalid ban duration %q, use whole days (7d) or hours (24h)", raw),
	}
}

func NewAlreadyReactedError(postID int, kind ReactionKind) *AppError {
	return &AppError{
		Code:    CodeAlreadyReacted,
		Message: fmt.Sprintf("post %d already has your %s", postID, kind),
	}
}

func NewBannedError(until time.Time) *AppError {
	return &AppError{
		Code:    CodeBanned,
		Message: fmt.Sprintf("banned until %s", until.Format(time.RFC3339)),
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewMalformedInputError(message string) *AppError {
	return &AppError{
		Code:    CodeMalformedInput,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code carried by err, or "" for foreign errors.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code string) bool {
	return err != nil && ErrorCode(err) == code
}
