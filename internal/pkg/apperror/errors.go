package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeTransport    ErrorCode = "TRANSPORT_ERROR"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeServer       ErrorCode = "SERVER_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	// Field names the offending form field for validation errors.
	Field string
	// Retry names the operation the caller attempted, so it can be
	// resumed after a fresh login.
	Retry string
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeTransport:
		return 0
	default:
		return http.StatusInternalServerError
	}
}

func statusToCode(status int) ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return ErrCodeUnauthorized
	case http.StatusForbidden:
		return ErrCodeForbidden
	case http.StatusNotFound:
		return ErrCodeNotFound
	case http.StatusBadRequest:
		return ErrCodeBadRequest
	case http.StatusUnprocessableEntity:
		return ErrCodeValidation
	case http.StatusConflict:
		return ErrCodeConflict
	default:
		return ErrCodeServer
	}
}

// detailEntry is one structured validation error in a 422 body.
type detailEntry struct {
	Loc []json.RawMessage `json:"loc"`
	Msg string            `json:"msg"`
}

// FromResponse builds an AppError from an error response body. The backend
// returns either {"detail": "message"} or, for validation failures,
// {"detail": [{"loc": [...], "msg": "..."}, ...]}; only the first entry is
// surfaced.
func FromResponse(status int, body []byte) *AppError {
	appErr := &AppError{
		Code:       statusToCode(status),
		Message:    fallbackMessage(status),
		HTTPStatus: status,
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return appErr
	}

	var msg string
	if err := json.Unmarshal(envelope.Detail, &msg); err == nil && msg != "" {
		appErr.Message = msg
		return appErr
	}

	var entries []detailEntry
	if err := json.Unmarshal(envelope.Detail, &entries); err == nil && len(entries) > 0 {
		first := entries[0]
		if first.Msg != "" {
			appErr.Message = first.Msg
		}
		// loc is ["body", "<field>", ...]; the last string names the field.
		for i := len(first.Loc) - 1; i >= 0; i-- {
			var part string
			if json.Unmarshal(first.Loc[i], &part) == nil && part != "" && part != "body" {
				appErr.Field = part
				break
			}
		}
	}
	return appErr
}

func fallbackMessage(status int) string {
	switch statusToCode(status) {
	case ErrCodeUnauthorized:
		return "session expired, please log in again"
	case ErrCodeForbidden:
		return "you do not have access to this resource"
	case ErrCodeNotFound:
		return "not found"
	case ErrCodeValidation:
		return "some fields are invalid"
	default:
		return "something went wrong, please try again"
	}
}

func IsUnauthorized(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeUnauthorized
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsTransport(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeTransport
}

var (
	ErrNotLoggedIn     = New(ErrCodeUnauthorized, "not logged in")
	ErrWrongRole       = New(ErrCodeForbidden, "stored role does not match the required role")
	ErrKycNotApproved  = New(ErrCodeForbidden, "KYC is not approved yet")
	ErrRequestNotFound = New(ErrCodeNotFound, "request not found")
)
