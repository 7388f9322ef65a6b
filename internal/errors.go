package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed     ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRequestBody   ErrorCode = "INVALID_REQUEST_BODY"
	ErrCodeInvalidID            ErrorCode = "INVALID_ID"
	ErrCodeUnsupportedImageType ErrorCode = "UNSUPPORTED_IMAGE_TYPE"
	ErrCodeImageTooLarge        ErrorCode = "IMAGE_TOO_LARGE"

	ErrCodeIncorrectCredentials ErrorCode = "INCORRECT_CREDENTIALS"
	ErrCodeUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden            ErrorCode = "FORBIDDEN"
	ErrCodeInvalidToken         ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired         ErrorCode = "TOKEN_EXPIRED"

	ErrCodeUserNotExist       ErrorCode = "USER_NOT_EXIST"
	ErrCodeRoleNotExist       ErrorCode = "ROLE_NOT_EXIST"
	ErrCodePermissionNotExist ErrorCode = "PERMISSION_NOT_EXIST"
	ErrCodeProfileNotExist    ErrorCode = "PROFILE_NOT_EXIST"
	ErrCodePhotoNotExist      ErrorCode = "PHOTO_NOT_EXIST"

	ErrCodeInfoUserInUse       ErrorCode = "INFO_USER_IN_USE"
	ErrCodeInfoRoleInUse       ErrorCode = "INFO_ROLE_IN_USE"
	ErrCodeInfoPermissionInUse ErrorCode = "INFO_PERMISSION_IN_USE"
	ErrCodeRoleHasPermissions  ErrorCode = "ROLE_HAS_PERMISSIONS"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so that sentinels survive WithCause/WithMessage copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of e carrying cause. Sentinels are never mutated.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldErrors(fields []ValidationError) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details:    ValidationErrors{Errors: fields},
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return NewValidationFieldErrors([]ValidationError{
		{Field: field, Message: message, Code: string(code)},
	})
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	// Login failures share one message so callers cannot tell an unknown account from a bad password.
	ErrIncorrectCredentials = NewConflictError("Incorrect credentials. Make sure the email and password are correct", ErrCodeIncorrectCredentials)
	ErrUnauthorized         = NewUnauthorizedError("Unauthorized", ErrCodeUnauthorized)
	ErrForbidden            = NewForbiddenError("Forbidden: insufficient permissions", ErrCodeForbidden)
	ErrInvalidToken         = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired         = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)

	ErrUserNotExist       = NewNotFoundError("User does not exist", ErrCodeUserNotExist)
	ErrRoleNotExist       = NewNotFoundError("Role does not exist", ErrCodeRoleNotExist)
	ErrPermissionNotExist = NewNotFoundError("Permission does not exist", ErrCodePermissionNotExist)
	ErrProfileNotExist    = NewNotFoundError("Profile does not exist", ErrCodeProfileNotExist)
	ErrPhotoNotExist      = NewNotFoundError("Profile photo does not exist", ErrCodePhotoNotExist)

	ErrInfoUserInUse       = NewConflictError("Email is already associated with an account", ErrCodeInfoUserInUse)
	ErrInfoRoleInUse       = NewConflictError("Role name is already in use", ErrCodeInfoRoleInUse)
	ErrInfoPermissionInUse = NewConflictError("Permission name is already in use", ErrCodeInfoPermissionInUse)
	ErrRoleHasPermissions  = NewConflictError("Role still has permissions assigned", ErrCodeRoleHasPermissions)

	ErrInvalidRequestBody   = NewValidationError("invalid request body", ErrCodeInvalidRequestBody)
	ErrInvalidID            = NewValidationError("invalid id", ErrCodeInvalidID)
	ErrUnsupportedImageType = NewValidationError("Files of this type are not supported. Please use one of image/jpeg, image/jpg, image/png", ErrCodeUnsupportedImageType)
	ErrImageTooLarge        = NewValidationError("image exceeds the maximum allowed size", ErrCodeImageTooLarge)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
