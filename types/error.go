package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the gateway.
type ErrorCode string

const (
	// ErrAuthentication 缺失或不匹配的 X-API-Key
	ErrAuthentication ErrorCode = "AUTHENTICATION"
	// ErrInvalidRequest 请求体无法解析或字段为空
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrUpstreamError 语言模型或向量库调用失败
	ErrUpstreamError ErrorCode = "UPSTREAM_ERROR"
	// ErrConfig 启动配置缺失或非法
	ErrConfig ErrorCode = "CONFIG"
	// ErrInternalError 进程内部错误（例如 panic）
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithProvider sets the upstream provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// Status returns the HTTP status for the error, falling back to the code mapping.
func (e *Error) Status() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	switch e.Code {
	case ErrAuthentication:
		return http.StatusUnauthorized
	case ErrInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewUpstreamError wraps a failure returned by an external service.
func NewUpstreamError(provider, message string, cause error) *Error {
	return NewError(ErrUpstreamError, message).
		WithProvider(provider).
		WithCause(cause).
		WithHTTPStatus(http.StatusInternalServerError)
}

// NewConfigError reports a missing or invalid startup setting.
func NewConfigError(message string) *Error {
	return NewError(ErrConfig, message)
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	return GetErrorCode(err) == code
}
