package errors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already exists")
	ErrInternalServer     = errors.New("internal server error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrChatNotFound       = errors.New("chat not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrContactNotFound    = errors.New("contact not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnsupportedMedia   = errors.New("unsupported media type")
)

// FieldError - ошибка с перечнем полей запроса, к которым она относится
type FieldError struct {
	Err     error
	Message string
	Fields  []string
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error() + ": " + strings.Join(e.Fields, ", ")
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func NewFieldError(err error, message string, fields ...string) *FieldError {
	return &FieldError{Err: err, Message: message, Fields: fields}
}

// Fields возвращает список полей, если в цепочке есть FieldError
func Fields(err error) []string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Fields
	}
	return nil
}

type APIError struct {
	Message string   `json:"error"`
	Code    int      `json:"code"`
	Fields  []string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func NewAPIError(message string, code int) *APIError {
	return &APIError{
		Message: message,
		Code:    code,
	}
}

// FromError собирает тело ответа для ошибки сервиса
func FromError(err error) *APIError {
	code := HTTPStatusFromError(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		message = ErrInternalServer.Error()
	}
	return &APIError{
		Message: message,
		Code:    code,
		Fields:  Fields(err),
	}
}

func HTTPStatusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrChatNotFound),
		errors.Is(err, ErrMessageNotFound),
		errors.Is(err, ErrContactNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}
