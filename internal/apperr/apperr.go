// Package apperr описывает таксономию доменных ошибок и их отображение в HTTP-статусы.
package apperr

import (
	"errors"
	"net/http"
)

// Виды ошибок. Проверяются через errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream failure")
)

// Error несёт вид ошибки, сообщение для клиента и необязательную причину.
type Error struct {
	Kind    error
	Message string
	Err     error
}

// Error сообщение вместе с причиной, если она есть.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap отдаёт вид ошибки и причину для errors.Is и errors.As.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Validation некорректный ввод клиента (400).
func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// Unauthenticated клиент не подтвердил личность или подпись платежа (401).
func Unauthenticated(msg string) *Error {
	return &Error{Kind: ErrUnauthenticated, Message: msg}
}

// Forbidden действие запрещено для роли или статуса подписки (403).
func Forbidden(msg string) *Error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

// NotFound сущность не найдена (404).
func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Conflict состояние не допускает операцию (409).
func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// Upstream оборачивает сбой платёжного шлюза или медиа-хостинга.
func Upstream(msg string, err error) *Error {
	return &Error{Kind: ErrUpstream, Message: msg, Err: err}
}

// Status возвращает HTTP-статус и сообщение для клиента.
// Ошибки вне таксономии дают 500 без деталей.
func Status(err error) (int, string) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal server error"
	}
	switch {
	case errors.Is(appErr.Kind, ErrValidation):
		return http.StatusBadRequest, appErr.Message
	case errors.Is(appErr.Kind, ErrUnauthenticated):
		return http.StatusUnauthorized, appErr.Message
	case errors.Is(appErr.Kind, ErrForbidden):
		return http.StatusForbidden, appErr.Message
	case errors.Is(appErr.Kind, ErrNotFound):
		return http.StatusNotFound, appErr.Message
	case errors.Is(appErr.Kind, ErrConflict):
		return http.StatusConflict, appErr.Message
	case errors.Is(appErr.Kind, ErrUpstream):
		return http.StatusBadGateway, appErr.Message
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
