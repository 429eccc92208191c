// Package response формирует JSON-ответы HTTP-обработчиков в едином формате
// {success, message, ...} и переводит доменные ошибки в HTTP-статусы.
package response

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
)

// Response стандартный ответ без данных.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Please Login to Access"`
}

// Error возвращает ответ с ошибкой.
func Error(msg string) Response {
	return Response{Success: false, Message: msg}
}

// OK возвращает успешный ответ с сообщением.
func OK(msg string) Response {
	return Response{Success: true, Message: msg}
}

// OKWithData добавляет поля data на верхний уровень успешного ответа.
func OKWithData(msg string, data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		out[k] = v
	}
	out["success"] = true
	if msg != "" {
		out["message"] = msg
	}
	return out
}

// WriteError единственная точка перевода ошибок в HTTP-ответ.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := apperr.Status(err)
	render.Status(r, status)
	render.JSON(w, r, Error(msg))
}

// WriteValidation рендерит 400 с перечнем нарушенных полей.
func WriteValidation(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, http.StatusBadRequest)
	var errs validator.ValidationErrors
	if ve, ok := err.(validator.ValidationErrors); ok {
		errs = ve
	}
	if len(errs) == 0 {
		render.JSON(w, r, Error("invalid request"))
		return
	}
	render.JSON(w, r, ValidationError(errs))
}

// ValidationError собирает человеко-читаемое сообщение по ошибкам валидации.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters", err.Field(), err.Param()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Success: false,
		Message: strings.Join(errsMsgs, ", "),
	}
}
