// Package other реализует формы обратной связи и запроса курса.
package other

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/response"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
)

// Mailer пересылает обращения администратору.
type Mailer interface {
	SendContact(name, email, message string) error
	SendCourseRequest(name, email, course string) error
}

// Handler обрабатывает обращения пользователей.
type Handler struct {
	log      *slog.Logger
	mailer   Mailer
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, mailer Mailer) *Handler {
	return &Handler{log: log, mailer: mailer, validate: validator.New()}
}

// ContactRequest форма обратной связи. Все поля обязательны.
type ContactRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required"`
}

// CourseRequest запрос на новый курс. Все поля обязательны.
type CourseRequest struct {
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Course string `json:"course" validate:"required"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, apperr.Validation("invalid request body"))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		response.WriteValidation(w, r, err)
		return false
	}
	return true
}

// Contact пересылает сообщение администратору.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.other.Contact"
	log := h.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(r.Context())))

	var req ContactRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if err := h.mailer.SendContact(req.Name, req.Email, req.Message); err != nil {
		log.Error("failed to send contact mail", sl.Err(err))
		response.WriteError(w, r, apperr.Upstream("failed to send message", err))
		return
	}
	render.JSON(w, r, response.OK("Your Message Has Been Sent."))
}

// RequestCourse пересылает запрос курса администратору.
func (h *Handler) RequestCourse(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.other.RequestCourse"
	log := h.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(r.Context())))

	var req CourseRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if err := h.mailer.SendCourseRequest(req.Name, req.Email, req.Course); err != nil {
		log.Error("failed to send course request mail", sl.Err(err))
		response.WriteError(w, r, apperr.Upstream("failed to send request", err))
		return
	}
	render.JSON(w, r, response.OK("Your Request Has Been Sent."))
}
