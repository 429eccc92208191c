// Package playlist реализует HTTP-обработчики плейлиста пользователя.
package playlist

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-seller/internal/http/response"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
)

// Service описывает операции над плейлистом.
type Service interface {
	Add(ctx context.Context, userID, courseID string) error
	Remove(ctx context.Context, userID, courseID string) error
}

// Handler обрабатывает добавление и удаление курсов из плейлиста.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// AddRequest идентификатор курса.
type AddRequest struct {
	ID string `json:"id" validate:"required"`
}

// Add godoc
// @Summary Добавить курс в плейлист
// @Tags Playlist
// @Accept json
// @Produce json
// @Param request body AddRequest true "Курс"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /addtoplaylist [post]
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.playlist.Add"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, apperr.Unauthenticated("Please Login to access this resource"))
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, apperr.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.WriteValidation(w, r, err)
		return
	}

	if err := h.service.Add(r.Context(), user.ID, req.ID); err != nil {
		log.Info("failed to add to playlist", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("Added to Playlist"))
}

// Remove удаляет курс ?id= из плейлиста. Отсутствие курса в плейлисте не ошибка.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.playlist.Remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, apperr.Unauthenticated("Please Login to access this resource"))
		return
	}

	if err := h.service.Remove(r.Context(), user.ID, r.URL.Query().Get("id")); err != nil {
		log.Info("failed to remove from playlist", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("Course Removed Successfully"))
}
