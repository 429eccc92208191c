// Package admin реализует HTTP-обработчики панели администратора.
// Доступ ограничивается middleware AdminOnly при регистрации маршрутов.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-seller/internal/http/response"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/services/stats"
)

// Users операции над пользователями.
type Users interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	ToggleRole(ctx context.Context, id string) (string, error)
	DeleteUser(ctx context.Context, id string) error
}

// Dashboard источник сводной статистики.
type Dashboard interface {
	Dashboard(ctx context.Context) (*stats.Dashboard, error)
}

// Handler обрабатывает запросы администратора.
type Handler struct {
	log       *slog.Logger
	users     Users
	dashboard Dashboard
}

// New создает новый Handler.
func New(log *slog.Logger, users Users, dashboard Dashboard) *Handler {
	return &Handler{log: log, users: users, dashboard: dashboard}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// ListUsers возвращает всех пользователей.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.ListUsers"
	log := h.logger(r, op)

	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData("", map[string]any{"users": users}))
}

// UpdateRole переключает роль пользователя user <-> admin.
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.UpdateRole"
	log := h.logger(r, op)

	id := chi.URLParam(r, "id")
	role, err := h.users.ToggleRole(r.Context(), id)
	if err != nil {
		log.Info("failed to update role", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("user role updated", slog.String("user_id", id), slog.String("role", role))
	render.JSON(w, r, response.OKWithData("User Role Updated", map[string]any{"role": role}))
}

// DeleteUser удаляет пользователя.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.DeleteUser"
	log := h.logger(r, op)

	id := chi.URLParam(r, "id")
	if err := h.users.DeleteUser(r.Context(), id); err != nil {
		log.Info("failed to delete user", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("user deleted", slog.String("user_id", id))
	render.JSON(w, r, response.OK("User Deleted"))
}

// Stats возвращает сводку для панели.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.Stats"
	log := h.logger(r, op)

	d, err := h.dashboard.Dashboard(r.Context())
	if err != nil {
		log.Error("failed to build dashboard", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData("", map[string]any{
		"stats":                  d.Stats,
		"usersCount":             d.UsersCount,
		"subscriptionCount":      d.SubscriptionCount,
		"viewsCount":             d.ViewsCount,
		"usersPercentage":        d.UsersPercentage,
		"subscriptionPercentage": d.SubscriptionPercentage,
		"viewsPercentage":        d.ViewsPercentage,
		"usersProfit":            d.UsersProfit,
		"subscriptionProfit":     d.SubscriptionProfit,
		"viewsProfit":            d.ViewsProfit,
	}))
}
