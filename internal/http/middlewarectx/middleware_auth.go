// Package middlewarectx содержит HTTP middleware: аутентификацию по токену
// сессии, проверку роли и подписки, ограничение частоты запросов и работу с
// cookie сессии.
//
// JWTMiddleware берёт токен из cookie "token" или заголовка Authorization,
// проверяет его и кладёт пользователя в контекст запроса. При ошибке
// проверки возвращает 401 и дальше запрос не передаёт.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/response"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/services/auth"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User ключ пользователя в контексте.
const User Key = "user"

// Authenticator определяет пользователя по токену.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// WithUser кладёт пользователя в контекст.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, User, u)
}

// UserFromContext возвращает пользователя, положенного JWTMiddleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(User).(*models.User)
	return u, ok && u != nil
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// JWTMiddleware аутентифицирует запрос.
func JWTMiddleware(gate Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			user, err := gate.Authenticate(r.Context(), tokenFromRequest(r))
			if err != nil {
				log.Info("authentication failed", sl.Err(err))
				response.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// AdminOnly пропускает только администраторов. Ставится после JWTMiddleware.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return guard(log, "middlewarectx.AdminOnly", func(u *models.User) error {
		return auth.Authorize(u, models.RoleAdmin)
	})
}

// SubscriberOnly пропускает администраторов и пользователей с активной подпиской.
func SubscriberOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return guard(log, "middlewarectx.SubscriberOnly", auth.AuthorizeSubscriber)
}

func guard(log *slog.Logger, op string, check func(*models.User) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				response.WriteError(w, r, apperr.Unauthenticated("Please Login to access this resource"))
				return
			}
			if err := check(user); err != nil {
				log.Info("access denied",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("user_id", user.ID),
				)
				response.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
