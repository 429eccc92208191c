// Package auth реализует проверку токена сессии и авторизацию по роли и подписке.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/lib/jwt"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

// UserGetter загружает пользователя по идентификатору из токена.
type UserGetter interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// TokenParser проверяет подпись и срок действия токена.
type TokenParser interface {
	ParseToken(token string) (*jwt.CustomClaims, error)
}

// Gate определяет личность по токену и проверяет права доступа.
type Gate struct {
	users  UserGetter
	tokens TokenParser
}

// NewGate создает новый экземпляр Gate.
func NewGate(users UserGetter, tokens TokenParser) *Gate {
	return &Gate{users: users, tokens: tokens}
}

// Authenticate возвращает пользователя, которому выдан токен. Любая ошибка
// проверки токена и удалённый пользователь дают Unauthenticated.
func (g *Gate) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.Authenticate"

	if token == "" {
		return nil, apperr.Unauthenticated("Please Login to access this resource")
	}
	claims, err := g.tokens.ParseToken(token)
	if err != nil {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}

	user, err := g.users.GetUser(ctx, claims.UserUID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, apperr.Unauthenticated("Invalid or expired token")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Authorize проверяет роль пользователя.
func Authorize(user *models.User, role string) error {
	if user == nil || user.Role != role {
		return apperr.Forbidden(fmt.Sprintf("%s is not allowed to access this resource", roleOf(user)))
	}
	return nil
}

// AuthorizeSubscriber пропускает администраторов и пользователей с активной подпиской.
func AuthorizeSubscriber(user *models.User) error {
	if user == nil {
		return apperr.Forbidden("Only subscribers can access this resource")
	}
	if user.IsAdmin() || user.Subscription.IsActive() {
		return nil
	}
	return apperr.Forbidden("Only subscribers can access this resource")
}

func roleOf(user *models.User) string {
	if user == nil {
		return "anonymous"
	}
	return user.Role
}
