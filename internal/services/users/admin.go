package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "users.ListUsers"

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// ToggleRole переключает роль user <-> admin.
func (s *Service) ToggleRole(ctx context.Context, id string) (string, error) {
	const op = "users.ToggleRole"

	role, err := s.repo.ToggleRole(ctx, id)
	if errors.Is(err, storage.ErrUserNotFound) {
		return "", apperr.NotFound("Incorrect Id")
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return role, nil
}
