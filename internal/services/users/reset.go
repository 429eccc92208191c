package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/lib/password"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

// ForgetPassword выпускает токен сброса пароля и отправляет ссылку на почту.
// В хранилище попадает только хеш токена.
func (s *Service) ForgetPassword(ctx context.Context, email string) error {
	const op = "users.ForgetPassword"

	if email == "" {
		return apperr.Validation("Please enter email")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return apperr.NotFound("User Not Found")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	token, hash, err := password.NewResetToken()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetResetToken(ctx, user.ID, hash, s.now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	url := s.frontendURL + "/resetpassword/" + token
	if err := s.mailer.SendResetPassword(user.Email, url); err != nil {
		return apperr.Upstream("failed to send reset email", err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по действующему токену.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "users.ResetPassword"

	if newPassword == "" {
		return apperr.Validation("Please enter password")
	}
	if token == "" {
		return apperr.Unauthenticated("Invalid Token or expired")
	}

	user, err := s.repo.GetUserByResetToken(ctx, password.HashResetToken(token), s.now())
	if errors.Is(err, storage.ErrUserNotFound) {
		return apperr.Unauthenticated("Invalid Token or expired")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
