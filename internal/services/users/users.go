// Package users реализует регистрацию, вход, профиль, сброс пароля и
// администрирование пользователей.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/lib/password"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/media"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

const resetTokenTTL = 15 * time.Minute

// Repository операции хранилища над пользователями.
type Repository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetPasswordHash(ctx context.Context, id string) (string, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) error
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateAvatar(ctx context.Context, id string, avatar models.Asset) error
	ToggleRole(ctx context.Context, id string) (string, error)
	DeleteUser(ctx context.Context, id string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
}

// TokenIssuer выпускает токен сессии.
type TokenIssuer interface {
	GenerateToken(userUID, role string) (string, error)
}

// Mailer отправляет ссылку для сброса пароля.
type Mailer interface {
	SendResetPassword(to, resetURL string) error
}

// Service бизнес-логика работы с пользователями.
type Service struct {
	repo        Repository
	tokens      TokenIssuer
	media       media.Uploader
	mailer      Mailer
	frontendURL string
	log         *slog.Logger
	now         func() time.Time
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, repo Repository, tokens TokenIssuer, uploader media.Uploader, mailer Mailer, frontendURL string) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		media:       uploader,
		mailer:      mailer,
		frontendURL: frontendURL,
		log:         log,
		now:         time.Now,
	}
}

// Register создаёт пользователя с ролью user, загружает аватар и выпускает токен.
func (s *Service) Register(ctx context.Context, name, email, rawPassword string, avatar *media.File) (*models.User, string, error) {
	const op = "users.Register"

	if name == "" || email == "" || rawPassword == "" || avatar == nil {
		return nil, "", apperr.Validation("All fields are mandatory")
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, "", apperr.Conflict("User Already Exist")
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	asset, err := s.media.Upload(ctx, media.FolderAvatars, avatar.Body, avatar.Name, avatar.ContentType)
	if err != nil {
		return nil, "", apperr.Upstream("failed to upload avatar", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Avatar:       asset,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		s.releaseAsset(ctx, asset.PublicID)
		if errors.Is(err, storage.ErrEmailTaken) {
			return nil, "", apperr.Conflict("User Already Exist")
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	user.PasswordHash = ""
	return user, token, nil
}

// Login проверяет пароль и выпускает токен. Неизвестный email и неверный пароль
// неразличимы для клиента.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	const op = "users.Login"

	if email == "" || rawPassword == "" {
		return nil, "", apperr.Validation("All fields are mandatory")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, "", apperr.Unauthenticated("Incorrect Email or Password")
	}
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, "", apperr.Unauthenticated("Incorrect Email or Password")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	user.PasswordHash = ""
	return user, token, nil
}

// Me возвращает профиль пользователя.
func (s *Service) Me(ctx context.Context, id string) (*models.User, error) {
	const op = "users.Me"

	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, apperr.NotFound("User not Found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ChangePassword меняет пароль после проверки старого.
func (s *Service) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	const op = "users.ChangePassword"

	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("All fields are mandatory")
	}

	hash, err := s.repo.GetPasswordHash(ctx, id)
	if errors.Is(err, storage.ErrUserNotFound) {
		return apperr.NotFound("User not Found")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(hash, oldPassword); err != nil {
		return apperr.Validation("Incorrect Old password")
	}

	newHash, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdatePassword(ctx, id, newHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateProfile меняет имя и email. Пустые значения не меняются.
func (s *Service) UpdateProfile(ctx context.Context, id, name, email string) error {
	const op = "users.UpdateProfile"

	err := s.repo.UpdateProfile(ctx, id, name, email)
	switch {
	case errors.Is(err, storage.ErrEmailTaken):
		return apperr.Conflict("Email already in use")
	case errors.Is(err, storage.ErrUserNotFound):
		return apperr.NotFound("User not Found")
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateAvatar загружает новый аватар и удаляет старый.
func (s *Service) UpdateAvatar(ctx context.Context, id string, avatar *media.File) error {
	const op = "users.UpdateAvatar"

	if avatar == nil {
		return apperr.Validation("Please upload a file")
	}

	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, storage.ErrUserNotFound) {
		return apperr.NotFound("User not Found")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	asset, err := s.media.Upload(ctx, media.FolderAvatars, avatar.Body, avatar.Name, avatar.ContentType)
	if err != nil {
		return apperr.Upstream("failed to upload avatar", err)
	}
	if err := s.repo.UpdateAvatar(ctx, id, asset); err != nil {
		s.releaseAsset(ctx, asset.PublicID)
		return fmt.Errorf("%s: %w", op, err)
	}

	s.releaseAsset(ctx, user.Avatar.PublicID)
	return nil
}

// DeleteUser удаляет пользователя и его аватар. Используется для удаления
// своего профиля и администратором.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	const op = "users.DeleteUser"

	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, storage.ErrUserNotFound) {
		return apperr.NotFound("User not Found")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return apperr.NotFound("User not Found")
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.releaseAsset(ctx, user.Avatar.PublicID)
	return nil
}

// releaseAsset удаляет файл из медиа-хранилища. Ошибка только логируется.
func (s *Service) releaseAsset(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.media.Delete(ctx, publicID); err != nil {
		s.log.Warn("failed to release media asset", slog.String("public_id", publicID), sl.Err(err))
	}
}
