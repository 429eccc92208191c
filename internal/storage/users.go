package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-seller/internal/events"
	"github.com/magabrotheeeer/course-seller/internal/models"
)

const userColumns = `id, name, email, password_hash, role, subscription_id, subscription_status,
	avatar_public_id, avatar_url, reset_password_token, reset_password_expire, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u      models.User
		token  sql.NullString
		expire sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Subscription.ID, &u.Subscription.Status,
		&u.Avatar.PublicID, &u.Avatar.URL, &token, &expire, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.ResetPasswordToken = token.String
	if expire.Valid {
		t := expire.Time
		u.ResetPasswordExpire = &t
	}
	u.Playlist = []models.PlaylistItem{}
	return &u, nil
}

// CreateUser сохраняет нового пользователя. Email должен быть уникален.
func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	const op = "storage.CreateUser"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.Playlist == nil {
		u.Playlist = []models.PlaylistItem{}
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, avatar_public_id, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Avatar.PublicID, u.Avatar.URL, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.UserCreated, u.ID)
	return nil
}

// GetUser возвращает пользователя с плейлистом. Хеш пароля не заполняется.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	u, err := s.getUserBy(ctx, "id", id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.PasswordHash = ""
	return u, nil
}

// GetUserByEmail возвращает пользователя вместе с хешем пароля.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u, err := s.getUserBy(ctx, "email", email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Storage) getUserBy(ctx context.Context, column, value string) (*models.User, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.Playlist, err = s.playlist(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// GetPasswordHash возвращает хеш пароля пользователя.
func (s *Storage) GetPasswordHash(ctx context.Context, id string) (string, error) {
	const op = "storage.GetPasswordHash"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if uuid.Validate(id) != nil {
		return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	var hash string
	err := s.DB.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hash, nil
}

// ListUsers возвращает всех пользователей без плейлистов.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		u.PasswordHash = ""
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// UpdateProfile меняет имя и email. Пустое значение оставляет поле без изменений.
func (s *Storage) UpdateProfile(ctx context.Context, id, name, email string) error {
	const op = "storage.UpdateProfile"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE users
		SET name = COALESCE(NULLIF($2, ''), name),
		    email = COALESCE(NULLIF($3, ''), email)
		WHERE id = $1`, id, name, email)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrUserNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.UserUpdated, id)
	return nil
}

// UpdatePassword сохраняет новый хеш и сбрасывает токен восстановления.
func (s *Storage) UpdatePassword(ctx context.Context, id, hash string) error {
	const op = "storage.UpdatePassword"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, reset_password_token = NULL, reset_password_expire = NULL
		WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrUserNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateAvatar заменяет ссылку на аватар.
func (s *Storage) UpdateAvatar(ctx context.Context, id string, avatar models.Asset) error {
	const op = "storage.UpdateAvatar"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE users SET avatar_public_id = $2, avatar_url = $3 WHERE id = $1`,
		id, avatar.PublicID, avatar.URL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrUserNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.UserUpdated, id)
	return nil
}

// ToggleRole переключает роль user <-> admin и возвращает новую роль.
func (s *Storage) ToggleRole(ctx context.Context, id string) (string, error) {
	const op = "storage.ToggleRole"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if uuid.Validate(id) != nil {
		return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	var role string
	err := s.DB.QueryRowContext(ctx, `
		UPDATE users
		SET role = CASE WHEN role = 'admin' THEN 'user' ELSE 'admin' END
		WHERE id = $1
		RETURNING role`, id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.UserUpdated, id)
	return role, nil
}

// DeleteUser удаляет пользователя вместе с плейлистом.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.DeleteUser"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if uuid.Validate(id) != nil {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrUserNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.UserDeleted, id)
	return nil
}

// SetResetToken сохраняет хеш токена восстановления пароля и срок его действия.
func (s *Storage) SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	const op = "storage.SetResetToken"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE users SET reset_password_token = $2, reset_password_expire = $3 WHERE id = $1`,
		id, tokenHash, expire)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrUserNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserByResetToken ищет пользователя по хешу токена, срок которого ещё не истёк.
func (s *Storage) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	const op = "storage.GetUserByResetToken"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE reset_password_token = $1 AND reset_password_expire > $2`, tokenHash, now)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetSubscription записывает идентификатор и статус подписки.
func (s *Storage) SetSubscription(ctx context.Context, id string, sub models.Subscription) error {
	const op = "storage.SetSubscription"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE users SET subscription_id = $2, subscription_status = $3 WHERE id = $1`,
		id, sub.ID, sub.Status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrUserNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.UserUpdated, id)
	return nil
}

// ActivateSubscription переводит подписку subscriptionID из pending в active.
// Возвращает false, если подписка не в статусе pending или принадлежит другой операции.
func (s *Storage) ActivateSubscription(ctx context.Context, id, subscriptionID string) (bool, error) {
	const op = "storage.ActivateSubscription"
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE users SET subscription_status = 'active'
		WHERE id = $1 AND subscription_id = $2 AND subscription_status = 'pending'`,
		id, subscriptionID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return false, nil
	}

	s.notify(ctx, events.UserUpdated, id)
	return true, nil
}

// CountUsers возвращает количество пользователей.
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	const op = "storage.CountUsers"
	return s.count(ctx, op, `SELECT COUNT(*) FROM users`)
}

// CountActiveSubscriptions возвращает количество активных подписок.
func (s *Storage) CountActiveSubscriptions(ctx context.Context) (int, error) {
	const op = "storage.CountActiveSubscriptions"
	return s.count(ctx, op, `SELECT COUNT(*) FROM users WHERE subscription_status = 'active'`)
}

func (s *Storage) count(ctx context.Context, op, query string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	var n int
	if err := s.DB.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
