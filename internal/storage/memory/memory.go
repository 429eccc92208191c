// Package memory хранит данные платформы в памяти процесса. Используется
// драйвером "memory" и в тестах сервисов.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-seller/internal/events"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

var _ storage.Repository = (*Store)(nil)

// Store потокобезопасное хранилище в памяти.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*models.User
	courses   map[string]*models.Course
	payments  map[string]*models.Payment
	stats     []*models.Stats
	publisher events.Publisher
	now       func() time.Time
}

// New создаёт пустое хранилище. publisher может быть nil.
func New(publisher events.Publisher) *Store {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Store{
		users:     make(map[string]*models.User),
		courses:   make(map[string]*models.Course),
		payments:  make(map[string]*models.Payment),
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) notify(ctx context.Context, kind events.Kind, id string) {
	_ = s.publisher.Publish(ctx, events.New(kind, id))
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Playlist = append([]models.PlaylistItem{}, u.Playlist...)
	if u.ResetPasswordExpire != nil {
		t := *u.ResetPasswordExpire
		c.ResetPasswordExpire = &t
	}
	return &c
}

func copyCourse(c *models.Course, withLectures bool) *models.Course {
	cp := *c
	cp.NumOfVideos = len(c.Lectures)
	if withLectures {
		cp.Lectures = append([]models.Lecture{}, c.Lectures...)
	} else {
		cp.Lectures = nil
	}
	return &cp
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	const op = "memory.CreateUser"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			s.mu.Unlock()
			return fmt.Errorf("%s: %w", op, storage.ErrEmailTaken)
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	if u.Playlist == nil {
		u.Playlist = []models.PlaylistItem{}
	}
	s.users[u.ID] = copyUser(u)
	s.mu.Unlock()

	s.notify(ctx, events.UserCreated, u.ID)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "memory.GetUser"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	c := copyUser(u)
	c.PasswordHash = ""
	return c, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "memory.GetUserByEmail"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
}

func (s *Store) GetPasswordHash(ctx context.Context, id string) (string, error) {
	const op = "memory.GetPasswordHash"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return u.PasswordHash, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "memory.ListUsers"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		c := copyUser(u)
		c.PasswordHash = ""
		users = append(users, c)
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

// mutateUser выполняет fn над пользователем под блокировкой записи.
func (s *Store) mutateUser(ctx context.Context, op, id string, fn func(u *models.User) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err := fn(u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, id, name, email string) error {
	err := s.mutateUser(ctx, "memory.UpdateProfile", id, func(u *models.User) error {
		if email != "" {
			for otherID, other := range s.users {
				if otherID != id && strings.EqualFold(other.Email, email) {
					return storage.ErrEmailTaken
				}
			}
			u.Email = email
		}
		if name != "" {
			u.Name = name
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, events.UserUpdated, id)
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, hash string) error {
	return s.mutateUser(ctx, "memory.UpdatePassword", id, func(u *models.User) error {
		u.PasswordHash = hash
		u.ResetPasswordToken = ""
		u.ResetPasswordExpire = nil
		return nil
	})
}

func (s *Store) UpdateAvatar(ctx context.Context, id string, avatar models.Asset) error {
	err := s.mutateUser(ctx, "memory.UpdateAvatar", id, func(u *models.User) error {
		u.Avatar = avatar
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, events.UserUpdated, id)
	return nil
}

func (s *Store) ToggleRole(ctx context.Context, id string) (string, error) {
	var role string
	err := s.mutateUser(ctx, "memory.ToggleRole", id, func(u *models.User) error {
		if u.Role == models.RoleAdmin {
			u.Role = models.RoleUser
		} else {
			u.Role = models.RoleAdmin
		}
		role = u.Role
		return nil
	})
	if err != nil {
		return "", err
	}
	s.notify(ctx, events.UserUpdated, id)
	return role, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	const op = "memory.DeleteUser"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	if _, ok := s.users[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	delete(s.users, id)
	s.mu.Unlock()

	s.notify(ctx, events.UserDeleted, id)
	return nil
}

func (s *Store) SetResetToken(ctx context.Context, id, tokenHash string, expire time.Time) error {
	return s.mutateUser(ctx, "memory.SetResetToken", id, func(u *models.User) error {
		u.ResetPasswordToken = tokenHash
		u.ResetPasswordExpire = &expire
		return nil
	})
}

func (s *Store) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	const op = "memory.GetUserByResetToken"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ResetPasswordToken != "" && u.ResetPasswordToken == tokenHash &&
			u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now) {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
}

func (s *Store) SetSubscription(ctx context.Context, id string, sub models.Subscription) error {
	err := s.mutateUser(ctx, "memory.SetSubscription", id, func(u *models.User) error {
		u.Subscription = sub
		return nil
	})
	if err != nil {
		return err
	}
	s.notify(ctx, events.UserUpdated, id)
	return nil
}

func (s *Store) ActivateSubscription(ctx context.Context, id, subscriptionID string) (bool, error) {
	var activated bool
	err := s.mutateUser(ctx, "memory.ActivateSubscription", id, func(u *models.User) error {
		if u.Subscription.ID != subscriptionID || u.Subscription.Status != models.SubscriptionPending {
			return nil
		}
		u.Subscription.Status = models.SubscriptionActive
		activated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if activated {
		s.notify(ctx, events.UserUpdated, id)
	}
	return activated, nil
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("memory.CountUsers: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) CountActiveSubscriptions(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("memory.CountActiveSubscriptions: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, u := range s.users {
		if u.Subscription.IsActive() {
			n++
		}
	}
	return n, nil
}

func (s *Store) AddToPlaylist(ctx context.Context, userID string, item models.PlaylistItem) error {
	return s.mutateUser(ctx, "memory.AddToPlaylist", userID, func(u *models.User) error {
		if u.HasInPlaylist(item.CourseID) {
			return storage.ErrPlaylistItemExists
		}
		u.Playlist = append(u.Playlist, item)
		return nil
	})
}

func (s *Store) RemoveFromPlaylist(ctx context.Context, userID, courseID string) error {
	return s.mutateUser(ctx, "memory.RemoveFromPlaylist", userID, func(u *models.User) error {
		kept := u.Playlist[:0]
		for _, item := range u.Playlist {
			if item.CourseID != courseID {
				kept = append(kept, item)
			}
		}
		u.Playlist = kept
		return nil
	})
}
