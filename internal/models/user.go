// Package models содержит доменные структуры платформы: пользователей, курсы,
// платежи и снимки статистики.
package models

import "time"

// Роли пользователя.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Статусы подписки.
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
)

// Asset ссылка на файл в медиа-хранилище.
type Asset struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Subscription подписка пользователя в платёжном шлюзе.
type Subscription struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
}

// IsActive сообщает, открывает ли подписка доступ к лекциям.
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

// PlaylistItem курс в плейлисте пользователя. Poster копируется при добавлении
// и не синхронизируется с последующими изменениями постера курса.
type PlaylistItem struct {
	CourseID string `json:"course"`
	Poster   string `json:"poster"`
}

// User зарегистрированный пользователь.
// PasswordHash и данные сброса пароля никогда не сериализуются.
type User struct {
	ID                  string         `json:"_id"`
	Name                string         `json:"name"`
	Email               string         `json:"email"`
	PasswordHash        string         `json:"-"`
	Role                string         `json:"role"`
	Subscription        Subscription   `json:"subscription"`
	Avatar              Asset          `json:"avatar"`
	Playlist            []PlaylistItem `json:"playlist"`
	ResetPasswordToken  string         `json:"-"`
	ResetPasswordExpire *time.Time     `json:"-"`
	CreatedAt           time.Time      `json:"createdAt"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasInPlaylist проверяет наличие курса в плейлисте.
func (u *User) HasInPlaylist(courseID string) bool {
	for _, item := range u.Playlist {
		if item.CourseID == courseID {
			return true
		}
	}
	return false
}
