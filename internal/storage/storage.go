// Package storage реализует хранилище пользователей, курсов, платежей и
// снимков статистики на PostgreSQL. После каждой успешной мутации публикуется
// событие для агрегатора статистики.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/course-seller/internal/events"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/models"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already taken")
	ErrCourseNotFound     = errors.New("course not found")
	ErrLectureNotFound    = errors.New("lecture not found")
	ErrPlaylistItemExists = errors.New("playlist item already exists")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrStatsNotFound      = errors.New("stats not found")
)

const uniqueViolation = "23505"

// Repository полный набор операций хранилища. Реализуется Storage и memory.Store.
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
	SetSubscription(ctx context.Context, id string, sub models.Subscription) error
	ActivateSubscription(ctx context.Context, id, subscriptionID string) (bool, error)
	CountUsers(ctx context.Context) (int, error)
	CountActiveSubscriptions(ctx context.Context) (int, error)

	AddToPlaylist(ctx context.Context, userID string, item models.PlaylistItem) error
	RemoveFromPlaylist(ctx context.Context, userID, courseID string) error

	ListCourses(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error)
	CreateCourse(ctx context.Context, c *models.Course) error
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	IncrementViews(ctx context.Context, id string) error
	AddLecture(ctx context.Context, courseID string, l *models.Lecture) error
	DeleteLecture(ctx context.Context, courseID, lectureID string) error
	DeleteCourse(ctx context.Context, id string) error
	SumCourseViews(ctx context.Context) (int, error)

	SavePayment(ctx context.Context, p *models.Payment) (bool, error)
	GetPaymentBySubscription(ctx context.Context, subscriptionID string) (*models.Payment, error)

	LatestStats(ctx context.Context) (*models.Stats, error)
	CreateStats(ctx context.Context, s *models.Stats) error
	UpdateStats(ctx context.Context, s *models.Stats) error
	ListStats(ctx context.Context, limit int) ([]*models.Stats, error)

	Close() error
}

// Storage инкапсулирует соединение с PostgreSQL.
type Storage struct {
	DB        *sql.DB
	publisher events.Publisher
	log       *slog.Logger
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string, publisher events.Publisher, log *slog.Logger) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &Storage{
		DB:        db,
		publisher: publisher,
		log:       log,
	}, nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// notify публикует событие. Ошибка публикации не отменяет мутацию.
func (s *Storage) notify(ctx context.Context, kind events.Kind, id string) {
	if err := s.publisher.Publish(ctx, events.New(kind, id)); err != nil {
		s.log.Warn("failed to publish store event", slog.String("kind", string(kind)), sl.Err(err))
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func checkAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
