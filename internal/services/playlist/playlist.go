// Package playlist управляет сохранёнными курсами пользователя.
package playlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

// Repository операции хранилища над плейлистом.
type Repository interface {
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	AddToPlaylist(ctx context.Context, userID string, item models.PlaylistItem) error
	RemoveFromPlaylist(ctx context.Context, userID, courseID string) error
}

// Service операции над плейлистом.
type Service struct {
	repo Repository
}

// New создает новый экземпляр Service.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) course(ctx context.Context, op, courseID string) (*models.Course, error) {
	if courseID == "" {
		return nil, apperr.Validation("Course id is required")
	}
	course, err := s.repo.GetCourse(ctx, courseID)
	if errors.Is(err, storage.ErrCourseNotFound) {
		return nil, apperr.NotFound("Invalid Course Id")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return course, nil
}

// Add добавляет курс в плейлист со снимком URL постера на момент добавления.
func (s *Service) Add(ctx context.Context, userID, courseID string) error {
	const op = "playlist.Add"

	course, err := s.course(ctx, op, courseID)
	if err != nil {
		return err
	}

	err = s.repo.AddToPlaylist(ctx, userID, models.PlaylistItem{CourseID: course.ID, Poster: course.Poster.URL})
	if errors.Is(err, storage.ErrPlaylistItemExists) {
		return apperr.Conflict("Item Already Exist")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Remove убирает курс из плейлиста. Курс должен существовать в каталоге,
// отсутствие его в плейлисте ошибкой не считается.
func (s *Service) Remove(ctx context.Context, userID, courseID string) error {
	const op = "playlist.Remove"

	course, err := s.course(ctx, op, courseID)
	if err != nil {
		return err
	}
	if err := s.repo.RemoveFromPlaylist(ctx, userID, course.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
