// Package courses реализует каталог курсов и управление лекциями.
package courses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/cache"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/media"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

const (
	titleMinLen       = 4
	titleMaxLen       = 80
	descriptionMinLen = 20
	courseCacheTTL    = 10 * time.Minute
)

// Repository операции хранилища над курсами.
type Repository interface {
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error)
	CreateCourse(ctx context.Context, c *models.Course) error
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	IncrementViews(ctx context.Context, id string) error
	AddLecture(ctx context.Context, courseID string, l *models.Lecture) error
	DeleteLecture(ctx context.Context, courseID, lectureID string) error
	DeleteCourse(ctx context.Context, id string) error
}

// CreateInput поля нового курса.
type CreateInput struct {
	Title       string
	Description string
	Category    string
	CreatedBy   string
}

// Service бизнес-логика каталога с кешированием лекций.
type Service struct {
	repo  Repository
	media media.Uploader
	cache cache.Store
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(log *slog.Logger, repo Repository, uploader media.Uploader, c cache.Store) *Service {
	return &Service{
		repo:  repo,
		media: uploader,
		cache: c,
		log:   log,
	}
}

// List возвращает курсы без лекций с фильтром по названию и категории.
func (s *Service) List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	const op = "courses.List"

	list, err := s.repo.ListCourses(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

func validateCourse(in CreateInput) error {
	if in.Title == "" || in.Description == "" || in.Category == "" || in.CreatedBy == "" {
		return apperr.Validation("Please add all fields")
	}
	if n := utf8.RuneCountInString(in.Title); n < titleMinLen || n > titleMaxLen {
		return apperr.Validation(fmt.Sprintf("Title must be between %d and %d characters", titleMinLen, titleMaxLen))
	}
	if utf8.RuneCountInString(in.Description) < descriptionMinLen {
		return apperr.Validation(fmt.Sprintf("Description must be at least %d characters", descriptionMinLen))
	}
	return nil
}

// Create сохраняет курс с загруженным постером.
func (s *Service) Create(ctx context.Context, in CreateInput, poster *media.File) (*models.Course, error) {
	const op = "courses.Create"

	if err := validateCourse(in); err != nil {
		return nil, err
	}
	if poster == nil {
		return nil, apperr.Validation("Please add all fields")
	}

	asset, err := s.media.Upload(ctx, media.FolderPosters, poster.Body, poster.Name, poster.ContentType)
	if err != nil {
		return nil, apperr.Upstream("failed to upload poster", err)
	}

	course := &models.Course{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		CreatedBy:   in.CreatedBy,
		Poster:      asset,
		Lectures:    []models.Lecture{},
	}
	if err := s.repo.CreateCourse(ctx, course); err != nil {
		s.releaseAsset(ctx, asset.PublicID)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return course, nil
}

func (s *Service) getCourse(ctx context.Context, op, id string) (*models.Course, error) {
	course, err := s.repo.GetCourse(ctx, id)
	if errors.Is(err, storage.ErrCourseNotFound) {
		return nil, apperr.NotFound("Course not found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return course, nil
}

// Lectures возвращает лекции курса и увеличивает счётчик просмотров.
// Доступ подписчиков проверяется до вызова.
func (s *Service) Lectures(ctx context.Context, courseID string) ([]models.Lecture, error) {
	const op = "courses.Lectures"

	var course models.Course
	found, err := s.cache.Get(ctx, cache.CourseKey(courseID), &course)
	if err != nil {
		s.log.Warn("course cache read failed", slog.String("course_id", courseID), sl.Err(err))
	}
	if !found {
		loaded, err := s.getCourse(ctx, op, courseID)
		if err != nil {
			return nil, err
		}
		course = *loaded
		if err := s.cache.Set(ctx, cache.CourseKey(courseID), course, courseCacheTTL); err != nil {
			s.log.Warn("course cache write failed", slog.String("course_id", courseID), sl.Err(err))
		}
	}

	if err := s.repo.IncrementViews(ctx, courseID); err != nil {
		if errors.Is(err, storage.ErrCourseNotFound) {
			s.invalidate(ctx, courseID)
			return nil, apperr.NotFound("Course not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if course.Lectures == nil {
		course.Lectures = []models.Lecture{}
	}
	return course.Lectures, nil
}

// AddLecture загружает видео и добавляет лекцию в конец курса.
func (s *Service) AddLecture(ctx context.Context, courseID, title, description string, video *media.File) (*models.Lecture, error) {
	const op = "courses.AddLecture"

	if title == "" || description == "" || video == nil {
		return nil, apperr.Validation("Please add all fields")
	}
	if _, err := s.getCourse(ctx, op, courseID); err != nil {
		return nil, err
	}

	asset, err := s.media.Upload(ctx, media.FolderVideos, video.Body, video.Name, video.ContentType)
	if err != nil {
		return nil, apperr.Upstream("failed to upload video", err)
	}

	lecture := &models.Lecture{Title: title, Description: description, Video: asset}
	if err := s.repo.AddLecture(ctx, courseID, lecture); err != nil {
		s.releaseAsset(ctx, asset.PublicID)
		if errors.Is(err, storage.ErrCourseNotFound) {
			return nil, apperr.NotFound("Course not found")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.invalidate(ctx, courseID)
	return lecture, nil
}

// DeleteLecture удаляет лекцию и её видео.
func (s *Service) DeleteLecture(ctx context.Context, courseID, lectureID string) error {
	const op = "courses.DeleteLecture"

	if courseID == "" || lectureID == "" {
		return apperr.Validation("Course id and lecture id are required")
	}
	course, err := s.getCourse(ctx, op, courseID)
	if err != nil {
		return err
	}

	var video string
	found := false
	for _, l := range course.Lectures {
		if l.ID == lectureID {
			video = l.Video.PublicID
			found = true
			break
		}
	}
	if !found {
		return apperr.NotFound("Lecture not found")
	}

	if err := s.repo.DeleteLecture(ctx, courseID, lectureID); err != nil {
		if errors.Is(err, storage.ErrLectureNotFound) {
			return apperr.NotFound("Lecture not found")
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.releaseAsset(ctx, video)
	s.invalidate(ctx, courseID)
	return nil
}

// DeleteCourse удаляет курс, затем постер и видео лекций. Файлы освобождаются
// только после удаления записи, ошибки их удаления не возвращаются.
func (s *Service) DeleteCourse(ctx context.Context, id string) error {
	const op = "courses.DeleteCourse"

	course, err := s.getCourse(ctx, op, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteCourse(ctx, id); err != nil {
		if errors.Is(err, storage.ErrCourseNotFound) {
			return apperr.NotFound("Course not found")
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.releaseAsset(ctx, course.Poster.PublicID)
	for _, l := range course.Lectures {
		s.releaseAsset(ctx, l.Video.PublicID)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, courseID string) {
	if err := s.cache.Invalidate(ctx, cache.CourseKey(courseID)); err != nil {
		s.log.Warn("course cache invalidation failed", slog.String("course_id", courseID), sl.Err(err))
	}
}

func (s *Service) releaseAsset(ctx context.Context, publicID string) {
	if publicID == "" {
		return
	}
	if err := s.media.Delete(ctx, publicID); err != nil {
		s.log.Warn("failed to release media asset", slog.String("public_id", publicID), sl.Err(err))
	}
}
