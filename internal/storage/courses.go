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

const courseColumns = `c.id, c.title, c.description, c.poster_public_id, c.poster_url, c.views,
	c.category, c.created_by, c.created_at,
	(SELECT COUNT(*) FROM lectures l WHERE l.course_id = c.id)`

func scanCourse(row rowScanner) (*models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Poster.PublicID, &c.Poster.URL,
		&c.Views, &c.Category, &c.CreatedBy, &c.CreatedAt, &c.NumOfVideos)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCourses возвращает курсы без лекций. Keyword ищется в названии, Category
// в категории, оба без учёта регистра.
func (s *Storage) ListCourses(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	const op = "storage.ListCourses"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+courseColumns+` FROM courses c
		WHERE ($1::text = '' OR c.title ILIKE '%' || $1::text || '%')
		  AND ($2::text = '' OR c.category ILIKE '%' || $2::text || '%')
		ORDER BY c.created_at`, filter.Keyword, filter.Category)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return courses, nil
}

// CreateCourse сохраняет курс без лекций.
func (s *Storage) CreateCourse(ctx context.Context, c *models.Course) error {
	const op = "storage.CreateCourse"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO courses (id, title, description, poster_public_id, poster_url, category, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Title, c.Description, c.Poster.PublicID, c.Poster.URL, c.Category, c.CreatedBy, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.CourseCreated, c.ID)
	return nil
}

// GetCourse возвращает курс вместе с лекциями.
func (s *Storage) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	const op = "storage.GetCourse"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if uuid.Validate(id) != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrCourseNotFound)
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses c WHERE c.id = $1`, id)
	c, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrCourseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, title, description, video_public_id, video_url
		FROM lectures WHERE course_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	c.Lectures = []models.Lecture{}
	for rows.Next() {
		var l models.Lecture
		if err := rows.Scan(&l.ID, &l.Title, &l.Description, &l.Video.PublicID, &l.Video.URL); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c.Lectures = append(c.Lectures, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// IncrementViews увеличивает счётчик просмотров на единицу.
func (s *Storage) IncrementViews(ctx context.Context, id string) error {
	const op = "storage.IncrementViews"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if uuid.Validate(id) != nil {
		return fmt.Errorf("%s: %w", op, ErrCourseNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE courses SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrCourseNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.CourseViewed, id)
	return nil
}

// AddLecture добавляет лекцию в конец курса.
func (s *Storage) AddLecture(ctx context.Context, courseID string, l *models.Lecture) error {
	const op = "storage.AddLecture"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if uuid.Validate(courseID) != nil {
		return fmt.Errorf("%s: %w", op, ErrCourseNotFound)
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO lectures (id, course_id, title, description, video_public_id, video_url)
		SELECT $1, id, $3, $4, $5, $6 FROM courses WHERE id = $2`,
		l.ID, courseID, l.Title, l.Description, l.Video.PublicID, l.Video.URL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrCourseNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.CourseUpdated, courseID)
	return nil
}

// DeleteLecture удаляет лекцию курса.
func (s *Storage) DeleteLecture(ctx context.Context, courseID, lectureID string) error {
	const op = "storage.DeleteLecture"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if uuid.Validate(courseID) != nil {
		return fmt.Errorf("%s: %w", op, ErrCourseNotFound)
	}
	if uuid.Validate(lectureID) != nil {
		return fmt.Errorf("%s: %w", op, ErrLectureNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM lectures WHERE id = $1 AND course_id = $2`, lectureID, courseID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrLectureNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.CourseUpdated, courseID)
	return nil
}

// DeleteCourse удаляет курс вместе с лекциями. Ссылки в плейлистах остаются.
func (s *Storage) DeleteCourse(ctx context.Context, id string) error {
	const op = "storage.DeleteCourse"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if uuid.Validate(id) != nil {
		return fmt.Errorf("%s: %w", op, ErrCourseNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrCourseNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, events.CourseDeleted, id)
	return nil
}

// SumCourseViews возвращает суммарное число просмотров всех курсов.
func (s *Storage) SumCourseViews(ctx context.Context) (int, error) {
	const op = "storage.SumCourseViews"
	return s.count(ctx, op, `SELECT COALESCE(SUM(views), 0) FROM courses`)
}
