package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-seller/internal/events"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func (s *Store) ListCourses(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	const op = "memory.ListCourses"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	courses := []*models.Course{}
	for _, c := range s.courses {
		if filter.Keyword != "" && !containsFold(c.Title, filter.Keyword) {
			continue
		}
		if filter.Category != "" && !containsFold(c.Category, filter.Category) {
			continue
		}
		courses = append(courses, copyCourse(c, false))
	}
	s.mu.RUnlock()

	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

func (s *Store) CreateCourse(ctx context.Context, c *models.Course) error {
	const op = "memory.CreateCourse"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	s.mu.Lock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	stored := copyCourse(c, true)
	s.courses[c.ID] = stored
	s.mu.Unlock()

	s.notify(ctx, events.CourseCreated, c.ID)
	return nil
}

func (s *Store) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	const op = "memory.GetCourse"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrCourseNotFound)
	}
	return copyCourse(c, true), nil
}

func (s *Store) mutateCourse(ctx context.Context, op, id string, kind events.Kind, fn func(c *models.Course) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	c, ok := s.courses[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, storage.ErrCourseNotFound)
	}
	err := fn(c)
	c.NumOfVideos = len(c.Lectures)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(ctx, kind, id)
	return nil
}

func (s *Store) IncrementViews(ctx context.Context, id string) error {
	return s.mutateCourse(ctx, "memory.IncrementViews", id, events.CourseViewed, func(c *models.Course) error {
		c.Views++
		return nil
	})
}

func (s *Store) AddLecture(ctx context.Context, courseID string, l *models.Lecture) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return s.mutateCourse(ctx, "memory.AddLecture", courseID, events.CourseUpdated, func(c *models.Course) error {
		c.Lectures = append(c.Lectures, *l)
		return nil
	})
}

func (s *Store) DeleteLecture(ctx context.Context, courseID, lectureID string) error {
	return s.mutateCourse(ctx, "memory.DeleteLecture", courseID, events.CourseUpdated, func(c *models.Course) error {
		for i, l := range c.Lectures {
			if l.ID == lectureID {
				c.Lectures = append(c.Lectures[:i], c.Lectures[i+1:]...)
				return nil
			}
		}
		return storage.ErrLectureNotFound
	})
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	const op = "memory.DeleteCourse"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	if _, ok := s.courses[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, storage.ErrCourseNotFound)
	}
	delete(s.courses, id)
	s.mu.Unlock()

	s.notify(ctx, events.CourseDeleted, id)
	return nil
}

func (s *Store) SumCourseViews(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("memory.SumCourseViews: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, c := range s.courses {
		total += c.Views
	}
	return total, nil
}

// SetClock подменяет источник времени для создаваемых записей.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
