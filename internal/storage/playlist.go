package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/course-seller/internal/models"
)

func (s *Storage) playlist(ctx context.Context, userID string) ([]models.PlaylistItem, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT course_id, poster FROM playlist_items
		WHERE user_id = $1
		ORDER BY added_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.PlaylistItem{}
	for rows.Next() {
		var item models.PlaylistItem
		if err := rows.Scan(&item.CourseID, &item.Poster); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// AddToPlaylist добавляет курс в плейлист. Повторное добавление возвращает ErrPlaylistItemExists.
func (s *Storage) AddToPlaylist(ctx context.Context, userID string, item models.PlaylistItem) error {
	const op = "storage.AddToPlaylist"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO playlist_items (user_id, course_id, poster)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING`, userID, item.CourseID, item.Poster)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrPlaylistItemExists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveFromPlaylist удаляет курс из плейлиста. Отсутствие курса не считается ошибкой.
func (s *Storage) RemoveFromPlaylist(ctx context.Context, userID, courseID string) error {
	const op = "storage.RemoveFromPlaylist"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := s.DB.ExecContext(ctx, `
		DELETE FROM playlist_items WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
