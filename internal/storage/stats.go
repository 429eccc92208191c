package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/course-seller/internal/models"
)

const statsColumns = `id, users, subscriptions, views, created_at`

func scanStats(row rowScanner) (*models.Stats, error) {
	var st models.Stats
	if err := row.Scan(&st.ID, &st.Users, &st.Subscriptions, &st.Views, &st.CreatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// LatestStats возвращает последний снимок статистики.
func (s *Storage) LatestStats(ctx context.Context) (*models.Stats, error) {
	const op = "storage.LatestStats"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+statsColumns+` FROM stats ORDER BY created_at DESC, id DESC LIMIT 1`)
	st, err := scanStats(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrStatsNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// CreateStats добавляет новый снимок.
func (s *Storage) CreateStats(ctx context.Context, st *models.Stats) error {
	const op = "storage.CreateStats"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}

	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO stats (users, subscriptions, views, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, st.Users, st.Subscriptions, st.Views, st.CreatedAt).Scan(&st.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdateStats перезаписывает счётчики и время существующего снимка.
func (s *Storage) UpdateStats(ctx context.Context, st *models.Stats) error {
	const op = "storage.UpdateStats"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.DB.ExecContext(ctx, `
		UPDATE stats SET users = $2, subscriptions = $3, views = $4, created_at = $5 WHERE id = $1`,
		st.ID, st.Users, st.Subscriptions, st.Views, st.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res, ErrStatsNotFound); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListStats возвращает не более limit последних снимков в хронологическом порядке.
func (s *Storage) ListStats(ctx context.Context, limit int) ([]*models.Stats, error) {
	const op = "storage.ListStats"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT `+statsColumns+` FROM (
			SELECT `+statsColumns+` FROM stats ORDER BY created_at DESC, id DESC LIMIT $1
		) recent
		ORDER BY created_at, id`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	list := []*models.Stats{}
	for rows.Next() {
		st, err := scanStats(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list = append(list, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}
