package memory

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

func (s *Store) LatestStats(ctx context.Context) (*models.Stats, error) {
	const op = "memory.LatestStats"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.stats) == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrStatsNotFound)
	}
	cp := *s.stats[len(s.stats)-1]
	return &cp, nil
}

func (s *Store) CreateStats(ctx context.Context, st *models.Stats) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory.CreateStats: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = s.now()
	}
	st.ID = int64(len(s.stats) + 1)
	cp := *st
	s.stats = append(s.stats, &cp)
	return nil
}

func (s *Store) UpdateStats(ctx context.Context, st *models.Stats) error {
	const op = "memory.UpdateStats"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.stats {
		if existing.ID == st.ID {
			existing.Users = st.Users
			existing.Subscriptions = st.Subscriptions
			existing.Views = st.Views
			if !st.CreatedAt.IsZero() {
				existing.CreatedAt = st.CreatedAt
			}
			return nil
		}
	}
	return fmt.Errorf("%s: %w", op, storage.ErrStatsNotFound)
}

func (s *Store) ListStats(ctx context.Context, limit int) ([]*models.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory.ListStats: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	start := 0
	if limit > 0 && len(s.stats) > limit {
		start = len(s.stats) - limit
	}
	list := make([]*models.Stats, 0, len(s.stats)-start)
	for _, st := range s.stats[start:] {
		cp := *st
		list = append(list, &cp)
	}
	return list, nil
}
