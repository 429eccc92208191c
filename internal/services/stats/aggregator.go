// Package stats пересчитывает снимки статистики платформы по событиям
// хранилища и собирает данные для панели администратора.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/course-seller/internal/cache"
	"github.com/magabrotheeeer/course-seller/internal/events"
	"github.com/magabrotheeeer/course-seller/internal/lib/month"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/metrics"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

// Repository операции хранилища для агрегатора и панели.
type Repository interface {
	CountUsers(ctx context.Context) (int, error)
	CountActiveSubscriptions(ctx context.Context) (int, error)
	SumCourseViews(ctx context.Context) (int, error)
	LatestStats(ctx context.Context) (*models.Stats, error)
	CreateStats(ctx context.Context, s *models.Stats) error
	UpdateStats(ctx context.Context, s *models.Stats) error
	ListStats(ctx context.Context, limit int) ([]*models.Stats, error)
}

// Aggregator поддерживает актуальный снимок статистики.
//
// Снимок текущего месяца перезаписывается, в новом месяце добавляется новый.
// Параллельные пересчёты не синхронизируются: побеждает последняя запись.
type Aggregator struct {
	repo     Repository
	cache    cache.Store
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// NewAggregator создает агрегатор. interval задаёт период пересчёта без событий.
func NewAggregator(log *slog.Logger, repo Repository, c cache.Store, interval time.Duration) *Aggregator {
	return &Aggregator{
		repo:     repo,
		cache:    c,
		interval: interval,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Refresh пересчитывает счётчики полным сканированием хранилища.
func (a *Aggregator) Refresh(ctx context.Context) error {
	const op = "stats.Refresh"

	snapshot, err := a.count(ctx)
	if err != nil {
		metrics.StatsRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	snapshot.CreatedAt = a.now()

	latest, err := a.repo.LatestStats(ctx)
	switch {
	case errors.Is(err, storage.ErrStatsNotFound):
		err = a.repo.CreateStats(ctx, snapshot)
	case err != nil:
	case month.Same(latest.CreatedAt, snapshot.CreatedAt):
		snapshot.ID = latest.ID
		err = a.repo.UpdateStats(ctx, snapshot)
	default:
		err = a.repo.CreateStats(ctx, snapshot)
	}
	if err != nil {
		metrics.StatsRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.cache.Invalidate(ctx, cache.DashboardKey); err != nil {
		a.log.Warn("failed to invalidate dashboard cache", sl.Err(err))
	}
	metrics.StatsRefreshes.WithLabelValues("ok").Inc()
	a.log.Debug("stats refreshed",
		slog.Int("users", snapshot.Users),
		slog.Int("subscriptions", snapshot.Subscriptions),
		slog.Int("views", snapshot.Views),
	)
	return nil
}

func (a *Aggregator) count(ctx context.Context) (*models.Stats, error) {
	users, err := a.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := a.repo.CountActiveSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	views, err := a.repo.SumCourseViews(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Stats{Users: users, Subscriptions: subs, Views: views}, nil
}

// Run обрабатывает события до закрытия канала или отмены ctx. Накопившиеся
// события схлопываются в один пересчёт. По таймеру пересчёт выполняется и без событий.
func (a *Aggregator) Run(ctx context.Context, in <-chan events.Event) {
	var tick <-chan time.Time
	if a.interval > 0 {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	a.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-in:
			if !ok {
				return
			}
			drain(in)
			a.refresh(ctx)
		case <-tick:
			a.refresh(ctx)
		}
	}
}

func drain(in <-chan events.Event) {
	for {
		select {
		case _, ok := <-in:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (a *Aggregator) refresh(ctx context.Context) {
	if err := a.Refresh(ctx); err != nil && ctx.Err() == nil {
		a.log.Error("stats refresh failed", sl.Err(err))
	}
}

// HandleMessage обрабатывает событие из очереди RabbitMQ.
func (a *Aggregator) HandleMessage(body []byte) error {
	const op = "stats.HandleMessage"

	var e events.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if e.Kind == "" {
		return fmt.Errorf("%s: event kind is empty", op)
	}
	return a.Refresh(context.Background())
}
