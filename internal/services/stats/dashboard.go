package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/course-seller/internal/cache"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/models"
)

const (
	dashboardSize     = 12
	dashboardCacheTTL = time.Minute
)

// Dashboard сводка для панели администратора.
type Dashboard struct {
	Stats                  []models.Stats `json:"stats"`
	UsersCount             int            `json:"usersCount"`
	SubscriptionCount      int            `json:"subscriptionCount"`
	ViewsCount             int            `json:"viewsCount"`
	UsersPercentage        float64        `json:"usersPercentage"`
	SubscriptionPercentage float64        `json:"subscriptionPercentage"`
	ViewsPercentage        float64        `json:"viewsPercentage"`
	UsersProfit            bool           `json:"usersProfit"`
	SubscriptionProfit     bool           `json:"subscriptionProfit"`
	ViewsProfit            bool           `json:"viewsProfit"`
}

// Dashboard возвращает последние 12 снимков, дополненные нулевыми в начале,
// текущие значения и изменение относительно предыдущего снимка.
func (a *Aggregator) Dashboard(ctx context.Context) (*Dashboard, error) {
	const op = "stats.Dashboard"

	var cached Dashboard
	found, err := a.cache.Get(ctx, cache.DashboardKey, &cached)
	if err != nil {
		a.log.Warn("dashboard cache read failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	list, err := a.repo.ListStats(ctx, dashboardSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d := buildDashboard(list)
	if err := a.cache.Set(ctx, cache.DashboardKey, d, dashboardCacheTTL); err != nil {
		a.log.Warn("dashboard cache write failed", slog.String("key", cache.DashboardKey), sl.Err(err))
	}
	return d, nil
}

func buildDashboard(list []*models.Stats) *Dashboard {
	rows := make([]models.Stats, dashboardSize-len(list), dashboardSize)
	for _, st := range list {
		rows = append(rows, *st)
	}

	current, previous := rows[dashboardSize-1], rows[dashboardSize-2]
	d := &Dashboard{
		Stats:             rows,
		UsersCount:        current.Users,
		SubscriptionCount: current.Subscriptions,
		ViewsCount:        current.Views,
	}
	d.UsersPercentage, d.UsersProfit = change(previous.Users, current.Users)
	d.SubscriptionPercentage, d.SubscriptionProfit = change(previous.Subscriptions, current.Subscriptions)
	d.ViewsPercentage, d.ViewsProfit = change(previous.Views, current.Views)
	return d
}

// change считает процентное изменение. При нулевом предыдущем значении
// процент равен current*100.
func change(previous, current int) (float64, bool) {
	var pct float64
	if previous == 0 {
		pct = float64(current) * 100
	} else {
		pct = float64(current-previous) / float64(previous) * 100
	}
	return pct, pct >= 0
}
