// Package statsaggregator отдельный процесс пересчёта статистики по событиям из RabbitMQ.
package statsaggregator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/course-seller/internal/app/bootstrap"
	"github.com/magabrotheeeer/course-seller/internal/config"
	"github.com/magabrotheeeer/course-seller/internal/events"
	"github.com/magabrotheeeer/course-seller/internal/grpc/health"
	"github.com/magabrotheeeer/course-seller/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/services/stats"
)

// App потребитель очереди статистики.
type App struct {
	broker     *bootstrap.Broker
	aggregator *stats.Aggregator
	health     *health.Server
	queue      string
	logger     *slog.Logger
	closers    []func() error
}

// New проверяет конфиг и открывает хранилище, кеш и брокер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "statsaggregator.New"

	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is empty", op)
	}
	// счётчики читаются из той же базы, куда пишет HTTP-приложение
	if cfg.Storage.Driver == bootstrap.DriverMemory {
		return nil, fmt.Errorf("%s: storage driver %q is not shared between processes", op, cfg.Storage.Driver)
	}

	a := &App{logger: logger, queue: cfg.RabbitMQ.Queue}

	repo, err := bootstrap.OpenStore(cfg.Storage, events.Nop{}, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, repo.Close)

	cacheStore, closeCache, err := bootstrap.OpenCache(ctx, cfg.Redis, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, closeCache)

	broker, err := bootstrap.OpenBroker(cfg.RabbitMQ)
	if err != nil {
		a.close()
		return nil, err
	}
	a.broker = broker
	a.closers = append(a.closers, broker.Close)

	if cfg.GRPC.HealthAddress != "" {
		a.health, err = health.New(cfg.GRPC.HealthAddress, "stats-aggregator", logger)
		if err != nil {
			a.close()
			return nil, err
		}
	}

	a.aggregator = stats.NewAggregator(logger, repo, cacheStore, cfg.Stats.RefreshInterval)
	return a, nil
}

// Run потребляет очередь и пересчитывает статистику по таймеру до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.broker.Ch, a.queue, a.aggregator.HandleMessage)
	if err != nil {
		a.logger.Error("failed to start stats consumer", slog.String("queue", a.queue), sl.Err(err))
		return err
	}
	a.logger.Info("stats consumer started", slog.String("queue", a.queue))

	if a.health != nil {
		go func() {
			if err := a.health.Serve(ctx); err != nil {
				a.logger.Error("gRPC health service stopped", sl.Err(err))
			}
		}()
	}

	// события приходят из очереди, локальной шины нет
	a.aggregator.Run(ctx, nil)

	a.logger.Info("stats aggregator shutting down gracefully")
	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
