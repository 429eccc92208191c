// Package bootstrap собирает инфраструктурные зависимости по конфигу:
// хранилище, кеш и публикацию событий. Используется обоими бинарниками.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/course-seller/internal/cache"
	"github.com/magabrotheeeer/course-seller/internal/config"
	"github.com/magabrotheeeer/course-seller/internal/events"
	"github.com/magabrotheeeer/course-seller/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/course-seller/internal/migrations"
	"github.com/magabrotheeeer/course-seller/internal/storage"
	"github.com/magabrotheeeer/course-seller/internal/storage/memory"
)

// Драйверы хранилища.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// OpenStore открывает хранилище. Для postgres применяет миграции.
func OpenStore(cfg config.Storage, publisher events.Publisher, log *slog.Logger) (storage.Repository, error) {
	const op = "bootstrap.OpenStore"

	switch cfg.Driver {
	case DriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(publisher), nil
	case DriverPostgres, "":
		db, err := storage.New(cfg.ConnectionString, publisher, log)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Driver)
	}
}

// OpenCache подключает redis. Без адреса возвращает кеш-заглушку.
func OpenCache(ctx context.Context, cfg config.RedisConnection, log *slog.Logger) (cache.Store, func() error, error) {
	if cfg.Address == "" {
		log.Info("redis address is empty, cache disabled")
		return cache.Noop{}, func() error { return nil }, nil
	}
	c, err := cache.InitServer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap.OpenCache: %w", err)
	}
	return c, c.Close, nil
}

// Broker соединение с RabbitMQ и канал с объявленной очередью статистики.
type Broker struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
	cfg  config.RabbitMQ
}

// OpenBroker подключается к RabbitMQ и объявляет обменник и очередь событий.
func OpenBroker(cfg config.RabbitMQ) (*Broker, error) {
	const op = "bootstrap.OpenBroker"

	conn, err := rabbitmq.Connect(cfg.URL, cfg.MaxRetries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, []rabbitmq.QueueConfig{
		{QueueName: cfg.Queue, RoutingKey: cfg.RoutingKey},
	})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Broker{Conn: conn, Ch: ch, cfg: cfg}, nil
}

// Publisher публикует события в обменник брокера.
func (b *Broker) Publisher() *events.AMQPPublisher {
	return events.NewAMQPPublisher(b.Ch, b.cfg.Exchange, b.cfg.RoutingKey)
}

// Close закрывает канал и соединение.
func (b *Broker) Close() error {
	chErr := b.Ch.Close()
	if err := b.Conn.Close(); err != nil {
		return err
	}
	return chErr
}
