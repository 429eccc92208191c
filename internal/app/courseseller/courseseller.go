// Package courseseller собирает HTTP-приложение платформы: хранилище, кеш,
// медиа, платёжный шлюз, почту, события статистики и маршруты.
package courseseller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/course-seller/internal/app/bootstrap"
	"github.com/magabrotheeeer/course-seller/internal/config"
	"github.com/magabrotheeeer/course-seller/internal/events"
	"github.com/magabrotheeeer/course-seller/internal/grpc/health"
	"github.com/magabrotheeeer/course-seller/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-seller/internal/lib/jwt"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/lib/smtp"
	"github.com/magabrotheeeer/course-seller/internal/media"
	"github.com/magabrotheeeer/course-seller/internal/paymentprovider"
	"github.com/magabrotheeeer/course-seller/internal/services/auth"
	"github.com/magabrotheeeer/course-seller/internal/services/courses"
	"github.com/magabrotheeeer/course-seller/internal/services/playlist"
	"github.com/magabrotheeeer/course-seller/internal/services/sender"
	"github.com/magabrotheeeer/course-seller/internal/services/stats"
	"github.com/magabrotheeeer/course-seller/internal/services/subscription"
	"github.com/magabrotheeeer/course-seller/internal/services/users"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

const healthService = "course-seller"

// App HTTP-приложение.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	repo       storage.Repository
	bus        *events.Bus
	aggregator *stats.Aggregator
	health     *health.Server
	closers    []func() error
}

// New собирает зависимости по конфигу. Без RabbitMQ события статистики идут
// через in-process шину, которую обрабатывает агрегатор внутри Run.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}

	var publisher events.Publisher
	if cfg.RabbitMQ.URL == "" {
		a.bus = events.NewBus(cfg.Stats.BufferSize, logger)
		publisher = a.bus
	} else {
		broker, err := bootstrap.OpenBroker(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, broker.Close)
		publisher = broker.Publisher()
	}

	repo, err := bootstrap.OpenStore(cfg.Storage, publisher, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.repo = repo
	a.closers = append(a.closers, repo.Close)

	cacheStore, closeCache, err := bootstrap.OpenCache(ctx, cfg.Redis, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, closeCache)

	var uploader media.Uploader = media.Discard{}
	if cfg.Media.Bucket != "" {
		s3Storage, err := media.New(ctx, cfg.Media)
		if err != nil {
			a.close()
			return nil, err
		}
		uploader = s3Storage
	} else {
		logger.Warn("media bucket is empty, uploaded files are discarded")
	}

	var mailer sender.Mailer = sender.LogOnly{Log: logger}
	if cfg.SMTP.Host != "" {
		mailer = sender.New(logger, smtp.NewTransport(cfg.SMTP, logger), cfg.SMTP.AdminMail)
	}

	tokens := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	gateway := paymentprovider.NewClient(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.APIURL)

	a.aggregator = stats.NewAggregator(logger, repo, cacheStore, cfg.Stats.RefreshInterval)

	svc := services{
		gate:     auth.NewGate(repo, tokens),
		users:    users.New(logger, repo, tokens, uploader, mailer, cfg.FrontendURL),
		courses:  courses.New(logger, repo, uploader, cacheStore),
		playlist: playlist.New(repo),
		subscription: subscription.New(logger, repo, gateway, cfg.Razorpay.KeySecret,
			subscription.Plan{ID: cfg.Razorpay.PlanID, TotalCount: cfg.Razorpay.TotalCount},
			subscription.RefundPolicy{Enabled: cfg.Subscription.RefundEnabled, Window: cfg.Subscription.RefundWindow},
		),
		dashboard: a.aggregator,
		mailer:    mailer,
	}

	if cfg.GRPC.HealthAddress != "" {
		a.health, err = health.New(cfg.GRPC.HealthAddress, healthService, logger)
		if err != nil {
			a.close()
			return nil, err
		}
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, svc, middlewarectx.SessionCookies{
		Secure: cfg.HTTPServer.SecureCookies,
		TTL:    tokens.TTL(),
	})

	a.server = &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return a, nil
}

// Handler корневой обработчик приложения.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// StartAggregator запускает обработку in-process событий статистики.
// Без шины (события идут в RabbitMQ) ничего не делает. Возвращает канал,
// закрываемый после остановки агрегатора.
func (a *App) StartAggregator(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if a.bus == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		a.aggregator.Run(ctx, a.bus.Events())
	}()
	return done
}

// Run запускает сервер и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	aggCtx, stopAggregator := context.WithCancel(context.Background())
	aggDone := a.StartAggregator(aggCtx)

	healthCtx, stopHealth := context.WithCancel(context.Background())
	healthDone := make(chan struct{})
	if a.health != nil {
		go func() {
			defer close(healthDone)
			if err := a.health.Serve(healthCtx); err != nil {
				a.logger.Error("gRPC health service stopped", sl.Err(err))
			}
		}()
	} else {
		close(healthDone)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		stopHealth()
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	// шина закрывается после остановки сервера, чтобы агрегатор успел
	// пересчитать статистику по последним событиям
	if a.bus != nil {
		a.bus.Close()
	}
	select {
	case <-aggDone:
	case <-time.After(5 * time.Second):
		a.logger.Warn("stats aggregator did not stop in time")
	}
	stopAggregator()
	stopHealth()
	<-healthDone

	a.close()
	return err
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}
