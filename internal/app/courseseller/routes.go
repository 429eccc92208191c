package courseseller

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/course-seller/docs"
	"github.com/magabrotheeeer/course-seller/internal/config"
	"github.com/magabrotheeeer/course-seller/internal/http/handlers/admin"
	"github.com/magabrotheeeer/course-seller/internal/http/handlers/course"
	"github.com/magabrotheeeer/course-seller/internal/http/handlers/other"
	"github.com/magabrotheeeer/course-seller/internal/http/handlers/payment"
	playlisthandler "github.com/magabrotheeeer/course-seller/internal/http/handlers/playlist"
	"github.com/magabrotheeeer/course-seller/internal/http/handlers/user"
	"github.com/magabrotheeeer/course-seller/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-seller/internal/metrics"
	"github.com/magabrotheeeer/course-seller/internal/services/auth"
	"github.com/magabrotheeeer/course-seller/internal/services/courses"
	"github.com/magabrotheeeer/course-seller/internal/services/playlist"
	"github.com/magabrotheeeer/course-seller/internal/services/sender"
	"github.com/magabrotheeeer/course-seller/internal/services/stats"
	"github.com/magabrotheeeer/course-seller/internal/services/subscription"
	"github.com/magabrotheeeer/course-seller/internal/services/users"
)

type services struct {
	gate         *auth.Gate
	users        *users.Service
	courses      *courses.Service
	playlist     *playlist.Service
	subscription *subscription.Service
	dashboard    *stats.Aggregator
	mailer       sender.Mailer
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, svc services, cookies middlewarectx.SessionCookies) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{cfg.FrontendURL},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)

	userHandler := user.New(logger, svc.users, cookies)
	courseHandler := course.New(logger, svc.courses)
	playlistHandler := playlisthandler.New(logger, svc.playlist)
	paymentHandler := payment.New(logger, svc.subscription, cfg.FrontendURL)
	adminHandler := admin.New(logger, svc.users, svc.dashboard)
	otherHandler := other.New(logger, svc.mailer)

	authenticated := middlewarectx.JWTMiddleware(svc.gate, logger)
	limited := middlewarectx.RateLimitMiddleware(logger, cfg.HTTPServer.RateLimit, cfg.HTTPServer.RateBurst)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/logout", userHandler.Logout)
		r.Get("/courses", courseHandler.List)
		r.Get("/razorpaykey", paymentHandler.Key)

		// Учётные данные и формы, ограничение частоты
		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/register", userHandler.Register)
			r.Post("/login", userHandler.Login)
			r.Post("/forgetpassword", userHandler.ForgetPassword)
			r.Put("/resetpassword/{token}", userHandler.ResetPassword)
			r.Post("/contact", otherHandler.Contact)
			r.Post("/courserequest", otherHandler.RequestCourse)
		})

		// Группа с аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Get("/me", userHandler.Me)
			r.Delete("/me", userHandler.DeleteMe)
			r.Put("/changepassword", userHandler.ChangePassword)
			r.Put("/updateprofile", userHandler.UpdateProfile)
			r.Put("/updateprofilepicture", userHandler.UpdateProfilePicture)

			r.Post("/addtoplaylist", playlistHandler.Add)
			r.Delete("/removefromplaylist", playlistHandler.Remove)

			r.Get("/subscribe", paymentHandler.Subscribe)
			r.Post("/paymentverification", paymentHandler.Verify)
			r.Delete("/subscribe/cancel", paymentHandler.Cancel)

			r.With(middlewarectx.SubscriberOnly(logger)).Get("/course/{id}", courseHandler.Lectures)

			// Администрирование
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Post("/createcourse", courseHandler.Create)
				r.Post("/course/{id}", courseHandler.AddLecture)
				r.Delete("/course/{id}", courseHandler.DeleteCourse)
				r.Delete("/lecture", courseHandler.DeleteLecture)

				r.Get("/admin/users", adminHandler.ListUsers)
				r.Put("/admin/user/{id}", adminHandler.UpdateRole)
				r.Delete("/admin/user/{id}", adminHandler.DeleteUser)
				r.Get("/admin/stats", adminHandler.Stats)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
