package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adee-tech/adee-backend/api/controllers"
	webhookcontrollers "github.com/adee-tech/adee-backend/api/controllers/webhooks"
	"github.com/adee-tech/adee-backend/api/middleware"
	"github.com/adee-tech/adee-backend/internal/adverts"
	"github.com/adee-tech/adee-backend/internal/auth"
	"github.com/adee-tech/adee-backend/internal/chats"
	"github.com/adee-tech/adee-backend/internal/favorites"
	"github.com/adee-tech/adee-backend/internal/payments"
	"github.com/adee-tech/adee-backend/internal/reviews"
	"github.com/adee-tech/adee-backend/internal/stats"
	"github.com/adee-tech/adee-backend/internal/users"
	stripewebhook "github.com/adee-tech/adee-backend/internal/webhooks/stripe"
	"github.com/adee-tech/adee-backend/pkg/config"
	"github.com/adee-tech/adee-backend/pkg/db"
	"github.com/adee-tech/adee-backend/pkg/logger"
	"github.com/adee-tech/adee-backend/pkg/metrics"
	"github.com/adee-tech/adee-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry
	Metrics  *metrics.HTTPMetrics

	AuthService      auth.Service
	UserService      users.Service
	AdvertService    adverts.Service
	FavoriteService  favorites.Service
	ReviewService    reviews.Service
	ChatService      chats.Service
	PaymentService   payments.Service
	StatsService     *stats.Service
	StripeWebhook    *stripewebhook.Service
	StripeWebhookGrd *stripewebhook.IdempotencyGuard
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(d.Metrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	forgotPolicy := middleware.NewAuthRateLimitPolicy(
		"forgot",
		cfg.AuthRateLimit.ForgotWindow,
		cfg.AuthRateLimit.ForgotIPLimit,
		cfg.AuthRateLimit.ForgotEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhook, cfg.Stripe.WebhookSecret, d.StripeWebhookGrd, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.AuthService, logg))
		r.Post("/verify-email", controllers.AuthVerifyEmail(d.AuthService, logg))
		r.With(middleware.AuthRateLimit(forgotPolicy, d.Redis, logg)).Post("/forgot-password", controllers.AuthForgotPassword(d.AuthService, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(d.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.AuthService, logg))
			r.Post("/logout", controllers.AuthLogout(d.AuthService, logg))
			r.Post("/resend-verification", controllers.AuthResendVerification(d.AuthService, logg))
		})
	})

	// Public reads. Credentials, when present, personalize the response.
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalAuth(d.AuthService, logg))

		r.Get("/api/v1/stats", controllers.StatsOverview(d.StatsService, logg))

		r.Route("/api/v1/adverts", func(r chi.Router) {
			r.Get("/", controllers.AdvertList(d.AdvertService, logg))
			r.Get("/search", controllers.AdvertSearch(d.AdvertService, d.Metrics, logg))
			r.Get("/{advertId}", controllers.AdvertGet(d.AdvertService, logg))
			r.Get("/{advertId}/similar", controllers.AdvertSimilar(d.AdvertService, logg))
			r.Get("/{advertId}/review", controllers.ReviewForAdvert(d.ReviewService, logg))
		})

		r.Route("/api/v1/users/{userId}", func(r chi.Router) {
			r.Get("/", controllers.UserGet(d.UserService, logg))
			r.Get("/reviews", controllers.ReviewsForOwner(d.ReviewService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(d.AuthService, logg))

		r.Route("/me", func(r chi.Router) {
			r.Get("/", controllers.UserMe(d.UserService, logg))
			r.Patch("/", controllers.UserUpdateProfile(d.UserService, logg))
			r.Get("/adverts", controllers.AdvertListMine(d.AdvertService, logg))
			r.Get("/payments", controllers.PaymentList(d.PaymentService, logg))
			r.Post("/payments", controllers.PaymentCreate(d.PaymentService, logg))
		})

		r.Route("/adverts", func(r chi.Router) {
			r.Post("/", controllers.AdvertCreate(d.AdvertService, logg))
			r.Patch("/{advertId}", controllers.AdvertUpdate(d.AdvertService, logg))
			r.Delete("/{advertId}", controllers.AdvertDelete(d.AdvertService, logg))
			r.Post("/{advertId}/favorite", controllers.FavoriteAdd(d.FavoriteService, logg))
			r.Delete("/{advertId}/favorite", controllers.FavoriteRemove(d.FavoriteService, logg))
			r.Post("/{advertId}/review", controllers.ReviewWrite(d.ReviewService, logg))
			r.Post("/{advertId}/chat", controllers.ChatStart(d.ChatService, logg))
		})

		r.Get("/favorites", controllers.FavoriteList(d.FavoriteService, logg))

		r.Route("/chats", func(r chi.Router) {
			r.Get("/", controllers.ChatList(d.ChatService, logg))
			r.Get("/{chatId}/messages", controllers.ChatMessages(d.ChatService, logg))
			r.Post("/{chatId}/messages", controllers.ChatSendMessage(d.ChatService, logg))
			r.Route("/{chatId}/deal", func(r chi.Router) {
				r.Post("/", controllers.DealRequest(d.ChatService, logg))
				r.Post("/stop", controllers.DealStop(d.ChatService, logg))
				r.Post("/decline", controllers.DealDecline(d.ChatService, logg))
				r.Post("/accept", controllers.DealAccept(d.ChatService, logg))
				r.Post("/complete", controllers.DealComplete(d.ChatService, logg))
			})
		})

		r.Post("/users/{userId}/ban", controllers.UserSetBanned(d.UserService, logg))
	})

	return r
}
