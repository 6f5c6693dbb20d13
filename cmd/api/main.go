package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adee-tech/adee-backend/api/routes"
	"github.com/adee-tech/adee-backend/internal/adverts"
	"github.com/adee-tech/adee-backend/internal/auth"
	"github.com/adee-tech/adee-backend/internal/chats"
	"github.com/adee-tech/adee-backend/internal/favorites"
	"github.com/adee-tech/adee-backend/internal/payments"
	"github.com/adee-tech/adee-backend/internal/reviews"
	"github.com/adee-tech/adee-backend/internal/stats"
	"github.com/adee-tech/adee-backend/internal/users"
	stripewebhook "github.com/adee-tech/adee-backend/internal/webhooks/stripe"
	"github.com/adee-tech/adee-backend/pkg/auth/session"
	"github.com/adee-tech/adee-backend/pkg/config"
	"github.com/adee-tech/adee-backend/pkg/db"
	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/logger"
	"github.com/adee-tech/adee-backend/pkg/mailer"
	"github.com/adee-tech/adee-backend/pkg/metrics"
	"github.com/adee-tech/adee-backend/pkg/redis"
)

const (
	shutdownTimeout = 15 * time.Second
	webhookDedupTTL = 24 * time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if cfg.FeatureFlags.AutoMigrate {
		if err := dbClient.DB().AutoMigrate(models.All()...); err != nil {
			logg.Error(context.Background(), "failed to auto-migrate schema", err)
			os.Exit(1)
		}
		logg.Info(context.Background(), "schema auto-migrated")
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	var mailClient *mailer.Client
	if cfg.Mail.APIKey != "" {
		mailClient, err = mailer.NewClient(cfg.Mail)
		if err != nil {
			logg.Error(context.Background(), "failed to create mail client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "mail API key not set, email delivery disabled")
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	usersRepo := users.NewRepository(dbClient.DB())
	advertsRepo := adverts.NewRepository(dbClient.DB())
	favoritesRepo := favorites.NewRepository(dbClient.DB())
	reviewsRepo := reviews.NewRepository(dbClient.DB())
	chatsRepo := chats.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	statsRepo := stats.NewRepository(dbClient.DB())

	authParams := auth.ServiceParams{
		UserRepo:    usersRepo,
		Sessions:    sessionManager,
		Logger:      logg,
		JWTConfig:   cfg.JWT,
		PasswordCfg: cfg.Password,
		PublicURL:   cfg.App.PublicURL,
	}
	if mailClient != nil {
		authParams.Mailer = mailClient
	}
	authService, err := auth.NewService(authParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	advertService, err := adverts.NewService(adverts.ServiceParams{
		AdvertRepo: advertsRepo,
		UserRepo:   usersRepo,
		Ratings:    reviewsRepo,
		Favorites:  favoritesRepo,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create advert service", err)
		os.Exit(1)
	}

	chatService, err := chats.NewService(chats.ServiceParams{
		ChatRepo:   chatsRepo,
		AdvertRepo: advertsRepo,
		Logger:     logg.Base(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create chat service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.ServiceParams{
		UserRepo:    usersRepo,
		Sessions:    sessionManager,
		AdvertPurge: advertsRepo,
		ChatPurge:   chatsRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	favoriteService, err := favorites.NewService(favorites.ServiceParams{
		FavoriteRepo: favoritesRepo,
		Adverts:      advertService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create favorite service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		ReviewRepo: reviewsRepo,
		AdvertRepo: advertsRepo,
		UserRepo:   usersRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		PaymentRepo: paymentsRepo,
		UserRepo:    usersRepo,
		Logger:      logg.Base(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(statsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	stripeWebhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Payments: paymentService,
		Logger:   logg.Base(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
		os.Exit(1)
	}

	stripeWebhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookDedupTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Registry: registry,
		Metrics:  httpMetrics,

		AuthService:      authService,
		UserService:      userService,
		AdvertService:    advertService,
		FavoriteService:  favoriteService,
		ReviewService:    reviewService,
		ChatService:      chatService,
		PaymentService:   paymentService,
		StatsService:     statsService,
		StripeWebhook:    stripeWebhookService,
		StripeWebhookGrd: stripeWebhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stopCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
