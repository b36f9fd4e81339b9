package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fournil-app/fournil/internal/config"
	"github.com/fournil-app/fournil/internal/notify"
	"github.com/fournil-app/fournil/internal/payments"
	"github.com/fournil-app/fournil/internal/plans"
	"github.com/fournil-app/fournil/internal/postgres"
	redisx "github.com/fournil-app/fournil/internal/redis"
	postgresrepo "github.com/fournil-app/fournil/internal/repository/postgres"
	redisrepo "github.com/fournil-app/fournil/internal/repository/redis"
	"github.com/fournil-app/fournil/internal/service"
	"github.com/fournil-app/fournil/internal/service/booking"
	"github.com/fournil-app/fournil/internal/service/orders"
	"github.com/fournil-app/fournil/internal/service/webhook"
	httpgin "github.com/fournil-app/fournil/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize dependencies
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.Name,
		cfg.Postgres.SSLMode,
	)

	pgxPool, err := postgres.New(context.Background(), postgres.Config{DSN: dsn})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redisx.New(context.Background(), redisx.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	// Initialize repositories
	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	pubsub := redisx.NewWorkshopsPubSub(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "rl", 10, 1*time.Minute)
	idempotencyStore := redisrepo.NewIdempotencyStore(rdb, 2*time.Hour)

	// Payment provider and plan table
	pay := payments.New(payments.Config{
		SecretKey:  cfg.Stripe.SecretKey,
		Currency:   cfg.Stripe.Currency,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	})
	planTable := plans.New(plans.PriceIDs{
		ArtisanMonthly: cfg.Plans.ArtisanMonthlyPriceID,
		ArtisanYearly:  cfg.Plans.ArtisanYearlyPriceID,
		MaisonMonthly:  cfg.Plans.MaisonMonthlyPriceID,
		MaisonYearly:   cfg.Plans.MaisonYearlyPriceID,
	})

	dispatcher := notify.NewLogDispatcher(logger)

	// Initialize services
	services := service.NewServices(
		store, cache, pubsub, limiter, idempotencyStore, pay, planTable, dispatcher, logger,
		service.Config{
			Booking: booking.Config{Currency: cfg.Stripe.Currency},
			Orders:  orders.Config{Currency: cfg.Stripe.Currency},
			Webhook: webhook.Config{
				SigningSecret: cfg.Stripe.WebhookSecret,
				Currency:      cfg.Stripe.Currency,
			},
		},
	)

	// Initialize Gin router
	router := httpgin.NewRouter(services, idempotencyStore, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server
	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
