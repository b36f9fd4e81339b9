package service

import (
	"log/slog"

	"github.com/fournil-app/fournil/internal/notify"
	"github.com/fournil-app/fournil/internal/payments"
	"github.com/fournil-app/fournil/internal/plans"
	redisx "github.com/fournil-app/fournil/internal/redis"
	postgres "github.com/fournil-app/fournil/internal/repository/postgres"
	redis "github.com/fournil-app/fournil/internal/repository/redis"
	"github.com/fournil-app/fournil/internal/service/booking"
	"github.com/fournil-app/fournil/internal/service/orders"
	"github.com/fournil-app/fournil/internal/service/owner"
	"github.com/fournil-app/fournil/internal/service/query"
	"github.com/fournil-app/fournil/internal/service/webhook"
)

type Services struct {
	Booking *booking.Service
	Orders  *orders.Service
	Query   *query.Service
	Owner   *owner.Service
	Webhook *webhook.Service
}

type Config struct {
	Booking booking.Config
	Orders  orders.Config
	Query   query.Config
	Webhook webhook.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redisx.WorkshopsPubSub,
	limiter *redis.SlidingWindowLimiter,
	idem *redis.IdempotencyStore,
	pay *payments.Client,
	planTable *plans.Table,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Booking: booking.New(store, cache, pubsub, limiter, pay, dispatcher, logger, cfg.Booking),
		Orders:  orders.New(store, pay, dispatcher, logger, cfg.Orders),
		Query:   query.New(store, cache, cfg.Query),
		Owner:   owner.New(store, cache, pubsub, planTable, pay),
		Webhook: webhook.New(store, planTable, idem, pay, dispatcher, logger, cfg.Webhook),
	}
}
