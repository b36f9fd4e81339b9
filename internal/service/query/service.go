package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/repository"
	postgresrepo "github.com/fournil-app/fournil/internal/repository/postgres"
	redisrepo "github.com/fournil-app/fournil/internal/repository/redis"
)

type Config struct {
	WorkshopSummaryTTL time.Duration
	AvailabilityTTL    time.Duration
	DefaultListPage    int
	MaxListPage        int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.WorkshopSummaryTTL <= 0 {
		cfg.WorkshopSummaryTTL = 60 * time.Second
	}

	if cfg.AvailabilityTTL <= 0 {
		cfg.AvailabilityTTL = 15 * time.Second
	}

	if cfg.DefaultListPage <= 0 {
		cfg.DefaultListPage = 50
	}

	if cfg.MaxListPage <= 0 {
		cfg.MaxListPage = 200
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetWorkshop retrieves a workshop by its ID, utilizing a caching layer to
// improve performance. The booking-side writers invalidate the key on every
// capacity change.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: ID of the workshop to retrieve.
//
// Returns:
//   - *domain.Workshop: the retrieved workshop, or nil if not found.
//   - error: query.ErrWorkshopNotFound if the workshop is not found.
func (s *Service) GetWorkshop(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	const op = "service.query.GetWorkshop"

	key := redisrepo.KeyWorkshopSummary(id)

	w, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.WorkshopSummaryTTL,
		func(ctx context.Context) (domain.Workshop, error) {
			w, err := s.store.Workshops().Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Workshop{}, ErrWorkshopNotFound
				}

				return domain.Workshop{}, err
			}

			return *w, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &w, nil
}

// Availability retrieves the seat picture of a workshop: capacity, committed
// participants across non-cancelled bookings, and the remainder.
//
// The short TTL bounds staleness between webhook-driven capacity changes and
// the explicit invalidation the writers perform.
//
// Returns:
//   - *domain.WorkshopAvailability: the availability snapshot.
//   - error: query.ErrWorkshopNotFound if the workshop is not found.
func (s *Service) Availability(ctx context.Context, id uuid.UUID) (*domain.WorkshopAvailability, error) {
	const op = "service.query.Availability"

	key := redisrepo.KeyWorkshopAvailability(id)

	av, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		key,
		s.cfg.AvailabilityTTL,
		func(ctx context.Context) (domain.WorkshopAvailability, error) {
			w, err := s.store.Workshops().Get(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.WorkshopAvailability{}, ErrWorkshopNotFound
				}

				return domain.WorkshopAvailability{}, err
			}

			committed, err := s.store.Workshops().CommittedParticipants(ctx, id)
			if err != nil {
				return domain.WorkshopAvailability{}, err
			}

			remaining := w.Capacity - committed
			if remaining < 0 {
				remaining = 0
			}

			return domain.WorkshopAvailability{
				WorkshopID: w.ID,
				Status:     w.Status,
				Capacity:   w.Capacity,
				Committed:  committed,
				Remaining:  remaining,
			}, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &av, nil
}

// ListUpcomingWorkshops lists a profile's upcoming workshops. Pagination is
// supported via limit and offset parameters; default and max limits are
// enforced.
func (s *Service) ListUpcomingWorkshops(
	ctx context.Context,
	profileID uuid.UUID,
	limit, offset int,
) ([]domain.Workshop, error) {
	const op = "service.query.ListUpcomingWorkshops"

	if limit <= 0 {
		limit = s.cfg.DefaultListPage
	}

	if limit > s.cfg.MaxListPage {
		limit = s.cfg.MaxListPage
	}

	out, err := s.store.Workshops().ListUpcoming(ctx, profileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// GetBooking retrieves a booking by its ID.
//
// Returns:
//   - *domain.Booking: the retrieved booking, or nil if not found.
//   - error: query.ErrBookingNotFound if the booking is not found.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "service.query.GetBooking"

	b, err := s.store.Bookings().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrBookingNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// ListWorkshopBookings lists the bookings of one workshop, newest first.
func (s *Service) ListWorkshopBookings(
	ctx context.Context,
	workshopID uuid.UUID,
	limit, offset int,
) ([]domain.Booking, error) {
	const op = "service.query.ListWorkshopBookings"

	if limit <= 0 {
		limit = s.cfg.DefaultListPage
	}

	if limit > s.cfg.MaxListPage {
		limit = s.cfg.MaxListPage
	}

	out, err := s.store.Bookings().ListByWorkshop(ctx, workshopID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// GetOrder retrieves an order by its ID.
//
// Returns:
//   - *domain.Order: the retrieved order, or nil if not found.
//   - error: query.ErrOrderNotFound if the order is not found.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "service.query.GetOrder"

	o, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrOrderNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return o, nil
}
