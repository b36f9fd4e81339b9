// Package owner covers the tenant-facing management operations: workshop
// lifecycle and plan upgrades. Public reads and bookings live elsewhere.
package owner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/payments"
	"github.com/fournil-app/fournil/internal/plans"
	redisx "github.com/fournil-app/fournil/internal/redis"
	"github.com/fournil-app/fournil/internal/repository"
	postgresrepo "github.com/fournil-app/fournil/internal/repository/postgres"
	redisrepo "github.com/fournil-app/fournil/internal/repository/redis"
	"github.com/fournil-app/fournil/internal/uow"
)

type subscriptionCheckout interface {
	CreateSubscriptionCheckout(ctx context.Context, p payments.SubscriptionCheckoutParams) (*payments.CheckoutSession, error)
}

type Service struct {
	store    *postgresrepo.Store
	cache    *redisrepo.Cache
	pubsub   *redisx.WorkshopsPubSub
	plans    *plans.Table
	checkout subscriptionCheckout
	uow      *uow.UoW
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.WorkshopsPubSub,
	planTable *plans.Table,
	checkout subscriptionCheckout,
) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		pubsub:   pubsub,
		plans:    planTable,
		checkout: checkout,
		uow:      uow.NewUoW(store),
	}
}

// CreateWorkshopInput defines a new workshop. It is created as a draft;
// publishing is a separate step.
type CreateWorkshopInput struct {
	ProfileID      uuid.UUID
	Title          string
	Starts         time.Time
	UnitPriceCents int64
	DepositPercent int
	Capacity       int
}

// CreateWorkshop creates a draft workshop for a profile.
//
// Returns:
//   - *domain.Workshop: the created workshop.
//   - error: owner.ErrWorkshopValidation when the definition is unusable.
func (s *Service) CreateWorkshop(ctx context.Context, in CreateWorkshopInput) (*domain.Workshop, error) {
	const op = "service.owner.CreateWorkshop"

	if err := validateWorkshop(in); err != nil {
		return nil, fmt.Errorf("%s:%w: %w", op, ErrWorkshopValidation, err)
	}

	w := &domain.Workshop{
		ID:             uuid.New(),
		ProfileID:      in.ProfileID,
		Title:          in.Title,
		Starts:         in.Starts,
		UnitPriceCents: in.UnitPriceCents,
		DepositPercent: in.DepositPercent,
		Capacity:       in.Capacity,
		Status:         domain.WorkshopDraft,
	}

	if err := s.store.Workshops().Create(ctx, w); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return w, nil
}

// PublishWorkshop opens a draft workshop for public booking.
//
// Returns:
//   - error: owner.ErrWorkshopNotFound if the workshop does not exist.
//   - error: owner.ErrInvalidTransition when the workshop is not a draft.
func (s *Service) PublishWorkshop(ctx context.Context, id uuid.UUID) error {
	return s.setWorkshopStatus(ctx, id, domain.WorkshopPublished)
}

// CancelWorkshop closes a workshop. Existing bookings are untouched; the
// caller cancels them individually so each client can be notified.
func (s *Service) CancelWorkshop(ctx context.Context, id uuid.UUID) error {
	return s.setWorkshopStatus(ctx, id, domain.WorkshopCancelled)
}

// CompleteWorkshop marks a workshop as having taken place.
func (s *Service) CompleteWorkshop(ctx context.Context, id uuid.UUID) error {
	return s.setWorkshopStatus(ctx, id, domain.WorkshopCompleted)
}

func (s *Service) setWorkshopStatus(ctx context.Context, id uuid.UUID, to domain.WorkshopStatus) error {
	const op = "service.owner.setWorkshopStatus"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		workshops := s.store.Workshops().With(tx)

		w, err := workshops.GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrWorkshopNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if !statusChangeAllowed(w.Status, to) {
			return fmt.Errorf("%s:%w: %s -> %s", op, ErrInvalidTransition, w.Status, to)
		}

		if err := workshops.SetStatus(ctx, id, to); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateWorkshop(ctx, id)
			_ = s.pubsub.PublishWorkshopChanged(ctx, id)
		})

		return nil
	})
}

// UpgradeSubscription opens a provider checkout for the requested plan.
// The subscription record itself is only written when the completed
// checkout comes back through the webhook.
//
// Returns:
//   - string: the provider-hosted checkout URL.
//   - error: owner.ErrUnknownPlan when no price is configured for the
//     plan/interval pair.
//   - error: owner.ErrProfileNotFound if the profile does not exist.
func (s *Service) UpgradeSubscription(
	ctx context.Context,
	profileID uuid.UUID,
	plan domain.Plan,
	interval domain.BillingInterval,
) (string, error) {
	const op = "service.owner.UpgradeSubscription"

	priceID, ok := s.plans.PriceID(plan, interval)
	if !ok {
		return "", fmt.Errorf("%s:%w: %s/%s", op, ErrUnknownPlan, plan, interval)
	}

	p, err := s.store.Profiles().Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%s:%w", op, ErrProfileNotFound)
		}
		return "", fmt.Errorf("%s:%w", op, err)
	}

	sess, err := s.checkout.CreateSubscriptionCheckout(ctx, payments.SubscriptionCheckoutParams{
		PriceID:       priceID,
		CustomerEmail: p.Email,
		Metadata:      map[string]string{"profile_id": p.ID.String()},
	})
	if err != nil {
		return "", fmt.Errorf("%s:%w: %w", op, ErrCheckoutFailed, err)
	}

	return sess.URL, nil
}

// CurrentSubscription returns the profile's latest subscription, or nil when
// the profile never subscribed (free plan).
func (s *Service) CurrentSubscription(ctx context.Context, profileID uuid.UUID) (*domain.Subscription, error) {
	const op = "service.owner.CurrentSubscription"

	sub, err := s.store.Subscriptions().LatestByProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return sub, nil
}

// GetProfile retrieves a tenant profile.
func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	const op = "service.owner.GetProfile"

	p, err := s.store.Profiles().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrProfileNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return p, nil
}

func validateWorkshop(in CreateWorkshopInput) error {
	if in.Title == "" {
		return errors.New("title is required")
	}
	if in.Starts.IsZero() {
		return errors.New("start time is required")
	}
	if in.Capacity < 1 {
		return errors.New("capacity must be at least 1")
	}
	if in.UnitPriceCents < 0 {
		return errors.New("unit price cannot be negative")
	}
	if in.DepositPercent < 0 || in.DepositPercent > 100 {
		return errors.New("deposit percent must be between 0 and 100")
	}
	return nil
}

// statusChangeAllowed encodes the owner-driven workshop lifecycle. The
// full<->published flips are automatic on the booking side and not listed.
func statusChangeAllowed(from, to domain.WorkshopStatus) bool {
	switch to {
	case domain.WorkshopPublished:
		return from == domain.WorkshopDraft
	case domain.WorkshopCancelled:
		return from != domain.WorkshopCancelled && from != domain.WorkshopCompleted
	case domain.WorkshopCompleted:
		return from == domain.WorkshopPublished || from == domain.WorkshopFull
	default:
		return false
	}
}
