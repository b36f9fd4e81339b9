package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/notify"
	"github.com/fournil-app/fournil/internal/payments"
	redisx "github.com/fournil-app/fournil/internal/redis"
	"github.com/fournil-app/fournil/internal/repository"
	postgresrepo "github.com/fournil-app/fournil/internal/repository/postgres"
	redisrepo "github.com/fournil-app/fournil/internal/repository/redis"
	"github.com/fournil-app/fournil/internal/uow"
)

// checkoutClient is the slice of the payments client this service needs.
type checkoutClient interface {
	CreatePaymentCheckout(ctx context.Context, p payments.PaymentCheckoutParams) (*payments.CheckoutSession, error)
}

type Config struct {
	Currency string
}

type Service struct {
	store      *postgresrepo.Store
	cache      *redisrepo.Cache
	pubsub     *redisx.WorkshopsPubSub
	limiter    *redisrepo.SlidingWindowLimiter
	checkout   checkoutClient
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	uow        *uow.UoW
	cfg        Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.WorkshopsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	checkout checkoutClient,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}

	return &Service{
		store:      store,
		cache:      cache,
		pubsub:     pubsub,
		limiter:    limiter,
		checkout:   checkout,
		dispatcher: dispatcher,
		logger:     logger,
		uow:        uow.NewUoW(store),
		cfg:        cfg,
	}
}

// CreateResult is what the public booking endpoint hands back to the client.
type CreateResult struct {
	Booking     *domain.Booking
	CheckoutURL string
}

// Create admits a public booking request against a workshop.
//
// The capacity check and the insert run in one transaction with a row lock
// on the workshop, so two requests racing for the last seats cannot both
// pass. When the booking is payable online, the checkout session is opened
// inside the same transaction: a provider failure aborts the whole booking.
//
// Returns:
//   - error: booking.ErrWorkshopNotFound if the workshop does not exist.
//   - error: booking.ErrWorkshopNotBookable if it is not published.
//   - error: booking.ErrCapacityExceeded if the seats do not fit.
//   - error: booking.ErrCheckoutFailed if the payment provider rejected or
//     timed out; nothing is persisted and the caller may retry.
func (s *Service) Create(
	ctx context.Context,
	workshopID uuid.UUID,
	client domain.Client,
	participants int,
	rlKey string,
) (*CreateResult, error) {
	const op = "service.booking.Create"

	if participants < 1 {
		return nil, fmt.Errorf("%s: participants must be at least 1", op)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: rate limited, retry in %s", op, retry)
		}
	}

	var result CreateResult

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		workshops := s.store.Workshops().With(tx)

		w, err := workshops.GetForUpdate(ctx, workshopID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrWorkshopNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if w.Status != domain.WorkshopPublished {
			return fmt.Errorf("%s:%w", op, ErrWorkshopNotBookable)
		}

		committed, err := workshops.CommittedParticipants(ctx, workshopID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if !canAdmit(w.Capacity, committed, participants) {
			return fmt.Errorf("%s:%w", op, ErrCapacityExceeded)
		}

		quote := domain.Price(w.UnitPriceCents, participants, w.DepositPercent)

		b := &domain.Booking{
			ID:              uuid.New(),
			WorkshopID:      w.ID,
			Client:          client,
			Participants:    participants,
			TotalCents:      quote.TotalCents,
			DepositCents:    quote.DepositCents,
			RemainingCents:  quote.RemainingCents,
			RemainingStatus: quote.RemainingStatus,
			DepositStatus:   domain.PaymentPending,
		}

		profile, err := s.store.Profiles().With(tx).Get(ctx, w.ProfileID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		payable := checkoutEligible(b, profile)
		if payable {
			b.Status = domain.BookingPendingPayment
		} else {
			// No online payment possible: the claim is binding immediately,
			// the deposit is settled offline.
			b.Status = domain.BookingConfirmed
		}

		if err := s.store.Bookings().With(tx).Create(ctx, b); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := workshops.MarkFullIfSoldOut(ctx, workshopID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if payable {
			sess, err := s.checkout.CreatePaymentCheckout(ctx, payments.PaymentCheckoutParams{
				AccountID:     profile.StripeAccountID,
				AmountCents:   b.PayableNowCents(),
				Label:         fmt.Sprintf("%s: deposit, %d participant(s)", w.Title, participants),
				CustomerEmail: client.Email,
				Metadata:      map[string]string{"booking_id": b.ID.String()},
			})
			if err != nil {
				// Aborting the transaction removes the booking; the seats
				// were never durably claimed.
				return fmt.Errorf("%s:%w: %w", op, ErrCheckoutFailed, err)
			}

			b.CheckoutSessionID = sess.ID
			result.CheckoutURL = sess.URL

			if err := s.store.Bookings().With(tx).SetCheckoutSession(ctx, b.ID, sess.ID); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
		}

		result.Booking = b

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateWorkshop(ctx, workshopID)
			_ = s.pubsub.PublishWorkshopChanged(ctx, workshopID)

			if !payable && client.Email != "" {
				s.sendBookingConfirmation(ctx, b, w, profile)
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Cancel terminates a booking and releases its seats.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) error {
	const op = "service.booking.Cancel"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		b, err := s.store.Bookings().With(tx).Get(ctx, bookingID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		// Lock the workshop so the freed seats and the status flip commit
		// atomically with any concurrent admission.
		workshops := s.store.Workshops().With(tx)
		if _, err := workshops.GetForUpdate(ctx, b.WorkshopID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.store.Bookings().With(tx).Cancel(ctx, bookingID, reason); err != nil {
			if errors.Is(err, repository.ErrInvalidTransition) {
				return fmt.Errorf("%s:%w", op, ErrInvalidTransition)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := workshops.ReopenIfSeatsFreed(ctx, b.WorkshopID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateWorkshop(ctx, b.WorkshopID)
			_ = s.pubsub.PublishWorkshopChanged(ctx, b.WorkshopID)
		})

		return nil
	})
}

// Complete marks a confirmed booking completed.
func (s *Service) Complete(ctx context.Context, bookingID uuid.UUID) error {
	const op = "service.booking.Complete"

	err := s.store.Bookings().Complete(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return fmt.Errorf("%s:%w", op, ErrInvalidTransition)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// MarkRemainingPaid records the on-site remainder payment.
func (s *Service) MarkRemainingPaid(ctx context.Context, bookingID uuid.UUID) error {
	const op = "service.booking.MarkRemainingPaid"

	err := s.store.Bookings().MarkRemainingPaid(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return fmt.Errorf("%s:%w", op, ErrInvalidTransition)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (s *Service) sendBookingConfirmation(ctx context.Context, b *domain.Booking, w *domain.Workshop, p *domain.Profile) {
	err := s.dispatcher.SendBookingConfirmation(ctx, notify.BookingConfirmation{
		ClientName:     b.Client.Name,
		ClientEmail:    b.Client.Email,
		ShopName:       p.ShopName,
		WorkshopTitle:  w.Title,
		Participants:   b.Participants,
		TotalDisplay:   domain.FormatCents(b.TotalCents, s.cfg.Currency),
		DepositDisplay: domain.FormatCents(b.DepositCents, s.cfg.Currency),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "booking confirmation dispatch failed", "error", err)
	}
}

// canAdmit is the capacity rule: committed seats plus the request must fit
// within the fixed capacity.
func canAdmit(capacity, committed, requested int) bool {
	return committed+requested <= capacity
}

// checkoutEligible decides whether online payment is possible: a positive
// amount due now, a client email to send the session to, and a tenant whose
// provider onboarding is verifiably complete.
func checkoutEligible(b *domain.Booking, p *domain.Profile) bool {
	return b.PayableNowCents() > 0 &&
		b.Client.Email != "" &&
		p.StripeAccountID != "" &&
		p.StripeOnboarded
}
