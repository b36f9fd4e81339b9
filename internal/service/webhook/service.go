// Package webhook reconciles asynchronous payment-provider events against
// the booking/order/subscription ledger. Deliveries are at-least-once and
// possibly out of order; every effect below is individually idempotent via
// conditional updates, so replays and races cannot double-apply.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v79"
	stripewebhook "github.com/stripe/stripe-go/v79/webhook"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/notify"
	"github.com/fournil-app/fournil/internal/plans"
	"github.com/fournil-app/fournil/internal/repository"
	postgresrepo "github.com/fournil-app/fournil/internal/repository/postgres"
	redisrepo "github.com/fournil-app/fournil/internal/repository/redis"
	"github.com/fournil-app/fournil/internal/uow"
)

// subscriptionFetcher retrieves full subscription state from the provider.
// Checkout-completed payloads reference the subscription by id only.
type subscriptionFetcher interface {
	GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error)
}

type Config struct {
	SigningSecret string
	Currency      string
	// DedupeTTL bounds the Redis fast-path dedupe of provider event ids.
	DedupeTTL time.Duration
}

type Service struct {
	store      *postgresrepo.Store
	plans      *plans.Table
	idem       *redisrepo.IdempotencyStore
	provider   subscriptionFetcher
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	uow        *uow.UoW
	cfg        Config
}

func New(
	store *postgresrepo.Store,
	planTable *plans.Table,
	idem *redisrepo.IdempotencyStore,
	provider subscriptionFetcher,
	dispatcher notify.Dispatcher,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 24 * time.Hour
	}

	var u *uow.UoW
	if store != nil {
		u = uow.NewUoW(store)
	}

	return &Service{
		store:      store,
		plans:      planTable,
		idem:       idem,
		provider:   provider,
		dispatcher: dispatcher,
		logger:     logger,
		uow:        u,
		cfg:        cfg,
	}
}

// Process verifies and applies one raw webhook delivery.
//
// Signature verification runs over the raw payload before anything is
// parsed; a failure is a hard rejection with zero state mutation. After a
// valid signature, per-event processing errors are logged and swallowed so
// the provider is acknowledged and does not retry-storm events that would
// only fail the same way again.
//
// Returns:
//   - error: webhook.ErrNotConfigured if no signing secret is set.
//   - error: webhook.ErrBadSignature if the payload fails verification.
func (s *Service) Process(ctx context.Context, payload []byte, sigHeader string) error {
	const op = "service.webhook.Process"

	if s.cfg.SigningSecret == "" {
		return fmt.Errorf("%s:%w", op, ErrNotConfigured)
	}

	event, err := stripewebhook.ConstructEvent(payload, sigHeader, s.cfg.SigningSecret)
	if err != nil {
		return fmt.Errorf("%s:%w: %w", op, ErrBadSignature, err)
	}

	kind := kindOf(event.Type)
	if kind == kindIgnored {
		return nil
	}

	// Fast-path dedupe on the provider event id. Best effort: the
	// conditional updates below remain the authority, so a Redis miss only
	// costs a no-op transaction.
	if s.idem != nil && event.ID != "" {
		key := redisrepo.KeyWebhookEvent(event.ID)
		if acquired, err := s.idem.AcquireLock(ctx, key, s.cfg.DedupeTTL); err == nil && !acquired {
			return nil
		}
	}

	if err := s.dispatch(ctx, kind, &event); err != nil {
		s.logger.ErrorContext(ctx, "webhook event processing failed",
			"event_id", event.ID, "event_type", string(event.Type), "error", err)
	}

	return nil
}

func (s *Service) dispatch(ctx context.Context, kind eventKind, event *stripe.Event) error {
	switch kind {
	case kindCheckoutCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case kindSubscriptionUpdated:
		return s.handleSubscriptionUpdated(ctx, event)
	case kindSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, event)
	case kindInvoicePaid:
		return s.handleInvoicePaid(ctx, event)
	case kindInvoiceFailed:
		return s.handleInvoiceFailed(ctx, event)
	case kindAccountUpdated:
		return s.handleAccountUpdated(ctx, event)
	default:
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	const op = "service.webhook.handleCheckoutCompleted"

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if sess.Mode == stripe.CheckoutSessionModeSubscription {
		return s.applySubscriptionCheckout(ctx, &sess)
	}

	if id, ok := sess.Metadata["booking_id"]; ok {
		bookingID, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("%s: bad booking id in metadata: %w", op, err)
		}
		return s.applyBookingPaid(ctx, bookingID, paymentIntentID(&sess))
	}

	if id, ok := sess.Metadata["order_id"]; ok {
		orderID, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("%s: bad order id in metadata: %w", op, err)
		}
		return s.applyOrderPaid(ctx, orderID, paymentIntentID(&sess))
	}

	// A session this deployment did not open. Not an error.
	return nil
}

func paymentIntentID(sess *stripe.CheckoutSession) string {
	if sess.PaymentIntent == nil {
		return ""
	}
	return sess.PaymentIntent.ID
}

// applyBookingPaid confirms a booking on deposit receipt. The repository
// gate makes replays no-ops; the confirmation email is an after-commit,
// best-effort side effect.
func (s *Service) applyBookingPaid(ctx context.Context, bookingID uuid.UUID, intentID string) error {
	const op = "service.webhook.applyBookingPaid"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		err := s.store.Bookings().With(tx).ConfirmDepositPaid(ctx, bookingID, intentID)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadySettled) {
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		b, err := s.store.Bookings().With(tx).Get(ctx, bookingID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		w, err := s.store.Workshops().With(tx).Get(ctx, b.WorkshopID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		p, err := s.store.Profiles().With(tx).Get(ctx, w.ProfileID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			if b.Client.Email == "" {
				return
			}
			err := s.dispatcher.SendPaymentConfirmation(ctx, notify.PaymentConfirmation{
				ClientName:    b.Client.Name,
				ClientEmail:   b.Client.Email,
				ShopName:      p.ShopName,
				Subject:       fmt.Sprintf("Deposit received for %s", w.Title),
				AmountDisplay: domain.FormatCents(b.DepositCents, s.cfg.Currency),
			})
			if err != nil {
				s.logger.WarnContext(ctx, "payment confirmation dispatch failed", "error", err)
			}
		})

		return nil
	})
}

// applyOrderPaid settles an order's payment and, when no human has advanced
// the workflow yet, moves it pending -> confirmed. The gate is keyed on
// payment status only: a replayed event never re-advances the workflow.
func (s *Service) applyOrderPaid(ctx context.Context, orderID uuid.UUID, intentID string) error {
	const op = "service.webhook.applyOrderPaid"

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		orders := s.store.Orders().With(tx)

		err := orders.MarkPaid(ctx, orderID, intentID)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadySettled) {
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if _, err := orders.AdvanceIfPending(ctx, orderID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		o, err := orders.Get(ctx, orderID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		p, err := s.store.Profiles().With(tx).Get(ctx, o.ProfileID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			amount := domain.FormatCents(o.TotalCents, s.cfg.Currency)

			if o.Client.Email != "" {
				err := s.dispatcher.SendPaymentConfirmation(ctx, notify.PaymentConfirmation{
					ClientName:    o.Client.Name,
					ClientEmail:   o.Client.Email,
					ShopName:      p.ShopName,
					Subject:       fmt.Sprintf("Payment received for order %s", o.Number),
					AmountDisplay: amount,
				})
				if err != nil {
					s.logger.WarnContext(ctx, "client payment confirmation dispatch failed", "error", err)
				}
			}

			err := s.dispatcher.SendStatusUpdate(ctx, notify.StatusUpdate{
				RecipientName:  p.ShopName,
				RecipientEmail: p.Email,
				ShopName:       p.ShopName,
				Subject:        fmt.Sprintf("Order %s paid", o.Number),
				NewStatus:      string(o.Status),
			})
			if err != nil {
				s.logger.WarnContext(ctx, "owner payment notification dispatch failed", "error", err)
			}
		})

		return nil
	})
}

// applySubscriptionCheckout upserts the owner's subscription after a
// completed upgrade checkout and re-derives the profile plan, all in one
// transaction.
func (s *Service) applySubscriptionCheckout(ctx context.Context, sess *stripe.CheckoutSession) error {
	const op = "service.webhook.applySubscriptionCheckout"

	profileRaw, ok := sess.Metadata["profile_id"]
	if !ok {
		return nil
	}

	profileID, err := uuid.Parse(profileRaw)
	if err != nil {
		return fmt.Errorf("%s: bad profile id in metadata: %w", op, err)
	}

	if sess.Subscription == nil || sess.Subscription.ID == "" {
		return fmt.Errorf("%s: checkout session carries no subscription", op)
	}

	// The webhook payload references the subscription by id only; the full
	// state lives with the provider.
	sub, err := s.provider.GetSubscription(ctx, sess.Subscription.ID)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	entry, ok := s.plans.Lookup(subscriptionPriceID(sub))
	if !ok {
		return fmt.Errorf("%s: subscription price %q is not in the plan table", op, subscriptionPriceID(sub))
	}

	start, end := periodBounds(sub)

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		err := s.store.Subscriptions().With(tx).Upsert(ctx, &domain.Subscription{
			ID:                   uuid.New(),
			ProfileID:            profileID,
			Plan:                 entry.Plan,
			Interval:             entry.Interval,
			StripeCustomerID:     customerID,
			StripeSubscriptionID: sub.ID,
			Status:               domain.SubscriptionActive,
			CurrentPeriodStart:   start,
			CurrentPeriodEnd:     end,
			CancelAtPeriodEnd:    false,
		})
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.recomputeProfilePlan(ctx, tx, profileID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

func (s *Service) handleSubscriptionUpdated(ctx context.Context, event *stripe.Event) error {
	const op = "service.webhook.handleSubscriptionUpdated"

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		subs := s.store.Subscriptions().With(tx)

		local, err := subs.GetByProviderID(ctx, sub.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				// Events for subscriptions this deployment never tracked.
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		status, ok := mapSubscriptionStatus(sub.Status)
		if !ok {
			status = local.Status
		}

		plan, interval := local.Plan, local.Interval
		if entry, ok := s.plans.Lookup(subscriptionPriceID(&sub)); ok {
			plan, interval = entry.Plan, entry.Interval
		}

		start, end := periodBounds(&sub)

		if status == domain.SubscriptionCanceled {
			// Updates that carry a terminal status close the subscription the
			// same way a deletion event does, canceled-at stamp included.
			err = subs.MarkCanceled(ctx, sub.ID)
		} else {
			err = subs.UpdateState(ctx, sub.ID, plan, interval, status, start, end, sub.CancelAtPeriodEnd)
		}
		if err != nil {
			if errors.Is(err, repository.ErrAlreadySettled) {
				// Stale event for a subscription a later deletion closed.
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.recomputeProfilePlan(ctx, tx, local.ProfileID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

func (s *Service) handleSubscriptionDeleted(ctx context.Context, event *stripe.Event) error {
	const op = "service.webhook.handleSubscriptionDeleted"

	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		subs := s.store.Subscriptions().With(tx)

		local, err := subs.GetByProviderID(ctx, sub.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		err = subs.MarkCanceled(ctx, sub.ID)
		if err != nil && !errors.Is(err, repository.ErrAlreadySettled) {
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.recomputeProfilePlan(ctx, tx, local.ProfileID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

func (s *Service) handleInvoicePaid(ctx context.Context, event *stripe.Event) error {
	const op = "service.webhook.handleInvoicePaid"

	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if inv.Subscription == nil || inv.Subscription.ID == "" {
		return nil
	}

	start, end, ok := invoicePeriod(&inv)
	if !ok {
		return nil
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		subs := s.store.Subscriptions().With(tx)

		local, err := subs.GetByProviderID(ctx, inv.Subscription.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		err = subs.RefreshPeriod(ctx, inv.Subscription.ID, start, end)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadySettled) {
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.recomputeProfilePlan(ctx, tx, local.ProfileID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

func (s *Service) handleInvoiceFailed(ctx context.Context, event *stripe.Event) error {
	const op = "service.webhook.handleInvoiceFailed"

	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	if inv.Subscription == nil || inv.Subscription.ID == "" {
		return nil
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		subs := s.store.Subscriptions().With(tx)

		local, err := subs.GetByProviderID(ctx, inv.Subscription.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		// past_due is not a downgrade; the plan survives until the
		// subscription is actually deleted.
		err = subs.MarkPastDue(ctx, inv.Subscription.ID)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadySettled) {
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		if err := s.recomputeProfilePlan(ctx, tx, local.ProfileID); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

func (s *Service) handleAccountUpdated(ctx context.Context, event *stripe.Event) error {
	const op = "service.webhook.handleAccountUpdated"

	var acct stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &acct); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	accountID := acct.ID
	if accountID == "" {
		accountID = event.Account
	}
	if accountID == "" {
		return nil
	}

	return s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		profiles := s.store.Profiles().With(tx)

		p, err := profiles.GetByStripeAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		complete := onboardingComplete(&acct)
		if p.StripeOnboarded == complete {
			return nil
		}

		if err := profiles.SetOnboarded(ctx, p.ID, complete); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		return nil
	})
}

// recomputeProfilePlan re-derives the denormalized profile plan from the
// latest subscription state. Runs inside every subscription-mutating
// transaction; the projection is never written on its own.
func (s *Service) recomputeProfilePlan(ctx context.Context, tx postgresrepo.DB, profileID uuid.UUID) error {
	const op = "service.webhook.recomputeProfilePlan"

	sub, err := s.store.Subscriptions().With(tx).LatestByProfile(ctx, profileID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s:%w", op, err)
	}

	if err := s.store.Profiles().With(tx).SetPlan(ctx, profileID, sub.PlanFor()); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}
