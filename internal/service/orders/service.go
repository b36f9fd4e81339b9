package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/notify"
	"github.com/fournil-app/fournil/internal/payments"
	"github.com/fournil-app/fournil/internal/repository"
	postgresrepo "github.com/fournil-app/fournil/internal/repository/postgres"
	"github.com/fournil-app/fournil/internal/uow"
)

type checkoutClient interface {
	CreatePaymentCheckout(ctx context.Context, p payments.PaymentCheckoutParams) (*payments.CheckoutSession, error)
}

type Config struct {
	Currency string
}

type Service struct {
	store      *postgresrepo.Store
	checkout   checkoutClient
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	uow        *uow.UoW
	cfg        Config
}

func New(
	store *postgresrepo.Store,
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
		checkout:   checkout,
		dispatcher: dispatcher,
		logger:     logger,
		uow:        uow.NewUoW(store),
		cfg:        cfg,
	}
}

// CreateInput is a public catalogue or custom-cake order request.
type CreateInput struct {
	ProfileID     uuid.UUID
	Client        domain.Client
	Type          domain.OrderType
	SubtotalCents int64
}

// Create persists an order and assigns its per-tenant sequential number.
// Custom orders start without a price; they become payable once the owner
// quotes them.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	const op = "service.orders.Create"

	if in.Client.Name == "" {
		return nil, fmt.Errorf("%s: client name is required", op)
	}

	o := &domain.Order{
		ID:            uuid.New(),
		ProfileID:     in.ProfileID,
		Client:        in.Client,
		Type:          in.Type,
		SubtotalCents: in.SubtotalCents,
		TotalCents:    in.SubtotalCents,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PaymentPending,
	}

	if in.Type == domain.OrderCustom {
		// Priced later by the owner.
		o.SubtotalCents = 0
		o.TotalCents = 0
	}

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		orders := s.store.Orders().With(tx)

		profile, err := s.store.Profiles().With(tx).Get(ctx, in.ProfileID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrProfileNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		number, err := orders.Create(ctx, o)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		o.Number = number

		// An order that can never be paid online is binding immediately;
		// payment is settled offline on delivery or pickup.
		if !checkoutPossible(o, profile) {
			if _, err := orders.AdvanceIfPending(ctx, o.ID); err != nil {
				return fmt.Errorf("%s:%w", op, err)
			}
			o.Status = domain.OrderConfirmed
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return o, nil
}

// Get retrieves an order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "service.orders.Get"

	o, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrOrderNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return o, nil
}

// ListByProfile lists a tenant's orders.
func (s *Service) ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	const op = "service.orders.ListByProfile"

	out, err := s.store.Orders().ListByProfile(ctx, profileID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// SetQuote records the owner's price on a custom order.
func (s *Service) SetQuote(ctx context.Context, orderID uuid.UUID, quotedCents int64) error {
	const op = "service.orders.SetQuote"

	if quotedCents <= 0 {
		return fmt.Errorf("%s: quote must be positive", op)
	}

	err := s.store.Orders().SetQuote(ctx, orderID, quotedCents)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return fmt.Errorf("%s:%w", op, ErrInvalidTransition)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrOrderNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

// InitiateCheckout opens a payment session for the amount due now: the
// tenant's order deposit policy applied to the quoted price or total.
//
// Returns:
//   - error: orders.ErrNoQuote when a custom order was never quoted.
//   - error: orders.ErrNotEligible when nothing is due now, the client has no
//     email, or the tenant's provider onboarding is incomplete.
func (s *Service) InitiateCheckout(ctx context.Context, orderID uuid.UUID) (string, error) {
	const op = "service.orders.InitiateCheckout"

	var url string

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		o, err := s.store.Orders().With(tx).Get(ctx, orderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrOrderNotFound)
			}
			return fmt.Errorf("%s:%w", op, err)
		}

		profile, err := s.store.Profiles().With(tx).Get(ctx, o.ProfileID)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		amount, err := checkoutAmountCents(o, profile.OrderDepositPercent)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if amount <= 0 || o.Client.Email == "" || profile.StripeAccountID == "" || !profile.StripeOnboarded {
			return fmt.Errorf("%s:%w", op, ErrNotEligible)
		}

		sess, err := s.checkout.CreatePaymentCheckout(ctx, payments.PaymentCheckoutParams{
			AccountID:     profile.StripeAccountID,
			AmountCents:   amount,
			Label:         fmt.Sprintf("Order %s", o.Number),
			CustomerEmail: o.Client.Email,
			Metadata:      map[string]string{"order_id": o.ID.String()},
		})
		if err != nil {
			return fmt.Errorf("%s:%w: %w", op, ErrCheckoutFailed, err)
		}

		url = sess.URL

		return nil
	})
	if err != nil {
		return "", err
	}

	return url, nil
}

// UpdateStatus applies a manual, forward-only workflow transition by the
// owner. Payment state is untouched: the workflow is an independent axis.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) error {
	const op = "service.orders.UpdateStatus"

	o, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s:%w", op, ErrOrderNotFound)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	if !transitionAllowed(o.Status, to) {
		return fmt.Errorf("%s:%w: %s -> %s", op, ErrInvalidTransition, o.Status, to)
	}

	// Conditional on the status just read: a concurrent transition makes
	// this a no-op and reports the conflict instead of clobbering.
	if err := s.store.Orders().SetStatus(ctx, orderID, o.Status, to); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return fmt.Errorf("%s:%w", op, ErrInvalidTransition)
		}
		return fmt.Errorf("%s:%w", op, err)
	}

	if o.Client.Email != "" {
		err := s.dispatcher.SendStatusUpdate(ctx, notify.StatusUpdate{
			RecipientName:  o.Client.Name,
			RecipientEmail: o.Client.Email,
			Subject:        fmt.Sprintf("Order %s update", o.Number),
			NewStatus:      string(to),
		})
		if err != nil {
			s.logger.WarnContext(ctx, "status update dispatch failed", "error", err)
		}
	}

	return nil
}

// payableCents picks the price an order settles against: the quoted price for
// custom orders, the catalogue total otherwise.
func payableCents(o *domain.Order) (int64, error) {
	if o.Type == domain.OrderCustom {
		if o.QuotedPriceCents == nil || *o.QuotedPriceCents <= 0 {
			return 0, ErrNoQuote
		}
		return *o.QuotedPriceCents, nil
	}

	if o.TotalCents <= 0 {
		return 0, ErrNotEligible
	}

	return o.TotalCents, nil
}

// checkoutAmountCents scopes a checkout session to the amount due now by
// applying the tenant's deposit percent to the payable price. A percent of
// 100 charges the full price up front.
func checkoutAmountCents(o *domain.Order, depositPercent int) (int64, error) {
	payable, err := payableCents(o)
	if err != nil {
		return 0, err
	}

	return domain.Price(payable, 1, depositPercent).DepositCents, nil
}

// checkoutPossible decides at creation time whether the order can ever be
// paid online. Custom orders with a reachable client count as payable: the
// amount only exists once the owner quotes them.
func checkoutPossible(o *domain.Order, p *domain.Profile) bool {
	if o.Client.Email == "" || p.StripeAccountID == "" || !p.StripeOnboarded {
		return false
	}

	if o.Type == domain.OrderCustom {
		return true
	}

	amount, err := checkoutAmountCents(o, p.OrderDepositPercent)
	return err == nil && amount > 0
}

// transitionAllowed encodes the forward-only workflow. Cancellation is the
// escape hatch from every non-terminal state.
func transitionAllowed(from, to domain.OrderStatus) bool {
	if from == to {
		return false
	}

	terminal := map[domain.OrderStatus]bool{
		domain.OrderDelivered: true,
		domain.OrderPickedUp:  true,
		domain.OrderCancelled: true,
	}
	if terminal[from] {
		return false
	}

	if to == domain.OrderCancelled {
		return true
	}

	rank := map[domain.OrderStatus]int{
		domain.OrderPending:    0,
		domain.OrderConfirmed:  1,
		domain.OrderInProgress: 2,
		domain.OrderReady:      3,
		domain.OrderDelivered:  4,
		domain.OrderPickedUp:   4,
	}

	rf, ok := rank[from]
	if !ok {
		return false
	}
	rt, ok := rank[to]
	if !ok {
		return false
	}

	return rt > rf
}
