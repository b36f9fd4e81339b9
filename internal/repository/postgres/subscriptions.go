package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/repository"
)

type SubscriptionRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SubscriptionRepo) With(db DB) *SubscriptionRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SubscriptionRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const subscriptionColumns = `id, profile_id, plan, billing_interval, stripe_customer_id,
	stripe_subscription_id, status, current_period_start, current_period_end,
	cancel_at_period_end, canceled_at, created_at`

func scanSubscription(row interface{ Scan(...any) error }) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID, &s.ProfileID, &s.Plan, &s.Interval, &s.StripeCustomerID,
		&s.StripeSubscriptionID, &s.Status, &s.CurrentPeriodStart, &s.CurrentPeriodEnd,
		&s.CancelAtPeriodEnd, &s.CanceledAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LatestByProfile returns the most recent subscription row of a profile.
//
// Returns:
//   - error: repository.ErrNotFound when the profile never subscribed.
func (r *SubscriptionRepo) LatestByProfile(ctx context.Context, profileID uuid.UUID) (*domain.Subscription, error) {
	const op = "postgres.SubscriptionRepo.LatestByProfile"

	db := r.handle()

	s, err := scanSubscription(db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+`
       	 FROM subscriptions
      	 WHERE profile_id = $1
      	 ORDER BY created_at DESC
      	 LIMIT 1`,
		profileID,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return s, nil
}

// GetByProviderID looks a subscription up by its external id, locking the
// row so concurrent webhook deliveries for the same subscription serialize.
func (r *SubscriptionRepo) GetByProviderID(ctx context.Context, stripeSubscriptionID string) (*domain.Subscription, error) {
	const op = "postgres.SubscriptionRepo.GetByProviderID"

	db := r.handle()

	s, err := scanSubscription(db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+`
       	 FROM subscriptions
      	 WHERE stripe_subscription_id = $1
      	 FOR UPDATE`,
		stripeSubscriptionID,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return s, nil
}

// Upsert creates the profile's subscription row or replaces the state of the
// most recent one. Keyed by profile: one effective subscription per tenant.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *domain.Subscription) error {
	const op = "postgres.SubscriptionRepo.Upsert"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE subscriptions
        	SET plan = $2,
            	billing_interval = $3,
            	stripe_customer_id = $4,
            	stripe_subscription_id = $5,
            	status = $6,
            	current_period_start = $7,
            	current_period_end = $8,
            	cancel_at_period_end = $9,
            	canceled_at = NULL
      	 WHERE id = (
        		SELECT id FROM subscriptions
         	 	 WHERE profile_id = $1
         	 	 ORDER BY created_at DESC
         	 	 LIMIT 1)`,
		s.ProfileID, s.Plan, s.Interval, s.StripeCustomerID, s.StripeSubscriptionID,
		s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	_, err = db.Exec(ctx,
		`INSERT INTO subscriptions(id, profile_id, plan, billing_interval, stripe_customer_id,
			stripe_subscription_id, status, current_period_start, current_period_end, cancel_at_period_end)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.ProfileID, s.Plan, s.Interval, s.StripeCustomerID,
		s.StripeSubscriptionID, s.Status, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.CancelAtPeriodEnd,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// UpdateState applies a subscription-updated event. Canceled is terminal:
// the guard keeps a stale update from reviving a subscription a later
// deletion already closed.
func (r *SubscriptionRepo) UpdateState(
	ctx context.Context,
	stripeSubscriptionID string,
	plan domain.Plan,
	interval domain.BillingInterval,
	status domain.SubscriptionStatus,
	periodStart, periodEnd *time.Time,
	cancelAtPeriodEnd bool,
) error {
	const op = "postgres.SubscriptionRepo.UpdateState"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE subscriptions
        	SET plan = $2,
            	billing_interval = $3,
            	status = $4,
            	current_period_start = $5,
            	current_period_end = $6,
            	cancel_at_period_end = $7
      	 WHERE stripe_subscription_id = $1
        	AND status <> 'canceled'`,
		stripeSubscriptionID, plan, interval, status, periodStart, periodEnd, cancelAtPeriodEnd,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrAlreadySettled)
	}

	return nil
}

// MarkCanceled closes a subscription. Idempotent: a second deletion event
// reports ErrAlreadySettled.
func (r *SubscriptionRepo) MarkCanceled(ctx context.Context, stripeSubscriptionID string) error {
	const op = "postgres.SubscriptionRepo.MarkCanceled"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE subscriptions
        	SET status = 'canceled', canceled_at = now()
      	 WHERE stripe_subscription_id = $1
        	AND status <> 'canceled'`,
		stripeSubscriptionID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrAlreadySettled)
	}

	return nil
}

// RefreshPeriod applies an invoice-paid renewal: new period bounds and back
// to active. Canceled subscriptions stay canceled.
func (r *SubscriptionRepo) RefreshPeriod(ctx context.Context, stripeSubscriptionID string, periodStart, periodEnd time.Time) error {
	const op = "postgres.SubscriptionRepo.RefreshPeriod"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE subscriptions
        	SET status = 'active',
            	current_period_start = $2,
            	current_period_end = $3
      	 WHERE stripe_subscription_id = $1
        	AND status <> 'canceled'`,
		stripeSubscriptionID, periodStart, periodEnd,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrAlreadySettled)
	}

	return nil
}

// MarkPastDue flags a failed renewal. Distinct from canceled and reversible
// by a later successful invoice.
func (r *SubscriptionRepo) MarkPastDue(ctx context.Context, stripeSubscriptionID string) error {
	const op = "postgres.SubscriptionRepo.MarkPastDue"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE subscriptions
        	SET status = 'past_due'
      	 WHERE stripe_subscription_id = $1
        	AND status <> 'canceled'`,
		stripeSubscriptionID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrAlreadySettled)
	}

	return nil
}
