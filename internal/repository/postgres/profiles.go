package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/repository"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *ProfileRepo) With(db DB) *ProfileRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *ProfileRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const profileColumns = `id, shop_name, email, plan, stripe_account_id, stripe_onboarded,
	order_deposit_percent, created_at`

func scanProfile(row interface{ Scan(...any) error }) (*domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(
		&p.ID, &p.ShopName, &p.Email, &p.Plan, &p.StripeAccountID, &p.StripeOnboarded,
		&p.OrderDepositPercent, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Get retrieves a profile by its ID.
//
// Returns:
//   - *domain.Profile: the profile when found.
//   - error: repository.ErrNotFound if the profile is not found.
func (r *ProfileRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	const op = "postgres.ProfileRepo.Get"

	db := r.handle()

	p, err := scanProfile(db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return p, nil
}

// GetByStripeAccount resolves a connected-account webhook to its profile.
func (r *ProfileRepo) GetByStripeAccount(ctx context.Context, accountID string) (*domain.Profile, error) {
	const op = "postgres.ProfileRepo.GetByStripeAccount"

	db := r.handle()

	p, err := scanProfile(db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE stripe_account_id = $1`,
		accountID,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return p, nil
}

// SetPlan persists the denormalized plan projection. Only called together
// with the subscription mutation it is derived from, in the same transaction.
func (r *ProfileRepo) SetPlan(ctx context.Context, id uuid.UUID, plan domain.Plan) error {
	const op = "postgres.ProfileRepo.SetPlan"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE profiles SET plan = $2 WHERE id = $1`,
		id, plan,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// SetOnboarded syncs the provider-verified onboarding flag. The flag gates
// checkout eligibility, so it is written on every account event, including
// regressions back to false.
func (r *ProfileRepo) SetOnboarded(ctx context.Context, id uuid.UUID, onboarded bool) error {
	const op = "postgres.ProfileRepo.SetOnboarded"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE profiles SET stripe_onboarded = $2 WHERE id = $1`,
		id, onboarded,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}
