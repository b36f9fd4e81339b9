package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/repository"
)

type WorkshopRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *WorkshopRepo) With(db DB) *WorkshopRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *WorkshopRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Get retrieves a workshop by its ID.
//
// Returns:
//   - *domain.Workshop: the workshop when found.
//   - error: repository.ErrNotFound if the workshop is not found.
func (r *WorkshopRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	const op = "postgres.WorkshopRepo.Get"

	return r.get(ctx, id, false, op)
}

// GetForUpdate retrieves a workshop and takes a row lock on it. Every
// capacity check must go through this inside the admitting transaction so
// that two concurrent bookings against the same workshop serialize.
func (r *WorkshopRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Workshop, error) {
	const op = "postgres.WorkshopRepo.GetForUpdate"

	return r.get(ctx, id, true, op)
}

func (r *WorkshopRepo) get(ctx context.Context, id uuid.UUID, forUpdate bool, op string) (*domain.Workshop, error) {
	db := r.handle()

	q := `SELECT id, profile_id, title, starts_at, unit_price_cents, deposit_percent, capacity, status, created_at
       	  FROM workshops WHERE id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}

	var w domain.Workshop
	err := db.QueryRow(ctx, q, id).Scan(
		&w.ID, &w.ProfileID, &w.Title, &w.Starts,
		&w.UnitPriceCents, &w.DepositPercent, &w.Capacity, &w.Status, &w.CreatedAt,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &w, nil
}

// CommittedParticipants sums participants over all non-cancelled bookings of
// the workshop. Cancelled bookings release their seats.
func (r *WorkshopRepo) CommittedParticipants(ctx context.Context, id uuid.UUID) (int, error) {
	const op = "postgres.WorkshopRepo.CommittedParticipants"

	db := r.handle()

	var committed int
	err := db.QueryRow(ctx,
		`SELECT COALESCE(SUM(participants), 0)
       	 FROM bookings
      	 WHERE workshop_id = $1 AND status <> 'cancelled'`,
		id,
	).Scan(&committed)
	if err != nil {
		return 0, wrapDBErr(op, err)
	}

	return committed, nil
}

func (r *WorkshopRepo) Create(ctx context.Context, w *domain.Workshop) error {
	const op = "postgres.WorkshopRepo.Create"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO workshops(id, profile_id, title, starts_at, unit_price_cents, deposit_percent, capacity, status)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		w.ID, w.ProfileID, w.Title, w.Starts,
		w.UnitPriceCents, w.DepositPercent, w.Capacity, w.Status,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// SetStatus moves a workshop between lifecycle states.
func (r *WorkshopRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.WorkshopStatus) error {
	const op = "postgres.WorkshopRepo.SetStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE workshops SET status = $2 WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// MarkFullIfSoldOut flips published -> full. A no-op when seats remain or the
// workshop is in any other state.
func (r *WorkshopRepo) MarkFullIfSoldOut(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.WorkshopRepo.MarkFullIfSoldOut"

	db := r.handle()

	_, err := db.Exec(ctx,
		`UPDATE workshops w
        	SET status = 'full'
      	 WHERE w.id = $1
        	AND w.status = 'published'
        	AND w.capacity <= (
          		SELECT COALESCE(SUM(participants), 0)
            	  FROM bookings
             	 WHERE workshop_id = w.id AND status <> 'cancelled')`,
		id,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// ReopenIfSeatsFreed flips full -> published after a cancellation released
// capacity.
func (r *WorkshopRepo) ReopenIfSeatsFreed(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.WorkshopRepo.ReopenIfSeatsFreed"

	db := r.handle()

	_, err := db.Exec(ctx,
		`UPDATE workshops w
        	SET status = 'published'
      	 WHERE w.id = $1
        	AND w.status = 'full'
        	AND w.capacity > (
          		SELECT COALESCE(SUM(participants), 0)
            	  FROM bookings
             	 WHERE workshop_id = w.id AND status <> 'cancelled')`,
		id,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// ListUpcoming lists published and full workshops of a profile starting after now.
func (r *WorkshopRepo) ListUpcoming(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]domain.Workshop, error) {
	const op = "postgres.WorkshopRepo.ListUpcoming"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, profile_id, title, starts_at, unit_price_cents, deposit_percent, capacity, status, created_at
       	 FROM workshops
      	 WHERE profile_id = $1
        	AND status IN ('published', 'full')
        	AND starts_at > now()
      	 ORDER BY starts_at
      	 LIMIT $2 OFFSET $3`,
		profileID, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Workshop
	for rows.Next() {
		var w domain.Workshop
		if err := rows.Scan(
			&w.ID, &w.ProfileID, &w.Title, &w.Starts,
			&w.UnitPriceCents, &w.DepositPercent, &w.Capacity, &w.Status, &w.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
