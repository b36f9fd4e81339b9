package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/repository"
)

type OrderRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *OrderRepo) With(db DB) *OrderRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *OrderRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const orderColumns = `id, number, profile_id, client_name, client_email, client_phone, type,
	subtotal_cents, total_cents, quoted_price_cents, status, payment_status, payment_intent_id,
	confirmed_at, cancelled_at, paid_at, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.Number, &o.ProfileID, &o.Client.Name, &o.Client.Email, &o.Client.Phone, &o.Type,
		&o.SubtotalCents, &o.TotalCents, &o.QuotedPriceCents, &o.Status, &o.PaymentStatus, &o.PaymentIntentID,
		&o.ConfirmedAt, &o.CancelledAt, &o.PaidAt, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Get retrieves an order by its ID.
//
// Returns:
//   - *domain.Order: the order when found.
//   - error: repository.ErrNotFound if the order is not found.
func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	const op = "postgres.OrderRepo.Get"

	db := r.handle()

	o, err := scanOrder(db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return o, nil
}

// Create inserts an order, drawing the next sequential number from the
// owning profile's counter. Must run inside a transaction so the counter
// bump and the insert commit together.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) (string, error) {
	const op = "postgres.OrderRepo.Create"

	db := r.handle()

	var seq int64
	if err := db.QueryRow(ctx,
		`UPDATE profiles SET order_seq = order_seq + 1 WHERE id = $1 RETURNING order_seq`,
		o.ProfileID,
	).Scan(&seq); err != nil {
		return "", wrapDBErr(op, err)
	}

	number := fmt.Sprintf("ORD-%04d", seq)

	_, err := db.Exec(ctx,
		`INSERT INTO orders(id, number, profile_id, client_name, client_email, client_phone, type,
			subtotal_cents, total_cents, quoted_price_cents, status, payment_status, payment_intent_id)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		o.ID, number, o.ProfileID, o.Client.Name, o.Client.Email, o.Client.Phone, o.Type,
		o.SubtotalCents, o.TotalCents, o.QuotedPriceCents, o.Status, o.PaymentStatus, o.PaymentIntentID,
	)
	if err != nil {
		return "", wrapDBErr(op, err)
	}

	return number, nil
}

// SetQuote records the owner's quoted price on a custom order. Only allowed
// while payment is still pending.
func (r *OrderRepo) SetQuote(ctx context.Context, id uuid.UUID, quotedCents int64) error {
	const op = "postgres.OrderRepo.SetQuote"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE orders
        	SET quoted_price_cents = $2, total_cents = $2
      	 WHERE id = $1 AND type = 'custom' AND payment_status = 'pending'`,
		id, quotedCents,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInvalidTransition)
	}

	return nil
}

// MarkPaid applies the payment webhook transition. The gate is keyed on
// payment_status, not the workflow status: re-delivered events for an
// already-paid order are no-ops even when the owner has moved the workflow
// back or forward in the meantime.
func (r *OrderRepo) MarkPaid(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	const op = "postgres.OrderRepo.MarkPaid"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE orders
        	SET payment_status = 'paid',
            	paid_at = now(),
            	payment_intent_id = $2
      	 WHERE id = $1 AND payment_status = 'pending'`,
		id, paymentIntentID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return wrapDBErr(op, err)
		}
		if !exists {
			return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
		}
		return fmt.Errorf("%s:%w", op, repository.ErrAlreadySettled)
	}

	return nil
}

// AdvanceIfPending moves the workflow pending -> confirmed on payment
// receipt. A workflow a human already advanced past pending is left alone.
func (r *OrderRepo) AdvanceIfPending(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "postgres.OrderRepo.AdvanceIfPending"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE orders
        	SET status = 'confirmed', confirmed_at = now()
      	 WHERE id = $1 AND status = 'pending'`,
		id,
	)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return tag.RowsAffected() == 1, nil
}

// SetStatus applies a manual workflow transition by the owner. The allowed
// moves are validated by the service; here only cancellation stamping is
// special-cased.
func (r *OrderRepo) SetStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	const op = "postgres.OrderRepo.SetStatus"

	db := r.handle()

	q := `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`
	if to == domain.OrderCancelled {
		q = `UPDATE orders SET status = $3, cancelled_at = now() WHERE id = $1 AND status = $2`
	}

	tag, err := db.Exec(ctx, q, id, from, to)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInvalidTransition)
	}

	return nil
}

// ListByProfile lists a tenant's orders, newest first.
func (r *OrderRepo) ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]domain.Order, error) {
	const op = "postgres.OrderRepo.ListByProfile"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+orderColumns+`
       	 FROM orders
      	 WHERE profile_id = $1
      	 ORDER BY created_at DESC
      	 LIMIT $2 OFFSET $3`,
		profileID, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
