package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/repository"
)

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

const bookingColumns = `id, workshop_id, client_name, client_email, client_phone, participants,
	total_cents, deposit_cents, remaining_cents, status, deposit_status, remaining_status,
	checkout_session_id, payment_intent_id, cancellation_reason, deposit_paid_at, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.WorkshopID, &b.Client.Name, &b.Client.Email, &b.Client.Phone, &b.Participants,
		&b.TotalCents, &b.DepositCents, &b.RemainingCents, &b.Status, &b.DepositStatus, &b.RemainingStatus,
		&b.CheckoutSessionID, &b.PaymentIntentID, &b.CancellationReason, &b.DepositPaidAt, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Get retrieves a booking by its ID.
//
// Returns:
//   - *domain.Booking: the booking when found.
//   - error: repository.ErrNotFound if the booking is not found.
func (r *BookingRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgres.BookingRepo.Get"

	db := r.handle()

	b, err := scanBooking(db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return b, nil
}

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	const op = "postgres.BookingRepo.Create"

	db := r.handle()

	_, err := db.Exec(ctx,
		`INSERT INTO bookings(id, workshop_id, client_name, client_email, client_phone, participants,
			total_cents, deposit_cents, remaining_cents, status, deposit_status, remaining_status,
			checkout_session_id, payment_intent_id, cancellation_reason)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		b.ID, b.WorkshopID, b.Client.Name, b.Client.Email, b.Client.Phone, b.Participants,
		b.TotalCents, b.DepositCents, b.RemainingCents, b.Status, b.DepositStatus, b.RemainingStatus,
		b.CheckoutSessionID, b.PaymentIntentID, b.CancellationReason,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *BookingRepo) SetCheckoutSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	const op = "postgres.BookingRepo.SetCheckoutSession"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings SET checkout_session_id = $2 WHERE id = $1`,
		id, sessionID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	return nil
}

// ConfirmDepositPaid applies the deposit-paid webhook transition. The WHERE
// clause is the idempotency gate: a booking that is already confirmed is left
// untouched and the call reports repository.ErrAlreadySettled. Two concurrent
// deliveries of the same event cannot both pass the gate.
func (r *BookingRepo) ConfirmDepositPaid(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	const op = "postgres.BookingRepo.ConfirmDepositPaid"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings
        	SET status = 'confirmed',
            	deposit_status = 'paid',
            	deposit_paid_at = now(),
            	payment_intent_id = $2
      	 WHERE id = $1
        	AND status = 'pending_payment'`,
		id, paymentIntentID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		// Either the booking does not exist or a previous delivery already
		// confirmed it. Distinguish so duplicates ack cleanly.
		var exists bool
		if err := db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM bookings WHERE id = $1)`, id,
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

// MarkRemainingPaid settles the on-site remainder, recorded by the owner.
func (r *BookingRepo) MarkRemainingPaid(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.BookingRepo.MarkRemainingPaid"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings
        	SET remaining_status = 'paid'
      	 WHERE id = $1 AND remaining_status = 'pending'`,
		id,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInvalidTransition)
	}

	return nil
}

// Cancel moves a booking to the terminal cancelled state and records the
// reason. Already-terminal bookings are not touched.
func (r *BookingRepo) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	const op = "postgres.BookingRepo.Cancel"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings
        	SET status = 'cancelled', cancellation_reason = $2
      	 WHERE id = $1 AND status IN ('pending_payment', 'confirmed')`,
		id, reason,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInvalidTransition)
	}

	return nil
}

// Complete marks a confirmed booking completed after the workshop took place.
func (r *BookingRepo) Complete(ctx context.Context, id uuid.UUID) error {
	const op = "postgres.BookingRepo.Complete"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE bookings SET status = 'completed' WHERE id = $1 AND status = 'confirmed'`,
		id,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInvalidTransition)
	}

	return nil
}

// ListByWorkshop lists all bookings of a workshop, newest first.
func (r *BookingRepo) ListByWorkshop(ctx context.Context, workshopID uuid.UUID, limit, offset int) ([]domain.Booking, error) {
	const op = "postgres.BookingRepo.ListByWorkshop"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+bookingColumns+`
       	 FROM bookings
      	 WHERE workshop_id = $1
      	 ORDER BY created_at DESC
      	 LIMIT $2 OFFSET $3`,
		workshopID, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}
