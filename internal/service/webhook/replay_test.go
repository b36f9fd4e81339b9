package webhook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fournil-app/fournil/internal/domain"
	"github.com/fournil-app/fournil/internal/notify"
	"github.com/fournil-app/fournil/internal/plans"
	postgresrepo "github.com/fournil-app/fournil/internal/repository/postgres"
	"github.com/fournil-app/fournil/internal/uow"
)

var fixtureID = uuid.MustParse("8e3f1c1e-4b2a-4d6a-9f7e-0c5a1b2d3e4f")

// fakeRunner drives the unit of work over an in-memory ledger instead of a
// real transaction.
type fakeRunner struct {
	db postgresrepo.DB
}

func (r fakeRunner) RunTx(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context, tx postgresrepo.DB) error,
) error {
	return fn(ctx, r.db)
}

// ledgerDB fakes the narrow database surface the reconciler touches. Each
// conditional settlement passes exactly once; later executions see zero rows
// affected, the same picture a replayed delivery gets from the real gates.
type ledgerDB struct {
	bookingConfirms int
	orderPaids      int
	subCancels      int
	execs           []string
}

func (d *ledgerDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execs = append(d.execs, sql)

	switch {
	case strings.Contains(sql, "deposit_status = 'paid'"):
		if d.bookingConfirms > 0 {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		d.bookingConfirms++
	case strings.Contains(sql, "SET payment_status = 'paid'"):
		if d.orderPaids > 0 {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		d.orderPaids++
	case strings.Contains(sql, "canceled_at = now()"):
		if d.subCancels > 0 {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		d.subCancels++
	}

	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (d *ledgerDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected multi-row query: " + sql)
}

func (d *ledgerDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return fakeRow{}
}

func (d *ledgerDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

// fakeRow fills any scan destination the repositories use with a plausible
// value. Existence probes scan into *bool and read true: every entity the
// events reference is present.
type fakeRow struct{}

func (fakeRow) Scan(dest ...any) error {
	now := time.Now()

	for _, d := range dest {
		switch v := d.(type) {
		case *uuid.UUID:
			*v = fixtureID
		case *string:
			*v = "claire@example.com"
		case *bool:
			*v = true
		case *int:
			*v = 2
		case *int64:
			*v = 4500
		case *time.Time:
			*v = now
		case **time.Time:
			*v = nil
		case **int64:
			*v = nil
		case *domain.WorkshopStatus:
			*v = domain.WorkshopPublished
		case *domain.BookingStatus:
			*v = domain.BookingConfirmed
		case *domain.PaymentStatus:
			*v = domain.PaymentPaid
		case *domain.RemainingPaymentStatus:
			*v = domain.RemainingPending
		case *domain.OrderType:
			*v = domain.OrderCatalogue
		case *domain.OrderStatus:
			*v = domain.OrderConfirmed
		case *domain.Plan:
			*v = domain.PlanFree
		case *domain.BillingInterval:
			*v = domain.IntervalMonth
		case *domain.SubscriptionStatus:
			*v = domain.SubscriptionActive
		default:
			return fmt.Errorf("unhandled scan destination %T", d)
		}
	}

	return nil
}

type recordingDispatcher struct {
	bookings int
	payments int
	statuses int
}

func (d *recordingDispatcher) SendBookingConfirmation(ctx context.Context, m notify.BookingConfirmation) error {
	d.bookings++
	return nil
}

func (d *recordingDispatcher) SendPaymentConfirmation(ctx context.Context, m notify.PaymentConfirmation) error {
	d.payments++
	return nil
}

func (d *recordingDispatcher) SendStatusUpdate(ctx context.Context, m notify.StatusUpdate) error {
	d.statuses++
	return nil
}

func newReplayService(db *ledgerDB, disp notify.Dispatcher) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(postgresrepo.NewStore(nil), plans.New(plans.PriceIDs{}), nil, nil, disp, logger, Config{
		SigningSecret: testSigningSecret,
	})
	s.uow = uow.NewUoW(fakeRunner{db: db})

	return s
}

func TestProcessBookingCheckoutRedelivery(t *testing.T) {
	db := &ledgerDB{}
	disp := &recordingDispatcher{}
	s := newReplayService(db, disp)

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_bk_1","api_version":"2024-06-20","type":"checkout.session.completed","data":{"object":{"mode":"payment","payment_intent":"pi_1","metadata":{"booking_id":"%s"}}}}`,
		fixtureID,
	))
	header := signedHeader(t, payload, time.Now(), testSigningSecret)

	require.NoError(t, s.Process(context.Background(), payload, header))
	require.NoError(t, s.Process(context.Background(), payload, header))

	assert.Equal(t, 1, db.bookingConfirms, "exactly one confirmed transition")
	assert.Equal(t, 1, disp.payments, "the second delivery must not re-notify")
}

func TestProcessOrderCheckoutRedelivery(t *testing.T) {
	db := &ledgerDB{}
	disp := &recordingDispatcher{}
	s := newReplayService(db, disp)

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_ord_1","api_version":"2024-06-20","type":"checkout.session.completed","data":{"object":{"mode":"payment","payment_intent":"pi_2","metadata":{"order_id":"%s"}}}}`,
		fixtureID,
	))
	header := signedHeader(t, payload, time.Now(), testSigningSecret)

	require.NoError(t, s.Process(context.Background(), payload, header))
	require.NoError(t, s.Process(context.Background(), payload, header))

	assert.Equal(t, 1, db.orderPaids, "exactly one paid transition")
	assert.Equal(t, 1, disp.payments, "one client confirmation")
	assert.Equal(t, 1, disp.statuses, "one owner notification")
}

func TestProcessSubscriptionUpdateWithCanceledStatus(t *testing.T) {
	db := &ledgerDB{}
	s := newReplayService(db, &recordingDispatcher{})

	payload := []byte(`{"id":"evt_sub_1","api_version":"2024-06-20","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","status":"canceled"}}}`)
	header := signedHeader(t, payload, time.Now(), testSigningSecret)

	require.NoError(t, s.Process(context.Background(), payload, header))
	require.NoError(t, s.Process(context.Background(), payload, header))

	// The terminal status goes through the same closing statement a deletion
	// event uses, canceled-at stamp included, and only once.
	assert.Equal(t, 1, db.subCancels)

	stamped := false
	for _, q := range db.execs {
		if strings.Contains(q, "canceled_at = now()") {
			stamped = true
		}
	}
	assert.True(t, stamped, "closing the subscription must stamp canceled_at")
}
