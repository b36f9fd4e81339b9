package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name           string
		unitPriceCents int64
		quantity       int
		depositPercent int
		wantTotal      int64
		wantDeposit    int64
		wantRemaining  int64
		wantStatus     RemainingPaymentStatus
	}{
		{
			name:           "thirty percent deposit",
			unitPriceCents: 10000,
			quantity:       1,
			depositPercent: 30,
			wantTotal:      10000,
			wantDeposit:    3000,
			wantRemaining:  7000,
			wantStatus:     RemainingPending,
		},
		{
			name:           "half-up rounding on odd cents",
			unitPriceCents: 3333,
			quantity:       1,
			depositPercent: 50,
			wantTotal:      3333,
			wantDeposit:    1667, // 1666.5 rounds up
			wantRemaining:  1666,
			wantStatus:     RemainingPending,
		},
		{
			name:           "full prepayment",
			unitPriceCents: 4500,
			quantity:       2,
			depositPercent: 100,
			wantTotal:      9000,
			wantDeposit:    9000,
			wantRemaining:  0,
			wantStatus:     RemainingNotRequired,
		},
		{
			name:           "zero deposit",
			unitPriceCents: 4500,
			quantity:       3,
			depositPercent: 0,
			wantTotal:      13500,
			wantDeposit:    0,
			wantRemaining:  13500,
			wantStatus:     RemainingPending,
		},
		{
			name:           "over one hundred clamps to full",
			unitPriceCents: 199,
			quantity:       1,
			depositPercent: 150,
			wantTotal:      199,
			wantDeposit:    199,
			wantRemaining:  0,
			wantStatus:     RemainingNotRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Price(tt.unitPriceCents, tt.quantity, tt.depositPercent)

			assert.Equal(t, tt.wantTotal, q.TotalCents)
			assert.Equal(t, tt.wantDeposit, q.DepositCents)
			assert.Equal(t, tt.wantRemaining, q.RemainingCents)
			assert.Equal(t, tt.wantStatus, q.RemainingStatus)
		})
	}
}

// The deposit/remainder split must be exact for every combination, never
// losing or inventing a cent.
func TestPriceIsExact(t *testing.T) {
	prices := []int64{1, 99, 100, 101, 3333, 10000, 99999}
	quantities := []int{1, 2, 3, 7, 12}

	for _, p := range prices {
		for _, q := range quantities {
			for pct := 0; pct <= 100; pct++ {
				quote := Price(p, q, pct)

				require.Equal(t, quote.TotalCents, quote.DepositCents+quote.RemainingCents,
					"price=%d qty=%d pct=%d", p, q, pct)
				require.GreaterOrEqual(t, quote.DepositCents, int64(0))
				require.GreaterOrEqual(t, quote.RemainingCents, int64(0))
			}
		}
	}
}

func TestSubscriptionPlanFor(t *testing.T) {
	assert.Equal(t, PlanFree, (*Subscription)(nil).PlanFor())

	sub := &Subscription{Plan: PlanMaison, Status: SubscriptionActive}
	assert.Equal(t, PlanMaison, sub.PlanFor())

	sub.Status = SubscriptionPastDue
	assert.Equal(t, PlanMaison, sub.PlanFor(), "past_due keeps the plan, it is not canceled")

	sub.Status = SubscriptionTrialing
	assert.Equal(t, PlanMaison, sub.PlanFor())

	sub.Status = SubscriptionCanceled
	assert.Equal(t, PlanFree, sub.PlanFor())
}
