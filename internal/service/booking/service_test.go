package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fournil-app/fournil/internal/domain"
)

func TestCanAdmit(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		committed int
		requested int
		want      bool
	}{
		{"empty workshop", 8, 0, 2, true},
		{"exactly fills", 8, 6, 2, true},
		{"one over", 8, 7, 2, false},
		{"already full", 2, 2, 1, false},
		{"single seat left", 8, 7, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, canAdmit(tt.capacity, tt.committed, tt.requested))
		})
	}
}

func TestCheckoutEligible(t *testing.T) {
	onboarded := &domain.Profile{StripeAccountID: "acct_1", StripeOnboarded: true}

	b := func(deposit int64, email string) *domain.Booking {
		return &domain.Booking{
			DepositCents: deposit,
			Client:       domain.Client{Name: "Ada", Email: email},
		}
	}

	assert.True(t, checkoutEligible(b(3000, "ada@example.com"), onboarded))

	t.Run("no client email", func(t *testing.T) {
		assert.False(t, checkoutEligible(b(3000, ""), onboarded))
	})

	t.Run("nothing due now", func(t *testing.T) {
		assert.False(t, checkoutEligible(b(0, "ada@example.com"), onboarded))
	})

	t.Run("onboarding incomplete", func(t *testing.T) {
		p := &domain.Profile{StripeAccountID: "acct_1", StripeOnboarded: false}
		assert.False(t, checkoutEligible(b(3000, "ada@example.com"), p))
	})

	t.Run("no connected account", func(t *testing.T) {
		p := &domain.Profile{StripeOnboarded: true}
		assert.False(t, checkoutEligible(b(3000, "ada@example.com"), p))
	})
}
