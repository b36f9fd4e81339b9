package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fournil-app/fournil/internal/domain"
)

func TestTransitionAllowed(t *testing.T) {
	allowed := []struct{ from, to domain.OrderStatus }{
		{domain.OrderPending, domain.OrderConfirmed},
		{domain.OrderConfirmed, domain.OrderInProgress},
		{domain.OrderInProgress, domain.OrderReady},
		{domain.OrderReady, domain.OrderDelivered},
		{domain.OrderReady, domain.OrderPickedUp},
		{domain.OrderPending, domain.OrderReady}, // skipping steps forward is fine
		{domain.OrderPending, domain.OrderCancelled},
		{domain.OrderReady, domain.OrderCancelled},
	}
	for _, tt := range allowed {
		assert.True(t, transitionAllowed(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	denied := []struct{ from, to domain.OrderStatus }{
		{domain.OrderConfirmed, domain.OrderPending}, // no regressions
		{domain.OrderReady, domain.OrderInProgress},
		{domain.OrderDelivered, domain.OrderCancelled}, // terminal stays terminal
		{domain.OrderPickedUp, domain.OrderReady},
		{domain.OrderCancelled, domain.OrderConfirmed},
		{domain.OrderPending, domain.OrderPending},
	}
	for _, tt := range denied {
		assert.False(t, transitionAllowed(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestPayableCents(t *testing.T) {
	t.Run("catalogue order charges the total", func(t *testing.T) {
		o := &domain.Order{Type: domain.OrderCatalogue, TotalCents: 4500}

		got, err := payableCents(o)
		require.NoError(t, err)
		assert.Equal(t, int64(4500), got)
	})

	t.Run("custom order charges the quote", func(t *testing.T) {
		quote := int64(12000)
		o := &domain.Order{Type: domain.OrderCustom, QuotedPriceCents: &quote}

		got, err := payableCents(o)
		require.NoError(t, err)
		assert.Equal(t, quote, got)
	})

	t.Run("unquoted custom order is not payable", func(t *testing.T) {
		o := &domain.Order{Type: domain.OrderCustom}

		_, err := payableCents(o)
		assert.ErrorIs(t, err, ErrNoQuote)
	})

	t.Run("zero-total catalogue order is not payable", func(t *testing.T) {
		o := &domain.Order{Type: domain.OrderCatalogue}

		_, err := payableCents(o)
		assert.ErrorIs(t, err, ErrNotEligible)
	})
}

func TestCheckoutAmountCents(t *testing.T) {
	t.Run("quoted custom order with a 30 percent deposit", func(t *testing.T) {
		quote := int64(10000)
		o := &domain.Order{Type: domain.OrderCustom, QuotedPriceCents: &quote}

		got, err := checkoutAmountCents(o, 30)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), got)
	})

	t.Run("full prepayment at 100 percent", func(t *testing.T) {
		o := &domain.Order{Type: domain.OrderCatalogue, TotalCents: 4500}

		got, err := checkoutAmountCents(o, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(4500), got)
	})

	t.Run("deposit rounds half-up on the cent", func(t *testing.T) {
		o := &domain.Order{Type: domain.OrderCatalogue, TotalCents: 4999}

		got, err := checkoutAmountCents(o, 33)
		require.NoError(t, err)
		assert.Equal(t, int64(1650), got) // 4999 * 0.33 = 1649.67
	})

	t.Run("zero percent leaves nothing due now", func(t *testing.T) {
		o := &domain.Order{Type: domain.OrderCatalogue, TotalCents: 4500}

		got, err := checkoutAmountCents(o, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got)
	})

	t.Run("unquoted custom order propagates ErrNoQuote", func(t *testing.T) {
		o := &domain.Order{Type: domain.OrderCustom}

		_, err := checkoutAmountCents(o, 30)
		assert.ErrorIs(t, err, ErrNoQuote)
	})
}

func TestCheckoutPossible(t *testing.T) {
	onboarded := &domain.Profile{
		StripeAccountID:     "acct_1",
		StripeOnboarded:     true,
		OrderDepositPercent: 100,
	}

	t.Run("catalogue order with a reachable client", func(t *testing.T) {
		o := &domain.Order{
			Type:       domain.OrderCatalogue,
			TotalCents: 4500,
			Client:     domain.Client{Email: "claire@example.com"},
		}
		assert.True(t, checkoutPossible(o, onboarded))
	})

	t.Run("no client email is never payable online", func(t *testing.T) {
		o := &domain.Order{Type: domain.OrderCatalogue, TotalCents: 4500}
		assert.False(t, checkoutPossible(o, onboarded))
	})

	t.Run("incomplete onboarding blocks checkout", func(t *testing.T) {
		o := &domain.Order{
			Type:       domain.OrderCatalogue,
			TotalCents: 4500,
			Client:     domain.Client{Email: "claire@example.com"},
		}
		p := &domain.Profile{StripeAccountID: "acct_1", OrderDepositPercent: 100}
		assert.False(t, checkoutPossible(o, p))
	})

	t.Run("unquoted custom order stays payable pending the quote", func(t *testing.T) {
		o := &domain.Order{
			Type:   domain.OrderCustom,
			Client: domain.Client{Email: "claire@example.com"},
		}
		assert.True(t, checkoutPossible(o, onboarded))
	})

	t.Run("zero deposit percent makes catalogue orders offline-only", func(t *testing.T) {
		o := &domain.Order{
			Type:       domain.OrderCatalogue,
			TotalCents: 4500,
			Client:     domain.Client{Email: "claire@example.com"},
		}
		p := &domain.Profile{StripeAccountID: "acct_1", StripeOnboarded: true}
		assert.False(t, checkoutPossible(o, p))
	})
}
