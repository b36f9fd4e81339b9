package webhook

import (
	"testing"
	"time"

	stripe "github.com/stripe/stripe-go/v79"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fournil-app/fournil/internal/domain"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		eventType stripe.EventType
		want      eventKind
	}{
		{"checkout.session.completed", kindCheckoutCompleted},
		{"customer.subscription.updated", kindSubscriptionUpdated},
		{"customer.subscription.deleted", kindSubscriptionDeleted},
		{"invoice.paid", kindInvoicePaid},
		{"invoice.payment_failed", kindInvoiceFailed},
		{"account.updated", kindAccountUpdated},
		{"payment_intent.succeeded", kindIgnored},
		{"customer.subscription.created", kindIgnored},
		{"", kindIgnored},
	}

	for _, tc := range cases {
		t.Run(string(tc.eventType), func(t *testing.T) {
			assert.Equal(t, tc.want, kindOf(tc.eventType))
		})
	}
}

func TestMapSubscriptionStatus(t *testing.T) {
	for provider, want := range map[stripe.SubscriptionStatus]domain.SubscriptionStatus{
		stripe.SubscriptionStatusActive:   domain.SubscriptionActive,
		stripe.SubscriptionStatusTrialing: domain.SubscriptionTrialing,
		stripe.SubscriptionStatusPastDue:  domain.SubscriptionPastDue,
		stripe.SubscriptionStatusCanceled: domain.SubscriptionCanceled,
	} {
		got, ok := mapSubscriptionStatus(provider)
		require.True(t, ok, "status %q should map", provider)
		assert.Equal(t, want, got)
	}

	// Unknown vocabulary must not be guessed at.
	for _, provider := range []stripe.SubscriptionStatus{
		stripe.SubscriptionStatusIncomplete,
		stripe.SubscriptionStatusIncompleteExpired,
		stripe.SubscriptionStatusUnpaid,
		stripe.SubscriptionStatusPaused,
		"made_up_status",
	} {
		_, ok := mapSubscriptionStatus(provider)
		assert.False(t, ok, "status %q should not map", provider)
	}
}

func TestOnboardingComplete(t *testing.T) {
	complete := func() *stripe.Account {
		return &stripe.Account{
			ChargesEnabled:   true,
			DetailsSubmitted: true,
			Capabilities: &stripe.AccountCapabilities{
				Transfers: stripe.AccountCapabilityStatusActive,
			},
		}
	}

	assert.True(t, onboardingComplete(complete()))
	assert.False(t, onboardingComplete(nil))

	t.Run("charges disabled", func(t *testing.T) {
		acct := complete()
		acct.ChargesEnabled = false
		assert.False(t, onboardingComplete(acct))
	})

	t.Run("details not submitted", func(t *testing.T) {
		acct := complete()
		acct.DetailsSubmitted = false
		assert.False(t, onboardingComplete(acct))
	})

	t.Run("transfers inactive", func(t *testing.T) {
		acct := complete()
		acct.Capabilities.Transfers = stripe.AccountCapabilityStatusPending
		assert.False(t, onboardingComplete(acct))
	})

	t.Run("no capabilities block", func(t *testing.T) {
		acct := complete()
		acct.Capabilities = nil
		assert.False(t, onboardingComplete(acct))
	})
}

func TestSubscriptionPriceID(t *testing.T) {
	assert.Empty(t, subscriptionPriceID(nil))
	assert.Empty(t, subscriptionPriceID(&stripe.Subscription{}))
	assert.Empty(t, subscriptionPriceID(&stripe.Subscription{
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{{}}},
	}))

	sub := &stripe.Subscription{
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{Price: &stripe.Price{ID: "price_artisan_monthly"}},
			},
		},
	}
	assert.Equal(t, "price_artisan_monthly", subscriptionPriceID(sub))
}

func TestPeriodBounds(t *testing.T) {
	start, end := periodBounds(nil)
	assert.Nil(t, start)
	assert.Nil(t, end)

	start, end = periodBounds(&stripe.Subscription{})
	assert.Nil(t, start)
	assert.Nil(t, end)

	sub := &stripe.Subscription{
		CurrentPeriodStart: 1_700_000_000,
		CurrentPeriodEnd:   1_702_592_000,
	}
	start, end = periodBounds(sub)
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), *start)
	assert.Equal(t, time.Unix(1_702_592_000, 0).UTC(), *end)
}

func TestInvoicePeriod(t *testing.T) {
	_, _, ok := invoicePeriod(nil)
	assert.False(t, ok)

	_, _, ok = invoicePeriod(&stripe.Invoice{})
	assert.False(t, ok)

	t.Run("line item period preferred", func(t *testing.T) {
		inv := &stripe.Invoice{
			PeriodStart: 100,
			PeriodEnd:   200,
			Lines: &stripe.InvoiceLineItemList{
				Data: []*stripe.InvoiceLineItem{
					{Period: &stripe.Period{Start: 1_700_000_000, End: 1_702_592_000}},
				},
			},
		}

		start, end, ok := invoicePeriod(inv)
		require.True(t, ok)
		assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), start)
		assert.Equal(t, time.Unix(1_702_592_000, 0).UTC(), end)
	})

	t.Run("envelope fallback", func(t *testing.T) {
		inv := &stripe.Invoice{
			PeriodStart: 1_700_000_000,
			PeriodEnd:   1_702_592_000,
		}

		start, end, ok := invoicePeriod(inv)
		require.True(t, ok)
		assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), start)
		assert.Equal(t, time.Unix(1_702_592_000, 0).UTC(), end)
	})
}
