package webhook

import (
	"time"

	stripe "github.com/stripe/stripe-go/v79"

	"github.com/fournil-app/fournil/internal/domain"
)

// eventKind is the closed set of provider events the reconciler acts on.
// The external event-type string is mapped here once and never reaches
// business logic.
type eventKind int

const (
	kindIgnored eventKind = iota
	kindCheckoutCompleted
	kindSubscriptionUpdated
	kindSubscriptionDeleted
	kindInvoicePaid
	kindInvoiceFailed
	kindAccountUpdated
)

func kindOf(t stripe.EventType) eventKind {
	switch t {
	case "checkout.session.completed":
		return kindCheckoutCompleted
	case "customer.subscription.updated":
		return kindSubscriptionUpdated
	case "customer.subscription.deleted":
		return kindSubscriptionDeleted
	case "invoice.paid":
		return kindInvoicePaid
	case "invoice.payment_failed":
		return kindInvoiceFailed
	case "account.updated":
		return kindAccountUpdated
	default:
		return kindIgnored
	}
}

// mapSubscriptionStatus translates the provider status vocabulary through an
// explicit allow-list. Anything unmapped reports ok=false and must leave
// local state unchanged.
func mapSubscriptionStatus(s stripe.SubscriptionStatus) (domain.SubscriptionStatus, bool) {
	switch s {
	case stripe.SubscriptionStatusActive:
		return domain.SubscriptionActive, true
	case stripe.SubscriptionStatusTrialing:
		return domain.SubscriptionTrialing, true
	case stripe.SubscriptionStatusPastDue:
		return domain.SubscriptionPastDue, true
	case stripe.SubscriptionStatusCanceled:
		return domain.SubscriptionCanceled, true
	default:
		return "", false
	}
}

// onboardingComplete is the gate for the locally cached onboarding flag.
// Charges enabled alone is a partial state; payouts also require submitted
// details and an active transfers capability.
func onboardingComplete(acct *stripe.Account) bool {
	if acct == nil {
		return false
	}

	return acct.ChargesEnabled &&
		acct.DetailsSubmitted &&
		acct.Capabilities != nil &&
		acct.Capabilities.Transfers == stripe.AccountCapabilityStatusActive
}

// subscriptionPriceID extracts the price driving the subscription, if the
// payload carries one.
func subscriptionPriceID(sub *stripe.Subscription) string {
	if sub == nil || sub.Items == nil || len(sub.Items.Data) == 0 {
		return ""
	}
	if sub.Items.Data[0].Price == nil {
		return ""
	}
	return sub.Items.Data[0].Price.ID
}

func periodBounds(sub *stripe.Subscription) (start, end *time.Time) {
	if sub == nil {
		return nil, nil
	}
	if sub.CurrentPeriodStart > 0 {
		t := time.Unix(sub.CurrentPeriodStart, 0).UTC()
		start = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		end = &t
	}
	return start, end
}

// invoicePeriod pulls the billing period an invoice covers, preferring the
// subscription line item over the invoice envelope.
func invoicePeriod(inv *stripe.Invoice) (start, end time.Time, ok bool) {
	if inv == nil {
		return time.Time{}, time.Time{}, false
	}

	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line != nil && line.Period != nil && line.Period.Start > 0 && line.Period.End > 0 {
				return time.Unix(line.Period.Start, 0).UTC(), time.Unix(line.Period.End, 0).UTC(), true
			}
		}
	}

	if inv.PeriodStart > 0 && inv.PeriodEnd > 0 {
		return time.Unix(inv.PeriodStart, 0).UTC(), time.Unix(inv.PeriodEnd, 0).UTC(), true
	}

	return time.Time{}, time.Time{}, false
}
