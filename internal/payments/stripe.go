// Package payments wraps the Stripe client. Checkout sessions are created on
// the tenant's connected account; amounts are integer minor currency units
// throughout.
package payments

import (
	"context"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

type Config struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
	// Timeout bounds every outbound provider call. A timed-out call is a
	// failure, never an assumed success.
	Timeout time.Duration
}

type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentCheckoutParams describes a one-off payment session scoped to the
// amount due now (deposit or full total).
type PaymentCheckoutParams struct {
	AccountID     string // connected account receiving the funds
	AmountCents   int64
	Label         string
	CustomerEmail string
	Metadata      map[string]string
}

// SubscriptionCheckoutParams describes a plan-upgrade session on the
// platform account.
type SubscriptionCheckoutParams struct {
	PriceID       string
	CustomerEmail string
	Metadata      map[string]string
}

type Client struct {
	sc  *client.API
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	return &Client{sc: sc, cfg: cfg}
}

// CreatePaymentCheckout opens a provider-hosted session for exactly
// p.AmountCents on the tenant's connected account.
func (c *Client) CreatePaymentCheckout(ctx context.Context, p PaymentCheckoutParams) (*CheckoutSession, error) {
	const op = "payments.Client.CreatePaymentCheckout"

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(c.cfg.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.Label),
					},
				},
			},
		},
	}
	params.Context = ctx

	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	if p.AccountID != "" {
		params.SetStripeAccount(p.AccountID)
	}

	sess, err := c.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// GetSubscription fetches the current subscription state from the provider.
// Checkout-completed payloads carry the subscription id only.
func (c *Client) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	const op = "payments.Client.GetSubscription"

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.sc.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return sub, nil
}

// CreateSubscriptionCheckout opens a session for the configured plan price.
func (c *Client) CreateSubscriptionCheckout(ctx context.Context, p SubscriptionCheckoutParams) (*CheckoutSession, error) {
	const op = "payments.Client.CreateSubscriptionCheckout"

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(c.cfg.SuccessURL),
		CancelURL:  stripe.String(c.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx

	if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := c.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
