// Package notify is the boundary to the email collaborator. Dispatches are
// fire-and-forget: failures are logged by the caller and never block or roll
// back a ledger transition.
package notify

import (
	"context"
	"log/slog"
)

// BookingConfirmation carries pre-resolved display data; no entity ids cross
// this boundary.
type BookingConfirmation struct {
	ClientName     string
	ClientEmail    string
	ShopName       string
	WorkshopTitle  string
	Participants   int
	TotalDisplay   string
	DepositDisplay string
}

type PaymentConfirmation struct {
	ClientName    string
	ClientEmail   string
	ShopName      string
	Subject       string
	AmountDisplay string
}

type StatusUpdate struct {
	RecipientName  string
	RecipientEmail string
	ShopName       string
	Subject        string
	NewStatus      string
}

type Dispatcher interface {
	SendBookingConfirmation(ctx context.Context, m BookingConfirmation) error
	SendPaymentConfirmation(ctx context.Context, m PaymentConfirmation) error
	SendStatusUpdate(ctx context.Context, m StatusUpdate) error
}

// LogDispatcher records dispatches instead of delivering them. The real
// delivery pipeline is an external collaborator behind the same interface.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendBookingConfirmation(ctx context.Context, m BookingConfirmation) error {
	d.logger.InfoContext(ctx, "dispatch booking confirmation",
		"to", m.ClientEmail, "shop", m.ShopName, "workshop", m.WorkshopTitle)
	return nil
}

func (d *LogDispatcher) SendPaymentConfirmation(ctx context.Context, m PaymentConfirmation) error {
	d.logger.InfoContext(ctx, "dispatch payment confirmation",
		"to", m.ClientEmail, "shop", m.ShopName, "amount", m.AmountDisplay)
	return nil
}

func (d *LogDispatcher) SendStatusUpdate(ctx context.Context, m StatusUpdate) error {
	d.logger.InfoContext(ctx, "dispatch status update",
		"to", m.RecipientEmail, "shop", m.ShopName, "status", m.NewStatus)
	return nil
}
