package httpgin

import (
	"time"

	"github.com/fournil-app/fournil/internal/domain"
)

type ClientInput struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

type CreateBookingRequest struct {
	Client       ClientInput `json:"client" binding:"required"`
	Participants int         `json:"participants" binding:"required,gt=0"`
}

type CreateOrderRequest struct {
	Client        ClientInput `json:"client" binding:"required"`
	Type          string      `json:"type" binding:"required,oneof=catalogue custom"`
	SubtotalCents int64       `json:"subtotal_cents" binding:"omitempty,gte=0"`
}

type CreateWorkshopRequest struct {
	Title          string `json:"title" binding:"required"`
	StartsAt       string `json:"starts_at" binding:"required"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"gte=0"`
	DepositPercent int    `json:"deposit_percent" binding:"gte=0,lte=100"`
	Capacity       int    `json:"capacity" binding:"required,gt=0"`
}

type QuoteOrderRequest struct {
	QuotedPriceCents int64 `json:"quoted_price_cents" binding:"required,gt=0"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpgradeSubscriptionRequest struct {
	Plan     string `json:"plan" binding:"required,oneof=artisan maison"`
	Interval string `json:"interval" binding:"required,oneof=month year"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type WorkshopResponse struct {
	ID             string `json:"id"`
	ProfileID      string `json:"profile_id"`
	Title          string `json:"title"`
	StartsAt       string `json:"starts_at"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	DepositPercent int    `json:"deposit_percent"`
	Capacity       int    `json:"capacity"`
	Status         string `json:"status"`
}

type AvailabilityResponse struct {
	WorkshopID string `json:"workshop_id"`
	Status     string `json:"status"`
	Capacity   int    `json:"capacity"`
	Committed  int    `json:"committed"`
	Remaining  int    `json:"remaining"`
}

type BookingResponse struct {
	ID              string `json:"id"`
	WorkshopID      string `json:"workshop_id"`
	ClientName      string `json:"client_name"`
	Participants    int    `json:"participants"`
	TotalCents      int64  `json:"total_cents"`
	DepositCents    int64  `json:"deposit_cents"`
	RemainingCents  int64  `json:"remaining_cents"`
	Status          string `json:"status"`
	DepositStatus   string `json:"deposit_status"`
	RemainingStatus string `json:"remaining_status"`
	CheckoutURL     string `json:"checkout_url,omitempty"`
}

type OrderResponse struct {
	ID               string `json:"id"`
	Number           string `json:"number"`
	ProfileID        string `json:"profile_id"`
	ClientName       string `json:"client_name"`
	Type             string `json:"type"`
	SubtotalCents    int64  `json:"subtotal_cents"`
	TotalCents       int64  `json:"total_cents"`
	QuotedPriceCents *int64 `json:"quoted_price_cents,omitempty"`
	Status           string `json:"status"`
	PaymentStatus    string `json:"payment_status"`
}

type SubscriptionResponse struct {
	Plan              string `json:"plan"`
	Interval          string `json:"interval,omitempty"`
	Status            string `json:"status,omitempty"`
	CurrentPeriodEnd  string `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end,omitempty"`
}

type ProfileResponse struct {
	ID              string `json:"id"`
	ShopName        string `json:"shop_name"`
	Plan            string `json:"plan"`
	StripeOnboarded bool   `json:"stripe_onboarded"`
}

type CheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

func toWorkshopResponse(w *domain.Workshop) WorkshopResponse {
	return WorkshopResponse{
		ID:             w.ID.String(),
		ProfileID:      w.ProfileID.String(),
		Title:          w.Title,
		StartsAt:       w.Starts.Format(time.RFC3339),
		UnitPriceCents: w.UnitPriceCents,
		DepositPercent: w.DepositPercent,
		Capacity:       w.Capacity,
		Status:         string(w.Status),
	}
}

func toAvailabilityResponse(av *domain.WorkshopAvailability) AvailabilityResponse {
	return AvailabilityResponse{
		WorkshopID: av.WorkshopID.String(),
		Status:     string(av.Status),
		Capacity:   av.Capacity,
		Committed:  av.Committed,
		Remaining:  av.Remaining,
	}
}

func toBookingResponse(b *domain.Booking, checkoutURL string) BookingResponse {
	return BookingResponse{
		ID:              b.ID.String(),
		WorkshopID:      b.WorkshopID.String(),
		ClientName:      b.Client.Name,
		Participants:    b.Participants,
		TotalCents:      b.TotalCents,
		DepositCents:    b.DepositCents,
		RemainingCents:  b.RemainingCents,
		Status:          string(b.Status),
		DepositStatus:   string(b.DepositStatus),
		RemainingStatus: string(b.RemainingStatus),
		CheckoutURL:     checkoutURL,
	}
}

func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID.String(),
		Number:           o.Number,
		ProfileID:        o.ProfileID.String(),
		ClientName:       o.Client.Name,
		Type:             string(o.Type),
		SubtotalCents:    o.SubtotalCents,
		TotalCents:       o.TotalCents,
		QuotedPriceCents: o.QuotedPriceCents,
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
	}
}

// toSubscriptionResponse renders a nil subscription as the free plan.
func toSubscriptionResponse(sub *domain.Subscription) SubscriptionResponse {
	if sub == nil {
		return SubscriptionResponse{Plan: string(domain.PlanFree)}
	}

	resp := SubscriptionResponse{
		Plan:              string(sub.PlanFor()),
		Interval:          string(sub.Interval),
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodEnd != nil {
		resp.CurrentPeriodEnd = sub.CurrentPeriodEnd.Format(time.RFC3339)
	}

	return resp
}

func toProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:              p.ID.String(),
		ShopName:        p.ShopName,
		Plan:            string(p.Plan),
		StripeOnboarded: p.StripeOnboarded,
	}
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
