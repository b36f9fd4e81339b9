package domain

import (
	"time"

	"github.com/google/uuid"
)

type WorkshopStatus string

const (
	WorkshopDraft     WorkshopStatus = "draft"
	WorkshopPublished WorkshopStatus = "published"
	WorkshopFull      WorkshopStatus = "full"
	WorkshopCancelled WorkshopStatus = "cancelled"
	WorkshopCompleted WorkshopStatus = "completed"
)

type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "pending_payment"
	BookingConfirmed      BookingStatus = "confirmed"
	BookingCancelled      BookingStatus = "cancelled"
	BookingCompleted      BookingStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type RemainingPaymentStatus string

const (
	RemainingPending     RemainingPaymentStatus = "pending"
	RemainingPaid        RemainingPaymentStatus = "paid"
	RemainingNotRequired RemainingPaymentStatus = "not_required"
)

type OrderType string

const (
	OrderCatalogue OrderType = "catalogue"
	OrderCustom    OrderType = "custom"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderInProgress OrderStatus = "in_progress"
	OrderReady      OrderStatus = "ready"
	OrderDelivered  OrderStatus = "delivered"
	OrderPickedUp   OrderStatus = "picked_up"
	OrderCancelled  OrderStatus = "cancelled"
)

type Plan string

const (
	PlanFree    Plan = "free"
	PlanArtisan Plan = "artisan"
	PlanMaison  Plan = "maison"
)

type BillingInterval string

const (
	IntervalMonth BillingInterval = "month"
	IntervalYear  BillingInterval = "year"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionTrialing SubscriptionStatus = "trialing"
)

// Profile is a tenant: one pastry business with its own storefront.
// OrderDepositPercent is the tenant's deposit policy for orders, 0-100;
// 100 means orders are paid in full up front.
type Profile struct {
	ID                  uuid.UUID
	ShopName            string
	Email               string
	Plan                Plan
	StripeAccountID     string
	StripeOnboarded     bool
	OrderDepositPercent int
	CreatedAt           time.Time
}

// Workshop is a finite-capacity, date-bound offering owned by a profile.
type Workshop struct {
	ID             uuid.UUID
	ProfileID      uuid.UUID
	Title          string
	Starts         time.Time
	UnitPriceCents int64
	DepositPercent int
	Capacity       int
	Status         WorkshopStatus
	CreatedAt      time.Time
}

// WorkshopAvailability is the public seat picture of a workshop.
// Remaining is always Capacity minus Committed, never negative.
type WorkshopAvailability struct {
	WorkshopID uuid.UUID
	Status     WorkshopStatus
	Capacity   int
	Committed  int
	Remaining  int
}

type Client struct {
	Name  string
	Email string
	Phone string
}

// Booking is a claim on workshop capacity. Amounts are integer cents and
// always satisfy TotalCents == DepositCents + RemainingCents.
type Booking struct {
	ID                 uuid.UUID
	WorkshopID         uuid.UUID
	Client             Client
	Participants       int
	TotalCents         int64
	DepositCents       int64
	RemainingCents     int64
	Status             BookingStatus
	DepositStatus      PaymentStatus
	RemainingStatus    RemainingPaymentStatus
	CheckoutSessionID  string
	PaymentIntentID    string
	CancellationReason string
	DepositPaidAt      *time.Time
	CreatedAt          time.Time
}

// Order is a catalogue or custom-cake order. The workflow status is
// independent of the payment status.
type Order struct {
	ID               uuid.UUID
	Number           string
	ProfileID        uuid.UUID
	Client           Client
	Type             OrderType
	SubtotalCents    int64
	TotalCents       int64
	QuotedPriceCents *int64
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentIntentID  string
	ConfirmedAt      *time.Time
	CancelledAt      *time.Time
	PaidAt           *time.Time
	CreatedAt        time.Time
}

// Subscription mirrors the profile owner's provider subscription. The
// profile's Plan field is a projection of the latest subscription state.
type Subscription struct {
	ID                   uuid.UUID
	ProfileID            uuid.UUID
	Plan                 Plan
	Interval             BillingInterval
	StripeCustomerID     string
	StripeSubscriptionID string
	Status               SubscriptionStatus
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CancelAtPeriodEnd    bool
	CanceledAt           *time.Time
	CreatedAt            time.Time
}

// PlanFor derives the profile plan a subscription entitles its owner to.
// Anything other than a live subscription falls back to the free tier.
func (s *Subscription) PlanFor() Plan {
	if s == nil {
		return PlanFree
	}
	switch s.Status {
	case SubscriptionActive, SubscriptionTrialing, SubscriptionPastDue:
		return s.Plan
	default:
		return PlanFree
	}
}

// PayableNowCents is the amount a checkout session must be opened for:
// the deposit, which equals the full total when the deposit percent is 100.
func (b *Booking) PayableNowCents() int64 {
	return b.DepositCents
}
