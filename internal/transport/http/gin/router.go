package httpgin

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fournil-app/fournil/internal/domain"
	redisrepo "github.com/fournil-app/fournil/internal/repository/redis"
	"github.com/fournil-app/fournil/internal/service"
	"github.com/fournil-app/fournil/internal/service/booking"
	"github.com/fournil-app/fournil/internal/service/orders"
	"github.com/fournil-app/fournil/internal/service/owner"
	"github.com/fournil-app/fournil/internal/service/query"
	"github.com/fournil-app/fournil/internal/service/webhook"
)

// maxWebhookBody bounds the raw payload read for signature verification.
const maxWebhookBody = 1 << 16

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public API
	r.GET("/workshops/:id", handleGetWorkshop(svcs))
	r.GET("/workshops/:id/availability", handleGetAvailability(svcs))
	r.GET("/profiles/:id/workshops", handleListWorkshops(svcs))

	r.POST("/workshops/:id/bookings", handleCreateBooking(svcs, idem))
	r.GET("/bookings/:id", handleGetBooking(svcs))

	r.POST("/profiles/:id/orders", handleCreateOrder(svcs, idem))
	r.GET("/orders/:id", handleGetOrder(svcs))
	r.POST("/orders/:id/checkout", handleOrderCheckout(svcs))

	// Payment provider callback
	r.POST("/webhooks/stripe", handleStripeWebhook(svcs))

	// Owner API
	// TODO: add owner auth middleware
	ownerAPI := r.Group("/owner")
	{
		ownerAPI.POST("/workshops", handleCreateWorkshop(svcs))
		ownerAPI.POST("/workshops/:id/publish", handleWorkshopTransition(svcs, "publish"))
		ownerAPI.POST("/workshops/:id/cancel", handleWorkshopTransition(svcs, "cancel"))
		ownerAPI.POST("/workshops/:id/complete", handleWorkshopTransition(svcs, "complete"))
		ownerAPI.GET("/workshops/:id/bookings", handleListWorkshopBookings(svcs))

		ownerAPI.POST("/bookings/:id/cancel", handleCancelBooking(svcs))
		ownerAPI.POST("/bookings/:id/complete", handleCompleteBooking(svcs))
		ownerAPI.POST("/bookings/:id/remaining-paid", handleMarkRemainingPaid(svcs))

		ownerAPI.GET("/profiles/:id", handleGetProfile(svcs))
		ownerAPI.GET("/profiles/:id/orders", handleListOrders(svcs))
		ownerAPI.POST("/orders/:id/quote", handleQuoteOrder(svcs))
		ownerAPI.POST("/orders/:id/status", handleUpdateOrderStatus(svcs))

		ownerAPI.GET("/profiles/:id/subscription", handleGetSubscription(svcs))
		ownerAPI.POST("/profiles/:id/subscription/checkout", handleUpgradeSubscription(svcs))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Get workshop
// @Param    id  path  string  true  "Workshop ID (uuid)"
// @Success  200  {object}  WorkshopResponse
// @Failure  404  {object}  ErrorResponse
// @Router   /workshops/{id} [get]
func handleGetWorkshop(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		w, err := svcs.Query.GetWorkshop(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 60s
		writeJSONWithCache(c, http.StatusOK, toWorkshopResponse(w), "public, max-age=60", true)
	}
}

// @Summary  Get workshop availability
// @Param    id  path  string  true  "Workshop ID (uuid)"
// @Success  200  {object}  AvailabilityResponse
// @Router   /workshops/{id}/availability [get]
func handleGetAvailability(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		av, err := svcs.Query.Availability(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, toAvailabilityResponse(av), "public, max-age=15", true)
	}
}

// @Summary  List a profile's upcoming workshops
// @Param    id     path   string  true  "Profile ID (uuid)"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200  {array}   WorkshopResponse
// @Router   /profiles/{id}/workshops [get]
func handleListWorkshops(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		profileID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		ws, err := svcs.Query.ListUpcomingWorkshops(c.Request.Context(), profileID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]WorkshopResponse, 0, len(ws))
		for i := range ws {
			out = append(out, toWorkshopResponse(&ws[i]))
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

// @Summary  Create booking (idempotent)
// @Param    id  path  string  true  "Workshop ID (uuid)"
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} BookingResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "capacity exceeded / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /workshops/{id}/bookings [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		workshopID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(workshopID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		result, err := svcs.Booking.Create(
			c.Request.Context(),
			workshopID,
			domain.Client{Name: req.Client.Name, Email: req.Client.Email, Phone: req.Client.Phone},
			req.Participants,
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if isRateLimitedErr(err) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error()})
				return
			}
			respondErr(c, err)
			return
		}

		resp := toBookingResponse(result.Booking, result.CheckoutURL)

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  200 {object} BookingResponse
// @Router   /bookings/{id} [get]
func handleGetBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		b, err := svcs.Query.GetBooking(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toBookingResponse(b, ""))
	}
}

// @Summary  Create order (idempotent)
// @Param    id  path  string  true  "Profile ID (uuid)"
// @Param    req body  CreateOrderRequest true "payload"
// @Success  201 {object} OrderResponse
// @Router   /profiles/{id}/orders [post]
func handleCreateOrder(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		profileID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemOrder(profileID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		o, err := svcs.Orders.Create(c.Request.Context(), orders.CreateInput{
			ProfileID:     profileID,
			Client:        domain.Client{Name: req.Client.Name, Email: req.Client.Email, Phone: req.Client.Phone},
			Type:          domain.OrderType(req.Type),
			SubtotalCents: req.SubtotalCents,
		})
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			respondErr(c, err)
			return
		}

		resp := toOrderResponse(o)

		if idemStorageKey != "" && idem != nil {
			b, _ := json.Marshal(resp)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(b))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Get order
// @Param    id  path  string  true  "Order ID (uuid)"
// @Success  200 {object} OrderResponse
// @Router   /orders/{id} [get]
func handleGetOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		o, err := svcs.Query.GetOrder(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(o))
	}
}

// @Summary  Start order payment checkout
// @Param    id  path  string  true  "Order ID (uuid)"
// @Success  201 {object} CheckoutResponse
// @Failure  409 {object} ErrorResponse "no quote / not eligible"
// @Router   /orders/{id}/checkout [post]
func handleOrderCheckout(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		url, err := svcs.Orders.InitiateCheckout(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CheckoutResponse{CheckoutURL: url})
	}
}

// @Summary  Payment provider webhook
// @Success  200 {object} map[string]bool
// @Failure  400 {object} ErrorResponse "bad signature"
// @Router   /webhooks/stripe [post]
func handleStripeWebhook(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			badRequest(c, "cannot read payload")
			return
		}

		err = svcs.Webhook.Process(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// @Summary  Create workshop (draft)
// @Param    req body  CreateWorkshopRequest true "payload"
// @Success  201 {object} WorkshopResponse
// @Router   /owner/workshops [post]
func handleCreateWorkshop(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateWorkshopRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		starts, err := parseRFC3339(req.StartsAt)
		if err != nil {
			badRequest(c, "invalid starts_at (RFC3339)")
			return
		}

		// TODO: take the profile from the auth context once owner auth lands
		profileID, ok := parseUUIDHeader(c, "X-Profile-ID")
		if !ok {
			return
		}

		w, err := svcs.Owner.CreateWorkshop(c.Request.Context(), owner.CreateWorkshopInput{
			ProfileID:      profileID,
			Title:          req.Title,
			Starts:         starts,
			UnitPriceCents: req.UnitPriceCents,
			DepositPercent: req.DepositPercent,
			Capacity:       req.Capacity,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, toWorkshopResponse(w))
	}
}

// @Summary  Transition workshop status
// @Param    id  path  string  true  "Workshop ID (uuid)"
// @Success  204
// @Failure  409 {object} ErrorResponse "invalid transition"
// @Router   /owner/workshops/{id}/publish [post]
func handleWorkshopTransition(svcs *service.Services, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}

		var err error
		switch action {
		case "publish":
			err = svcs.Owner.PublishWorkshop(c.Request.Context(), id)
		case "cancel":
			err = svcs.Owner.CancelWorkshop(c.Request.Context(), id)
		case "complete":
			err = svcs.Owner.CompleteWorkshop(c.Request.Context(), id)
		}
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  List workshop bookings
// @Param    id     path   string  true  "Workshop ID (uuid)"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200 {array} BookingResponse
// @Router   /owner/workshops/{id}/bookings [get]
func handleListWorkshopBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		workshopID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		bs, err := svcs.Query.ListWorkshopBookings(c.Request.Context(), workshopID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]BookingResponse, 0, len(bs))
		for i := range bs {
			out = append(out, toBookingResponse(&bs[i], ""))
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Cancel booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  204
// @Router   /owner/bookings/{id}/cancel [post]
func handleCancelBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req struct {
			Reason string `json:"reason"`
		}
		_ = c.ShouldBindJSON(&req)

		if err := svcs.Booking.Cancel(c.Request.Context(), id, req.Reason); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Complete booking
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  204
// @Router   /owner/bookings/{id}/complete [post]
func handleCompleteBooking(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Booking.Complete(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Mark remaining balance paid on site
// @Param    id  path  string  true  "Booking ID (uuid)"
// @Success  204
// @Router   /owner/bookings/{id}/remaining-paid [post]
func handleMarkRemainingPaid(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Booking.MarkRemainingPaid(c.Request.Context(), id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Get profile
// @Param    id  path  string  true  "Profile ID (uuid)"
// @Success  200 {object} ProfileResponse
// @Router   /owner/profiles/{id} [get]
func handleGetProfile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		p, err := svcs.Owner.GetProfile(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toProfileResponse(p))
	}
}

// @Summary  List profile orders
// @Param    id     path   string  true  "Profile ID (uuid)"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200 {array} OrderResponse
// @Router   /owner/profiles/{id}/orders [get]
func handleListOrders(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		profileID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		limit := parseIntDefault(c.Query("limit"), 50)
		offset := parseIntDefault(c.Query("offset"), 0)

		os, err := svcs.Orders.ListByProfile(c.Request.Context(), profileID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}

		out := make([]OrderResponse, 0, len(os))
		for i := range os {
			out = append(out, toOrderResponse(&os[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Quote custom order
// @Param    id  path  string  true  "Order ID (uuid)"
// @Param    req body  QuoteOrderRequest true "payload"
// @Success  204
// @Failure  409 {object} ErrorResponse "not a quotable order"
// @Router   /owner/orders/{id}/quote [post]
func handleQuoteOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req QuoteOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := svcs.Orders.SetQuote(c.Request.Context(), id, req.QuotedPriceCents); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Update order workflow status
// @Param    id  path  string  true  "Order ID (uuid)"
// @Param    req body  UpdateOrderStatusRequest true "payload"
// @Success  204
// @Failure  409 {object} ErrorResponse "invalid transition"
// @Router   /owner/orders/{id}/status [post]
func handleUpdateOrderStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		err := svcs.Orders.UpdateStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Get current subscription
// @Param    id  path  string  true  "Profile ID (uuid)"
// @Success  200 {object} SubscriptionResponse
// @Router   /owner/profiles/{id}/subscription [get]
func handleGetSubscription(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		profileID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		sub, err := svcs.Owner.CurrentSubscription(c.Request.Context(), profileID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, toSubscriptionResponse(sub))
	}
}

// @Summary  Start plan upgrade checkout
// @Param    id  path  string  true  "Profile ID (uuid)"
// @Param    req body  UpgradeSubscriptionRequest true "payload"
// @Success  201 {object} CheckoutResponse
// @Failure  400 {object} ErrorResponse "unknown plan"
// @Router   /owner/profiles/{id}/subscription/checkout [post]
func handleUpgradeSubscription(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		profileID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req UpgradeSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		url, err := svcs.Owner.UpgradeSubscription(
			c.Request.Context(),
			profileID,
			domain.Plan(req.Plan),
			domain.BillingInterval(req.Interval),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CheckoutResponse{CheckoutURL: url})
	}
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return v, true
}

func parseUUIDHeader(c *gin.Context, name string) (uuid.UUID, bool) {
	v, err := uuid.Parse(c.GetHeader(name))
	if err != nil {
		badRequest(c, "invalid "+name+" header")
		return uuid.Nil, false
	}
	return v, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func isRateLimitedErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "rate limited")
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// booking service
	case errors.Is(err, booking.ErrWorkshopNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "workshop not found"})
		return
	case errors.Is(err, booking.ErrWorkshopNotBookable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "workshop not open for booking"})
		return
	case errors.Is(err, booking.ErrCapacityExceeded):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "not enough seats"})
		return
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, booking.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid booking transition"})
		return
	case errors.Is(err, booking.ErrCheckoutFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "payment provider unavailable"})
		return
	// orders service
	case errors.Is(err, orders.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})
		return
	case errors.Is(err, orders.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
		return
	case errors.Is(err, orders.ErrNoQuote):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "order has no quote"})
		return
	case errors.Is(err, orders.ErrNotEligible):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "order not payable online"})
		return
	case errors.Is(err, orders.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid order transition"})
		return
	case errors.Is(err, orders.ErrCheckoutFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "payment provider unavailable"})
		return
	// owner service
	case errors.Is(err, owner.ErrWorkshopNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "workshop not found"})
		return
	case errors.Is(err, owner.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "profile not found"})
		return
	case errors.Is(err, owner.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "invalid workshop transition"})
		return
	case errors.Is(err, owner.ErrWorkshopValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	case errors.Is(err, owner.ErrUnknownPlan):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown plan or interval"})
		return
	case errors.Is(err, owner.ErrCheckoutFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "payment provider unavailable"})
		return
	// query service
	case errors.Is(err, query.ErrWorkshopNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "workshop not found"})
		return
	case errors.Is(err, query.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "booking not found"})
		return
	case errors.Is(err, query.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})
		return
	// webhook service
	case errors.Is(err, webhook.ErrBadSignature):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad signature"})
		return
	case errors.Is(err, webhook.ErrNotConfigured):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "webhook not configured"})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
