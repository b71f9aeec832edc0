package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/dto"
	bookingapp "hotelbook/internal/app/handlers/booking"
	"hotelbook/internal/app/queries"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createBookingRequest struct {
	PropertyID    string                  `json:"property_id"`
	CheckIn       string                  `json:"check_in"`
	CheckOut      string                  `json:"check_out"`
	Guests        int                     `json:"guests"`
	TotalPrice    int64                   `json:"total_price"`
	PaymentOption string                  `json:"payment_option"`
	GuestDetails  bookingapp.GuestDetails `json:"guest_details"`
}

type verifyPaymentRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

type walletPaymentRequest struct {
	Amount int64 `json:"amount"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type availabilityRequest struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

func (h BookingHandler) Create(c *gin.Context) {
	guest, _ := currentActor(c)
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.CreateBookingCommand{
		PropertyID:      strings.TrimSpace(req.PropertyID),
		GuestID:         guest.ID,
		CheckIn:         req.CheckIn,
		CheckOut:        req.CheckOut,
		Guests:          req.Guests,
		TotalPrice:      req.TotalPrice,
		PaymentOption:   strings.ToLower(strings.TrimSpace(req.PaymentOption)),
		Guest:           req.GuestDetails,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.CreateBookingCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// OpenOrder retries the gateway order of a booking left pending by a gateway failure.
func (h BookingHandler) OpenOrder(c *gin.Context) {
	guest, _ := currentActor(c)
	cmd := bookingapp.OpenPaymentOrderCommand{BookingID: c.Param("id"), GuestID: guest.ID}
	result, err := commands.Dispatch[bookingapp.OpenPaymentOrderCommand, *bookingapp.CreateBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) VerifyPayment(c *gin.Context) {
	guest, _ := currentActor(c)
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.VerifyPaymentCommand{
		BookingID: c.Param("id"),
		GuestID:   guest.ID,
		OrderID:   strings.TrimSpace(req.OrderID),
		PaymentID: strings.TrimSpace(req.PaymentID),
		Signature: strings.TrimSpace(req.Signature),
	}
	result, err := commands.Dispatch[bookingapp.VerifyPaymentCommand, *dto.BookingDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": result})
}

func (h BookingHandler) WalletPayment(c *gin.Context) {
	guest, _ := currentActor(c)
	var req walletPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.WalletPaymentCommand{
		BookingID:       c.Param("id"),
		GuestID:         guest.ID,
		Amount:          req.Amount,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.WalletPaymentCommand, *dto.BookingDTO](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": result})
}

func (h BookingHandler) CancelRequest(c *gin.Context) {
	guest, _ := currentActor(c)
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cmd := bookingapp.RequestCancellationCommand{
		BookingID: c.Param("id"),
		GuestID:   guest.ID,
		Reason:    strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[bookingapp.RequestCancellationCommand, *bookingapp.RequestCancellationResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h BookingHandler) CheckAvailability(c *gin.Context) {
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	q := bookingapp.CheckAvailabilityQuery{PropertyID: c.Param("id"), CheckIn: req.CheckIn, CheckOut: req.CheckOut}
	result, err := queries.Ask[bookingapp.CheckAvailabilityQuery, bookingapp.CheckAvailabilityResult](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
