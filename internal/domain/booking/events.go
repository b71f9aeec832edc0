package booking

import (
	"time"

	"hotelbook/internal/domain/shared/events"
	"hotelbook/internal/domain/shared/money"
)

const (
	EventBookingCreated        = "booking.created"
	EventPaymentOrderOpened    = "booking.payment_order_opened"
	EventPaymentSettled        = "booking.payment_settled"
	EventCancellationRequested = "booking.cancellation_requested"
	EventCancellationApproved  = "booking.cancellation_approved"
	EventCancellationRejected  = "booking.cancellation_rejected"
)

type BookingCreated struct {
	events.Header
	GuestID    string        `json:"guest_id"`
	PropertyID string        `json:"property_id"`
	CheckIn    time.Time     `json:"check_in"`
	CheckOut   time.Time     `json:"check_out"`
	Total      money.Money   `json:"total"`
	AmountPaid money.Money   `json:"amount_paid"`
	Option     PaymentOption `json:"payment_option"`
}

type PaymentOrderOpened struct {
	events.Header
	OrderID string      `json:"order_id"`
	Amount  money.Money `json:"amount"`
}

type PaymentSettled struct {
	events.Header
	PropertyID    string        `json:"property_id"`
	Method        PaymentMethod `json:"method"`
	TransactionID string        `json:"transaction_id"`
	AmountPaid    money.Money   `json:"amount_paid"`
	PlatformShare money.Money   `json:"platform_share"`
	ManagerShare  money.Money   `json:"manager_share"`
}

type CancellationRequested struct {
	events.Header
	CancellationID string `json:"cancellation_id"`
	Reason         string `json:"reason"`
}

type CancellationApprovedEvent struct {
	events.Header
	CancellationID   string      `json:"cancellation_id"`
	RefundPercentage float64     `json:"refund_percentage"`
	RefundAmount     money.Money `json:"refund_amount"`
	ManagerReversal  money.Money `json:"manager_reversal"`
	PlatformReversal money.Money `json:"platform_reversal"`
}

type CancellationRejectedEvent struct {
	events.Header
	CancellationID string `json:"cancellation_id"`
	Reason         string `json:"reason"`
}
