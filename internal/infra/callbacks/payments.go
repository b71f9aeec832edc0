package callbacks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IBM/sarama"

	"hotelbook/internal/app/commands"
	"hotelbook/internal/app/dto"
	"hotelbook/internal/app/handlers/booking"
	"hotelbook/internal/app/middleware"
	"hotelbook/internal/domain/shared/apperr"
)

// Topic carries asynchronous payment confirmations pushed by the gateway bridge.
const Topic = "payments.callbacks.v1"

// ConsumerName identifies this consumer in the inbox and as the system actor.
const ConsumerName = "payment-callbacks"

var ErrMalformedCallback = errors.New("callbacks: malformed payment callback")

// Inbox dedupes redelivered callbacks.
type Inbox interface {
	Processed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

type envelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type paymentCallback struct {
	BookingID string `json:"booking_id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// PaymentHandler turns gateway callbacks into VerifyPayment commands.
type PaymentHandler struct {
	Bus    commands.Bus
	Inbox  Inbox
	Logger *slog.Logger
}

func (h *PaymentHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	eventID, cb, err := decode(msg.Value)
	if err != nil {
		// a poison message is dropped; redelivery cannot fix it
		h.logger().Error("payment callback dropped", "offset", msg.Offset, "error", err)
		return nil
	}
	return h.Process(ctx, eventID, cb.BookingID, cb.OrderID, cb.PaymentID, cb.Signature)
}

// Process verifies one callback at most once per event id.
func (h *PaymentHandler) Process(ctx context.Context, eventID, bookingID, orderID, paymentID, signature string) error {
	if h.Inbox != nil {
		seen, err := h.Inbox.Processed(ctx, eventID)
		if err != nil {
			return err
		}
		if seen {
			h.logger().Debug("payment callback already processed", "event_id", eventID)
			return nil
		}
	}
	ctx = middleware.ContextWithActor(ctx, middleware.Actor{ID: ConsumerName, Role: middleware.RoleSystem})
	_, err := commands.Dispatch[booking.VerifyPaymentCommand, *dto.BookingDTO](ctx, h.Bus, booking.VerifyPaymentCommand{
		BookingID: bookingID,
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: signature,
	})
	if err != nil {
		if retryable(err) {
			return fmt.Errorf("verify payment %s: %w", bookingID, err)
		}
		h.logger().Warn("payment callback rejected",
			"event_id", eventID,
			"booking_id", bookingID,
			"kind", apperr.KindOf(err),
			"error", err,
		)
	} else {
		h.logger().Info("payment callback applied", "event_id", eventID, "booking_id", bookingID)
	}
	if h.Inbox != nil {
		return h.Inbox.MarkProcessed(ctx, eventID)
	}
	return nil
}

func decode(raw []byte) (string, paymentCallback, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", paymentCallback{}, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	var cb paymentCallback
	if err := json.Unmarshal(env.Data, &cb); err != nil {
		return "", paymentCallback{}, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	if cb.BookingID == "" || cb.PaymentID == "" {
		return "", paymentCallback{}, fmt.Errorf("%w: booking_id and payment_id required", ErrMalformedCallback)
	}
	id := env.ID
	if id == "" {
		id = cb.PaymentID
	}
	return id, cb, nil
}

func retryable(err error) bool {
	switch apperr.KindOf(err) {
	case apperr.KindDependency, apperr.KindInternal:
		return true
	}
	return false
}

func (h *PaymentHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
