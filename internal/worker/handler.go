package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/email"
	"github.com/KostevSerg/flo-rustic-shop/internal/messaging"
	"github.com/KostevSerg/flo-rustic-shop/internal/notify"
)

type Sender interface {
	Send(ctx context.Context, msg email.Message) error
}

// NotificationHandler turns queued order notifications into operator emails.
type NotificationHandler struct {
	sender Sender
	logger *slog.Logger
}

func NewNotificationHandler(sender Sender, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		sender: sender,
		logger: logger,
	}
}

// Handle never fails on delivery problems: a notification that cannot be
// sent is logged and skipped so one bad relay response does not stall the
// queue. Undecodable payloads are dropped.
func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderNotificationEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("%w: unmarshal order notification: %v", messaging.ErrDrop, err)
	}
	if event.Order.ID == 0 {
		return fmt.Errorf("%w: order notification without order id", messaging.ErrDrop)
	}

	order := event.Order
	h.logger.Info("processing order notification", "order_id", order.ID,
		"order_number", order.OrderNumber, "payment_status", event.PaymentStatus)

	if err := h.sender.Send(ctx, notify.Compose(order, event.PaymentStatus)); err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		if errors.Is(err, email.ErrNotConfigured) {
			h.logger.Warn("smtp not configured, notification skipped", "order_id", order.ID)
			return nil
		}
		h.logger.Error("failed to send order notification", "error", err, "order_id", order.ID)
		return nil
	}

	h.logger.Info("order notification sent", "order_id", order.ID)
	return nil
}
