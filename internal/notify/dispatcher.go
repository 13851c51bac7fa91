package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/email"
	"github.com/KostevSerg/flo-rustic-shop/internal/telemetry"
)

var notifications = telemetry.Counter("shop.notifications", "Order notifications dispatched")

type Sender interface {
	Send(ctx context.Context, msg email.Message) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// dispatcher runs deliveries in the background so a slow mail relay or
// broker never holds up the request that triggered them.
type dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger
}

func (d *dispatcher) dispatch(ctx context.Context, mode string, order domain.Order, status domain.PaymentStatus, deliver func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		err := deliver(ctx)
		outcome := "sent"
		switch {
		case errors.Is(err, email.ErrNotConfigured):
			outcome = "skipped"
			d.logger.Warn("smtp not configured, notification skipped", "order_id", order.ID, "payment_status", status)
		case err != nil:
			outcome = "failed"
			d.logger.Error("failed to deliver order notification", "error", err, "order_id", order.ID, "mode", mode)
		}
		notifications.Add(ctx, 1, metric.WithAttributes(
			attribute.String("mode", mode),
			attribute.String("outcome", outcome),
		))
	}()
}

// Wait blocks until every in-flight notification has finished.
func (d *dispatcher) Wait() {
	d.wg.Wait()
}

// MailNotifier emails the operator directly from the API process.
type MailNotifier struct {
	dispatcher
	sender Sender
}

func NewMailNotifier(sender Sender, timeout time.Duration, logger *slog.Logger) *MailNotifier {
	return &MailNotifier{
		dispatcher: dispatcher{timeout: timeout, logger: logger},
		sender:     sender,
	}
}

func (n *MailNotifier) Notify(ctx context.Context, order domain.Order, status domain.PaymentStatus) {
	msg := Compose(order, status)
	n.dispatch(ctx, "direct", order, status, func(ctx context.Context) error {
		return n.sender.Send(ctx, msg)
	})
}

// QueueNotifier hands notifications to the worker through Kafka.
type QueueNotifier struct {
	dispatcher
	publisher Publisher
}

func NewQueueNotifier(publisher Publisher, timeout time.Duration, logger *slog.Logger) *QueueNotifier {
	return &QueueNotifier{
		dispatcher: dispatcher{timeout: timeout, logger: logger},
		publisher:  publisher,
	}
}

func (n *QueueNotifier) Notify(ctx context.Context, order domain.Order, status domain.PaymentStatus) {
	event := domain.OrderNotificationEvent{
		Order:         order,
		PaymentStatus: status,
		Timestamp:     time.Now().UTC(),
	}
	n.dispatch(ctx, "kafka", order, status, func(ctx context.Context) error {
		return n.publisher.Publish(ctx, order.OrderNumber, event)
	})
}
