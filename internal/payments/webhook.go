package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
)

type WebhookEvent struct {
	Event  string        `json:"event"`
	Object WebhookObject `json:"object"`
}

type WebhookObject struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Metadata WebhookMetadata `json:"metadata"`
}

type WebhookMetadata struct {
	OrderID json.Number `json:"order_id"`
}

type WebhookOutcome string

const (
	OutcomeApplied      WebhookOutcome = "applied"
	OutcomeAlreadyPaid  WebhookOutcome = "already_paid"
	OutcomeUnknownOrder WebhookOutcome = "unknown_order"
	OutcomeStoreError   WebhookOutcome = "store_error"
)

// HandleWebhook applies a gateway payment notification to its order. Only
// malformed events produce an error; an unknown order or a store failure is
// logged and reported through the outcome so the gateway still gets an ack.
// Once an order is paid further events leave it untouched.
func (c *Coordinator) HandleWebhook(ctx context.Context, evt WebhookEvent) (WebhookOutcome, error) {
	if evt.Object.ID == "" {
		return "", fmt.Errorf("%w: object.id is required", domain.ErrInvalidArgument)
	}
	if evt.Object.Metadata.OrderID == "" {
		return "", fmt.Errorf("%w: object.metadata.order_id is required", domain.ErrInvalidArgument)
	}
	orderID, err := strconv.ParseInt(evt.Object.Metadata.OrderID.String(), 10, 64)
	if err != nil || orderID <= 0 {
		return "", fmt.Errorf("%w: object.metadata.order_id must be a positive integer", domain.ErrInvalidArgument)
	}

	status := domain.PaymentStatusFromGateway(evt.Object.Status)

	order, changed, err := c.orders.UpdatePayment(ctx, orderID, func(o *domain.Order) bool {
		if o.IsPaid() {
			return false
		}
		o.PaymentID = evt.Object.ID
		o.PaymentStatus = status
		return true
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.logger.Warn("webhook for unknown order", "order_id", orderID, "payment_id", evt.Object.ID, "event", evt.Event)
		return c.countWebhook(ctx, OutcomeUnknownOrder), nil
	case err != nil:
		c.logger.Error("failed to apply payment webhook", "error", err, "order_id", orderID, "payment_id", evt.Object.ID)
		return c.countWebhook(ctx, OutcomeStoreError), nil
	case !changed:
		c.logger.Info("webhook ignored for paid order", "order_id", orderID, "payment_id", evt.Object.ID, "event", evt.Event)
		return c.countWebhook(ctx, OutcomeAlreadyPaid), nil
	}

	c.logger.Info("payment status updated", "order_id", orderID, "payment_id", evt.Object.ID, "payment_status", status)
	if status == domain.PaymentStatusPaid {
		c.notifier.Notify(ctx, *order, domain.PaymentStatusPaid)
	}

	return c.countWebhook(ctx, OutcomeApplied), nil
}

func (c *Coordinator) countWebhook(ctx context.Context, outcome WebhookOutcome) WebhookOutcome {
	webhooks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(outcome))))
	return outcome
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature header. An empty secret never
// verifies.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
