package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/gateway"
	"github.com/KostevSerg/flo-rustic-shop/internal/telemetry"
)

const currency = "RUB"

var (
	paymentIntents = telemetry.Counter("shop.payment_intents", "Payment intents requested from the gateway")
	webhooks       = telemetry.Counter("shop.payment_webhooks", "Payment webhooks received")

	idempotencyNamespace = uuid.MustParse("3b8f6a52-5d0e-4a36-9d0b-6c1f2f7e8a41")
)

type OrderStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	UpdatePayment(ctx context.Context, id int64, apply func(*domain.Order) bool) (*domain.Order, bool, error)
}

type Gateway interface {
	CreatePayment(ctx context.Context, req gateway.PaymentRequest, idempotencyKey string) (*gateway.Payment, error)
}

type Notifier interface {
	Notify(ctx context.Context, order domain.Order, status domain.PaymentStatus)
}

type Config struct {
	ReturnURL            string
	ReceiptFallbackEmail string
}

type Coordinator struct {
	orders   OrderStore
	gateway  Gateway
	notifier Notifier
	cfg      Config
	logger   *slog.Logger
}

// NewCoordinator wires the payment flow. gw may be nil when the shop has no
// gateway credentials; payment creation then fails with domain.ErrUnavailable.
func NewCoordinator(orders OrderStore, gw Gateway, notifier Notifier, cfg Config, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		orders:   orders,
		gateway:  gw,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

type IntentRequest struct {
	OrderID   int64
	Amount    decimal.Decimal
	ReturnURL string
}

type Intent struct {
	PaymentID  string `json:"payment_id"`
	PaymentURL string `json:"payment_url"`
	Status     string `json:"status"`
}

// CreatePaymentIntent starts a full prepayment of the order total. Repeated
// calls for an order whose payment has not failed reuse the same gateway
// idempotency key, so the gateway returns the payment it already created.
// The result is stored under the order's row lock and never downgrades a
// paid order; the buyer is notified only when a new payment was recorded or
// the gateway already reports it as succeeded.
func (c *Coordinator) CreatePaymentIntent(ctx context.Context, in IntentRequest) (*Intent, error) {
	if in.OrderID <= 0 {
		return nil, fmt.Errorf("%w: order_id is required", domain.ErrInvalidArgument)
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}
	if c.gateway == nil {
		return nil, fmt.Errorf("%w: payment gateway is not configured", domain.ErrUnavailable)
	}

	order, err := c.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return nil, fmt.Errorf("%w: order %s is already paid", domain.ErrConflict, order.OrderNumber)
	}
	if !in.Amount.Equal(order.TotalAmount) {
		return nil, fmt.Errorf("%w: amount %s does not match order total %s",
			domain.ErrInvalidArgument, in.Amount.StringFixed(2), order.TotalAmount.StringFixed(2))
	}

	returnURL := in.ReturnURL
	if returnURL == "" {
		returnURL = c.cfg.ReturnURL
	}
	if returnURL == "" {
		return nil, fmt.Errorf("%w: return_url is required", domain.ErrInvalidArgument)
	}

	key := IdempotencyKey(order)
	payment, err := c.gateway.CreatePayment(ctx, c.paymentRequest(order, returnURL), key)
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			c.countIntent(ctx, "rejected")
			c.logger.Warn("payment gateway rejected payment", "error", err, "order_id", order.ID)
			return nil, fmt.Errorf("%w: %s", domain.ErrUpstream, apiErr.Error())
		}
		c.countIntent(ctx, "unavailable")
		c.logger.Error("payment gateway request failed", "error", err, "order_id", order.ID)
		return nil, fmt.Errorf("%w: payment gateway request failed", domain.ErrUnavailable)
	}

	status := domain.PaymentStatusFromGateway(payment.Status)
	var newPayment bool
	stored, changed, err := c.orders.UpdatePayment(ctx, order.ID, func(o *domain.Order) bool {
		// A webhook may have settled the order while the gateway call was in flight.
		if o.IsPaid() {
			return false
		}
		if o.PaymentID == payment.ID && o.PaymentStatus == status && o.IdempotencyKey == key {
			return false
		}
		newPayment = o.PaymentID != payment.ID
		o.PaymentID = payment.ID
		o.PaymentStatus = status
		o.PaymentMethod = domain.PaymentMethodOnline
		o.IdempotencyKey = key
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("store payment intent: %w", err)
	}
	c.countIntent(ctx, "created")

	c.logger.Info("payment intent created", "order_id", order.ID, "payment_id", payment.ID,
		"status", payment.Status, "changed", changed)

	switch {
	case !changed:
	case stored.IsPaid():
		c.notifier.Notify(ctx, *stored, domain.PaymentStatusPaid)
	case newPayment && stored.PaymentStatus == domain.PaymentStatusPending:
		c.notifier.Notify(ctx, *stored, domain.PaymentStatusPending)
	}

	return &Intent{
		PaymentID:  payment.ID,
		PaymentURL: payment.Confirmation.ConfirmationURL,
		Status:     payment.Status,
	}, nil
}

func (c *Coordinator) countIntent(ctx context.Context, outcome string) {
	paymentIntents.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (c *Coordinator) paymentRequest(order *domain.Order, returnURL string) gateway.PaymentRequest {
	amount := gateway.Amount{Value: order.TotalAmount.StringFixed(2), Currency: currency}

	email := order.CustomerEmail
	if email == "" {
		email = c.cfg.ReceiptFallbackEmail
	}

	return gateway.PaymentRequest{
		Amount: amount,
		Confirmation: gateway.Confirmation{
			Type:      "redirect",
			ReturnURL: returnURL,
		},
		Capture:     true,
		Description: "Заказ №" + order.OrderNumber,
		Metadata: map[string]string{
			"order_id":     strconv.FormatInt(order.ID, 10),
			"order_number": order.OrderNumber,
		},
		Receipt: &gateway.Receipt{
			Customer: gateway.ReceiptCustomer{Email: email},
			Items: []gateway.ReceiptItem{{
				Description:    "Букет",
				Quantity:       "1",
				Amount:         amount,
				VatCode:        1,
				PaymentMode:    "full_prepayment",
				PaymentSubject: "commodity",
			}},
		},
	}
}

// IdempotencyKey derives the gateway idempotency key for the next payment
// attempt on order. The stored key is reused until a payment fails; a failed
// payment yields a new key seeded with the failed payment's id.
func IdempotencyKey(order *domain.Order) string {
	if order.IdempotencyKey != "" && order.PaymentStatus != domain.PaymentStatusFailed {
		return order.IdempotencyKey
	}

	seed := strconv.FormatInt(order.ID, 10)
	if order.PaymentStatus == domain.PaymentStatusFailed {
		seed += ":" + order.PaymentID
	}
	return uuid.NewSHA1(idempotencyNamespace, []byte(seed)).String()
}
