package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/telemetry"
)

var ordersCreated = telemetry.Counter("shop.orders.created", "Orders placed by buyers")

type Repository interface {
	Insert(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	Update(ctx context.Context, id int64, status *domain.OrderStatus, notes *string) (*UpdateResult, error)
	Delete(ctx context.Context, id int64) error
}

type PromoResolver interface {
	Resolve(ctx context.Context, code string) (*domain.PromoCode, error)
}

type Notifier interface {
	Notify(ctx context.Context, order domain.Order, status domain.PaymentStatus)
}

type UpdateResult struct {
	ID          int64              `json:"id"`
	OrderNumber string             `json:"order_number"`
	Status      domain.OrderStatus `json:"status"`
}

type Service struct {
	repo        Repository
	promos      PromoResolver
	notifier    Notifier
	maxAttempts int
	logger      *slog.Logger
}

func NewService(repo Repository, promos PromoResolver, notifier Notifier, maxAttempts int, logger *slog.Logger) *Service {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Service{
		repo:        repo,
		promos:      promos,
		notifier:    notifier,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Create places a new order in status new. An unknown or inactive promo code
// is ignored. Cash orders notify the operator immediately; online orders are
// announced once a payment is started.
func (s *Service) Create(ctx context.Context, order *domain.Order, promoCode string) error {
	if err := validateNewOrder(order); err != nil {
		return err
	}

	order.Status = domain.OrderStatusNew
	order.PaymentStatus = ""
	order.PaymentID = ""
	if order.PaymentMethod == "" {
		order.PaymentMethod = domain.PaymentMethodCash
	}
	if order.DeliveryTime == "" {
		order.DeliveryTime = domain.DeliveryTimeAny
	}

	if promoCode != "" {
		if err := s.applyPromo(ctx, order, promoCode); err != nil {
			return err
		}
	}

	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.repo.Insert(ctx, order)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrOrderNumberTaken) {
			return fmt.Errorf("create order: %w", err)
		}
		s.logger.Warn("order number collision, retrying", "attempt", attempt, "error", err)
	}
	if err != nil {
		return fmt.Errorf("%w: could not assign an order number after %d attempts", domain.ErrConflict, s.maxAttempts)
	}

	ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(order.PaymentMethod))))
	s.logger.Info("order created", "order_id", order.ID, "order_number", order.OrderNumber, "payment_method", order.PaymentMethod)

	// Insert only returns generated columns; the joined city and promo fields
	// come from a reload.
	stored, err := s.repo.GetByID(ctx, order.ID)
	if err != nil {
		s.logger.Warn("failed to reload created order", "error", err, "order_id", order.ID)
	} else {
		*order = *stored
	}

	if order.PaymentMethod == domain.PaymentMethodCash {
		s.notifier.Notify(ctx, *order, "")
	}

	return nil
}

func (s *Service) applyPromo(ctx context.Context, order *domain.Order, code string) error {
	p, err := s.promos.Resolve(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("promo code ignored", "code", code)
			return nil
		}
		return fmt.Errorf("resolve promo code: %w", err)
	}

	pct := p.DiscountPercent
	order.PromoCodeID = &p.ID
	order.PromoCode = p.Code
	order.PromoDiscountPercent = &pct
	return nil
}

func validateNewOrder(order *domain.Order) error {
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", domain.ErrInvalidArgument)
	}
	for i, item := range order.Items {
		if item.Name == "" {
			return fmt.Errorf("%w: items[%d].name is required", domain.ErrInvalidArgument, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: items[%d].quantity must be positive", domain.ErrInvalidArgument, i)
		}
		if item.Price.IsNegative() {
			return fmt.Errorf("%w: items[%d].price must not be negative", domain.ErrInvalidArgument, i)
		}
	}
	if order.TotalAmount.IsNegative() || order.DiscountAmount.IsNegative() {
		return fmt.Errorf("%w: amounts must not be negative", domain.ErrInvalidArgument)
	}
	if order.PaymentMethod != "" && !order.PaymentMethod.Valid() {
		return fmt.Errorf("%w: unknown payment_method %q", domain.ErrInvalidArgument, order.PaymentMethod)
	}
	if order.DeliveryTime != "" && !order.DeliveryTime.Valid() {
		return fmt.Errorf("%w: unknown delivery_time %q", domain.ErrInvalidArgument, order.DeliveryTime)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, status)
	}
	return s.repo.List(ctx, status)
}

// Update changes the admin-editable fields of an order. At least one of
// status and notes must be given.
func (s *Service) Update(ctx context.Context, id int64, status *domain.OrderStatus, notes *string) (*UpdateResult, error) {
	if status == nil && notes == nil {
		return nil, fmt.Errorf("%w: no fields to update", domain.ErrInvalidArgument)
	}
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, *status)
	}

	res, err := s.repo.Update(ctx, id, status, notes)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order updated", "order_id", res.ID, "status", res.Status)
	return res, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("order deleted", "order_id", id)
	return nil
}
