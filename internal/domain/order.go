package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is empty until the buyer starts an online payment.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentStatusFromGateway maps a gateway payment status onto the order's
// payment status. Unknown values are treated as still pending.
func PaymentStatusFromGateway(status string) PaymentStatus {
	switch status {
	case "succeeded":
		return PaymentStatusPaid
	case "canceled":
		return PaymentStatusFailed
	default:
		return PaymentStatusPending
	}
}

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodOnline
}

type DeliveryTime string

const (
	DeliveryTimeAny     DeliveryTime = "any"
	DeliveryTimeMorning DeliveryTime = "morning"
	DeliveryTimeDay     DeliveryTime = "day"
	DeliveryTimeEvening DeliveryTime = "evening"
)

func (d DeliveryTime) Valid() bool {
	switch d {
	case DeliveryTimeAny, DeliveryTimeMorning, DeliveryTimeDay, DeliveryTimeEvening:
		return true
	}
	return false
}

// LineItem is a snapshot of a cart line taken when the order is placed.
type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (i LineItem) Total() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`

	CustomerName   string `json:"customer_name"`
	CustomerPhone  string `json:"customer_phone"`
	CustomerEmail  string `json:"customer_email"`
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	SenderName     string `json:"sender_name"`
	SenderPhone    string `json:"sender_phone"`

	CityID          *int64       `json:"city_id"`
	CityName        string       `json:"city_name,omitempty"`
	RegionName      string       `json:"region_name,omitempty"`
	DeliveryAddress string       `json:"delivery_address"`
	DeliveryDate    string       `json:"delivery_date,omitempty"`
	DeliveryTime    DeliveryTime `json:"delivery_time"`

	Items          []LineItem      `json:"items"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`

	PromoCodeID          *int64 `json:"promo_code_id"`
	PromoCode            string `json:"promo_code,omitempty"`
	PromoDiscountPercent *int   `json:"promo_discount_percent,omitempty"`

	PaymentMethod  PaymentMethod `json:"payment_method"`
	PaymentID      string        `json:"payment_id,omitempty"`
	PaymentStatus  PaymentStatus `json:"payment_status,omitempty"`
	IdempotencyKey string        `json:"-"`

	Status       OrderStatus `json:"status"`
	Notes        string      `json:"notes"`
	PostcardText string      `json:"postcard_text"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
