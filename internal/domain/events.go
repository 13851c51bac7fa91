package domain

import "time"

// OrderNotificationEvent asks the notification worker to email the shop
// operator about an order. PaymentStatus is empty for cash orders.
type OrderNotificationEvent struct {
	Order         Order         `json:"order"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
}
