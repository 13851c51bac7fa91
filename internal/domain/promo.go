package domain

import "time"

type PromoCode struct {
	ID              int64     `json:"id" db:"id"`
	Code            string    `json:"code" db:"code"`
	DiscountPercent int       `json:"discount_percent" db:"discount_percent"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
