package domain

import "github.com/shopspring/decimal"

type City struct {
	ID                 int64           `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	RegionID           int64           `json:"region_id" db:"region_id"`
	RegionName         string          `json:"region_name" db:"region_name"`
	PriceMarkupPercent decimal.Decimal `json:"price_markup_percent" db:"price_markup_percent"`
}

type PriceQuote struct {
	ProductID int64           `json:"product_id"`
	CityID    *int64          `json:"city_id,omitempty"`
	Price     decimal.Decimal `json:"price"`
}
