package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
)

type CatalogRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewCatalogRepository(db *sqlx.DB, timeout time.Duration) *CatalogRepository {
	return &CatalogRepository{db: db, timeout: timeout}
}

// PriceInputs are the stored values a city price is derived from.
type PriceInputs struct {
	BasePrice     decimal.Decimal     `db:"base_price"`
	MarkupPercent decimal.Decimal     `db:"markup_percent"`
	Override      decimal.NullDecimal `db:"override_price"`
}

// PriceInputs loads the base price of an active product together with the
// markup and override of the given city. An unknown or inactive city
// contributes no markup and no override.
func (r *CatalogRepository) PriceInputs(ctx context.Context, productID int64, cityID *int64) (*PriceInputs, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var in PriceInputs
	err := r.db.GetContext(ctx, &in, `
		SELECT p.base_price,
		       COALESCE(c.price_markup_percent, 0) AS markup_percent,
		       pcp.price AS override_price
		FROM products p
		LEFT JOIN cities c ON c.id = $2 AND c.is_active
		LEFT JOIN product_city_prices pcp ON pcp.product_id = p.id AND pcp.city_id = c.id
		WHERE p.id = $1 AND p.is_active
	`, productID, cityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("load price inputs: %w", err)
	}

	return &in, nil
}

func (r *CatalogRepository) ListCities(ctx context.Context) ([]domain.City, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cities := []domain.City{}
	err := r.db.SelectContext(ctx, &cities, `
		SELECT c.id, c.name, c.region_id, rg.name AS region_name, c.price_markup_percent
		FROM cities c
		JOIN regions rg ON rg.id = c.region_id
		WHERE c.is_active
		ORDER BY rg.name, c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}

	return cities, nil
}
