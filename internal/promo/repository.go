package promo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/pgutil"
)

type PromoRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

func NewPromoRepository(db *sqlx.DB, timeout time.Duration) *PromoRepository {
	return &PromoRepository{db: db, timeout: timeout}
}

func (r *PromoRepository) FindActive(ctx context.Context, code string) (*domain.PromoCode, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p domain.PromoCode
	err := r.db.GetContext(ctx, &p, `
		SELECT id, code, discount_percent, is_active, created_at
		FROM promo_codes
		WHERE code = $1 AND is_active
	`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: promo code %s", domain.ErrNotFound, code)
		}
		return nil, fmt.Errorf("find promo code: %w", err)
	}

	return &p, nil
}

func (r *PromoRepository) List(ctx context.Context) ([]domain.PromoCode, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	codes := []domain.PromoCode{}
	err := r.db.SelectContext(ctx, &codes, `
		SELECT id, code, discount_percent, is_active, created_at
		FROM promo_codes
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list promo codes: %w", err)
	}

	return codes, nil
}

func (r *PromoRepository) Create(ctx context.Context, code string, discountPercent int) (*domain.PromoCode, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p domain.PromoCode
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO promo_codes (code, discount_percent)
		VALUES ($1, $2)
		RETURNING id, code, discount_percent, is_active, created_at
	`, code, discountPercent)
	if err != nil {
		if pgutil.IsUniqueViolation(err, "promo_codes_code_key") {
			return nil, fmt.Errorf("%w: promo code %s already exists", domain.ErrConflict, code)
		}
		return nil, fmt.Errorf("create promo code: %w", err)
	}

	return &p, nil
}

func (r *PromoRepository) Deactivate(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `
		UPDATE promo_codes SET is_active = false
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate promo code: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: promo code %d", domain.ErrNotFound, id)
	}

	return nil
}
