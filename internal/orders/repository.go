package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
	"github.com/KostevSerg/flo-rustic-shop/internal/pgutil"
)

// ErrOrderNumberTaken is returned by Insert when another order already holds
// the computed order number.
var ErrOrderNumberTaken = errors.New("order number already taken")

// orderNumberLockKey serializes order-number assignment across API replicas.
const orderNumberLockKey int64 = 0x666c6f72

const selectOrder = `
	SELECT o.id, o.order_number,
	       o.customer_name, o.customer_phone, o.customer_email,
	       o.recipient_name, o.recipient_phone, o.sender_name, o.sender_phone,
	       o.city_id, COALESCE(c.name, ''), COALESCE(rg.name, ''),
	       o.delivery_address, COALESCE(to_char(o.delivery_date, 'YYYY-MM-DD'), ''), o.delivery_time,
	       o.items, o.total_amount, o.discount_amount,
	       o.promo_code_id, COALESCE(pc.code, ''), pc.discount_percent,
	       o.payment_method, COALESCE(o.payment_id, ''), COALESCE(o.payment_status, ''),
	       COALESCE(o.payment_idempotency_key, ''),
	       o.status, o.notes, o.postcard_text, o.created_at, o.updated_at
	FROM orders o
	LEFT JOIN cities c ON c.id = o.city_id
	LEFT JOIN regions rg ON rg.id = c.region_id
	LEFT JOIN promo_codes pc ON pc.id = o.promo_code_id`

type OrderRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewOrderRepository(db *sql.DB, timeout time.Duration) *OrderRepository {
	return &OrderRepository{db: db, timeout: timeout}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		o             domain.Order
		cityID        sql.NullInt64
		promoID       sql.NullInt64
		promoPercent  sql.NullInt32
		items         []byte
		paymentStatus string
	)

	err := row.Scan(
		&o.ID, &o.OrderNumber,
		&o.CustomerName, &o.CustomerPhone, &o.CustomerEmail,
		&o.RecipientName, &o.RecipientPhone, &o.SenderName, &o.SenderPhone,
		&cityID, &o.CityName, &o.RegionName,
		&o.DeliveryAddress, &o.DeliveryDate, &o.DeliveryTime,
		&items, &o.TotalAmount, &o.DiscountAmount,
		&promoID, &o.PromoCode, &promoPercent,
		&o.PaymentMethod, &o.PaymentID, &paymentStatus,
		&o.IdempotencyKey,
		&o.Status, &o.Notes, &o.PostcardText, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cityID.Valid {
		o.CityID = &cityID.Int64
	}
	if promoID.Valid {
		o.PromoCodeID = &promoID.Int64
	}
	if promoPercent.Valid {
		pct := int(promoPercent.Int32)
		o.PromoDiscountPercent = &pct
	}
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)

	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %d: %w", o.ID, err)
	}

	return &o, nil
}

// Insert assigns the next sequential order number and stores the order. The
// number is computed under a transaction-scoped advisory lock; a unique
// violation on order_number is reported as ErrOrderNumberTaken so the caller
// can retry with a fresh number.
func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, orderNumberLockKey); err != nil {
		return fmt.Errorf("lock order numbers: %w", err)
	}

	var next int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(order_number::bigint), 0) + 1
		FROM orders
		WHERE order_number ~ '^[0-9]+$'
	`).Scan(&next)
	if err != nil {
		return fmt.Errorf("compute order number: %w", err)
	}
	number := strconv.FormatInt(next, 10)

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			order_number, customer_name, customer_phone, customer_email,
			recipient_name, recipient_phone, sender_name, sender_phone,
			city_id, delivery_address, delivery_date, delivery_time,
			items, total_amount, discount_amount, promo_code_id,
			payment_method, status, notes, postcard_text
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, NULLIF($11, '')::date, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20
		)
		RETURNING id, created_at, updated_at
	`,
		number, order.CustomerName, order.CustomerPhone, order.CustomerEmail,
		order.RecipientName, order.RecipientPhone, order.SenderName, order.SenderPhone,
		order.CityID, order.DeliveryAddress, order.DeliveryDate, order.DeliveryTime,
		string(items), order.TotalAmount, order.DiscountAmount, order.PromoCodeID,
		order.PaymentMethod, order.Status, order.Notes, order.PostcardText,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if pgutil.IsUniqueViolation(err, "orders_order_number_key") {
			return fmt.Errorf("%w: %s", ErrOrderNumberTaken, number)
		}
		if pgutil.IsForeignKeyViolation(err, "orders_city_id_fkey") {
			return fmt.Errorf("%w: unknown city_id %d", domain.ErrInvalidArgument, *order.CityID)
		}
		if pgutil.IsForeignKeyViolation(err, "orders_promo_code_id_fkey") {
			return fmt.Errorf("%w: unknown promo code", domain.ErrInvalidArgument)
		}
		return fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if pgutil.IsUniqueViolation(err, "orders_order_number_key") {
			return fmt.Errorf("%w: %s", ErrOrderNumberTaken, number)
		}
		return err
	}

	order.OrderNumber = number
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	order, err := scanOrder(r.db.QueryRowContext(ctx, selectOrder+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
		}
		return nil, err
	}

	return order, nil
}

// List returns orders newest first, optionally restricted to one status.
func (r *OrderRepository) List(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		rows *sql.Rows
		err  error
	)
	if status != "" {
		rows, err = r.db.QueryContext(ctx, selectOrder+` WHERE o.status = $1 ORDER BY o.created_at DESC, o.id DESC`, status)
	} else {
		rows, err = r.db.QueryContext(ctx, selectOrder+` ORDER BY o.created_at DESC, o.id DESC`)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// Update changes status and/or notes in a single statement. Nil fields keep
// their stored value.
func (r *OrderRepository) Update(ctx context.Context, id int64, status *domain.OrderStatus, notes *string) (*UpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var res UpdateResult
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders
		SET status = COALESCE($2, status),
		    notes = COALESCE($3, notes),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, order_number, status
	`, id, status, notes).Scan(&res.ID, &res.OrderNumber, &res.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
		}
		return nil, err
	}

	return &res, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
	}

	return nil
}

// UpdatePayment locks the order row and lets apply decide whether to change
// the payment fields. The payment id, status, method and idempotency key are
// written only when apply returns true. The returned order reflects the
// stored state.
func (r *OrderRepository) UpdatePayment(ctx context.Context, id int64, apply func(*domain.Order) bool) (*domain.Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback() }()

	order, err := scanOrder(tx.QueryRowContext(ctx, selectOrder+` WHERE o.id = $1 FOR UPDATE OF o`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("%w: order %d", domain.ErrNotFound, id)
		}
		return nil, false, err
	}

	if !apply(order) {
		return order, false, nil
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE orders
		SET payment_id = NULLIF($2, ''),
		    payment_status = NULLIF($3, ''),
		    payment_method = $4,
		    payment_idempotency_key = NULLIF($5, ''),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, id, order.PaymentID, order.PaymentStatus, order.PaymentMethod, order.IdempotencyKey).Scan(&order.UpdatedAt)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	return order, true, nil
}
