package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/agency-notifier/internal/model"
)

type OrderRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListDelayedDeliveries(ctx context.Context, statuses []string, cutoff time.Time, limit int) ([]model.Order, error)
	OldestOrderBefore(ctx context.Context, customerID string, cutoff time.Time) (*model.Order, error)
	ListItems(ctx context.Context, orderID string) ([]model.OrderItem, error)
}

type OrderRepository struct {
	DB *sql.DB
}

const orderColumns = `
        o.id, COALESCE(o.order_number, ''), COALESCE(o.customer_id::text, ''), COALESCE(c.name, ''),
        COALESCE(o.status, ''), o.delivery_date,
        COALESCE(o.total_amount, 0), COALESCE(o.paid_amount, 0), COALESCE(o.remaining_amount, 0),
        o.created_at`

const orderFrom = ` FROM orders o LEFT JOIN customers c ON c.id = o.customer_id`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var o model.Order
	var delivery sql.NullTime
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerName,
		&o.Status, &delivery,
		&o.TotalAmount, &o.PaidAmount, &o.RemainingAmount,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if delivery.Valid {
		d := delivery.Time
		o.DeliveryDate = &d
	}
	return &o, nil
}

// GetByID returns nil, nil when the order does not exist.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	query := `SELECT` + orderColumns + orderFrom + ` WHERE o.id = $1`
	o, err := scanOrder(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListDelayedDeliveries returns orders in one of statuses whose delivery date is before cutoff, oldest first.
func (r *OrderRepository) ListDelayedDeliveries(ctx context.Context, statuses []string, cutoff time.Time, limit int) ([]model.Order, error) {
	query := `SELECT` + orderColumns + orderFrom + `
        WHERE o.status = ANY($1) AND o.delivery_date < $2
        ORDER BY o.delivery_date ASC
        LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(statuses), cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list delayed deliveries: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// OldestOrderBefore finds the customer's oldest order created before cutoff. Returns nil, nil when none.
func (r *OrderRepository) OldestOrderBefore(ctx context.Context, customerID string, cutoff time.Time) (*model.Order, error) {
	query := `SELECT` + orderColumns + orderFrom + `
        WHERE o.customer_id = $1 AND o.created_at < $2
        ORDER BY o.created_at ASC
        LIMIT 1`
	o, err := scanOrder(r.DB.QueryRowContext(ctx, query, customerID, cutoff))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("oldest order for customer %s: %w", customerID, err)
	}
	return o, nil
}

func (r *OrderRepository) ListItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	query := `
        SELECT order_id, COALESCE(description, ''), quantity, COALESCE(unit_price, 0)
        FROM order_items
        WHERE order_id = $1
        ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.OrderID, &it.Description, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

var _ OrderRepositoryInterface = (*OrderRepository)(nil)
