package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unclebandit/agency-notifier/internal/model"
)

type PaymentRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]model.Payment, error)
}

type PaymentRepository struct {
	DB *sql.DB
}

const paymentColumns = `id, order_id, amount, COALESCE(payment_method, ''), payment_date, COALESCE(notes, '')`

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	var p model.Payment
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.OrderID, &p.Amount, &p.PaymentMethod, &p.PaymentDate, &p.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY payment_date ASC`
	rows, err := r.DB.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []model.Payment{}
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &p.PaymentMethod, &p.PaymentDate, &p.Notes); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

var _ PaymentRepositoryInterface = (*PaymentRepository)(nil)
