package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unclebandit/agency-notifier/internal/model"
)

type CustomerRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	ListOutstanding(ctx context.Context) ([]model.OutstandingBalance, error)
}

// CustomerRepository reads the console's customers table and balance view.
type CustomerRepository struct {
	DB *sql.DB
}

// GetByID returns nil, nil when the customer does not exist.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	query := `
        SELECT id, COALESCE(name, ''), COALESCE(phone, ''), COALESCE(whatsapp, '')
        FROM customers
        WHERE id = $1
    `
	var c model.Customer
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Phone, &c.WhatsApp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// ListOutstanding reads customers with a positive balance from the precomputed view.
func (r *CustomerRepository) ListOutstanding(ctx context.Context) ([]model.OutstandingBalance, error) {
	query := `
        SELECT customer_id, COALESCE(name, ''), COALESCE(phone, ''), COALESCE(whatsapp, ''),
               total_amount, total_paid, outstanding_balance
        FROM customer_outstanding_balances
        WHERE outstanding_balance > 0
        ORDER BY outstanding_balance DESC
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list outstanding balances: %w", err)
	}
	defer rows.Close()

	balances := []model.OutstandingBalance{}
	for rows.Next() {
		var b model.OutstandingBalance
		if err := rows.Scan(&b.CustomerID, &b.Name, &b.Phone, &b.WhatsApp, &b.TotalAmount, &b.TotalPaid, &b.OutstandingBalance); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
