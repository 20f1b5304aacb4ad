// internal/model/order.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID              string          `db:"id" json:"id"`
	OrderNumber     string          `db:"order_number" json:"order_number"`
	CustomerID      string          `db:"customer_id" json:"customer_id"`
	CustomerName    string          `db:"customer_name" json:"customer_name"`
	Status          string          `db:"status" json:"status"`
	DeliveryDate    *time.Time      `db:"delivery_date" json:"delivery_date,omitempty"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaidAmount      decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	RemainingAmount decimal.Decimal `db:"remaining_amount" json:"remaining_amount"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

type OrderItem struct {
	OrderID     string          `db:"order_id" json:"order_id"`
	Description string          `db:"description" json:"description"`
	Quantity    int             `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
}

func (i OrderItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
