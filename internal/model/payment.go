// internal/model/payment.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID            string          `db:"id" json:"id"`
	OrderID       string          `db:"order_id" json:"order_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	PaymentDate   time.Time       `db:"payment_date" json:"payment_date"`
	Notes         string          `db:"notes" json:"notes,omitempty"`
}
