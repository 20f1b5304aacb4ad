// internal/model/customer.go
package model

import "github.com/shopspring/decimal"

type Customer struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Phone    string `db:"phone" json:"phone"`
	WhatsApp string `db:"whatsapp" json:"whatsapp"`
}

// OutstandingBalance is a row of the customer_outstanding_balances view.
type OutstandingBalance struct {
	CustomerID         string          `db:"customer_id" json:"customer_id"`
	Name               string          `db:"name" json:"name"`
	Phone              string          `db:"phone" json:"phone"`
	WhatsApp           string          `db:"whatsapp" json:"whatsapp"`
	TotalAmount        decimal.Decimal `db:"total_amount" json:"total_amount"`
	TotalPaid          decimal.Decimal `db:"total_paid" json:"total_paid"`
	OutstandingBalance decimal.Decimal `db:"outstanding_balance" json:"outstanding_balance"`
}
