// internal/model/evaluation.go
package model

import "time"

type Evaluation struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   string    `db:"order_id" json:"order_id"`
	Token     string    `db:"token" json:"token"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
