// internal/model/outbound_message.go
package model

import "time"

const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// OutboxMessage is a row of the whatsapp_messages outbox.
// Status is owned by the delivery worker after insert.
type OutboxMessage struct {
	ID          int64     `db:"id" json:"id"`
	FromAddress string    `db:"from_address" json:"from_address"`
	ToAddress   string    `db:"to_address" json:"to_address"`
	MessageType string    `db:"message_type" json:"message_type"`
	Content     string    `db:"content" json:"content"`
	Status      string    `db:"status" json:"status"` // pending, sent, failed
	DedupeKey   string    `db:"dedupe_key" json:"dedupe_key"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
