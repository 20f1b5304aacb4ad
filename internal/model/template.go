// internal/model/template.go
package model

type NotificationTemplate struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Content  string `db:"content" json:"content"`
	IsActive bool   `db:"is_active" json:"is_active"`
}
