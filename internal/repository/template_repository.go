package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unclebandit/agency-notifier/internal/model"
)

type TemplateRepositoryInterface interface {
	GetByName(ctx context.Context, name string) (*model.NotificationTemplate, error)
}

type TemplateRepository struct {
	DB *sql.DB
}

// GetByName prefers the active row when several share a name. Returns nil, nil when absent.
func (r *TemplateRepository) GetByName(ctx context.Context, name string) (*model.NotificationTemplate, error) {
	query := `
        SELECT id, name, content, is_active
        FROM message_templates
        WHERE name = $1
        ORDER BY is_active DESC
        LIMIT 1
    `
	var t model.NotificationTemplate
	err := r.DB.QueryRowContext(ctx, query, name).Scan(&t.ID, &t.Name, &t.Content, &t.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get template %q: %w", name, err)
	}
	return &t, nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
