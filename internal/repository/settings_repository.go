package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/unclebandit/agency-notifier/internal/model"
)

type SettingsRepositoryInterface interface {
	Get(ctx context.Context) (*model.FollowUpSettings, error)
}

type SettingsRepository struct {
	DB *sql.DB
}

// Get returns nil, nil when the settings row has not been created yet.
func (r *SettingsRepository) Get(ctx context.Context) (*model.FollowUpSettings, error) {
	query := `
        SELECT COALESCE(whatsapp_number, ''), notify_delivery_delay, notify_payment_delay,
               notify_new_payment, delivery_delay_days, payment_delay_days
        FROM follow_up_settings
        LIMIT 1
    `
	var s model.FollowUpSettings
	err := r.DB.QueryRowContext(ctx, query).Scan(
		&s.WhatsAppNumber,
		&s.NotifyDeliveryDelay,
		&s.NotifyPaymentDelay,
		&s.NotifyNewPayment,
		&s.DeliveryDelayDays,
		&s.PaymentDelayDays,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get follow-up settings: %w", err)
	}
	return &s, nil
}

var _ SettingsRepositoryInterface = (*SettingsRepository)(nil)
