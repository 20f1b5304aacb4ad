// internal/model/settings.go
package model

// FollowUpSettings is the single follow_up_settings row.
type FollowUpSettings struct {
	WhatsAppNumber      string `db:"whatsapp_number" json:"whatsapp_number"`
	NotifyDeliveryDelay bool   `db:"notify_delivery_delay" json:"notify_delivery_delay"`
	NotifyPaymentDelay  bool   `db:"notify_payment_delay" json:"notify_payment_delay"`
	NotifyNewPayment    bool   `db:"notify_new_payment" json:"notify_new_payment"`
	DeliveryDelayDays   int    `db:"delivery_delay_days" json:"delivery_delay_days"`
	PaymentDelayDays    int    `db:"payment_delay_days" json:"payment_delay_days"`
}
