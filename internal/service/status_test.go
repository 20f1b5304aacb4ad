package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/agency-notifier/internal/service"
)

func TestStatusTemplateMapping(t *testing.T) {
	tests := map[string]string{
		"جديد":         "order_status_new",
		"مؤكد":         "order_status_confirmed",
		"قيد التنفيذ":  "order_status_in_progress",
		"جاهز للتسليم": "order_status_ready",
		"تم التسليم":   "order_status_delivered",
		"مكتمل":        "order_status_completed",
		"ملغي":         "order_status_cancelled",
		"completed":    "order_status_completed",
		"Cancelled":    "order_status_cancelled",
		"on_hold":      service.TemplateStatusUpdated,
		"معلق":         service.TemplateStatusUpdated,
	}
	for raw, want := range tests {
		status, _ := service.ParseOrderStatus(raw)
		assert.Equal(t, want, status.TemplateName(), raw)
	}
}

func TestParseOrderStatusReportsUnknown(t *testing.T) {
	s, ok := service.ParseOrderStatus(" مؤكد ")
	assert.True(t, ok)
	assert.Equal(t, service.StatusConfirmed, s)

	s, ok = service.ParseOrderStatus("archived")
	assert.False(t, ok)
	assert.Equal(t, service.OrderStatus("archived"), s)
}
