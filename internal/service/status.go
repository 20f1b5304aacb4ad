package service

import "strings"

// OrderStatus values as stored by the console. English aliases are accepted on input.
type OrderStatus string

const (
	StatusNew        OrderStatus = "جديد"
	StatusConfirmed  OrderStatus = "مؤكد"
	StatusInProgress OrderStatus = "قيد التنفيذ"
	StatusReady      OrderStatus = "جاهز للتسليم"
	StatusDelivered  OrderStatus = "تم التسليم"
	StatusCompleted  OrderStatus = "مكتمل"
	StatusCancelled  OrderStatus = "ملغي"
)

const TemplateStatusUpdated = "order_status_updated"

var statusAliases = map[string]OrderStatus{
	"new":         StatusNew,
	"confirmed":   StatusConfirmed,
	"in_progress": StatusInProgress,
	"ready":       StatusReady,
	"delivered":   StatusDelivered,
	"completed":   StatusCompleted,
	"cancelled":   StatusCancelled,
	"canceled":    StatusCancelled,
}

// ParseOrderStatus maps a raw status onto a known value. Unknown statuses come back as-is with false.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	raw = strings.TrimSpace(raw)
	switch s := OrderStatus(raw); s {
	case StatusNew, StatusConfirmed, StatusInProgress, StatusReady, StatusDelivered, StatusCompleted, StatusCancelled:
		return s, true
	}
	if s, ok := statusAliases[strings.ToLower(raw)]; ok {
		return s, true
	}
	return OrderStatus(raw), false
}

// TemplateName maps the status to its message template.
// Statuses without a dedicated template use the generic "status updated" template.
func (s OrderStatus) TemplateName() string {
	switch s {
	case StatusNew:
		return "order_status_new"
	case StatusConfirmed:
		return "order_status_confirmed"
	case StatusInProgress:
		return "order_status_in_progress"
	case StatusReady:
		return "order_status_ready"
	case StatusDelivered:
		return "order_status_delivered"
	case StatusCompleted:
		return "order_status_completed"
	case StatusCancelled:
		return "order_status_cancelled"
	default:
		return TemplateStatusUpdated
	}
}

func (s OrderStatus) headline() string {
	switch s {
	case StatusNew:
		return "تم استلام طلبك"
	case StatusConfirmed:
		return "تم تأكيد طلبك"
	case StatusInProgress:
		return "طلبك قيد التنفيذ الآن"
	case StatusReady:
		return "طلبك جاهز للتسليم"
	case StatusDelivered:
		return "تم تسليم طلبك"
	case StatusCompleted:
		return "تم إكمال طلبك بنجاح"
	case StatusCancelled:
		return "تم إلغاء طلبك"
	default:
		return "تم تحديث حالة طلبك"
	}
}

// InProgressStatuses are the stored values the delivery-delay scan looks for.
func InProgressStatuses() []string {
	return []string{string(StatusInProgress), "in_progress"}
}
