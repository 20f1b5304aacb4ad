package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/agency-notifier/internal/errors"
	"github.com/unclebandit/agency-notifier/internal/model"
	"github.com/unclebandit/agency-notifier/internal/queue"
	"github.com/unclebandit/agency-notifier/internal/repository"
)

type OrderStatusChange struct {
	OrderID   string
	NewStatus string
	// OldStatus nil disables the unchanged-status short-circuit.
	OldStatus *string
}

// OrderStatusNotifier tells the customer their order moved to a new status.
type OrderStatusNotifier struct {
	*Dispatcher
	Orders          repository.OrderRepositoryInterface
	Customers       repository.CustomerRepositoryInterface
	Evaluations     repository.EvaluationRepositoryInterface
	FeedbackBaseURL string
}

func (n *OrderStatusNotifier) Notify(ctx context.Context, ch OrderStatusChange) (*Result, error) {
	orderID := strings.TrimSpace(ch.OrderID)
	newStatus := strings.TrimSpace(ch.NewStatus)
	if orderID == "" || newStatus == "" {
		return nil, appErrors.Invalid("order_id and new_status are required")
	}
	status, _ := ParseOrderStatus(newStatus)
	if ch.OldStatus != nil {
		if old, _ := ParseOrderStatus(*ch.OldStatus); old == status {
			return skipped("status unchanged, nothing to send"), nil
		}
	}
	// known statuses key on the stored value so aliases collapse onto one message
	newStatus = string(status)

	order, err := n.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, appErrors.NewOrderNotFound(orderID)
	}

	var customer *model.Customer
	if order.CustomerID != "" {
		if customer, err = n.Customers.GetByID(ctx, order.CustomerID); err != nil {
			return nil, err
		}
	}
	to, ok := CustomerAddress(customer)
	if !ok {
		n.Log.Info().Str("order_id", orderID).Msg("customer has no usable number, status notification skipped")
		return skipped("customer has no WhatsApp or phone number"), nil
	}

	vars := n.vars(ctx, order, customer, newStatus, ch.OldStatus)
	if status == StatusCompleted {
		if ev := n.ensureEvaluation(ctx, orderID); ev != nil {
			vars["evaluation_code"] = ev.Code
			vars["evaluation_link"] = n.FeedbackBaseURL + "/evaluate/" + ev.Token
		}
	}

	content := n.Composer.Compose(ctx, status.TemplateName(), vars, orderStatusFallback(status))
	res, err := n.enqueue(ctx, queue.ReasonOrderStatus, orderID,
		Dedupe{Key: fmt.Sprintf("order_status_%s_%s", orderID, newStatus)},
		&model.OutboxMessage{
			ToAddress:   to,
			MessageType: "order_status_" + newStatus,
			Content:     content,
		})
	if err != nil {
		return nil, err
	}
	if !res.Inserted {
		return &Result{Success: true, Deduped: true, MessageID: res.ExistingID, Message: "status notification already queued"}, nil
	}
	return &Result{Success: true, Count: 1, MessageID: res.ID, Message: "status notification queued"}, nil
}

func (n *OrderStatusNotifier) vars(ctx context.Context, o *model.Order, c *model.Customer, newStatus string, oldStatus *string) Vars {
	items, err := n.Orders.ListItems(ctx, o.ID)
	if err != nil {
		n.Log.Warn().Err(err).Str("order_id", o.ID).Msg("order items unavailable")
	}
	name := c.Name
	if name == "" {
		name = o.CustomerName
	}
	v := Vars{
		"customer_name":    name,
		"order_number":     o.OrderNumber,
		"status":           newStatus,
		"old_status":       "",
		"total_amount":     n.Composer.Amount(o.TotalAmount),
		"paid_amount":      n.Composer.Amount(o.PaidAmount),
		"remaining_amount": n.Composer.Amount(o.RemainingAmount),
		"delivery_date":    "-",
		"items_list":       n.Composer.ItemsBlock(items),
		"evaluation_link":  "",
		"evaluation_code":  "",
	}
	if oldStatus != nil {
		v["old_status"] = strings.TrimSpace(*oldStatus)
	}
	if o.DeliveryDate != nil {
		v["delivery_date"] = n.Composer.Date(*o.DeliveryDate)
	}
	return v
}

// ensureEvaluation returns the order's evaluation, creating one when missing.
// Failures are logged and yield nil so the status message still goes out.
func (n *OrderStatusNotifier) ensureEvaluation(ctx context.Context, orderID string) *model.Evaluation {
	ev, err := n.Evaluations.GetByOrderID(ctx, orderID)
	if err != nil {
		n.Log.Error().Err(err).Str("order_id", orderID).Msg("evaluation lookup failed")
		return nil
	}
	if ev != nil {
		return ev
	}

	token := uuid.NewString()
	ev = &model.Evaluation{
		OrderID: orderID,
		Token:   token,
		Code:    strings.ToUpper(strings.ReplaceAll(token, "-", "")[:6]),
	}
	err = n.Evaluations.Create(ctx, ev)
	if errors.Is(err, repository.ErrDuplicateKey) {
		if ev, err = n.Evaluations.GetByOrderID(ctx, orderID); err == nil && ev != nil {
			return ev
		}
	}
	if err != nil {
		n.Log.Error().Err(err).Str("order_id", orderID).Msg("create evaluation failed")
		return nil
	}
	return ev
}

func orderStatusFallback(status OrderStatus) func(Vars) string {
	return func(v Vars) string {
		msg := fmt.Sprintf(
			"مرحباً %s،\n%s\n\nرقم الطلب: %s\nالحالة: %s\nالإجمالي: %s\nالمتبقي: %s",
			v.Str("customer_name"), status.headline(), v.Str("order_number"), v.Str("status"),
			v.Str("total_amount"), v.Str("remaining_amount"),
		)
		if link := v.Str("evaluation_link"); link != "" {
			msg += fmt.Sprintf("\n\nنسعد بتقييمك لخدمتنا:\n%s\nرمز التقييم: %s", link, v.Str("evaluation_code"))
		}
		return msg
	}
}
