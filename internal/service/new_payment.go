package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appErrors "github.com/unclebandit/agency-notifier/internal/errors"
	"github.com/unclebandit/agency-notifier/internal/model"
	"github.com/unclebandit/agency-notifier/internal/queue"
	"github.com/unclebandit/agency-notifier/internal/repository"
)

const (
	TemplateNewPayment    = "new_payment_notification"
	MessageTypeNewPayment = "new_payment_notification"
)

// NewPaymentNotifier tells ops about a payment right after it is recorded.
type NewPaymentNotifier struct {
	*Dispatcher
	Payments  repository.PaymentRepositoryInterface
	Orders    repository.OrderRepositoryInterface
	Customers repository.CustomerRepositoryInterface
}

type paymentSnapshot struct {
	payment  *model.Payment
	order    *model.Order
	customer *model.Customer
	history  []model.Payment
}

func (n *NewPaymentNotifier) Notify(ctx context.Context, paymentID string, test bool) (*Result, error) {
	paymentID = strings.TrimSpace(paymentID)
	if !test && paymentID == "" {
		return nil, appErrors.Invalid("payment_id is required")
	}

	s, err := n.settings(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return skipped("follow-up settings not configured"), nil
	}
	if !test && !s.NotifyNewPayment {
		return skipped("new payment notifications are disabled"), nil
	}
	to := opsAddress(s)
	if to == "" {
		return skipped("no notification number configured"), nil
	}

	var snap *paymentSnapshot
	var key Dedupe
	if test {
		snap = testPaymentSnapshot(n.now())
		key = Dedupe{Key: "test_new_payment_" + uuid.NewString()}
	} else {
		snap, err = n.load(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		key = Dedupe{Key: "payment_logged_" + paymentID}
	}

	vars := n.vars(snap)
	content := n.Composer.Compose(ctx, TemplateNewPayment, vars, newPaymentFallback)
	res, err := n.enqueue(ctx, queue.ReasonNewPayment, snap.order.ID, key, &model.OutboxMessage{
		ToAddress:   to,
		MessageType: MessageTypeNewPayment,
		Content:     content,
	})
	if err != nil {
		return nil, err
	}
	if !res.Inserted {
		return &Result{Success: true, Deduped: true, MessageID: res.ExistingID, Message: "payment notification already queued"}, nil
	}
	return &Result{Success: true, Count: 1, MessageID: res.ID, Message: "payment notification queued"}, nil
}

func (n *NewPaymentNotifier) load(ctx context.Context, paymentID string) (*paymentSnapshot, error) {
	payment, err := n.Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, appErrors.NewPaymentNotFound(paymentID)
	}
	order, err := n.Orders.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, appErrors.NewOrderNotFound(payment.OrderID)
	}

	snap := &paymentSnapshot{payment: payment, order: order, customer: &model.Customer{Name: order.CustomerName}}
	if order.CustomerID != "" {
		c, err := n.Customers.GetByID(ctx, order.CustomerID)
		if err != nil {
			return nil, err
		}
		if c != nil {
			snap.customer = c
		}
	}

	history, err := n.Payments.ListByOrder(ctx, order.ID)
	if err != nil {
		n.Log.Warn().Err(err).Str("order_id", order.ID).Msg("payment history unavailable")
		history = []model.Payment{*payment}
	}
	snap.history = history
	return snap, nil
}

func (n *NewPaymentNotifier) vars(s *paymentSnapshot) Vars {
	paid := decimal.Zero
	for _, p := range s.history {
		paid = paid.Add(p.Amount)
	}
	remaining := s.order.TotalAmount.Sub(paid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	phone := s.customer.WhatsApp
	if phone == "" {
		phone = s.customer.Phone
	}
	return Vars{
		"customer_name":    s.customer.Name,
		"customer_phone":   phone,
		"order_number":     s.order.OrderNumber,
		"amount":           n.Composer.Amount(s.payment.Amount),
		"payment_method":   s.payment.PaymentMethod,
		"payment_date":     n.Composer.Date(s.payment.PaymentDate),
		"notes":            s.payment.Notes,
		"total_amount":     n.Composer.Amount(s.order.TotalAmount),
		"paid_amount":      n.Composer.Amount(paid),
		"remaining_amount": n.Composer.Amount(remaining),
		"payments_count":   len(s.history),
		"payments_list":    n.Composer.PaymentsBlock(s.history),
	}
}

func testPaymentSnapshot(now time.Time) *paymentSnapshot {
	p := model.Payment{
		ID:            "test-payment",
		OrderID:       "test-order",
		Amount:        decimal.NewFromInt(1500),
		PaymentMethod: "تحويل بنكي",
		PaymentDate:   now,
	}
	return &paymentSnapshot{
		payment:  &p,
		order:    &model.Order{ID: "test-order", OrderNumber: "TEST-0001", TotalAmount: decimal.NewFromInt(4000)},
		customer: &model.Customer{ID: "test-customer", Name: "عميل تجريبي", Phone: "+966500000000"},
		history:  []model.Payment{p},
	}
}

func newPaymentFallback(v Vars) string {
	return fmt.Sprintf(
		"✅ تم تسجيل دفعة جديدة\n\nالعميل: %s\nرقم الطلب: %s\nالمبلغ: %s\nطريقة الدفع: %s\nالتاريخ: %s\n\nإجمالي الطلب: %s\nالمدفوع: %s\nالمتبقي: %s\n\nالدفعات:\n%s",
		v.Str("customer_name"), v.Str("order_number"), v.Str("amount"), v.Str("payment_method"), v.Str("payment_date"),
		v.Str("total_amount"), v.Str("paid_amount"), v.Str("remaining_amount"), v.Str("payments_list"),
	)
}
