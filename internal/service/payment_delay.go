package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/unclebandit/agency-notifier/internal/model"
	"github.com/unclebandit/agency-notifier/internal/queue"
	"github.com/unclebandit/agency-notifier/internal/repository"
)

const (
	TemplatePaymentDelay    = "payment_delay_notification"
	MessageTypePaymentDelay = "payment_delay_notification"
)

// PaymentDelayDetector alerts ops about customers whose balance has been open too long.
type PaymentDelayDetector struct {
	*Dispatcher
	Customers repository.CustomerRepositoryInterface
	Orders    repository.OrderRepositoryInterface
}

func (d *PaymentDelayDetector) Run(ctx context.Context, test bool) (*Result, error) {
	s, err := d.settings(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return skipped("follow-up settings not configured"), nil
	}
	if !test && !s.NotifyPaymentDelay {
		return skipped("payment delay notifications are disabled"), nil
	}
	to := opsAddress(s)
	if to == "" {
		return skipped("no notification number configured"), nil
	}

	now := d.now()
	if test {
		return d.runTest(ctx, to, now)
	}

	balances, err := d.Customers.ListOutstanding(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := now.AddDate(0, 0, -max(s.PaymentDelayDays, 0))

	result := &Result{Success: true}
	for i := range balances {
		b := &balances[i]
		order, err := d.Orders.OldestOrderBefore(ctx, b.CustomerID, cutoff)
		if err != nil {
			d.Log.Error().Err(err).Str("customer_id", b.CustomerID).Msg("oldest order lookup failed")
			result.Failed++
			continue
		}
		if order == nil {
			// balance alone is not a delay
			continue
		}

		key := Dedupe{
			Key:    fmt.Sprintf("payment_delay_%s_%s_%s", b.CustomerID, order.ID, d.Composer.Day(now)),
			Window: d.DedupWindow,
		}
		res, err := d.notify(ctx, to, b, order, now, key)
		if err != nil {
			d.Log.Error().Err(err).Str("customer_id", b.CustomerID).Str("order_id", order.ID).Msg("payment delay notification failed")
		}
		tally(result, res, err)
	}

	result.Message = fmt.Sprintf("%d payment delay notification(s) queued", result.Count)
	d.Log.Info().Int("customers", len(balances)).Int("queued", result.Count).
		Int("deduped", result.DedupedCount).Int("failed", result.Failed).Msg("payment delay scan finished")
	return result, nil
}

func (d *PaymentDelayDetector) runTest(ctx context.Context, to string, now time.Time) (*Result, error) {
	b := &model.OutstandingBalance{
		CustomerID:         "test-customer",
		Name:               "عميل تجريبي",
		Phone:              "+966500000000",
		TotalAmount:        decimal.NewFromInt(5000),
		TotalPaid:          decimal.NewFromInt(2000),
		OutstandingBalance: decimal.NewFromInt(3000),
	}
	o := &model.Order{ID: "test-order", OrderNumber: "TEST-0001", CreatedAt: now.AddDate(0, 0, -45)}
	res, err := d.notify(ctx, to, b, o, now, Dedupe{Key: "test_payment_delay_" + uuid.NewString()})
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Count: 1, MessageID: res.ID, Message: "test payment delay notification queued"}, nil
}

func (d *PaymentDelayDetector) notify(ctx context.Context, to string, b *model.OutstandingBalance, o *model.Order, now time.Time, key Dedupe) (EnqueueResult, error) {
	phone := b.WhatsApp
	if phone == "" {
		phone = b.Phone
	}
	vars := Vars{
		"customer_name":      b.Name,
		"customer_phone":     phone,
		"outstanding_amount": d.Composer.Amount(b.OutstandingBalance),
		"total_amount":       d.Composer.Amount(b.TotalAmount),
		"total_paid":         d.Composer.Amount(b.TotalPaid),
		"order_number":       o.OrderNumber,
		"order_date":         d.Composer.Date(o.CreatedAt),
		"days_overdue":       daysBetween(o.CreatedAt, now),
	}

	content := d.Composer.Compose(ctx, TemplatePaymentDelay, vars, paymentDelayFallback)
	return d.enqueue(ctx, queue.ReasonPaymentDelay, o.ID, key, &model.OutboxMessage{
		ToAddress:   to,
		MessageType: MessageTypePaymentDelay,
		Content:     content,
	})
}

func paymentDelayFallback(v Vars) string {
	return fmt.Sprintf(
		"💰 تنبيه تأخر سداد\n\nالعميل: %s\nالجوال: %s\nالمبلغ المتبقي: %s\nأقدم طلب: %s (%s)\nمضى عليه: %s يوم",
		v.Str("customer_name"), v.Str("customer_phone"), v.Str("outstanding_amount"),
		v.Str("order_number"), v.Str("order_date"), v.Str("days_overdue"),
	)
}
