package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/unclebandit/agency-notifier/internal/model"
	"github.com/unclebandit/agency-notifier/internal/queue"
	"github.com/unclebandit/agency-notifier/internal/repository"
)

const (
	TemplateDeliveryDelay    = "delivery_delay_notification"
	MessageTypeDeliveryDelay = "delivery_delay_notification"
	deliveryDelayBatch       = 10
)

// DeliveryDelayDetector alerts ops about in-progress orders past their delivery date.
type DeliveryDelayDetector struct {
	*Dispatcher
	Orders    repository.OrderRepositoryInterface
	BatchSize int
}

func (d *DeliveryDelayDetector) Run(ctx context.Context, test bool) (*Result, error) {
	s, err := d.settings(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return skipped("follow-up settings not configured"), nil
	}
	if !test && !s.NotifyDeliveryDelay {
		return skipped("delivery delay notifications are disabled"), nil
	}
	to := opsAddress(s)
	if to == "" {
		return skipped("no notification number configured"), nil
	}

	now := d.now()
	if test {
		return d.runTest(ctx, to, now)
	}

	cutoff := now.AddDate(0, 0, -max(s.DeliveryDelayDays, 0))
	batch := d.BatchSize
	if batch <= 0 {
		batch = deliveryDelayBatch
	}
	orders, err := d.Orders.ListDelayedDeliveries(ctx, InProgressStatuses(), cutoff, batch)
	if err != nil {
		return nil, err
	}

	result := &Result{Success: true}
	for i := range orders {
		o := &orders[i]
		key := Dedupe{
			Key:    fmt.Sprintf("delivery_delay_%s_%s", o.ID, d.Composer.Day(now)),
			Window: d.DedupWindow,
		}
		res, err := d.notify(ctx, to, o, now, key)
		if err != nil {
			d.Log.Error().Err(err).Str("order_id", o.ID).Msg("delivery delay notification failed")
		}
		tally(result, res, err)
	}

	result.Message = fmt.Sprintf("%d delivery delay notification(s) queued out of %d delayed order(s)", result.Count, len(orders))
	d.Log.Info().Int("delayed", len(orders)).Int("queued", result.Count).
		Int("deduped", result.DedupedCount).Int("failed", result.Failed).Msg("delivery delay scan finished")
	return result, nil
}

func (d *DeliveryDelayDetector) runTest(ctx context.Context, to string, now time.Time) (*Result, error) {
	delivery := now.AddDate(0, 0, -3)
	o := &model.Order{
		ID:           "test-order",
		OrderNumber:  "TEST-0001",
		CustomerName: "عميل تجريبي",
		Status:       string(StatusInProgress),
		DeliveryDate: &delivery,
	}
	res, err := d.notify(ctx, to, o, now, Dedupe{Key: "test_delivery_delay_" + uuid.NewString()})
	if err != nil {
		return nil, err
	}
	return &Result{Success: true, Count: 1, MessageID: res.ID, Message: "test delivery delay notification queued"}, nil
}

func (d *DeliveryDelayDetector) notify(ctx context.Context, to string, o *model.Order, now time.Time, key Dedupe) (EnqueueResult, error) {
	vars := Vars{
		"order_number":  o.OrderNumber,
		"customer_name": o.CustomerName,
		"status":        o.Status,
		"delivery_date": "-",
		"days_late":     0,
	}
	if o.DeliveryDate != nil {
		vars["delivery_date"] = d.Composer.Date(*o.DeliveryDate)
		vars["days_late"] = daysBetween(*o.DeliveryDate, now)
	}

	content := d.Composer.Compose(ctx, TemplateDeliveryDelay, vars, deliveryDelayFallback)
	return d.enqueue(ctx, queue.ReasonDeliveryDelay, o.ID, key, &model.OutboxMessage{
		ToAddress:   to,
		MessageType: MessageTypeDeliveryDelay,
		Content:     content,
	})
}

func deliveryDelayFallback(v Vars) string {
	return fmt.Sprintf(
		"⚠️ تنبيه تأخير تسليم\n\nرقم الطلب: %s\nالعميل: %s\nالحالة: %s\nتاريخ التسليم: %s\nمتأخر منذ: %s يوم",
		v.Str("order_number"), v.Str("customer_name"), v.Str("status"), v.Str("delivery_date"), v.Str("days_late"),
	)
}
