package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/agency-notifier/internal/model"
	"github.com/unclebandit/agency-notifier/internal/queue"
	"github.com/unclebandit/agency-notifier/internal/repository"
)

// Firer hands a trigger request to the delivery worker without waiting.
type Firer interface {
	Fire(req queue.TriggerRequest)
}

// Result is what every detector reports back to its caller.
type Result struct {
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
	Count        int    `json:"count"`
	Skipped      bool   `json:"skipped,omitempty"`
	Deduped      bool   `json:"deduped,omitempty"`
	DedupedCount int    `json:"deduped_count,omitempty"`
	Failed       int    `json:"failed,omitempty"`
	MessageID    int64  `json:"message_id,omitempty"`
}

func skipped(msg string) *Result {
	return &Result{Success: true, Skipped: true, Message: msg}
}

// Dispatcher holds what the detectors share: settings, composer, outbox writer and trigger.
type Dispatcher struct {
	Settings     repository.SettingsRepositoryInterface
	Composer     *Composer
	Writer       *OutboxWriter
	Trigger      Firer
	SenderNumber string
	DedupWindow  time.Duration
	Log          zerolog.Logger
	Now          func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// settings is read once per invocation and passed down by value.
func (d *Dispatcher) settings(ctx context.Context) (*model.FollowUpSettings, error) {
	return d.Settings.Get(ctx)
}

// opsAddress validates the internal sink for ops alerts.
func opsAddress(s *model.FollowUpSettings) string {
	if s == nil {
		return ""
	}
	return NormalizePhone(s.WhatsAppNumber)
}

// enqueue writes msg through the dedup writer and triggers delivery only for new rows.
func (d *Dispatcher) enqueue(ctx context.Context, reason, orderID string, key Dedupe, msg *model.OutboxMessage) (EnqueueResult, error) {
	msg.FromAddress = d.SenderNumber
	res, err := d.Writer.TryEnqueue(ctx, key, msg)
	if err != nil {
		return res, err
	}
	if res.Inserted && d.Trigger != nil {
		d.Trigger.Fire(queue.TriggerRequest{Trigger: reason, OrderID: orderID, MessageID: res.ID})
	}
	return res, nil
}

// tally folds one subject's outcome into a batch result.
func tally(r *Result, res EnqueueResult, err error) {
	switch {
	case err != nil:
		r.Failed++
	case res.Inserted:
		r.Count++
	default:
		r.DedupedCount++
	}
}
