package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Trigger reasons sent to the delivery worker.
const (
	ReasonOrderStatus   = "order_status_change"
	ReasonNewPayment    = "new_payment"
	ReasonDeliveryDelay = "delivery_delay"
	ReasonPaymentDelay  = "payment_delay"
)

// TriggerRequest is the body the delivery worker accepts.
type TriggerRequest struct {
	Trigger   string `json:"trigger"`
	OrderID   string `json:"order_id,omitempty"`
	MessageID int64  `json:"message_id,omitempty"`
}

// Trigger wakes the downstream delivery worker.
type Trigger interface {
	Trigger(ctx context.Context, req TriggerRequest) error
}

type NopTrigger struct{}

func (NopTrigger) Trigger(context.Context, TriggerRequest) error { return nil }

// BestEffortTrigger calls a Trigger in the background. Errors are logged, never returned.
type BestEffortTrigger struct {
	target  Trigger
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func NewBestEffortTrigger(target Trigger, timeout time.Duration, log zerolog.Logger) *BestEffortTrigger {
	if target == nil {
		target = NopTrigger{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BestEffortTrigger{target: target, timeout: timeout, log: log}
}

// Fire returns immediately. The call runs detached from the caller's context.
func (b *BestEffortTrigger) Fire(req TriggerRequest) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.Error().Interface("panic", r).Str("trigger", req.Trigger).Msg("delivery trigger panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		if err := b.target.Trigger(ctx, req); err != nil {
			b.log.Warn().Err(err).
				Str("trigger", req.Trigger).
				Str("order_id", req.OrderID).
				Int64("message_id", req.MessageID).
				Msg("delivery trigger failed, worker will pick the message up on its own schedule")
			return
		}
		b.log.Debug().Str("trigger", req.Trigger).Int64("message_id", req.MessageID).Msg("delivery worker triggered")
	}()
}

// Wait blocks until in-flight triggers finish or ctx ends.
func (b *BestEffortTrigger) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
