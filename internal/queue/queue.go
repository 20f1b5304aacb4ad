package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue fans payloads out to in-process subscribers with retry.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	log      zerolog.Logger
	backoff  time.Duration
	wg       sync.WaitGroup
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(log zerolog.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		log:      log,
		backoff:  500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Payload: payload, MaxRetries: 3}
		q.wg.Add(1)
		go q.processJob(topic, handler, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job JobPayload) {
	defer q.wg.Done()
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			q.log.Debug().Str("topic", topic).Interface("payload", job.Payload).Msg("job processed")
			return
		}

		job.RetryCount++
		q.log.Warn().Err(err).Str("topic", topic).
			Int("attempt", job.RetryCount).Int("max_retries", job.MaxRetries).
			Msg("job failed")

		if job.RetryCount > job.MaxRetries {
			q.log.Error().Str("topic", topic).Interface("payload", job.Payload).Msg("job permanently failed")
			return
		}

		time.Sleep(time.Duration(job.RetryCount) * q.backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Drain blocks until every published job has finished or ctx ends.
func (q *InMemoryQueue) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MemoryTrigger publishes trigger requests onto an InMemoryQueue topic.
type MemoryTrigger struct {
	Queue Queue
	Topic string
}

func (t *MemoryTrigger) Trigger(_ context.Context, req TriggerRequest) error {
	return t.Queue.Publish(t.Topic, req)
}
