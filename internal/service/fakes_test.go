package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/agency-notifier/internal/model"
	"github.com/unclebandit/agency-notifier/internal/queue"
	"github.com/unclebandit/agency-notifier/internal/repository"
	"github.com/unclebandit/agency-notifier/internal/service"
)

var fixedNow = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)

// --- Mock Repositories ---

type MockSettingsRepo struct {
	Settings *model.FollowUpSettings
	Err      error
}

func (m *MockSettingsRepo) Get(ctx context.Context) (*model.FollowUpSettings, error) {
	if m.Settings == nil {
		return nil, m.Err
	}
	s := *m.Settings
	return &s, m.Err
}

type MockTemplateRepo struct {
	Templates map[string]*model.NotificationTemplate
	Err       error
}

func (m *MockTemplateRepo) GetByName(ctx context.Context, name string) (*model.NotificationTemplate, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Templates[name], nil
}

// MockOutboxRepo enforces dedupe_key uniqueness like the real table.
type MockOutboxRepo struct {
	mu        sync.Mutex
	rows      []model.OutboxMessage
	nextID    int64
	InsertErr error

	// LookupGate, when set, holds windowed lookups until every racer has checked.
	LookupGate *sync.WaitGroup
}

func (m *MockOutboxRepo) Insert(ctx context.Context, msg *model.OutboxMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return m.InsertErr
	}
	for _, r := range m.rows {
		if r.DedupeKey == msg.DedupeKey {
			return repository.ErrDuplicateKey
		}
	}
	m.nextID++
	msg.ID = m.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = fixedNow
	}
	m.rows = append(m.rows, *msg)
	return nil
}

func (m *MockOutboxRepo) FindByDedupeKey(ctx context.Context, key string, since time.Time) (*model.OutboxMessage, error) {
	if m.LookupGate != nil && !since.IsZero() {
		m.LookupGate.Done()
		m.LookupGate.Wait()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.rows) - 1; i >= 0; i-- {
		r := m.rows[i]
		if r.DedupeKey == key && (since.IsZero() || !r.CreatedAt.Before(since)) {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *MockOutboxRepo) GetByID(ctx context.Context, id int64) (*model.OutboxMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			r := r
			return &r, nil
		}
	}
	return nil, nil
}

func (m *MockOutboxRepo) CountByStatus(ctx context.Context, since time.Time) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := map[string]int{}
	for _, r := range m.rows {
		stats[r.Status]++
	}
	return stats, nil
}

func (m *MockOutboxRepo) Rows() []model.OutboxMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OutboxMessage(nil), m.rows...)
}

// Seed inserts a row as if written by an earlier run.
func (m *MockOutboxRepo) Seed(msg model.OutboxMessage) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg.ID = m.nextID
	m.rows = append(m.rows, msg)
	return msg.ID
}

type MockOrderRepo struct {
	Orders  map[string]*model.Order
	Delayed []model.Order
	Oldest  map[string]*model.Order
	Items   map[string][]model.OrderItem

	mu              sync.Mutex
	DelayedStatuses []string
	DelayedCutoff   time.Time
	OldestCalls     int
}

func (m *MockOrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return m.Orders[id], nil
}

func (m *MockOrderRepo) ListDelayedDeliveries(ctx context.Context, statuses []string, cutoff time.Time, limit int) ([]model.Order, error) {
	m.mu.Lock()
	m.DelayedStatuses = statuses
	m.DelayedCutoff = cutoff
	m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.Delayed {
		if len(out) == limit {
			break
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *MockOrderRepo) OldestOrderBefore(ctx context.Context, customerID string, cutoff time.Time) (*model.Order, error) {
	m.mu.Lock()
	m.OldestCalls++
	m.mu.Unlock()
	o := m.Oldest[customerID]
	if o == nil || !o.CreatedAt.Before(cutoff) {
		return nil, nil
	}
	return o, nil
}

func (m *MockOrderRepo) ListItems(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	return m.Items[orderID], nil
}

type MockCustomerRepo struct {
	Customers map[string]*model.Customer
	Balances  []model.OutstandingBalance
}

func (m *MockCustomerRepo) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	return m.Customers[id], nil
}

func (m *MockCustomerRepo) ListOutstanding(ctx context.Context) ([]model.OutstandingBalance, error) {
	return m.Balances, nil
}

type MockPaymentRepo struct {
	Payments map[string]*model.Payment
}

func (m *MockPaymentRepo) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	return m.Payments[id], nil
}

func (m *MockPaymentRepo) ListByOrder(ctx context.Context, orderID string) ([]model.Payment, error) {
	out := []model.Payment{}
	for _, p := range m.Payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	return out, nil
}

type MockEvaluationRepo struct {
	mu    sync.Mutex
	Evals map[string]*model.Evaluation
}

func (m *MockEvaluationRepo) GetByOrderID(ctx context.Context, orderID string) (*model.Evaluation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Evals[orderID], nil
}

func (m *MockEvaluationRepo) Create(ctx context.Context, e *model.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Evals == nil {
		m.Evals = map[string]*model.Evaluation{}
	}
	if _, ok := m.Evals[e.OrderID]; ok {
		return repository.ErrDuplicateKey
	}
	e.ID = int64(len(m.Evals) + 1)
	m.Evals[e.OrderID] = e
	return nil
}

// RecordingFirer captures trigger requests instead of calling a worker.
type RecordingFirer struct {
	mu   sync.Mutex
	Reqs []queue.TriggerRequest
}

func (f *RecordingFirer) Fire(req queue.TriggerRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reqs = append(f.Reqs, req)
}

func (f *RecordingFirer) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Reqs)
}

func enabledSettings() *model.FollowUpSettings {
	return &model.FollowUpSettings{
		WhatsAppNumber:      "0551112222",
		NotifyDeliveryDelay: true,
		NotifyPaymentDelay:  true,
		NotifyNewPayment:    true,
		DeliveryDelayDays:   2,
		PaymentDelayDays:    30,
	}
}

type harness struct {
	Outbox    *MockOutboxRepo
	Templates *MockTemplateRepo
	Settings  *MockSettingsRepo
	Firer     *RecordingFirer
	D         *service.Dispatcher
}

func newHarness(t *testing.T, settings *model.FollowUpSettings) *harness {
	t.Helper()
	h := &harness{
		Outbox:    &MockOutboxRepo{},
		Templates: &MockTemplateRepo{Templates: map[string]*model.NotificationTemplate{}},
		Settings:  &MockSettingsRepo{Settings: settings},
		Firer:     &RecordingFirer{},
	}
	now := func() time.Time { return fixedNow }
	h.D = &service.Dispatcher{
		Settings: h.Settings,
		Composer: &service.Composer{
			Templates: &service.TemplateService{Repo: h.Templates, Log: zerolog.Nop()},
			Location:  time.UTC,
			Currency:  "SAR",
		},
		Writer:       &service.OutboxWriter{Repo: h.Outbox, Log: zerolog.Nop(), Now: now},
		Trigger:      h.Firer,
		SenderNumber: "+966599999999",
		DedupWindow:  10 * time.Minute,
		Log:          zerolog.Nop(),
		Now:          now,
	}
	return h
}
