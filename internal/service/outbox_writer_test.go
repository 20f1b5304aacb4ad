package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/agency-notifier/internal/dedup"
	"github.com/unclebandit/agency-notifier/internal/model"
	"github.com/unclebandit/agency-notifier/internal/service"
)

func newWriter(repo *MockOutboxRepo) *service.OutboxWriter {
	return &service.OutboxWriter{Repo: repo, Log: zerolog.Nop(), Now: func() time.Time { return fixedNow }}
}

func TestTryEnqueueInsertsOnce(t *testing.T) {
	repo := &MockOutboxRepo{}
	w := newWriter(repo)
	ctx := context.Background()
	key := service.Dedupe{Key: "order_status_O-1_مؤكد"}

	first, err := w.TryEnqueue(ctx, key, &model.OutboxMessage{ToAddress: "+1", MessageType: "order_status_مؤكد"})
	require.NoError(t, err)
	assert.True(t, first.Inserted)

	for i := 0; i < 3; i++ {
		again, err := w.TryEnqueue(ctx, key, &model.OutboxMessage{ToAddress: "+1", MessageType: "order_status_مؤكد"})
		require.NoError(t, err)
		assert.False(t, again.Inserted)
		assert.Equal(t, first.ID, again.ExistingID)
	}

	rows := repo.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, model.OutboxPending, rows[0].Status)
	assert.Equal(t, key.Key, rows[0].DedupeKey)
}

func TestTryEnqueueWindowedLookupFallsBackToUniqueConstraint(t *testing.T) {
	repo := &MockOutboxRepo{}
	old := repo.Seed(model.OutboxMessage{DedupeKey: "delivery_delay_O-9_2026-10-17", CreatedAt: fixedNow.Add(-time.Hour)})
	w := newWriter(repo)

	res, err := w.TryEnqueue(context.Background(),
		service.Dedupe{Key: "delivery_delay_O-9_2026-10-17", Window: 10 * time.Minute},
		&model.OutboxMessage{ToAddress: "+1"})
	require.NoError(t, err)

	assert.False(t, res.Inserted)
	assert.Equal(t, old, res.ExistingID)
	assert.Len(t, repo.Rows(), 1)
}

func TestTryEnqueueReportsInsertFailure(t *testing.T) {
	repo := &MockOutboxRepo{InsertErr: errors.New("connection refused")}
	w := newWriter(repo)

	_, err := w.TryEnqueue(context.Background(), service.Dedupe{Key: "payment_logged_p1"}, &model.OutboxMessage{})
	assert.Error(t, err)
}

func TestTryEnqueueRejectsEmptyKey(t *testing.T) {
	w := newWriter(&MockOutboxRepo{})
	_, err := w.TryEnqueue(context.Background(), service.Dedupe{}, &model.OutboxMessage{})
	assert.Error(t, err)
}

func TestTryEnqueueWithRedisGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &MockOutboxRepo{}
	w := newWriter(repo)
	w.Guard = dedup.NewRedisGuard(rdb)
	ctx := context.Background()
	key := service.Dedupe{Key: "payment_logged_p-77"}

	first, err := w.TryEnqueue(ctx, key, &model.OutboxMessage{})
	require.NoError(t, err)
	require.True(t, first.Inserted)

	second, err := w.TryEnqueue(ctx, key, &model.OutboxMessage{})
	require.NoError(t, err)
	assert.False(t, second.Inserted)
	assert.Equal(t, first.ID, second.ExistingID)
	assert.Len(t, repo.Rows(), 1)
}

func TestTryEnqueueReleasesClaimOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	guard := dedup.NewRedisGuard(rdb)
	repo := &MockOutboxRepo{InsertErr: errors.New("disk full")}
	w := newWriter(repo)
	w.Guard = guard

	_, err := w.TryEnqueue(context.Background(), service.Dedupe{Key: "payment_logged_p-1"}, &model.OutboxMessage{})
	require.Error(t, err)
	assert.False(t, mr.Exists(guard.Key("payment_logged_p-1")))

	repo.InsertErr = nil
	res, err := w.TryEnqueue(context.Background(), service.Dedupe{Key: "payment_logged_p-1"}, &model.OutboxMessage{})
	require.NoError(t, err)
	assert.True(t, res.Inserted)
}

func TestTryEnqueueRecoversOrphanedClaim(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	guard := dedup.NewRedisGuard(rdb)
	ctx := context.Background()
	ok, err := guard.Claim(ctx, "payment_logged_p-5", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	repo := &MockOutboxRepo{}
	w := newWriter(repo)
	w.Guard = guard

	res, err := w.TryEnqueue(ctx, service.Dedupe{Key: "payment_logged_p-5"}, &model.OutboxMessage{})
	require.NoError(t, err)
	assert.True(t, res.Inserted)

	again, err := w.TryEnqueue(ctx, service.Dedupe{Key: "payment_logged_p-5"}, &model.OutboxMessage{})
	require.NoError(t, err)
	assert.False(t, again.Inserted)
	assert.Equal(t, res.ID, again.ExistingID)
	assert.Len(t, repo.Rows(), 1)
}

func TestTryEnqueueIgnoresUnavailableGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	repo := &MockOutboxRepo{}
	w := newWriter(repo)
	w.Guard = dedup.NewRedisGuard(rdb)

	res, err := w.TryEnqueue(context.Background(), service.Dedupe{Key: "order_status_O-2_مكتمل"}, &model.OutboxMessage{})
	require.NoError(t, err)
	assert.True(t, res.Inserted)
}
