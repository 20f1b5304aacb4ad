package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/unclebandit/agency-notifier/internal/dedup"
	"github.com/unclebandit/agency-notifier/internal/model"
	"github.com/unclebandit/agency-notifier/internal/repository"
)

// Dedupe identifies a logical notification. A zero Window makes the key suppress unconditionally.
type Dedupe struct {
	Key    string
	Window time.Duration
}

type EnqueueResult struct {
	Inserted   bool
	ID         int64
	ExistingID int64
}

// OutboxWriter inserts outbox rows unless an equivalent one already exists.
type OutboxWriter struct {
	Repo  repository.OutboxRepositoryInterface
	Guard dedup.Guard // optional
	Log   zerolog.Logger
	Now   func() time.Time

	// ClaimTTL bounds guard claims for keys without a window.
	ClaimTTL time.Duration
}

func (w *OutboxWriter) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// TryEnqueue inserts msg under d.Key, or reports the row that already carries it.
func (w *OutboxWriter) TryEnqueue(ctx context.Context, d Dedupe, msg *model.OutboxMessage) (EnqueueResult, error) {
	if d.Key == "" {
		return EnqueueResult{}, errors.New("outbox: empty dedupe key")
	}
	msg.DedupeKey = d.Key
	log := w.Log.With().Str("dedupe_key", d.Key).Str("message_type", msg.MessageType).Logger()

	claimed := false
	if w.Guard != nil {
		ok, err := w.Guard.Claim(ctx, d.Key, w.claimTTL(d))
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("dedupe guard unavailable, relying on outbox lookup")
		case !ok:
			existing, err := w.Repo.FindByDedupeKey(ctx, d.Key, time.Time{})
			if err != nil {
				return EnqueueResult{}, err
			}
			if existing != nil {
				log.Debug().Int64("existing_id", existing.ID).Msg("notification already claimed")
				return EnqueueResult{ExistingID: existing.ID}, nil
			}
			// claim without a row: the holder may have died before inserting; the unique index decides
			log.Warn().Msg("dedupe claim held but no outbox row, attempting insert")
		default:
			claimed = true
		}
	}

	var since time.Time
	if d.Window > 0 {
		since = w.now().Add(-d.Window)
	}
	existing, err := w.Repo.FindByDedupeKey(ctx, d.Key, since)
	if err != nil {
		w.release(ctx, claimed, d.Key)
		log.Error().Err(err).Msg("outbox duplicate check failed")
		return EnqueueResult{}, err
	}
	if existing != nil {
		log.Info().Int64("existing_id", existing.ID).Msg("duplicate notification skipped")
		return EnqueueResult{ExistingID: existing.ID}, nil
	}

	if msg.Status == "" {
		msg.Status = model.OutboxPending
	}
	err = w.Repo.Insert(ctx, msg)
	if errors.Is(err, repository.ErrDuplicateKey) {
		existing, ferr := w.Repo.FindByDedupeKey(ctx, d.Key, time.Time{})
		if ferr != nil {
			return EnqueueResult{}, fmt.Errorf("outbox: re-read after duplicate insert: %w", ferr)
		}
		res := EnqueueResult{}
		if existing != nil {
			res.ExistingID = existing.ID
		}
		log.Info().Int64("existing_id", res.ExistingID).Msg("concurrent insert won, treating as duplicate")
		return res, nil
	}
	if err != nil {
		w.release(ctx, claimed, d.Key)
		log.Error().Err(err).Msg("outbox insert failed")
		return EnqueueResult{}, err
	}

	log.Info().Int64("message_id", msg.ID).Str("to", msg.ToAddress).Msg("notification queued")
	return EnqueueResult{Inserted: true, ID: msg.ID}, nil
}

func (w *OutboxWriter) claimTTL(d Dedupe) time.Duration {
	if d.Window > 0 {
		return d.Window
	}
	if w.ClaimTTL > 0 {
		return w.ClaimTTL
	}
	return 10 * time.Minute
}

func (w *OutboxWriter) release(ctx context.Context, claimed bool, key string) {
	if !claimed {
		return
	}
	if err := w.Guard.Release(ctx, key); err != nil {
		w.Log.Warn().Err(err).Str("dedupe_key", key).Msg("release dedupe claim failed")
	}
}
