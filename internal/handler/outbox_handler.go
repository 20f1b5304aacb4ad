// internal/handler/outbox_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/unclebandit/agency-notifier/internal/repository"
)

const defaultStatsHours = 24

// OutboxHandler serves read-only views of the whatsapp_messages outbox
type OutboxHandler struct {
	Repo repository.OutboxRepositoryInterface
	Log  zerolog.Logger
	Now  func() time.Time
}

// Routes registers the outbox endpoints. Stats is declared first so it never matches {id}.
func (h *OutboxHandler) Routes(r chi.Router) {
	r.Get("/stats", h.StatsHandler)
	r.Get("/{id}", h.GetMessageHandler)
}

// GetMessageHandler returns a single outbox row by ID
func (h *OutboxHandler) GetMessageHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	msg, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		h.Log.Error().Err(err).Int64("message_id", id).Msg("❌ Error fetching outbox message")
		http.Error(w, "failed to fetch message: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if msg == nil {
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msg)
}

// StatsHandler counts outbox rows per status over the last ?hours= (default 24)
func (h *OutboxHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	hours := defaultStatsHours
	if s := r.URL.Query().Get("hours"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			http.Error(w, "invalid hours", http.StatusBadRequest)
			return
		}
		hours = n
	}

	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	since := now.Add(-time.Duration(hours) * time.Hour)

	counts, err := h.Repo.CountByStatus(r.Context(), since)
	if err != nil {
		h.Log.Error().Err(err).Msg("❌ Error counting outbox messages")
		http.Error(w, "failed to count messages: "+err.Error(), http.StatusInternalServerError)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"since":     since,
		"hours":     hours,
		"total":     total,
		"by_status": counts,
	})
}
