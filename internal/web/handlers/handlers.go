// Package handlers implements the JSON endpoints served to the UI.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bulkmsg/bulkmsg/internal/backend"
	"github.com/bulkmsg/bulkmsg/internal/cache"
	"github.com/bulkmsg/bulkmsg/internal/config"
	"github.com/bulkmsg/bulkmsg/internal/metrics"
	"github.com/bulkmsg/bulkmsg/internal/repository"
)

type Handlers struct {
	cfg     *config.Config
	logger  *slog.Logger
	backend *backend.Client
	cache   *cache.Store
	batches *repository.BatchRepository
	metrics *metrics.Metrics
}

func New(cfg *config.Config, logger *slog.Logger, client *backend.Client, store *cache.Store, batches *repository.BatchRepository, m *metrics.Metrics) *Handlers {
	return &Handlers{
		cfg:     cfg,
		logger:  logger.With("component", "handlers"),
		backend: client,
		cache:   store,
		batches: batches,
		metrics: m,
	}
}

// Health check
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sendJSON sends a JSON response
func (h *Handlers) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response
func (h *Handlers) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, map[string]string{"error": message})
}

// fetchContacts returns the cached contact list, refetching from the
// backend on a stale cache. When the backend is unreachable a
// persisted stale snapshot is served instead, if one exists.
func (h *Handlers) fetchContacts(ctx context.Context) ([]backend.Contact, error) {
	var contacts []backend.Contact
	if ok, err := h.cache.Get(cache.KeyContacts, &contacts); err == nil && ok {
		return contacts, nil
	}

	fetched, err := h.backend.GetContacts(ctx)
	if err != nil {
		if ok, serr := h.cache.Snapshot(cache.KeyContacts, &contacts); serr == nil && ok {
			h.logger.Warn("serving stale contacts snapshot", "error", err)
			return contacts, nil
		}
		return nil, err
	}

	if err := h.cache.Put(cache.KeyContacts, fetched); err != nil {
		h.logger.Error("failed to cache contacts", "error", err)
	}
	return fetched, nil
}

// fetchMessages mirrors fetchContacts for the message history.
func (h *Handlers) fetchMessages(ctx context.Context) ([]backend.MessageRecord, error) {
	var msgs []backend.MessageRecord
	if ok, err := h.cache.Get(cache.KeyMessages, &msgs); err == nil && ok {
		return msgs, nil
	}

	fetched, err := h.backend.GetMessages(ctx, backend.MessageFilter{})
	if err != nil {
		if ok, serr := h.cache.Snapshot(cache.KeyMessages, &msgs); serr == nil && ok {
			h.logger.Warn("serving stale messages snapshot", "error", err)
			return msgs, nil
		}
		return nil, err
	}

	if err := h.cache.Put(cache.KeyMessages, fetched); err != nil {
		h.logger.Error("failed to cache messages", "error", err)
	}
	return fetched, nil
}
