package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bulkmsg/bulkmsg/internal/backend"
	"github.com/bulkmsg/bulkmsg/internal/cache"
	"github.com/bulkmsg/bulkmsg/internal/compose"
	"github.com/bulkmsg/bulkmsg/internal/ingest"
	"github.com/bulkmsg/bulkmsg/internal/repository"
)

// MessageList handles GET /api/messages
func (h *Handlers) MessageList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := backend.MessageFilter{
		Type:   backend.MessageType(q.Get("type")),
		Status: backend.MessageStatus(q.Get("status")),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Limit, _ = strconv.Atoi(q.Get("limit"))

	// Filtered listings bypass the cache; only the unfiltered history
	// is snapshotted.
	if filter == (backend.MessageFilter{}) {
		msgs, err := h.fetchMessages(r.Context())
		if err != nil {
			h.logger.Error("failed to list messages", "error", err)
			h.sendError(w, http.StatusBadGateway, "failed to load messages")
			return
		}
		if msgs == nil {
			msgs = []backend.MessageRecord{}
		}
		h.sendJSON(w, http.StatusOK, map[string]any{"messages": msgs})
		return
	}

	msgs, err := h.backend.GetMessages(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list messages", "error", err)
		h.sendError(w, http.StatusBadGateway, "failed to load messages")
		return
	}
	if msgs == nil {
		msgs = []backend.MessageRecord{}
	}
	h.sendJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// sendPayload is the compose form as the UI submits it.
type sendPayload struct {
	Type             backend.MessageType `json:"type"`
	Content          string              `json:"content"`
	Subject          string              `json:"subject"`
	ContactIDs       []string            `json:"contactIds"`
	DirectRecipients []ingest.Candidate  `json:"directRecipients"`
}

// sendProblem is the wire form of one rejected recipient.
type sendProblem struct {
	Source string `json:"source"`
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Reason string `json:"reason"`
}

// MessageSend handles POST /api/messages/send. Selected contact IDs
// are resolved against the current contact list, merged with manual
// entries into a deduplicated recipient set, and dispatched as one
// backend call.
func (h *Handlers) MessageSend(w http.ResponseWriter, r *http.Request) {
	var payload sendPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !payload.Type.Valid() {
		h.sendError(w, http.StatusBadRequest, "message type must be sms or email")
		return
	}
	if strings.TrimSpace(payload.Content) == "" {
		h.sendError(w, http.StatusBadRequest, "message content is required")
		return
	}
	if payload.Type == backend.MessageEmail && strings.TrimSpace(payload.Subject) == "" {
		h.sendError(w, http.StatusBadRequest, "subject is required for email messages")
		return
	}

	var selected []backend.Contact
	if len(payload.ContactIDs) > 0 {
		contacts, err := h.fetchContacts(r.Context())
		if err != nil {
			h.logger.Error("failed to resolve selected contacts", "error", err)
			h.sendError(w, http.StatusBadGateway, "failed to load contacts")
			return
		}
		byID := make(map[string]backend.Contact, len(contacts))
		for _, c := range contacts {
			byID[c.ID] = c
		}
		for _, id := range payload.ContactIDs {
			contact, ok := byID[id]
			if !ok {
				h.sendError(w, http.StatusBadRequest, "unknown contact id: "+id)
				return
			}
			selected = append(selected, contact)
		}
	}

	set, err := compose.Build(payload.Type, selected, payload.DirectRecipients)
	if err != nil {
		var be *compose.BuildError
		if errors.As(err, &be) {
			problems := make([]sendProblem, 0, len(be.Problems))
			for _, p := range be.Problems {
				problems = append(problems, sendProblem{
					Source: string(p.Source),
					Index:  p.Index,
					Label:  p.Label,
					Reason: p.Reason(),
				})
			}
			h.sendJSON(w, http.StatusBadRequest, map[string]any{
				"error":    be.Error(),
				"problems": problems,
			})
			return
		}
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.backend.SendMessage(r.Context(), set.SendRequest(payload.Content, payload.Subject))
	if err != nil {
		h.metrics.MessagesSentTotal.WithLabelValues(string(payload.Type), "failed").Inc()
		h.logger.Error("failed to send message", "type", payload.Type, "error", err)
		h.sendError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.metrics.MessagesSentTotal.WithLabelValues(string(payload.Type), string(result.Status)).Inc()
	h.cache.Invalidate(cache.KeyMessages)

	batch := &repository.Batch{
		Kind:      repository.BatchMessageSend,
		Total:     set.Size(),
		Succeeded: result.TotalRecipients,
		Failed:    set.Size() - result.TotalRecipients,
	}
	if batch.Failed < 0 {
		batch.Failed = 0
	}
	if err := h.batches.Record(batch); err != nil {
		h.logger.Error("failed to record send batch", "error", err)
	}

	h.logger.Info("message sent",
		"message_id", result.ID,
		"type", payload.Type,
		"recipients", result.TotalRecipients,
		"status", result.Status,
	)

	h.sendJSON(w, http.StatusOK, result)
}
