package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bulkmsg/bulkmsg/internal/backend"
	"github.com/bulkmsg/bulkmsg/internal/bulk"
	"github.com/bulkmsg/bulkmsg/internal/cache"
	"github.com/bulkmsg/bulkmsg/internal/ingest"
	"github.com/bulkmsg/bulkmsg/internal/repository"
)

// maxImportSize caps uploaded import files at 10 MiB.
const maxImportSize = 10 << 20

// ContactList handles GET /api/contacts
func (h *Handlers) ContactList(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.fetchContacts(r.Context())
	if err != nil {
		h.logger.Error("failed to list contacts", "error", err)
		h.sendError(w, http.StatusBadGateway, "failed to load contacts")
		return
	}
	if contacts == nil {
		contacts = []backend.Contact{}
	}
	h.sendJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

// ContactCreate handles POST /api/contacts
func (h *Handlers) ContactCreate(w http.ResponseWriter, r *http.Request) {
	var candidate ingest.Candidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := ingest.Validate(candidate, ingest.ChannelAny)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	contact, err := h.backend.CreateContact(r.Context(), backend.ContactRecord{
		Name:        rec.Name,
		Email:       rec.Email,
		PhoneNumber: rec.Phone,
	})
	if err != nil {
		h.logger.Error("failed to create contact", "error", err)
		h.sendError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.cache.Invalidate(cache.KeyContacts)
	h.sendJSON(w, http.StatusCreated, contact)
}

// ContactUpdate handles PUT /api/contacts/{id}
func (h *Handlers) ContactUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var candidate ingest.Candidate
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := ingest.Validate(candidate, ingest.ChannelAny)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	contact, err := h.backend.UpdateContact(r.Context(), id, backend.ContactRecord{
		Name:        rec.Name,
		Email:       rec.Email,
		PhoneNumber: rec.Phone,
	})
	if err != nil {
		h.logger.Error("failed to update contact", "id", id, "error", err)
		h.sendError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.cache.Invalidate(cache.KeyContacts)
	h.sendJSON(w, http.StatusOK, contact)
}

// ContactDelete handles DELETE /api/contacts/{id}
func (h *Handlers) ContactDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.backend.DeleteContact(r.Context(), id); err != nil {
		h.logger.Error("failed to delete contact", "id", id, "error", err)
		h.sendError(w, http.StatusBadGateway, err.Error())
		return
	}

	h.cache.Invalidate(cache.KeyContacts)
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// importFile reads the uploaded delimited file from a multipart form
// ("file" field) or, failing that, the raw request body.
func (h *Handlers) importFile(r *http.Request) (io.Reader, error) {
	if err := r.ParseMultipartForm(maxImportSize); err == nil {
		file, _, err := r.FormFile("file")
		if err == nil {
			return file, nil
		}
	}
	return io.LimitReader(r.Body, maxImportSize), nil
}

// ImportPreview handles POST /api/contacts/import/preview. It parses
// and validates without committing, so the UI can show "N valid rows
// found, M skipped" before the import is confirmed.
func (h *Handlers) ImportPreview(w http.ResponseWriter, r *http.Request) {
	file, err := h.importFile(r)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "missing import file")
		return
	}

	parser := ingest.Parser{Comma: h.cfg.DelimiterRune()}
	result, err := parser.Parse(file)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "failed to read import file")
		return
	}

	preview := result.Candidates
	if preview == nil {
		preview = []ingest.Candidate{}
	}
	h.sendJSON(w, http.StatusOK, map[string]any{
		"total":   result.Total,
		"valid":   len(result.Candidates),
		"skipped": result.Skipped,
		"preview": preview,
	})
}

// ContactImport handles POST /api/contacts/import. Parse-level
// problems were already recovered row-by-row; each surviving
// candidate is committed independently and the batch always runs to
// completion, whatever the per-record outcomes.
func (h *Handlers) ContactImport(w http.ResponseWriter, r *http.Request) {
	file, err := h.importFile(r)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "missing import file")
		return
	}

	parser := ingest.Parser{Comma: h.cfg.DelimiterRune()}
	result, err := parser.Parse(file)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "failed to read import file")
		return
	}

	h.metrics.ImportRowsTotal.Add(float64(result.Total))
	h.metrics.ImportRowsSkippedTotal.Add(float64(result.Skipped))

	if len(result.Candidates) == 0 {
		h.sendError(w, http.StatusBadRequest, "no valid contacts found in import file")
		return
	}

	summary := bulk.Run(r.Context(), result.Candidates, h.cfg.Import.Concurrency,
		func(ctx context.Context, c ingest.Candidate) (*backend.Contact, error) {
			return h.backend.CreateContact(ctx, backend.ContactRecord{
				Name:        c.Name,
				Email:       c.Email,
				PhoneNumber: c.Phone,
			})
		})

	for _, outcome := range summary.Outcomes {
		if outcome.Succeeded() {
			h.metrics.CommitsTotal.WithLabelValues("create_contact", "ok").Inc()
		} else {
			h.metrics.CommitsTotal.WithLabelValues("create_contact", "error").Inc()
		}
	}
	h.metrics.ContactsImportedTotal.Add(float64(summary.Succeeded))

	// One invalidation per completed batch, never one per record.
	h.cache.Invalidate(cache.KeyContacts)

	batch := &repository.Batch{
		Kind:      repository.BatchContactImport,
		Total:     result.Total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
		Skipped:   result.Skipped,
	}
	if err := h.batches.Record(batch); err != nil {
		h.logger.Error("failed to record import batch", "error", err)
	}

	h.logger.Info("contact import finished",
		"batch_id", batch.ID,
		"total_rows", result.Total,
		"skipped", result.Skipped,
		"imported", summary.Succeeded,
		"failed", summary.Failed,
	)

	h.sendJSON(w, http.StatusOK, map[string]any{
		"total":    result.Total,
		"skipped":  result.Skipped,
		"imported": summary.Succeeded,
		"failed":   summary.Failed,
	})
}

// BatchHistory handles GET /api/imports
func (h *Handlers) BatchHistory(w http.ResponseWriter, r *http.Request) {
	batches, err := h.batches.List(50)
	if err != nil {
		h.logger.Error("failed to list batches", "error", err)
		h.sendError(w, http.StatusInternalServerError, "failed to load batch history")
		return
	}
	if batches == nil {
		batches = []repository.Batch{}
	}
	h.sendJSON(w, http.StatusOK, map[string]any{"batches": batches})
}
