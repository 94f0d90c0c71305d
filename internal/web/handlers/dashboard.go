package handlers

import (
	"net/http"
	"time"

	"github.com/bulkmsg/bulkmsg/internal/stats"
)

// Dashboard handles GET /api/dashboard. Backend totals plus the
// derived success and failure rates.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	msgStats, err := h.backend.GetMessageStats(r.Context())
	if err != nil {
		h.logger.Error("failed to load message stats", "error", err)
		h.sendError(w, http.StatusBadGateway, "failed to load dashboard stats")
		return
	}

	rates := stats.SendRates(
		msgStats.Overall.SuccessfulSends,
		msgStats.Overall.FailedSends,
		msgStats.Overall.TotalRecipients,
	)

	h.sendJSON(w, http.StatusOK, map[string]any{
		"totalMessages":   msgStats.Overall.TotalMessages,
		"totalRecipients": msgStats.Overall.TotalRecipients,
		"successfulSends": msgStats.Overall.SuccessfulSends,
		"failedSends":     msgStats.Overall.FailedSends,
		"todayMessages":   msgStats.Today.TodayMessages,
		"successRate":     rates.Success,
		"failureRate":     rates.Failure,
	})
}

// Analytics handles GET /api/analytics. Per-type distribution and the
// seven-day daily volume series derived from the message history.
func (h *Handlers) Analytics(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.fetchMessages(r.Context())
	if err != nil {
		h.logger.Error("failed to load messages for analytics", "error", err)
		h.sendError(w, http.StatusBadGateway, "failed to load analytics")
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]any{
		"typeDistribution": stats.TypeDistribution(msgs),
		"dailyVolume":      stats.DailyVolume(msgs, time.Now()),
	})
}
