package httpapi

import (
	"net/http"
	"time"
)

type jobRunDTO struct {
	Job        string    `json:"job"`
	Count      int       `json:"count"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

func (h *Handler) RunReconcileJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "RunReconcileJob")
	defer span.End()

	started := time.Now().UTC()
	result, err := h.reconciler.ReconcileFixtures(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "run reconcile job failed", "upserted", result.Count, "error", err)
		writeReconcileError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "reconcile job completed", "upserted", result.Count)
	writeSuccess(ctx, w, http.StatusOK, jobRunDTO{
		Job:        "reconcile",
		Count:      result.Count,
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
	})
}
