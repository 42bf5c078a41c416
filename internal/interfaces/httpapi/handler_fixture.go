package httpapi

import (
	"net/http"
)

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ListFixtures")
	defer span.End()

	leagueID, err := h.queryLeagueID(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if leagueID > 0 {
		items, err := h.fixtures.ListByLeague(ctx, leagueID)
		if err != nil {
			h.logger.WarnContext(ctx, "list league fixtures failed", "league_id", leagueID, "error", err)
			writeError(ctx, w, err)
			return
		}
		writeSuccess(ctx, w, http.StatusOK, fixturesToDTO(items))
		return
	}

	limit, err := h.queryLimit(ctx, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.fixtures.List(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "limit", limit, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixturesToDTO(items))
}

func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "GetFixture")
	defer span.End()

	fixtureID, err := h.pathID(ctx, r, "fixtureID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.fixtures.Get(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item, true))
}

// ReconcileFixtures runs one reconciliation of the upcoming window.
func (h *Handler) ReconcileFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ReconcileFixtures")
	defer span.End()

	result, err := h.reconciler.ReconcileFixtures(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "reconcile fixtures failed", "upserted", result.Count, "error", err)
		writeReconcileError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reconcileToDTO(result))
}

func (h *Handler) FetchLeagueFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "FetchLeagueFixtures")
	defer span.End()

	leagueID, err := h.pathID(ctx, r, "leagueID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.reconciler.ReconcileLeague(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "fetch league fixtures failed", "league_id", leagueID, "upserted", result.Count, "error", err)
		writeReconcileError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reconcileToDTO(result))
}
