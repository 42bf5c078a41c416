package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
)

// SyncReference pulls every entity of kind from the provider into the store.
func (h *Handler) SyncReference(kind reference.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "SyncReference")
		defer span.End()

		upserted, err := h.references.Sync(ctx, kind)
		if err != nil {
			h.logger.WarnContext(ctx, "sync reference failed", "kind", kind, "error", err)
			writeError(ctx, w, err)
			return
		}

		writeSuccess(ctx, w, http.StatusOK, syncDTO{Kind: kind, Upserted: upserted})
	}
}

func (h *Handler) ListReference(kind reference.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "ListReference")
		defer span.End()

		items, err := h.references.List(ctx, kind)
		if err != nil {
			h.logger.WarnContext(ctx, "list reference failed", "kind", kind, "error", err)
			writeError(ctx, w, err)
			return
		}

		writeSuccess(ctx, w, http.StatusOK, referencesToDTO(items, false))
	}
}

func (h *Handler) ListLeaguesByCountry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "ListLeaguesByCountry")
	defer span.End()

	countryID, err := h.pathID(ctx, r, "countryID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.references.LeaguesByCountry(ctx, countryID)
	if err != nil {
		h.logger.WarnContext(ctx, "list leagues by country failed", "country_id", countryID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, referencesToDTO(items, true))
}
