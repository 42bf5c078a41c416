package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

type FixtureReader interface {
	List(ctx context.Context, limit int) ([]fixture.Fixture, error)
	ListByLeague(ctx context.Context, leagueID int64) ([]fixture.Fixture, error)
	Get(ctx context.Context, id int64) (fixture.Fixture, error)
}

type FixtureReconciler interface {
	ReconcileFixtures(ctx context.Context) (usecase.ReconcileResult, error)
	ReconcileLeague(ctx context.Context, leagueID int64) (usecase.ReconcileResult, error)
}

type PayloadSynthesizer interface {
	SynthesizePayload(ctx context.Context, fixtureID int64) (payload.Payload, error)
}

type AnalysisStreamer interface {
	StreamAnalysis(ctx context.Context, out chan<- string, input []byte) error
}

type ReferenceCatalog interface {
	Sync(ctx context.Context, kind reference.Kind) (int, error)
	List(ctx context.Context, kind reference.Kind) ([]reference.Entity, error)
	LeaguesByCountry(ctx context.Context, countryID int64) ([]reference.Entity, error)
}

type Handler struct {
	fixtures    FixtureReader
	reconciler  FixtureReconciler
	synthesizer PayloadSynthesizer
	analysis    AnalysisStreamer
	references  ReferenceCatalog
	logger      *logging.Logger
	validator   *validator.Validate
}

type HandlerDeps struct {
	Fixtures    FixtureReader
	Reconciler  FixtureReconciler
	Synthesizer PayloadSynthesizer
	Analysis    AnalysisStreamer
	References  ReferenceCatalog
	Logger      *logging.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		fixtures:    deps.Fixtures,
		reconciler:  deps.Reconciler,
		synthesizer: deps.Synthesizer,
		analysis:    deps.Analysis,
		references:  deps.References,
		logger:      logger.Named("httpapi"),
		validator:   validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID reads a positive integer path value.
func (h *Handler) pathID(ctx context.Context, r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	if err := h.validator.VarCtx(ctx, raw, "required,number,max=19"); err != nil {
		return 0, fmt.Errorf("%w: %s must be a positive integer", usecase.ErrInvalidInput, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", usecase.ErrInvalidInput, name)
	}
	return id, nil
}

// queryLeagueID returns 0 when league_id is absent.
func (h *Handler) queryLeagueID(ctx context.Context, r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("league_id"))
	if raw == "" {
		return 0, nil
	}
	if err := h.validator.VarCtx(ctx, raw, "number,max=19"); err != nil {
		return 0, fmt.Errorf("%w: league_id must be a positive integer", usecase.ErrInvalidInput)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: league_id must be a positive integer", usecase.ErrInvalidInput)
	}
	return id, nil
}

func (h *Handler) queryLimit(ctx context.Context, r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	if err := h.validator.VarCtx(ctx, raw, "number,max=6"); err != nil {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", usecase.ErrInvalidInput)
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", usecase.ErrInvalidInput)
	}
	return limit, nil
}
