package httpapi

import (
	"net/http"

	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
)

var referenceRoutes = []struct {
	path string
	kind reference.Kind
}{
	{path: "/continents", kind: reference.KindContinent},
	{path: "/countries", kind: reference.KindCountry},
	{path: "/leagues", kind: reference.KindLeague},
	{path: "/teams", kind: reference.KindTeam},
	{path: "/players", kind: reference.KindPlayer},
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerFixtureRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /fixture", handler.ListFixtures)
	mux.HandleFunc("POST /fixture", handler.ReconcileFixtures)
	mux.HandleFunc("GET /fixture/{fixtureID}", handler.GetFixture)
	mux.HandleFunc("GET /fixtures/league/{leagueID}", handler.FetchLeagueFixtures)
}

func registerPayloadRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /payload/{fixtureID}", handler.SynthesizePayload)
	mux.HandleFunc("POST /payload/{fixtureID}", handler.SynthesizePayload)
	mux.HandleFunc("GET /payload/{fixtureID}/analysis", handler.AnalyzeFixture)
	mux.HandleFunc("POST /payload/{fixtureID}/analysis", handler.AnalyzeFixture)
	mux.HandleFunc("POST /analyze-match", handler.AnalyzeMatch)
}

func registerReferenceRoutes(mux *http.ServeMux, handler *Handler) {
	for _, route := range referenceRoutes {
		mux.HandleFunc("POST "+route.path, handler.SyncReference(route.kind))
		mux.HandleFunc("GET "+route.path, handler.ListReference(route.kind))
	}
	mux.HandleFunc("GET /leagues/country/{countryID}", handler.ListLeaguesByCountry)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /internal/jobs/reconcile", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunReconcileJob)))
}
