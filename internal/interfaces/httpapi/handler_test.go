package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-insight/internal/domain/fixture"
	"github.com/riskibarqy/fixture-insight/internal/domain/payload"
	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

type fakeFixtures struct {
	items     []fixture.Fixture
	err       error
	lastLimit int
}

func (f *fakeFixtures) List(_ context.Context, limit int) ([]fixture.Fixture, error) {
	f.lastLimit = limit
	return f.items, f.err
}

func (f *fakeFixtures) ListByLeague(_ context.Context, leagueID int64) ([]fixture.Fixture, error) {
	out := make([]fixture.Fixture, 0, len(f.items))
	for _, item := range f.items {
		if item.LeagueID == leagueID {
			out = append(out, item)
		}
	}
	return out, f.err
}

func (f *fakeFixtures) Get(_ context.Context, id int64) (fixture.Fixture, error) {
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return fixture.Fixture{}, fmt.Errorf("%w: fixture id=%d", usecase.ErrNotFound, id)
}

type fakeReconciler struct {
	result     usecase.ReconcileResult
	err        error
	leagueSeen int64
	runs       int
}

func (f *fakeReconciler) ReconcileFixtures(context.Context) (usecase.ReconcileResult, error) {
	f.runs++
	return f.result, f.err
}

func (f *fakeReconciler) ReconcileLeague(_ context.Context, leagueID int64) (usecase.ReconcileResult, error) {
	f.leagueSeen = leagueID
	return f.result, f.err
}

type fakeSynthesizer struct {
	out payload.Payload
	err error
}

func (f *fakeSynthesizer) SynthesizePayload(context.Context, int64) (payload.Payload, error) {
	return f.out, f.err
}

type fakeAnalysis struct {
	mu        sync.Mutex
	fragments []string
	inputs    [][]byte
}

func (f *fakeAnalysis) StreamAnalysis(ctx context.Context, out chan<- string, input []byte) error {
	defer close(out)
	f.mu.Lock()
	f.inputs = append(f.inputs, append([]byte(nil), input...))
	f.mu.Unlock()
	for _, fragment := range f.fragments {
		select {
		case out <- fragment:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeAnalysis) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type fakeReferences struct {
	synced    []reference.Kind
	items     []reference.Entity
	countryID int64
}

func (f *fakeReferences) Sync(_ context.Context, kind reference.Kind) (int, error) {
	f.synced = append(f.synced, kind)
	return 7, nil
}

func (f *fakeReferences) List(_ context.Context, kind reference.Kind) ([]reference.Entity, error) {
	out := make([]reference.Entity, 0, len(f.items))
	for _, item := range f.items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeReferences) LeaguesByCountry(_ context.Context, countryID int64) ([]reference.Entity, error) {
	f.countryID = countryID
	return f.items, nil
}

type testServer struct {
	fixtures   *fakeFixtures
	reconciler *fakeReconciler
	synth      *fakeSynthesizer
	analysis   *fakeAnalysis
	references *fakeReferences
	router     http.Handler
}

func newTestServer(jobToken string) *testServer {
	ts := &testServer{
		fixtures:   &fakeFixtures{},
		reconciler: &fakeReconciler{},
		synth:      &fakeSynthesizer{},
		analysis:   &fakeAnalysis{},
		references: &fakeReferences{},
	}
	handler := NewHandler(HandlerDeps{
		Fixtures:    ts.fixtures,
		Reconciler:  ts.reconciler,
		Synthesizer: ts.synth,
		Analysis:    ts.analysis,
		References:  ts.references,
		Logger:      logging.NewNop(),
	})
	ts.router = NewRouter(handler, logging.NewNop(), RouterConfig{InternalJobToken: jobToken})
	return ts
}

func (ts *testServer) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v body=%s", err, rec.Body.String())
	}
	return body
}

func TestListFixtures_ReturnsEnvelopeWithoutRawData(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	kickoff := time.Date(2026, 10, 20, 19, 45, 0, 0, time.UTC)
	ts.fixtures.items = []fixture.Fixture{{ID: 501, LeagueID: 8, Status: fixture.StatusScheduled, MatchDate: &kickoff, Data: json.RawMessage(`{"id":501}`)}}

	rec := ts.do(http.MethodGet, "/fixture?limit=25", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got=%d body=%s", rec.Code, rec.Body.String())
	}
	if ts.fixtures.lastLimit != 25 {
		t.Fatalf("expected limit=25, got=%d", ts.fixtures.lastLimit)
	}

	items, ok := decodeEnvelope(t, rec)["data"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected one fixture, got=%v", items)
	}
	first := items[0].(map[string]any)
	if first["id"].(float64) != 501 {
		t.Fatalf("expected fixture id 501, got=%v", first["id"])
	}
	if _, ok := first["data"]; ok {
		t.Fatalf("did not expect raw data in list response")
	}
}

func TestListFixtures_RejectsBadLimit(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	rec := ts.do(http.MethodGet, "/fixture?limit=ten", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got=%d", rec.Code)
	}
}

func TestListFixtures_FiltersByStoredLeague(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	ts.fixtures.items = []fixture.Fixture{{ID: 1, LeagueID: 8}, {ID: 2, LeagueID: 271}, {ID: 3, LeagueID: 8}}

	rec := ts.do(http.MethodGet, "/fixture?league_id=8", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got=%d body=%s", rec.Code, rec.Body.String())
	}
	items, ok := decodeEnvelope(t, rec)["data"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("expected two league 8 fixtures, got=%v", items)
	}
	if ts.fixtures.lastLimit != 0 {
		t.Fatalf("expected limit listing to be skipped, got limit=%d", ts.fixtures.lastLimit)
	}
}

func TestListFixtures_RejectsBadLeagueID(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	for _, raw := range []string{"eight", "0", "-4"} {
		rec := ts.do(http.MethodGet, "/fixture?league_id="+raw, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400 for league_id=%q, got=%d", raw, rec.Code)
		}
	}
}

func TestGetFixture_NotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	rec := ts.do(http.MethodGet, "/fixture/404", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got=%d", rec.Code)
	}
}

func TestFetchLeagueFixtures_PassesLeagueID(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	ts.reconciler.result = usecase.ReconcileResult{Count: 1, Fixtures: []fixture.Fixture{{ID: 9}}}

	rec := ts.do(http.MethodGet, "/fixtures/league/271", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got=%d body=%s", rec.Code, rec.Body.String())
	}
	if ts.reconciler.leagueSeen != 271 {
		t.Fatalf("expected league 271, got=%d", ts.reconciler.leagueSeen)
	}
	data := decodeEnvelope(t, rec)["data"].(map[string]any)
	if data["count"].(float64) != 1 {
		t.Fatalf("expected count=1, got=%v", data["count"])
	}
}

func TestReconcileFixtures_PartialFailureIs500(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	ts.reconciler.err = &usecase.ReconciliationError{Attempted: 3, Failures: []usecase.FixtureFailure{{FixtureID: 2, Err: fmt.Errorf("db down")}}}

	rec := ts.do(http.MethodPost, "/fixture", "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got=%d", rec.Code)
	}
	errBody, ok := decodeEnvelope(t, rec)["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error envelope, got=%s", rec.Body.String())
	}
	if count, ok := errBody["count"].(float64); !ok || count != 0 {
		t.Fatalf("expected count=0 in error body, got=%v", errBody["count"])
	}
	if msg, _ := errBody["message"].(string); msg == "" {
		t.Fatalf("expected error message, got=%v", errBody["message"])
	}
}

func TestFetchLeagueFixtures_UpstreamFailureReportsZeroCount(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	ts.reconciler.result = usecase.ReconcileResult{Count: 2}
	ts.reconciler.err = usecase.NewUpstreamError("fixtures by league", fmt.Errorf("connection reset"))

	rec := ts.do(http.MethodGet, "/fixtures/league/271", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got=%d body=%s", rec.Code, rec.Body.String())
	}
	errBody := decodeEnvelope(t, rec)["error"].(map[string]any)
	if count, ok := errBody["count"].(float64); !ok || count != 0 {
		t.Fatalf("expected count=0 in error body, got=%v", errBody["count"])
	}
}

func TestSynthesizePayload(t *testing.T) {
	t.Parallel()

	t.Run("invalid id", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer("")
		for _, target := range []string{"/payload/abc", "/payload/0", "/payload/-4"} {
			if rec := ts.do(http.MethodGet, target, "", nil); rec.Code != http.StatusBadRequest {
				t.Fatalf("%s: expected status 400, got=%d", target, rec.Code)
			}
		}
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer("")
		ts.synth.out = payload.Payload{MatchInfo: payload.MatchInfo{Team1: "Team A", Team2: "Team B"}}

		rec := ts.do(http.MethodPost, "/payload/501", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got=%d body=%s", rec.Code, rec.Body.String())
		}
		info := decodeEnvelope(t, rec)["data"].(map[string]any)["match_info"].(map[string]any)
		if info["team1"] != "Team A" {
			t.Fatalf("expected team1=Team A, got=%v", info["team1"])
		}
	})

	t.Run("incomplete data", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer("")
		ts.synth.err = &usecase.SynthesisError{FixtureID: 501, Stage: "participants", Err: usecase.ErrIncompleteData}

		if rec := ts.do(http.MethodGet, "/payload/501", "", nil); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected status 422, got=%d", rec.Code)
		}
	})
}

func TestAnalyzeMatch_StreamsFrames(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	ts.analysis.fragments = []string{"Hello ", "<b>world</b>. "}

	rec := ts.do(http.MethodPost, "/analyze-match", `{"match_info":{"team1":"A"}}`, map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got=%d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected text/event-stream, got=%q", got)
	}
	if want := "data: Hello \ndata: <b>world</b>. \n"; rec.Body.String() != want {
		t.Fatalf("expected body=%q, got=%q", want, rec.Body.String())
	}
	if !rec.Flushed {
		t.Fatalf("expected response to be flushed")
	}
	if got := string(ts.analysis.inputs[0]); got != `{"match_info":{"team1":"A"}}` {
		t.Fatalf("expected input forwarded verbatim, got=%s", got)
	}
}

func TestAnalyzeMatch_RejectsNonObjectBodies(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	for _, body := range []string{"", "[1,2]", `"text"`, "{broken", "null"} {
		rec := ts.do(http.MethodPost, "/analyze-match", body, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected status 400, got=%d", body, rec.Code)
		}
	}
	if calls := ts.analysis.calls(); calls != 0 {
		t.Fatalf("expected stream never opened, got=%d calls", calls)
	}
}

func TestAnalyzeFixture_StreamsSynthesizedPayload(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	ts.synth.out = payload.Payload{MatchInfo: payload.MatchInfo{Team1: "Team A"}}
	ts.analysis.fragments = []string{"Done."}

	rec := ts.do(http.MethodGet, "/payload/501/analysis", "", nil)
	if rec.Body.String() != "data: Done.\n" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}

	var forwarded payload.Payload
	if err := sonic.Unmarshal(ts.analysis.inputs[0], &forwarded); err != nil {
		t.Fatalf("expected JSON payload input: %v", err)
	}
	if forwarded.MatchInfo.Team1 != "Team A" {
		t.Fatalf("expected synthesized payload forwarded, got=%+v", forwarded.MatchInfo)
	}
}

func TestInternalReconcileJob_Token(t *testing.T) {
	t.Parallel()

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer("")
		if rec := ts.do(http.MethodPost, "/internal/jobs/reconcile", "", nil); rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status 503, got=%d", rec.Code)
		}
	})

	t.Run("wrong token", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer("secret")
		rec := ts.do(http.MethodPost, "/internal/jobs/reconcile", "", map[string]string{"X-Internal-Job-Token": "nope"})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got=%d", rec.Code)
		}
		if ts.reconciler.runs != 0 {
			t.Fatalf("expected no reconcile run, got=%d", ts.reconciler.runs)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()
		ts := newTestServer("secret")
		ts.reconciler.result = usecase.ReconcileResult{Count: 4}
		rec := ts.do(http.MethodPost, "/internal/jobs/reconcile", "", map[string]string{"X-Internal-Job-Token": "secret"})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got=%d", rec.Code)
		}
		data := decodeEnvelope(t, rec)["data"].(map[string]any)
		if data["count"].(float64) != 4 || data["job"] != "reconcile" {
			t.Fatalf("unexpected job result %v", data)
		}
	})
}

func TestReferenceRoutes(t *testing.T) {
	t.Parallel()

	ts := newTestServer("")
	ts.references.items = []reference.Entity{
		{Kind: reference.KindLeague, ID: 8, Name: "Premier League", ParentID: 462, Data: json.RawMessage(`{"id":8}`)},
		{Kind: reference.KindTeam, ID: 1, Name: "Team A"},
	}

	rec := ts.do(http.MethodPost, "/countries", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got=%d", rec.Code)
	}
	if len(ts.references.synced) != 1 || ts.references.synced[0] != reference.KindCountry {
		t.Fatalf("expected country sync, got=%v", ts.references.synced)
	}

	rec = ts.do(http.MethodGet, "/leagues", "", nil)
	items := decodeEnvelope(t, rec)["data"].([]any)
	if len(items) != 1 || items[0].(map[string]any)["name"] != "Premier League" {
		t.Fatalf("expected leagues only, got=%v", items)
	}

	rec = ts.do(http.MethodGet, "/leagues/country/462", "", nil)
	if rec.Code != http.StatusOK || ts.references.countryID != 462 {
		t.Fatalf("expected country passthrough, got status=%d country=%d", rec.Code, ts.references.countryID)
	}
}

func TestRecoverPanic_WritesInternalError(t *testing.T) {
	t.Parallel()

	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fixture", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got=%d", rec.Code)
	}
}
