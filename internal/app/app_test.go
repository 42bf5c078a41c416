package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/config"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:             config.EnvDev,
		ServiceName:        "fixture-insight-api",
		HTTPAddr:           ":0",
		ReadTimeout:        time.Second,
		WriteTimeout:       time.Second,
		CORSAllowedOrigins: []string{"*"},
		SportMonksBaseURL:  "http://127.0.0.1:1",
		SportMonksToken:    "token",
		SportMonksTimeout:  time.Second,
		OpenAIAPIKey:       "sk-test",
		OpenAIAssistantID:  "asst_1",
		OpenAIModel:        "gpt-4",
		OpenAIMaxTokens:    100,
		ReconcileSchedule:  "0 0 0 * * *",
		ReconcileWindow:    24 * time.Hour,
		ReconcileWorkers:   2,
		ReconcileTimeout:   time.Minute,
		StatsCacheTTL:      time.Minute,
	}
}

func TestNew_InMemoryServesHealthz(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer func() { _ = a.Close() }()

	server, err := a.NewHTTPServer()
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fixture", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected empty fixture list, got status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestNewScheduler_DisabledReturnsNil(t *testing.T) {
	t.Parallel()

	a, err := New(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	scheduler, err := a.NewScheduler()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	if scheduler != nil {
		t.Fatalf("expected nil scheduler when reconciliation is disabled")
	}
}

func TestNewScheduler_Enabled(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.ReconcileEnabled = true
	a, err := New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	scheduler, err := a.NewScheduler()
	if err != nil || scheduler == nil {
		t.Fatalf("expected scheduler, got=%v err=%v", scheduler, err)
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	t.Parallel()

	cfg := memoryConfig()
	cfg.HTTPAddr = ""
	a, err := New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if _, err := a.NewHTTPServer(); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
