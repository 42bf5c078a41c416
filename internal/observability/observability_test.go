package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/config"
	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

func TestStart_AllDisabled(t *testing.T) {
	t.Parallel()

	p, err := Start(config.Config{ServiceName: "fixture-insight-api", AppEnv: config.EnvDev}, logging.NewNop())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(p.stoppers) != 0 {
		t.Fatalf("expected no providers, got=%d", len(p.stoppers))
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestStart_UptraceEnabledWithoutDSNIsNoop(t *testing.T) {
	t.Parallel()

	p, err := Start(config.Config{UptraceEnabled: true}, logging.NewNop())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(p.stoppers) != 0 {
		t.Fatalf("expected uptrace to stay off without DSN")
	}
}

func TestStart_PprofStopsOnShutdown(t *testing.T) {
	t.Parallel()

	p, err := Start(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(p.stoppers) != 1 || p.stoppers[0].name != "pprof" {
		t.Fatalf("expected pprof provider, got=%+v", p.stoppers)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestShutdown_NilProviders(t *testing.T) {
	t.Parallel()

	var p *Providers
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("expected nil error, got=%v", err)
	}
}

func TestPyroscopeConfig_Tags(t *testing.T) {
	t.Parallel()

	got := pyroscopeConfig(config.Config{
		AppEnv:           config.EnvProd,
		ServiceName:      "fixture-insight-api",
		ServiceVersion:   "1.4.0",
		PyroscopeAppName: "fixture-insight",
	})
	if got.ApplicationName != "fixture-insight" {
		t.Fatalf("unexpected application name: %q", got.ApplicationName)
	}
	if got.Tags["env"] != config.EnvProd || got.Tags["version"] != "1.4.0" {
		t.Fatalf("unexpected tags: %v", got.Tags)
	}
	if len(got.ProfileTypes) != len(profileTypes) {
		t.Fatalf("expected every profile type")
	}
}

func TestPprofHandler_ServesIndex(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	pprofHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got=%d", rec.Code)
	}
}
