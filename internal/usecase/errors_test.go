package usecase

import (
	"errors"
	"strings"
	"testing"

	crerr "github.com/cockroachdb/errors"
)

func TestUpstreamError_MatchesSentinelAndCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	err := crerr.Wrap(NewUpstreamError("fetch_team_statistics", cause), "load stats")

	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream match")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause match")
	}
	var upstream *UpstreamError
	if !errors.As(err, &upstream) || upstream.Operation != "fetch_team_statistics" {
		t.Fatalf("expected UpstreamError with operation, got=%v", err)
	}
}

func TestReconciliationError_ExposesEveryFailure(t *testing.T) {
	t.Parallel()

	storeDown := errors.New("store down")
	err := error(&ReconciliationError{
		Attempted: 5,
		Failures: []FixtureFailure{
			{FixtureID: 1, Err: storeDown},
			{FixtureID: 2, Err: errors.New("deadlock")},
			{FixtureID: 3, Err: errors.New("timeout")},
			{FixtureID: 4, Err: errors.New("timeout")},
		},
	})

	if !errors.Is(err, ErrReconciliation) || !errors.Is(err, storeDown) {
		t.Fatalf("expected sentinel and cause match, got=%v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "4 of 5 upserts failed") || !strings.HasSuffix(msg, "; ...)") {
		t.Fatalf("unexpected message: %s", msg)
	}
}

func TestSynthesisError_NamesStage(t *testing.T) {
	t.Parallel()

	err := error(&SynthesisError{FixtureID: 42, Stage: "load_fixture", Err: ErrNotFound})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound match")
	}
	if !strings.Contains(err.Error(), "fixture_id=42 stage=load_fixture") {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
