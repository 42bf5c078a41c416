package usecase

import (
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput   = crerr.New("invalid input")
	ErrNotFound       = crerr.New("resource not found")
	ErrIncompleteData = crerr.New("incomplete data")
	ErrValidation     = crerr.New("upstream payload failed validation")
	ErrUpstream       = crerr.New("upstream request failed")
	ErrReconciliation = crerr.New("fixture reconciliation failed")
)

// UpstreamError reports a failed call to an external API.
type UpstreamError struct {
	Operation string
	Cause     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Operation, e.Cause)
}

func (e *UpstreamError) Unwrap() error { return e.Cause }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func NewUpstreamError(operation string, cause error) error {
	return &UpstreamError{Operation: operation, Cause: cause}
}

// ValidationError means the upstream answered with an unexpected shape.
type ValidationError struct {
	Operation string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %s", e.Operation, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FixtureFailure is one fixture that could not be stored during a run.
type FixtureFailure struct {
	FixtureID int64
	Err       error
}

// ReconciliationError aggregates per-fixture failures of one run.
type ReconciliationError struct {
	Attempted int
	Failures  []FixtureFailure
}

func (e *ReconciliationError) Error() string {
	parts := make([]string, 0, min(len(e.Failures), 3))
	for i, failure := range e.Failures {
		if i == 3 {
			break
		}
		parts = append(parts, fmt.Sprintf("fixture %d: %v", failure.FixtureID, failure.Err))
	}
	msg := fmt.Sprintf("reconcile fixtures: %d of %d upserts failed", len(e.Failures), e.Attempted)
	if len(parts) > 0 {
		msg += " (" + strings.Join(parts, "; ")
		if len(e.Failures) > len(parts) {
			msg += "; ..."
		}
		msg += ")"
	}
	return msg
}

func (e *ReconciliationError) Is(target error) bool { return target == ErrReconciliation }

func (e *ReconciliationError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, failure := range e.Failures {
		out = append(out, failure.Err)
	}
	return out
}

// SynthesisError names the fixture and stage where synthesis stopped.
type SynthesisError struct {
	FixtureID int64
	Stage     string
	Err       error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesize payload fixture_id=%d stage=%s: %v", e.FixtureID, e.Stage, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
