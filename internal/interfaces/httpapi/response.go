package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/fixture-insight/internal/domain/reference"
	"github.com/riskibarqy/fixture-insight/internal/platform/resilience"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

const (
	googleAPIVersion = "2.0"
	errorDomain      = "fixture-insight"
	internalErrorMsg = "internal server error"
)

type googleResponseEnvelope struct {
	APIVersion string           `json:"apiVersion"`
	Data       any              `json:"data,omitempty"`
	Error      *googleErrorBody `json:"error,omitempty"`
}

type googleErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Status  string            `json:"status"`
	Count   *int              `json:"count,omitempty"`
	Errors  []googleErrorItem `json:"errors,omitempty"`
}

type googleErrorItem struct {
	Domain  string `json:"domain"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type mappedError struct {
	HTTPStatus int
	Reason     string
	Status     string
}

// errorRules is checked in order; the first target matched by errors.Is wins.
// The open circuit sits ahead of ErrUpstream since it is wrapped in one.
var errorRules = []struct {
	targets []error
	mapped  mappedError
}{
	{[]error{resilience.ErrCircuitOpen}, mappedError{http.StatusServiceUnavailable, "upstreamCircuitOpen", "UNAVAILABLE"}},
	{[]error{usecase.ErrInvalidInput, reference.ErrUnknownKind}, mappedError{http.StatusBadRequest, "invalidInput", "INVALID_ARGUMENT"}},
	{[]error{usecase.ErrNotFound}, mappedError{http.StatusNotFound, "notFound", "NOT_FOUND"}},
	{[]error{usecase.ErrIncompleteData}, mappedError{http.StatusUnprocessableEntity, "incompleteData", "FAILED_PRECONDITION"}},
	{[]error{usecase.ErrValidation}, mappedError{http.StatusBadGateway, "upstreamValidation", "UNKNOWN"}},
	{[]error{usecase.ErrUpstream}, mappedError{http.StatusBadGateway, "upstreamFailure", "UNAVAILABLE"}},
	{[]error{usecase.ErrReconciliation}, mappedError{http.StatusInternalServerError, "reconciliationFailed", "ABORTED"}},
	{[]error{errUnauthorized}, mappedError{http.StatusUnauthorized, "unauthorized", "UNAUTHENTICATED"}},
	{[]error{errUnavailable}, mappedError{http.StatusServiceUnavailable, "dependencyUnavailable", "UNAVAILABLE"}},
}

var internalError = mappedError{http.StatusInternalServerError, "internalError", "INTERNAL"}

func mapError(err error) (mappedError, bool) {
	for _, rule := range errorRules {
		for _, target := range rule.targets {
			if errors.Is(err, target) {
				return rule.mapped, true
			}
		}
	}
	return internalError, false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeSuccess(_ context.Context, w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Data:       data,
	})
}

// writeError renders err in the error envelope. Unclassified errors are
// reported as a bare internal error so driver text never reaches clients.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	writeClassifiedError(ctx, w, err, nil)
}

// writeReconcileError renders a failed reconciliation with count 0; rows
// upserted before the failure are not reported as a success count.
func writeReconcileError(ctx context.Context, w http.ResponseWriter, err error) {
	zero := 0
	writeClassifiedError(ctx, w, err, &zero)
}

func writeClassifiedError(ctx context.Context, w http.ResponseWriter, err error, count *int) {
	mapped, known := mapError(err)
	message := internalErrorMsg
	if known {
		message = err.Error()
	}

	if mapped.HTTPStatus >= http.StatusInternalServerError {
		span := trace.SpanFromContext(ctx)
		span.RecordError(err)
		span.SetStatus(codes.Error, mapped.Reason)
	}

	writeErrorBody(w, mapped, message, count)
}

func writeInternalError(_ context.Context, w http.ResponseWriter) {
	writeErrorBody(w, internalError, internalErrorMsg, nil)
}

func writeErrorBody(w http.ResponseWriter, mapped mappedError, message string, count *int) {
	writeJSON(w, mapped.HTTPStatus, googleResponseEnvelope{
		APIVersion: googleAPIVersion,
		Error: &googleErrorBody{
			Code:    mapped.HTTPStatus,
			Message: message,
			Status:  mapped.Status,
			Count:   count,
			Errors: []googleErrorItem{{
				Domain:  errorDomain,
				Reason:  mapped.Reason,
				Message: message,
			}},
		},
	})
}
