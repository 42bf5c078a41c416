package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

const maxAnalysisBodyBytes = 1 << 20

func (h *Handler) SynthesizePayload(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "SynthesizePayload")
	defer span.End()

	fixtureID, err := h.pathID(ctx, r, "fixtureID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out, err := h.synthesizer.SynthesizePayload(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "synthesize payload failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, out)
}

// AnalyzeMatch streams the model's analysis of the request body, which
// must be a JSON object.
func (h *Handler) AnalyzeMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "AnalyzeMatch")
	defer span.End()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxAnalysisBodyBytes+1))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if len(body) > maxAnalysisBodyBytes {
		writeError(ctx, w, fmt.Errorf("%w: payload exceeds %d bytes", usecase.ErrInvalidInput, maxAnalysisBodyBytes))
		return
	}
	if !isJSONObject(body) {
		writeError(ctx, w, fmt.Errorf("%w: invalid payload, expected a JSON object", usecase.ErrInvalidInput))
		return
	}

	h.streamAnalysis(ctx, w, bytes.TrimSpace(body))
}

// AnalyzeFixture synthesizes the fixture's payload and streams its analysis.
func (h *Handler) AnalyzeFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "AnalyzeFixture")
	defer span.End()

	fixtureID, err := h.pathID(ctx, r, "fixtureID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out, err := h.synthesizer.SynthesizePayload(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "synthesize payload for analysis failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	input, err := sonic.Marshal(out)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("encode payload fixture_id=%d: %w", fixtureID, err))
		return
	}

	h.streamAnalysis(ctx, w, input)
}

// streamAnalysis writes every fragment as one "data: <fragment>\n" frame
// and flushes it. Frames carry no blank-line terminator.
func (h *Handler) streamAnalysis(ctx context.Context, w http.ResponseWriter, input []byte) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	// The server write timeout would cut long completions short.
	_ = rc.SetWriteDeadline(time.Time{})
	_ = rc.Flush()

	fragments := make(chan string)
	done := make(chan error, 1)
	go func() {
		done <- h.analysis.StreamAnalysis(ctx, fragments, input)
	}()

	written := 0
	for fragment := range fragments {
		if ctx.Err() != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n", fragment); err != nil {
			h.logger.InfoContext(ctx, "analysis client went away", "fragments", written, "error", err)
			cancel()
			continue
		}
		if err := rc.Flush(); err != nil {
			cancel()
			continue
		}
		written++
	}

	if err := <-done; err != nil && ctx.Err() == nil {
		h.logger.WarnContext(ctx, "analysis stream ended with error", "fragments", written, "error", err)
	}
}

func isJSONObject(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) < 2 || trimmed[0] != '{' {
		return false
	}
	var probe map[string]any
	return sonic.Unmarshal(trimmed, &probe) == nil
}
