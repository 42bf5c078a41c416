package usecase

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
	"github.com/riskibarqy/fixture-insight/internal/platform/textstream"
)

// AnalysisFailedFragment is the single fragment sent when the model call fails.
const AnalysisFailedFragment = "Analysis is unavailable right now. Please try again later."

type AnalysisService struct {
	assistant AssistantProvider
	logger    *logging.Logger
}

func NewAnalysisService(assistant AssistantProvider, logger *logging.Logger) *AnalysisService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AnalysisService{assistant: assistant, logger: logger}
}

// StreamAnalysis sends formatted fragments of the model's analysis of
// input to out, in upstream order, and always closes out. Instructions
// are fetched on every call. A provider failure sends one diagnostic
// fragment. Cancelling ctx stops the stream without a diagnostic.
func (s *AnalysisService) StreamAnalysis(ctx context.Context, out chan<- string, input []byte) error {
	defer close(out)

	ctx, span := startUsecaseSpan(ctx, "AnalysisService", "StreamAnalysis")
	defer span.End()

	streamID := uuid.NewString()
	logger := s.logger.With("stream_id", streamID)
	span.SetAttributes(attribute.String("analysis.stream_id", streamID))

	instructions, err := s.assistant.FetchInstructions(ctx)
	if err != nil {
		return s.fail(ctx, logger, out, "fetch_instructions", err)
	}

	stream, err := s.assistant.StreamCompletion(ctx, instructions, string(input))
	if err != nil {
		return s.fail(ctx, logger, out, "open_stream", err)
	}
	defer stream.Close()

	acc := textstream.NewAccumulator()
	defer acc.Release()

	fragments := 0
	for {
		token, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return s.fail(ctx, logger, out, "receive", err)
		}
		if fragment, ok := acc.Push(token); ok {
			if !send(ctx, out, fragment) {
				logger.InfoContext(ctx, "analysis stream abandoned by client", "fragments", fragments)
				return ctx.Err()
			}
			fragments++
		}
	}

	if fragment, ok := acc.Flush(); ok {
		if !send(ctx, out, fragment) {
			return ctx.Err()
		}
		fragments++
	}

	span.SetAttributes(attribute.Int("analysis.fragments", fragments))
	logger.InfoContext(ctx, "analysis stream completed", "fragments", fragments)
	return nil
}

func (s *AnalysisService) fail(ctx context.Context, logger *logging.Logger, out chan<- string, stage string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger.WarnContext(ctx, "analysis stream failed", "stage", stage, "error", err)
	send(ctx, out, AnalysisFailedFragment)

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return err
	}
	return NewUpstreamError("analysis_"+stage, err)
}

func send(ctx context.Context, out chan<- string, fragment string) bool {
	select {
	case out <- fragment:
		return true
	case <-ctx.Done():
		return false
	}
}
