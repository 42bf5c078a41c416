package openai

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

const (
	defaultModel               = "gpt-4"
	defaultMaxTokens           = 1500
	defaultTemperature         = 0.7
	defaultInstructionsTimeout = 10 * time.Second
	defaultStreamTimeout       = 2 * time.Minute
	fallbackInstructions       = "You are an expert football analyst."
)

type ClientConfig struct {
	HTTPClient          *http.Client
	APIKey              string
	AssistantID         string
	BaseURL             string
	Model               string
	MaxTokens           int
	Temperature         float32
	InstructionsTimeout time.Duration
	StreamTimeout       time.Duration
	Logger              *logging.Logger
}

// Client reads the configured assistant's instructions and streams chat
// completions with them as the system prompt.
type Client struct {
	api                 *goopenai.Client
	assistantID         string
	model               string
	maxTokens           int
	temperature         float32
	instructionsTimeout time.Duration
	streamTimeout       time.Duration
	logger              *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	apiCfg := goopenai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		apiCfg.BaseURL = baseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	apiCfg.HTTPClient = httpClient

	out := &Client{
		api:                 goopenai.NewClientWithConfig(apiCfg),
		assistantID:         strings.TrimSpace(cfg.AssistantID),
		model:               strings.TrimSpace(cfg.Model),
		maxTokens:           cfg.MaxTokens,
		temperature:         cfg.Temperature,
		instructionsTimeout: cfg.InstructionsTimeout,
		streamTimeout:       cfg.StreamTimeout,
		logger:              logger.Named("openai"),
	}
	if out.model == "" {
		out.model = defaultModel
	}
	if out.maxTokens <= 0 {
		out.maxTokens = defaultMaxTokens
	}
	if out.temperature <= 0 {
		out.temperature = defaultTemperature
	}
	if out.instructionsTimeout <= 0 {
		out.instructionsTimeout = defaultInstructionsTimeout
	}
	if out.streamTimeout <= 0 {
		out.streamTimeout = defaultStreamTimeout
	}
	return out
}

// FetchInstructions reads the assistant's current instructions. An
// assistant without instructions gets a generic analyst prompt.
func (c *Client) FetchInstructions(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.instructionsTimeout)
	defer cancel()

	assistant, err := c.api.RetrieveAssistant(ctx, c.assistantID)
	if err != nil {
		return "", usecase.NewUpstreamError("fetch_instructions", describe(err))
	}
	if assistant.Instructions == nil || strings.TrimSpace(*assistant.Instructions) == "" {
		c.logger.WarnContext(ctx, "assistant has no instructions, using fallback prompt", "assistant_id", c.assistantID)
		return fallbackInstructions, nil
	}
	return *assistant.Instructions, nil
}

// StreamCompletion opens a streaming chat completion. The returned
// stream must be closed.
func (c *Client) StreamCompletion(ctx context.Context, systemPrompt, userMessage string) (usecase.CompletionStream, error) {
	ctx, cancel := context.WithTimeout(ctx, c.streamTimeout)

	stream, err := c.api.CreateChatCompletionStream(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      true,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: userMessage},
		},
	})
	if err != nil {
		cancel()
		return nil, usecase.NewUpstreamError("open_completion_stream", describe(err))
	}
	return &completionStream{stream: stream, cancel: cancel}, nil
}

type completionStream struct {
	stream *goopenai.ChatCompletionStream
	cancel context.CancelFunc
}

func (s *completionStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if stderrors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", usecase.NewUpstreamError("receive_completion", describe(err))
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *completionStream) Close() error {
	defer s.cancel()
	s.stream.Close()
	return nil
}

// describe keeps the provider's status and message without the request body.
func describe(err error) error {
	var apiErr *goopenai.APIError
	if stderrors.As(err, &apiErr) {
		return fmt.Errorf("openai status=%d type=%s: %s", apiErr.HTTPStatusCode, apiErr.Type, apiErr.Message)
	}
	var reqErr *goopenai.RequestError
	if stderrors.As(err, &reqErr) {
		return fmt.Errorf("openai status=%d: %w", reqErr.HTTPStatusCode, reqErr.Err)
	}
	return err
}
