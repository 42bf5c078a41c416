package sportmonks

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
	"github.com/riskibarqy/fixture-insight/internal/platform/resilience"
	"github.com/riskibarqy/fixture-insight/internal/usecase"
)

const (
	defaultBaseURL  = "https://api.sportmonks.com/v3"
	defaultPerPage  = 50
	maxPages        = 40
	maxResponseSize = 6 << 20
)

var (
	apiTokenParamRegex = regexp.MustCompile(`api_token=[^&\s"']+`)
	errTransient       = crerr.New("sportmonks transient failure")
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider status=%d body=%s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == errTransient && isRetryableStatus(e.Code)
}

type ClientConfig struct {
	HTTPClient        *http.Client
	BaseURL           string
	Token             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *logging.Logger
	CircuitBreaker    resilience.CircuitBreakerConfig
}

// Client talks to the SportMonks v3 API. Calls are rate limited,
// deduplicated while in flight and guarded by a circuit breaker. They
// are never retried.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	limiter    *rate.Limiter
	flight     singleflight.Group
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = max(1, int(cfg.RequestsPerSecond))
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		logger:     logger.Named("sportmonks"),
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker.Normalize()),
		limiter:    rate.NewLimiter(limit, burst),
	}
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		HasMore     bool `json:"has_more"`
		CurrentPage int  `json:"current_page"`
	} `json:"pagination"`
}

// fetchList walks every page of a list endpoint and splits each page's
// data array into records, keeping every element's bytes as received.
func (c *Client) fetchList(ctx context.Context, operation, path string, query url.Values) ([]usecase.ExternalRecord, error) {
	out := make([]usecase.ExternalRecord, 0, defaultPerPage)
	for page := 1; page <= maxPages; page++ {
		pageQuery := cloneValues(query)
		pageQuery.Set("per_page", strconv.Itoa(defaultPerPage))
		if page > 1 {
			pageQuery.Set("page", strconv.Itoa(page))
		}

		env, err := c.fetchEnvelope(ctx, operation, path, pageQuery)
		if err != nil {
			return nil, err
		}
		records, err := splitRecords(operation, env.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)

		if env.Pagination == nil || !env.Pagination.HasMore {
			return out, nil
		}
	}
	c.logger.WarnContext(ctx, "sportmonks pagination truncated", "operation", operation, "path", path, "max_pages", maxPages)
	return out, nil
}

func (c *Client) fetchEnvelope(ctx context.Context, operation, path string, query url.Values) (envelope, error) {
	raw, err := c.fetch(ctx, operation, path, query)
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return envelope{}, usecase.NewUpstreamError(operation, fmt.Errorf("decode provider payload: %w", err))
	}
	return env, nil
}

func splitRecords(operation string, data json.RawMessage) ([]usecase.ExternalRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &usecase.ValidationError{Operation: operation, Reason: "response data is not an array"}
	}

	var items []json.RawMessage
	if err := sonic.Unmarshal(trimmed, &items); err != nil {
		return nil, usecase.NewUpstreamError(operation, fmt.Errorf("decode data array: %w", err))
	}

	out := make([]usecase.ExternalRecord, 0, len(items))
	for _, item := range items {
		var head struct {
			ID int64 `json:"id"`
		}
		_ = sonic.Unmarshal(item, &head)
		out = append(out, usecase.ExternalRecord{
			ID:   head.ID,
			Body: append(json.RawMessage(nil), item...),
		})
	}
	return out, nil
}

// fetch returns the body of a 2xx response. Every failure is an
// *usecase.UpstreamError naming operation.
func (c *Client) fetch(ctx context.Context, operation, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	// The shared request outlives any single caller; each caller stops
	// waiting on its own ctx.
	flight := c.flight.DoChan(fullURL, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.httpClient.Timeout)
		defer cancel()

		var raw []byte
		err := c.breaker.Execute(func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(shared, fullURL)
			return reqErr
		}, isCircuitFailure)
		return raw, err
	})

	var out any
	var err error
	select {
	case <-ctx.Done():
		return nil, usecase.NewUpstreamError(operation, ctx.Err())
	case res := <-flight:
		out, err = res.Val, res.Err
	}
	if err != nil {
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "sportmonks circuit breaker rejected request", "operation", operation, "state", c.breaker.State())
		} else {
			c.logger.WarnContext(ctx, "sportmonks request failed", "operation", operation, "url", redactAPIURL(fullURL), "error", err)
		}
		return nil, usecase.NewUpstreamError(operation, err)
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, usecase.NewUpstreamError(operation, fmt.Errorf("unexpected response payload type %T", out))
	}
	return raw, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: send request: %s", errTransient, sanitizeSensitiveText(err.Error(), c.token))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: abbreviateBody(sanitizeSensitiveText(string(raw), c.token))}
	}
	return raw, nil
}

func isNotFound(err error) bool {
	var statusErr *StatusError
	return stderrors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}

// isCircuitFailure counts transport errors, 429 and 5xx against the
// breaker. Client errors and cancellations do not.
func isCircuitFailure(err error) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, errTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return apiTokenParamRegex.ReplaceAllString(value, "api_token=REDACTED")
}

func redactAPIURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	if query.Has("api_token") {
		query.Set("api_token", "REDACTED")
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}

func abbreviateBody(text string) string {
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func cloneValues(in url.Values) url.Values {
	out := make(url.Values, len(in)+2)
	for key, values := range in {
		out[key] = append([]string(nil), values...)
	}
	return out
}
