package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fixture-insight/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                  string
	ServiceName             string
	ServiceVersion          string
	HTTPAddr                string
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	ShutdownTimeout         time.Duration
	DBURL                   string
	DBDisablePreparedBinary bool
	CORSAllowedOrigins      []string
	InternalJobToken        string
	LogLevel                logging.Level

	SportMonksBaseURL               string
	SportMonksToken                 string
	SportMonksTimeout               time.Duration
	SportMonksRequestsPerSecond     float64
	SportMonksCircuitEnabled        bool
	SportMonksCircuitFailureCount   int
	SportMonksCircuitOpenTimeout    time.Duration
	SportMonksCircuitHalfOpenMaxReq int

	OpenAIAPIKey              string
	OpenAIAssistantID         string
	OpenAIBaseURL             string
	OpenAIModel               string
	OpenAIMaxTokens           int
	OpenAITemperature         float32
	OpenAIInstructionsTimeout time.Duration
	OpenAIStreamTimeout       time.Duration

	ReconcileEnabled  bool
	ReconcileSchedule string
	ReconcileWindow   time.Duration
	ReconcileWorkers  int
	ReconcileTimeout  time.Duration

	StatsCacheTTL time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	PprofEnabled               bool
	PprofAddr                  string
}

// Load reads the environment once. A missing provider credential is an error.
func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("SERVICE_NAME", "fixture-insight-api"),
		ServiceVersion:     getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DBURL:              strings.TrimSpace(getEnv("DB_URL", "")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		LogLevel:           logging.ParseLevel(getEnv("LOG_LEVEL", "info")),

		SportMonksBaseURL: strings.TrimSpace(getEnv("SPORTMONKS_BASE_URL", "https://api.sportmonks.com/v3")),
		SportMonksToken:   strings.TrimSpace(getEnv("SPORTMONKS_TOKEN", "")),

		OpenAIAPIKey:      strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIAssistantID: strings.TrimSpace(getEnv("OPENAI_ASSISTANT_ID", getEnv("AGENT_NAME", ""))),
		OpenAIBaseURL:     strings.TrimSpace(getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")),
		OpenAIModel:       strings.TrimSpace(getEnv("OPENAI_MODEL", "gpt-4")),

		ReconcileSchedule: strings.TrimSpace(getEnv("RECONCILE_SCHEDULE", "0 0 0 * * *")),

		RedisAddr:     strings.TrimSpace(getEnv("REDIS_ADDR", "")),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		PyroscopeServerAddress:     strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PprofAddr:                  strings.TrimSpace(getEnv("PPROF_ADDR", ":6060")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if cfg.SportMonksToken == "" {
		return Config{}, fmt.Errorf("SPORTMONKS_TOKEN is required")
	}
	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.OpenAIAssistantID == "" {
		return Config{}, fmt.Errorf("OPENAI_ASSISTANT_ID (or AGENT_NAME) is required")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.ReadTimeout, err = positiveDuration("HTTP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	// Analysis streams clear this deadline for themselves.
	if cfg.WriteTimeout, err = positiveDuration("HTTP_WRITE_TIMEOUT", "30s"); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = positiveDuration("HTTP_SHUTDOWN_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY", true); err != nil {
		return Config{}, err
	}

	if cfg.SportMonksTimeout, err = positiveDuration("SPORTMONKS_TIMEOUT", "20s"); err != nil {
		return Config{}, err
	}
	if cfg.SportMonksRequestsPerSecond, err = getEnvAsFloat("SPORTMONKS_REQUESTS_PER_SECOND", 3); err != nil {
		return Config{}, err
	}
	if cfg.SportMonksRequestsPerSecond < 0 {
		return Config{}, fmt.Errorf("SPORTMONKS_REQUESTS_PER_SECOND must be >= 0")
	}
	if cfg.SportMonksCircuitEnabled, err = getEnvAsBool("SPORTMONKS_CIRCUIT_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.SportMonksCircuitFailureCount, err = minInt("SPORTMONKS_CIRCUIT_FAILURE_COUNT", 5, 1); err != nil {
		return Config{}, err
	}
	if cfg.SportMonksCircuitOpenTimeout, err = positiveDuration("SPORTMONKS_CIRCUIT_OPEN_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}
	if cfg.SportMonksCircuitHalfOpenMaxReq, err = minInt("SPORTMONKS_CIRCUIT_HALF_OPEN_MAX_REQ", 2, 1); err != nil {
		return Config{}, err
	}

	if cfg.OpenAIMaxTokens, err = minInt("OPENAI_MAX_TOKENS", 1500, 1); err != nil {
		return Config{}, err
	}
	temperature, err := getEnvAsFloat("OPENAI_TEMPERATURE", 0.7)
	if err != nil {
		return Config{}, err
	}
	if temperature < 0 || temperature > 2 {
		return Config{}, fmt.Errorf("OPENAI_TEMPERATURE must be within [0, 2]")
	}
	cfg.OpenAITemperature = float32(temperature)
	if cfg.OpenAIInstructionsTimeout, err = positiveDuration("OPENAI_INSTRUCTIONS_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.OpenAIStreamTimeout, err = positiveDuration("OPENAI_STREAM_TIMEOUT", "2m"); err != nil {
		return Config{}, err
	}

	if cfg.ReconcileEnabled, err = getEnvAsBool("RECONCILE_ENABLED", true); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileEnabled && cfg.ReconcileSchedule == "" {
		return Config{}, fmt.Errorf("RECONCILE_SCHEDULE is required when RECONCILE_ENABLED=true")
	}
	if cfg.ReconcileWindow, err = positiveDuration("RECONCILE_WINDOW", "24h"); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileWorkers, err = minInt("RECONCILE_WORKERS", 8, 1); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileTimeout, err = positiveDuration("RECONCILE_TIMEOUT", "10m"); err != nil {
		return Config{}, err
	}

	if cfg.StatsCacheTTL, err = positiveDuration("STATS_CACHE_TTL", "6h"); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = minInt("REDIS_DB", 0, 0); err != nil {
		return Config{}, err
	}

	if cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false); err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if cfg.PyroscopeUploadRate, err = positiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return Config{}, err
	}

	if cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	return cfg, nil
}

// UsesPostgres reports whether DB_URL selects the Postgres store.
func (c Config) UsesPostgres() bool {
	return c.DBURL != ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	out, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func positiveDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func minInt(key string, fallback, minimum int) (int, error) {
	out, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out < minimum {
		return 0, fmt.Errorf("%s must be >= %d", key, minimum)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
