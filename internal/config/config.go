// Package config handles loading and validating the fitcheck configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the root configuration for the fitcheck daemon.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Transports TransportsConfig `mapstructure:"transports"`
	Completion CompletionConfig `mapstructure:"completion"`
	Speech     SpeechConfig     `mapstructure:"speech"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds the health server and public address settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`

	// PublicURL prefixes playback URLs returned by the advice endpoint.
	// Empty yields host-relative URLs.
	PublicURL string `mapstructure:"public_url"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled        bool  `mapstructure:"enabled"`
	Port           int   `mapstructure:"port"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// CompletionConfig selects and configures the chat-completion backend.
type CompletionConfig struct {
	Backend string `mapstructure:"backend"` // "azure", "openai" or "local"

	// Endpoint is the full chat completions URL (Azure deployment URL included).
	Endpoint string `mapstructure:"endpoint"`

	// TextEndpoint serves the text-only prompt route. Empty falls back to Endpoint.
	TextEndpoint string `mapstructure:"text_endpoint"`

	APIKey         string  `mapstructure:"api_key"`
	Auth           string  `mapstructure:"auth"` // "api-key" or "bearer"
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	TopP           float64 `mapstructure:"top_p"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	MaxConcurrency int     `mapstructure:"max_concurrency"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}

// SpeechConfig selects and configures the speech synthesis backend.
type SpeechConfig struct {
	Backend          string      `mapstructure:"backend"` // "azure" or "piper"
	DefaultChunkSize int         `mapstructure:"default_chunk_size"`
	Azure            AzureConfig `mapstructure:"azure"`
	Piper            PiperConfig `mapstructure:"piper"`
}

// AzureConfig holds Azure Speech settings.
type AzureConfig struct {
	Region         string `mapstructure:"region"`
	APIKey         string `mapstructure:"api_key"`
	OutputFormat   string `mapstructure:"output_format"`
	Endpoint       string `mapstructure:"endpoint"` // overrides the region-derived URL
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// Voices maps catalog voice names to Piper voice models; unmapped voices use
// the model of their language, then DefaultVoice.
type PiperConfig struct {
	Endpoint     string            `mapstructure:"endpoint"` // Wyoming TCP endpoint (host:port)
	DefaultVoice string            `mapstructure:"default_voice"`
	Voices       map[string]string `mapstructure:"voices"`
}

// TelemetryConfig configures tracing and metrics.
type TelemetryConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	Environment  string `mapstructure:"environment"`
	Traces       string `mapstructure:"traces"` // "none", "stdout" or "otlp"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// legacyEnv binds configuration keys to environment variable names used by
// earlier deployments, in priority order after the FITCHECK_ name.
var legacyEnv = map[string][]string{
	"completion.api_key":       {"AZURE_OPEN_AI_API_KEY"},
	"completion.endpoint":      {"AZURE_OPEN_AI_URL"},
	"completion.text_endpoint": {"GPT35_AZURE_OPEN_AI_URL"},
	"speech.azure.api_key":     {"AZURE_SPEECH_KEY", "AZURE_OPEN_AI_API_KEY"},
	"speech.azure.region":      {"AZURE_REGION"},
	"transports.http.port":     {"PORT"},
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./fitcheck.yaml, ./configs/fitcheck.yaml, /etc/fitcheck/fitcheck.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("server.public_url", "")
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.max_upload_bytes", 25<<20)
	v.SetDefault("completion.backend", "azure")
	v.SetDefault("completion.auth", "")
	v.SetDefault("completion.model", "")
	v.SetDefault("completion.temperature", 0.7)
	v.SetDefault("completion.top_p", 0.95)
	v.SetDefault("completion.max_tokens", 2048)
	v.SetDefault("completion.max_concurrency", 10)
	v.SetDefault("completion.timeout_seconds", 60)
	v.SetDefault("speech.backend", "azure")
	v.SetDefault("speech.default_chunk_size", 9600)
	v.SetDefault("speech.azure.output_format", "audio-24khz-96kbitrate-mono-mp3")
	v.SetDefault("speech.azure.timeout_seconds", 60)
	v.SetDefault("speech.piper.endpoint", "localhost:10200")
	v.SetDefault("speech.piper.default_voice", "en_US-lessac-medium")
	v.SetDefault("telemetry.service_name", "fitcheck")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("telemetry.traces", "none")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("fitcheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/fitcheck")
	}

	// Environment variables: FITCHECK_SERVER_HEALTH_PORT, FITCHECK_COMPLETION_BACKEND, etc.
	v.SetEnvPrefix("FITCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range legacyEnv {
		envs := append([]string{"FITCHECK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("binding env for %s: %w", key, err)
		}
	}

	// Read config file (optional; env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${AZURE_OPEN_AI_API_KEY}")
	cfg.Completion.APIKey = resolveEnvRef(cfg.Completion.APIKey)
	cfg.Speech.Azure.APIKey = resolveEnvRef(cfg.Speech.Azure.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail at request time.
func (c *Config) Validate() error {
	switch c.Completion.Backend {
	case "azure", "openai", "local":
	default:
		return fmt.Errorf("unknown completion backend %q", c.Completion.Backend)
	}
	switch c.Speech.Backend {
	case "azure", "piper":
	default:
		return fmt.Errorf("unknown speech backend %q", c.Speech.Backend)
	}
	if c.Speech.DefaultChunkSize <= 0 {
		return fmt.Errorf("speech.default_chunk_size must be positive, got %d", c.Speech.DefaultChunkSize)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		if envVal := os.Getenv(envKey); envVal != "" {
			return envVal
		}
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	slog.SetDefault(slog.New(NewLogHandler(cfg, os.Stdout)))
}

// NewLogHandler builds the slog handler described by cfg.
func NewLogHandler(cfg LoggingConfig, w io.Writer) slog.Handler {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if strings.ToLower(cfg.Format) == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
