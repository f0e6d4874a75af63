// Package azure implements speech.Engine using the Azure Speech REST API.
//
// The engine posts an SSML document to the regional text-to-speech endpoint
// and streams the response body as it arrives.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/config"
	"github.com/fitcheck/fitcheck/internal/speech"
)

// DefaultOutputFormat is MP3 at 24 kHz, 96 kbit/s, mono.
const DefaultOutputFormat = "audio-24khz-96kbitrate-mono-mp3"

const userAgent = "fitcheck"

// Engine synthesizes speech through Azure.
type Engine struct {
	endpoint     string
	apiKey       string
	outputFormat string
	client       *http.Client
}

// New creates a new Azure engine from config.
func New(cfg config.AzureConfig) *Engine {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region)
	}
	format := cfg.OutputFormat
	if format == "" {
		format = DefaultOutputFormat
	}
	return &Engine{
		endpoint:     endpoint,
		apiKey:       cfg.APIKey,
		outputFormat: format,
		client:       &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// Name returns the backend identifier.
func (e *Engine) Name() string { return "azure" }

// Synthesize posts req.SSML and returns the streaming response body.
func (e *Engine) Synthesize(ctx context.Context, req speech.Request) (speech.AudioStream, error) {
	if req.SSML == "" {
		return nil, apperr.Validation("ssml", "azure synthesis requires an SSML document")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, strings.NewReader(req.SSML))
	if err != nil {
		return nil, fmt.Errorf("creating synthesis request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)
	httpReq.Header.Set("Content-Type", "application/ssml+xml")
	httpReq.Header.Set("X-Microsoft-OutputFormat", e.outputFormat)
	httpReq.Header.Set("User-Agent", userAgent)

	slog.DebugContext(ctx, "azure synthesize", "voice", req.Voice, "ssml_length", len(req.SSML))

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, &apperr.SynthesisError{Reason: "Canceled", Code: "ConnectionFailure", Details: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		details := strings.TrimSpace(string(body))
		if details == "" {
			details = http.StatusText(resp.StatusCode)
		}
		return nil, &apperr.SynthesisError{
			Reason:  "Canceled",
			Code:    strconv.Itoa(resp.StatusCode),
			Details: details,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = ContentType(e.outputFormat)
	}
	return &stream{body: resp.Body, contentType: contentType}, nil
}

// ContentType is the MIME type of the configured output format.
func (e *Engine) ContentType() string { return ContentType(e.outputFormat) }

// Close is a no-op; connections are pooled by net/http.
func (e *Engine) Close() error { return nil }

// ContentType maps an Azure output format name to its MIME type.
func ContentType(format string) string {
	switch {
	case strings.HasSuffix(format, "mp3"):
		return "audio/mpeg"
	case strings.HasPrefix(format, "riff-"):
		return "audio/wav"
	case strings.HasPrefix(format, "ogg-"):
		return "audio/ogg"
	case strings.HasPrefix(format, "webm-"):
		return "audio/webm"
	case strings.HasPrefix(format, "raw-"):
		return "audio/pcm"
	default:
		return "application/octet-stream"
	}
}

// stream records a cancellation when the response body fails mid-read.
type stream struct {
	body        io.ReadCloser
	contentType string

	mu     sync.Mutex
	cancel *speech.Cancellation
}

func (s *stream) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.mu.Lock()
		if s.cancel == nil {
			s.cancel = &speech.Cancellation{Reason: "Canceled", Code: "ConnectionFailure", Details: err.Error()}
		}
		s.mu.Unlock()
	}
	return n, err
}

func (s *stream) Cancellation() *speech.Cancellation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel
}

func (s *stream) ContentType() string { return s.contentType }

func (s *stream) Close() error { return s.body.Close() }
