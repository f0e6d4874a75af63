// Package openai implements completion.Client against OpenAI-compatible
// Chat Completions endpoints, including Azure OpenAI deployments.
//
// Azure deployments authenticate with an "api-key" header and carry the
// model in the deployment URL; OpenAI proper uses a bearer token and an
// explicit model name.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/completion"
	"github.com/fitcheck/fitcheck/internal/config"
)

// Auth modes.
const (
	AuthAPIKey = "api-key"
	AuthBearer = "bearer"
)

// maxResponseBody bounds how much of a provider response is read.
const maxResponseBody = 8 << 20

// Client sends chat completions over HTTP.
type Client struct {
	name         string
	endpoint     string
	apiKey       string
	auth         string
	model        string
	plainContent bool
	temperature  float64
	topP         float64
	maxTokens    int
	client       *http.Client
}

// New creates a client for one endpoint. plainContent selects the legacy
// string message format, which cannot carry images.
func New(name, endpoint string, plainContent bool, cfg config.CompletionConfig) *Client {
	auth := cfg.Auth
	if auth == "" {
		auth = AuthAPIKey
	}
	return &Client{
		name:         name,
		endpoint:     endpoint,
		apiKey:       cfg.APIKey,
		auth:         auth,
		model:        cfg.Model,
		plainContent: plainContent,
		temperature:  cfg.Temperature,
		topP:         cfg.TopP,
		maxTokens:    cfg.MaxTokens,
		client:       &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return c.name }

// Complete posts messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []completion.Message) (string, error) {
	payload, err := c.buildRequest(messages, false)
	if err != nil {
		return "", err
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	switch c.auth {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	default:
		req.Header.Set("Api-Key", c.apiKey)
	}

	upstreamErr := func(resp *http.Response, body []byte, cause error) error {
		e := &apperr.UpstreamError{
			Request:  apperr.SnapshotRequest(req, c.diagnosticBody(messages)),
			Response: apperr.SnapshotResponse(resp, body),
			Err:      cause,
		}
		if resp != nil {
			e.StatusCode = resp.StatusCode
		}
		slog.WarnContext(ctx, "chat completion failed", "backend", c.name, "status", e.StatusCode, "error", cause)
		return e
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", upstreamErr(nil, nil, fmt.Errorf("chat request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", upstreamErr(resp, respBody, fmt.Errorf("reading chat response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", upstreamErr(resp, respBody, fmt.Errorf("chat failed (status %d)", resp.StatusCode))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", upstreamErr(resp, respBody, fmt.Errorf("decoding chat response: %w", err))
	}
	if len(chatResp.Choices) == 0 {
		return "", upstreamErr(resp, respBody, fmt.Errorf("no choices returned from chat API"))
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Close is a no-op; connections are pooled by net/http.
func (c *Client) Close() error { return nil }

// --- Internal types and helpers ---

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// chatMessage content is either a string or a []contentPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// buildRequest converts messages to the wire format. With redactImages set,
// image URLs are replaced by a size marker so diagnostics stay small.
func (c *Client) buildRequest(messages []completion.Message, redactImages bool) (*chatRequest, error) {
	out := &chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		TopP:        c.topP,
		MaxTokens:   c.maxTokens,
	}
	for _, m := range messages {
		if c.plainContent {
			if m.HasImages() {
				return nil, apperr.Validation("files", "backend %q accepts text prompts only", c.name)
			}
			out.Messages = append(out.Messages, chatMessage{Role: string(m.Role), Content: m.Text()})
			continue
		}
		parts := make([]contentPart, 0, len(m.Parts))
		for _, p := range m.Parts {
			if p.ImageURL != "" {
				u := p.ImageURL
				if redactImages {
					u = fmt.Sprintf("[image omitted: %d bytes]", len(u))
				}
				parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: u}})
				continue
			}
			parts = append(parts, contentPart{Type: "text", Text: p.Text})
		}
		out.Messages = append(out.Messages, chatMessage{Role: string(m.Role), Content: parts})
	}
	return out, nil
}

func (c *Client) diagnosticBody(messages []completion.Message) string {
	payload, err := c.buildRequest(messages, true)
	if err != nil {
		return ""
	}
	b, _ := json.Marshal(payload)
	return string(b)
}
