// Package local implements completion.Client using self-hosted models.
//
// It supports Ollama's /api/generate endpoint and any OpenAI-compatible
// chat endpoint (e.g., Ollama, vLLM, llama.cpp server).
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/completion"
	"github.com/fitcheck/fitcheck/internal/config"
)

// Client uses a self-hosted LLM for completions.
type Client struct {
	endpoint    string
	model       string
	temperature float64
	client      *http.Client
}

// New creates a new local client from config.
func New(cfg config.CompletionConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = "llama3"
	}
	return &Client{
		endpoint:    cfg.Endpoint,
		model:       model,
		temperature: cfg.Temperature,
		client:      &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return "local" }

// Complete sends messages to the local endpoint.
// If the endpoint ends with /api/generate the Ollama generate format is used,
// which carries images as raw base64; otherwise the OpenAI-compatible chat
// format with plain string content.
func (c *Client) Complete(ctx context.Context, messages []completion.Message) (string, error) {
	var system, prompt string
	var images []string
	for _, m := range messages {
		switch m.Role {
		case completion.RoleSystem:
			system = m.Text()
		default:
			prompt = m.Text()
			for _, p := range m.Parts {
				if p.ImageURL != "" {
					images = append(images, stripDataURI(p.ImageURL))
				}
			}
		}
	}

	var reqBody map[string]any
	if strings.HasSuffix(c.endpoint, "/api/generate") {
		reqBody = map[string]any{
			"model":  c.model,
			"system": system,
			"prompt": prompt,
			"stream": false,
		}
		if len(images) > 0 {
			reqBody["images"] = images
		}
	} else {
		if len(images) > 0 {
			return "", apperr.Validation("files", "local chat endpoint accepts text prompts only")
		}
		chat := []map[string]string{}
		if system != "" {
			chat = append(chat, map[string]string{"role": "system", "content": system})
		}
		chat = append(chat, map[string]string{"role": "user", "content": prompt})
		reqBody = map[string]any{
			"model":       c.model,
			"messages":    chat,
			"temperature": c.temperature,
			"stream":      false,
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Diagnostics carry the prompt text only.
	diag := fmt.Sprintf(`{"model":%q,"system":%q,"prompt":%q,"images":%d}`, c.model, system, prompt, len(images))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &apperr.UpstreamError{
			Request: apperr.SnapshotRequest(req, diag),
			Err:     fmt.Errorf("local LLM request: %w", err),
		}
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil || resp.StatusCode != http.StatusOK {
		if err == nil {
			err = fmt.Errorf("local LLM failed (status %d)", resp.StatusCode)
		}
		return "", &apperr.UpstreamError{
			StatusCode: resp.StatusCode,
			Request:    apperr.SnapshotRequest(req, diag),
			Response:   apperr.SnapshotResponse(resp, respData),
			Err:        err,
		}
	}

	content := extractContent(respData)
	if content == "" {
		return "", &apperr.UpstreamError{
			StatusCode: resp.StatusCode,
			Request:    apperr.SnapshotRequest(req, diag),
			Response:   apperr.SnapshotResponse(resp, respData),
			Err:        fmt.Errorf("empty response from local LLM"),
		}
	}

	slog.Debug("local completion complete", "length", len(content))
	return content, nil
}

// Close is a no-op for the local client.
func (c *Client) Close() error { return nil }

// --- Internal helpers ---

func extractContent(data []byte) string {
	// Try OpenAI-compatible format: {"choices": [{"message": {"content": "..."}}]}
	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &chatResp); err == nil && len(chatResp.Choices) > 0 {
		return chatResp.Choices[0].Message.Content
	}

	// Try Ollama format: {"response": "..."}
	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &ollamaResp); err == nil && ollamaResp.Response != "" {
		return ollamaResp.Response
	}

	return ""
}

// stripDataURI returns the base64 payload of a data URI, or s unchanged.
func stripDataURI(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if _, b64, ok := strings.Cut(s, ";base64,"); ok {
		return b64
	}
	return s
}
