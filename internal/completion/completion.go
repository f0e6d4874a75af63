// Package completion defines the chat-completion client contract and the
// gateway the coaching pipeline calls through.
//
// A Client talks to one remote provider. The Gateway frames prompts into
// messages, refuses empty payloads before any network I/O, bounds outbound
// concurrency and traces every call.
package completion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/semaphore"

	"github.com/fitcheck/fitcheck/internal/apperr"
)

// Role tags a chat message.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Part is one element of a message's content. Exactly one of Text and
// ImageURL is set; ImageURL may be a data URI.
type Part struct {
	Text     string
	ImageURL string
}

// Message is one role-tagged chat message.
type Message struct {
	Role  Role
	Parts []Part
}

// Text returns the concatenated text parts of m.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// HasImages reports whether m carries image parts.
func (m Message) HasImages() bool {
	for _, p := range m.Parts {
		if p.ImageURL != "" {
			return true
		}
	}
	return false
}

// Client is the interface for a remote chat-completion provider.
type Client interface {
	// Name returns the backend identifier (e.g., "azure", "openai").
	Name() string

	// Complete sends messages and returns the text of the first choice.
	// Transport failures are reported as *apperr.UpstreamError.
	Complete(ctx context.Context, messages []Message) (string, error)

	// Close releases any resources held by the client.
	Close() error
}

// Gateway is the single entry point for completions.
type Gateway struct {
	client Client
	sem    *semaphore.Weighted
}

// NewGateway wraps client. maxConcurrent bounds in-flight calls; values below
// one disable the bound.
func NewGateway(client Client, maxConcurrent int) *Gateway {
	g := &Gateway{client: client}
	if maxConcurrent > 0 {
		g.sem = semaphore.NewWeighted(int64(maxConcurrent))
	}
	return g
}

// Complete sends an optional system prompt and a user turn made of images
// followed by userPrompt.
func (g *Gateway) Complete(ctx context.Context, systemPrompt, userPrompt string, images []string) (string, error) {
	messages, err := Frame(systemPrompt, userPrompt, images)
	if err != nil {
		return "", err
	}

	ctx, span := otel.Tracer("fitcheck/completion").Start(ctx, "Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("completion.backend", g.client.Name()),
		attribute.Int("completion.images", len(images)),
		attribute.Int("completion.prompt_length", len(userPrompt)),
	)

	if g.sem != nil {
		if err := g.sem.Acquire(ctx, 1); err != nil {
			span.RecordError(err)
			return "", &apperr.UpstreamError{Err: fmt.Errorf("waiting for completion slot: %w", err)}
		}
		defer g.sem.Release(1)
	}

	text, err := g.client.Complete(ctx, messages)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", err
	}

	span.SetAttributes(attribute.Int("completion.response_length", len(text)))
	slog.DebugContext(ctx, "completion received", "backend", g.client.Name(), "length", len(text))
	return text, nil
}

// Close closes the underlying client.
func (g *Gateway) Close() error { return g.client.Close() }

// Frame builds the message list for one call. It fails with a
// ValidationError when there is no user content at all.
func Frame(systemPrompt, userPrompt string, images []string) ([]Message, error) {
	var user Message
	user.Role = RoleUser
	for _, img := range images {
		if img != "" {
			user.Parts = append(user.Parts, Part{ImageURL: img})
		}
	}
	if userPrompt != "" {
		user.Parts = append(user.Parts, Part{Text: userPrompt})
	}
	if len(user.Parts) == 0 {
		return nil, apperr.Validation("prompt", "no user content")
	}

	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Parts: []Part{{Text: systemPrompt}}})
	}
	return append(messages, user), nil
}
