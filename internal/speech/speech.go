// Package speech defines the speech synthesis engine contract and the proxy
// that streams engine output to callers in fixed-size chunks.
//
// Engines render SSML (or plain text) into an AudioStream. The Proxy pulls
// from that stream, checks for engine-side cancellation before every read,
// and surfaces failures as *apperr.SynthesisError.
package speech

import (
	"context"

	"github.com/fitcheck/fitcheck/internal/apperr"
)

// Request is one synthesis job.
type Request struct {
	// SSML is the full document for engines that accept markup.
	SSML string

	// Text is the utterance with inline pause markers, for plain text engines.
	Text string

	Voice    string
	Language string
	Style    string
	Rate     float64
}

// Cancellation describes why an engine stopped producing audio.
type Cancellation struct {
	Reason  string
	Code    string
	Details string
}

// Err converts c into the synthesis error reported to callers.
func (c *Cancellation) Err() error {
	return &apperr.SynthesisError{Reason: c.Reason, Code: c.Code, Details: c.Details}
}

// AudioStream is the engine's output for one request.
type AudioStream interface {
	// Read fills p with audio bytes. A zero-length read or io.EOF marks the end.
	Read(p []byte) (int, error)

	// Cancellation returns non-nil once the engine has canceled synthesis.
	Cancellation() *Cancellation

	// ContentType is the MIME type of the audio bytes.
	ContentType() string

	// Close releases the underlying connection.
	Close() error
}

// Engine is the interface for a speech synthesis backend.
type Engine interface {
	// Name returns the backend identifier (e.g., "azure", "piper").
	Name() string

	// Synthesize starts synthesis of req. Failures before any audio is
	// available are reported as *apperr.SynthesisError.
	Synthesize(ctx context.Context, req Request) (AudioStream, error)

	// ContentType is the MIME type of the audio the engine produces.
	ContentType() string

	// Close releases any resources held by the engine.
	Close() error
}

// AudioChunk is one slice of synthesized audio, numbered from zero in
// emission order.
type AudioChunk struct {
	Seq  int
	Data []byte
}
