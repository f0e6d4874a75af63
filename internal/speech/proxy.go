package speech

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/message"
)

// Chunk size bounds in bytes.
const (
	MinChunkSize     = 1
	MaxChunkSize     = 1 << 20
	DefaultChunkSize = 9600
)

// State is the lifecycle stage of one proxied stream.
type State string

const (
	StateIdle         State = "idle"
	StateSynthesizing State = "synthesizing"
	StateStreaming    State = "streaming"
	StateCompleted    State = "completed"
	StateCanceled     State = "canceled"
	StateFailed       State = "failed"
)

// Proxy streams engine output in chunks.
type Proxy struct {
	engine           Engine
	defaultChunkSize int
}

// NewProxy creates a proxy over engine. A non-positive defaultChunkSize
// selects DefaultChunkSize.
func NewProxy(engine Engine, defaultChunkSize int) *Proxy {
	if defaultChunkSize <= 0 {
		defaultChunkSize = DefaultChunkSize
	}
	return &Proxy{engine: engine, defaultChunkSize: defaultChunkSize}
}

// Engine returns the underlying engine.
func (p *Proxy) Engine() Engine { return p.engine }

// ChunkSize resolves a requested chunk size; zero selects the default.
func (p *Proxy) ChunkSize(requested int) (int, error) {
	if requested == 0 {
		return p.defaultChunkSize, nil
	}
	if requested < MinChunkSize || requested > MaxChunkSize {
		return 0, apperr.Validation(message.ParamChunkSize, "%d is outside [%d, %d]", requested, MinChunkSize, MaxChunkSize)
	}
	return requested, nil
}

// Stream synthesizes req and yields its audio in chunks of chunkSize bytes
// (the last chunk may be shorter). Chunks arrive in order and are never
// retried. An engine cancellation yields a single *apperr.SynthesisError and
// ends the sequence. The engine stream is closed when the sequence ends,
// including when the consumer stops early or ctx is canceled.
func (p *Proxy) Stream(ctx context.Context, req Request, chunkSize int) iter.Seq2[AudioChunk, error] {
	return func(yield func(AudioChunk, error) bool) {
		size, err := p.ChunkSize(chunkSize)
		if err != nil {
			yield(AudioChunk{}, err)
			return
		}

		ctx, span := otel.Tracer("fitcheck/speech").Start(ctx, "Stream")
		defer span.End()
		span.SetAttributes(
			attribute.String("speech.engine", p.engine.Name()),
			attribute.String("speech.voice", req.Voice),
			attribute.Int("speech.chunk_size", size),
		)

		state := StateSynthesizing
		var seq, total int
		defer func() {
			span.SetAttributes(
				attribute.String("speech.state", string(state)),
				attribute.Int("speech.chunks", seq),
				attribute.Int("speech.bytes", total),
			)
			slog.DebugContext(ctx, "speech stream finished", "engine", p.engine.Name(), "state", state, "chunks", seq, "bytes", total)
		}()

		fail := func(err error) {
			state = StateFailed
			span.RecordError(err)
			span.SetStatus(codes.Error, "synthesis failed")
			yield(AudioChunk{}, err)
		}

		stream, err := p.engine.Synthesize(ctx, req)
		if err != nil {
			fail(err)
			return
		}
		defer stream.Close()

		state = StateStreaming
		for {
			if ctx.Err() != nil {
				state = StateCanceled
				return
			}
			if c := stream.Cancellation(); c != nil {
				fail(c.Err())
				return
			}

			buf := make([]byte, size)
			n, readErr := fill(stream, buf)
			if n > 0 {
				if !yield(AudioChunk{Seq: seq, Data: buf[:n]}, nil) {
					state = StateCanceled
					return
				}
				seq++
				total += n
			}

			if readErr == nil {
				continue
			}
			// A recorded cancellation wins over how the read ended.
			if c := stream.Cancellation(); c != nil {
				fail(c.Err())
				return
			}
			if errors.Is(readErr, io.EOF) {
				state = StateCompleted
				return
			}
			fail(&apperr.SynthesisError{Reason: "Error", Details: readErr.Error(), Err: readErr})
			return
		}
	}
}

// errCanceled stops a fill once the engine has recorded a cancellation.
var errCanceled = errors.New("synthesis canceled")

// fill reads from s until buf is full. A zero-length read ends the stream
// and is reported as io.EOF. The cancellation is checked before every read.
func fill(s AudioStream, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		if s.Cancellation() != nil {
			return n, errCanceled
		}
		m, err := s.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
		if m == 0 {
			return n, io.EOF
		}
	}
	return n, nil
}
