// Package piper implements speech.Engine using a Piper Wyoming protocol server.
//
// Piper is a fast, local neural text-to-speech system. The linuxserver/piper
// container exposes the Wyoming protocol on TCP port 10200. Audio chunks are
// relayed as they arrive, prefixed by a streaming WAV header.
//
// Wyoming protocol format (per event):
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
package piper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/config"
	"github.com/fitcheck/fitcheck/internal/speech"
	"github.com/fitcheck/fitcheck/internal/ssml"
)

// defaultVoices maps ISO-639-1 language codes to Piper voice model names.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"fr": "fr_FR-siwis-medium",
	"es": "es_ES-mls_10246-low",
	"de": "de_DE-thorsten-medium",
	"it": "it_IT-riccardo-x_low",
	"pt": "pt_BR-faber-medium",
	"nl": "nl_NL-mls-medium",
	"pl": "pl_PL-darkman-medium",
	"ru": "ru_RU-ruslan-medium",
	"zh": "zh_CN-huayan-medium",
}

// Engine implements speech.Engine using the Wyoming protocol.
type Engine struct {
	endpoint     string            // host:port of the Piper Wyoming server
	voices       map[string]string // catalog voice name or language -> Piper model
	defaultVoice string
}

// New creates a new Piper engine from config.
func New(cfg config.PiperConfig) *Engine {
	voices := make(map[string]string, len(defaultVoices)+len(cfg.Voices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	// Config map keys arrive lower-cased, so lookups are case-insensitive.
	for k, v := range cfg.Voices {
		voices[strings.ToLower(k)] = v
	}

	endpoint := strings.TrimPrefix(cfg.Endpoint, "tcp://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	defaultVoice := cfg.DefaultVoice
	if defaultVoice == "" {
		defaultVoice = defaultVoices["en"]
	}

	return &Engine{endpoint: endpoint, voices: voices, defaultVoice: defaultVoice}
}

// Name returns the backend identifier.
func (e *Engine) Name() string { return "piper" }

// Synthesize sends the plain text of req to the Piper server and returns a
// WAV stream fed by its audio-chunk events.
func (e *Engine) Synthesize(ctx context.Context, req speech.Request) (speech.AudioStream, error) {
	text := ssml.StripMarkup(req.Text)
	if text == "" {
		return nil, apperr.Validation("text", "empty text for synthesis")
	}
	if e.endpoint == "" {
		return nil, &apperr.SynthesisError{Reason: "Canceled", Code: "NoEndpoint", Details: "no piper endpoint configured"}
	}

	voice := e.voiceFor(req.Voice, req.Language)
	slog.DebugContext(ctx, "piper synthesize", "text_length", len(text), "voice", voice, "endpoint", e.endpoint)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", e.endpoint)
	if err != nil {
		return nil, &apperr.SynthesisError{Reason: "Canceled", Code: "ConnectionFailure", Details: err.Error(), Err: err}
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	synth := wyomingEvent{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}
	if err := writeEvent(conn, synth, nil); err != nil {
		conn.Close()
		return nil, &apperr.SynthesisError{Reason: "Canceled", Code: "ConnectionFailure", Details: err.Error(), Err: err}
	}

	s := &stream{conn: conn, r: bufio.NewReader(conn)}
	s.stop = context.AfterFunc(ctx, func() { conn.Close() })
	return s, nil
}

// ContentType is always WAV.
func (e *Engine) ContentType() string { return "audio/wav" }

// Close is a no-op; connections are per-request.
func (e *Engine) Close() error { return nil }

// Ping checks that the Piper server accepts connections.
func (e *Engine) Ping(ctx context.Context) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", e.endpoint)
	if err != nil {
		return fmt.Errorf("dialing piper at %s: %w", e.endpoint, err)
	}
	return conn.Close()
}

// voiceFor picks the Piper model for a catalog voice: an explicit mapping,
// then the model of the voice's language, then the default.
func (e *Engine) voiceFor(voice, language string) string {
	if v, ok := e.voices[strings.ToLower(voice)]; ok {
		return v
	}
	if v, ok := e.voices[strings.ToLower(language)]; ok {
		return v
	}
	lang, _, _ := strings.Cut(language, "-")
	if v, ok := e.voices[strings.ToLower(lang)]; ok {
		return v
	}
	return e.defaultVoice
}

// stream turns Wyoming events into a byte stream.
type stream struct {
	conn    net.Conn
	r       *bufio.Reader
	stop    func() bool
	pending []byte
	done    bool

	mu     sync.Mutex
	cancel *speech.Cancellation
}

func (s *stream) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.done {
			return 0, io.EOF
		}
		if err := s.next(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// next reads one event and queues the bytes it contributes.
func (s *stream) next() error {
	evt, payload, err := readEvent(s.r)
	if err != nil {
		// The server hung up before audio-stop; the audio is truncated.
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("connection closed before audio-stop: %w", io.ErrUnexpectedEOF)
		}
		s.setCancel(&speech.Cancellation{Reason: "Canceled", Code: "ConnectionFailure", Details: err.Error()})
		return err
	}

	switch evt.Type {
	case "audio-start":
		rate, channels, width := 22050, 1, 2
		if v, ok := evt.Data["rate"].(float64); ok {
			rate = int(v)
		}
		if v, ok := evt.Data["channels"].(float64); ok {
			channels = int(v)
		}
		if v, ok := evt.Data["width"].(float64); ok {
			width = int(v)
		}
		slog.Debug("piper audio-start", "rate", rate, "channels", channels, "width", width)
		s.pending = wavHeader(rate, channels, width)

	case "audio-chunk":
		s.pending = payload

	case "audio-stop":
		s.done = true

	case "error":
		msg := "unknown error"
		if text, ok := evt.Data["text"].(string); ok {
			msg = text
		}
		code, _ := evt.Data["code"].(string)
		if code == "" {
			code = "EngineError"
		}
		s.setCancel(&speech.Cancellation{Reason: "Canceled", Code: code, Details: msg})
		return errors.New("piper error: " + msg)

	default:
		slog.Debug("piper unknown event", "type", evt.Type)
	}
	return nil
}

func (s *stream) setCancel(c *speech.Cancellation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		s.cancel = c
	}
}

func (s *stream) Cancellation() *speech.Cancellation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel
}

func (s *stream) ContentType() string { return "audio/wav" }

func (s *stream) Close() error {
	s.stop()
	return s.conn.Close()
}

// --- Wyoming protocol helpers ---

type wyomingEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// writeEvent sends a Wyoming event over the connection.
func writeEvent(w io.Writer, evt wyomingEvent, payload []byte) error {
	jsonBytes, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d\n", len(jsonBytes), len(payload))
	buf.Write(jsonBytes)
	buf.WriteByte('\n')
	buf.Write(payload)

	_, err = w.Write(buf.Bytes())
	return err
}

// readEvent reads one Wyoming event.
func readEvent(r *bufio.Reader) (*wyomingEvent, []byte, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	parts := strings.Fields(header)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", header)
	}
	jsonLen, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, nil, fmt.Errorf("parsing json_length: %w", err)
	}
	payloadLen, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, nil, fmt.Errorf("parsing payload_length: %w", err)
	}

	jsonBuf := make([]byte, jsonLen+1) // +1 for the \n
	if _, err := io.ReadFull(r, jsonBuf); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}

	var evt wyomingEvent
	if err := json.Unmarshal(jsonBuf[:jsonLen], &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return &evt, payload, nil
}

// wavHeader builds a 44-byte WAV header for a stream of unknown length; the
// RIFF and data sizes are set to their maximum.
func wavHeader(sampleRate, channels, bytesPerSample int) []byte {
	const unknown = 0xFFFFFFFF

	buf := &bytes.Buffer{}
	buf.Grow(44)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(unknown))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels*bytesPerSample))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bytesPerSample*8))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(unknown))
	return buf.Bytes()
}
