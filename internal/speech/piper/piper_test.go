package piper

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/config"
	"github.com/fitcheck/fitcheck/internal/speech"
)

// fakePiper accepts one connection, records the synthesize event and replies
// with the given events.
func fakePiper(t *testing.T, reply func(w io.Writer)) (string, <-chan *wyomingEvent) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	got := make(chan *wyomingEvent, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		evt, _, err := readEvent(bufio.NewReader(conn))
		if err != nil {
			return
		}
		got <- evt
		reply(conn)
	}()
	return ln.Addr().String(), got
}

func TestSynthesizeStreamsWAV(t *testing.T) {
	addr, got := fakePiper(t, func(w io.Writer) {
		_ = writeEvent(w, wyomingEvent{Type: "audio-start", Data: map[string]any{"rate": 16000, "width": 2, "channels": 1}}, nil)
		_ = writeEvent(w, wyomingEvent{Type: "audio-chunk"}, []byte{1, 2, 3, 4})
		_ = writeEvent(w, wyomingEvent{Type: "audio-chunk"}, []byte{5, 6})
		_ = writeEvent(w, wyomingEvent{Type: "audio-stop"}, nil)
	})

	e := New(config.PiperConfig{Endpoint: "tcp://" + addr})
	stream, err := e.Synthesize(context.Background(), speech.Request{
		Text:     "Keep going <break/> almost there",
		Voice:    "en-US-AvaMultilingualNeural",
		Language: "en-US",
	})
	require.NoError(t, err)
	defer stream.Close()

	audio, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Len(t, audio, 44+6)
	assert.Equal(t, "RIFF", string(audio[0:4]))
	assert.Equal(t, "WAVE", string(audio[8:12]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(audio[24:28]))
	assert.Equal(t, uint32(0xFFFFFFFF), binary.LittleEndian.Uint32(audio[40:44]))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, audio[44:])
	assert.Equal(t, "audio/wav", stream.ContentType())
	assert.Nil(t, stream.Cancellation())

	evt := <-got
	assert.Equal(t, "synthesize", evt.Type)
	assert.Equal(t, "Keep going almost there", evt.Data["text"])
	assert.Equal(t, "en_US-lessac-medium", evt.Data["voice"].(map[string]any)["name"])
}

func TestSynthesizeErrorEventCancels(t *testing.T) {
	addr, _ := fakePiper(t, func(w io.Writer) {
		_ = writeEvent(w, wyomingEvent{Type: "audio-start", Data: map[string]any{"rate": 22050}}, nil)
		_ = writeEvent(w, wyomingEvent{Type: "audio-chunk"}, make([]byte, 64))
		_ = writeEvent(w, wyomingEvent{Type: "error", Data: map[string]any{"text": "voice not found"}}, nil)
	})

	p := speech.NewProxy(New(config.PiperConfig{Endpoint: addr}), 0)

	var total int
	var streamErr error
	for chunk, err := range p.Stream(context.Background(), speech.Request{Text: "hello"}, 16) {
		if err != nil {
			streamErr = err
			break
		}
		total += len(chunk.Data)
	}

	assert.Equal(t, 44+64, total)
	var se *apperr.SynthesisError
	require.True(t, errors.As(streamErr, &se), "got %v", streamErr)
	assert.Equal(t, "Canceled", se.Reason)
	assert.Equal(t, "EngineError", se.Code)
	assert.Equal(t, "voice not found", se.Details)
}

func TestSynthesizeConnectionDroppedBeforeStop(t *testing.T) {
	addr, _ := fakePiper(t, func(w io.Writer) {
		_ = writeEvent(w, wyomingEvent{Type: "audio-start", Data: map[string]any{"rate": 22050}}, nil)
		_ = writeEvent(w, wyomingEvent{Type: "audio-chunk"}, make([]byte, 64))
	})

	p := speech.NewProxy(New(config.PiperConfig{Endpoint: addr}), 0)

	var total int
	var streamErr error
	for chunk, err := range p.Stream(context.Background(), speech.Request{Text: "hello"}, 16) {
		if err != nil {
			streamErr = err
			break
		}
		total += len(chunk.Data)
	}

	assert.Equal(t, 44+64, total)
	var se *apperr.SynthesisError
	require.True(t, errors.As(streamErr, &se), "truncated audio must not end as complete, got %v", streamErr)
	assert.Equal(t, "ConnectionFailure", se.Code)
	assert.Contains(t, se.Details, "audio-stop")
}

func TestStreamReadReportsUnexpectedEOF(t *testing.T) {
	addr, _ := fakePiper(t, func(w io.Writer) {
		_ = writeEvent(w, wyomingEvent{Type: "audio-chunk"}, []byte{1, 2, 3})
	})

	stream, err := New(config.PiperConfig{Endpoint: addr}).Synthesize(context.Background(), speech.Request{Text: "hello"})
	require.NoError(t, err)
	defer stream.Close()

	audio, err := io.ReadAll(stream)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, []byte{1, 2, 3}, audio)
	require.NotNil(t, stream.Cancellation())
	assert.Equal(t, "ConnectionFailure", stream.Cancellation().Code)
}

func TestSynthesizeConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = New(config.PiperConfig{Endpoint: addr}).Synthesize(context.Background(), speech.Request{Text: "hi"})

	var se *apperr.SynthesisError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "ConnectionFailure", se.Code)
}

func TestSynthesizeEmptyText(t *testing.T) {
	_, err := New(config.PiperConfig{Endpoint: "localhost:1"}).Synthesize(context.Background(), speech.Request{Text: "<break/>"})

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestVoiceFor(t *testing.T) {
	e := New(config.PiperConfig{
		DefaultVoice: "en_GB-alan-low",
		Voices:       map[string]string{"th-TH-PremwadeeNeural": "th_custom"},
	})

	assert.Equal(t, "th_custom", e.voiceFor("th-TH-PremwadeeNeural", "th-TH"))
	assert.Equal(t, "fr_FR-siwis-medium", e.voiceFor("fr-FR-DeniseNeural", "fr-FR"))
	assert.Equal(t, "en_GB-alan-low", e.voiceFor("ja-JP-NanamiNeural", "ja-JP"))
}

func TestPing(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	require.NoError(t, New(config.PiperConfig{Endpoint: addr}).Ping(context.Background()))

	ln.Close()
	assert.Error(t, New(config.PiperConfig{Endpoint: addr}).Ping(context.Background()))
}
