package azure

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/config"
	"github.com/fitcheck/fitcheck/internal/speech"
)

const doc = `<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="en-US"><voice name="en-US-AvaMultilingualNeural">hi</voice></speak>`

func TestSynthesizeStreamsBody(t *testing.T) {
	var gotHeaders http.Header
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-fake-mp3-bytes"))
	}))
	defer srv.Close()

	e := New(config.AzureConfig{Endpoint: srv.URL, APIKey: "k", TimeoutSeconds: 5})
	stream, err := e.Synthesize(context.Background(), speech.Request{SSML: doc, Voice: "en-US-AvaMultilingualNeural"})
	require.NoError(t, err)
	defer stream.Close()

	audio, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "ID3-fake-mp3-bytes", string(audio))
	assert.Nil(t, stream.Cancellation())
	assert.Equal(t, "audio/mpeg", stream.ContentType())

	assert.Equal(t, doc, gotBody)
	assert.Equal(t, "k", gotHeaders.Get("Ocp-Apim-Subscription-Key"))
	assert.Equal(t, "application/ssml+xml", gotHeaders.Get("Content-Type"))
	assert.Equal(t, DefaultOutputFormat, gotHeaders.Get("X-Microsoft-OutputFormat"))
}

func TestSynthesizeRejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "voice not available in region", http.StatusBadRequest)
	}))
	defer srv.Close()

	e := New(config.AzureConfig{Endpoint: srv.URL, TimeoutSeconds: 5})
	_, err := e.Synthesize(context.Background(), speech.Request{SSML: doc})

	var se *apperr.SynthesisError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Canceled", se.Reason)
	assert.Equal(t, "400", se.Code)
	assert.Equal(t, "voice not available in region", se.Details)
}

func TestSynthesizeRequiresSSML(t *testing.T) {
	e := New(config.AzureConfig{Region: "eastus"})
	_, err := e.Synthesize(context.Background(), speech.Request{Text: "hi"})

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
}

func TestSynthesizeMidStreamFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// Declares a longer body than it sends, then hangs up.
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 4096)
		_, _ = conn.Read(buf)
		_, _ = conn.Write([]byte("HTTP/1.1 200 OK\r\nContent-Type: audio/mpeg\r\nContent-Length: 1000\r\n\r\npartial"))
		_ = conn.Close()
	}()

	e := New(config.AzureConfig{Endpoint: "http://" + ln.Addr().String(), TimeoutSeconds: 5})
	p := speech.NewProxy(e, 0)

	var got []byte
	var streamErr error
	for chunk, err := range p.Stream(context.Background(), speech.Request{SSML: doc}, 4) {
		if err != nil {
			streamErr = err
			break
		}
		got = append(got, chunk.Data...)
	}

	assert.Equal(t, "partial", string(got))
	var se *apperr.SynthesisError
	require.True(t, errors.As(streamErr, &se), "got %v", streamErr)
	assert.Equal(t, "Canceled", se.Reason)
	assert.Equal(t, "ConnectionFailure", se.Code)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", ContentType("audio-24khz-96kbitrate-mono-mp3"))
	assert.Equal(t, "audio/wav", ContentType("riff-24khz-16bit-mono-pcm"))
	assert.Equal(t, "audio/ogg", ContentType("ogg-24khz-16bit-mono-opus"))
	assert.Equal(t, "application/octet-stream", ContentType("unknown"))
}
