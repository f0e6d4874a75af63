package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/catalog"
	"github.com/fitcheck/fitcheck/internal/message"
)

// maxTextHeaderRunes bounds the X-Tts-Text echo header.
const maxTextHeaderRunes = 1024

// handleSSML streams synthesized speech for the advice parameters.
//
// @Summary     Stream advice as speech
// @Description Synthesizes the text with the given voice, style and rate and streams the audio in chunks.
// @Description Errors before the first chunk are returned as JSON; later failures abort the connection.
// @Tags        speech
// @Produce     audio/mpeg
// @Param       text             query     string   true   "Text to speak"
// @Param       voiceName        query     string   false  "Voice name"  default(en-US-AvaMultilingualNeural)
// @Param       rate             query     number   false  "Speaking rate multiplier"  default(1)
// @Param       language         query     string   false  "BCP-47 language"  default(en-US)
// @Param       style            query     string   false  "Expressive style"
// @Param       streamChunkSize  query     integer  false  "Chunk size in bytes"
// @Success     200  {file}    binary
// @Failure     400  {object}  apperr.Envelope
// @Failure     502  {object}  apperr.Envelope
// @Router      /api/v1/speech/ssml [get]
func (t *Transport) handleSSML(w http.ResponseWriter, r *http.Request) error {
	p, err := message.ParseSpeechParams(r.URL.Query())
	if err != nil {
		return err
	}
	return t.streamSpeech(w, r, p)
}

// handleSimple speaks plain text with a voice's defaults.
//
// @Summary  Stream plain text as speech
// @Tags     speech
// @Produce  audio/mpeg
// @Param    text       query  string  true   "Text to speak"
// @Param    voiceName  query  string  false  "Voice name"  default(en-US-AvaMultilingualNeural)
// @Success  200  {file}    binary
// @Failure  400  {object}  apperr.Envelope
// @Failure  502  {object}  apperr.Envelope
// @Router   /api/v1/speech/simple [get]
func (t *Transport) handleSimple(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	text := q.Get(message.ParamText)
	if strings.TrimSpace(text) == "" {
		return apperr.Validation(message.ParamText, "must not be empty")
	}
	voice := q.Get(message.ParamVoiceName)
	if voice == "" {
		voice = message.DefaultSpeechVoice
	}
	return t.streamSpeech(w, r, message.SpeechParams{
		Text:      text,
		VoiceName: voice,
		Rate:      message.DefaultSpeechRate,
		Language:  voiceLanguage(voice),
	})
}

// streamSpeech writes the audio of p as a chunked response. Headers go out
// with the first chunk so validation and engine failures still reach the
// client as an envelope.
func (t *Transport) streamSpeech(w http.ResponseWriter, r *http.Request, p message.SpeechParams) error {
	started := false
	start := func() {
		started = true
		h := w.Header()
		h.Set("Content-Type", t.opts.Coach.ContentType())
		h.Set("Cache-Control", "no-store")
		h.Set("X-Tts-Rate", strconv.FormatFloat(p.Rate, 'f', -1, 64))
		h.Set("X-Tts-Lang", p.Language)
		h.Set("X-Tts-Voice", p.VoiceName)
		h.Set("X-Tts-Style", p.Style)
		h.Set("X-Tts-Text", url.QueryEscape(headRunes(p.Text, maxTextHeaderRunes)))
		w.WriteHeader(http.StatusOK)
	}

	rc := http.NewResponseController(w)
	for chunk, err := range t.opts.Coach.Speak(r.Context(), p) {
		if err != nil {
			return err
		}
		if !started {
			start()
		}
		if _, werr := w.Write(chunk.Data); werr != nil {
			slog.DebugContext(r.Context(), "client went away", "seq", chunk.Seq, "error", werr)
			return nil
		}
		_ = rc.Flush()
	}
	if !started {
		start()
	}
	return nil
}

// handleWebSocket streams speech over a WebSocket.
//
// @Summary     Stream speech over WebSocket
// @Description Same parameters as /api/v1/speech/ssml. Each chunk is a binary frame; a failure after the
// @Description upgrade sends the error envelope as a text frame before closing.
// @Tags        speech
// @Param       text             query  string   true   "Text to speak"
// @Param       voiceName        query  string   false  "Voice name"
// @Param       rate             query  number   false  "Speaking rate multiplier"
// @Param       language         query  string   false  "BCP-47 language"
// @Param       style            query  string   false  "Expressive style"
// @Param       streamChunkSize  query  integer  false  "Chunk size in bytes"
// @Success     101
// @Failure     400  {object}  apperr.Envelope
// @Router      /api/v1/speech/ws [get]
func (t *Transport) handleWebSocket(w http.ResponseWriter, r *http.Request) error {
	p, err := message.ParseSpeechParams(r.URL.Query())
	if err != nil {
		return err
	}

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return nil
	}
	defer conn.Close()

	for chunk, err := range t.opts.Coach.Speak(r.Context(), p) {
		if err != nil {
			env := t.envelope(r, err)
			payload, _ := json.Marshal(env)
			_ = conn.WriteMessage(websocket.TextMessage, payload)
			closeWS(conn, websocket.CloseInternalServerErr, string(env.Kind))
			return nil
		}
		if werr := conn.WriteMessage(websocket.BinaryMessage, chunk.Data); werr != nil {
			slog.DebugContext(r.Context(), "websocket client went away", "seq", chunk.Seq, "error", werr)
			return nil
		}
	}
	closeWS(conn, websocket.CloseNormalClosure, "")
	return nil
}

func closeWS(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

type voicesResponse struct {
	Voices []catalog.Voice `json:"voices"`
	Styles []string        `json:"styles"`
}

// handleVoices lists the voice and style catalog.
//
// @Summary  List voices and styles
// @Tags     speech
// @Produce  json
// @Success  200  {object}  voicesResponse
// @Router   /api/v1/speech/voices [get]
func (t *Transport) handleVoices(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, voicesResponse{
		Voices: catalog.Voices(),
		Styles: catalog.Styles(),
	})
	return nil
}

// voiceLanguage derives the locale from a voice name such as en-GB-AdaNeural.
func voiceLanguage(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return message.DefaultSpeechLanguage
	}
	return parts[0] + "-" + parts[1]
}

func headRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
