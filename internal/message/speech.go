package message

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/fitcheck/fitcheck/internal/apperr"
)

// Defaults applied by ParseSpeechParams.
const (
	DefaultSpeechVoice    = "en-US-AvaMultilingualNeural"
	DefaultSpeechLanguage = "en-US"
	DefaultSpeechRate     = 1.0
)

// Query parameter names of the streaming endpoint.
const (
	ParamText      = "text"
	ParamVoiceName = "voiceName"
	ParamRate      = "rate"
	ParamLanguage  = "language"
	ParamStyle     = "style"
	ParamChunkSize = "streamChunkSize"
)

// legacyParams maps earlier query names onto the current ones.
var legacyParams = map[string]string{
	"voice_name":  ParamVoiceName,
	"lang":        ParamLanguage,
	"stream_size": ParamChunkSize,
}

// SpeechParams describes one streaming synthesis request.
type SpeechParams struct {
	Text      string
	VoiceName string
	Rate      float64
	Language  string
	Style     string

	// StreamChunkSize is zero when the server default applies.
	StreamChunkSize int
}

// Query encodes p as streaming endpoint query parameters.
func (p SpeechParams) Query() url.Values {
	q := url.Values{}
	q.Set(ParamText, p.Text)
	q.Set(ParamVoiceName, p.VoiceName)
	q.Set(ParamRate, strconv.FormatFloat(p.Rate, 'f', -1, 64))
	q.Set(ParamLanguage, p.Language)
	if p.Style != "" {
		q.Set(ParamStyle, p.Style)
	}
	if p.StreamChunkSize > 0 {
		q.Set(ParamChunkSize, strconv.Itoa(p.StreamChunkSize))
	}
	return q
}

// ParseSpeechParams decodes streaming endpoint query parameters. Only the
// syntax is checked here; catalog and range validation belong to the SSML
// composer.
func ParseSpeechParams(q url.Values) (SpeechParams, error) {
	get := func(name string) string {
		if v := q.Get(name); v != "" {
			return v
		}
		for legacy, current := range legacyParams {
			if current == name {
				if v := q.Get(legacy); v != "" {
					return v
				}
			}
		}
		return ""
	}

	p := SpeechParams{
		Text:      get(ParamText),
		VoiceName: get(ParamVoiceName),
		Rate:      DefaultSpeechRate,
		Language:  get(ParamLanguage),
		Style:     strings.TrimSpace(get(ParamStyle)),
	}
	if strings.TrimSpace(p.Text) == "" {
		return p, apperr.Validation(ParamText, "must not be empty")
	}
	if p.VoiceName == "" {
		p.VoiceName = DefaultSpeechVoice
	}
	if p.Language == "" {
		p.Language = DefaultSpeechLanguage
	}
	if raw := get(ParamRate); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return p, apperr.Validation(ParamRate, "%q is not a number", raw)
		}
		p.Rate = rate
	}
	if raw := get(ParamChunkSize); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return p, apperr.Validation(ParamChunkSize, "%q is not an integer", raw)
		}
		p.StreamChunkSize = size
	}
	return p, nil
}
