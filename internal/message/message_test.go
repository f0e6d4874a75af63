package message

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcheck/fitcheck/internal/apperr"
)

func TestCoachingRequestLegacyFields(t *testing.T) {
	var req CoachingRequest
	err := json.Unmarshal([]byte(`{"position":"squat","advice":"knees in","gender":"male","character":"strict","language":"en-US"}`), &req)
	require.NoError(t, err)

	assert.Equal(t, "squat", req.Position)
	assert.Equal(t, "knees in", req.Interpretation)
	assert.Equal(t, "strict", req.Persona)
	assert.Equal(t, GenderMale, req.Gender)
}

func TestCoachingRequestCurrentFieldsWin(t *testing.T) {
	var req CoachingRequest
	err := json.Unmarshal([]byte(`{"interpretation":"new","advice":"old","persona":"calm","character":"loud","streamChunkSize":4800}`), &req)
	require.NoError(t, err)

	assert.Equal(t, "new", req.Interpretation)
	assert.Equal(t, "calm", req.Persona)
	assert.Equal(t, 4800, req.StreamChunkSize)
}

func TestAdviceFormat(t *testing.T) {
	a := Advice{Rate: 1.25, Mood: "excited", Text: "Keep your back straight. <break/> Great!"}
	assert.Equal(t, "1.25\nexcited\nKeep your back straight. <break/> Great!", a.Format())

	a.Rate = 2
	assert.Equal(t, "2\nexcited\nKeep your back straight. <break/> Great!", a.Format())
}

func TestSpeechParamsRoundTrip(t *testing.T) {
	in := SpeechParams{
		Text:            "ให้ยกแขนซ้าย <break/> สู้ๆ! & more",
		VoiceName:       "en-US-AvaMultilingualNeural",
		Rate:            1.25,
		Language:        "th-TH",
		Style:           "cheerful",
		StreamChunkSize: 4096,
	}

	encoded := in.Query().Encode()
	q, err := url.ParseQuery(encoded)
	require.NoError(t, err)

	out, err := ParseSpeechParams(q)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestParseSpeechParamsDefaults(t *testing.T) {
	p, err := ParseSpeechParams(url.Values{"text": {"hello"}})
	require.NoError(t, err)

	assert.Equal(t, DefaultSpeechVoice, p.VoiceName)
	assert.Equal(t, DefaultSpeechLanguage, p.Language)
	assert.InDelta(t, 1.0, p.Rate, 1e-9)
	assert.Empty(t, p.Style)
	assert.Zero(t, p.StreamChunkSize)
}

func TestParseSpeechParamsLegacyNames(t *testing.T) {
	p, err := ParseSpeechParams(url.Values{
		"text":        {"hello"},
		"voice_name":  {"en-GB-OllieMultilingualNeural"},
		"lang":        {"en-GB"},
		"stream_size": {"1024"},
	})
	require.NoError(t, err)

	assert.Equal(t, "en-GB-OllieMultilingualNeural", p.VoiceName)
	assert.Equal(t, "en-GB", p.Language)
	assert.Equal(t, 1024, p.StreamChunkSize)
}

func TestParseSpeechParamsErrors(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		field string
	}{
		{"missing text", url.Values{}, ParamText},
		{"bad rate", url.Values{"text": {"hi"}, "rate": {"fast"}}, ParamRate},
		{"bad chunk size", url.Values{"text": {"hi"}, "streamChunkSize": {"big"}}, ParamChunkSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpeechParams(tt.query)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
