package coach

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/catalog"
	"github.com/fitcheck/fitcheck/internal/message"
	"github.com/fitcheck/fitcheck/internal/speech"
)

type fakeCompleter struct {
	reply  string
	err    error
	system string
	user   string
	calls  int
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt string, _ []string) (string, error) {
	f.calls++
	f.system, f.user = systemPrompt, userPrompt
	return f.reply, f.err
}

type stringEngine struct {
	audio string
	got   speech.Request
}

func (e *stringEngine) Name() string        { return "string" }
func (e *stringEngine) ContentType() string { return "audio/mpeg" }
func (e *stringEngine) Close() error        { return nil }

func (e *stringEngine) Synthesize(_ context.Context, req speech.Request) (speech.AudioStream, error) {
	e.got = req
	return &stringStream{r: strings.NewReader(e.audio)}, nil
}

type stringStream struct{ r io.Reader }

func (s *stringStream) Read(p []byte) (int, error)         { return s.r.Read(p) }
func (s *stringStream) Cancellation() *speech.Cancellation { return nil }
func (s *stringStream) ContentType() string                { return "audio/mpeg" }
func (s *stringStream) Close() error                       { return nil }

func newTestService(c Completer, e speech.Engine) *Service {
	return NewService(c, speech.NewProxy(e, 0), "https://coach.example.com/")
}

func TestAdviseFemaleThai(t *testing.T) {
	completer := &fakeCompleter{reply: "<output>\n1.2\ncheerful\nยกแขนซ้ายขึ้นอีกนิด <break/> เก่งมาก!\n</output>"}
	svc := newTestService(completer, &stringEngine{})

	resp, err := svc.Advise(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, 1.2, resp.Rate)
	assert.Equal(t, "cheerful", resp.Mood)
	assert.True(t, catalog.IsStyle(resp.Mood))
	assert.Equal(t, "ยกแขนซ้ายขึ้นอีกนิด <break/> เก่งมาก!", resp.Advice)
	assert.Contains(t, completer.user, "<interpret>Left arm: low. Right arm: OK.</interpret>")

	u, err := url.Parse(resp.URL)
	require.NoError(t, err)
	assert.Equal(t, "coach.example.com", u.Host)
	assert.Equal(t, SpeechPath, u.Path)

	params, err := message.ParseSpeechParams(u.Query())
	require.NoError(t, err)
	assert.Equal(t, resp.Advice, params.Text)
	assert.Equal(t, catalog.DefaultFemaleVoice, params.VoiceName)
	assert.Equal(t, "th-TH", params.Language)
	assert.Equal(t, "cheerful", params.Style)
	assert.Equal(t, 1.2, params.Rate)

	// The playback URL is accepted by the streaming side.
	_, err = svc.SpeechRequest(params)
	require.NoError(t, err)
}

func TestAdviseUnknownMoodUsesDefaultStyle(t *testing.T) {
	svc := newTestService(&fakeCompleter{reply: "```json\n{\"advice\":\"Great!\",\"mood\":\"power-up\"}\n```"}, &stringEngine{})

	resp, err := svc.Advise(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, catalog.DefaultStyle, resp.Mood)
	assert.Equal(t, "Great!", resp.Advice)
	assert.Equal(t, 1.0, resp.Rate)
}

func TestAdviseClampsRate(t *testing.T) {
	svc := newTestService(&fakeCompleter{reply: "<output>9\nexcited\nFaster!</output>"}, &stringEngine{})

	resp, err := svc.Advise(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 3.0, resp.Rate)
}

func TestAdviseExplicitVoice(t *testing.T) {
	req := validRequest()
	req.Gender = message.GenderMale
	req.VoiceName = "en-GB-OllieMultilingualNeural"
	req.StreamChunkSize = 4800
	svc := newTestService(&fakeCompleter{reply: "1\ncalm\nok"}, &stringEngine{})

	resp, err := svc.Advise(context.Background(), req)
	require.NoError(t, err)

	u, _ := url.Parse(resp.URL)
	assert.Equal(t, "en-GB-OllieMultilingualNeural", u.Query().Get(message.ParamVoiceName))
	assert.Equal(t, "4800", u.Query().Get(message.ParamChunkSize))
}

func TestAdviseDefaultMaleVoice(t *testing.T) {
	req := validRequest()
	req.Gender = message.GenderMale
	svc := NewService(&fakeCompleter{reply: "1\ncalm\nok"}, speech.NewProxy(&stringEngine{}, 0), "")

	resp, err := svc.Advise(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.URL, SpeechPath+"?"))
	u, _ := url.Parse(resp.URL)
	assert.Equal(t, catalog.DefaultMaleVoice, u.Query().Get(message.ParamVoiceName))
}

func TestAdviseRejectsBeforeCompletion(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		mutate func(*message.CoachingRequest)
	}{
		{"unknown voice", message.ParamVoiceName, func(r *message.CoachingRequest) { r.VoiceName = "xx-XX-Nobody" }},
		{"chunk size", message.ParamChunkSize, func(r *message.CoachingRequest) { r.StreamChunkSize = -5 }},
		{"missing persona", "persona", func(r *message.CoachingRequest) { r.Persona = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{reply: "unused"}
			svc := newTestService(completer, &stringEngine{})
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Advise(context.Background(), req)

			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Zero(t, completer.calls)
		})
	}
}

func TestAdvisePropagatesUpstreamError(t *testing.T) {
	svc := newTestService(&fakeCompleter{err: &apperr.UpstreamError{StatusCode: 503, Err: errors.New("busy")}}, &stringEngine{})

	_, err := svc.Advise(context.Background(), validRequest())

	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestSpeakStreamsSSML(t *testing.T) {
	engine := &stringEngine{audio: "0123456789abcdef"}
	svc := newTestService(&fakeCompleter{}, engine)

	var got []byte
	for chunk, err := range svc.Speak(context.Background(), message.SpeechParams{
		Text:            "Push <break/> push",
		VoiceName:       "en-US-AvaMultilingualNeural",
		Rate:            1.5,
		Language:        "en-US",
		Style:           "excited",
		StreamChunkSize: 5,
	}) {
		require.NoError(t, err)
		assert.LessOrEqual(t, len(chunk.Data), 5)
		got = append(got, chunk.Data...)
	}

	assert.Equal(t, engine.audio, string(got))
	assert.Contains(t, engine.got.SSML, `<mstts:express-as style="excited"><prosody rate="1.5">Push <break/> push</prosody>`)
	assert.Equal(t, "Push <break/> push", engine.got.Text)
	assert.Equal(t, "audio/mpeg", svc.ContentType())
}

func TestSpeakRejectsUnknownStyle(t *testing.T) {
	engine := &stringEngine{audio: "x"}
	svc := newTestService(&fakeCompleter{}, engine)

	var errs []error
	for _, err := range svc.Speak(context.Background(), message.SpeechParams{
		Text: "hi", VoiceName: "en-US-AvaMultilingualNeural", Rate: 1, Language: "en-US", Style: "power-up",
	}) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	var ve *apperr.ValidationError
	require.True(t, errors.As(errs[0], &ve))
	assert.Equal(t, message.ParamStyle, ve.Field)
	assert.Empty(t, engine.got.SSML)
}
