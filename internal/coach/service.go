// Package coach turns exercise observations into spoken coaching advice.
//
// The Service runs the advice pipeline (prompt, completion, extraction) and
// prepares streaming synthesis of the resulting text. Every failure is one of
// the apperr kinds; extraction itself never fails.
package coach

import (
	"context"
	"iter"
	"log/slog"
	"strings"
	"time"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/catalog"
	"github.com/fitcheck/fitcheck/internal/message"
	"github.com/fitcheck/fitcheck/internal/speech"
	"github.com/fitcheck/fitcheck/internal/ssml"
)

// SpeechPath is the route of the streaming endpoint playback URLs point at.
const SpeechPath = "/api/v1/speech/ssml"

// Completer is the subset of completion.Gateway the service needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, images []string) (string, error)
}

// Service is the coaching pipeline.
type Service struct {
	completer Completer
	proxy     *speech.Proxy
	publicURL string
}

// NewService creates a Service. publicURL prefixes playback URLs; empty
// yields host-relative URLs.
func NewService(completer Completer, proxy *speech.Proxy, publicURL string) *Service {
	return &Service{
		completer: completer,
		proxy:     proxy,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// Advise generates coaching advice for req and a URL that streams it as speech.
func (s *Service) Advise(ctx context.Context, req message.CoachingRequest) (message.AdviceResponse, error) {
	start := time.Now()
	logger := slog.With("language", req.Language, "gender", req.Gender)

	voice, err := resolveVoice(req)
	if err != nil {
		return message.AdviceResponse{}, err
	}
	if _, err := s.proxy.ChunkSize(req.StreamChunkSize); err != nil {
		return message.AdviceResponse{}, err
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return message.AdviceResponse{}, err
	}

	raw, err := s.completer.Complete(ctx, prompt.System, prompt.User, nil)
	if err != nil {
		logger.Error("completion failed", "error", err)
		return message.AdviceResponse{}, err
	}

	advice := Extract(raw)
	mood := catalog.ResolveStyle(advice.Mood)
	if mood != advice.Mood {
		logger.Debug("mood replaced", "model_mood", advice.Mood, "style", mood)
	}
	rate := min(max(advice.Rate, ssml.MinRate), ssml.MaxRate)

	params := message.SpeechParams{
		Text:            advice.Text,
		VoiceName:       voice,
		Rate:            rate,
		Language:        req.Language,
		Style:           mood,
		StreamChunkSize: req.StreamChunkSize,
	}

	logger.Info("advice generated", "rate", rate, "mood", mood, "voice", voice, "duration", time.Since(start))
	return message.AdviceResponse{
		Rate:   rate,
		Mood:   mood,
		Advice: advice.Text,
		URL:    s.publicURL + SpeechPath + "?" + params.Query().Encode(),
	}, nil
}

// SpeechRequest validates p and renders it into an engine request.
func (s *Service) SpeechRequest(p message.SpeechParams) (speech.Request, error) {
	advice := message.Advice{Rate: p.Rate, Mood: p.Style, Text: p.Text}
	doc, err := ssml.Compose(advice, p.VoiceName, p.Language, nil)
	if err != nil {
		return speech.Request{}, err
	}
	return speech.Request{
		SSML:     doc,
		Text:     p.Text,
		Voice:    p.VoiceName,
		Language: p.Language,
		Style:    p.Style,
		Rate:     p.Rate,
	}, nil
}

// Speak streams p as synthesized audio. Validation failures are yielded
// before any chunk.
func (s *Service) Speak(ctx context.Context, p message.SpeechParams) iter.Seq2[speech.AudioChunk, error] {
	req, err := s.SpeechRequest(p)
	if err != nil {
		return func(yield func(speech.AudioChunk, error) bool) {
			yield(speech.AudioChunk{}, err)
		}
	}
	return s.proxy.Stream(ctx, req, p.StreamChunkSize)
}

// ContentType is the MIME type of the configured engine's audio.
func (s *Service) ContentType() string { return s.proxy.Engine().ContentType() }

// resolveVoice returns the explicit voice of req, or the catalog default for
// its gender.
func resolveVoice(req message.CoachingRequest) (string, error) {
	if req.VoiceName != "" {
		if !catalog.IsVoice(req.VoiceName) {
			return "", apperr.Validation(message.ParamVoiceName, "unknown voice %q", req.VoiceName)
		}
		return req.VoiceName, nil
	}
	return catalog.DefaultVoice(catalog.Gender(req.Gender)), nil
}
