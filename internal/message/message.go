// Package message defines the core data types flowing through the coaching
// pipeline.
package message

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Gender of the coach persona.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the supported persona genders.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// CoachingRequest is the input of the advice endpoint.
type CoachingRequest struct {
	// Position describes the exercise being performed.
	Position string `json:"position" example:"Overhead press: the weight is pressed overhead from shoulder level."`

	// Interpretation describes the observed motion and its errors.
	Interpretation string `json:"interpretation" example:"Left arm: low. Right arm: OK."`

	// Gender of the coach persona.
	Gender Gender `json:"gender" enums:"male,female"`

	// Persona is a free-text description of the coach's character.
	Persona string `json:"persona" example:"cheerful"`

	// Language is the locale the advice must be written in (e.g. "th-TH").
	Language string `json:"language" example:"th-TH"`

	// VoiceName optionally pins the synthesis voice; it must exist in the catalog.
	VoiceName string `json:"voiceName,omitempty"`

	// StreamChunkSize optionally overrides the audio chunk size of the playback URL.
	StreamChunkSize int `json:"streamChunkSize,omitempty"`
}

// UnmarshalJSON accepts the legacy field names "advice" (for interpretation)
// and "character" (for persona) used by earlier clients.
func (r *CoachingRequest) UnmarshalJSON(data []byte) error {
	type plain CoachingRequest
	var aux struct {
		plain
		Advice    string `json:"advice"`
		Character string `json:"character"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = CoachingRequest(aux.plain)
	if r.Interpretation == "" {
		r.Interpretation = aux.Advice
	}
	if r.Persona == "" {
		r.Persona = aux.Character
	}
	return nil
}

// Advice is the typed result of parsing one completion.
type Advice struct {
	Rate float64 `json:"rate"`
	Mood string  `json:"mood"`
	Text string  `json:"advice"`
}

// Format renders the advice in the three-line framing the model is asked to emit.
func (a Advice) Format() string {
	return fmt.Sprintf("%s\n%s\n%s", strconv.FormatFloat(a.Rate, 'f', -1, 64), a.Mood, a.Text)
}

// AdviceResponse is the output of the advice endpoint.
type AdviceResponse struct {
	Rate   float64 `json:"rate"`
	Mood   string  `json:"mood"`
	Advice string  `json:"advice"`

	// URL streams the advice as speech.
	URL string `json:"url"`
}

// PromptRequest is the input of the plain prompt endpoints.
type PromptRequest struct {
	Prompt       string `json:"prompt"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}
