package coach

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/catalog"
	"github.com/fitcheck/fitcheck/internal/message"
)

func validRequest() message.CoachingRequest {
	return message.CoachingRequest{
		Position:       "Overhead press: the weight is pressed overhead from shoulder level.",
		Interpretation: "Left arm: low. Right arm: OK.",
		Gender:         message.GenderFemale,
		Persona:        "cheerful and energetic",
		Language:       "th-TH",
	}
}

func TestBuildPromptSystem(t *testing.T) {
	p, err := BuildPrompt(validRequest())
	require.NoError(t, err)

	assert.Contains(t, p.System, "Your character is female, cheerful and energetic.")
	assert.Contains(t, p.System, "Advice must be in th-TH language.")
	assert.Contains(t, p.System, strings.Join(catalog.Styles(), ", "))
	assert.Contains(t, p.System, "<output>\n"+exampleEnglish.Format()+"\n</output>")
	assert.Contains(t, p.System, "<output>\n"+exampleThai.Format()+"\n</output>")
	assert.Contains(t, p.System, `in "excited" mood:`)
}

func TestBuildPromptUser(t *testing.T) {
	req := validRequest()
	req.Position = "squat <deep>"

	p, err := BuildPrompt(req)
	require.NoError(t, err)

	assert.Equal(t, "<position>squat <deep></position><interpret>Left arm: low. Right arm: OK.</interpret>", p.User)
}

func TestBuildPromptValidation(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*message.CoachingRequest)
	}{
		{"position", func(r *message.CoachingRequest) { r.Position = "" }},
		{"interpretation", func(r *message.CoachingRequest) { r.Interpretation = "  " }},
		{"gender", func(r *message.CoachingRequest) { r.Gender = "" }},
		{"gender", func(r *message.CoachingRequest) { r.Gender = "robot" }},
		{"persona", func(r *message.CoachingRequest) { r.Persona = "" }},
		{"language", func(r *message.CoachingRequest) { r.Language = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := BuildPrompt(req)

			var ve *apperr.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
