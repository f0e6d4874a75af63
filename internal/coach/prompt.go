package coach

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/catalog"
	"github.com/fitcheck/fitcheck/internal/message"
)

// Prompt is the rendered system and user prompt for one coaching request.
type Prompt struct {
	System string
	User   string
}

// Few-shot examples embedded in every system prompt.
var (
	exampleEnglish = message.Advice{
		Rate: 1.25,
		Mood: "excited",
		Text: "Keep your back straight and chest up. <break/> You're doing great!",
	}
	exampleThai = message.Advice{
		Rate: 2,
		Mood: "cheerful",
		Text: "Hey! <break/> แปด <break/> เก้า <break/> สิบ เก่งมาก!",
	}
)

// BuildPrompt renders the coaching prompts for req.
func BuildPrompt(req message.CoachingRequest) (Prompt, error) {
	if err := validateRequest(req); err != nil {
		return Prompt{}, err
	}
	system, err := buildSystemPrompt(string(req.Gender), req.Persona, req.Language)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{
		System: system,
		User:   buildUserPrompt(req.Position, req.Interpretation),
	}, nil
}

func validateRequest(req message.CoachingRequest) error {
	required := []struct {
		field string
		value string
	}{
		{"position", req.Position},
		{"interpretation", req.Interpretation},
		{"gender", string(req.Gender)},
		{"persona", req.Persona},
		{"language", req.Language},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Validation(r.field, "is required")
		}
	}
	if !req.Gender.Valid() {
		return apperr.Validation("gender", "must be %q or %q, got %q", message.GenderMale, message.GenderFemale, req.Gender)
	}
	return nil
}

var systemTemplate = template.Must(template.New("system").Parse(`Act as fitness coach.
Your character is {{.Gender}}, {{.Persona}}.
Give advice correct position and cheer-up to user from exercise <position> and motion <interpret> from input.
Give "advice" in 1 - 2 phrase/sentences with "mood" of trainer voice.
Adjust "rate" of speech to give tempo to trainee and depend on "mood" and correctness of trainee.
Use '<break/>' for 750ms pause between word - to emphasize, simulate coach breathing, or give tempo to trainee.
Advice must be in {{.Language}} language. Mix of English phrase and {{.Language}} is allowed.
Return in text in <output> tag - first line is "rate" of speech, second line is "mood", remain lines are "advice".

Here is choice of mood:
` + "```" + `
{{.Styles}}
` + "```" + `
{{range $i, $ex := .Examples}}{{if $i}}
{{end}}{{$ex.Label}} in "{{$ex.Advice.Mood}}" mood:
<output>
{{$ex.Advice.Format}}
</output>
{{end}}`))

type fewShot struct {
	Label  string
	Advice message.Advice
}

func buildSystemPrompt(gender, persona, language string) (string, error) {
	var sb strings.Builder
	err := systemTemplate.Execute(&sb, map[string]any{
		"Gender":   gender,
		"Persona":  persona,
		"Language": language,
		"Styles":   strings.Join(catalog.Styles(), ", "),
		"Examples": []fewShot{
			{Label: "Example advice in English", Advice: exampleEnglish},
			{Label: "Example advice in Thai with English", Advice: exampleThai},
		},
	})
	if err != nil {
		return "", fmt.Errorf("rendering system prompt: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func buildUserPrompt(position, interpretation string) string {
	return "<position>" + position + "</position><interpret>" + interpretation + "</interpret>"
}
