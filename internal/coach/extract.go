package coach

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fitcheck/fitcheck/internal/catalog"
	"github.com/fitcheck/fitcheck/internal/message"
)

const (
	outputOpen  = "<output>"
	outputClose = "</output>"
	fence       = "```"
)

// Defaults substituted for fields the completion did not provide.
const (
	DefaultRate   = 1.0
	DefaultAdvice = "Great!"
)

// framing names the delimiter strategy that located the payload.
type framing int

const (
	framingNone framing = iota
	framingOutputTag
	framingJSON
	framingYAML
	framingFence
)

// Extract parses a raw completion into Advice. It never fails: fields that
// cannot be recovered fall back to DefaultRate, catalog.DefaultStyle and
// DefaultAdvice. The mood is returned as the model wrote it.
func Extract(raw string) message.Advice {
	payload, kind := locatePayload(raw)

	if a, ok := decodeStructured(payload, kind); ok {
		return a
	}
	return parseLines(payload)
}

// locatePayload applies the delimiter strategies in priority order; only the
// first match is used.
func locatePayload(text string) (string, framing) {
	switch {
	case strings.Contains(text, outputOpen):
		return between(text, outputOpen, outputClose), framingOutputTag
	case strings.Contains(text, fence+"json"):
		return between(text, fence+"json", fence), framingJSON
	case strings.Contains(text, fence+"yaml"):
		return between(text, fence+"yaml", fence), framingYAML
	case strings.Contains(text, fence+"yml"):
		return between(text, fence+"yml", fence), framingYAML
	case strings.Contains(text, fence):
		return between(text, fence, fence), framingFence
	default:
		return strings.TrimSpace(text), framingNone
	}
}

// between returns the trimmed text after the first open up to the next
// close, or to the end of text when close is missing.
func between(text, open, close string) string {
	_, after, _ := strings.Cut(text, open)
	body, _, _ := strings.Cut(after, close)
	return strings.TrimSpace(body)
}

// structuredAdvice is the object form some completions use instead of the
// line framing.
type structuredAdvice struct {
	Rate   any    `json:"rate" yaml:"rate"`
	Mood   string `json:"mood" yaml:"mood"`
	Advice string `json:"advice" yaml:"advice"`
}

func decodeStructured(payload string, kind framing) (message.Advice, bool) {
	var s structuredAdvice
	switch {
	case strings.HasPrefix(payload, "{"):
		if err := json.Unmarshal([]byte(payload), &s); err != nil {
			return message.Advice{}, false
		}
	case kind == framingYAML:
		var probe map[string]any
		if err := yaml.Unmarshal([]byte(payload), &probe); err != nil || !hasAdviceKey(probe) {
			return message.Advice{}, false
		}
		if err := yaml.Unmarshal([]byte(payload), &s); err != nil {
			return message.Advice{}, false
		}
	default:
		return message.Advice{}, false
	}

	a := message.Advice{
		Rate: parseRate(s.Rate),
		Mood: strings.TrimSpace(s.Mood),
		Text: s.Advice,
	}
	if a.Mood == "" {
		a.Mood = catalog.DefaultStyle
	}
	if a.Text == "" {
		a.Text = DefaultAdvice
	}
	return a, true
}

func hasAdviceKey(m map[string]any) bool {
	for _, k := range []string{"rate", "mood", "advice"} {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// parseLines applies the line grammar: rate, mood, then everything else as
// advice text. Only the first two line breaks are significant.
func parseLines(payload string) message.Advice {
	lines := strings.SplitN(payload, "\n", 3)

	a := message.Advice{
		Rate: parseRate(lines[0]),
		Mood: catalog.DefaultStyle,
		Text: DefaultAdvice,
	}
	if len(lines) > 1 {
		if mood := strings.TrimSpace(lines[1]); mood != "" {
			a.Mood = mood
		}
	}
	if len(lines) > 2 && lines[2] != "" {
		a.Text = lines[2]
	}
	return a
}

func parseRate(v any) float64 {
	var (
		rate float64
		err  error
	)
	switch x := v.(type) {
	case float64:
		rate = x
	case int:
		rate = float64(x)
	case string:
		rate, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return DefaultRate
	}
	if err != nil || rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return DefaultRate
	}
	return rate
}
