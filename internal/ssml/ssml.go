// Package ssml renders Speech Synthesis Markup for coaching advice.
package ssml

import (
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"github.com/fitcheck/fitcheck/internal/apperr"
	"github.com/fitcheck/fitcheck/internal/catalog"
	"github.com/fitcheck/fitcheck/internal/message"
)

// Rate bounds accepted by the composer, as a multiple of the voice's normal
// speaking rate.
const (
	MinRate = 0.1
	MaxRate = 3.0
)

const (
	namespace      = "http://www.w3.org/2001/10/synthesis"
	namespaceMSTTS = "https://www.w3.org/2001/mstts"
)

// Compose renders an SSML document speaking advice with voiceName in
// language. rateOverride, when non-nil, replaces advice.Rate. The advice text
// is embedded verbatim so pause markers such as <break/> stay markup.
func Compose(advice message.Advice, voiceName, language string, rateOverride *float64) (string, error) {
	rate := advice.Rate
	if rateOverride != nil {
		rate = *rateOverride
	}
	if err := Validate(voiceName, language, advice.Mood, rate); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(`<speak version="1.0" xmlns="` + namespace + `" xmlns:mstts="` + namespaceMSTTS + `" xml:lang="`)
	sb.WriteString(attr(language))
	sb.WriteString(`"><voice name="`)
	sb.WriteString(attr(voiceName))
	sb.WriteString(`">`)
	if advice.Mood != "" {
		sb.WriteString(`<mstts:express-as style="`)
		sb.WriteString(attr(advice.Mood))
		sb.WriteString(`">`)
	}
	sb.WriteString(`<prosody rate="`)
	sb.WriteString(strconv.FormatFloat(rate, 'f', -1, 64))
	sb.WriteString(`">`)
	sb.WriteString(advice.Text)
	sb.WriteString(`</prosody>`)
	if advice.Mood != "" {
		sb.WriteString(`</mstts:express-as>`)
	}
	sb.WriteString(`</voice></speak>`)
	return sb.String(), nil
}

// Validate checks synthesis parameters against the catalog and rate bounds.
// An empty style is allowed and means no expressive style.
func Validate(voiceName, language, style string, rate float64) error {
	if !catalog.IsVoice(voiceName) {
		return apperr.Validation(message.ParamVoiceName, "unknown voice %q", voiceName)
	}
	if strings.TrimSpace(language) == "" {
		return apperr.Validation(message.ParamLanguage, "must not be empty")
	}
	if math.IsNaN(rate) || rate < MinRate || rate > MaxRate {
		return apperr.Validation(message.ParamRate, "%v is outside [%v, %v]", rate, MinRate, MaxRate)
	}
	if style != "" && !catalog.IsStyle(style) {
		return apperr.Validation(message.ParamStyle, "unknown style %q", style)
	}
	return nil
}

// StripMarkup removes SSML elements from text, leaving the words a plain
// text engine should speak. Pause markers become single spaces.
func StripMarkup(text string) string {
	var sb strings.Builder
	d := xml.NewDecoder(strings.NewReader("<t>" + text + "</t>"))
	d.Strict = false
	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if t.Name.Local == "break" {
				sb.WriteByte(' ')
			}
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}
