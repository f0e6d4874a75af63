// Package catalog holds the static voice and expressive-style tables used to
// validate synthesis input.
//
// The tables are built once at package initialization and never mutated, so
// they are safe for unsynchronized concurrent reads.
package catalog

import (
	"slices"
	"strings"
)

// Gender classifies a voice.
type Gender string

const (
	Male    Gender = "male"
	Female  Gender = "female"
	Neutral Gender = "neutral"
)

// Voice is one entry of the voice catalog.
type Voice struct {
	Name   string `json:"name"`
	Gender Gender `json:"gender"`
}

// DefaultStyle is used whenever a mood is absent or not a known style.
const DefaultStyle = "assistant"

// Default voices per requested coach gender.
const (
	DefaultFemaleVoice = "en-US-AvaMultilingualNeural"
	DefaultMaleVoice   = "en-US-AndrewMultilingualNeural"
)

var voiceList = []Voice{
	{"en-US-AmandaMultilingualNeural", Female},
	{"en-US-AndrewMultilingualNeural", Male},
	{"en-US-AdamMultilingualNeural", Male},
	{"en-US-AvaMultilingualNeural", Female},
	{"en-US-BrandonMultilingualNeural", Male},
	{"en-US-BrianMultilingualNeural", Male},
	{"en-US-ChristopherMultilingualNeural", Male},
	{"en-US-CoraMultilingualNeural", Female},
	{"en-US-DavisMultilingualNeural", Male},
	{"en-US-DerekMultilingualNeural", Male},
	{"en-US-DustinMultilingualNeural", Male},
	{"en-US-EmmaMultilingualNeural", Female},
	{"en-US-EvelynMultilingualNeural", Female},
	{"en-US-LewisMultilingualNeural", Male},
	{"en-US-LolaMultilingualNeural", Female},
	{"en-US-NancyMultilingualNeural", Female},
	{"en-US-PhoebeMultilingualNeural", Female},
	{"en-US-SamuelMultilingualNeural", Male},
	{"en-US-SerenaMultilingualNeural", Female},
	{"en-US-SteffanMultilingualNeural", Male},
	{"en-US-AlloyTurboMultilingualNeural", Male},
	{"en-US-EchoTurboMultilingualNeural", Male},
	{"en-US-FableTurboMultilingualNeural", Neutral},
	{"en-US-NovaTurboMultilingualNeural", Female},
	{"en-US-OnyxTurboMultilingualNeural", Male},
	{"en-US-ShimmerTurboMultilingualNeural", Female},
	{"en-GB-AdaMultilingualNeural", Female},
	{"en-GB-OllieMultilingualNeural", Male},
	{"de-DE-SeraphinaMultilingualNeural", Female},
	{"de-DE-FlorianMultilingualNeural", Male},
	{"es-ES-ArabellaMultilingualNeural", Female},
	{"es-ES-IsidoraMultilingualNeural", Female},
	{"es-ES-TristanMultilingualNeural", Male},
	{"es-ES-XimenaMultilingualNeural", Female},
	{"fr-FR-LucienMultilingualNeural", Male},
	{"fr-FR-VivienneMultilingualNeural", Female},
	{"fr-FR-RemyMultilingualNeural", Male},
	{"it-IT-AlessioMultilingualNeural", Male},
	{"it-IT-GiuseppeMultilingualNeural", Male},
	{"it-IT-IsabellaMultilingualNeural", Female},
	{"it-IT-MarcelloMultilingualNeural", Male},
	{"ja-JP-MasaruMultilingualNeural", Male},
	{"ko-KR-HyunsuMultilingualNeural", Male},
	{"pt-BR-MacerioMultilingualNeural", Male},
	{"pt-BR-ThalitaMultilingualNeural", Female},
	{"zh-CN-XiaoxiaoMultilingualNeural", Female},
	{"zh-CN-XiaochenMultilingualNeural", Female},
	{"zh-CN-XiaoyuMultilingualNeural", Female},
	{"zh-CN-YunyiMultilingualNeural", Male},
	{"zh-CN-YunfanMultilingualNeural", Male},
	{"zh-CN-YunxiaoMultilingualNeural", Male},
	{"en-US-AlloyMultilingualNeural3", Male},
	{"en-US-EchoMultilingualNeural3", Male},
	{"en-US-FableMultilingualNeural3", Neutral},
	{"en-US-OnyxMultilingualNeural3", Male},
	{"en-US-NovaMultilingualNeural3", Female},
	{"en-US-ShimmerMultilingualNeural3", Female},
	{"en-US-AlloyMultilingualNeuralHD3", Male},
	{"en-US-EchoMultilingualNeuralHD3", Male},
	{"en-US-FableMultilingualNeuralHD3", Neutral},
	{"en-US-OnyxMultilingualNeuralHD3", Male},
	{"en-US-NovaMultilingualNeuralHD3", Female},
	{"en-US-ShimmerMultilingualNeuralHD3", Female},
	{"en-US-JennyMultilingualNeural2", Female},
	{"en-US-RyanMultilingualNeural2", Male},
}

var styleList = []string{
	"advertisement_upbeat",
	"affectionate",
	"angry",
	"assistant",
	"calm",
	"chat",
	"cheerful",
	"customerservice",
	"depressed",
	"disgruntled",
	"documentary-narration",
	"embarrassed",
	"empathetic",
	"envious",
	"excited",
	"fearful",
	"friendly",
	"gentle",
	"hopeful",
	"lyrical",
	"narration-professional",
	"narration-relaxed",
	"newscast",
	"newscast-casual",
	"newscast-formal",
	"poetry-reading",
	"sad",
	"serious",
	"shouting",
	"sports_commentary",
	"sports_commentary_excited",
	"whispering",
	"terrified",
	"unfriendly",
}

var (
	voicesByName = indexVoices(voiceList)
	styleSet     = indexStyles(styleList)
)

func indexVoices(list []Voice) map[string]Voice {
	m := make(map[string]Voice, len(list))
	for _, v := range list {
		m[v.Name] = v
	}
	return m
}

func indexStyles(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, s := range list {
		m[s] = struct{}{}
	}
	return m
}

// LookupVoice returns the catalog entry for name.
func LookupVoice(name string) (Voice, bool) {
	v, ok := voicesByName[name]
	return v, ok
}

// IsVoice reports whether name is a known voice.
func IsVoice(name string) bool {
	_, ok := voicesByName[name]
	return ok
}

// IsStyle reports whether s is a known expressive style.
func IsStyle(s string) bool {
	_, ok := styleSet[s]
	return ok
}

// ResolveStyle returns s when it is a known style, or DefaultStyle.
// Matching ignores surrounding whitespace and case.
func ResolveStyle(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if IsStyle(s) {
		return s
	}
	return DefaultStyle
}

// DefaultVoice returns the voice used when a coaching request names none.
func DefaultVoice(g Gender) string {
	if g == Male {
		return DefaultMaleVoice
	}
	return DefaultFemaleVoice
}

// Voices returns a copy of the voice catalog in declaration order.
func Voices() []Voice {
	return slices.Clone(voiceList)
}

// VoicesByGender returns the voices classified as g.
func VoicesByGender(g Gender) []Voice {
	var out []Voice
	for _, v := range voiceList {
		if v.Gender == g {
			out = append(out, v)
		}
	}
	return out
}

// Styles returns a copy of the style set in declaration order.
func Styles() []string {
	return slices.Clone(styleList)
}
