package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupVoice(t *testing.T) {
	v, ok := LookupVoice("en-US-AvaMultilingualNeural")
	require.True(t, ok)
	assert.Equal(t, Female, v.Gender)

	v, ok = LookupVoice("en-US-FableMultilingualNeuralHD3")
	require.True(t, ok)
	assert.Equal(t, Neutral, v.Gender)

	_, ok = LookupVoice("en-US-NotARealVoice")
	assert.False(t, ok)
}

func TestVoiceNamesAreUnique(t *testing.T) {
	assert.Len(t, voicesByName, len(voiceList))
}

func TestGenderPartition(t *testing.T) {
	total := len(VoicesByGender(Male)) + len(VoicesByGender(Female)) + len(VoicesByGender(Neutral))
	assert.Equal(t, len(Voices()), total)
	assert.Len(t, VoicesByGender(Neutral), 3)
}

func TestDefaultVoicesExist(t *testing.T) {
	for _, g := range []Gender{Male, Female} {
		v, ok := LookupVoice(DefaultVoice(g))
		require.True(t, ok, "default voice for %s missing", g)
		assert.Equal(t, g, v.Gender)
	}
}

func TestResolveStyle(t *testing.T) {
	assert.Equal(t, "cheerful", ResolveStyle("cheerful"))
	assert.Equal(t, "excited", ResolveStyle(" Excited "))
	assert.Equal(t, DefaultStyle, ResolveStyle("power-up"))
	assert.Equal(t, DefaultStyle, ResolveStyle(""))
	assert.True(t, IsStyle(DefaultStyle))
}

func TestAccessorsReturnCopies(t *testing.T) {
	styles := Styles()
	styles[0] = "mutated"
	assert.NotEqual(t, "mutated", Styles()[0])

	voices := Voices()
	voices[0].Name = "mutated"
	assert.NotEqual(t, "mutated", Voices()[0].Name)
}
