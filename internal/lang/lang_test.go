package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeShortCodes(t *testing.T) {
	cases := map[string]string{
		"en": "en-US",
		"es": "es-ES",
		"hi": "hi-IN",
		"mr": "mr-IN",
		"bn": "bn-IN",
		"ta": "ta-IN",
		"te": "te-IN",
		"ml": "ml-IN",
		"kn": "kn-IN",
		"pa": "pa-IN",
		"gu": "gu-IN",
		"ur": "ur-IN",
	}
	for code, want := range cases {
		assert.Equal(t, want, Normalize(code), "code %q", code)
	}
}

func TestNormalizeCanonicalIsIdentity(t *testing.T) {
	assert.Equal(t, "te-IN", Normalize("te-IN"))
	assert.Equal(t, "fr-FR", Normalize("fr-FR"))
}

func TestNormalizeFallback(t *testing.T) {
	assert.Equal(t, DefaultLocale, Normalize(""))
	assert.Equal(t, DefaultLocale, Normalize("zz"))
	assert.Equal(t, DefaultLocale, Normalize("nonsense"))
}

func TestNormalizeTrimsAndLowercases(t *testing.T) {
	assert.Equal(t, "hi-IN", Normalize(" HI "))
}

func TestVoiceFor(t *testing.T) {
	assert.Equal(t, "te-IN-ShrutiNeural", VoiceFor("te-IN"))
	assert.Equal(t, "es-ES-ElviraNeural", VoiceFor("es-ES"))
	assert.Equal(t, "en-US-JennyNeural", VoiceFor("en-US"))
	assert.Equal(t, DefaultVoice, VoiceFor("fr-FR"))
}

func TestBase(t *testing.T) {
	assert.Equal(t, "te", Base("te-IN"))
	assert.Equal(t, "en", Base("en-US"))
	assert.Equal(t, "en", Base("en"))
}
