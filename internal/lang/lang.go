// Package lang maps user-supplied language codes to the locale and
// neural-voice identifiers the speech services understand.
package lang

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	DefaultLocale = "en-US"
	DefaultVoice  = "en-US-JennyNeural"
)

var canonical = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)

// locales is the closed set of supported short codes.
var locales = map[string]string{
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

// voices is the closed locale-to-neural-voice table.
var voices = map[string]string{
	"en-US": "en-US-JennyNeural",
	"es-ES": "es-ES-ElviraNeural",
	"hi-IN": "hi-IN-SwaraNeural",
	"mr-IN": "mr-IN-AarohiNeural",
	"bn-IN": "bn-IN-BashkarNeural",
	"ta-IN": "ta-IN-PallaviNeural",
	"te-IN": "te-IN-ShrutiNeural",
	"ml-IN": "ml-IN-SobhanaNeural",
	"kn-IN": "kn-IN-SapnaNeural",
	"pa-IN": "pa-IN-GulNeural",
	"gu-IN": "gu-IN-DhwaniNeural",
	"ur-IN": "ur-IN-GulNeural",
}

// Normalize maps a short (2-letter) or canonical (xx-YY) language code to a
// canonical locale. Unknown or empty codes fall back to DefaultLocale.
// It never fails the caller.
func Normalize(code string) string {
	if code == "" {
		return DefaultLocale
	}
	if canonical.MatchString(code) {
		return code
	}
	if locale, ok := locales[strings.ToLower(strings.TrimSpace(code))]; ok {
		return locale
	}
	log.Warn().Str("module", "lang").Str("code", code).Msg("unknown language code, using default")
	return DefaultLocale
}

// VoiceFor returns the neural voice for a canonical locale, falling back to
// the default locale's voice on a miss.
func VoiceFor(locale string) string {
	if voice, ok := voices[locale]; ok {
		return voice
	}
	log.Warn().Str("module", "lang").Str("locale", locale).Msg("no voice for locale, using default")
	return DefaultVoice
}

// Base returns the language-only subtag of a locale ("te-IN" -> "te").
// The translation service works on base languages, not full locales.
func Base(locale string) string {
	if i := strings.IndexByte(locale, '-'); i >= 0 {
		return locale[:i]
	}
	return locale
}
