package azure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// voiceLocale extracts the locale prefix of a neural voice name
// ("te-IN-ShrutiNeural" -> "te-IN"). The SSML language must match the
// voice or Azure rejects the request.
var voiceLocale = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}`)

// Synthesizer calls the Azure TTS REST endpoint and returns headered WAV
// (riff-16khz-16bit-mono-pcm), ready to relay to recipients as-is.
type Synthesizer struct {
	Key      string
	Region   string
	Client   *http.Client
	endpoint string // overridable in tests
}

func NewSynthesizer(key, region string) *Synthesizer {
	return &Synthesizer{
		Key:      key,
		Region:   region,
		Client:   &http.Client{Timeout: 15 * time.Second},
		endpoint: fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
	}
}

func buildSSML(text, lang, voice string) string {
	var b strings.Builder
	b.WriteString(`<speak version='1.0' xml:lang='`)
	b.WriteString(lang)
	b.WriteString(`'><voice xml:lang='`)
	b.WriteString(lang)
	b.WriteString(`' name='`)
	b.WriteString(voice)
	b.WriteString(`'>`)
	b.WriteString(escapeSSML(text))
	b.WriteString(`</voice></speak>`)
	return b.String()
}

var ssmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeSSML(text string) string {
	return ssmlEscaper.Replace(text)
}

func (s *Synthesizer) Synthesize(ctx context.Context, text, locale, voice string) ([]byte, error) {
	lang := locale
	if m := voiceLocale.FindString(voice); m != "" {
		lang = m
	}
	ssml := buildSSML(text, lang, voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.Key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", "riff-16khz-16bit-mono-pcm")
	req.Header.Set("User-Agent", "orbitalk-relay")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("synthesis status %d: %s", resp.StatusCode, detail)
	}
	return io.ReadAll(resp.Body)
}
