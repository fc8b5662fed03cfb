package core

import (
	"context"
)

// Frame is a raw binary payload (a chunk of 16kHz/16-bit/mono PCM).
type Frame []byte

// Conn is a transport endpoint (WebSocket). Close must be idempotent:
// both the adapter's read loop and session teardown call it, in either
// order.
type Conn interface {
	SendBinary(Frame) error
	SendJSON(v any) error
	IsOpen() bool
	Close()
}

// RecognitionEvents receives results from a streaming recognizer.
// Interim hypotheses are diagnostic only; Final text enters the pipeline.
type RecognitionEvents interface {
	OnInterim(text string)
	OnFinal(text string)
}

// RecognitionStream is one live speech-to-text subscription.
// A session owns at most one; replacing it must close the old one first.
type RecognitionStream interface {
	Write(pcm []byte) error
	Close()
}

// Recognizer opens streaming recognition sessions.
type Recognizer interface {
	Start(ctx context.Context, locale string, events RecognitionEvents) (RecognitionStream, error)
}

// Translator is a stateless text translation service.
// Languages are base subtags ("en", "te"), not full locales.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// Synthesizer renders text to a headered WAV payload in the given locale/voice.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, locale, voice string) ([]byte, error)
}

// RoomSnapshot is the membership of a room at one instant, used for fan-out.
// Joins and leaves after the snapshot do not affect an in-flight broadcast.
type RoomSnapshot []*Session
