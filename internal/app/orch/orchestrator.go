// Package orch drives the per-utterance pipeline: recognized text is
// translated, synthesized and fanned out to the speaker's room, with the
// half-duplex gate armed on every recipient.
package orch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orbitalk/relay/internal/app"
	"github.com/orbitalk/relay/internal/core"
	"github.com/orbitalk/relay/internal/domain"
	"github.com/orbitalk/relay/internal/lang"
)

type Orchestrator struct {
	Registry    *app.Registry
	Rooms       *app.RoomManager
	Recognizer  core.Recognizer
	Translator  core.Translator
	Synthesizer core.Synthesizer

	DefaultRoom domain.RoomID
	GateMargin  time.Duration
}

// OnConnect registers an empty session for a freshly accepted connection.
func (o *Orchestrator) OnConnect(sid domain.SessionID, conn core.Conn) *core.Session {
	return o.Registry.Register(sid, conn)
}

// OnConfig applies a config message: normalizes languages, resolves the
// voice, joins the room and restarts streaming recognition. The previous
// recognition stream is always closed before a new one is opened.
func (o *Orchestrator) OnConfig(ctx context.Context, sid domain.SessionID, msg domain.ConfigMessage) {
	s, ok := o.Registry.Get(sid)
	if !ok {
		return
	}

	sourceLocale := lang.Normalize(msg.SourceLang)
	targetLocale := lang.Normalize(msg.TargetLang)
	voice := msg.VoiceName
	if voice == "" {
		voice = lang.VoiceFor(targetLocale)
	}
	roomID := domain.RoomID(msg.RoomID)
	if roomID == "" {
		roomID = o.DefaultRoom
	}

	prev := s.Meta()
	if prev.RoomID != "" && prev.RoomID != roomID {
		o.Rooms.Leave(prev.RoomID, s)
	}

	s.SetMeta(domain.Session{
		RoomID:       roomID,
		SourceLocale: sourceLocale,
		TargetLocale: targetLocale,
		SourceBase:   lang.Base(sourceLocale),
		TargetBase:   lang.Base(targetLocale),
		Voice:        voice,
	})
	o.Rooms.Join(roomID, s)

	log.Info().Str("module", "orch").Str("sid", string(sid)).
		Str("room", string(roomID)).
		Str("source", sourceLocale).Str("target", targetLocale).Str("voice", voice).
		Msg("session configured")

	// Close the old subscription before opening a new one so at most one
	// stream is live and nothing emits twice.
	s.ReplaceStream(nil)
	stream, err := o.Recognizer.Start(ctx, sourceLocale, &sessionEvents{o: o, s: s})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("recognition start failed")
		return
	}
	if !s.ReplaceStream(stream) {
		// Session torn down while recognition was starting.
		stream.Close()
	}
}

// OnAudio feeds an inbound PCM frame to the session's recognition stream.
// Frames arriving while the gate is closed are dropped, not buffered.
func (o *Orchestrator) OnAudio(sid domain.SessionID, frame core.Frame) {
	s, ok := o.Registry.Get(sid)
	if !ok {
		return
	}
	if !s.Gate().Accepting() {
		return
	}
	stream := s.Stream()
	if stream == nil {
		return
	}
	if err := stream.Write(frame); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("recognition write failed")
	}
}

// OnDisconnect tears the session down: recognition stream closed, gate
// timer cancelled, room left (and deleted if empty), session deregistered.
// Safe to invoke more than once.
func (o *Orchestrator) OnDisconnect(sid domain.SessionID) {
	s, ok := o.Registry.Deregister(sid)
	if !ok {
		return
	}
	if roomID := s.Meta().RoomID; roomID != "" {
		o.Rooms.Leave(roomID, s)
	}
	s.Teardown()
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("session torn down")
}

// sessionEvents routes recognition results for one session.
type sessionEvents struct {
	o *Orchestrator
	s *core.Session
}

// OnInterim is diagnostic only; interim hypotheses never enter the pipeline.
func (e *sessionEvents) OnInterim(text string) {
	log.Debug().Str("module", "orch").Str("sid", string(e.s.ID())).Str("text", text).Msg("recognizing")
}

// OnFinal runs the pipeline on its own goroutine so a slow translation or
// synthesis call never blocks other sessions' events.
func (e *sessionEvents) OnFinal(text string) {
	go func() {
		if err := e.o.process(context.Background(), e.s, text); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("sid", string(e.s.ID())).Msg("utterance abandoned")
		}
	}()
}
