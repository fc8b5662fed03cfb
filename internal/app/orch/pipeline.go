package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orbitalk/relay/internal/core"
	"github.com/orbitalk/relay/internal/domain"
)

// Abandonment reasons. None of these is fatal to the session or the room;
// the pipeline for the one utterance simply stops.
var (
	ErrEmptyUtterance   = errors.New("empty utterance")
	ErrNoRoom           = errors.New("session has no room")
	ErrEmptyTranslation = errors.New("empty translation")
)

// process runs one utterance through translate -> synthesize -> broadcast.
// Best effort: any failure abandons this utterance without retry and
// without notifying participants.
func (o *Orchestrator) process(ctx context.Context, s *core.Session, text string) error {
	if text == "" {
		return ErrEmptyUtterance
	}
	meta := s.Meta()
	if meta.RoomID == "" {
		return ErrNoRoom
	}

	translated, err := o.Translator.Translate(ctx, text, meta.SourceBase, meta.TargetBase)
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	if translated == "" {
		return ErrEmptyTranslation
	}

	// The speaker gets their transcript right away, without waiting on
	// synthesis.
	ts := time.Now().UTC().Format(time.RFC3339)
	_ = s.Conn().SendJSON(domain.TranscriptMessage{
		Type:       "transcript",
		Original:   text,
		Translated: translated,
		IsLocal:    true,
		Timestamp:  ts,
	})

	audio, err := o.Synthesizer.Synthesize(ctx, translated, meta.TargetLocale, meta.Voice)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}

	o.broadcast(s, meta.RoomID, audio, domain.TranscriptMessage{
		Type:       "transcript",
		Original:   text,
		Translated: translated,
		IsLocal:    false,
		Timestamp:  ts,
	})
	return nil
}

// broadcast delivers audio then transcript to every room member except the
// originator. The membership snapshot at dispatch time is authoritative:
// late joiners get nothing, mid-send leavers are skipped via IsOpen.
// Each recipient's gate is armed before its audio send so their microphone
// does not re-capture the playback.
func (o *Orchestrator) broadcast(from *core.Session, roomID domain.RoomID, audio []byte, transcript domain.TranscriptMessage) {
	window := core.GateWindow(audio, o.GateMargin)
	sent := 0
	for _, member := range o.Rooms.Snapshot(roomID) {
		if member.ID() == from.ID() {
			continue
		}
		if !member.Conn().IsOpen() {
			continue
		}
		member.Gate().Arm(window)
		if err := member.Conn().SendBinary(audio); err != nil {
			log.Debug().Err(err).Str("module", "orch").Str("sid", string(member.ID())).Msg("stale recipient")
			continue
		}
		_ = member.Conn().SendJSON(transcript)
		sent++
	}
	log.Debug().Str("module", "orch").Str("room", string(roomID)).
		Int("recipients", sent).Dur("gate_window", window).Int("bytes", len(audio)).
		Msg("utterance broadcast")
}
