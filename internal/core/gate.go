package core

import (
	"sync"
	"time"

	"github.com/orbitalk/relay/internal/wav"
)

// Gate is the per-session half-duplex state machine. While gated, inbound
// audio frames are dropped so a participant's loudspeaker output is not
// re-captured by their microphone and fed back into recognition.
//
// States: listening (initial) and gated. Arming while already gated cancels
// the pending timer and installs a new one; the newest window always wins.
type Gate struct {
	mu      sync.Mutex
	gated   bool
	timer   *time.Timer
	gen     uint64
	stopped bool
}

func NewGate() *Gate {
	return &Gate{}
}

// GateWindow computes how long a recipient stays gated for a synthesized
// payload: estimated playback time plus a safety margin for network and
// playback-start latency. A header-only payload still gets the margin.
func GateWindow(payload []byte, margin time.Duration) time.Duration {
	return wav.PlaybackDuration(payload) + margin
}

// Arm puts the gate into the gated state for d, cancelling any pending
// window first. Safe to call concurrently from multiple pipelines gating
// the same recipient. Each arm bumps the generation so a timer that
// already fired but has not yet run cannot clear the new window.
func (g *Gate) Arm(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	if g.timer != nil {
		g.timer.Stop()
	}
	g.gen++
	gen := g.gen
	g.gated = true
	g.timer = time.AfterFunc(d, func() { g.release(gen) })
}

func (g *Gate) release(gen uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		// A newer window was armed while this callback was in flight.
		return
	}
	g.gated = false
	g.timer = nil
}

// Accepting reports whether inbound audio should reach recognition.
func (g *Gate) Accepting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.gated
}

// Stop cancels any pending timer and disables the gate for good.
// Idempotent; called on session teardown so no timer fires afterwards.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return
	}
	g.stopped = true
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.gated = false
}
