package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitalk/relay/internal/app"
	"github.com/orbitalk/relay/internal/app/orch"
	"github.com/orbitalk/relay/internal/core"
	"github.com/orbitalk/relay/internal/domain"
	"github.com/orbitalk/relay/internal/wav"
)

type stubStream struct {
	mu     sync.Mutex
	writes int
	closes int
}

func (s *stubStream) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	return nil
}

func (s *stubStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
}

func (s *stubStream) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes, s.closes
}

type stubRecognizer struct {
	mu      sync.Mutex
	streams map[string]*stubStream
	events  map[string]core.RecognitionEvents
}

func newStubRecognizer() *stubRecognizer {
	return &stubRecognizer{
		streams: make(map[string]*stubStream),
		events:  make(map[string]core.RecognitionEvents),
	}
}

func (r *stubRecognizer) Start(ctx context.Context, locale string, events core.RecognitionEvents) (core.RecognitionStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := &stubStream{}
	r.streams[locale] = st
	r.events[locale] = events
	return st, nil
}

func (r *stubRecognizer) forLocale(locale string) (*stubStream, core.RecognitionEvents) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.streams[locale], r.events[locale]
}

type stubTranslator struct{}

func (stubTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	return "hola", nil
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(ctx context.Context, text, locale, voice string) ([]byte, error) {
	return wav.Wrap(make([]byte, wav.BytesPerSecond/2)), nil
}

func newTestServer(t *testing.T) (*orch.Orchestrator, *stubRecognizer, *websocket.Conn) {
	t.Helper()
	rec := newStubRecognizer()
	o := &orch.Orchestrator{
		Registry:    app.NewRegistry(),
		Rooms:       app.NewRoomManager(),
		Recognizer:  rec,
		Translator:  stubTranslator{},
		Synthesizer: stubSynthesizer{},
		DefaultRoom: "default-room",
		GateMargin:  200 * time.Millisecond,
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	ctl := NewController(o)
	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(context.Background(), c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return o, rec, ws
}

func sendConfig(t *testing.T, ws *websocket.Conn, room string) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(domain.ConfigMessage{
		Type: "config", SourceLang: "en", TargetLang: "es", RoomID: room,
	}))
}

func TestConnectionLifecycle(t *testing.T) {
	o, rec, ws := newTestServer(t)

	sendConfig(t, ws, "r1")
	require.Eventually(t, func() bool {
		return len(o.Rooms.Snapshot("r1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Binary frames reach the recognition stream.
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, make([]byte, 640)))
	require.Eventually(t, func() bool {
		st, _ := rec.forLocale("en-US")
		if st == nil {
			return false
		}
		writes, _ := st.counts()
		return writes == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A recognized final comes back to the speaker as a local transcript.
	_, events := rec.forLocale("en-US")
	events.OnFinal("hello")

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	var msg domain.TranscriptMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "transcript", msg.Type)
	assert.Equal(t, "hello", msg.Original)
	assert.Equal(t, "hola", msg.Translated)
	assert.True(t, msg.IsLocal)

	// Closing the socket tears the session down.
	require.NoError(t, ws.Close())
	require.Eventually(t, func() bool {
		return o.Registry.Len() == 0 && !o.Rooms.Exists("r1")
	}, 2*time.Second, 10*time.Millisecond)
	st, _ := rec.forLocale("en-US")
	_, closes := st.counts()
	assert.Equal(t, 1, closes)
}

func TestMalformedControlKeepsConnectionOpen(t *testing.T) {
	o, _, ws := newTestServer(t)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"mystery"}`)))
	sendConfig(t, ws, "r1")

	require.Eventually(t, func() bool {
		return len(o.Rooms.Snapshot("r1")) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAudioRelayBetweenTwoClients(t *testing.T) {
	o, rec, wsA := newTestServer(t)

	sendConfig(t, wsA, "room1")
	require.Eventually(t, func() bool {
		_, events := rec.forLocale("en-US")
		return len(o.Rooms.Snapshot("room1")) == 1 && events != nil
	}, 2*time.Second, 10*time.Millisecond)

	// B joins straight through the orchestrator with a recording conn; the
	// websocket path itself is covered by TestConnectionLifecycle.
	b := o.OnConnect("b", &recordingConn{})
	o.OnConfig(context.Background(), "b", domain.ConfigMessage{
		Type: "config", SourceLang: "es", TargetLang: "en", RoomID: "room1",
	})

	_, eventsA := rec.forLocale("en-US")
	eventsA.OnFinal("hello")

	require.Eventually(t, func() bool {
		rc := b.Conn().(*recordingConn)
		return rc.count() == 2
	}, 2*time.Second, 10*time.Millisecond)

	rc := b.Conn().(*recordingConn)
	kinds := rc.kinds()
	assert.Equal(t, []string{"binary", "json"}, kinds, "audio precedes transcript")
	assert.False(t, b.Gate().Accepting(), "recipient is gated while audio plays")
}

type recordingConn struct {
	mu    sync.Mutex
	sends []string
}

func (c *recordingConn) SendBinary(core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends = append(c.sends, "binary")
	return nil
}

func (c *recordingConn) SendJSON(any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sends = append(c.sends, "json")
	return nil
}

func (c *recordingConn) IsOpen() bool { return true }
func (c *recordingConn) Close()       {}

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sends)
}

func (c *recordingConn) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sends...)
}
