package azure

import (
	"context"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSpeechMessage(t *testing.T) {
	msg := []byte("Path: speech.phrase\r\nX-RequestId: abc\r\n\r\n{\"DisplayText\":\"hi\"}")
	path, body, ok := splitSpeechMessage(msg)
	require.True(t, ok)
	assert.Equal(t, "speech.phrase", path)
	assert.JSONEq(t, `{"DisplayText":"hi"}`, string(body))

	_, _, ok = splitSpeechMessage([]byte("no header separator"))
	assert.False(t, ok)

	_, _, ok = splitSpeechMessage([]byte("X-RequestId: abc\r\n\r\n{}"))
	assert.False(t, ok, "message without a Path header is malformed")
}

type recordingEvents struct {
	mu       sync.Mutex
	interims []string
	finals   []string
}

func (e *recordingEvents) OnInterim(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.interims = append(e.interims, text)
}

func (e *recordingEvents) OnFinal(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finals = append(e.finals, text)
}

func (e *recordingEvents) snapshot() (interims, finals []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.interims...), append([]string(nil), e.finals...)
}

func TestRecognizerStream(t *testing.T) {
	up := websocket.Upgrader{}
	gotAudio := make(chan []byte, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		assert.Equal(t, "test-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.NotEmpty(t, r.Header.Get("X-ConnectionId"))

		ws, err := up.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer ws.Close()

		// First text message must be speech.config.
		mt, data, err := ws.ReadMessage()
		require.NoError(t, err)
		require.Equal(t, websocket.TextMessage, mt)
		path, _, ok := splitSpeechMessage(data)
		require.True(t, ok)
		assert.Equal(t, "speech.config", path)

		// Then audio frames: uint16 header length, headers, payload.
		for i := 0; i < 2; i++ {
			mt, data, err = ws.ReadMessage()
			require.NoError(t, err)
			require.Equal(t, websocket.BinaryMessage, mt)
			hlen := int(binary.BigEndian.Uint16(data[0:2]))
			headers := string(data[2 : 2+hlen])
			assert.Contains(t, headers, "Path: audio")
			gotAudio <- data[2+hlen:]
		}

		// Emit a hypothesis and a final phrase.
		require.NoError(t, ws.WriteMessage(websocket.TextMessage,
			[]byte("Path: speech.hypothesis\r\n\r\n{\"Text\":\"hel\"}")))
		require.NoError(t, ws.WriteMessage(websocket.TextMessage,
			[]byte("Path: speech.phrase\r\n\r\n{\"RecognitionStatus\":\"Success\",\"DisplayText\":\"hello\"}")))

		// NoMatch results must not surface as finals.
		require.NoError(t, ws.WriteMessage(websocket.TextMessage,
			[]byte("Path: speech.phrase\r\n\r\n{\"RecognitionStatus\":\"NoMatch\",\"DisplayText\":\"\"}")))

		// Hold the connection until the client closes.
		_, _, _ = ws.ReadMessage()
	}))
	defer srv.Close()

	r := NewRecognizer("test-key", "centralindia")
	r.URL = "ws" + strings.TrimPrefix(srv.URL, "http")

	events := &recordingEvents{}
	stream, err := r.Start(context.Background(), "en-US", events)
	require.NoError(t, err)
	defer stream.Close()

	// Start already sent the format header as the first audio frame.
	first := <-gotAudio
	assert.Equal(t, "RIFF", string(first[0:4]))

	require.NoError(t, stream.Write([]byte{1, 2, 3, 4}))
	assert.Equal(t, []byte{1, 2, 3, 4}, <-gotAudio)

	assert.Eventually(t, func() bool {
		interims, finals := events.snapshot()
		return len(interims) == 1 && len(finals) == 1
	}, 2*time.Second, 10*time.Millisecond)

	interims, finals := events.snapshot()
	assert.Equal(t, []string{"hel"}, interims)
	assert.Equal(t, []string{"hello"}, finals)

	stream.Close()
	stream.Close() // idempotent
	assert.Error(t, stream.Write([]byte{9}), "write after close fails cleanly")
}
