package azure

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/orbitalk/relay/internal/core"
	"github.com/orbitalk/relay/internal/wav"
)

// Recognizer opens continuous speech-to-text sessions against the Azure
// speech websocket endpoint. Each Start is one independent subscription;
// the caller owns the returned stream and must Close it.
type Recognizer struct {
	Key    string
	Region string
	Dialer *websocket.Dialer
	URL    string // overridable in tests
}

func NewRecognizer(key, region string) *Recognizer {
	return &Recognizer{
		Key:    key,
		Region: region,
		Dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		URL:    fmt.Sprintf("wss://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", region),
	}
}

func (r *Recognizer) Start(ctx context.Context, locale string, events core.RecognitionEvents) (core.RecognitionStream, error) {
	connectionID := strings.ReplaceAll(uuid.NewString(), "-", "")

	header := http.Header{}
	header.Set("Ocp-Apim-Subscription-Key", r.Key)
	header.Set("X-ConnectionId", connectionID)

	ws, _, err := r.Dialer.DialContext(ctx, r.URL+"?language="+locale+"&format=simple", header)
	if err != nil {
		return nil, fmt.Errorf("dial speech endpoint: %w", err)
	}

	st := &recognitionStream{
		conn:      ws,
		requestID: connectionID,
		events:    events,
	}

	if err := st.sendSpeechConfig(); err != nil {
		st.Close()
		return nil, fmt.Errorf("send speech.config: %w", err)
	}
	// The service detects the PCM format from a leading RIFF header.
	if err := st.Write(wav.Header(0)); err != nil {
		st.Close()
		return nil, fmt.Errorf("send format header: %w", err)
	}

	go st.readLoop()
	return st, nil
}

// recognitionStream is one live subscription. Audio goes out as binary
// messages with the length-prefixed header block the service expects;
// results come back as text messages routed by their Path header.
type recognitionStream struct {
	conn      *websocket.Conn
	requestID string
	events    core.RecognitionEvents

	writeMu sync.Mutex
	once    sync.Once
	closed  bool
}

func (s *recognitionStream) sendSpeechConfig() error {
	body, err := json.Marshal(map[string]any{
		"context": map[string]any{
			"system": map[string]string{"name": "orbitalk-relay"},
		},
	})
	if err != nil {
		return err
	}
	msg := "Path: speech.config\r\n" +
		"X-RequestId: " + s.requestID + "\r\n" +
		"X-Timestamp: " + time.Now().UTC().Format(time.RFC3339Nano) + "\r\n" +
		"Content-Type: application/json\r\n\r\n" + string(body)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// Write sends one PCM chunk. The binary frame layout is a big-endian
// uint16 header length, the ASCII header block, then the audio bytes.
func (s *recognitionStream) Write(pcm []byte) error {
	headers := "Path: audio\r\n" +
		"X-RequestId: " + s.requestID + "\r\n" +
		"X-Timestamp: " + time.Now().UTC().Format(time.RFC3339Nano) + "\r\n" +
		"Content-Type: audio/x-wav\r\n"

	frame := make([]byte, 2+len(headers)+len(pcm))
	binary.BigEndian.PutUint16(frame[0:2], uint16(len(headers)))
	copy(frame[2:], headers)
	copy(frame[2+len(headers):], pcm)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.closed {
		return fmt.Errorf("recognition stream closed")
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Close tears the subscription down. Idempotent; the read loop exits on
// the closed connection.
func (s *recognitionStream) Close() {
	s.once.Do(func() {
		s.writeMu.Lock()
		s.closed = true
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
}

func (s *recognitionStream) readLoop() {
	defer s.Close()
	for {
		mt, data, err := s.conn.ReadMessage()
		if err != nil {
			// Stream cancellation stops this subscription only; the
			// owning session decides whether to start another.
			log.Debug().Err(err).Str("module", "azure.stt").Msg("recognition read loop done")
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		s.handleMessage(data)
	}
}

type phraseResult struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
	Text              string `json:"Text"`
}

func (s *recognitionStream) handleMessage(data []byte) {
	path, body, ok := splitSpeechMessage(data)
	if !ok {
		log.Warn().Str("module", "azure.stt").Msg("malformed speech message")
		return
	}

	switch path {
	case "speech.hypothesis":
		var res phraseResult
		if err := json.Unmarshal(body, &res); err == nil && res.Text != "" {
			s.events.OnInterim(res.Text)
		}
	case "speech.phrase":
		var res phraseResult
		if err := json.Unmarshal(body, &res); err != nil {
			log.Warn().Err(err).Str("module", "azure.stt").Msg("bad speech.phrase body")
			return
		}
		if res.RecognitionStatus == "Success" && res.DisplayText != "" {
			s.events.OnFinal(res.DisplayText)
		}
	case "turn.start", "turn.end", "speech.startDetected", "speech.endDetected":
		// Turn bookkeeping; nothing to forward.
	default:
		log.Debug().Str("module", "azure.stt").Str("path", path).Msg("unhandled speech message")
	}
}

// splitSpeechMessage separates the ASCII header block from the JSON body
// and returns the Path header value.
func splitSpeechMessage(data []byte) (path string, body []byte, ok bool) {
	raw := string(data)
	i := strings.Index(raw, "\r\n\r\n")
	if i < 0 {
		return "", nil, false
	}
	for _, line := range strings.Split(raw[:i], "\r\n") {
		if name, value, found := strings.Cut(line, ":"); found && strings.EqualFold(name, "Path") {
			path = strings.TrimSpace(value)
		}
	}
	if path == "" {
		return "", nil, false
	}
	return path, data[i+4:], true
}
