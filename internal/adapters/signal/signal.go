// Package signal is the websocket transport adapter. Each connection
// carries JSON control messages (text frames) and raw PCM audio (binary
// frames) inbound, and synthesized WAV plus transcript JSON outbound.
package signal

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/orbitalk/relay/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type outFrame struct {
	messageType int
	data        []byte
}

// WsConn implements core.Conn over a gorilla websocket. Sends go through a
// buffered channel drained by the write pump; a full channel drops the
// frame rather than blocking an orchestrator pipeline.
type WsConn struct {
	conn *websocket.Conn
	send chan outFrame

	mu     sync.RWMutex
	closed bool
}

func newWsConn(conn *websocket.Conn) *WsConn {
	return &WsConn{
		conn: conn,
		send: make(chan outFrame, 64),
	}
}

func (c *WsConn) trySend(f outFrame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *WsConn) SendBinary(f core.Frame) error {
	return c.trySend(outFrame{messageType: websocket.BinaryMessage, data: f})
}

func (c *WsConn) SendJSON(v any) error {
	b, err := marshalJSON(v)
	if err != nil {
		return err
	}
	return c.trySend(outFrame{messageType: websocket.TextMessage, data: b})
}

func (c *WsConn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
