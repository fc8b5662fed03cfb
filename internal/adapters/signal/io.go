package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/orbitalk/relay/internal/app/orch"
	"github.com/orbitalk/relay/internal/domain"
)

func marshalJSON(v any) ([]byte, error) { return json.Marshal(v) }

type Controller struct {
	Orch      *orch.Orchestrator
	ReadLimit int64
	limiter   *ConfigRateLimiter
}

func NewController(o *orch.Orchestrator) *Controller {
	return &Controller{
		Orch:    o,
		limiter: NewConfigRateLimiter(5, 10*time.Second),
	}
}

// HandleWS upgrades the request and hands the connection a fresh session.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	sid := domain.NewSessionID()
	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("client", c.GetString("client_token")).Msg("new WS connection")

	conn := newWsConn(ws)
	ctl.Orch.OnConnect(sid, conn)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(f.messageType, f.data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump demuxes inbound frames: text is control JSON, binary is PCM for
// recognition. Exit always runs full session teardown, which is idempotent.
func (ctl *Controller) readPump(ctx context.Context, sid domain.SessionID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.OnDisconnect(sid)
		if ctl.limiter != nil {
			ctl.limiter.Forget(sid)
		}
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			mt, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			switch mt {
			case websocket.TextMessage:
				ctl.handleControl(ctx, sid, data)
			case websocket.BinaryMessage:
				ctl.Orch.OnAudio(sid, data)
			}
		}
	}
}

// handleControl parses a control message. Malformed JSON and unknown types
// are logged and ignored; the connection stays open.
func (ctl *Controller) handleControl(ctx context.Context, sid domain.SessionID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		return
	}

	switch env.Type {
	case "config":
		ctl.handleConfig(ctx, sid, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown control message")
	}
}

func (ctl *Controller) handleConfig(ctx context.Context, sid domain.SessionID, data []byte) {
	if ctl.limiter != nil && !ctl.limiter.Allow(sid) {
		log.Warn().Str("module", "signal").Str("sid", string(sid)).Msg("config rate limit exceeded")
		return
	}
	var msg domain.ConfigMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad config payload")
		return
	}
	ctl.Orch.OnConfig(ctx, sid, msg)
}
