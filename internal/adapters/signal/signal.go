package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/livecast-dev/livecast/internal/app"
	"github.com/livecast-dev/livecast/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// Controller upgrades signal endpoints to WebSocket and pumps frames between
// the socket and the relay.
type Controller struct {
	Relay      *app.Relay
	ReadLimit  int64
	PingPeriod time.Duration
	WriteWait  time.Duration
}

func NewController(relay *app.Relay, readLimit int64, pingPeriod, writeWait time.Duration) *Controller {
	return &Controller{
		Relay:      relay,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
		WriteWait:  writeWait,
	}
}

// WsConn wraps one socket with a bounded send queue. TrySend never blocks:
// a full queue drops the frame for this recipient only.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
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

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle accepts one signaling connection and runs it until the socket dies.
// Each connection gets a fresh id; the relay sees events in arrival order.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	connID := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("new WS connection")

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	ctl.Relay.OnConnect(connID, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, connID, conn)
}
