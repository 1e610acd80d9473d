// Package signal binds the collaboration core to a gorilla/websocket
// transport: one read and one write goroutine per live connection.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/lectio/collab/internal/app"
	"github.com/lectio/collab/internal/config"
	"github.com/lectio/collab/internal/core"
	"github.com/lectio/collab/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Service *app.Service
	Cfg     *config.Config
}

func NewController(svc *app.Service, cfg *config.Config) *Controller {
	return &Controller{Service: svc, Cfg: cfg}
}

// wsConn wraps one websocket with a buffered send channel. TrySend never
// blocks: a full buffer surfaces backpressure and the frame is dropped.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
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

// Handle upgrades the request and registers the connection for the identity
// the router middleware attached. The read pump owns the disconnect
// cascade: when it exits, the connection leaves its room and unregisters.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	identity, ok := c.Get("identity")
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	user := identity.(domain.User)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}

	rec := ctl.Service.Connect(user, conn)
	log.Info().Str("module", "signal").Str("conn", string(rec.ID)).Str("user", string(user.ID)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, rec.ID, conn)
}
