// Package signal is the websocket command channel: clients say hello as
// a room member, send command lines and read back one result per line.
// Room state is never pushed; clients pull it with whoami or GET /api/room.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchroom/internal/app"
	"github.com/dkeye/watchroom/internal/command"
	"github.com/dkeye/watchroom/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// SessionUsernameKey is where the HTTP session keeps the bound actor.
const SessionUsernameKey = "username"

type Options struct {
	ReadLimit  int64
	PingPeriod time.Duration
}

type SignalWSController struct {
	Rooms      core.RoomService
	Dispatcher *command.Dispatcher
	Registry   *app.Registry
	Limiter    *RateLimiter
	opts       Options
}

func NewSignalWSController(rooms core.RoomService, reg *app.Registry, limiter *RateLimiter, opts Options) *SignalWSController {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 32768
	}
	if opts.PingPeriod <= 0 {
		opts.PingPeriod = 54 * time.Second
	}
	return &SignalWSController{
		Rooms:      rooms,
		Dispatcher: command.NewDispatcher(rooms),
		Registry:   reg,
		Limiter:    limiter,
		opts:       opts,
	}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
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

func (c *WsSignalConn) Close() {
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

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.opts.ReadLimit)

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	if name, ok := sessions.Default(c).Get(SessionUsernameKey).(string); ok && name != "" {
		ctl.Registry.Bind(sid, name)
	}
	ctx, cancel := context.WithCancel(ctx)
	ctl.Registry.BindSignal(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}

// Settle runs after a successful command from any transport and drops
// the sessions, websocket ones included, of actors no longer in the room.
func (ctl *SignalWSController) Settle(ctx context.Context) {
	room := ctl.Rooms.Room(ctx)
	ctl.Registry.Prune(func(username string) bool {
		_, ok := room.UserByName(username)
		return ok
	})
}
