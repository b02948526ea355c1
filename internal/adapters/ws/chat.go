// Package ws bridges websocket connections to chat sessions: one readPump
// decoding commands, one drain loop moving session events to the socket,
// one writePump owning the actual writes.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avray/parley/internal/comms"
	"github.com/avray/parley/internal/config"
	"github.com/avray/parley/internal/core"
	"github.com/avray/parley/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ChatController struct {
	Directory *core.Directory
	Cfg       *config.Config
}

func NewChatController(directory *core.Directory, cfg *config.Config) *ChatController {
	return &ChatController{Directory: directory, Cfg: cfg}
}

// wsConn wraps the socket with a bounded send queue so writes never race.
type wsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

// Send blocks until the frame is queued or ctx ends. The block is the
// backpressure path that eventually makes a slow client lag its rooms.
// The read lock is held across the select so Close cannot slip in between
// the closed check and the queue write.
func (c *wsConn) Send(ctx context.Context, frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the queue dead and closes the socket. The send channel is
// never closed: writePump exits through its context, and a closed channel
// under a blocked Send would panic the whole process. Callers cancel the
// connection context first so no Send is left blocking Close out.
func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	_ = c.conn.Close()
}

// HandleChat upgrades the connection, bootstraps the session and runs the
// pump loops until the client goes away.
func (ctl *ChatController) HandleChat(ctx context.Context, c *gin.Context) {
	sid := domain.SessionID(c.GetString("client_token"))

	userID := domain.UserID(c.Query("user_id"))
	if userID == "" {
		userID = domain.UserID("guest-" + uuid.NewString()[:8])
	}
	identity, err := domain.NewIdentity(sid, userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := &wsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}

	session := core.NewSession(identity, ctl.Directory)
	ctx, cancel := context.WithCancel(ctx)

	log.Info().Str("module", "ws").
		Str("sid", string(sid)).
		Str("user", string(userID)).
		Msg("new chat connection")

	ctl.sendEvent(conn, comms.NewLoginSuccess(string(userID), ctl.Directory.Rooms()))

	go ctl.writePump(ctx, conn)
	go ctl.drainPump(ctx, session, conn)
	go ctl.readPump(ctx, cancel, session, conn)
}
