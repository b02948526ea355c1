package ws

import (
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avray/parley/internal/comms"
	"github.com/avray/parley/internal/core"
)

const writeDeadline = 5 * time.Second

func (ctl *ChatController) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "ws").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump ping error")
				return
			}
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

// drainPump moves the session's multiplexed events onto the socket queue.
func (ctl *ChatController) drainPump(ctx context.Context, session *core.Session, c *wsConn) {
	for {
		ev, err := session.Recv(ctx)
		if err != nil {
			return
		}
		frame, err := comms.Marshal(ev)
		if err != nil {
			log.Error().Err(err).Str("module", "ws").Msg("drainPump marshal")
			continue
		}
		if err := c.Send(ctx, frame); err != nil {
			return
		}
	}
}

func (ctl *ChatController) readPump(ctx context.Context, cancel context.CancelFunc, session *core.Session, c *wsConn) {
	sid := session.Identity().SessionID
	defer func() {
		log.Info().Str("module", "ws").Str("sid", string(sid)).Msg("readPump closing")
		session.LeaveAll()
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}

			cmd, err := comms.ParseCommand(data)
			if err != nil {
				log.Warn().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("bad command")
				ctl.sendEvent(c, comms.NewError(err.Error()))
				continue
			}
			if _, ok := cmd.(comms.QuitCommand); ok {
				return
			}

			if err := session.HandleCommand(ctx, cmd); err != nil {
				if isInternal(err) {
					log.Error().Err(err).Str("module", "ws").Str("sid", string(sid)).Msg("command failed")
				}
				ctl.sendEvent(c, comms.NewError(err.Error()))
			}
		}
	}
}

// isInternal separates invariant violations worth an error log from plain
// user mistakes answered with an error frame.
func isInternal(err error) bool {
	return errors.Is(err, core.ErrInvalidHandle)
}

func (ctl *ChatController) sendEvent(c *wsConn, ev comms.Event) {
	frame, err := comms.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("sendEvent marshal")
		return
	}
	if err := c.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "ws").Msg("sendEvent dropped")
	}
}
