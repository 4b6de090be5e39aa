package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsTap streams every broadcast frame to one websocket spectator.
// It implements core.Tap.
type wsTap struct {
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (t *wsTap) TrySend(f core.Frame) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return errors.New("connection closed")
	}
	select {
	case t.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (t *wsTap) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	close(t.send)
}

// ServeEvents upgrades the request and streams broadcasts until the
// spectator leaves or ctx ends.
func ServeEvents(ctx context.Context, c *gin.Context, s Session) {
	// registered before the upgrade so nothing broadcast after the
	// handshake completes is missed
	tap := &wsTap{send: make(chan core.Frame, 64)}
	s.AddTap(tap)
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
		s.RemoveTap(tap)
		return
	}
	log.Info().Str("module", "adapters.http").Str("remote", c.Request.RemoteAddr).Msg("spectator connected")

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.RemoveTap(tap)
		tap.Close()
		_ = ws.Close()
		log.Info().Str("module", "adapters.http").Str("remote", c.Request.RemoteAddr).Msg("spectator left")
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-tap.send:
			if !ok {
				return
			}
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Msg("spectator write")
				return
			}
		}
	}
}
