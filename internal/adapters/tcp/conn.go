package tcp

import (
	"bufio"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrClosed       = errors.New("connection closed")
)

const writeWait = 5 * time.Second

// LineConn is the outbound path of one peer. Frames are queued and written
// by WritePump, one per line.
// It implements core.Outbound.
type LineConn struct {
	conn net.Conn
	send chan core.Frame
	// quit is closed by WritePump when the connection broke. It is not
	// guarded by mu so a blocked Send can observe it.
	quit     chan struct{}
	quitOnce sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewLineConn(conn net.Conn, buffer int) *LineConn {
	if buffer < 1 {
		buffer = 1
	}
	return &LineConn{conn: conn, send: make(chan core.Frame, buffer), quit: make(chan struct{})}
}

func (c *LineConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.broken() {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

// Send queues f, waiting for room in the queue or for the write side to
// break.
func (c *LineConn) Send(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.broken() {
		return ErrClosed
	}
	select {
	case c.send <- f:
		return nil
	case <-c.quit:
		return ErrClosed
	}
}

func (c *LineConn) broken() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

// Close stops accepting frames. WritePump flushes what is queued and then
// closes the connection.
func (c *LineConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump owns all writes to the connection until Close.
func (c *LineConn) WritePump() {
	defer func() { _ = c.conn.Close() }()
	w := bufio.NewWriter(c.conn)
	for f := range c.send {
		if err := c.write(w, f); err != nil {
			log.Debug().Err(err).Str("module", "tcp.conn").Str("remote", c.conn.RemoteAddr().String()).Msg("write failed, closing")
			c.quitOnce.Do(func() { close(c.quit) })
			c.Close()
			for range c.send {
			}
			return
		}
	}
}

func (c *LineConn) write(w *bufio.Writer, f core.Frame) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if _, err := w.WriteString(string(f) + "\n"); err != nil {
		return err
	}
	return w.Flush()
}
