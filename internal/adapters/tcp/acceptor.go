package tcp

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/app"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/core"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/protocol"
)

// Coordinator is what the acceptor and its workers need from the session.
type Coordinator interface {
	Handler
	Reserve() app.Ticket
	Release(t app.Ticket)
	AddPlayer(t app.Ticket, out core.Outbound, w core.Worker) error
}

type Options struct {
	// HandshakeTimeout bounds the wait for the roster echo; 0 waits forever.
	HandshakeTimeout time.Duration
	SendBuffer       int
}

// Acceptor turns incoming connections into roster records, one handshake
// at a time.
type Acceptor struct {
	ln    net.Listener
	coord Coordinator
	opts  Options

	closing   atomic.Bool
	closeOnce sync.Once
	stopped   chan struct{}
}

// Listen opens the listening socket. This is the only failure that
// escapes the broker.
func Listen(addr string, coord Coordinator, opts Options) (*Acceptor, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return NewAcceptor(ln, coord, opts), nil
}

func NewAcceptor(ln net.Listener, coord Coordinator, opts Options) *Acceptor {
	return &Acceptor{ln: ln, coord: coord, opts: opts, stopped: make(chan struct{})}
}

func (a *Acceptor) Addr() net.Addr { return a.ln.Addr() }

// Stopped is closed once the accept loop exited.
func (a *Acceptor) Stopped() <-chan struct{} { return a.stopped }

// Close marks the acceptor as closing and closes the listener. Idempotent.
func (a *Acceptor) Close() {
	a.closeOnce.Do(func() {
		a.closing.Store(true)
		if err := a.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error().Err(err).Str("module", "tcp.acceptor").Msg("close listener")
		}
	})
}

// Run accepts connections until the listener is closed.
func (a *Acceptor) Run() {
	defer close(a.stopped)
	log.Info().Str("module", "tcp.acceptor").Str("addr", a.ln.Addr().String()).Msg("accepting")
	for {
		conn, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				if a.closing.Load() {
					log.Info().Str("module", "tcp.acceptor").Msg("listener closed, exiting accept loop")
				} else {
					log.Error().Err(err).Str("module", "tcp.acceptor").Msg("listener closed externally")
				}
				return
			}
			log.Error().Err(err).Str("module", "tcp.acceptor").Msg("accept")
			time.Sleep(10 * time.Millisecond)
			continue
		}
		a.join(conn)
	}
}

func (a *Acceptor) join(conn net.Conn) {
	logger := log.With().Str("module", "tcp.acceptor").Str("remote", conn.RemoteAddr().String()).Logger()
	t := a.coord.Reserve()

	out := NewLineConn(conn, a.opts.SendBuffer)
	go out.WritePump()

	if t.ID.IsObserver() {
		logger.Info().Msg("session already started, peer is a spectator")
		_ = out.Send(core.Frame(strconv.Itoa(int(t.ID))))
		out.Close()
		return
	}

	_ = out.Send(core.Frame(strconv.Itoa(int(t.ID))))
	for _, p := range t.Existing {
		_ = out.Send(core.Frame(protocol.RosterLine(int(p.ID), p.DisplayName)))
	}
	_ = out.Send(protocol.EndOfPlayers)

	reader := bufio.NewReader(conn)
	if err := a.awaitEcho(conn, reader); err != nil {
		var ne net.Error
		if !errors.As(err, &ne) || !ne.Timeout() {
			logger.Warn().Err(err).Int("id", int(t.ID)).Msg("peer left during handshake")
			a.coord.Release(t)
			out.Close()
			return
		}
		logger.Warn().Err(err).Int("id", int(t.ID)).Msg("handshake echo timed out")
	}

	w := NewWorker(t.ID, conn, reader, out, a.coord)
	if err := a.coord.AddPlayer(t, out, w); err != nil {
		logger.Warn().Err(err).Int("id", int(t.ID)).Msg("join refused")
		out.Close()
		return
	}
	go w.Run()
	logger.Info().Int("id", int(t.ID)).Msg("player joined")
}

func (a *Acceptor) awaitEcho(conn net.Conn, reader *bufio.Reader) error {
	if a.opts.HandshakeTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(a.opts.HandshakeTimeout))
		defer func() { _ = conn.SetReadDeadline(time.Time{}) }()
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	if got := strings.TrimSpace(line); got != protocol.EndOfPlayers {
		log.Warn().Str("module", "tcp.acceptor").Str("got", got).Msg("handshake echo mismatch")
	}
	return nil
}
