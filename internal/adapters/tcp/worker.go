package tcp

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/core"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/domain"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/protocol"
)

// Handler receives what workers read.
type Handler interface {
	HandleLine(line string)
	OnWorkerLost(id domain.PlayerID, w core.Worker)
}

// Worker reads one peer's lines and classifies them by prefix.
// It implements core.Worker.
type Worker struct {
	id      domain.PlayerID
	conn    net.Conn
	reader  *bufio.Reader
	out     *LineConn
	handler Handler

	informAbout string
	resend      string

	requested    atomic.Bool
	disconnected atomic.Bool
	done         chan struct{}
}

// NewWorker binds a worker to conn. reader must be the reader the
// handshake used so no buffered input is lost.
func NewWorker(id domain.PlayerID, conn net.Conn, reader *bufio.Reader, out *LineConn, h Handler) *Worker {
	return &Worker{
		id:          id,
		conn:        conn,
		reader:      reader,
		out:         out,
		handler:     h,
		informAbout: protocol.PeerPrefix(int(id)),
		resend:      protocol.ServerPrefix(),
		done:        make(chan struct{}),
	}
}

func (w *Worker) Disconnect() { w.requested.Store(true) }

func (w *Worker) Disconnected() bool { return w.disconnected.Load() }

// Done is closed once the worker stopped.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Run blocks until the peer goes away or a requested disconnect is
// observed after a line.
func (w *Worker) Run() {
	defer close(w.done)
	logger := log.With().Str("module", "tcp.worker").Int("id", int(w.id)).Logger()
	logger.Info().Msg("worker started")

	for {
		line, err := w.reader.ReadString('\n')
		if line != "" {
			w.process(strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			requested := w.requested.Load()
			switch {
			case isExpectedClose(err):
				logger.Info().Err(err).Bool("requested", requested).Msg("connection closed")
			case requested:
				logger.Debug().Err(err).Msg("read error after requested disconnect")
			default:
				logger.Error().Err(err).Msg("read error")
			}
			w.stop()
			if !requested {
				w.handler.OnWorkerLost(w.id, w)
			}
			return
		}
		if w.requested.Load() {
			logger.Info().Msg("requested disconnect observed")
			w.stop()
			return
		}
	}
}

func (w *Worker) process(line string) {
	switch {
	case line == "":
	case strings.HasPrefix(line, w.resend):
		if err := w.out.TrySend(core.Frame(line)); err != nil {
			log.Debug().Err(err).Str("module", "tcp.worker").Int("id", int(w.id)).Msg("resend dropped")
		}
	case strings.HasPrefix(line, w.informAbout):
		w.handler.HandleLine(line)
	default:
		log.Warn().Str("module", "tcp.worker").Int("id", int(w.id)).Str("line", line).Msg("protocol violation")
	}
}

func (w *Worker) stop() {
	w.out.Close()
	if tc, ok := w.conn.(*net.TCPConn); ok {
		_ = tc.CloseRead()
	}
	w.disconnected.Store(true)
}

func isExpectedClose(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET)
}
