// Package broker wires the session coordinator to its network surfaces and
// runs the session loop.
package broker

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	router "github.com/Wagner-Erik/ResArcana-sub001/internal/adapters/http"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/adapters/tcp"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/app"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/config"
)

type Broker struct {
	cfg      *config.Config
	coord    *app.Coordinator
	acceptor *tcp.Acceptor
	httpSrv  *http.Server
	httpLn   net.Listener

	shutdownOnce sync.Once
}

// New opens the game port and, when configured, the status port. Failing
// to listen is the only error a broker reports.
func New(ctx context.Context, cfg *config.Config) (*Broker, error) {
	var policy app.Policy = app.SimplePolicy{}
	if cfg.KickOnSendError {
		policy = app.KickPolicy{}
	}
	coord := app.NewCoordinator(app.Options{
		Sessions:   cfg.Sessions,
		AutoStart:  cfg.AutoStart,
		MaxNameLen: cfg.MaxNameLen,
		Policy:     policy,
	})

	acceptor, err := tcp.Listen(cfg.Addr(), coord, tcp.Options{
		HandshakeTimeout: cfg.HandshakeTimeout,
		SendBuffer:       cfg.SendBuffer,
	})
	if err != nil {
		return nil, err
	}

	b := &Broker{cfg: cfg, coord: coord, acceptor: acceptor}
	if cfg.HTTPPort > 0 {
		ln, err := net.Listen("tcp", cfg.HTTPAddr())
		if err != nil {
			acceptor.Close()
			return nil, err
		}
		b.httpLn = ln
		b.httpSrv = &http.Server{Handler: router.SetupRouter(ctx, cfg.Mode, coord)}
	}
	return b, nil
}

func (b *Broker) Addr() net.Addr { return b.acceptor.Addr() }

func (b *Broker) Coordinator() *app.Coordinator { return b.coord }

// Run hosts the configured number of sessions. It returns once they are
// done, ctx ends, or the listener is closed from outside.
func (b *Broker) Run(ctx context.Context) error {
	var wg conc.WaitGroup
	wg.Go(b.acceptor.Run)
	if b.httpSrv != nil {
		wg.Go(func() {
			log.Info().Str("module", "broker").Str("addr", b.httpLn.Addr().String()).Msg("status API started")
			if err := b.httpSrv.Serve(b.httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Str("module", "broker").Msg("status API error")
			}
		})
	}

	for !b.coord.Done() {
		if !b.coord.AwaitSessionEnd(ctx, b.cfg.PollInterval, b.acceptor.Stopped()) {
			break
		}
		info := b.coord.Info()
		log.Info().Str("module", "broker").Int("completed", info.Completed).Int("total", info.Total).Msg("session completed")
	}

	b.Shutdown()
	wg.Wait()
	return nil
}

// Shutdown closes the listener and asks every remaining worker to stop.
// It covers peers that joined after the end condition was last checked.
func (b *Broker) Shutdown() {
	b.shutdownOnce.Do(func() {
		log.Info().Str("module", "broker").Msg("shutting down")
		b.acceptor.Close()
		b.coord.DisconnectAll()
		if b.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := b.httpSrv.Shutdown(ctx); err != nil {
				log.Error().Err(err).Str("module", "broker").Msg("status API forced to shutdown")
			}
		}
	})
}
