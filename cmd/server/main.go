package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/broker"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// console logging before flags are read; the level is raised or lowered after Load
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("bad arguments")
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	b, err := broker.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start broker")
	}
	log.Info().Str("addr", b.Addr().String()).Int("sessions", cfg.Sessions).Msg("ResArcana broker started")

	if err := b.Run(ctx); err != nil {
		log.Error().Err(err).Msg("broker error")
	}
	log.Info().Msg("Broker exited gracefully")
}
