package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/app"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/core"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/domain"
)

// Session is the part of the coordinator the status API exposes.
type Session interface {
	Info() domain.SessionInfo
	StartSession() error
	AddTap(core.Tap)
	RemoveTap(core.Tap)
}

func SetupRouter(ctx context.Context, mode string, s Session) *gin.Engine {
	if mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/api")
	api.GET("/session", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.Info())
	})
	api.POST("/session/start", func(c *gin.Context) {
		handleStart(c, s)
	})
	api.GET("/ws/events", func(c *gin.Context) {
		ServeEvents(ctx, c, s)
	})

	log.Info().Str("module", "adapters.http").Str("mode", mode).Msg("router setup")
	return r
}

func handleStart(c *gin.Context, s Session) {
	err := s.StartSession()
	switch {
	case err == nil:
		c.JSON(http.StatusOK, s.Info())
	case errors.Is(err, app.ErrAlreadyStarted), errors.Is(err, app.ErrNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("start session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
	}
}
