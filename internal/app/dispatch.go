package app

import (
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/domain"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/protocol"
)

// HandleLine interprets one inbound peer line. Lines are handled one at a
// time under the roster lock.
func (c *Coordinator) HandleLine(line string) {
	msg, err := protocol.Parse(line)
	if err != nil {
		if id, ok := protocol.SenderOf(line); ok {
			log.Warn().Err(err).Str("module", "app.coordinator").Int("id", id).Str("line", line).Msg("malformed message")
		} else {
			log.Debug().Err(err).Str("module", "app.coordinator").Str("line", line).Msg("malformed message")
		}
		return
	}
	if msg.Marker != protocol.ClientMarker {
		log.Warn().Str("module", "app.coordinator").Str("marker", msg.Marker).Msg("unexpected sender marker")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := domain.PlayerID(msg.Sender)
	rec, ok := c.roster.Get(id)
	if !ok {
		log.Warn().Str("module", "app.coordinator").Int("id", msg.Sender).Msg("message from unknown player")
		return
	}

	switch {
	case msg.Action == protocol.ActionSetName:
		if c.started {
			log.Warn().Str("module", "app.coordinator").Int("id", msg.Sender).Msg("rename after start ignored")
			return
		}
		if err := rec.Player.SetDisplayName(msg.Value, c.maxNameLen); err != nil {
			log.Warn().Err(err).Str("module", "app.coordinator").Int("id", msg.Sender).Msg("invalid name")
			return
		}
		log.Info().Str("module", "app.coordinator").Int("id", msg.Sender).Str("name", msg.Value).Msg("rename")
		c.broadcastLocked(protocol.Relay(msg.Sender, msg.Keyword, msg.Value))

	case msg.Action == protocol.ActionSetReady:
		ready, err := strconv.ParseBool(msg.Value)
		if err != nil {
			log.Warn().Err(err).Str("module", "app.coordinator").Int("id", msg.Sender).Msg("invalid ready flag")
			return
		}
		rec.Player.Ready = ready
		log.Info().Str("module", "app.coordinator").Int("id", msg.Sender).Bool("ready", ready).Msg("ready")
		if c.autoStart {
			if err := c.startLocked(); err != nil {
				log.Debug().Err(err).Str("module", "app.coordinator").Msg("auto start skipped")
			}
		}

	case msg.Action == protocol.ActionGameFinished, msg.Action == protocol.ActionDisconnect:
		log.Info().Str("module", "app.coordinator").Int("id", msg.Sender).Str("action", msg.Keyword).Msg("leaving")
		c.broadcastLocked(protocol.Relay(msg.Sender, msg.Keyword, msg.Value))
		rec.Worker.Disconnect()

	case msg.Action.IsGameplay():
		c.broadcastLocked(protocol.Relay(msg.Sender, msg.Keyword, msg.Value))

	default:
		log.Warn().Str("module", "app.coordinator").Int("id", msg.Sender).Str("action", msg.Keyword).Msg("unrecognized action")
	}
}

func itoa(id domain.PlayerID) string {
	return strconv.Itoa(int(id))
}
