// Package domain holds the session participants and the session status shown to observers.
package domain

import (
	"errors"
	"fmt"
)

// ObserverID is handed to a peer that connects after the session started.
const ObserverID PlayerID = -1

const DefaultMaxNameLen = 36

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
)

// PlayerID is the join-order index of a participant within one session.
type PlayerID int

func (id PlayerID) IsObserver() bool { return id < 0 }

// Player is what the roster knows about one participant besides its connection.
type Player struct {
	ID          PlayerID `json:"id"`
	DisplayName string   `json:"name"`
	Ready       bool     `json:"ready"`
}

// NewPlayer starts a participant with its default name, not ready.
func NewPlayer(id PlayerID) *Player {
	return &Player{ID: id, DisplayName: DefaultName(id)}
}

func DefaultName(id PlayerID) string {
	return fmt.Sprintf("Player%d", id+1)
}

func (p *Player) SetDisplayName(name string, maxLen int) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if maxLen > 0 && len(name) > maxLen {
		return ErrNameTooLong
	}
	p.DisplayName = name
	return nil
}
