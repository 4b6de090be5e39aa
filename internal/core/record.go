package core

import "github.com/Wagner-Erik/ResArcana-sub001/internal/domain"

// Record binds a participant to its transport endpoints.
// This is what the roster stores and fans out to.
type Record struct {
	Player *domain.Player
	Out    Outbound
	Worker Worker
}

func NewRecord(p *domain.Player, out Outbound, w Worker) *Record {
	return &Record{Player: p, Out: out, Worker: w}
}

func (r *Record) ID() domain.PlayerID { return r.Player.ID }

func (r *Record) Connected() bool { return !r.Worker.Disconnected() }
