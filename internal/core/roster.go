package core

import (
	"github.com/Wagner-Erik/ResArcana-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

// PublishResult reports delivery stats to the coordinator.
type PublishResult struct {
	SendTo  int
	Dropped []*Record
}

// Roster is the insertion-ordered set of connection records of one session.
// It is not safe for concurrent use; the coordinator serializes all access.
type Roster struct {
	records []*Record
	taps    map[Tap]struct{}
}

func NewRoster() *Roster {
	return &Roster{taps: make(map[Tap]struct{})}
}

func (r *Roster) Len() int { return len(r.records) }

// Append adds rec at the end. rec's id must equal the current length.
func (r *Roster) Append(rec *Record) {
	r.records = append(r.records, rec)
	log.Info().Str("module", "core.roster").Int("id", int(rec.ID())).Int("size", len(r.records)).Msg("record added")
}

func (r *Roster) Get(id domain.PlayerID) (*Record, bool) {
	if id < 0 || int(id) >= len(r.records) {
		return nil, false
	}
	return r.records[id], true
}

// Records returns a copy of the records in join order.
func (r *Roster) Records() []*Record {
	out := make([]*Record, len(r.records))
	copy(out, r.records)
	return out
}

// AllReady reports whether the roster is non-empty and every player is ready.
func (r *Roster) AllReady() bool {
	if len(r.records) == 0 {
		return false
	}
	for _, rec := range r.records {
		if !rec.Player.Ready {
			return false
		}
	}
	return true
}

// AllDisconnected reports whether the roster is non-empty and no worker is
// still running.
func (r *Roster) AllDisconnected() bool {
	if len(r.records) == 0 {
		return false
	}
	for _, rec := range r.records {
		if rec.Connected() {
			return false
		}
	}
	return true
}

// Clear drops every record. The roster is never partially truncated.
func (r *Roster) Clear() {
	r.records = nil
}

func (r *Roster) AddTap(t Tap)    { r.taps[t] = struct{}{} }
func (r *Roster) RemoveTap(t Tap) { delete(r.taps, t) }

// Broadcast delivers f to every connected record and to every tap.
// A failed send to one recipient never stops delivery to the others.
func (r *Roster) Broadcast(f Frame) PublishResult {
	res := PublishResult{}
	for _, rec := range r.records {
		if !rec.Connected() {
			continue
		}
		if err := rec.Out.TrySend(f); err != nil {
			log.Warn().Err(err).Str("module", "core.roster").Int("id", int(rec.ID())).Msg("send failed")
			res.Dropped = append(res.Dropped, rec)
			continue
		}
		res.SendTo++
	}
	for t := range r.taps {
		_ = t.TrySend(f)
	}
	log.Debug().Str("module", "core.roster").Str("frame", string(f)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

// Snapshot returns a read-only view of the players.
func (r *Roster) Snapshot() []domain.PlayerStatus {
	out := make([]domain.PlayerStatus, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, domain.PlayerStatus{Player: *rec.Player, Connected: rec.Connected()})
	}
	return out
}
