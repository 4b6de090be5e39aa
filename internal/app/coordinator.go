package app

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/core"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/domain"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/protocol"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotReady       = errors.New("not every player is ready")
	ErrSessionStarted = errors.New("session started during handshake")
	ErrRosterChanged  = errors.New("roster changed during handshake")
)

type Options struct {
	Sessions   int
	AutoStart  bool
	MaxNameLen int
	Policy     Policy
}

// Coordinator owns the roster. Every read or write of the roster and of
// the records' players happens under mu.
type Coordinator struct {
	mu        sync.Mutex
	roster    *core.Roster
	started   bool
	pending   int
	sessionID domain.SessionID
	completed int

	total      int
	autoStart  bool
	maxNameLen int
	policy     Policy
}

func NewCoordinator(opts Options) *Coordinator {
	if opts.Sessions < 1 {
		opts.Sessions = 1
	}
	if opts.Policy == nil {
		opts.Policy = SimplePolicy{}
	}
	return &Coordinator{
		roster:     core.NewRoster(),
		sessionID:  newSessionID(),
		total:      opts.Sessions,
		autoStart:  opts.AutoStart,
		maxNameLen: opts.MaxNameLen,
		policy:     opts.Policy,
	}
}

func newSessionID() domain.SessionID {
	return domain.SessionID(uuid.NewString())
}

// Ticket is the roster snapshot a joining peer is handshaken with.
type Ticket struct {
	ID       domain.PlayerID
	Existing []domain.Player
	Session  domain.SessionID
}

// Reserve snapshots the roster for a new connection. After the session
// started the ticket carries domain.ObserverID. A player ticket holds the
// start back until it is settled by AddPlayer or Release.
func (c *Coordinator) Reserve() Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Ticket{ID: domain.ObserverID, Session: c.sessionID}
	if c.started {
		return t
	}
	t.ID = domain.PlayerID(c.roster.Len())
	for _, rec := range c.roster.Records() {
		t.Existing = append(t.Existing, *rec.Player)
	}
	c.pending++
	return t
}

// Release gives up a ticket whose peer never completed the handshake.
func (c *Coordinator) Release(t Ticket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.settleLocked(t) || !c.autoStart {
		return
	}
	if err := c.startLocked(); err != nil {
		log.Debug().Err(err).Str("module", "app.coordinator").Msg("auto start skipped")
	}
}

// settleLocked drops t from the in-flight joins. Tickets of an earlier
// session were already dropped by the reset.
func (c *Coordinator) settleLocked(t Ticket) bool {
	if t.ID.IsObserver() || t.Session != c.sessionID || c.pending == 0 {
		return false
	}
	c.pending--
	return true
}

// AddPlayer appends the record of a handshaken peer and announces it.
func (c *Coordinator) AddPlayer(t Ticket, out core.Outbound, w core.Worker) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked(t)
	if c.started {
		return ErrSessionStarted
	}
	if t.Session != c.sessionID || int(t.ID) != c.roster.Len() {
		return ErrRosterChanged
	}
	p := domain.NewPlayer(t.ID)
	c.roster.Append(core.NewRecord(p, out, w))
	log.Info().Str("module", "app.coordinator").Str("session", string(c.sessionID)).Int("id", int(p.ID)).Msg("player joined")
	c.broadcastLocked(protocol.Notice(protocol.ActionAddPlayer, protocol.JoinParts(itoa(p.ID), p.DisplayName)))
	return nil
}

// Broadcast sends msg to every connected participant. A two-field
// action/value message is wrapped with the broker envelope.
func (c *Coordinator) Broadcast(msg string) core.PublishResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broadcastLocked(msg)
}

func (c *Coordinator) broadcastLocked(msg string) core.PublishResult {
	res := c.roster.Broadcast(core.Frame(protocol.Envelope(msg)))
	for _, slow := range res.Dropped {
		switch c.policy.OnSendFailure(slow) {
		case Disconnect:
			log.Warn().Str("module", "app.coordinator").Int("id", int(slow.ID())).Msg("disconnecting slow peer")
			slow.Worker.Disconnect()
		case Ignore:
		}
	}
	return res
}

// StartSession fires the start notice once every player is ready.
func (c *Coordinator) StartSession() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked()
}

func (c *Coordinator) startLocked() error {
	if c.started {
		return ErrAlreadyStarted
	}
	if c.pending > 0 || !c.roster.AllReady() {
		return ErrNotReady
	}
	size := c.roster.Len()
	c.broadcastLocked(protocol.Notice(protocol.ActionStartGame, itoa(domain.PlayerID(size))))
	c.started = true
	log.Info().Str("module", "app.coordinator").Str("session", string(c.sessionID)).Int("players", size).Msg("session started")
	return nil
}

// OnWorkerLost is called by a worker whose connection dropped without a
// requested disconnect. Stale workers of earlier sessions are ignored.
func (c *Coordinator) OnWorkerLost(id domain.PlayerID, w core.Worker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.roster.Get(id)
	if !ok || rec.Worker != w {
		log.Debug().Str("module", "app.coordinator").Int("id", int(id)).Msg("lost worker not in roster")
		return
	}
	log.Warn().Str("module", "app.coordinator").Int("id", int(id)).Msg("player disconnected unexpectedly")
	c.broadcastLocked(protocol.Relay(int(id), protocol.ActionDisconnect.String(), itoa(id)))
}

// EndSessionIfOver clears the roster once every worker reports
// disconnected. Check and clear happen atomically.
func (c *Coordinator) EndSessionIfOver() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.roster.AllDisconnected() {
		return false
	}
	c.resetLocked()
	return true
}

func (c *Coordinator) resetLocked() {
	log.Info().Str("module", "app.coordinator").Str("session", string(c.sessionID)).Int("players", c.roster.Len()).Msg("session over")
	c.roster.Clear()
	c.started = false
	c.pending = 0
	c.completed++
	c.sessionID = newSessionID()
}

// Done reports whether the configured number of sessions completed.
func (c *Coordinator) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed >= c.total
}

// DisconnectAll requests disconnection of every remaining record.
func (c *Coordinator) DisconnectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.roster.Records() {
		rec.Worker.Disconnect()
	}
}

func (c *Coordinator) Info() domain.SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.SessionInfo{
		ID:        c.sessionID,
		Started:   c.started,
		Completed: c.completed,
		Total:     c.total,
		Players:   c.roster.Snapshot(),
	}
}

func (c *Coordinator) AddTap(t core.Tap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roster.AddTap(t)
}

func (c *Coordinator) RemoveTap(t core.Tap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roster.RemoveTap(t)
}
