package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wagner-Erik/ResArcana-sub001/internal/core/coretest"
	"github.com/Wagner-Erik/ResArcana-sub001/internal/domain"
)

type peer struct {
	out *coretest.Outbound
	w   *coretest.Worker
}

func join(t *testing.T, c *Coordinator) peer {
	t.Helper()
	p := peer{out: &coretest.Outbound{}, w: &coretest.Worker{}}
	require.NoError(t, c.AddPlayer(c.Reserve(), p.out, p.w))
	return p
}

func newTestCoordinator(autoStart bool) *Coordinator {
	return NewCoordinator(Options{Sessions: 2, AutoStart: autoStart, MaxNameLen: 8})
}

func TestReserve_AssignsJoinOrder(t *testing.T) {
	c := newTestCoordinator(true)
	for want := 0; want < 4; want++ {
		tk := c.Reserve()
		assert.Equal(t, domain.PlayerID(want), tk.ID)
		assert.Len(t, tk.Existing, want)
		require.NoError(t, c.AddPlayer(tk, &coretest.Outbound{}, &coretest.Worker{}))
	}
}

func TestReserve_ExistingCarriesCurrentNames(t *testing.T) {
	c := newTestCoordinator(true)
	join(t, c)
	c.HandleLine("client/0/setName/Alice%")

	tk := c.Reserve()
	require.Len(t, tk.Existing, 1)
	assert.Equal(t, "Alice", tk.Existing[0].DisplayName)
}

func TestAddPlayer_BroadcastsToAll(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	b := join(t, c)

	assert.Equal(t, []string{"server/-1/addPlayer/0#Player1%", "server/-1/addPlayer/1#Player2%"}, a.out.Frames())
	assert.Equal(t, []string{"server/-1/addPlayer/1#Player2%"}, b.out.Frames())
}

func TestAddPlayer_StaleTicket(t *testing.T) {
	c := newTestCoordinator(true)
	tk := c.Reserve()
	join(t, c)
	assert.ErrorIs(t, c.AddPlayer(tk, &coretest.Outbound{}, &coretest.Worker{}), ErrRosterChanged)
}

func TestAddPlayer_HandshakeHoldsStart(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	tk := c.Reserve()

	c.HandleLine("client/0/setReady/true%")
	assert.False(t, c.Info().Started, "a handshaking peer is not ready")
	assert.ErrorIs(t, c.StartSession(), ErrNotReady)

	b := peer{out: &coretest.Outbound{}, w: &coretest.Worker{}}
	require.NoError(t, c.AddPlayer(tk, b.out, b.w))
	assert.Len(t, c.Info().Players, 2)
	assert.NotContains(t, a.out.Frames(), "server/-1/startGame/1%")

	c.HandleLine("client/1/setReady/true%")
	assert.True(t, c.Info().Started)
	assert.Contains(t, a.out.Frames(), "server/-1/startGame/2%")
	assert.Contains(t, b.out.Frames(), "server/-1/startGame/2%")
}

func TestRelease_UnblocksStart(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	tk := c.Reserve()
	c.HandleLine("client/0/setReady/true%")
	require.False(t, c.Info().Started)

	c.Release(tk)
	assert.True(t, c.Info().Started)
	assert.Contains(t, a.out.Frames(), "server/-1/startGame/1%")

	// settling twice does not underflow the in-flight count
	c.Release(tk)
	assert.ErrorIs(t, c.AddPlayer(tk, &coretest.Outbound{}, &coretest.Worker{}), ErrSessionStarted)
}

func TestRelease_StaleSessionTicket(t *testing.T) {
	c := newTestCoordinator(false)
	a := join(t, c)
	tk := c.Reserve()
	a.w.Drop()
	require.True(t, c.EndSessionIfOver())

	c.Release(tk)
	join(t, c)
	c.HandleLine("client/0/setReady/true%")
	require.NoError(t, c.StartSession())
}

func TestSetName_RoundTrip(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	b := join(t, c)

	c.HandleLine("client/1/setName/Alice%")

	assert.Contains(t, a.out.Frames(), "server/1/setName/Alice%")
	assert.Contains(t, b.out.Frames(), "server/1/setName/Alice%")
	assert.Equal(t, "Alice", c.Info().Players[1].DisplayName)
}

func TestSetName_Invalid(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	before := len(a.out.Frames())

	c.HandleLine("client/0/setName/WayTooLongName%")
	c.HandleLine("client/0/setName/%")

	assert.Len(t, a.out.Frames(), before)
	assert.Equal(t, "Player1", c.Info().Players[0].DisplayName)
}

func TestAutoStart_TwoPlayers(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	b := join(t, c)

	c.HandleLine("client/0/setReady/true%")
	assert.False(t, c.Info().Started)
	c.HandleLine("client/1/setReady/true%")
	assert.True(t, c.Info().Started)

	// a repeated ready must not re-announce the start
	c.HandleLine("client/1/setReady/true%")

	for _, p := range []peer{a, b} {
		n := 0
		for _, f := range p.out.Frames() {
			if f == "server/-1/startGame/2%" {
				n++
			}
		}
		assert.Equal(t, 1, n)
	}

	assert.Equal(t, domain.ObserverID, c.Reserve().ID)
}

func TestStart_RequiresAllReady(t *testing.T) {
	c := newTestCoordinator(false)
	assert.ErrorIs(t, c.StartSession(), ErrNotReady, "empty roster never starts")

	join(t, c)
	join(t, c)
	c.HandleLine("client/0/setReady/true%")
	c.HandleLine("client/1/setReady/true%")
	assert.False(t, c.Info().Started, "auto start disabled")

	c.HandleLine("client/1/setReady/false%")
	assert.ErrorIs(t, c.StartSession(), ErrNotReady)

	c.HandleLine("client/1/setReady/true%")
	require.NoError(t, c.StartSession())
	assert.ErrorIs(t, c.StartSession(), ErrAlreadyStarted)
}

func TestSetReady_Invalid(t *testing.T) {
	c := newTestCoordinator(true)
	join(t, c)
	c.HandleLine("client/0/setReady/maybe%")
	assert.False(t, c.Info().Players[0].Ready)
}

func TestGameplayRelay(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	b := join(t, c)
	b.w.Drop()

	c.HandleLine("client/0/draft/3#7~9%")

	assert.Contains(t, a.out.Frames(), "server/0/draft/3#7~9%")
	assert.NotContains(t, b.out.Frames(), "server/0/draft/3#7~9%")

	late := join(t, c)
	assert.NotContains(t, late.out.Frames(), "server/0/draft/3#7~9%")
}

func TestLeavingActions(t *testing.T) {
	for _, keyword := range []string{"gameFinished", "disconnect"} {
		t.Run(keyword, func(t *testing.T) {
			c := newTestCoordinator(true)
			a := join(t, c)
			b := join(t, c)

			c.HandleLine("client/1/" + keyword + "/bye%")

			want := "server/1/" + keyword + "/bye%"
			assert.Contains(t, a.out.Frames(), want)
			assert.Contains(t, b.out.Frames(), want)
			assert.True(t, b.w.Requested())
			assert.False(t, a.w.Requested())
		})
	}
}

func TestIgnoredMessages(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	before := a.out.Frames()

	for _, line := range []string{
		"client/0/teleport/x%",
		"client/0/startGame/5%",
		"client/0/setName%",
		"client/9/draft/1%",
		"server/0/draft/1%",
		"garbage",
	} {
		c.HandleLine(line)
	}
	assert.Equal(t, before, a.out.Frames())
}

func TestOnWorkerLost(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	b := join(t, c)
	b.w.Drop()

	c.OnWorkerLost(1, b.w)
	assert.Contains(t, a.out.Frames(), "server/1/disconnect/1%")

	before := len(a.out.Frames())
	c.OnWorkerLost(1, &coretest.Worker{})
	assert.Len(t, a.out.Frames(), before, "stale worker ignored")
}

func TestPolicy_KickOnSendFailure(t *testing.T) {
	c := NewCoordinator(Options{AutoStart: true, Policy: KickPolicy{}})
	a := join(t, c)
	b := join(t, c)
	b.out.SendErr = coretest.ErrSend

	c.HandleLine("client/0/shuffle/1%")
	assert.True(t, b.w.Requested())
	assert.False(t, a.w.Requested())
}

func TestBroadcast_WrapsTwoFieldMessages(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	res := c.Broadcast("nextRound/2")
	assert.Equal(t, 1, res.SendTo)
	assert.Contains(t, a.out.Frames(), "server/-1/nextRound/2%")
}

func TestEndSession_ClearsAndRestartsIDs(t *testing.T) {
	c := newTestCoordinator(true)
	assert.False(t, c.EndSessionIfOver(), "empty roster is not a finished session")

	a := join(t, c)
	b := join(t, c)
	c.HandleLine("client/0/setReady/true%")
	c.HandleLine("client/1/setReady/true%")
	first := c.Info().ID

	a.w.Drop()
	assert.False(t, c.EndSessionIfOver())
	b.w.Drop()
	assert.True(t, c.EndSessionIfOver())

	info := c.Info()
	assert.False(t, info.Started)
	assert.Equal(t, 1, info.Completed)
	assert.Empty(t, info.Players)
	assert.NotEqual(t, first, info.ID)
	assert.False(t, c.Done())

	assert.Equal(t, domain.PlayerID(0), c.Reserve().ID)
}

func TestAwaitSessionEnd(t *testing.T) {
	c := newTestCoordinator(true)
	p := join(t, c)

	go func() {
		time.Sleep(20 * time.Millisecond)
		p.w.Drop()
	}()
	assert.True(t, c.AwaitSessionEnd(context.Background(), 5*time.Millisecond, nil))

	closed := make(chan struct{})
	close(closed)
	join(t, c)
	assert.False(t, c.AwaitSessionEnd(context.Background(), 5*time.Millisecond, closed))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, c.AwaitSessionEnd(ctx, 5*time.Millisecond, nil))
}

func TestDisconnectAll(t *testing.T) {
	c := newTestCoordinator(true)
	a := join(t, c)
	b := join(t, c)
	c.DisconnectAll()
	assert.True(t, a.w.Requested())
	assert.True(t, b.w.Requested())
}
