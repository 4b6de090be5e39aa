package tcp

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineConn_WritesLinesAndFlushesOnClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := NewLineConn(server, 4)
	require.NoError(t, c.TrySend("a"))
	require.NoError(t, c.Send("b"))
	c.Close()
	go c.WritePump()

	r := bufio.NewReader(client)
	require.NoError(t, client.SetReadDeadline(time.Now().Add(time.Second)))
	for _, want := range []string{"a\n", "b\n"} {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
	_, err := r.ReadString('\n')
	assert.Error(t, err)

	assert.ErrorIs(t, c.TrySend("c"), ErrClosed)
	assert.ErrorIs(t, c.Send("c"), ErrClosed)
	c.Close()
}

func TestLineConn_Backpressure(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	c := NewLineConn(server, 1)
	require.NoError(t, c.TrySend("a"))
	assert.ErrorIs(t, c.TrySend("b"), ErrBackpressure)
}

func TestLineConn_SendReturnsWhenWritesFail(t *testing.T) {
	server, client := net.Pipe()
	c := NewLineConn(server, 1)
	go c.WritePump()
	require.NoError(t, client.Close())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			_ = c.Send("x")
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked after the connection broke")
	}
	assert.ErrorIs(t, c.Send("y"), ErrClosed)
	assert.ErrorIs(t, c.TrySend("y"), ErrClosed)
}
