package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPlayer(t *testing.T) {
	p := NewPlayer(2)
	assert.Equal(t, PlayerID(2), p.ID)
	assert.Equal(t, "Player3", p.DisplayName)
	assert.False(t, p.Ready)
	assert.False(t, p.ID.IsObserver())
	assert.True(t, ObserverID.IsObserver())
}

func TestSetDisplayName(t *testing.T) {
	p := NewPlayer(0)
	assert.ErrorIs(t, p.SetDisplayName("", DefaultMaxNameLen), ErrNameEmpty)
	assert.ErrorIs(t, p.SetDisplayName(strings.Repeat("x", DefaultMaxNameLen+1), DefaultMaxNameLen), ErrNameTooLong)
	assert.Equal(t, "Player1", p.DisplayName)

	assert.NoError(t, p.SetDisplayName("Alice", DefaultMaxNameLen))
	assert.Equal(t, "Alice", p.DisplayName)
	assert.NoError(t, p.SetDisplayName(strings.Repeat("x", 100), 0), "0 disables the limit")
}
