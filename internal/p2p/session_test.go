package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_StartsDisconnected(t *testing.T) {
	s := NewSession("peer-1")
	assert.Equal(t, Disconnected, s.State())
}

func TestSession_FullLifecycle(t *testing.T) {
	s := NewSession("peer-1")
	require.NoError(t, s.Transition(Connecting))
	require.NoError(t, s.Transition(Connected))
	require.NoError(t, s.Transition(Idle))
	require.NoError(t, s.Transition(Syncing))
	require.NoError(t, s.Transition(Idle))
	require.NoError(t, s.Transition(Disconnected))
	assert.Equal(t, Disconnected, s.State())
}

func TestSession_RejectsInvalidTransition(t *testing.T) {
	s := NewSession("peer-1")
	err := s.Transition(Syncing)
	assert.Error(t, err)
	assert.Equal(t, Disconnected, s.State())
}

func TestSession_RejectsSkippingConnecting(t *testing.T) {
	s := NewSession("peer-1")
	err := s.Transition(Connected)
	assert.Error(t, err)
}

func TestSession_DisconnectFromAnyLiveState(t *testing.T) {
	for _, state := range []ConnectionState{Connecting, Connected, Idle, Syncing} {
		s := &Session{peerID: "peer-1", state: state}
		assert.NoError(t, s.Transition(Disconnected), "from %s", state)
	}
}
