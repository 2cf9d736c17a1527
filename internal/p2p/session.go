package p2p

import (
	"fmt"
	"sync"
)

// ConnectionState is a P2P session's position in the C6 state machine:
// Disconnected -> Connecting -> Connected -> (Syncing <-> Idle) ->
// Disconnected. Implemented as a small explicit FSM type rather than a
// generic state-machine library, since none of the example repos pull
// one in.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Syncing
	Idle
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Syncing:
		return "syncing"
	case Idle:
		return "idle"
	default:
		return "unknown"
	}
}

// validTransitions enumerates every legal edge in the state machine.
// Connected is a transient state reached right after the handshake
// completes, from which the engine moves to Idle or straight into
// Syncing; a finished sync returns from Syncing to Idle.
var validTransitions = map[ConnectionState]map[ConnectionState]bool{
	Disconnected: {Connecting: true},
	Connecting:   {Connected: true, Disconnected: true},
	Connected:    {Idle: true, Syncing: true, Disconnected: true},
	Idle:         {Syncing: true, Disconnected: true},
	Syncing:      {Idle: true, Disconnected: true},
}

// Session tracks one P2P peer connection's lifecycle state. Not safe for
// concurrent use without the internal mutex, which guards only the state
// field itself; callers sequencing multiple transitions still need to
// serialize at a higher level if they require atomicity across calls.
type Session struct {
	mu     sync.Mutex
	peerID string
	state  ConnectionState
}

// NewSession starts a session for peerID in the Disconnected state.
func NewSession(peerID string) *Session {
	return &Session{peerID: peerID, state: Disconnected}
}

// State returns the session's current state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transition moves the session to next, failing if the edge is not in
// validTransitions.
func (s *Session) Transition(next ConnectionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validTransitions[s.state][next] {
		return fmt.Errorf("invalid transition for peer %s: %s -> %s", s.peerID, s.state, next)
	}
	s.state = next
	return nil
}
