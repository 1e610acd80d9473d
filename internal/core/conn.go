package core

// Frame is a raw encoded payload sent over a live transport.
type Frame []byte

// Conn abstracts a connection's live transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type Conn interface {
	TrySend(Frame) error
	Close()
}

// ConnID is an opaque token assigned at registration.
type ConnID string

// State tracks a connection through its lifecycle:
// Connecting -> Open -> (Joined <-> Open) -> Closed.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}
