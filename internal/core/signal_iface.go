package core

// SessionID identifies one client (the ct cookie), not one user: the
// same actor may hold several sessions.
type SessionID string

// Frame is a raw text payload.
type Frame []byte

// SignalConnection abstracts a websocket connection to a client.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
