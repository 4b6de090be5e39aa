package core

// Frame is one wire line without its trailing newline.
type Frame string

// Outbound abstracts a peer's outgoing message path.
// Owned by the adapter; the adapter must Close() it.
type Outbound interface {
	TrySend(Frame) error
	Close()
}

// Worker is the handle of the goroutine reading a peer's input.
type Worker interface {
	// Disconnect asks the worker to stop after the line it is reading.
	Disconnect()
	Disconnected() bool
}

// Tap observes every broadcast frame. Taps never take part in the session.
type Tap interface {
	TrySend(Frame) error
}
