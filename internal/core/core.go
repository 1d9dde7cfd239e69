package core

// Frame is a raw outbound payload (already-encoded JSON signal message).
type Frame []byte

// ConnID identifies one client connection for the lifetime of its socket.
type ConnID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats for one fan-out.
type PublishResult struct {
	SentTo  int
	Dropped int
}
