package http11

import "time"

// WriteOutcome is the result of handing bytes to a transport.
type WriteOutcome uint8

const (
	// Accepted means every byte was taken by the transport.
	Accepted WriteOutcome = iota

	// WouldBlock means only a prefix was taken; the caller keeps the rest
	// and retries on the next writable event. It is not an error.
	WouldBlock

	// Closed means the peer is gone. Nothing more will be sent.
	Closed
)

// String implements fmt.Stringer.
func (o WriteOutcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case WouldBlock:
		return "would-block"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Transport is the connection handle provided by the event-loop engine.
// Implementations are driven from the owning loop goroutine only.
type Transport interface {
	// Write hands p to the socket and reports how many leading bytes were
	// taken. It must not retain p after returning.
	Write(p []byte) (n int, outcome WriteOutcome)

	// Shutdown half-closes the write side once pending output is flushed.
	Shutdown() error

	// Close closes the connection immediately.
	Close() error

	// SetTimeout arms (d > 0) or disarms (d == 0) the idle timer.
	SetTimeout(d time.Duration)
}

// VectorTransport is a Transport that can send several buffers in one
// system call. Outbox uses it for combined header and body transmissions.
type VectorTransport interface {
	Transport
	Writev(bufs [][]byte) (n int, outcome WriteOutcome)
}
