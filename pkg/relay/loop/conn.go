package loop

import (
	"sync/atomic"

	"github.com/yourusername/relay/pkg/relay/http11"
)

var connIDs atomic.Uint64

// Conn is the protocol state of one connection. It is not bound to a Loop:
// any loop may dispatch its events, one at a time.
type Conn struct {
	id    uint64
	state ConnState
	out   *http11.Outbox
	rw    *http11.ResponseWriter
	req   http11.Request

	// prevLen is the input length at the last incomplete header parse.
	prevLen int

	inFlight     bool
	continueSent bool
	closeAfter   bool
	requests     int
}

// NewConn creates the state for a connection writing to t.
func NewConn(t http11.Transport) *Conn {
	out := http11.NewOutbox(t)
	return &Conn{
		id:  connIDs.Add(1),
		out: out,
		rw:  http11.NewResponseWriter(out, nil, nil),
	}
}

// ID returns a process-unique connection number for logging.
func (c *Conn) ID() uint64 {
	return c.id
}

// State returns the connection's state-machine state.
func (c *Conn) State() ConnState {
	return c.state
}

// Outbox returns the connection's write path.
func (c *Conn) Outbox() *http11.Outbox {
	return c.out
}

// Requests returns the number of completed responses.
func (c *Conn) Requests() int {
	return c.requests
}

// InFlight reports whether a response has started but not ended.
func (c *Conn) InFlight() bool {
	return c.inFlight
}

// WantsWritable reports whether the connection is waiting for a writable
// event, either to drain queued bytes or to resume a streaming response.
func (c *Conn) WantsWritable() bool {
	if c.state.Phase != PhaseOpen && c.state.Phase != PhaseClosing {
		return false
	}
	return c.out.Buffered() > 0 || (c.inFlight && c.rw.WantsWritable())
}
