package engine

import (
	"sync/atomic"
	"time"

	"github.com/panjf2000/gnet/v2"

	"github.com/yourusername/relay/pkg/relay/http11"
	"github.com/yourusername/relay/pkg/relay/socket"
)

// gnetTransport implements http11.VectorTransport on a gnet connection.
//
// gnet accepts every write into its outbound buffer, so backpressure is
// synthesized: once OutboundBuffered reaches highWater, writes take only
// what fits and report WouldBlock. The loop keeps the rest and retries on
// the next writable event.
//
// Write, Writev, Shutdown and Close run on the connection's event loop.
// The atomic fields are shared with OnTick.
type gnetTransport struct {
	c         gnet.Conn
	highWater int

	// closing asks the current callback to return gnet.Close.
	closing bool
	// gone is set once gnet has closed the connection.
	gone bool

	deadline      atomic.Int64 // unix nanos, 0 = no timeout
	timedOut      atomic.Bool
	writable      atomic.Bool
	wantsWritable atomic.Bool

	vec [][]byte
}

var _ http11.VectorTransport = (*gnetTransport)(nil)

func newTransport(c gnet.Conn, highWater int) *gnetTransport {
	return &gnetTransport{c: c, highWater: highWater}
}

// room returns how many bytes gnet may still buffer.
func (t *gnetTransport) room() int {
	return t.highWater - t.c.OutboundBuffered()
}

func (t *gnetTransport) Write(p []byte) (int, http11.WriteOutcome) {
	if t.gone || t.closing {
		return 0, http11.Closed
	}
	room := t.room()
	if room <= 0 {
		return 0, http11.WouldBlock
	}
	n := len(p)
	if n > room {
		n = room
	}
	if _, err := t.c.Write(p[:n]); err != nil {
		t.gone = true
		return 0, http11.Closed
	}
	if n < len(p) {
		return n, http11.WouldBlock
	}
	return n, http11.Accepted
}

func (t *gnetTransport) Writev(parts [][]byte) (int, http11.WriteOutcome) {
	if t.gone || t.closing {
		return 0, http11.Closed
	}
	room := t.room()
	if room <= 0 {
		return 0, http11.WouldBlock
	}

	// Cut the vector at the high-water mark.
	t.vec = t.vec[:0]
	total, blocked := 0, false
	for _, p := range parts {
		if total+len(p) > room {
			t.vec = append(t.vec, p[:room-total])
			total = room
			blocked = true
			break
		}
		t.vec = append(t.vec, p)
		total += len(p)
	}
	_, err := t.c.Writev(t.vec)
	clear(t.vec)
	if err != nil {
		t.gone = true
		return 0, http11.Closed
	}
	if blocked {
		return total, http11.WouldBlock
	}
	return total, http11.Accepted
}

// Shutdown half-closes the socket. A no-op once gnet closed it.
func (t *gnetTransport) Shutdown() error {
	if t.gone {
		return nil
	}
	return socket.Shutdown(t.c.Fd())
}

// Close makes the running callback return gnet.Close, which flushes the
// outbound buffer and closes the connection on the event loop.
func (t *gnetTransport) Close() error {
	t.closing = true
	return nil
}

// SetTimeout (re)arms the idle deadline; d <= 0 disables it.
func (t *gnetTransport) SetTimeout(d time.Duration) {
	if d <= 0 {
		t.deadline.Store(0)
		return
	}
	t.deadline.Store(time.Now().Add(d).UnixNano())
}

func (t *gnetTransport) expired(now int64) bool {
	d := t.deadline.Load()
	return d != 0 && now >= d
}
