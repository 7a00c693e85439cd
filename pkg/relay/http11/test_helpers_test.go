package http11

import (
	"bytes"
	"time"
)

// mockTransport implements Transport for testing. It records every call and
// the bytes accepted, and can simulate a full socket buffer or a dead peer.
type mockTransport struct {
	wire  bytes.Buffer
	calls [][]byte // accepted bytes per call

	// budget is how many more bytes the socket takes; negative = unlimited.
	budget   int
	peerGone bool

	shutdown bool
	closed   bool
	timeout  time.Duration
}

func newMockTransport() *mockTransport {
	return &mockTransport{budget: -1}
}

func (m *mockTransport) Write(p []byte) (int, WriteOutcome) {
	if m.peerGone {
		return 0, Closed
	}
	n := len(p)
	if m.budget >= 0 && n > m.budget {
		n = m.budget
	}
	if m.budget >= 0 {
		m.budget -= n
	}
	m.wire.Write(p[:n])
	m.calls = append(m.calls, append([]byte(nil), p[:n]...))
	if n < len(p) {
		return n, WouldBlock
	}
	return n, Accepted
}

func (m *mockTransport) Shutdown() error {
	m.shutdown = true
	return nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}

func (m *mockTransport) SetTimeout(d time.Duration) {
	m.timeout = d
}

func (m *mockTransport) String() string {
	return m.wire.String()
}

// mockVectorTransport adds Writev; each Writev counts as one call.
type mockVectorTransport struct {
	*mockTransport
	vectored int
}

func newMockVectorTransport() *mockVectorTransport {
	return &mockVectorTransport{mockTransport: newMockTransport()}
}

func (m *mockVectorTransport) Writev(bufs [][]byte) (int, WriteOutcome) {
	m.vectored++
	var joined []byte
	for _, b := range bufs {
		joined = append(joined, b...)
	}
	return m.Write(joined)
}

// offsetOf returns the offset of sub within buf when sub is a view into buf,
// or -1 when it is not.
func offsetOf(buf, sub []byte) int {
	if len(sub) == 0 {
		return -1
	}
	for i := range buf {
		if &buf[i] == &sub[0] {
			return i
		}
	}
	return -1
}
