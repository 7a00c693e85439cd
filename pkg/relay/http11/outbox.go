package http11

import "github.com/valyala/bytebufferpool"

// Outbox is the per-connection write path. It forwards bytes to the
// Transport and, when the transport reports WouldBlock, keeps the unsent
// suffix in a pooled buffer.
//
// Ordering guarantee: while anything is pending, later writes are appended
// behind it and the transport is not touched until Flush has drained the
// backlog. Bytes are never dropped, duplicated or reordered.
//
// An Outbox is owned by a single loop goroutine.
type Outbox struct {
	t       Transport
	pending *bytebufferpool.ByteBuffer
	written uint64
	closed  bool
	blocked uint64
}

// NewOutbox binds an outbox to t.
func NewOutbox(t Transport) *Outbox {
	return &Outbox{t: t}
}

// Transport returns the bound transport.
func (o *Outbox) Transport() Transport {
	return o.t
}

// Write sends p or queues whatever the transport could not take.
//
// Allocation behavior: 0 allocs/op when the transport accepts everything
func (o *Outbox) Write(p []byte) WriteOutcome {
	if o.closed {
		return Closed
	}
	if len(p) == 0 {
		return o.state()
	}
	if o.pending != nil {
		o.queue(p)
		return WouldBlock
	}

	n, out := o.t.Write(p)
	return o.settle(out, n, p)
}

// Writev sends parts as one transmission. Transports implementing
// VectorTransport get a single vectored write; others get one write of the
// concatenation assembled in a pooled buffer.
func (o *Outbox) Writev(parts ...[]byte) WriteOutcome {
	if o.closed {
		return Closed
	}
	if o.pending != nil {
		for _, p := range parts {
			o.queue(p)
		}
		return o.state()
	}

	vt, ok := o.t.(VectorTransport)
	if !ok {
		buf := bytebufferpool.Get()
		for _, p := range parts {
			buf.B = append(buf.B, p...)
		}
		out := o.Write(buf.B)
		bytebufferpool.Put(buf)
		return out
	}

	n, out := vt.Writev(parts)
	if out == Closed {
		o.markClosed()
		return Closed
	}
	o.written += uint64(n)
	// Queue the unsent suffix across part boundaries.
	for _, p := range parts {
		if n >= len(p) {
			n -= len(p)
			continue
		}
		o.queue(p[n:])
		n = 0
	}
	if o.pending != nil {
		o.blocked++
		return WouldBlock
	}
	return Accepted
}

// Flush retries the pending backlog. It is called on every writable event
// before any new application bytes are produced.
func (o *Outbox) Flush() WriteOutcome {
	if o.closed {
		return Closed
	}
	if o.pending == nil {
		return Accepted
	}

	n, out := o.t.Write(o.pending.B)
	if out == Closed {
		o.markClosed()
		return Closed
	}
	o.written += uint64(n)
	rest := copy(o.pending.B, o.pending.B[n:])
	o.pending.B = o.pending.B[:rest]
	if rest == 0 {
		o.release()
		return Accepted
	}
	return WouldBlock
}

// Buffered returns the number of bytes waiting for a writable event.
func (o *Outbox) Buffered() int {
	if o.pending == nil {
		return 0
	}
	return o.pending.Len()
}

// Closed reports whether the transport reported the peer gone.
func (o *Outbox) Closed() bool {
	return o.closed
}

// Written returns the number of bytes the transport has accepted.
func (o *Outbox) Written() uint64 {
	return o.written
}

// Blocked returns how many writes ended in WouldBlock.
func (o *Outbox) Blocked() uint64 {
	return o.blocked
}

// MarkClosed drops the backlog and turns every later write into a no-op.
func (o *Outbox) MarkClosed() {
	o.markClosed()
}

// Release returns pooled memory. The outbox must not be used afterwards.
func (o *Outbox) Release() {
	o.release()
	o.t = nil
	o.closed = true
}

func (o *Outbox) settle(out WriteOutcome, n int, p []byte) WriteOutcome {
	if out == Closed {
		o.markClosed()
		return Closed
	}
	o.written += uint64(n)
	if n < len(p) {
		o.queue(p[n:])
		o.blocked++
		return WouldBlock
	}
	return Accepted
}

func (o *Outbox) state() WriteOutcome {
	if o.closed {
		return Closed
	}
	if o.pending != nil {
		return WouldBlock
	}
	return Accepted
}

func (o *Outbox) queue(p []byte) {
	if len(p) == 0 {
		return
	}
	if o.pending == nil {
		o.pending = bytebufferpool.Get()
	}
	o.pending.B = append(o.pending.B, p...)
}

func (o *Outbox) markClosed() {
	o.closed = true
	o.release()
}

func (o *Outbox) release() {
	if o.pending != nil {
		bytebufferpool.Put(o.pending)
		o.pending = nil
	}
}
