package http11

// CorkBuffer coalesces the small writes one handler invocation produces into
// a single transport write.
//
// There is one CorkBuffer per event loop, shared by all of the loop's
// connections and used only from the loop goroutine. At most one outbox is
// corked at a time and any buffered bytes belong to it.
//
// Usage:
//
//	cb.Cork(out)
//	handler(w, req) // writes go through cb.WriteEfficient
//	cb.Uncork(out)
//
// Corking only delays bytes; it never changes or reorders them.
type CorkBuffer struct {
	buf    []byte
	corked *Outbox

	flushes      uint64
	flushedBytes uint64
}

// NewCorkBuffer allocates a buffer of the given capacity
// (DefaultCorkSize when size <= 0).
func NewCorkBuffer(size int) *CorkBuffer {
	if size <= 0 {
		size = DefaultCorkSize
	}
	return &CorkBuffer{buf: make([]byte, 0, size)}
}

// Cork makes o the corked outbox, flushing a different one first. Corking
// the outbox that is already corked keeps its buffered bytes.
func (c *CorkBuffer) Cork(o *Outbox) {
	if c.corked == o {
		return
	}
	if c.corked != nil {
		c.flush()
	}
	c.corked = o
	c.buf = c.buf[:0]
}

// Uncork flushes the buffered bytes of o and clears the cork. It is a no-op
// when o is not the corked outbox. The result is the outcome of the flush,
// Accepted when nothing needed sending.
func (c *CorkBuffer) Uncork(o *Outbox) WriteOutcome {
	if c.corked != o || o == nil {
		return Accepted
	}
	out := c.flush()
	c.corked = nil
	return out
}

// Corked returns the currently corked outbox, or nil.
func (c *CorkBuffer) Corked() *Outbox {
	return c.corked
}

// WriteEfficient copies data into the buffer when o is corked and the data
// fits. Otherwise buffered bytes are flushed first and data goes straight to
// o, so order is preserved either way.
//
// Allocation behavior: 0 allocs/op
func (c *CorkBuffer) WriteEfficient(o *Outbox, data []byte) WriteOutcome {
	if c.corked == o && len(c.buf)+len(data) <= cap(c.buf) {
		c.buf = append(c.buf, data...)
		return o.state()
	}
	if len(c.buf) > 0 {
		c.flush()
	}
	return o.Write(data)
}

// WriteVec is WriteEfficient for a transmission made of several parts. When
// they do not all fit, the buffer is flushed and the parts are handed to the
// outbox as one combined transmission.
func (c *CorkBuffer) WriteVec(o *Outbox, parts ...[]byte) WriteOutcome {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	if c.corked == o && len(c.buf)+total <= cap(c.buf) {
		for _, p := range parts {
			c.buf = append(c.buf, p...)
		}
		return o.state()
	}
	if len(c.buf) > 0 {
		c.flush()
	}
	return o.Writev(parts...)
}

// Len returns the number of buffered bytes.
func (c *CorkBuffer) Len() int {
	return len(c.buf)
}

// Cap returns the buffer capacity.
func (c *CorkBuffer) Cap() int {
	return cap(c.buf)
}

// Flushes returns how many non-empty flushes reached an outbox and the
// number of bytes they carried.
func (c *CorkBuffer) Flushes() (count, bytes uint64) {
	return c.flushes, c.flushedBytes
}

// flush hands the buffered bytes to the corked outbox. The cursor is reset
// even when the transport only took a prefix, because the outbox keeps its
// own copy of the rest.
func (c *CorkBuffer) flush() WriteOutcome {
	if len(c.buf) == 0 || c.corked == nil {
		c.buf = c.buf[:0]
		return Accepted
	}
	out := c.corked.Write(c.buf)
	c.flushes++
	c.flushedBytes += uint64(len(c.buf))
	c.buf = c.buf[:0]
	return out
}
