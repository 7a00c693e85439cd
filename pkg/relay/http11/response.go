package http11

import (
	"strconv"

	"github.com/yourusername/relay/pkg/relay/encoding"
	"github.com/yourusername/relay/pkg/relay/memory"
)

// ResponseWriter frames one HTTP/1.1 response onto a connection.
//
// Design:
//   - Bytes go straight to the wire as each call is made; nothing is staged
//     per response. Batching is the CorkBuffer's job.
//   - Content-Length responses (End without Write) are sent as one combined
//     transmission of header tail and body.
//   - Streaming responses (Write) use chunked transfer coding.
//   - Registered status lines are pre-compiled; other lines are formatted
//     into the loop's request arena.
//
// Misuse is absorbed: once the response has ended every mutating call is a
// no-op, except Write, which reports ErrResponseEnded.
//
// A ResponseWriter is driven from the loop goroutine only.
//
// Allocation behavior: 0 allocs/op for registered status codes
type ResponseWriter struct {
	out   *Outbox
	cork  *CorkBuffer
	arena *memory.Arena

	state    ResponseState
	status   int
	omitBody bool

	bodyBytes  int64
	onWritable func(*ResponseWriter)
	compressor *encoding.Compressor

	// scratch formats lines when no arena is attached. Safe to reuse
	// because every emit copies or sends before returning.
	scratch []byte
}

// NewResponseWriter creates a writer for out. cork and arena are optional.
func NewResponseWriter(out *Outbox, cork *CorkBuffer, arena *memory.Arena) *ResponseWriter {
	rw := &ResponseWriter{}
	rw.Reset(out, cork, arena)
	return rw
}

// Reset prepares the writer for the next response. The attached compressor
// is kept.
func (rw *ResponseWriter) Reset(out *Outbox, cork *CorkBuffer, arena *memory.Arena) {
	*rw = ResponseWriter{
		out:        out,
		cork:       cork,
		arena:      arena,
		status:     int(StatusOK),
		compressor: rw.compressor,
		scratch:    rw.scratch[:0],
	}
}

// Bind attaches the cork buffer and arena of the loop currently driving the
// connection, keeping the response state. Used before a drain callback runs
// on a loop other than the one that started the response.
func (rw *ResponseWriter) Bind(cork *CorkBuffer, arena *memory.Arena) {
	rw.cork = cork
	rw.arena = arena
}

// WriteStatus emits the status line for s. No-op once a status line has been
// written or the response has ended.
func (rw *ResponseWriter) WriteStatus(s Status) {
	if rw.state.StatusWritten() {
		return
	}
	rw.status = int(s)
	rw.emit(StatusLine(s))
	rw.state.advance(PhaseStatusWritten)
}

// WriteStatusReason emits a status line with a caller-supplied reason
// phrase. An empty reason omits the phrase and its separating space.
func (rw *ResponseWriter) WriteStatusReason(code int, reason string) {
	if rw.state.StatusWritten() {
		return
	}
	rw.status = code
	line := rw.line(len(http11Prefix) + 3 + 1 + len(reason) + len(crlf))
	rw.emit(appendStatusLine(line, code, reason))
	rw.state.advance(PhaseStatusWritten)
}

// WriteHeader emits "name: value\r\n", writing a 200 status line first if
// none was written. No-op once the header section is closed.
//
// "Connection: close" additionally marks the connection for closing once
// the response has been sent. Control characters are stripped from value;
// a name that is not a valid token drops the header. Content-Length and
// Transfer-Encoding are dropped too: End and Write own the framing.
func (rw *ResponseWriter) WriteHeader(name, value string) {
	writeHeader(rw, name, value)
}

// WriteHeaderBytes is WriteHeader for byte-slice arguments.
func (rw *ResponseWriter) WriteHeaderBytes(name, value []byte) {
	writeHeader(rw, name, value)
}

func writeHeader[N headerName](rw *ResponseWriter, name, value N) {
	if rw.state.HeadersWritten() {
		return
	}
	if !validHeaderName(name) || framingHeader(name) {
		return
	}
	if !rw.state.StatusWritten() {
		rw.WriteStatus(Status(rw.status))
	}
	if equalFold(headerConnection, name) && equalFold(valueClose, value) {
		rw.state.connectionClose = true
	}

	line := rw.line(len(name) + len(colonSpace) + len(value) + len(crlf))
	line = append(line, name...)
	line = append(line, colonSpace...)
	line = appendHeaderValue(line, value)
	line = append(line, crlf...)
	rw.emit(line)
}

func framingHeader[N headerName](name N) bool {
	return equalFold(headerContentLength, name) || equalFold(headerTransferEncoding, name)
}

// End completes the response.
//
//   - chunked body open: data (if any) is sent as the last chunk, followed by
//     the terminating chunk
//   - no body yet, data non-empty: a Content-Length header sized to data and
//     the body go out as one transmission, together with the status line if
//     it was not written yet
//   - no body yet, data empty: the header section is closed with
//     "Content-Length: 0", or without a length for 1xx, 204 and 304
//   - 1xx, 204 and 304 never carry a body: data is dropped and the header
//     section is closed without a length
//   - already ended: no-op
func (rw *ResponseWriter) End(data []byte) {
	if rw.state.Terminal() {
		return
	}
	defer rw.state.advance(PhaseEnded)

	if rw.state.Chunked() {
		if len(data) > 0 {
			rw.writeChunk(data)
		}
		if !rw.omitBody {
			rw.emit(lastChunk)
		}
		return
	}

	if rw.state.HeadersWritten() {
		return
	}

	var statusLine []byte
	if !rw.state.StatusWritten() {
		statusLine = StatusLine(Status(rw.status))
		rw.state.advance(PhaseStatusWritten)
	}

	if len(data) == 0 || !bodyAllowed(rw.status) {
		tail := zeroLengthTail
		if !bodyAllowed(rw.status) {
			tail = crlf
		}
		rw.emitv(statusLine, tail)
		rw.state.advance(PhaseHeadersWritten)
		return
	}

	head := rw.line(len(contentLengthPrefix) + 20 + 2*len(crlf))
	head = append(head, contentLengthPrefix...)
	head = strconv.AppendInt(head, int64(len(data)), 10)
	head = append(head, crlf...)
	head = append(head, crlf...)
	rw.state.advance(PhaseBodyStarted)

	if rw.omitBody {
		rw.emitv(statusLine, head)
		return
	}
	rw.bodyBytes += int64(len(data))
	rw.emitv(statusLine, head, data)
}

// Write streams data as one chunk of a chunked body.
//
// The first call writes the status line if needed, adds
// "Transfer-Encoding: chunked" and closes the header section; an empty first
// call does only that. An empty call on an open stream sends the
// terminating chunk and ends the response.
//
// Returns ErrResponseEnded after the response has ended and
// ErrConnectionClosed once the transport reported the peer gone.
// WouldBlock is not an error: the bytes are retained and sent in order on
// the next writable event (see Buffered and OnWritable).
func (rw *ResponseWriter) Write(data []byte) (int, error) {
	if rw.state.Terminal() {
		return 0, ErrResponseEnded
	}
	if rw.out.Closed() {
		return 0, ErrConnectionClosed
	}

	if !rw.state.Chunked() {
		if rw.state.HeadersWritten() {
			// Header section already closed without chunked framing.
			return 0, ErrResponseEnded
		}
		if !rw.state.StatusWritten() {
			rw.WriteStatus(Status(rw.status))
		}
		if bodyAllowed(rw.status) {
			rw.emit(chunkedHeaderLine)
		} else {
			// No framing and no body bytes for 1xx, 204 and 304.
			rw.emit(crlf)
			rw.omitBody = true
		}
		rw.state.chunked = true
		rw.state.advance(PhaseBodyStarted)
		if len(data) == 0 {
			return 0, nil
		}
	} else if len(data) == 0 {
		if !rw.omitBody {
			rw.emit(lastChunk)
		}
		rw.state.advance(PhaseEnded)
		return 0, nil
	}

	rw.writeChunk(data)
	if rw.out.Closed() {
		return 0, ErrConnectionClosed
	}
	return len(data), nil
}

// writeChunk sends "<hex>\r\n<data>\r\n" as one transmission.
func (rw *ResponseWriter) writeChunk(data []byte) {
	if rw.omitBody {
		return
	}
	head := appendChunkHeader(rw.line(maxHexLen), len(data))
	rw.bodyBytes += int64(len(data))
	rw.emitv(head, data, crlf)
}

// OmitBody makes the writer send headers and framing metadata but no body
// bytes, as required for responses to HEAD requests.
func (rw *ResponseWriter) OmitBody() {
	rw.omitBody = true
}

// Status returns the status code sent, or the one that will be sent (200
// until a status is written).
func (rw *ResponseWriter) Status() int {
	return rw.status
}

// State returns a copy of the response flags.
func (rw *ResponseWriter) State() ResponseState {
	return rw.state
}

// Ended reports whether the response is complete.
func (rw *ResponseWriter) Ended() bool {
	return rw.state.Terminal()
}

// ShouldClose reports whether the handler asked for the connection to close.
func (rw *ResponseWriter) ShouldClose() bool {
	return rw.state.ConnectionClose()
}

// MarkClose marks the connection for closing after this response without
// emitting a header. Used for protocol-level error responses.
func (rw *ResponseWriter) MarkClose() {
	rw.state.connectionClose = true
}

// BodyBytes returns the number of body bytes handed to the connection.
func (rw *ResponseWriter) BodyBytes() int64 {
	return rw.bodyBytes
}

// Buffered returns the number of bytes held back by backpressure.
func (rw *ResponseWriter) Buffered() int {
	return rw.out.Buffered()
}

// OnWritable registers fn to run once the backlog has drained after a
// WouldBlock. Streaming handlers use it to produce the next part of a large
// body. fn replaces any earlier registration and is cleared before it runs.
func (rw *ResponseWriter) OnWritable(fn func(*ResponseWriter)) {
	rw.onWritable = fn
}

// NotifyWritable runs the registered drain callback, if any. Called by the
// loop after the outbox has been flushed completely.
func (rw *ResponseWriter) NotifyWritable() bool {
	fn := rw.onWritable
	if fn == nil {
		return false
	}
	rw.onWritable = nil
	fn(rw)
	return true
}

// WantsWritable reports whether a drain callback is registered.
func (rw *ResponseWriter) WantsWritable() bool {
	return rw.onWritable != nil
}

// emit hands p to the cork buffer when one is attached, else to the outbox.
func (rw *ResponseWriter) emit(p []byte) {
	if rw.cork != nil {
		rw.cork.WriteEfficient(rw.out, p)
		return
	}
	rw.out.Write(p)
}

// emitv sends parts as one transmission. Empty parts are skipped.
func (rw *ResponseWriter) emitv(parts ...[]byte) {
	n := 0
	for _, p := range parts {
		if len(p) > 0 {
			parts[n] = p
			n++
		}
	}
	parts = parts[:n]
	switch {
	case n == 0:
		return
	case n == 1:
		rw.emit(parts[0])
	case rw.cork != nil:
		rw.cork.WriteVec(rw.out, parts...)
	default:
		rw.out.Writev(parts...)
	}
}

// line returns an empty slice with capacity n for formatting one line.
func (rw *ResponseWriter) line(n int) []byte {
	if rw.arena != nil {
		return rw.arena.Alloc(n)
	}
	if cap(rw.scratch) < n {
		rw.scratch = make([]byte, 0, n)
	}
	return rw.scratch[:0]
}
