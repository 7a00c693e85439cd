package http11

import (
	"errors"
	"strings"
	"testing"

	"github.com/yourusername/relay/pkg/relay/memory"
)

func TestEndContentLengthFastPath(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)

	rw.End([]byte("payload"))

	want := "HTTP/1.1 200 OK\r\nContent-Length: 7\r\n\r\npayload"
	if got := mt.String(); got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
	if len(mt.calls) != 1 {
		t.Errorf("transport calls = %d, want 1", len(mt.calls))
	}
	if !rw.Ended() {
		t.Error("Ended = false after End")
	}
}

func TestEndFastPathVectored(t *testing.T) {
	vt := newMockVectorTransport()
	rw := NewResponseWriter(NewOutbox(vt), nil, memory.NewArena(0))

	rw.WriteStatus(StatusCreated)
	rw.WriteHeader("Content-Type", "text/plain")
	vt.calls = nil
	vt.vectored = 0

	rw.End([]byte("payload"))

	if vt.vectored != 1 || len(vt.calls) != 1 {
		t.Fatalf("vectored = %d, calls = %d; want one combined transmission", vt.vectored, len(vt.calls))
	}
	if got := string(vt.calls[0]); got != "Content-Length: 7\r\n\r\npayload" {
		t.Errorf("transmission = %q", got)
	}
	want := "HTTP/1.1 201 Created\r\nContent-Type: text/plain\r\nContent-Length: 7\r\n\r\npayload"
	if got := vt.String(); got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
}

func TestChunkedWrite(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)

	if n, err := rw.Write([]byte("abc")); err != nil || n != 3 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	before := mt.wire.Len()
	if _, err := rw.Write(nil); err != nil {
		t.Fatalf("Write(empty) failed: %v", err)
	}

	wire := mt.String()
	if !strings.HasSuffix(wire, "3\r\nabc\r\n0\r\n\r\n") {
		t.Errorf("wire = %q, want suffix %q", wire, "3\r\nabc\r\n0\r\n\r\n")
	}
	if got := wire[before:]; got != "0\r\n\r\n" {
		t.Errorf("terminator = %q", got)
	}
	want := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n3\r\nabc\r\n0\r\n\r\n"
	if wire != want {
		t.Errorf("wire = %q, want %q", wire, want)
	}
	if !rw.Ended() {
		t.Error("Ended = false after empty Write")
	}
}

func TestChunkedEmptyFirstWriteOpensStream(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)

	rw.Write(nil)
	if got := mt.String(); got != "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" {
		t.Errorf("wire = %q", got)
	}
	st := rw.State()
	if !st.Chunked() || !st.BodyStarted() || st.Terminal() {
		t.Errorf("state = %v chunked=%v", st.Phase(), st.Chunked())
	}

	rw.Write([]byte("0123456789abcdefX"))
	rw.End([]byte("end"))
	want := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"11\r\n0123456789abcdefX\r\n3\r\nend\r\n0\r\n\r\n"
	if got := mt.String(); got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
}

func TestEndIdempotent(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)

	rw.End([]byte("first"))
	wire := mt.String()

	rw.End([]byte("second"))
	rw.WriteStatus(StatusNotFound)
	rw.WriteStatusReason(299, "Custom")
	rw.WriteHeader("X-Late", "1")
	if _, err := rw.Write([]byte("late")); !errors.Is(err, ErrResponseEnded) {
		t.Errorf("Write after End err = %v, want ErrResponseEnded", err)
	}

	if got := mt.String(); got != wire {
		t.Errorf("wire changed after End: %q", got)
	}
}

func TestEndWithoutBody(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusOK, "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"},
		{StatusNoContent, "HTTP/1.1 204 No Content\r\n\r\n"},
		{StatusNotModified, "HTTP/1.1 304 Not Modified\r\n\r\n"},
		{StatusNotFound, "HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n"},
	}
	for _, tt := range tests {
		mt := newMockTransport()
		rw := NewResponseWriter(NewOutbox(mt), nil, nil)
		rw.WriteStatus(tt.status)
		rw.End(nil)
		if got := mt.String(); got != tt.want {
			t.Errorf("status %d: wire = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestWriteStatusOnce(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)
	rw.WriteStatus(StatusNotFound)
	rw.WriteStatus(StatusOK)
	rw.End(nil)

	if got := mt.String(); got != "HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n" {
		t.Errorf("wire = %q", got)
	}
	if rw.Status() != 404 {
		t.Errorf("Status = %d, want 404", rw.Status())
	}
}

func TestWriteStatusReason(t *testing.T) {
	tests := []struct {
		code   int
		reason string
		want   string
	}{
		{299, "", "HTTP/1.1 299\r\n"},
		{200, "Fine", "HTTP/1.1 200 Fine\r\n"},
		{599, "Network Timeout", "HTTP/1.1 599 Network Timeout\r\n"},
		{200, "OK\r\nSet-Cookie: evil=1", "HTTP/1.1 200 OKSet-Cookie: evil=1\r\n"},
	}
	for _, tt := range tests {
		mt := newMockTransport()
		rw := NewResponseWriter(NewOutbox(mt), nil, memory.NewArena(0))
		rw.WriteStatusReason(tt.code, tt.reason)
		if got := mt.String(); got != tt.want {
			t.Errorf("WriteStatusReason(%d, %q) = %q, want %q", tt.code, tt.reason, got, tt.want)
		}
	}
}

func TestWriteHeaderImplicitStatus(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)
	rw.WriteHeader("X-Request-Id", "42")
	rw.End([]byte("ok"))

	want := "HTTP/1.1 200 OK\r\nX-Request-Id: 42\r\nContent-Length: 2\r\n\r\nok"
	if got := mt.String(); got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
}

func TestWriteHeaderSanitizes(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)
	rw.WriteStatus(StatusOK)
	mt.wire.Reset()

	rw.WriteHeader("X-Injected", "a\r\nSet-Cookie: evil")
	rw.WriteHeader("Bad Name", "dropped")
	rw.WriteHeaderBytes([]byte("X-Tab"), []byte("a\tb"))

	want := "X-Injected: aSet-Cookie: evil\r\nX-Tab: a\tb\r\n"
	if got := mt.String(); got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
}

func TestWriteHeaderDropsFraming(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)
	rw.WriteHeader("Content-Length", "5")
	rw.WriteHeader("transfer-encoding", "gzip")
	rw.WriteHeaderBytes([]byte("CONTENT-LENGTH"), []byte("9"))
	rw.End(nil)

	if got := mt.String(); got != "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n" {
		t.Errorf("wire = %q", got)
	}
}

func TestBodilessStatusDropsBody(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)
	rw.WriteStatus(StatusNoContent)
	rw.End([]byte("body"))

	if got := mt.String(); got != "HTTP/1.1 204 No Content\r\n\r\n" {
		t.Errorf("End wire = %q", got)
	}
	if rw.BodyBytes() != 0 {
		t.Errorf("BodyBytes = %d, want 0", rw.BodyBytes())
	}

	mt = newMockTransport()
	rw.Reset(NewOutbox(mt), nil, nil)
	rw.WriteStatus(StatusNotModified)
	if n, err := rw.Write([]byte("abc")); err != nil || n != 3 {
		t.Errorf("Write = %d, %v", n, err)
	}
	rw.End([]byte("def"))

	if got := mt.String(); got != "HTTP/1.1 304 Not Modified\r\n\r\n" {
		t.Errorf("streamed wire = %q", got)
	}
	if !rw.Ended() {
		t.Error("response not ended")
	}
}

func TestConnectionCloseHeader(t *testing.T) {
	tests := []struct {
		name, value string
		want        bool
	}{
		{"Connection", "close", true},
		{"connection", "Close", true},
		{"Connection", "keep-alive", false},
		{"X-Connection", "close", false},
	}
	for _, tt := range tests {
		rw := NewResponseWriter(NewOutbox(newMockTransport()), nil, nil)
		rw.WriteHeader(tt.name, tt.value)
		if rw.ShouldClose() != tt.want {
			t.Errorf("WriteHeader(%q, %q): ShouldClose = %v, want %v", tt.name, tt.value, rw.ShouldClose(), tt.want)
		}
	}
}

func TestOmitBody(t *testing.T) {
	mt := newMockTransport()
	rw := NewResponseWriter(NewOutbox(mt), nil, nil)
	rw.OmitBody()
	rw.End([]byte("payload"))

	if got := mt.String(); got != "HTTP/1.1 200 OK\r\nContent-Length: 7\r\n\r\n" {
		t.Errorf("wire = %q", got)
	}

	mt = newMockTransport()
	rw.Reset(NewOutbox(mt), nil, nil)
	rw.OmitBody()
	rw.Write([]byte("abc"))
	rw.End(nil)
	if got := mt.String(); got != "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" {
		t.Errorf("chunked wire = %q", got)
	}
}

func TestBackpressurePreservesOrder(t *testing.T) {
	mt := newMockTransport()
	mt.budget = 10
	out := NewOutbox(mt)
	rw := NewResponseWriter(out, nil, nil)

	body := strings.Repeat("x", 100)
	rw.End([]byte(body))
	first := "HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\n" + body

	if got := mt.String(); got != first[:10] {
		t.Fatalf("accepted = %q, want %q", got, first[:10])
	}
	if rw.Buffered() != len(first)-10 {
		t.Errorf("Buffered = %d, want %d", rw.Buffered(), len(first)-10)
	}

	// A second response while blocked must queue behind the first.
	rw.Reset(out, nil, nil)
	mt.budget = 1000
	rw.End([]byte("next"))
	if got := mt.String(); got != first[:10] {
		t.Errorf("transport written while backlogged: %q", got)
	}

	if res := out.Flush(); res != Accepted {
		t.Fatalf("Flush = %v, want accepted", res)
	}
	want := first + "HTTP/1.1 200 OK\r\nContent-Length: 4\r\n\r\nnext"
	if got := mt.String(); got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
	if out.Buffered() != 0 {
		t.Errorf("Buffered after flush = %d", out.Buffered())
	}
}

func TestBackpressurePartialFlush(t *testing.T) {
	mt := newMockTransport()
	mt.budget = 0
	out := NewOutbox(mt)
	rw := NewResponseWriter(out, nil, nil)

	rw.Write([]byte("hello"))
	rw.Write([]byte("world"))
	rw.End(nil)
	want := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n5\r\nworld\r\n0\r\n\r\n"

	for i := 0; out.Buffered() > 0 && i < 100; i++ {
		mt.budget = 7
		out.Flush()
	}
	if got := mt.String(); got != want {
		t.Errorf("wire = %q, want %q", got, want)
	}
}

func TestWriteAfterPeerClosed(t *testing.T) {
	mt := newMockTransport()
	mt.peerGone = true
	out := NewOutbox(mt)
	rw := NewResponseWriter(out, nil, nil)

	if _, err := rw.Write([]byte("data")); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Write err = %v, want ErrConnectionClosed", err)
	}
	if !out.Closed() {
		t.Error("outbox not closed")
	}
	mt.peerGone = false
	rw.End([]byte("ignored"))
	if mt.wire.Len() != 0 {
		t.Errorf("bytes after close: %q", mt.String())
	}
	if _, err := rw.Write([]byte("more")); err == nil {
		t.Error("Write after close succeeded")
	}
}

func TestOnWritable(t *testing.T) {
	rw := NewResponseWriter(NewOutbox(newMockTransport()), nil, nil)
	if rw.NotifyWritable() {
		t.Error("NotifyWritable without callback returned true")
	}

	calls := 0
	rw.OnWritable(func(w *ResponseWriter) {
		calls++
		w.End([]byte("done"))
	})
	if !rw.WantsWritable() {
		t.Error("WantsWritable = false")
	}
	if !rw.NotifyWritable() || calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if rw.NotifyWritable() || calls != 1 {
		t.Error("callback ran twice")
	}
	if !rw.Ended() {
		t.Error("callback did not end the response")
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseBodyStarted.String() != "body-started" {
		t.Errorf("PhaseBodyStarted = %q", PhaseBodyStarted.String())
	}
	if Phase(42).String() != "invalid" {
		t.Errorf("Phase(42) = %q", Phase(42).String())
	}
}

func BenchmarkEndFastPath(b *testing.B) {
	mt := newMockTransport()
	out := NewOutbox(mt)
	cork := NewCorkBuffer(0)
	arena := memory.NewArena(0)
	rw := NewResponseWriter(out, cork, arena)
	body := []byte("Hello, World!")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cork.Cork(out)
		rw.Reset(out, cork, arena)
		rw.WriteHeader("Content-Type", "text/plain")
		rw.End(body)
		cork.Uncork(out)
		arena.Reset()
		mt.wire.Reset()
		mt.calls = mt.calls[:0]
	}
}
