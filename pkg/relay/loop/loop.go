// Package loop connects engine events to the HTTP/1.1 protocol layer.
//
// A Loop owns the resources one event-loop goroutine needs (parser, cork
// buffer, request arena and header slab) and drives connections through the
// Transition state machine:
//
//	engine event -> Transition -> actions -> (parse, handler, flush, close)
//
// Actions may raise further events (a response completing, a write blocking);
// they are queued and processed in order before Dispatch returns.
package loop

import (
	"errors"
	"log/slog"

	"github.com/yourusername/relay/pkg/relay/encoding"
	"github.com/yourusername/relay/pkg/relay/http11"
	"github.com/yourusername/relay/pkg/relay/memory"
)

// Handler serves one request. The request and its views are valid only
// until the handler returns; a handler that streams through OnWritable must
// copy what it needs. Returning an error closes the connection after a 500
// (or after ending whatever was already sent).
type Handler func(r *http11.Request, w *http11.ResponseWriter) error

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.log = l
		}
	}
}

// WithObserver sets the observer. Default: NopObserver.
func WithObserver(o Observer) Option {
	return func(lp *Loop) {
		if o != nil {
			lp.obs = o
		}
	}
}

// WithCompressor enables ResponseWriter.EndCompressed for handlers.
func WithCompressor(c *encoding.Compressor) Option {
	return func(lp *Loop) {
		lp.compressor = c
	}
}

var crlf = []byte("\r\n")

// Loop drives connections on a single goroutine. It is not safe for
// concurrent use; run one Loop per event-loop goroutine.
type Loop struct {
	cfg     Config
	handler Handler

	parser     *http11.Parser
	cork       *http11.CorkBuffer
	arena      *memory.Arena
	slab       *memory.Slab[http11.Field]
	compressor *encoding.Compressor

	log *slog.Logger
	obs Observer

	queue []Event

	// cork flush totals already reported to the observer
	flushes      uint64
	flushedBytes uint64
}

// New creates a loop serving requests with h.
func New(cfg Config, h Handler, opts ...Option) *Loop {
	cfg = cfg.withDefaults()
	l := &Loop{
		cfg:     cfg,
		handler: h,
		parser:  http11.NewParser(cfg.MaxHeaders, cfg.MaxHeaderBytes),
		cork:    http11.NewCorkBuffer(cfg.CorkSize),
		arena:   memory.NewArena(cfg.ArenaSize),
		slab:    memory.NewSlab[http11.Field](cfg.MaxHeaders * 4),
		log:     slog.Default(),
		obs:     NopObserver{},
		queue:   make([]Event, 0, 8),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the effective configuration.
func (l *Loop) Config() Config {
	return l.cfg
}

// Cork returns the loop's write-coalescing buffer.
func (l *Loop) Cork() *http11.CorkBuffer {
	return l.cork
}

// Dispatch delivers ev for c and returns how many bytes of input were
// consumed. input is the connection's unconsumed inbound data; the caller
// keeps the remainder and presents it again, extended, on the next call.
// Any event may carry input: a Writable event that drains a backlog resumes
// parsing of requests already buffered.
func (l *Loop) Dispatch(c *Conn, ev Event, input []byte) int {
	c.rw.Bind(l.cork, l.arena)
	c.rw.SetCompressor(l.compressor)

	consumed := 0
	l.queue = append(l.queue[:0], ev)
	for i := 0; i < len(l.queue); i++ {
		ev := l.queue[i]
		prev := c.state
		next, acts := Transition(prev, ev)
		c.state = next

		switch {
		case prev.Phase == PhaseNew && next.Phase == PhaseOpen:
			l.obs.ConnOpened()
		case ev == EventTimedOut && prev.Phase != PhaseClosed && prev.Phase != PhaseNew:
			l.obs.TimedOut()
			l.log.Debug("connection timed out", "conn", c.id, "requests", c.requests)
		}

		consumed += l.execute(c, acts, input[consumed:])
	}

	if n, b := l.cork.Flushes(); n != l.flushes {
		l.obs.CorkFlushes(n-l.flushes, b-l.flushedBytes)
		l.flushes, l.flushedBytes = n, b
	}
	l.arena.Reset()
	l.slab.Reset()
	return consumed
}

func (l *Loop) push(ev Event) {
	l.queue = append(l.queue, ev)
}

// execute runs acts in declaration order. Serve is skipped when a drain
// callback ran: the callback's own completion schedules the next Serve.
func (l *Loop) execute(c *Conn, acts Actions, input []byte) int {
	consumed := 0
	if acts.Has(ActFlush) {
		l.flush(c)
	}
	resumed := false
	if acts.Has(ActNotifyWritable) {
		resumed = l.resume(c)
	}
	if acts.Has(ActServe) && !resumed {
		consumed = l.serve(c, input)
	}
	if acts.Has(ActArmTimeout) {
		c.out.Transport().SetTimeout(l.cfg.IdleTimeout)
	}
	if acts.Has(ActShutdown) {
		if err := c.out.Transport().Shutdown(); err != nil {
			l.log.Warn("shutdown failed", "conn", c.id, "error", err)
		}
	}
	if acts.Has(ActClose) {
		if err := c.out.Transport().Close(); err != nil {
			l.log.Warn("close failed", "conn", c.id, "error", err)
		}
		c.out.MarkClosed()
	}
	if acts.Has(ActRelease) {
		l.release(c)
	}
	return consumed
}

// flush retries the backlog on a writable event.
func (l *Loop) flush(c *Conn) {
	switch c.out.Flush() {
	case http11.Accepted:
		if c.state.Backlogged || c.state.Phase == PhaseClosing || c.inFlight {
			l.push(EventDrained)
		}
	case http11.Closed:
		l.push(EventClosed)
	}
}

// resume runs the drain callback of an in-flight streaming response.
func (l *Loop) resume(c *Conn) bool {
	if !c.inFlight || !c.rw.WantsWritable() {
		return false
	}
	before := c.rw.BodyBytes()
	l.cork.Cork(c.out)
	c.rw.NotifyWritable()
	l.cork.Uncork(c.out)
	l.settle(c, c.rw.Ended() || c.rw.BodyBytes() != before)
	return true
}

// serve parses the request at the start of input and runs the handler. It
// returns the bytes of input the request occupied, 0 when more input is
// needed.
func (l *Loop) serve(c *Conn, input []byte) int {
	if c.state.Phase != PhaseOpen || c.state.Backlogged || c.inFlight || len(input) == 0 {
		return 0
	}

	req := &c.req
	req.Reset(l.slab.Alloc(l.cfg.MaxHeaders))

	n, err := l.parser.Parse(input, c.prevLen, req)
	if errors.Is(err, http11.ErrIncomplete) {
		c.prevLen = len(input)
		return 0
	}
	c.prevLen = 0
	if err == nil {
		n, err = l.parser.FrameBody(req, l.cfg.MaxBodyBytes)
		if errors.Is(err, http11.ErrIncomplete) {
			l.sendContinue(c, req)
			return 0
		}
	}
	if err != nil {
		l.reject(c, err)
		return len(input)
	}

	rw := c.rw
	rw.Reset(c.out, l.cork, l.arena)
	if req.MethodID() == http11.MethodHEAD {
		rw.OmitBody()
	}
	c.inFlight = true
	c.continueSent = false
	c.closeAfter = !req.KeepAlive()

	l.cork.Cork(c.out)
	if err := l.handler(req, rw); err != nil {
		l.log.Debug("handler failed", "conn", c.id, "method", req.Method(), "path", req.Path(), "error", err)
		rw.WriteStatus(http11.StatusInternalServerError)
		rw.MarkClose()
		rw.End(nil)
	} else if !rw.Ended() && !rw.WantsWritable() {
		rw.End(nil)
	}
	l.cork.Uncork(c.out)

	l.settle(c, true)
	return n
}

// settle raises the events that follow a burst of response writes.
func (l *Loop) settle(c *Conn, progressed bool) {
	if c.out.Closed() {
		l.push(EventClosed)
		return
	}
	if c.out.Buffered() > 0 {
		l.obs.Backpressure()
		l.push(EventBacklogged)
	}

	rw := c.rw
	if !rw.Ended() {
		// A streaming response waiting on OnWritable with nothing queued
		// continues right away, as long as the last callback wrote something.
		if c.out.Buffered() == 0 && rw.WantsWritable() && progressed {
			l.push(EventDrained)
		}
		return
	}

	c.inFlight = false
	c.requests++
	l.obs.RequestServed(rw.Status(), c.req.HeaderLen(), rw.BodyBytes())

	if c.closeAfter || rw.ShouldClose() || (l.cfg.MaxRequests > 0 && c.requests >= l.cfg.MaxRequests) {
		l.push(EventCloseRequested)
		return
	}
	l.push(EventResponseDone)
}

// reject answers an unparseable request with its error status and closes
// the connection afterwards.
func (l *Loop) reject(c *Conn, err error) {
	status := http11.StatusForError(err)
	l.obs.ParseError(err)
	l.log.Debug("rejecting request", "conn", c.id, "status", status.Code(), "error", err)

	rw := c.rw
	rw.Reset(c.out, l.cork, l.arena)
	l.cork.Cork(c.out)
	rw.WriteStatus(status)
	rw.WriteHeader("Connection", "close")
	rw.End(nil)
	l.cork.Uncork(c.out)
	c.inFlight = false

	if c.out.Closed() {
		l.push(EventClosed)
		return
	}
	if c.out.Buffered() > 0 {
		l.obs.Backpressure()
		l.push(EventBacklogged)
	}
	l.push(EventProtocolError)
}

// sendContinue answers "Expect: 100-continue" once the headers are in and
// the body is still missing. Sent at most once per request, and only to
// HTTP/1.1 clients.
func (l *Loop) sendContinue(c *Conn, req *http11.Request) {
	if !req.ExpectContinue() || c.continueSent || req.MinorVersion() < 1 {
		return
	}
	c.continueSent = true
	if c.out.Writev(http11.StatusLine(http11.StatusContinue), crlf) == http11.WouldBlock {
		l.obs.Backpressure()
		l.push(EventBacklogged)
	}
}

// release drops per-connection state once the connection is closed.
func (l *Loop) release(c *Conn) {
	c.rw.OnWritable(nil)
	c.inFlight = false
	c.out.MarkClosed()
	c.out.Release()
	l.obs.ConnClosed()
}
