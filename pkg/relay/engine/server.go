// Package engine runs the protocol layer on gnet.
//
// Server implements gnet.EventHandler. gnet owns the sockets, the event
// loops and the inbound buffers; each callback hands the connection's
// unconsumed bytes to a loop.Loop and discards what it consumed, so partial
// requests simply stay in gnet's inbound buffer until more data arrives.
//
// gnet has no writable or timeout callbacks. OnTick provides both: it marks
// connections whose idle deadline passed or that wait to write, and wakes
// them so the work runs on their own event loop in OnTraffic.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"

	"github.com/yourusername/relay/pkg/relay/logging"
	"github.com/yourusername/relay/pkg/relay/loop"
	"github.com/yourusername/relay/pkg/relay/socket"
)

// ErrNotRunning is returned by Stop before the engine has booted.
var ErrNotRunning = errors.New("engine: server not running")

// session is the per-connection context stored on the gnet.Conn.
type session struct {
	conn *loop.Conn
	t    *gnetTransport
}

// Server serves HTTP/1.1 on gnet.
type Server struct {
	gnet.BuiltinEventEngine

	cfg   Config
	loops chan *loop.Loop

	mu       sync.Mutex
	eng      gnet.Engine
	booted   bool
	sessions map[*session]struct{}
}

// New creates a server dispatching requests to h.
func New(cfg Config, h loop.Handler) *Server {
	cfg = cfg.withDefaults()

	// One loop per event-loop goroutine. A callback holds its loop only
	// while it runs, so the pool never runs dry.
	n := cfg.NumEventLoop
	if n <= 0 {
		n = runtime.NumCPU()
	}
	s := &Server{
		cfg:      cfg,
		loops:    make(chan *loop.Loop, n),
		sessions: make(map[*session]struct{}),
	}
	for i := 0; i < n; i++ {
		s.loops <- loop.New(cfg.Loop, h,
			loop.WithLogger(cfg.Logger),
			loop.WithObserver(cfg.Observer),
			loop.WithCompressor(cfg.Compressor),
		)
	}
	return s
}

// Run starts the engine and blocks until it stops.
func (s *Server) Run() error {
	opts := []gnet.Option{
		gnet.WithMulticore(s.cfg.Multicore),
		gnet.WithReusePort(s.cfg.ReusePort),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
		gnet.WithTicker(true),
		gnet.WithLogger(logging.Gnet(s.cfg.Logger)),
	}
	if s.cfg.NumEventLoop > 0 {
		opts = append(opts, gnet.WithNumEventLoop(s.cfg.NumEventLoop))
	}

	if err := gnet.Run(s, s.cfg.protoAddr(), opts...); err != nil {
		return fmt.Errorf("engine: run %s: %w", s.cfg.protoAddr(), err)
	}
	return nil
}

// Stop stops the engine. Open connections are closed by gnet.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	eng, booted := s.eng, s.booted
	s.mu.Unlock()
	if !booted {
		return ErrNotRunning
	}
	if err := eng.Stop(ctx); err != nil {
		return fmt.Errorf("engine: stop: %w", err)
	}
	return nil
}

// Sessions returns the number of open connections.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// OnBoot is called when the server is ready to accept connections
func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.mu.Lock()
	s.eng = eng
	s.booted = true
	s.mu.Unlock()
	s.cfg.Logger.Info("listening", "addr", s.cfg.protoAddr(), "multicore", s.cfg.Multicore, "loops", cap(s.loops))
	return gnet.None
}

// OnOpen is called when a new connection is opened
func (s *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	if err := socket.Tune(c.Fd(), *s.cfg.Socket); err != nil {
		s.cfg.Logger.Debug("socket tuning failed", "remote", c.RemoteAddr(), "error", err)
	}

	t := newTransport(c, s.cfg.HighWater)
	sess := &session{conn: loop.NewConn(t), t: t}
	c.SetContext(sess)

	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()

	_, action := s.dispatch(sess, loop.EventOpened, nil)
	return nil, action
}

// OnTraffic is called when data is received on a connection, and after
// every Wake.
func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	sess, ok := c.Context().(*session)
	if !ok {
		return gnet.Close
	}

	if sess.t.timedOut.Swap(false) {
		_, action := s.dispatch(sess, loop.EventTimedOut, nil)
		return action
	}

	buf, err := c.Peek(-1)
	if err != nil {
		s.cfg.Logger.Warn("reading inbound buffer failed", "conn", sess.conn.ID(), "error", err)
		return gnet.Close
	}

	consumed := 0
	action := gnet.None
	if sess.t.writable.Swap(false) || sess.conn.State().Backlogged {
		consumed, action = s.dispatch(sess, loop.EventWritable, buf)
	}
	if action == gnet.None && consumed < len(buf) {
		var n int
		n, action = s.dispatch(sess, loop.EventDataReceived, buf[consumed:])
		consumed += n
	}
	if consumed > 0 {
		_, _ = c.Discard(consumed)
	}

	// A backlog with room in gnet's buffer can make progress right away.
	if action == gnet.None && sess.conn.Outbox().Buffered() > 0 && sess.t.room() > 0 {
		sess.t.writable.Store(true)
		_ = c.Wake(nil)
	}
	return action
}

// OnClose is called when a connection is closed. An EOF from the peer is
// delivered as Ended, anything else as Closed.
func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	sess, ok := c.Context().(*session)
	if !ok {
		return gnet.None
	}

	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()

	sess.t.gone = true
	ev := loop.EventClosed
	if errors.Is(err, io.EOF) {
		ev = loop.EventEnded
	} else if err != nil {
		s.cfg.Logger.Debug("connection error", "conn", sess.conn.ID(), "error", err)
	}
	s.dispatch(sess, ev, nil)
	return gnet.None
}

// OnTick runs off the event loops. It only flags sessions and wakes them.
func (s *Server) OnTick() (time.Duration, gnet.Action) {
	now := time.Now().UnixNano()

	s.mu.Lock()
	for sess := range s.sessions {
		t := sess.t
		switch {
		case t.expired(now):
			t.deadline.Store(0)
			t.timedOut.Store(true)
		case t.wantsWritable.Load():
			t.writable.Store(true)
		default:
			continue
		}
		_ = t.c.Wake(nil)
	}
	s.mu.Unlock()

	return s.cfg.TickInterval, gnet.None
}

// dispatch runs ev on a pooled loop and returns the consumed input and the
// action for the current callback.
func (s *Server) dispatch(sess *session, ev loop.Event, input []byte) (int, gnet.Action) {
	l := <-s.loops
	n := l.Dispatch(sess.conn, ev, input)
	s.loops <- l

	sess.t.wantsWritable.Store(sess.conn.WantsWritable())
	if sess.t.closing && !sess.t.gone {
		return n, gnet.Close
	}
	return n, gnet.None
}
