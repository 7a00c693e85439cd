package loop

import "strings"

// Phase is the lifecycle position of a connection.
type Phase uint8

const (
	// PhaseNew: created, Opened not yet seen.
	PhaseNew Phase = iota
	// PhaseOpen: serving requests.
	PhaseOpen
	// PhaseClosing: a close was requested while bytes were still queued.
	// Input is ignored; the connection closes once the backlog drains.
	PhaseClosing
	// PhaseClosed: terminal.
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseNew:
		return "new"
	case PhaseOpen:
		return "open"
	case PhaseClosing:
		return "closing"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnState is the part of a connection the transition function decides on.
type ConnState struct {
	Phase Phase

	// Backlogged is set while the outbox holds bytes the transport refused.
	// No new request is parsed until it clears.
	Backlogged bool
}

// Actions is the set of side effects the loop executes after a transition,
// in declaration order.
type Actions uint16

const (
	// ActFlush retries the queued bytes.
	ActFlush Actions = 1 << iota
	// ActNotifyWritable runs the response's drain callback.
	ActNotifyWritable
	// ActServe parses and serves the next buffered request.
	ActServe
	// ActArmTimeout (re)starts the idle timeout.
	ActArmTimeout
	// ActShutdown half-closes the write side.
	ActShutdown
	// ActClose closes the transport.
	ActClose
	// ActRelease returns per-connection resources.
	ActRelease
)

var actionNames = [...]string{"flush", "notify-writable", "serve", "arm-timeout", "shutdown", "close", "release"}

// Has reports whether every action in b is set.
func (a Actions) Has(b Actions) bool {
	return a&b == b
}

func (a Actions) String() string {
	if a == 0 {
		return "none"
	}
	var sb strings.Builder
	for i, name := range actionNames {
		if a&(1<<i) == 0 {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('|')
		}
		sb.WriteString(name)
	}
	return sb.String()
}

// Transition is the connection state machine. It is a pure function: it
// only computes the next state and the actions to run, so every edge can be
// tested without a transport.
//
// Closed is terminal and absorbs every event. TimedOut closes unconditionally
// from any live phase, discarding queued bytes.
func Transition(s ConnState, ev Event) (ConnState, Actions) {
	switch s.Phase {
	case PhaseClosed:
		return s, 0

	case PhaseNew:
		switch ev {
		case EventOpened:
			return ConnState{Phase: PhaseOpen}, ActArmTimeout
		case EventTimedOut, EventClosed, EventEnded:
			return ConnState{Phase: PhaseClosed}, 0
		}
		return s, 0
	}

	// Events that end the connection from any live phase.
	switch ev {
	case EventTimedOut:
		return ConnState{Phase: PhaseClosed}, ActClose | ActRelease
	case EventClosed:
		return ConnState{Phase: PhaseClosed}, ActRelease
	case EventEnded:
		return ConnState{Phase: PhaseClosed}, ActShutdown | ActClose | ActRelease
	}

	if s.Phase == PhaseClosing {
		switch ev {
		case EventWritable:
			return s, ActFlush
		case EventDrained:
			return ConnState{Phase: PhaseClosed}, ActClose | ActRelease
		}
		return s, 0
	}

	// PhaseOpen
	switch ev {
	case EventDataReceived:
		if s.Backlogged {
			return s, 0
		}
		return s, ActServe
	case EventWritable:
		return s, ActFlush
	case EventBacklogged:
		s.Backlogged = true
		return s, 0
	case EventDrained:
		s.Backlogged = false
		return s, ActNotifyWritable | ActServe
	case EventResponseDone:
		if s.Backlogged {
			return s, ActArmTimeout
		}
		return s, ActArmTimeout | ActServe
	case EventCloseRequested, EventProtocolError:
		if s.Backlogged {
			s.Phase = PhaseClosing
			return s, 0
		}
		return ConnState{Phase: PhaseClosed}, ActClose | ActRelease
	}
	return s, 0
}
