package loop

// Event is something that happened to a connection. The first six are
// delivered by the engine; the rest are raised by the loop itself while it
// executes actions.
type Event uint8

const (
	// EventOpened: the connection was accepted.
	EventOpened Event = iota
	// EventDataReceived: new input bytes are available.
	EventDataReceived
	// EventWritable: the transport can take more bytes.
	EventWritable
	// EventTimedOut: the idle timeout fired.
	EventTimedOut
	// EventClosed: the transport is gone.
	EventClosed
	// EventEnded: the peer half-closed. HTTP/1.1 has no half-close
	// semantics, so the connection is shut down and closed.
	EventEnded

	// EventResponseDone: a response completed on a persistent connection.
	EventResponseDone
	// EventBacklogged: the transport returned WouldBlock and bytes are queued.
	EventBacklogged
	// EventDrained: the queued bytes were all sent.
	EventDrained
	// EventCloseRequested: the response asked for the connection to close.
	EventCloseRequested
	// EventProtocolError: the request was rejected with an error status.
	EventProtocolError
)

var eventNames = [...]string{
	EventOpened:         "opened",
	EventDataReceived:   "data-received",
	EventWritable:       "writable",
	EventTimedOut:       "timed-out",
	EventClosed:         "closed",
	EventEnded:          "ended",
	EventResponseDone:   "response-done",
	EventBacklogged:     "backlogged",
	EventDrained:        "drained",
	EventCloseRequested: "close-requested",
	EventProtocolError:  "protocol-error",
}

func (e Event) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}
