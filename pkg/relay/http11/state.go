package http11

// Phase is the position of a response in its life cycle. Phases only move
// forward: Fresh → StatusWritten → HeadersWritten → BodyStarted → Ended.
type Phase uint8

const (
	PhaseFresh Phase = iota
	PhaseStatusWritten
	PhaseHeadersWritten
	PhaseBodyStarted
	PhaseEnded
)

var phaseNames = [...]string{
	PhaseFresh:          "fresh",
	PhaseStatusWritten:  "status-written",
	PhaseHeadersWritten: "headers-written",
	PhaseBodyStarted:    "body-started",
	PhaseEnded:          "ended",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "invalid"
}

// ResponseState is the response flag set. Flags are only ever added;
// Reset of the owning writer is the only way back to the zero state.
type ResponseState struct {
	phase Phase

	// chunked is set when Write opened a Transfer-Encoding: chunked body.
	chunked bool

	// connectionClose is set when the handler sent "Connection: close".
	connectionClose bool
}

// Phase returns the current phase.
func (s ResponseState) Phase() Phase { return s.phase }

// Terminal reports whether the response has ended. Every mutating writer
// operation checks this first.
func (s ResponseState) Terminal() bool { return s.phase == PhaseEnded }

// StatusWritten reports whether the status line has been emitted.
func (s ResponseState) StatusWritten() bool { return s.phase >= PhaseStatusWritten }

// HeadersWritten reports whether the header section has been closed.
func (s ResponseState) HeadersWritten() bool { return s.phase >= PhaseHeadersWritten }

// BodyStarted reports whether body bytes may be on the wire.
func (s ResponseState) BodyStarted() bool { return s.phase >= PhaseBodyStarted }

// Chunked reports whether the body uses chunked framing.
func (s ResponseState) Chunked() bool { return s.chunked }

// ConnectionClose reports whether the connection closes after the response.
func (s ResponseState) ConnectionClose() bool { return s.connectionClose }

// advance moves to p if p is later than the current phase.
func (s *ResponseState) advance(p Phase) {
	if p > s.phase {
		s.phase = p
	}
}
