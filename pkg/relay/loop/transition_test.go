package loop

import "testing"

func TestTransition(t *testing.T) {
	var (
		fresh      = ConnState{Phase: PhaseNew}
		open       = ConnState{Phase: PhaseOpen}
		backlogged = ConnState{Phase: PhaseOpen, Backlogged: true}
		closing    = ConnState{Phase: PhaseClosing, Backlogged: true}
		closed     = ConnState{Phase: PhaseClosed}
	)

	tests := []struct {
		name string
		from ConnState
		ev   Event
		to   ConnState
		acts Actions
	}{
		{"open", fresh, EventOpened, open, ActArmTimeout},
		{"data before open", fresh, EventDataReceived, fresh, 0},
		{"close before open", fresh, EventClosed, closed, 0},

		{"data", open, EventDataReceived, open, ActServe},
		{"data while backlogged", backlogged, EventDataReceived, backlogged, 0},
		{"writable", open, EventWritable, open, ActFlush},
		{"backlogged", open, EventBacklogged, backlogged, 0},
		{"drained", backlogged, EventDrained, open, ActNotifyWritable | ActServe},
		{"response done", open, EventResponseDone, open, ActArmTimeout | ActServe},
		{"response done backlogged", backlogged, EventResponseDone, backlogged, ActArmTimeout},
		{"close requested", open, EventCloseRequested, closed, ActClose | ActRelease},
		{"close requested backlogged", backlogged, EventCloseRequested, closing, 0},
		{"protocol error", open, EventProtocolError, closed, ActClose | ActRelease},
		{"protocol error backlogged", backlogged, EventProtocolError, closing, 0},
		{"timeout", open, EventTimedOut, closed, ActClose | ActRelease},
		{"timeout backlogged", backlogged, EventTimedOut, closed, ActClose | ActRelease},
		{"peer closed", open, EventClosed, closed, ActRelease},
		{"half close", open, EventEnded, closed, ActShutdown | ActClose | ActRelease},

		{"closing writable", closing, EventWritable, closing, ActFlush},
		{"closing drained", closing, EventDrained, closed, ActClose | ActRelease},
		{"closing data", closing, EventDataReceived, closing, 0},
		{"closing timeout", closing, EventTimedOut, closed, ActClose | ActRelease},
		{"closing half close", closing, EventEnded, closed, ActShutdown | ActClose | ActRelease},

		{"closed data", closed, EventDataReceived, closed, 0},
		{"closed timeout", closed, EventTimedOut, closed, 0},
		{"closed closed", closed, EventClosed, closed, 0},
		{"closed ended", closed, EventEnded, closed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			to, acts := Transition(tt.from, tt.ev)
			if to != tt.to {
				t.Errorf("state = %+v, want %+v", to, tt.to)
			}
			if acts != tt.acts {
				t.Errorf("actions = %v, want %v", acts, tt.acts)
			}
		})
	}
}

// Every event leaves Closed untouched.
func TestTransitionClosedIsTerminal(t *testing.T) {
	closed := ConnState{Phase: PhaseClosed}
	for ev := EventOpened; ev <= EventProtocolError; ev++ {
		if to, acts := Transition(closed, ev); to != closed || acts != 0 {
			t.Errorf("%v: got %+v %v", ev, to, acts)
		}
	}
}

func TestActionsString(t *testing.T) {
	tests := []struct {
		acts Actions
		want string
	}{
		{0, "none"},
		{ActServe, "serve"},
		{ActClose | ActRelease, "close|release"},
		{ActShutdown | ActClose | ActRelease, "shutdown|close|release"},
	}
	for _, tt := range tests {
		if got := tt.acts.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if !(ActClose | ActRelease).Has(ActClose) || ActClose.Has(ActClose|ActRelease) {
		t.Error("Has mismatch")
	}
}

func TestEventString(t *testing.T) {
	if EventDataReceived.String() != "data-received" {
		t.Errorf("String() = %q", EventDataReceived.String())
	}
	if Event(99).String() != "unknown" {
		t.Errorf("String() = %q", Event(99).String())
	}
	if PhaseClosing.String() != "closing" {
		t.Errorf("String() = %q", PhaseClosing.String())
	}
}
