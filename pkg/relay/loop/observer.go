package loop

// Observer receives connection and request events from a Loop. Calls are
// made on the loop goroutine; implementations shared between loops must be
// safe for concurrent use.
type Observer interface {
	ConnOpened()
	ConnClosed()
	// RequestServed is called once per completed response.
	RequestServed(status, headerBytes int, bodyBytes int64)
	// ParseError is called when a request is rejected.
	ParseError(err error)
	// Backpressure is called each time a transport write would block.
	Backpressure()
	TimedOut()
	// CorkFlushes reports flushes of the cork buffer since the last call.
	CorkFlushes(count, bytes uint64)
}

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) ConnOpened()                   {}
func (NopObserver) ConnClosed()                   {}
func (NopObserver) RequestServed(int, int, int64) {}
func (NopObserver) ParseError(error)              {}
func (NopObserver) Backpressure()                 {}
func (NopObserver) TimedOut()                     {}
func (NopObserver) CorkFlushes(uint64, uint64)    {}
