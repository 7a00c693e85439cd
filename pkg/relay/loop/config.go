package loop

import (
	"time"

	"github.com/yourusername/relay/pkg/relay/http11"
	"github.com/yourusername/relay/pkg/relay/memory"
)

// Config holds the per-loop protocol limits.
type Config struct {
	// MaxHeaders is the header capacity of one request.
	// Default: 64
	MaxHeaders int

	// MaxHeaderBytes bounds the request line plus header block.
	// Default: 16KB
	MaxHeaderBytes int

	// MaxBodyBytes bounds a request body; larger ones get 413.
	// Default: 4MB
	MaxBodyBytes int64

	// MaxRequests is the maximum number of requests per connection.
	// 0 means unlimited.
	// Default: 0 (unlimited)
	MaxRequests int

	// CorkSize is the capacity of the loop's write-coalescing buffer.
	// Default: 16KB
	CorkSize int

	// ArenaSize is the initial size of the request arena.
	// Default: 4KB
	ArenaSize int

	// IdleTimeout closes a connection that completes no request cycle
	// within the window. 0 disables it.
	// Default: 60 seconds
	IdleTimeout time.Duration
}

// DefaultConfig returns the default loop configuration.
func DefaultConfig() Config {
	return Config{
		MaxHeaders:     http11.DefaultMaxHeaders,
		MaxHeaderBytes: http11.DefaultMaxHeaderBytes,
		MaxBodyBytes:   4 << 20,
		CorkSize:       http11.DefaultCorkSize,
		ArenaSize:      memory.DefaultArenaSize,
		IdleTimeout:    60 * time.Second,
	}
}

// withDefaults replaces zero limits with their defaults. IdleTimeout and
// MaxRequests keep zero as "disabled".
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxHeaders <= 0 {
		c.MaxHeaders = d.MaxHeaders
	}
	if c.MaxHeaderBytes <= 0 {
		c.MaxHeaderBytes = d.MaxHeaderBytes
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.CorkSize <= 0 {
		c.CorkSize = d.CorkSize
	}
	if c.ArenaSize <= 0 {
		c.ArenaSize = d.ArenaSize
	}
	if c.MaxRequests < 0 {
		c.MaxRequests = 0
	}
	if c.IdleTimeout < 0 {
		c.IdleTimeout = 0
	}
	return c
}
