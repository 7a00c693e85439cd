package engine

import (
	"log/slog"
	"strings"
	"time"

	"github.com/yourusername/relay/pkg/relay/encoding"
	"github.com/yourusername/relay/pkg/relay/loop"
	"github.com/yourusername/relay/pkg/relay/socket"
)

// Config holds the server configuration.
type Config struct {
	// Addr is the listen address, "host:port" or a gnet protocol address
	// such as "tcp://:8080" or "unix:///tmp/relay.sock".
	// Default: ":8080"
	Addr string

	// Multicore runs one event loop per CPU (or NumEventLoop).
	Multicore bool

	// NumEventLoop overrides the number of event loops when > 0.
	NumEventLoop int

	// ReusePort sets SO_REUSEPORT on the listener.
	ReusePort bool

	// TickInterval is how often idle timeouts are checked and stalled
	// writers are woken.
	// Default: 10ms
	TickInterval time.Duration

	// HighWater is the number of bytes gnet may hold in a connection's
	// outbound buffer before writes report WouldBlock.
	// Default: 256KB
	HighWater int

	// Loop configures the protocol limits of every loop.
	Loop loop.Config

	// Socket is applied to every accepted connection. nil uses
	// socket.DefaultConfig().
	Socket *socket.Config

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Observer receives loop events. Default: loop.NopObserver.
	Observer loop.Observer

	// Compressor enables ResponseWriter.EndCompressed. Optional.
	Compressor *encoding.Compressor
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		TickInterval: 10 * time.Millisecond,
		HighWater:    256 * 1024,
		Loop:         loop.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.HighWater <= 0 {
		c.HighWater = d.HighWater
	}
	if c.Socket == nil {
		sc := socket.DefaultConfig()
		c.Socket = &sc
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Observer == nil {
		c.Observer = loop.NopObserver{}
	}
	return c
}

// protoAddr returns Addr in gnet's "proto://addr" form.
func (c Config) protoAddr() string {
	if strings.Contains(c.Addr, "://") {
		return c.Addr
	}
	return "tcp://" + c.Addr
}
