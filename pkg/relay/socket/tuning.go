// Package socket applies per-connection socket options to the descriptors
// handed out by the event-loop engine.
//
// Options that matter for request/response latency are set on every accepted
// connection. Platform-specific options live in tuning_linux.go; on other
// platforms they are skipped.
package socket

import (
	"errors"
	"time"
)

// ErrInvalidFD is returned for a negative file descriptor.
var ErrInvalidFD = errors.New("socket: invalid file descriptor")

// Config represents socket tuning configuration.
// Zero values mean "leave the system default".
type Config struct {
	// NoDelay disables Nagle's algorithm (TCP_NODELAY). The only option
	// whose failure is reported.
	NoDelay bool

	// QuickAck disables delayed ACKs once after accept (Linux TCP_QUICKACK).
	QuickAck bool

	// KeepAlive enables TCP keepalive probes (SO_KEEPALIVE).
	KeepAlive bool

	// KeepAliveIdle, KeepAliveInterval and KeepAliveCount tune the probes
	// (Linux TCP_KEEPIDLE, TCP_KEEPINTVL, TCP_KEEPCNT).
	KeepAliveIdle     time.Duration
	KeepAliveInterval time.Duration
	KeepAliveCount    int

	// UserTimeout bounds how long unacknowledged data may stay in flight
	// before the kernel drops the connection (Linux TCP_USER_TIMEOUT).
	UserTimeout time.Duration

	// RecvBuffer and SendBuffer set SO_RCVBUF and SO_SNDBUF in bytes.
	RecvBuffer int
	SendBuffer int
}

// DefaultConfig returns the recommended configuration for HTTP workloads.
func DefaultConfig() Config {
	return Config{
		NoDelay:           true,
		QuickAck:          true,
		KeepAlive:         true,
		KeepAliveIdle:     60 * time.Second,
		KeepAliveInterval: 10 * time.Second,
		KeepAliveCount:    3,
		UserTimeout:       10 * time.Second,
	}
}

// HighThroughputConfig trades latency for bulk transfer: larger kernel
// buffers and delayed ACKs.
func HighThroughputConfig() Config {
	cfg := DefaultConfig()
	cfg.QuickAck = false
	cfg.RecvBuffer = 1024 * 1024
	cfg.SendBuffer = 1024 * 1024
	return cfg
}
