//go:build linux

package socket

import (
	"time"

	"golang.org/x/sys/unix"
)

// applyPlatformOptions applies Linux-specific socket options.
// Called from Tune.
func applyPlatformOptions(fd int, cfg Config) {
	// TCP_QUICKACK is not persistent: the kernel may fall back to delayed
	// ACKs later. SetQuickAck re-arms it.
	if cfg.QuickAck {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	}

	if cfg.UserTimeout > 0 {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_USER_TIMEOUT, int(cfg.UserTimeout.Milliseconds()))
	}

	if cfg.KeepAlive {
		if cfg.KeepAliveIdle > 0 {
			_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, seconds(cfg.KeepAliveIdle))
		}
		if cfg.KeepAliveInterval > 0 {
			_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, seconds(cfg.KeepAliveInterval))
		}
		if cfg.KeepAliveCount > 0 {
			_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, cfg.KeepAliveCount)
		}
	}
}

// SetQuickAck re-arms TCP_QUICKACK on fd.
func SetQuickAck(fd int) error {
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
}

func seconds(d time.Duration) int {
	if s := int(d / time.Second); s > 0 {
		return s
	}
	return 1
}
