//go:build unix

package socket

import "golang.org/x/sys/unix"

// Tune applies cfg to the connected socket fd. Only a TCP_NODELAY failure
// is returned; the remaining options are best effort.
func Tune(fd int, cfg Config) error {
	if fd < 0 {
		return ErrInvalidFD
	}

	if cfg.NoDelay {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			return err
		}
	}
	if cfg.RecvBuffer > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBuffer)
	}
	if cfg.SendBuffer > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBuffer)
	}
	if cfg.KeepAlive {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
	}

	applyPlatformOptions(fd, cfg)
	return nil
}

// Shutdown half-closes the write side of fd (SHUT_WR). Data already queued
// in the kernel is still delivered before the FIN.
func Shutdown(fd int) error {
	if fd < 0 {
		return ErrInvalidFD
	}
	return unix.Shutdown(fd, unix.SHUT_WR)
}
