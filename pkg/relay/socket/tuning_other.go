//go:build !unix

package socket

// Tune is a no-op on platforms without POSIX socket options.
func Tune(fd int, cfg Config) error {
	if fd < 0 {
		return ErrInvalidFD
	}
	return nil
}

// Shutdown is a no-op on platforms without POSIX socket options.
func Shutdown(fd int) error {
	return nil
}

// SetQuickAck is a no-op on platforms without TCP_QUICKACK.
func SetQuickAck(fd int) error {
	return nil
}
