//go:build unix && !linux

package socket

// applyPlatformOptions is a no-op where the Linux-only options do not exist.
func applyPlatformOptions(fd int, cfg Config) {}

// SetQuickAck is a no-op on platforms without TCP_QUICKACK.
func SetQuickAck(fd int) error {
	return nil
}
