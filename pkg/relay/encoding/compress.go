package encoding

import (
	"errors"
	"fmt"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/bytebufferpool"
)

// ErrUnsupportedCoding is returned by Compress for Identity or an unknown coding.
var ErrUnsupportedCoding = errors.New("encoding: unsupported coding")

// Config controls response compression.
type Config struct {
	// MinSize is the smallest body worth compressing. Smaller bodies are
	// sent as-is.
	MinSize int

	// GzipLevel is a klauspost/compress/gzip level, 1 (fastest) to 9 (best)
	// or a special level such as gzip.HuffmanOnly. 0 selects the default;
	// bodies that should stay uncompressed are sent with Identity instead.
	GzipLevel int

	// BrotliLevel is 1 (fastest) to 11 (best). 0 selects the default.
	BrotliLevel int

	// ZstdLevel is the zstd encoder speed. 0 selects the default.
	ZstdLevel zstd.EncoderLevel
}

// DefaultConfig returns settings tuned for dynamic responses: fast levels
// and no compression below 1 KiB.
func DefaultConfig() Config {
	return Config{
		MinSize:     1024,
		GzipLevel:   gzip.DefaultCompression,
		BrotliLevel: 4,
		ZstdLevel:   zstd.SpeedDefault,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinSize <= 0 {
		c.MinSize = d.MinSize
	}
	if c.GzipLevel == 0 {
		c.GzipLevel = d.GzipLevel
	}
	if c.BrotliLevel <= 0 {
		c.BrotliLevel = d.BrotliLevel
	}
	if c.ZstdLevel == 0 {
		c.ZstdLevel = d.ZstdLevel
	}
	return c
}

// Compressor encodes whole response bodies. It is safe for concurrent use;
// all event loops share one instance.
type Compressor struct {
	cfg Config

	gzipPool   sync.Pool
	brotliPool sync.Pool
	zstdEnc    *zstd.Encoder
}

// NewCompressor creates a Compressor. Zero fields of cfg take defaults.
func NewCompressor(cfg Config) (*Compressor, error) {
	cfg = cfg.withDefaults()
	if _, err := gzip.NewWriterLevel(nil, cfg.GzipLevel); err != nil {
		return nil, fmt.Errorf("encoding: gzip level %d: %w", cfg.GzipLevel, err)
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(cfg.ZstdLevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("encoding: zstd encoder: %w", err)
	}
	c := &Compressor{cfg: cfg, zstdEnc: enc}
	c.gzipPool.New = func() any {
		w, _ := gzip.NewWriterLevel(nil, cfg.GzipLevel)
		return w
	}
	c.brotliPool.New = func() any {
		return brotli.NewWriterLevel(nil, cfg.BrotliLevel)
	}
	return c, nil
}

// MinSize returns the configured compression threshold.
func (c *Compressor) MinSize() int {
	return c.cfg.MinSize
}

// Compress appends src encoded with coding to dst.
func (c *Compressor) Compress(dst *bytebufferpool.ByteBuffer, coding Coding, src []byte) error {
	switch coding {
	case Gzip:
		w := c.gzipPool.Get().(*gzip.Writer)
		defer c.gzipPool.Put(w)
		w.Reset(dst)
		if _, err := w.Write(src); err != nil {
			return fmt.Errorf("encoding: gzip: %w", err)
		}
		return w.Close()

	case Brotli:
		w := c.brotliPool.Get().(*brotli.Writer)
		defer c.brotliPool.Put(w)
		w.Reset(dst)
		if _, err := w.Write(src); err != nil {
			return fmt.Errorf("encoding: brotli: %w", err)
		}
		return w.Close()

	case Zstd:
		dst.B = c.zstdEnc.EncodeAll(src, dst.B)
		return nil
	}
	return ErrUnsupportedCoding
}

// Close releases the zstd encoder.
func (c *Compressor) Close() error {
	return c.zstdEnc.Close()
}
