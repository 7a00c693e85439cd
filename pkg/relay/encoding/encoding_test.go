package encoding

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/bytebufferpool"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		accept string
		want   Coding
	}{
		{"", Identity},
		{"identity", Identity},
		{"gzip", Gzip},
		{"x-gzip", Gzip},
		{"gzip, deflate, br", Brotli},
		{"gzip, zstd", Zstd},
		{"br;q=0.5, gzip", Gzip},
		{"br;q=0, gzip;q=0", Identity},
		{"GZIP", Gzip},
		{"*", Brotli},
		{"*;q=0.1, gzip;q=0.5", Gzip},
		{"*;q=0", Identity},
		{"br;q=0, *", Zstd},
		{"gzip;q=1.000, br;q=0.999", Gzip},
		{"gzip;q=bogus", Gzip},
		{" gzip ; q=0.8 , br ; q=0.9 ", Brotli},
		{",,", Identity},
	}
	for _, tt := range tests {
		if got := Negotiate([]byte(tt.accept)); got != tt.want {
			t.Errorf("Negotiate(%q) = %v, want %v", tt.accept, got, tt.want)
		}
	}
}

func TestParseQ(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0", 0, true},
		{"1", 1000, true},
		{"0.5", 500, true},
		{"0.25", 250, true},
		{"0.125", 125, true},
		{"1.000", 1000, true},
		{"1.5", 0, false},
		{"0.1234", 0, false},
		{"2", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseQ([]byte(tt.in))
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseQ(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCompressDecodes(t *testing.T) {
	c, err := NewCompressor(Config{})
	if err != nil {
		t.Fatalf("NewCompressor failed: %v", err)
	}
	defer c.Close()

	src := []byte(strings.Repeat("relay compresses whole bodies. ", 64))
	decoders := map[Coding]func([]byte) ([]byte, error){
		Gzip: func(b []byte) ([]byte, error) {
			r, err := gzip.NewReader(bytes.NewReader(b))
			if err != nil {
				return nil, err
			}
			return io.ReadAll(r)
		},
		Brotli: func(b []byte) ([]byte, error) {
			return io.ReadAll(brotli.NewReader(bytes.NewReader(b)))
		},
		Zstd: func(b []byte) ([]byte, error) {
			d, err := zstd.NewReader(nil)
			if err != nil {
				return nil, err
			}
			defer d.Close()
			return d.DecodeAll(b, nil)
		},
	}

	for coding, decode := range decoders {
		t.Run(coding.String(), func(t *testing.T) {
			buf := bytebufferpool.Get()
			defer bytebufferpool.Put(buf)
			if err := c.Compress(buf, coding, src); err != nil {
				t.Fatalf("Compress failed: %v", err)
			}
			if buf.Len() >= len(src) {
				t.Errorf("encoded %d bytes from %d", buf.Len(), len(src))
			}
			got, err := decode(buf.B)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !bytes.Equal(got, src) {
				t.Error("round trip mismatch")
			}
		})
	}

	// Pooled writers are reset between uses.
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := c.Compress(buf, Gzip, []byte("second")); err != nil {
		t.Fatalf("second Compress failed: %v", err)
	}
	if got, _ := decoders[Gzip](buf.B); string(got) != "second" {
		t.Errorf("second body = %q", got)
	}
}

func TestCompressIdentity(t *testing.T) {
	c, err := NewCompressor(DefaultConfig())
	if err != nil {
		t.Fatalf("NewCompressor failed: %v", err)
	}
	defer c.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := c.Compress(buf, Identity, []byte("x")); err != ErrUnsupportedCoding {
		t.Errorf("err = %v, want ErrUnsupportedCoding", err)
	}
	if c.MinSize() != 1024 {
		t.Errorf("MinSize = %d, want 1024", c.MinSize())
	}
}

func TestConfigDefaults(t *testing.T) {
	got := Config{}.withDefaults()
	if got != DefaultConfig() {
		t.Errorf("zero Config = %+v, want %+v", got, DefaultConfig())
	}

	explicit := Config{
		MinSize:     1,
		GzipLevel:   gzip.HuffmanOnly,
		BrotliLevel: 1,
		ZstdLevel:   zstd.SpeedFastest,
	}
	if got := explicit.withDefaults(); got != explicit {
		t.Errorf("explicit levels replaced: %+v", got)
	}
}

func BenchmarkNegotiate(b *testing.B) {
	h := []byte("gzip, deflate, br;q=0.9, zstd;q=0.8")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Negotiate(h)
	}
}
