// Package encoding selects and applies response content codings.
//
// Negotiate implements the server side of Accept-Encoding (RFC 9110 §12.5.3)
// for the codings relay can produce, and Compressor encodes complete bodies
// with pooled gzip and brotli writers and a shared zstd encoder.
package encoding

// Coding is a content coding relay can produce.
type Coding uint8

const (
	Identity Coding = iota
	Gzip
	Zstd
	Brotli
)

// String returns the Content-Encoding token.
func (c Coding) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case Brotli:
		return "br"
	}
	return "identity"
}

// preference orders codings for equal q-values, best first.
var preference = [...]Coding{Brotli, Zstd, Gzip}

// Negotiate picks the coding for an Accept-Encoding header value.
//
// Each listed coding carries a q-value (default 1); q=0 forbids it. "*"
// supplies the q-value of codings not listed explicitly. The highest
// q-value wins and ties go to br, then zstd, then gzip. An empty or absent
// header, or one that forbids everything, yields Identity.
//
// Allocation behavior: 0 allocs/op
func Negotiate(acceptEncoding []byte) Coding {
	var (
		q       [4]int // indexed by Coding, thousandths; -1 = not listed
		anyQ    = -1
		present bool
	)
	q[Gzip], q[Zstd], q[Brotli] = -1, -1, -1

	rest := acceptEncoding
	for len(rest) > 0 {
		var elem []byte
		elem, rest = cutByte(rest, ',')
		name, params := cutByte(elem, ';')
		name = trimSpace(name)
		if len(name) == 0 {
			continue
		}
		qv := 1000
		for len(params) > 0 {
			var p []byte
			p, params = cutByte(params, ';')
			p = trimSpace(p)
			if len(p) >= 2 && (p[0] == 'q' || p[0] == 'Q') && p[1] == '=' {
				if v, ok := parseQ(trimSpace(p[2:])); ok {
					qv = v
				}
			}
		}
		present = true
		switch {
		case equalFold(name, "br"):
			q[Brotli] = qv
		case equalFold(name, "zstd"):
			q[Zstd] = qv
		case equalFold(name, "gzip"), equalFold(name, "x-gzip"):
			q[Gzip] = qv
		case len(name) == 1 && name[0] == '*':
			anyQ = qv
		}
	}
	if !present {
		return Identity
	}

	best, bestQ := Identity, 0
	for _, c := range preference {
		v := q[c]
		if v < 0 {
			v = anyQ
		}
		if v > bestQ {
			best, bestQ = c, v
		}
	}
	return best
}

// parseQ parses a qvalue ("0", "0.5", "1.000") into thousandths.
func parseQ(b []byte) (int, bool) {
	if len(b) == 0 || (b[0] != '0' && b[0] != '1') {
		return 0, false
	}
	v := int(b[0]-'0') * 1000
	if len(b) == 1 {
		return v, true
	}
	if b[1] != '.' || len(b) > 5 {
		return 0, false
	}
	scale := 100
	for _, c := range b[2:] {
		if c < '0' || c > '9' {
			return 0, false
		}
		v += int(c-'0') * scale
		scale /= 10
	}
	if v > 1000 {
		return 0, false
	}
	return v, true
}

func cutByte(b []byte, sep byte) (before, after []byte) {
	for i, c := range b {
		if c == sep {
			return b[:i], b[i+1:]
		}
	}
	return b, nil
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

func equalFold(a []byte, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		c := a[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != b[i] {
			return false
		}
	}
	return true
}
