package http11

import (
	"fmt"
	"strconv"
)

// Chunked transfer coding (RFC 7230 §4.1):
//
//	chunked-body   = *chunk last-chunk trailer-part CRLF
//	chunk          = chunk-size [ chunk-ext ] CRLF chunk-data CRLF
//	last-chunk     = 1*("0") [ chunk-ext ] CRLF
//
// Request bodies are decoded in two passes over the buffer already held by
// the loop: scanChunked validates and measures without writing, and only a
// complete body is compacted in place by decodeChunked. A partial body is
// therefore never modified and can be re-scanned when more bytes arrive.

var errChunked = fmt.Errorf("%w: %w", ErrMalformed, ErrChunkedEncoding)

// maxChunkSizeDigits keeps a chunk size within int64.
const maxChunkSizeDigits = 15

// chunkSizeLine parses "<hex>[;ext]\r\n" at pos and returns the size and the
// position of the chunk data.
func chunkSizeLine(buf []byte, pos int) (size int64, next int, err error) {
	start := pos
	for pos < len(buf) {
		v, ok := unhex(buf[pos])
		if !ok {
			break
		}
		if pos-start == maxChunkSizeDigits {
			return 0, 0, errChunked
		}
		size = size<<4 | int64(v)
		pos++
	}
	if pos == len(buf) {
		return 0, 0, ErrIncomplete
	}
	if pos == start {
		return 0, 0, errChunked
	}

	// Extensions are skipped without interpretation.
	if buf[pos] == ';' {
		for pos < len(buf) && buf[pos] != '\r' {
			if c := buf[pos]; (c < 0x20 && c != '\t') || c == 0x7f {
				return 0, 0, errChunked
			}
			pos++
		}
	}

	next, err = expectCRLF(buf, pos)
	if err == ErrMalformed {
		err = errChunked
	}
	return size, next, err
}

// scanChunked reports the decoded length and the encoded length of the
// chunked body at the start of buf. It never modifies buf. maxBody > 0
// bounds the decoded length.
func scanChunked(buf []byte, maxBody int64) (bodyLen int64, consumed int, err error) {
	pos := 0
	for {
		var size int64
		size, pos, err = chunkSizeLine(buf, pos)
		if err != nil {
			return 0, 0, err
		}
		if size == 0 {
			break
		}
		bodyLen += size
		if maxBody > 0 && bodyLen > maxBody {
			return 0, 0, ErrBodyTooLarge
		}
		if int64(len(buf)-pos) < size {
			return 0, 0, ErrIncomplete
		}
		pos += int(size)
		if pos, err = expectCRLF(buf, pos); err != nil {
			if err == ErrMalformed {
				err = errChunked
			}
			return 0, 0, err
		}
	}

	// Trailer fields are validated for framing and discarded.
	for {
		if pos >= len(buf) {
			return 0, 0, ErrIncomplete
		}
		if buf[pos] == '\r' {
			if pos, err = expectCRLF(buf, pos); err != nil {
				if err == ErrMalformed {
					err = errChunked
				}
				return 0, 0, err
			}
			return bodyLen, pos, nil
		}
		for pos < len(buf) && buf[pos] != '\r' {
			if buf[pos] == '\n' {
				return 0, 0, errChunked
			}
			pos++
		}
		if pos, err = expectCRLF(buf, pos); err != nil {
			if err == ErrMalformed {
				err = errChunked
			}
			return 0, 0, err
		}
	}
}

// decodeChunked compacts the chunk data of a body already accepted by
// scanChunked to the front of buf and returns it. Returns nil for an empty
// body.
func decodeChunked(buf []byte) []byte {
	w, pos := 0, 0
	for {
		size, next, err := chunkSizeLine(buf, pos)
		if err != nil || size == 0 {
			break
		}
		w += copy(buf[w:], buf[next:next+int(size)])
		pos = next + int(size) + len(crlf)
	}
	if w == 0 {
		return nil
	}
	return buf[:w:w]
}

// appendChunkHeader appends "<hex size>\r\n" to dst.
func appendChunkHeader(dst []byte, n int) []byte {
	dst = strconv.AppendUint(dst, uint64(n), 16)
	return append(dst, crlf...)
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
