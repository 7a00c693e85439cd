package http11

import "bytes"

// Field is one request header as two views into the scanned buffer.
type Field struct {
	Name  []byte
	Value []byte
}

// ScanResult is the raw output of Scan. Every slice aliases the scanned buffer.
type ScanResult struct {
	// Consumed is the length of the request line and header block including
	// the terminating empty line.
	Consumed int

	Method       []byte
	Path         []byte
	MinorVersion int

	// Headers has the same backing array as the fields argument of Scan.
	Headers []Field
}

var headerTerminator = []byte("\r\n\r\n")

// tokenTable marks the tchar set of RFC 7230 §3.2.6.
var tokenTable = func() (t [256]bool) {
	for c := '0'; c <= '9'; c++ {
		t[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		t[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		t[c] = true
	}
	for _, c := range "!#$%&'*+-.^_`|~" {
		t[c] = true
	}
	return t
}()

// Scan locates the request line and header boundaries in buf.
//
// It is a single pass over buf that copies nothing: method, path and every
// header name/value in the result are sub-slices of buf. Header fields are
// appended to fields, which must have len 0; its capacity is the header limit.
// A header line that would exceed cap(fields) yields ErrHeaderOverflow.
//
// prevLen is the length buf had at the previous attempt that returned
// ErrIncomplete (0 on the first attempt). It is only used for a cheap
// terminator pre-check; when a terminator may be present the whole buffer is
// scanned again from the start.
//
// Line endings must be CRLF. A bare LF, a control character in the request
// target, a non-token method or header name, obsolete line folding or a
// missing "HTTP/1.x" protocol token yields ErrMalformed. Running out of bytes
// before any of those is detected yields ErrIncomplete, so a proper prefix of
// a well-formed request is never reported as malformed.
//
// Allocation behavior: 0 allocs/op
func Scan(buf []byte, prevLen int, fields []Field) (ScanResult, error) {
	var res ScanResult
	if prevLen > 0 && prevLen < len(buf) && !terminatorAfter(buf, prevLen) {
		return res, ErrIncomplete
	}

	pos := 0
	n := len(buf)

	// RFC 7230 §3.5: ignore empty lines received before the request-line.
	for pos < n && buf[pos] == '\r' {
		if pos+1 >= n {
			return res, ErrIncomplete
		}
		if buf[pos+1] != '\n' {
			return res, ErrMalformed
		}
		pos += 2
	}

	// Method
	start := pos
	for {
		if pos >= n {
			return res, ErrIncomplete
		}
		c := buf[pos]
		if c == ' ' {
			break
		}
		if !tokenTable[c] {
			return res, ErrMalformed
		}
		pos++
	}
	if pos == start {
		return res, ErrMalformed
	}
	res.Method = buf[start:pos]
	pos++

	// Request target: any visible byte, obs-text allowed.
	start = pos
	for {
		if pos >= n {
			return res, ErrIncomplete
		}
		c := buf[pos]
		if c == ' ' {
			break
		}
		if c < 0x21 || c == 0x7f {
			return res, ErrMalformed
		}
		pos++
	}
	if pos == start {
		return res, ErrMalformed
	}
	res.Path = buf[start:pos]
	pos++

	// Protocol: "HTTP/1." DIGIT CRLF
	const proto = "HTTP/1."
	for i := 0; i < len(proto); i++ {
		if pos >= n {
			return res, ErrIncomplete
		}
		if buf[pos] != proto[i] {
			return res, ErrMalformed
		}
		pos++
	}
	if pos >= n {
		return res, ErrIncomplete
	}
	if buf[pos] < '0' || buf[pos] > '9' {
		return res, ErrMalformed
	}
	res.MinorVersion = int(buf[pos] - '0')
	pos++
	var err error
	if pos, err = expectCRLF(buf, pos); err != nil {
		return res, err
	}

	// Header fields
	for {
		if pos >= n {
			return res, ErrIncomplete
		}
		switch buf[pos] {
		case '\r':
			if pos, err = expectCRLF(buf, pos); err != nil {
				return res, err
			}
			res.Consumed = pos
			res.Headers = fields
			return res, nil
		case ' ', '\t':
			// obs-fold (RFC 7230 §3.2.4)
			return res, ErrMalformed
		}

		if len(fields) == cap(fields) {
			return res, ErrHeaderOverflow
		}

		start = pos
		for {
			if pos >= n {
				return res, ErrIncomplete
			}
			c := buf[pos]
			if c == ':' {
				break
			}
			if !tokenTable[c] {
				return res, ErrMalformed
			}
			pos++
		}
		if pos == start {
			return res, ErrMalformed
		}
		name := buf[start:pos]
		pos++

		for pos < n && (buf[pos] == ' ' || buf[pos] == '\t') {
			pos++
		}

		start = pos
		for {
			if pos >= n {
				return res, ErrIncomplete
			}
			c := buf[pos]
			if c == '\r' {
				break
			}
			if (c < 0x20 && c != '\t') || c == 0x7f {
				return res, ErrMalformed
			}
			pos++
		}
		end := pos
		for end > start && (buf[end-1] == ' ' || buf[end-1] == '\t') {
			end--
		}
		if pos, err = expectCRLF(buf, pos); err != nil {
			return res, err
		}

		fields = append(fields, Field{Name: name, Value: buf[start:end]})
	}
}

// expectCRLF checks for "\r\n" at pos and returns the position after it.
func expectCRLF(buf []byte, pos int) (int, error) {
	if pos >= len(buf) {
		return pos, ErrIncomplete
	}
	if buf[pos] != '\r' {
		return pos, ErrMalformed
	}
	if pos+1 >= len(buf) {
		return pos, ErrIncomplete
	}
	if buf[pos+1] != '\n' {
		return pos, ErrMalformed
	}
	return pos + 2, nil
}

// terminatorAfter reports whether a header terminator may end beyond prevLen.
// A terminator fully inside the first prevLen bytes would already have been
// found by the previous attempt, so only the tail needs checking.
func terminatorAfter(buf []byte, prevLen int) bool {
	from := prevLen - (len(headerTerminator) - 1)
	if from < 0 {
		from = 0
	}
	return bytes.Contains(buf[from:], headerTerminator)
}
