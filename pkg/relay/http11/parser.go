package http11

import "fmt"

// Framing violations are malformed requests that still carry their precise
// cause. Both sentinels match with errors.Is.
var (
	errBadContentLength = fmt.Errorf("%w: %w", ErrMalformed, ErrInvalidContentLength)
	errCLWithTE         = fmt.Errorf("%w: %w", ErrMalformed, ErrContentLengthWithTransferEncoding)
	errDuplicateHost    = fmt.Errorf("%w: duplicate Host header", ErrMalformed)
)

// Parser adapts Scan output into a Request and applies connection limits.
// A Parser holds only configuration and is safe to share within a loop.
//
// Design:
//   - Scan finds every boundary in one pass over the buffer
//   - Parse validates framing headers (Content-Length, Transfer-Encoding,
//     Connection, Expect) over the already-scanned fields
//   - Nothing is copied; the Request views alias the caller's buffer
//
// Allocation behavior: 0 allocs/op when the Request has header storage
type Parser struct {
	maxHeaders     int
	maxHeaderBytes int
}

// NewParser creates a parser. Non-positive limits fall back to
// DefaultMaxHeaders and DefaultMaxHeaderBytes.
func NewParser(maxHeaders, maxHeaderBytes int) *Parser {
	if maxHeaders <= 0 {
		maxHeaders = DefaultMaxHeaders
	}
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = DefaultMaxHeaderBytes
	}
	return &Parser{maxHeaders: maxHeaders, maxHeaderBytes: maxHeaderBytes}
}

// MaxHeaders returns the header capacity H.
func (p *Parser) MaxHeaders() int {
	return p.maxHeaders
}

// Parse parses the request line and header block at the start of buf into
// req and returns the header block length.
//
// prevLen is the buffer length at the previous ErrIncomplete attempt for
// the same request, or 0. req is re-populated in place on every call, so a
// retry after more bytes arrive needs no cleanup. When req has no header
// storage yet (cap 0) a slice of MaxHeaders fields is allocated for it.
//
// Errors:
//   - ErrIncomplete: keep buf, append more bytes, call again
//   - ErrHeaderTooLarge: an unterminated header block exceeds MaxHeaderBytes
//   - ErrHeaderOverflow: more header lines than the header capacity
//   - ErrMalformed (possibly wrapping a framing sentinel): reject
//   - ErrUnsupportedTransferEncoding: a transfer coding other than chunked
//
// Parse is deterministic: the same buf and prevLen always give the same
// outcome.
func (p *Parser) Parse(buf []byte, prevLen int, req *Request) (int, error) {
	fields := req.headers
	if cap(fields) == 0 {
		fields = make([]Field, 0, p.maxHeaders)
	}
	req.Reset(fields)

	res, err := Scan(buf, prevLen, req.headers)
	if err != nil {
		if err == ErrIncomplete && len(buf) > p.maxHeaderBytes {
			return 0, ErrHeaderTooLarge
		}
		return 0, err
	}
	if res.Consumed > p.maxHeaderBytes {
		return 0, ErrHeaderTooLarge
	}

	req.methodBytes = res.Method
	req.methodID = ParseMethodID(res.Method)
	req.pathBytes = res.Path
	req.minorVersion = res.MinorVersion
	req.headers = res.Headers
	req.headerLen = res.Consumed
	req.bodyChunk = buf[res.Consumed:]

	if err := p.applyFraming(req); err != nil {
		return 0, err
	}
	return res.Consumed, nil
}

// applyFraming interprets the headers that decide message framing and
// connection persistence (RFC 7230 §3.3.3, §6.3).
func (p *Parser) applyFraming(req *Request) error {
	var (
		hasContentLength bool
		hasTE            bool
		hasHost          bool
		keepAliveToken   bool
		closeToken       bool
	)

	for i := range req.headers {
		name, value := req.headers[i].Name, req.headers[i].Value

		switch {
		case equalFold(name, headerContentLength):
			n, err := parseContentLength(value)
			if err != nil {
				return errBadContentLength
			}
			if hasContentLength && n != req.contentLength {
				return errBadContentLength
			}
			hasContentLength = true
			req.contentLength = n

		case equalFold(name, headerTransferEncoding):
			// Only a single "chunked" coding is decoded; anything else,
			// including a repeated header, is refused.
			if hasTE || !equalFold(value, valueChunked) {
				return ErrUnsupportedTransferEncoding
			}
			hasTE = true
			req.chunked = true

		case equalFold(name, headerConnection):
			if hasToken(value, valueClose) {
				closeToken = true
			}
			if hasToken(value, valueKeepAlive) {
				keepAliveToken = true
			}

		case equalFold(name, headerExpect):
			if equalFold(trimOWS(value), value100Continue) {
				req.expect100 = true
			}

		case equalFold(name, headerHost):
			if hasHost {
				return errDuplicateHost
			}
			hasHost = true
		}
	}

	if hasContentLength && hasTE {
		return errCLWithTE
	}

	if req.minorVersion == 0 {
		req.close = !keepAliveToken || closeToken
	} else {
		req.close = closeToken
	}
	return nil
}

// parseContentLength parses a non-negative decimal Content-Length value.
func parseContentLength(b []byte) (int64, error) {
	if len(b) == 0 || len(b) > 18 {
		return -1, ErrInvalidContentLength
	}
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return -1, ErrInvalidContentLength
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

// FrameBody locates the complete request body following the header block
// and exposes it through req.Body. It returns the total length of the
// request (header block plus framed body) within the parsed buffer.
//
// Content-Length bodies are views into BodyChunk. Chunked bodies are
// checked for completeness without modification first and then decoded in
// place, so the bytes of BodyChunk up to the returned length are rewritten.
// maxBody bounds the body size; 0 means no limit.
//
// Errors: ErrIncomplete (more bytes needed), ErrBodyTooLarge,
// ErrChunkedEncoding (wrapped in ErrMalformed).
func (p *Parser) FrameBody(req *Request, maxBody int64) (int, error) {
	switch {
	case req.chunked:
		_, n, err := scanChunked(req.bodyChunk, maxBody)
		if err != nil {
			return 0, err
		}
		req.body = decodeChunked(req.bodyChunk[:n])
		return req.headerLen + n, nil

	case req.contentLength > 0:
		if maxBody > 0 && req.contentLength > maxBody {
			return 0, ErrBodyTooLarge
		}
		if int64(len(req.bodyChunk)) < req.contentLength {
			return 0, ErrIncomplete
		}
		req.body = req.bodyChunk[:req.contentLength]
		return req.headerLen + int(req.contentLength), nil
	}
	return req.headerLen, nil
}
