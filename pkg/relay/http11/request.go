package http11

import "bytes"

// Request is a zero-copy view of one HTTP/1.1 request.
//
// CRITICAL: every byte slice returned by a Request references the input
// buffer handed to Parser.Parse. The views are only valid while that buffer
// is unchanged, which for loop-driven requests means until the handler
// returns. Copy anything that must outlive the handler.
type Request struct {
	methodBytes  []byte
	pathBytes    []byte
	minorVersion int

	// headers has len = parsed count and cap = header limit H.
	headers []Field

	// bodyChunk is the buffer suffix after the header terminator.
	bodyChunk []byte

	// body is set once the full framed body has been collected.
	body []byte

	methodID      uint8
	headerLen     int
	contentLength int64 // -1 if absent
	chunked       bool
	close         bool
	expect100     bool
}

// Reset clears the request and installs fields as header storage. fields is
// usually an arena slab range; its capacity becomes the header limit.
func (r *Request) Reset(fields []Field) {
	*r = Request{headers: fields[:0], contentLength: -1}
}

// Method returns the method as a string. Registered methods return a
// constant; other tokens allocate.
func (r *Request) Method() string {
	if r.methodID != MethodUnknown {
		return MethodString(r.methodID)
	}
	return string(r.methodBytes)
}

// MethodBytes returns the method token view.
//
// Allocation behavior: 0 allocs/op
func (r *Request) MethodBytes() []byte {
	return r.methodBytes
}

// MethodID returns the numeric method identity, MethodUnknown for
// unregistered tokens.
func (r *Request) MethodID() uint8 {
	return r.methodID
}

// Path returns the request target as a string (allocates).
func (r *Request) Path() string {
	return string(r.pathBytes)
}

// PathBytes returns the full request target view, query included.
//
// Allocation behavior: 0 allocs/op
func (r *Request) PathBytes() []byte {
	return r.pathBytes
}

// Query returns the view after the first '?' of the target, or nil.
func (r *Request) Query() []byte {
	if i := bytes.IndexByte(r.pathBytes, '?'); i >= 0 {
		return r.pathBytes[i+1:]
	}
	return nil
}

// MinorVersion returns the digit after "HTTP/1.".
func (r *Request) MinorVersion() int {
	return r.minorVersion
}

// Proto returns "HTTP/1.0" or "HTTP/1.1" (other minor digits report 1.1).
func (r *Request) Proto() string {
	if r.minorVersion == 0 {
		return "HTTP/1.0"
	}
	return "HTTP/1.1"
}

// Headers returns the parsed header fields in wire order.
func (r *Request) Headers() []Field {
	return r.headers
}

// MaxHeaders returns the header capacity of this request.
func (r *Request) MaxHeaders() int {
	return cap(r.headers)
}

// Header returns the value of the first header whose name matches
// case-insensitively. ok is false when no such header exists.
//
// Allocation behavior: 0 allocs/op
func (r *Request) Header(name string) (value []byte, ok bool) {
	return lookupField(r.headers, name)
}

// HeaderBytes is Header for a byte-slice name.
func (r *Request) HeaderBytes(name []byte) (value []byte, ok bool) {
	return lookupField(r.headers, name)
}

// BodyChunk returns the bytes that followed the header block in the parsed
// buffer. They may hold a partial body, a complete body followed by a
// pipelined request, or nothing.
func (r *Request) BodyChunk() []byte {
	return r.bodyChunk
}

// Body returns the complete request body after framing, nil when the request
// has none. For chunked requests the view holds the decoded data.
func (r *Request) Body() []byte {
	return r.body
}

// ContentLength returns the declared Content-Length, -1 when absent.
func (r *Request) ContentLength() int64 {
	return r.contentLength
}

// IsChunked reports whether the body uses chunked transfer coding.
func (r *Request) IsChunked() bool {
	return r.chunked
}

// KeepAlive reports whether the connection may serve another request after
// this one. HTTP/1.1 defaults to persistent, HTTP/1.0 requires an explicit
// "Connection: keep-alive".
func (r *Request) KeepAlive() bool {
	return !r.close
}

// ExpectContinue reports "Expect: 100-continue".
func (r *Request) ExpectContinue() bool {
	return r.expect100
}

// HeaderLen returns the size of the request line and header block.
func (r *Request) HeaderLen() int {
	return r.headerLen
}

// HasBody reports whether the framing headers announce a body.
func (r *Request) HasBody() bool {
	return r.chunked || r.contentLength > 0
}
