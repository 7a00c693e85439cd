// Package http11 implements the HTTP/1.1 protocol layer of relay: a zero-copy
// request parser for event-loop input buffers and a response writer that frames
// Content-Length and chunked responses through a per-loop write-coalescing
// buffer.
package http11

// Wire fragments - byte slices so writes never convert strings.
var (
	http11Prefix = []byte("HTTP/1.1 ")
	crlf         = []byte("\r\n")
	colonSpace   = []byte(": ")
	lastChunk    = []byte("0\r\n\r\n")

	contentLengthPrefix = []byte("Content-Length: ")
	chunkedHeaderLine   = []byte("Transfer-Encoding: chunked\r\n\r\n")
	zeroLengthTail      = []byte("Content-Length: 0\r\n\r\n")
)

// Header names matched case-insensitively while parsing or writing.
var (
	headerContentLength    = []byte("Content-Length")
	headerTransferEncoding = []byte("Transfer-Encoding")
	headerConnection       = []byte("Connection")
	headerVary             = []byte("Vary")
	headerExpect           = []byte("Expect")
	headerHost             = []byte("Host")

	valueClose       = []byte("close")
	valueKeepAlive   = []byte("keep-alive")
	valueChunked     = []byte("chunked")
	value100Continue = []byte("100-continue")

	valueAcceptEncoding = []byte("Accept-Encoding")
)

const (
	// DefaultMaxHeaders is the default header capacity H of a Request.
	DefaultMaxHeaders = 64

	// DefaultMaxHeaderBytes bounds an unterminated header block.
	DefaultMaxHeaderBytes = 16 * 1024

	// DefaultCorkSize is the default CorkBuffer capacity.
	DefaultCorkSize = 16 * 1024

	// maxHexLen is the longest chunk-size prefix we emit ("ffffffffffffffff\r\n").
	maxHexLen = 18
)
