package http11

import "errors"

// Parser errors - pre-allocated so the hot path never allocates.
var (
	// ErrIncomplete indicates the buffer does not yet hold a full header block.
	// The caller must keep the buffer, append more bytes and parse again.
	ErrIncomplete = errors.New("http11: incomplete request")

	// ErrMalformed indicates a protocol violation in the request line or headers.
	// Not retryable; the connection should be failed.
	ErrMalformed = errors.New("http11: malformed request")

	// ErrHeaderOverflow indicates more header lines than the configured capacity.
	ErrHeaderOverflow = errors.New("http11: too many headers")

	// ErrHeaderTooLarge indicates the header block grew past MaxHeaderBytes
	// without being terminated.
	ErrHeaderTooLarge = errors.New("http11: header block too large")

	// ErrBodyTooLarge indicates a declared or decoded body exceeds the limit.
	ErrBodyTooLarge = errors.New("http11: request body too large")

	// ErrInvalidContentLength indicates Content-Length is malformed or
	// repeated with different values.
	ErrInvalidContentLength = errors.New("http11: invalid Content-Length")

	// ErrContentLengthWithTransferEncoding indicates a request carries both
	// framing headers (RFC 7230 §3.3.3).
	ErrContentLengthWithTransferEncoding = errors.New("http11: both Content-Length and Transfer-Encoding present")

	// ErrUnsupportedTransferEncoding indicates a transfer coding other than chunked.
	ErrUnsupportedTransferEncoding = errors.New("http11: unsupported Transfer-Encoding")

	// ErrChunkedEncoding indicates a malformed chunked body.
	ErrChunkedEncoding = errors.New("http11: chunked encoding error")
)

// Response errors
var (
	// ErrResponseEnded is returned by Write once the response has ended.
	ErrResponseEnded = errors.New("http11: response already ended")

	// ErrConnectionClosed indicates the transport reported the peer is gone.
	ErrConnectionClosed = errors.New("http11: connection closed")
)

// IsRetryable reports whether err only means "more bytes are needed".
func IsRetryable(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

// StatusForError maps a request error to the status sent before closing.
// Returns 0 when no response should be attempted.
func StatusForError(err error) Status {
	switch {
	case err == nil, errors.Is(err, ErrIncomplete):
		return 0
	case errors.Is(err, ErrHeaderOverflow), errors.Is(err, ErrHeaderTooLarge):
		return StatusRequestHeaderFieldsTooLarge
	case errors.Is(err, ErrBodyTooLarge):
		return StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedTransferEncoding):
		return StatusNotImplemented
	default:
		return StatusBadRequest
	}
}
