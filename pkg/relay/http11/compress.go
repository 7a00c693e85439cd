package http11

import (
	"github.com/valyala/bytebufferpool"

	"github.com/yourusername/relay/pkg/relay/encoding"
)

// SetCompressor attaches the compressor used by EndCompressed.
func (rw *ResponseWriter) SetCompressor(c *encoding.Compressor) {
	rw.compressor = c
}

// EndCompressed ends the response with data encoded in the coding the client
// prefers according to acceptEncoding. Content-Encoding and Vary headers are
// added and the encoded body takes the Content-Length path.
//
// The body is sent unencoded when no compressor is attached, the header
// section is already closed, data is below the compressor's threshold, or
// the client accepts no supported coding. An encoding failure also falls
// back to the unencoded body.
func (rw *ResponseWriter) EndCompressed(acceptEncoding, data []byte) {
	if rw.state.Terminal() {
		return
	}
	c := rw.compressor
	if c == nil || rw.state.HeadersWritten() || len(data) < c.MinSize() {
		rw.End(data)
		return
	}

	coding := encoding.Negotiate(acceptEncoding)
	if coding == encoding.Identity {
		rw.WriteHeaderBytes(headerVary, valueAcceptEncoding)
		rw.End(data)
		return
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := c.Compress(buf, coding, data); err != nil {
		rw.End(data)
		return
	}

	rw.WriteHeader("Content-Encoding", coding.String())
	rw.WriteHeaderBytes(headerVary, valueAcceptEncoding)
	rw.End(buf.B)
}
