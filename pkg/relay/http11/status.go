package http11

import "strconv"

// Status is an HTTP status code. The registry below maps each known code to
// its canonical reason phrase; it is immutable after package initialisation.
type Status uint16

const (
	StatusContinue           Status = 100 // RFC 7231, 6.2.1
	StatusSwitchingProtocols Status = 101 // RFC 7231, 6.2.2
	StatusProcessing         Status = 102 // RFC 2518, 10.1
	StatusEarlyHints         Status = 103 // RFC 8297

	StatusOK                   Status = 200 // RFC 7231, 6.3.1
	StatusCreated              Status = 201 // RFC 7231, 6.3.2
	StatusAccepted             Status = 202 // RFC 7231, 6.3.3
	StatusNonAuthoritativeInfo Status = 203 // RFC 7231, 6.3.4
	StatusNoContent            Status = 204 // RFC 7231, 6.3.5
	StatusResetContent         Status = 205 // RFC 7231, 6.3.6
	StatusPartialContent       Status = 206 // RFC 7233, 4.1

	StatusMultipleChoices   Status = 300 // RFC 7231, 6.4.1
	StatusMovedPermanently  Status = 301 // RFC 7231, 6.4.2
	StatusFound             Status = 302 // RFC 7231, 6.4.3
	StatusSeeOther          Status = 303 // RFC 7231, 6.4.4
	StatusNotModified       Status = 304 // RFC 7232, 4.1
	StatusUseProxy          Status = 305 // RFC 7231, 6.4.5
	StatusTemporaryRedirect Status = 307 // RFC 7231, 6.4.7
	StatusPermanentRedirect Status = 308 // RFC 7538, 3

	StatusBadRequest                   Status = 400 // RFC 7231, 6.5.1
	StatusUnauthorized                 Status = 401 // RFC 7235, 3.1
	StatusPaymentRequired              Status = 402 // RFC 7231, 6.5.2
	StatusForbidden                    Status = 403 // RFC 7231, 6.5.3
	StatusNotFound                     Status = 404 // RFC 7231, 6.5.4
	StatusMethodNotAllowed             Status = 405 // RFC 7231, 6.5.5
	StatusNotAcceptable                Status = 406 // RFC 7231, 6.5.6
	StatusProxyAuthRequired            Status = 407 // RFC 7235, 3.2
	StatusRequestTimeout               Status = 408 // RFC 7231, 6.5.7
	StatusConflict                     Status = 409 // RFC 7231, 6.5.8
	StatusGone                         Status = 410 // RFC 7231, 6.5.9
	StatusLengthRequired               Status = 411 // RFC 7231, 6.5.10
	StatusPreconditionFailed           Status = 412 // RFC 7232, 4.2
	StatusRequestEntityTooLarge        Status = 413 // RFC 7231, 6.5.11
	StatusRequestURITooLong            Status = 414 // RFC 7231, 6.5.12
	StatusUnsupportedMediaType         Status = 415 // RFC 7231, 6.5.13
	StatusRequestedRangeNotSatisfiable Status = 416 // RFC 7233, 4.4
	StatusExpectationFailed            Status = 417 // RFC 7231, 6.5.14
	StatusTeapot                       Status = 418 // RFC 7168, 2.3.3
	StatusMisdirectedRequest           Status = 421 // RFC 7540, 9.1.2
	StatusUnprocessableEntity          Status = 422 // RFC 4918, 11.2
	StatusUpgradeRequired              Status = 426 // RFC 7231, 6.5.15
	StatusPreconditionRequired         Status = 428 // RFC 6585, 3
	StatusTooManyRequests              Status = 429 // RFC 6585, 4
	StatusRequestHeaderFieldsTooLarge  Status = 431 // RFC 6585, 5
	StatusUnavailableForLegalReasons   Status = 451 // RFC 7725, 3

	StatusInternalServerError     Status = 500 // RFC 7231, 6.6.1
	StatusNotImplemented          Status = 501 // RFC 7231, 6.6.2
	StatusBadGateway              Status = 502 // RFC 7231, 6.6.3
	StatusServiceUnavailable      Status = 503 // RFC 7231, 6.6.4
	StatusGatewayTimeout          Status = 504 // RFC 7231, 6.6.5
	StatusHTTPVersionNotSupported Status = 505 // RFC 7231, 6.6.6
)

// unknownReason is used for codes missing from the registry.
const unknownReason = "Unknown"

var statusReasons = map[Status]string{
	StatusContinue:           "Continue",
	StatusSwitchingProtocols: "Switching Protocols",
	StatusProcessing:         "Processing",
	StatusEarlyHints:         "Early Hints",

	StatusOK:                   "OK",
	StatusCreated:              "Created",
	StatusAccepted:             "Accepted",
	StatusNonAuthoritativeInfo: "Non-Authoritative Information",
	StatusNoContent:            "No Content",
	StatusResetContent:         "Reset Content",
	StatusPartialContent:       "Partial Content",

	StatusMultipleChoices:   "Multiple Choices",
	StatusMovedPermanently:  "Moved Permanently",
	StatusFound:             "Found",
	StatusSeeOther:          "See Other",
	StatusNotModified:       "Not Modified",
	StatusUseProxy:          "Use Proxy",
	StatusTemporaryRedirect: "Temporary Redirect",
	StatusPermanentRedirect: "Permanent Redirect",

	StatusBadRequest:                   "Bad Request",
	StatusUnauthorized:                 "Unauthorized",
	StatusPaymentRequired:              "Payment Required",
	StatusForbidden:                    "Forbidden",
	StatusNotFound:                     "Not Found",
	StatusMethodNotAllowed:             "Method Not Allowed",
	StatusNotAcceptable:                "Not Acceptable",
	StatusProxyAuthRequired:            "Proxy Authentication Required",
	StatusRequestTimeout:               "Request Timeout",
	StatusConflict:                     "Conflict",
	StatusGone:                         "Gone",
	StatusLengthRequired:               "Length Required",
	StatusPreconditionFailed:           "Precondition Failed",
	StatusRequestEntityTooLarge:        "Payload Too Large",
	StatusRequestURITooLong:            "URI Too Long",
	StatusUnsupportedMediaType:         "Unsupported Media Type",
	StatusRequestedRangeNotSatisfiable: "Range Not Satisfiable",
	StatusExpectationFailed:            "Expectation Failed",
	StatusTeapot:                       "I'm a teapot",
	StatusMisdirectedRequest:           "Misdirected Request",
	StatusUnprocessableEntity:          "Unprocessable Entity",
	StatusUpgradeRequired:              "Upgrade Required",
	StatusPreconditionRequired:         "Precondition Required",
	StatusTooManyRequests:              "Too Many Requests",
	StatusRequestHeaderFieldsTooLarge:  "Request Header Fields Too Large",
	StatusUnavailableForLegalReasons:   "Unavailable For Legal Reasons",

	StatusInternalServerError:     "Internal Server Error",
	StatusNotImplemented:          "Not Implemented",
	StatusBadGateway:              "Bad Gateway",
	StatusServiceUnavailable:      "Service Unavailable",
	StatusGatewayTimeout:          "Gateway Timeout",
	StatusHTTPVersionNotSupported: "HTTP Version Not Supported",
}

// statusLines holds the pre-compiled "HTTP/1.1 <code> <reason>\r\n" line of
// every registered status so emitting a known status never allocates.
var statusLines = func() map[Status][]byte {
	m := make(map[Status][]byte, len(statusReasons))
	for s, reason := range statusReasons {
		m[s] = appendStatusLine(nil, int(s), reason)
	}
	return m
}()

// Code returns the numeric status code.
func (s Status) Code() int {
	return int(s)
}

// Reason returns the canonical reason phrase, or "Unknown".
func (s Status) Reason() string {
	if r, ok := statusReasons[s]; ok {
		return r
	}
	return unknownReason
}

// Known reports whether s is in the registry.
func (s Status) Known() bool {
	_, ok := statusReasons[s]
	return ok
}

// String implements fmt.Stringer ("404 Not Found").
func (s Status) String() string {
	return strconv.Itoa(int(s)) + " " + s.Reason()
}

// StatusText returns the reason phrase for a numeric code.
func StatusText(code int) string {
	return Status(code).Reason()
}

// StatusLine returns the status line for s including the trailing CRLF.
// Registered codes return a shared pre-compiled slice that must not be
// modified; unknown codes are built with the "Unknown" phrase.
//
// Allocation behavior: 0 allocs/op for registered codes
func StatusLine(s Status) []byte {
	if line, ok := statusLines[s]; ok {
		return line
	}
	return appendStatusLine(nil, int(s), unknownReason)
}

// appendStatusLine appends "HTTP/1.1 <code>[ <reason>]\r\n" to dst.
// The reason and its separating space are omitted when reason is empty.
// Control bytes in reason are dropped like in header values.
func appendStatusLine(dst []byte, code int, reason string) []byte {
	dst = append(dst, http11Prefix...)
	dst = strconv.AppendInt(dst, int64(code), 10)
	if reason != "" {
		dst = append(dst, ' ')
		dst = appendHeaderValue(dst, reason)
	}
	return append(dst, crlf...)
}

// bodyAllowed reports whether a response with this status may carry a body
// and therefore a Content-Length (RFC 7230 §3.3.2).
func bodyAllowed(code int) bool {
	if code >= 100 && code < 200 {
		return false
	}
	return code != int(StatusNoContent) && code != int(StatusNotModified)
}
