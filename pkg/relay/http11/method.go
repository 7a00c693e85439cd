package http11

// Method IDs for O(1) switching in handlers. The parser accepts any token as
// a method; MethodUnknown only means "not one of the registered ones".
const (
	MethodUnknown uint8 = iota
	MethodGET
	MethodPOST
	MethodPUT
	MethodDELETE
	MethodPATCH
	MethodHEAD
	MethodOPTIONS
	MethodCONNECT
	MethodTRACE
)

var methodNames = [...]string{
	MethodUnknown: "",
	MethodGET:     "GET",
	MethodPOST:    "POST",
	MethodPUT:     "PUT",
	MethodDELETE:  "DELETE",
	MethodPATCH:   "PATCH",
	MethodHEAD:    "HEAD",
	MethodOPTIONS: "OPTIONS",
	MethodCONNECT: "CONNECT",
	MethodTRACE:   "TRACE",
}

// ParseMethodID converts a method token to its numeric ID.
// Method tokens are case-sensitive (RFC 7231 §4.1).
//
// Allocation behavior: 0 allocs/op
func ParseMethodID(method []byte) uint8 {
	switch string(method) {
	case "GET":
		return MethodGET
	case "POST":
		return MethodPOST
	case "PUT":
		return MethodPUT
	case "DELETE":
		return MethodDELETE
	case "PATCH":
		return MethodPATCH
	case "HEAD":
		return MethodHEAD
	case "OPTIONS":
		return MethodOPTIONS
	case "CONNECT":
		return MethodCONNECT
	case "TRACE":
		return MethodTRACE
	}
	return MethodUnknown
}

// MethodString returns the canonical name of a method ID, or "" if unknown.
func MethodString(id uint8) string {
	if int(id) < len(methodNames) {
		return methodNames[id]
	}
	return ""
}
