package http11

// headerName is satisfied by both header name representations so lookups
// work on string constants and on wire bytes without conversion.
type headerName interface {
	~string | ~[]byte
}

// lookupField returns the value of the first field whose name equals name
// case-insensitively. Linear scan: header counts are small and the fields
// are contiguous in memory.
//
// Allocation behavior: 0 allocs/op
func lookupField[N headerName](fields []Field, name N) ([]byte, bool) {
	for i := range fields {
		if equalFold(fields[i].Name, name) {
			return fields[i].Value, true
		}
	}
	return nil, false
}

// equalFold compares ASCII bytes case-insensitively.
// Header names are ASCII tokens, so no Unicode folding is needed.
//
// Allocation behavior: 0 allocs/op
func equalFold[N headerName](a []byte, b N) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toLower(a[i]) != toLower(b[i]) {
			return false
		}
	}
	return true
}

// toLower converts an ASCII uppercase letter to lowercase.
// Non-letter bytes are returned unchanged.
func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}

// hasToken reports whether a comma-separated header value contains token,
// compared case-insensitively ("keep-alive, Upgrade" has "upgrade").
func hasToken(value, token []byte) bool {
	for len(value) > 0 {
		var elem []byte
		elem, value = nextListElement(value)
		if equalFold(elem, token) {
			return true
		}
	}
	return false
}

// nextListElement splits off the first list element with surrounding OWS
// trimmed and returns it with the remainder after the comma.
func nextListElement(value []byte) (elem, rest []byte) {
	i := 0
	for i < len(value) && value[i] != ',' {
		i++
	}
	elem = trimOWS(value[:i])
	if i < len(value) {
		rest = value[i+1:]
	}
	return elem, rest
}

func trimOWS(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

// validHeaderName reports whether name is a non-empty token.
func validHeaderName[N headerName](name N) bool {
	if len(name) == 0 {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !tokenTable[name[i]] {
			return false
		}
	}
	return true
}

// appendHeaderValue appends value to dst with CR, LF and other control bytes
// except HTAB removed, so a caller-supplied value can never split the
// response.
func appendHeaderValue[N headerName](dst []byte, value N) []byte {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < 0x20 && c != '\t') || c == 0x7f {
			continue
		}
		dst = append(dst, c)
	}
	return dst
}
