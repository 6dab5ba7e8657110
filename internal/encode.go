package internal

// Scalar payload fields are percent-encoded individually before they enter
// the request envelope. The gateway expects the encodeURIComponent escape
// set, which leaves !~*'() unescaped and never emits "+", so net/url
// escaping cannot be used here.

const upperhex = "0123456789ABCDEF"

func componentUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

func encodeComponent(s string) string {
	hexCount := 0
	for i := 0; i < len(s); i++ {
		if !componentUnreserved(s[i]) {
			hexCount++
		}
	}
	if hexCount == 0 {
		return s
	}
	out := make([]byte, 0, len(s)+2*hexCount)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if componentUnreserved(c) {
			out = append(out, c)
			continue
		}
		out = append(out, '%', upperhex[c>>4], upperhex[c&0x0f])
	}
	return string(out)
}
