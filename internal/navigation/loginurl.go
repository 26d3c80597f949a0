package navigation

import (
	"net/url"
	"strings"
)

// LoginURL builds the login page URL carrying redirect as the return
// target. An empty redirect yields the bare login path.
func LoginURL(loginPath, redirect string) string {
	if redirect == "" {
		return loginPath
	}
	return loginPath + "?redirect=" + EncodeURIComponent(redirect)
}

// ReturnTarget extracts and decodes the redirect parameter of a login URL.
func ReturnTarget(loginURL string) string {
	i := strings.Index(loginURL, "redirect=")
	if i < 0 {
		return ""
	}
	v := loginURL[i+len("redirect="):]
	if j := strings.IndexByte(v, '&'); j >= 0 {
		v = v[:j]
	}
	return decodeURIComponent(v)
}

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s the way the JavaScript builtin
// does: everything except A-Z a-z 0-9 and -_.!~*'() is escaped.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// decodeURIComponent reverses EncodeURIComponent; a malformed value is
// returned as is.
func decodeURIComponent(s string) string {
	v, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return v
}
