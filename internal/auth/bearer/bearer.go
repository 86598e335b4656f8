// Package bearer extracts access tokens from request headers and cookies.
package bearer

import (
	"net/http"
	"regexp"
	"strings"
)

var headerPattern = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

// FromHeader returns the token of a "Bearer <token>" Authorization value, or "".
func FromHeader(authorization string) string {
	m := headerPattern.FindStringSubmatch(strings.TrimSpace(authorization))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// FromCookie returns the trimmed value of the named cookie, or "" when absent or blank.
func FromCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

// FromRequest prefers the Authorization header and falls back to the named cookie.
func FromRequest(r *http.Request, cookieName string) string {
	if tok := FromHeader(r.Header.Get("Authorization")); tok != "" {
		return tok
	}
	if cookieName == "" {
		return ""
	}
	return FromCookie(r, cookieName)
}
