package util

import (
	"net"
	"net/url"
	"strings"
)

// ResolveURLPath appends a path to a base URL, keeping any path prefix the
// base carries (LM Studio behind a reverse proxy at /studio for example).
// Absolute URLs are returned untouched. Unlike path.Join the path is not
// cleaned, so escaped segments such as %2F survive.
//
// Examples:
//   - ResolveURLPath("http://localhost:1234", "/v1/models") -> "http://localhost:1234/v1/models"
//   - ResolveURLPath("http://gw/studio/", "v1/models") -> "http://gw/studio/v1/models"
func ResolveURLPath(baseURL, pathOrURL string) string {
	if baseURL == "" {
		return pathOrURL
	}
	if pathOrURL == "" {
		return baseURL
	}

	if parsed, err := url.Parse(pathOrURL); err == nil && parsed.IsAbs() {
		return pathOrURL
	}

	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(pathOrURL, "/")
}

// EscapePathSegments escapes every segment of a slash separated identifier
// individually so publisher/model ids keep their slashes while anything
// else unsafe is percent encoded. Empty segments are kept as they are so
// the identifier is never silently rewritten.
func EscapePathSegments(id string) string {
	parts := strings.Split(id, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// IsLoopbackURL reports whether rawURL points at localhost or a loopback
// address. Unparseable input is not loopback.
func IsLoopbackURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
