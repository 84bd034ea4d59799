package catalog

import (
	"net/url"
	"path"
	"strings"
)

// NormalizeImageURL canonicalizes an image source. Data URIs pass through,
// absolute URLs are re-encoded, protocol-relative URLs get https, and
// relative paths become clean rooted paths with slashes and escaped spaces.
// Applying it twice gives the same result as applying it once.
func NormalizeImageURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if hasPrefixFold(s, "data:") {
		return s
	}
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	}

	if u, err := url.Parse(s); err == nil {
		if len(u.Scheme) > 1 {
			return u.String()
		}
	} else if len(scheme(s)) > 1 {
		// absolute but not parseable; leave it to the fetcher
		return s
	}

	// Relative path: query and fragment are kept verbatim.
	p, rest := s, ""
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		p, rest = s[:i], s[i:]
	}
	p = strings.ReplaceAll(p, `\`, "/")
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	p = path.Clean("/" + p)
	return (&url.URL{Path: p}).EscapedPath() + rest
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// scheme returns the RFC 3986 scheme prefix of s, or "" if it has none.
// Single-letter schemes are Windows drive letters and are treated as paths.
func scheme(s string) string {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') && i > 0:
		case r == ':' && i > 0:
			return s[:i]
		default:
			return ""
		}
	}
	return ""
}
