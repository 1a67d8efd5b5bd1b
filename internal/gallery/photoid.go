package gallery

import (
	"net/url"
	"strings"
)

// PhotoID derives the like/comment map key from a storage URL: the final
// path segment, query stripped, not percent-decoded. Inputs that do not
// parse as a URL are returned verbatim so plain ids pass through.
func PhotoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	// EscapedPath keeps %2F-encoded folder separators intact; a decoded
	// path would split storage object names at the wrong place.
	path := u.EscapedPath()
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
