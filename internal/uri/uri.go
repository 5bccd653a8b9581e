// Package uri implements the URI normalization cache: converting
// between `file://` URIs and filesystem paths per RFC 3986, and
// remembering each path's original client-supplied spelling so replies can
// echo back the casing/separators the editor originally sent.
package uri

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
)

// ToURI converts an absolute filesystem path to a file:// URI. A Windows
// drive letter (`C:\...`) is lowercased and its colon percent-encoded
// (`file:///c%3A/...`), matching the one departure from plain RFC 3986
// path-escaping that Windows clients expect.
func ToURI(path string) string {
	path = filepath.ToSlash(path)
	if drive, rest, ok := splitWindowsDrive(strings.ReplaceAll(path, `\`, "/")); ok {
		path = "/" + strings.ToLower(drive) + "%3A" + rest
		return "file://" + escapeExceptPercent(path)
	}
	u := &url.URL{Scheme: "file", Path: path}
	return u.String()
}

// FromURI converts a file:// URI back to a filesystem path.
func FromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("uri %q is not a file:// uri", uri)
	}
	p := u.Path
	if drive, rest, ok := splitEncodedWindowsDrive(p); ok {
		return drive + ":" + filepath.FromSlash(rest), nil
	}
	return filepath.FromSlash(p), nil
}

// splitWindowsDrive reports whether path looks like a Windows absolute path
// ("C:/...", no leading slash) and splits it into the drive letter and the
// remainder (including the leading slash).
func splitWindowsDrive(path string) (drive, rest string, ok bool) {
	if len(path) < 3 || path[1] != ':' || path[2] != '/' {
		return "", "", false
	}
	c := path[0]
	if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return "", "", false
	}
	return path[:1], path[2:], true
}

// splitEncodedWindowsDrive recognizes the "/c:/..." shape url.Parse leaves
// us with after decoding "%3A" back to ':'.
func splitEncodedWindowsDrive(p string) (drive, rest string, ok bool) {
	if len(p) < 4 || p[0] != '/' || p[2] != ':' || p[3] != '/' {
		return "", "", false
	}
	c := p[1]
	if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')) {
		return "", "", false
	}
	return p[1:2], p[3:], true
}

// escapeExceptPercent percent-encodes the RFC 3986-reserved set
// (`" #$&()+,;?@"`) without re-escaping a "%3A" we've already inserted
// for a drive letter.
func escapeExceptPercent(path string) string {
	const reserved = " #$&()+,;?@"
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		if strings.IndexByte(reserved, c) >= 0 {
			fmt.Fprintf(&b, "%%%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Cache maps normalized paths to the URI spelling a client last used for
// them, so a response can echo the client's own casing/separators instead
// of a canonicalized one.
type Cache struct {
	mu        sync.Mutex
	originals map[string]string // normalized path -> client's URI spelling
}

// New returns an empty normalization cache.
func New() *Cache {
	return &Cache{originals: map[string]string{}}
}

// Remember records uri as path's client-supplied spelling.
func (c *Cache) Remember(path, uri string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.originals[path] = uri
}

// URIFor returns the remembered URI spelling for path, computing and
// caching a fresh one via ToURI on first sight.
func (c *Cache) URIFor(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if uri, ok := c.originals[path]; ok {
		return uri
	}
	uri := ToURI(path)
	c.originals[path] = uri
	return uri
}

// Forget drops path's remembered spelling, e.g. on didClose.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.originals, path)
}
