package httpds

import (
	"crypto/sha1"
	"encoding/hex"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
)

// nameCleaner collapses runs of characters unsafe in filenames to "_".
var nameCleaner = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ResolveFilename picks the local filename for a download: the
// Content-Disposition name when the server sends one, else the last URL
// path element, else a deterministic name derived from the URL.
func ResolveFilename(rawURL string, h http.Header) string {
	if name := filenameFromHeader(h); name != "" {
		return name
	}
	if u, err := url.Parse(rawURL); err == nil {
		if name := path.Base(u.Path); name != "." && name != "/" && name != "" {
			return name
		}
	}
	return fallbackName(rawURL)
}

// filenameFromHeader extracts the filename from a Content-Disposition
// header, stripped of any directory components.
func filenameFromHeader(h http.Header) string {
	cd := h.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	name := path.Base(params["filename"])
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// fallbackName builds a deterministic, filesystem-safe name for URLs whose
// path has no usable final element (bare hosts, trailing slashes). The host
// keeps the name recognizable; the digest keeps distinct URLs apart.
func fallbackName(rawURL string) string {
	host := "download"
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = nameCleaner.ReplaceAllString(u.Host, "_")
	}
	sum := sha1.Sum([]byte(rawURL))
	return host + "_" + hex.EncodeToString(sum[:6])
}
