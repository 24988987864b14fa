package recent

import (
	"mime"
	"net/url"
	"path"
)

// DefaultMimeType is used when the type of a file cannot be guessed.
const DefaultMimeType = "application/octet-stream"

// GuessMimeType guesses a MIME type from the extension of uri's path.
func GuessMimeType(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	ext := path.Ext(p)
	if ext == "" {
		return DefaultMimeType
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return DefaultMimeType
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}
