package recent

import (
	"slices"
	"time"
)

// Entry is one recently used file record.
type Entry struct {
	URI       string   `json:"uri" yaml:"uri"`
	MimeType  string   `json:"mime_type" yaml:"mime_type"`
	Timestamp int64    `json:"timestamp" yaml:"timestamp"`
	Private   bool     `json:"private,omitempty" yaml:"private,omitempty"`
	Groups    []string `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// SameAs reports whether e and other identify the same file. Only the URI is
// compared; use Equal to compare every field.
func (e Entry) SameAs(other Entry) bool {
	return e.URI == other.URI
}

// Equal reports whether every field of e and other matches. A nil and an
// empty group list are equal.
func (e Entry) Equal(other Entry) bool {
	return e.URI == other.URI &&
		e.MimeType == other.MimeType &&
		e.Timestamp == other.Timestamp &&
		e.Private == other.Private &&
		slices.Equal(e.Groups, other.Groups)
}

// Clone returns a copy of e that shares no memory with it.
func (e Entry) Clone() Entry {
	e.Groups = slices.Clone(e.Groups)
	return e
}

// HasGroup reports whether e belongs to any of the named groups.
func (e Entry) HasGroup(names ...string) bool {
	for _, name := range names {
		if slices.Contains(e.Groups, name) {
			return true
		}
	}
	return false
}

// Time returns the access time as a time.Time.
func (e Entry) Time() time.Time {
	return time.Unix(e.Timestamp, 0)
}

func (e Entry) String() string {
	return e.URI
}
