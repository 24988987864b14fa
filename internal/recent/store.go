// Package recent reads, queries and writes the shared list of recently used
// files kept in ~/.recently-used.
package recent

import (
	"bytes"
	"cmp"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const (
	// MaxEntries bounds the number of entries kept by AddFile.
	MaxEntries = 500

	// DefaultFileName is the name of the file under the home directory.
	DefaultFileName = ".recently-used"
)

var errNoPath = errors.New("no path given and none recorded")

// Store holds the entries of one recent files document, newest first.
//
// A Store is not safe for concurrent use.
type Store struct {
	entries  []Entry
	path     string
	now      func() time.Time
	home     func() (string, error)
	failFast bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp entries in AddFile.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithHomeDir sets the resolver Parse uses when called without a path. Without
// one, Parse requires an explicit path.
func WithHomeDir(home func() (string, error)) Option {
	return func(s *Store) {
		s.home = home
	}
}

// WithFailFastLock makes Write fail with ErrLocked instead of waiting when
// another process holds the file lock.
func WithFailFastLock() Option {
	return func(s *Store) {
		s.failFast = true
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load parses path into a new Store. A file that does not exist yet yields an
// empty Store bound to path, so a later Write creates it.
func Load(path string, opts ...Option) (*Store, error) {
	s := New(opts...)
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, notFound("parse", path, err)
	}
	if err := s.Parse(resolved); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		s.path = resolved
	}
	return s, nil
}

// DefaultPath returns the location of the recent files document under home.
func DefaultPath(home string) string {
	return filepath.Join(home, DefaultFileName)
}

func (s *Store) resolve(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if s.home == nil {
		return "", errNoPath
	}
	home, err := s.home()
	if err != nil {
		return "", err
	}
	return DefaultPath(home), nil
}

// Parse reads the document at path and adds its entries to the store. An
// empty path means the default file under the home directory.
//
// Items that cannot be resolved are skipped; only a document that is not
// well-formed fails the whole parse. When the same URI appears more than
// once, the newest item wins.
func (s *Store) Parse(path string) error {
	path, err := s.resolve(path)
	if err != nil {
		return notFound("parse", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return notFound("parse", path, err)
	}

	entries, err := Decode(bytes.NewReader(data))
	if err != nil {
		return parseFailure("parse", path, err)
	}

	s.path = path
	s.entries = append(s.entries, entries...)
	s.sort()
	s.dedupe()
	return nil
}

// Write stores the entries at path, or at the path last parsed or written
// when path is empty. The file is held under an exclusive advisory lock for
// the whole write.
//
// A crash in the middle of a write leaves a truncated document behind.
func (s *Store) Write(path string) error {
	if path == "" {
		path = s.path
	}
	if path == "" {
		return notFound("write", "", errNoPath)
	}

	if err := s.writeFile(path); err != nil {
		return err
	}
	s.path = path
	return nil
}

func (s *Store) writeFile(path string) (err error) {
	// The file is truncated only once the lock is held.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o600)
	if err != nil {
		return ioFailure("open", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = ioFailure("close", path, cerr)
		}
	}()

	if err := lockFile(f, !s.failFast); err != nil {
		return ioFailure("lock", path, err)
	}
	defer func() {
		if uerr := unlockFile(f); uerr != nil && err == nil {
			err = ioFailure("unlock", path, uerr)
		}
	}()

	if err := f.Truncate(0); err != nil {
		return ioFailure("write", path, err)
	}
	if err := Encode(f, s.entries); err != nil {
		return ioFailure("write", path, err)
	}
	if err := f.Sync(); err != nil {
		return ioFailure("write", path, err)
	}
	return nil
}

// Query selects entries in GetFiles. Groups takes precedence over
// MimeTypes; with neither set only public entries match. Limit caps the
// number of results when positive.
type Query struct {
	MimeTypes []string
	Groups    []string
	Limit     int
}

func (q Query) match(e Entry) bool {
	switch {
	case len(q.Groups) > 0:
		return e.HasGroup(q.Groups...)
	case len(q.MimeTypes) > 0:
		return slices.Contains(q.MimeTypes, e.MimeType)
	default:
		return !e.Private
	}
}

// GetFiles returns copies of the matching entries, newest first.
//
// A group query returns private entries too.
func (s *Store) GetFiles(q Query) []Entry {
	var files []Entry
	for _, e := range s.entries {
		if !q.match(e) {
			continue
		}
		files = append(files, e.Clone())
		if q.Limit > 0 && len(files) == q.Limit {
			break
		}
	}
	return files
}

// AddFile records an access to uri now. An existing entry for uri is updated
// in place; otherwise a new entry is added, dropping the oldest ones first if
// the store is full. It returns a copy of the stored entry.
func (s *Store) AddFile(uri, mimeType string, groups []string, private bool) Entry {
	i := s.index(uri)
	if i < 0 {
		for n := len(s.entries); n >= MaxEntries; n-- {
			s.entries = slices.Delete(s.entries, n-1, n)
		}
		s.entries = append(s.entries, Entry{URI: uri})
		i = len(s.entries) - 1
	}

	e := &s.entries[i]
	e.MimeType = mimeType
	e.Timestamp = s.now().Unix()
	e.Private = private
	e.Groups = slices.Clone(groups)
	added := e.Clone()

	s.sort()
	return added
}

// DeleteFile removes the entry for uri and reports whether there was one.
func (s *Store) DeleteFile(uri string) bool {
	i := s.index(uri)
	if i < 0 {
		return false
	}
	s.entries = slices.Delete(s.entries, i, i+1)
	return true
}

// Lookup returns a copy of the entry for uri.
func (s *Store) Lookup(uri string) (Entry, bool) {
	i := s.index(uri)
	if i < 0 {
		return Entry{}, false
	}
	return s.entries[i].Clone(), true
}

// Entries returns copies of all entries, newest first.
func (s *Store) Entries() []Entry {
	entries := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = e.Clone()
	}
	return entries
}

// Groups returns every group name in use, in order of first appearance.
func (s *Store) Groups() []string {
	var groups []string
	seen := make(map[string]bool)
	for _, e := range s.entries {
		for _, g := range e.Groups {
			if !seen[g] {
				seen[g] = true
				groups = append(groups, g)
			}
		}
	}
	return groups
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Path returns the file last parsed or written.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) index(uri string) int {
	return slices.IndexFunc(s.entries, func(e Entry) bool {
		return e.SameAs(Entry{URI: uri})
	})
}

// sort orders entries newest first, keeping the existing order of entries
// with equal timestamps.
func (s *Store) sort() {
	slices.SortStableFunc(s.entries, func(a, b Entry) int {
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
}

// dedupe keeps the first entry for each URI.
func (s *Store) dedupe() {
	seen := make(map[string]bool, len(s.entries))
	s.entries = slices.DeleteFunc(s.entries, func(e Entry) bool {
		if seen[e.URI] {
			return true
		}
		seen[e.URI] = true
		return false
	})
}
