package recent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickClock returns times one second apart starting after base.
type tickClock struct {
	now time.Time
}

func (c *tickClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func setupTestStore(t *testing.T) (*Store, *tickClock) {
	t.Helper()
	clock := &tickClock{now: time.Unix(1000, 0)}
	return New(WithClock(clock.Now)), clock
}

func writeTestFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func uris(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.URI
	}
	return out
}

func requireSorted(t *testing.T, s *Store) {
	t.Helper()
	entries := s.Entries()
	for i := 1; i < len(entries); i++ {
		require.GreaterOrEqual(t, entries[i-1].Timestamp, entries[i].Timestamp,
			"entries %d and %d out of order", i-1, i)
	}
}

const twoItems = `<?xml version="1.0"?>
<RecentFiles>
  <RecentItem>
    <URI>file:///a</URI>
    <Mime-Type>text/plain</Mime-Type>
    <Timestamp>100</Timestamp>
  </RecentItem>
  <RecentItem>
    <URI>file:///b</URI>
    <Mime-Type>text/plain</Mime-Type>
    <Timestamp>200</Timestamp>
  </RecentItem>
</RecentFiles>
`

// Parse tests

func TestParse_SortsNewestFirst(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), twoItems)
	s := New()

	require.NoError(t, s.Parse(path))

	assert.Equal(t, []string{"file:///b", "file:///a"}, uris(s.Entries()))
	assert.Equal(t, []string{"file:///b", "file:///a"}, uris(s.GetFiles(Query{})))
	assert.Equal(t, path, s.Path())
}

func TestParse_DefaultPathFromHome(t *testing.T) {
	home := t.TempDir()
	writeTestFile(t, home, twoItems)
	s := New(WithHomeDir(func() (string, error) { return home, nil }))

	require.NoError(t, s.Parse(""))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, filepath.Join(home, ".recently-used"), s.Path())
}

func TestParse_NoPathAndNoHome(t *testing.T) {
	s := New()
	err := s.Parse("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParse_HomeResolverFails(t *testing.T) {
	s := New(WithHomeDir(func() (string, error) { return "", errors.New("no HOME") }))
	err := s.Parse("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParse_MissingFile(t *testing.T) {
	s := New()
	err := s.Parse(filepath.Join(t.TempDir(), "missing"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.NotErrorIs(t, err, ErrParse)

	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "parse", pathErr.Op)
}

func TestParse_Directory(t *testing.T) {
	s := New()
	err := s.Parse(t.TempDir())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParse_Malformed(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), `<RecentFiles><RecentItem><URI>file:///a</URI>`)
	s := New()

	err := s.Parse(path)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Path(), "failed parse does not record the path")
}

func TestParse_TrailingRootIsMalformed(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), twoItems+`<RecentFiles><RecentItem><URI>file:///c</URI></RecentItem></RecentFiles>`)
	s := New()

	err := s.Parse(path)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, 0, s.Len())
}

func TestParse_CollapsesDuplicateURIs(t *testing.T) {
	doc := `<RecentFiles>
  <RecentItem><URI>file:///a</URI><Mime-Type>old</Mime-Type><Timestamp>1</Timestamp></RecentItem>
  <RecentItem><URI>file:///a</URI><Mime-Type>new</Mime-Type><Timestamp>9</Timestamp></RecentItem>
  <RecentItem><URI>file:///b</URI><Timestamp>5</Timestamp></RecentItem>
</RecentFiles>`
	path := writeTestFile(t, t.TempDir(), doc)
	s := New()

	require.NoError(t, s.Parse(path))

	require.Equal(t, []string{"file:///a", "file:///b"}, uris(s.Entries()))
	e, ok := s.Lookup("file:///a")
	require.True(t, ok)
	assert.Equal(t, "new", e.MimeType)
}

func TestParse_StoresDoNotShareEntries(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), twoItems)
	s1 := New()
	s2 := New()

	require.NoError(t, s1.Parse(path))

	assert.Equal(t, 2, s1.Len())
	assert.Equal(t, 0, s2.Len())
}

// Write tests

func TestWrite_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, `<?xml version="1.0"?>
<RecentFiles>
  <RecentItem>
    <URI>file:///a</URI>
    <Mime-Type>text/plain</Mime-Type>
    <Timestamp>100</Timestamp>
    <Groups><Group>work</Group><Group>gedit</Group></Groups>
  </RecentItem>
  <RecentItem>
    <URI>file:///b</URI>
    <Mime-Type>image/png</Mime-Type>
    <Timestamp>200</Timestamp>
    <Private/>
  </RecentItem>
</RecentFiles>`)

	first := New()
	require.NoError(t, first.Parse(path))

	out := filepath.Join(dir, "copy")
	require.NoError(t, first.Write(out))

	second := New()
	require.NoError(t, second.Parse(out))

	a, b := first.Entries(), second.Entries()
	require.Len(t, b, len(a))
	for i := range a {
		assert.True(t, a[i].Equal(b[i]), "entry %d: want %+v, got %+v", i, a[i], b[i])
	}
}

func TestWrite_URIWithSpecialCharacters(t *testing.T) {
	dir := t.TempDir()
	s, _ := setupTestStore(t)
	uri := "file:///tmp/a&b<c>d.txt"
	s.AddFile(uri, "text/plain", nil, false)

	path := filepath.Join(dir, "recent")
	require.NoError(t, s.Write(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "file:///tmp/a&amp;b&lt;c&gt;d.txt")

	reread := New()
	require.NoError(t, reread.Parse(path))
	_, ok := reread.Lookup(uri)
	assert.True(t, ok)
}

func TestWrite_DefaultsToParsedPath(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), twoItems)
	s := New(WithClock(func() time.Time { return time.Unix(300, 0) }))
	require.NoError(t, s.Parse(path))

	s.AddFile("file:///c", "text/plain", []string{"new"}, false)
	require.NoError(t, s.Write(""))

	reread := New()
	require.NoError(t, reread.Parse(path))
	assert.Equal(t, []string{"file:///c", "file:///b", "file:///a"}, uris(reread.Entries()))
}

func TestWrite_ShrinksExistingFile(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), twoItems)
	s := New()
	require.NoError(t, s.Parse(path))

	s.DeleteFile("file:///a")
	s.DeleteFile("file:///b")
	require.NoError(t, s.Write(""))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<?xml version=\"1.0\"?>\n<RecentFiles>\n</RecentFiles>\n", string(raw))
}

func TestWrite_NoPath(t *testing.T) {
	s, _ := setupTestStore(t)
	s.AddFile("file:///a", "text/plain", nil, false)

	err := s.Write("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWrite_RecordsPath(t *testing.T) {
	s, _ := setupTestStore(t)
	path := filepath.Join(t.TempDir(), "recent")

	require.NoError(t, s.Write(path))
	assert.Equal(t, path, s.Path())
	require.NoError(t, s.Write(""))
}

func TestWrite_IOFailure(t *testing.T) {
	s, _ := setupTestStore(t)

	err := s.Write(t.TempDir())
	assert.ErrorIs(t, err, ErrIO)

	err = s.Write(filepath.Join(t.TempDir(), "no", "such", "dir", "recent"))
	assert.ErrorIs(t, err, ErrIO)
	assert.Empty(t, s.Path())
}

func TestWrite_FailFastLockUncontended(t *testing.T) {
	s := New(WithFailFastLock())
	s.AddFile("file:///a", "text/plain", nil, false)

	require.NoError(t, s.Write(filepath.Join(t.TempDir(), "recent")))
}

// GetFiles tests

func setupQueryStore(t *testing.T) *Store {
	t.Helper()
	s, _ := setupTestStore(t)
	// Added oldest first, so the store order is the reverse.
	s.AddFile("file:///1", "text/plain", []string{"work"}, false)
	s.AddFile("file:///2", "image/png", nil, true)
	s.AddFile("file:///3", "text/plain", []string{"home"}, false)
	s.AddFile("file:///4", "image/png", []string{"work", "home"}, true)
	s.AddFile("file:///5", "text/html", nil, false)
	return s
}

func TestGetFiles_DefaultHidesPrivate(t *testing.T) {
	s := setupQueryStore(t)

	files := s.GetFiles(Query{})
	assert.Equal(t, []string{"file:///5", "file:///3", "file:///1"}, uris(files))
}

func TestGetFiles_ByGroupIncludesPrivate(t *testing.T) {
	s := setupQueryStore(t)

	files := s.GetFiles(Query{Groups: []string{"work"}})
	assert.Equal(t, []string{"file:///4", "file:///1"}, uris(files))
}

func TestGetFiles_ByAnyGroupOnce(t *testing.T) {
	s := setupQueryStore(t)

	files := s.GetFiles(Query{Groups: []string{"work", "home"}})
	assert.Equal(t, []string{"file:///4", "file:///3", "file:///1"}, uris(files))
}

func TestGetFiles_ByMimeType(t *testing.T) {
	s := setupQueryStore(t)

	files := s.GetFiles(Query{MimeTypes: []string{"image/png", "text/html"}})
	assert.Equal(t, []string{"file:///5", "file:///4", "file:///2"}, uris(files))
}

func TestGetFiles_GroupsTakePrecedenceOverMimeTypes(t *testing.T) {
	s := setupQueryStore(t)

	files := s.GetFiles(Query{Groups: []string{"home"}, MimeTypes: []string{"text/html"}})
	assert.Equal(t, []string{"file:///4", "file:///3"}, uris(files))
}

func TestGetFiles_Limit(t *testing.T) {
	s, _ := setupTestStore(t)
	for i := 0; i < 5; i++ {
		s.AddFile(fmt.Sprintf("file:///%d", i), "text/plain", nil, false)
	}

	assert.Len(t, s.GetFiles(Query{Limit: 2}), 2)
	assert.Len(t, s.GetFiles(Query{Limit: 0}), 5)
	assert.Len(t, s.GetFiles(Query{Limit: 10}), 5)
}

func TestGetFiles_LimitCountsOnlyMatches(t *testing.T) {
	s := setupQueryStore(t)

	files := s.GetFiles(Query{Limit: 2})
	assert.Equal(t, []string{"file:///5", "file:///3"}, uris(files))
}

func TestGetFiles_ReturnsCopies(t *testing.T) {
	s := setupQueryStore(t)

	files := s.GetFiles(Query{Groups: []string{"work"}})
	require.NotEmpty(t, files)
	files[0].Groups[0] = "changed"
	files[0].URI = "file:///changed"

	e, ok := s.Lookup("file:///4")
	require.True(t, ok)
	assert.Equal(t, []string{"work", "home"}, e.Groups)
}

func TestGetFiles_Empty(t *testing.T) {
	s := New()
	assert.Empty(t, s.GetFiles(Query{}))
}

// AddFile tests

func TestAddFile_New(t *testing.T) {
	s, _ := setupTestStore(t)

	e := s.AddFile("file:///a", "text/plain", []string{"work"}, true)

	assert.Equal(t, "file:///a", e.URI)
	assert.Equal(t, "text/plain", e.MimeType)
	assert.Equal(t, int64(1001), e.Timestamp)
	assert.True(t, e.Private)
	assert.Equal(t, []string{"work"}, e.Groups)
	assert.Equal(t, 1, s.Len())
}

func TestAddFile_UpdatesExisting(t *testing.T) {
	s, _ := setupTestStore(t)

	s.AddFile("file:///a", "text/plain", []string{"one"}, true)
	s.AddFile("file:///b", "text/plain", nil, false)
	s.AddFile("file:///a", "text/html", []string{"two"}, false)

	require.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"file:///a", "file:///b"}, uris(s.Entries()))

	e, ok := s.Lookup("file:///a")
	require.True(t, ok)
	assert.True(t, e.Equal(Entry{URI: "file:///a", MimeType: "text/html", Timestamp: 1003, Groups: []string{"two"}}),
		"got %+v", e)
}

func TestAddFile_CopiesGroups(t *testing.T) {
	s, _ := setupTestStore(t)
	groups := []string{"work"}

	s.AddFile("file:///a", "text/plain", groups, false)
	groups[0] = "changed"

	e, _ := s.Lookup("file:///a")
	assert.Equal(t, []string{"work"}, e.Groups)
}

func TestAddFile_EvictsOldestWhenFull(t *testing.T) {
	s, _ := setupTestStore(t)
	for i := 0; i < MaxEntries; i++ {
		s.AddFile(fmt.Sprintf("file:///%d", i), "text/plain", nil, false)
	}
	require.Equal(t, MaxEntries, s.Len())

	s.AddFile("file:///new", "text/plain", nil, false)

	assert.Equal(t, MaxEntries, s.Len())
	_, ok := s.Lookup("file:///0")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = s.Lookup("file:///1")
	assert.True(t, ok, "only one entry should be evicted")
	assert.Equal(t, "file:///new", s.Entries()[0].URI)
}

func TestAddFile_UpdateWhenFullDoesNotEvict(t *testing.T) {
	s, _ := setupTestStore(t)
	for i := 0; i < MaxEntries; i++ {
		s.AddFile(fmt.Sprintf("file:///%d", i), "text/plain", nil, false)
	}

	s.AddFile("file:///0", "text/plain", nil, false)

	assert.Equal(t, MaxEntries, s.Len())
	assert.Equal(t, "file:///0", s.Entries()[0].URI)
	_, ok := s.Lookup("file:///1")
	assert.True(t, ok)
}

func TestAddFile_OverfullParsedStoreShrinks(t *testing.T) {
	s, _ := setupTestStore(t)
	// Simulate a document written by another program with more items.
	for i := 0; i < MaxEntries+3; i++ {
		s.entries = append(s.entries, Entry{URI: fmt.Sprintf("file:///%d", i), Timestamp: int64(MaxEntries + 3 - i)})
	}

	s.AddFile("file:///new", "text/plain", nil, false)

	assert.Equal(t, MaxEntries, s.Len())
	requireSorted(t, s)
}

func TestAddFile_KeepsOrderWithOutOfOrderClock(t *testing.T) {
	times := []int64{50, 10, 90, 30, 70, 20}
	i := 0
	s := New(WithClock(func() time.Time {
		ts := times[i%len(times)]
		i++
		return time.Unix(ts, 0)
	}))

	for n := 0; n < len(times); n++ {
		s.AddFile(fmt.Sprintf("file:///%d", n), "text/plain", nil, false)
		requireSorted(t, s)
	}
	s.DeleteFile("file:///2")
	requireSorted(t, s)
	s.AddFile("file:///0", "text/plain", nil, false)
	requireSorted(t, s)

	assert.Equal(t, []string{"file:///4", "file:///0", "file:///3", "file:///5", "file:///1"}, uris(s.Entries()))
}

func TestAddFile_StableOnEqualTimestamps(t *testing.T) {
	s := New(WithClock(func() time.Time { return time.Unix(42, 0) }))

	s.AddFile("file:///a", "text/plain", nil, false)
	s.AddFile("file:///b", "text/plain", nil, false)
	s.AddFile("file:///c", "text/plain", nil, false)

	assert.Equal(t, []string{"file:///a", "file:///b", "file:///c"}, uris(s.Entries()))
}

// DeleteFile tests

func TestDeleteFile(t *testing.T) {
	s := setupQueryStore(t)

	assert.True(t, s.DeleteFile("file:///3"))

	assert.Equal(t, 4, s.Len())
	_, ok := s.Lookup("file:///3")
	assert.False(t, ok)
	requireSorted(t, s)
}

func TestDeleteFile_Absent(t *testing.T) {
	s := setupQueryStore(t)
	before := s.Entries()

	assert.False(t, s.DeleteFile("file:///missing"))
	assert.False(t, s.DeleteFile("FILE:///1"))

	assert.Equal(t, before, s.Entries())
}

// Helper tests

func TestGroups(t *testing.T) {
	s := setupQueryStore(t)
	assert.Equal(t, []string{"work", "home"}, s.Groups())
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recent")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, path, s.Path())

	s.AddFile("file:///a", "text/plain", nil, false)
	require.NoError(t, s.Write(""))

	reread, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reread.Len())
}

func TestLoad_DefaultPath(t *testing.T) {
	home := t.TempDir()

	s, err := Load("", WithHomeDir(func() (string, error) { return home, nil }))
	require.NoError(t, err)
	assert.Equal(t, DefaultPath(home), s.Path())
}

func TestLoad_Malformed(t *testing.T) {
	path := writeTestFile(t, t.TempDir(), "<RecentFiles>")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrParse)
}

func TestPathError_Message(t *testing.T) {
	err := &PathError{Op: "write", Path: "/x", Kind: ErrIO, Err: errors.New("disk full")}
	assert.Equal(t, "write /x: recent files I/O error: disk full", err.Error())

	err = &PathError{Op: "write", Kind: ErrNotFound}
	assert.Equal(t, "write: recent files not found", err.Error())
}
