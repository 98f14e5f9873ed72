package jar

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/classpath/internal/testutil"
)

func TestWalkArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := testutil.WriteJar(t, dir, "a.jar",
		testutil.JarEntry{Name: "a/"},
		testutil.JarEntry{Name: "a/B.class", Content: []byte("class"), Method: zip.Deflate},
		testutil.JarEntry{Name: "res.txt", Content: []byte("res"), Method: zip.Store},
	)

	var names []string
	got := map[string][]byte{}
	methods := map[string]uint16{}
	err := WalkArchive(path, func(e *Entry) error {
		names = append(names, e.Name)
		content, err := e.Content()
		if err != nil {
			return err
		}
		got[e.Name] = content
		methods[e.Name] = e.Method
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a/B.class", "res.txt"}, names)
	assert.Equal(t, []byte("class"), got["a/B.class"])
	assert.Equal(t, zip.Deflate, methods["a/B.class"])
	assert.Equal(t, zip.Store, methods["res.txt"])
}

func TestWalkArchiveSkipAll(t *testing.T) {
	t.Parallel()

	path := testutil.WriteJar(t, t.TempDir(), "a.jar",
		testutil.JarEntry{Name: "one"},
		testutil.JarEntry{Name: "two"},
	)

	visited := 0
	err := WalkArchive(path, func(*Entry) error {
		visited++
		return fs.SkipAll
	})
	require.NoError(t, err)
	assert.Equal(t, 1, visited)
}

func TestWalkArchiveMalformed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := testutil.BuildJar(t, testutil.JarEntry{Name: "a.txt", Content: []byte("content")})

	truncated := filepath.Join(dir, "truncated.jar")
	require.NoError(t, os.WriteFile(truncated, raw[:len(raw)/2], 0o600))
	err := WalkArchive(truncated, func(*Entry) error { return nil })
	require.ErrorIs(t, err, ErrMalformed)

	notZip := filepath.Join(dir, "text.jar")
	require.NoError(t, os.WriteFile(notZip, []byte("plain text"), 0o600))
	err = WalkArchive(notZip, func(*Entry) error { return nil })
	require.ErrorIs(t, err, ErrMalformed)
}

func TestWalkArchiveCorruptEntryData(t *testing.T) {
	t.Parallel()

	content := []byte("stored content that will be corrupted")
	raw := testutil.BuildJar(t, testutil.JarEntry{Name: "a.txt", Content: content, Method: zip.Store})

	// Flip a byte of the stored data so the CRC check fails.
	idx := bytes.Index(raw, content)
	require.GreaterOrEqual(t, idx, 0)
	raw[idx] ^= 0xFF

	path := filepath.Join(t.TempDir(), "corrupt.jar")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	err := WalkArchive(path, func(e *Entry) error {
		_, err := e.Content()
		return err
	})
	require.ErrorIs(t, err, zip.ErrChecksum)
	assert.NotErrorIs(t, err, ErrMalformed, "bad entry data is not a container failure")
	assert.Contains(t, err.Error(), "a.txt")
}

func TestWalkArchiveCorruptLocalHeader(t *testing.T) {
	t.Parallel()

	raw := testutil.BuildJar(t, testutil.JarEntry{Name: "a.txt", Content: []byte("content"), Method: zip.Store})
	require.Equal(t, []byte("PK\x03\x04"), raw[:4])
	raw[0] = 'X'

	path := filepath.Join(t.TempDir(), "header.jar")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	err := WalkArchive(path, func(e *Entry) error {
		_, err := e.Content()
		return err
	})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestWalkArchiveMissing(t *testing.T) {
	t.Parallel()

	err := WalkArchive(filepath.Join(t.TempDir(), "missing.jar"), func(*Entry) error { return nil })
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestWalkDir(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteDir(t, t.TempDir(), "classes", map[string][]byte{
		"a/B.class":            []byte("class"),
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"res.txt":              []byte("res"),
	})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o750))

	got := map[string][]byte{}
	err := WalkDir(dir, func(e *Entry) error {
		assert.Equal(t, zip.Deflate, e.Method)
		content, err := e.Content()
		if err != nil {
			return err
		}
		got[e.Name] = content
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string][]byte{
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"a/B.class":            []byte("class"),
		"res.txt":              []byte("res"),
	}, got)
}

func TestWalkDirSymlinks(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteDir(t, t.TempDir(), "classes", map[string][]byte{
		"real.txt": []byte("real"),
	})
	if err := os.Symlink("real.txt", filepath.Join(dir, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	outside := filepath.Join(t.TempDir(), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("outside"), 0o600))
	require.NoError(t, os.Symlink(outside, filepath.Join(dir, "escape.txt")))

	got := map[string][]byte{}
	err := WalkDir(dir, func(e *Entry) error {
		content, err := e.Content()
		if err != nil {
			return err
		}
		got[e.Name] = content
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, map[string][]byte{
		"link.txt": []byte("real"),
		"real.txt": []byte("real"),
	}, got)
}
