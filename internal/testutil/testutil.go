// Package testutil builds class files, JAR archives and class directories for
// tests.
package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// JarEntry is one entry of a test archive.
type JarEntry struct {
	Name    string
	Content []byte
	// Method is the zip compression method. Zero stores the entry.
	Method uint16
}

// ArchiveFile is one entry read back from an archive.
type ArchiveFile struct {
	Content []byte
	Method  uint16
}

// BuildJar returns the bytes of a zip archive holding entries in order.
func BuildJar(tb testing.TB, entries ...JarEntry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Name,
			Method:   e.Method,
			Modified: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(tb, err)
		_, err = w.Write(e.Content)
		require.NoError(tb, err)
	}
	require.NoError(tb, zw.Close())
	return buf.Bytes()
}

// WriteJar writes an archive holding entries to dir/name and returns its path.
func WriteJar(tb testing.TB, dir, name string, entries ...JarEntry) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	require.NoError(tb, os.WriteFile(path, BuildJar(tb, entries...), 0o600))
	return path
}

// WriteDir creates a class directory at dir/name holding files keyed by
// slash-separated relative path and returns its path.
func WriteDir(tb testing.TB, dir, name string, files map[string][]byte) string {
	tb.Helper()

	root := filepath.Join(dir, name)
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(tb, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(tb, os.WriteFile(path, content, 0o600))
	}
	require.NoError(tb, os.MkdirAll(root, 0o750))
	return root
}

// ReadJar returns the non-directory entries of the archive at path keyed by name.
func ReadJar(tb testing.TB, path string) map[string]ArchiveFile {
	tb.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(tb, err)
	defer r.Close()

	files := make(map[string]ArchiveFile, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		require.NoError(tb, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(tb, err)
		files[f.Name] = ArchiveFile{Content: content, Method: f.Method}
	}
	return files
}

// Manifest returns a manifest body with the given main attributes, in order,
// as name/value pairs.
func Manifest(attrs ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("Manifest-Version: 1.0\r\n")
	for i := 0; i+1 < len(attrs); i += 2 {
		buf.WriteString(attrs[i] + ": " + attrs[i+1] + "\r\n")
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}
