package disk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef"

func TestEntryLayout(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, c.Dir())

	e, err := c.Entry(testKey, "lib.jar")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, testKey), e.Dir)
	assert.Equal(t, filepath.Join(dir, testKey, "lib.jar"), e.Artifact)
	assert.Equal(t, filepath.Join(dir, testKey, "lib.jar.lock"), e.Lock)
	assert.Equal(t, filepath.Join(dir, testKey, "lib.jar.receipt"), e.Receipt)

	// Nothing is created until the entry is prepared.
	_, err = os.Stat(e.Dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewEmptyDir(t *testing.T) {
	t.Parallel()

	_, err := New("")
	require.Error(t, err)
}

func TestEntryInvalid(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../x", "zz", "ab/cd"} {
		_, err := c.Entry(key, "lib.jar")
		assert.Error(t, err, "key %q", key)
	}
	for _, name := range []string{"", ".", "..", "a/b.jar", `a\b.jar`} {
		_, err := c.Entry(testKey, name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestEntryCompleteRequiresReceipt(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	require.NoError(t, err)
	e, err := c.Entry(testKey, "lib.jar")
	require.NoError(t, err)
	require.NoError(t, e.Prepare())

	require.NoError(t, os.WriteFile(e.Artifact, []byte("stale"), 0o600))
	assert.False(t, e.Complete(), "artifact without receipt must not be complete")

	require.NoError(t, e.CreateReceipt())
	assert.True(t, e.Complete())

	// Creating the receipt again is harmless.
	require.NoError(t, e.CreateReceipt())
	assert.True(t, e.Complete())
}

func TestEntryCompleteIgnoresDirectoryReceipt(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	require.NoError(t, err)
	e, err := c.Entry(testKey, "lib.jar")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(e.Receipt, 0o700))

	assert.False(t, e.Complete())
}

func TestWriteArtifactReplacesStale(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	require.NoError(t, err)
	e, err := c.Entry(testKey, "lib.jar")
	require.NoError(t, err)
	require.NoError(t, e.Prepare())
	require.NoError(t, os.WriteFile(e.Artifact, []byte("stale partial"), 0o600))

	err = e.WriteArtifact(func(f *os.File) error {
		_, err := f.WriteString("fresh")
		return err
	})
	require.NoError(t, err)

	got, err := os.ReadFile(e.Artifact)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(got))
	assertNoTempFiles(t, e.Dir)
}

func TestWriteArtifactFailureLeavesNothing(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	require.NoError(t, err)
	e, err := c.Entry(testKey, "lib.jar")
	require.NoError(t, err)
	require.NoError(t, e.Prepare())

	boom := errors.New("boom")
	err = e.WriteArtifact(func(f *os.File) error {
		_, _ = f.WriteString("partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = os.Stat(e.Artifact)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assertNoTempFiles(t, e.Dir)
}

func TestEntryAcquire(t *testing.T) {
	t.Parallel()

	c, err := New(t.TempDir())
	require.NoError(t, err)
	e, err := c.Entry(testKey, "lib.jar")
	require.NoError(t, err)
	require.NoError(t, e.Prepare())

	l, err := e.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, e.Lock, l.Path())
	require.NoError(t, l.Release())

	// The lock file stays behind for the next holder.
	_, err = os.Stat(e.Lock)
	assert.NoError(t, err)
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, ".artifact-*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
