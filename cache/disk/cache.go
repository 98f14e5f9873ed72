// Package disk implements the on-disk layout of the instrumented classpath
// cache.
//
// Each cache key owns one directory holding three files:
//
//	<root>/<key>/<name>          the instrumented artifact
//	<root>/<key>/<name>.lock     the cross-process lock file
//	<root>/<key>/<name>.receipt  an empty file marking the artifact complete
//
// The receipt is the only proof that the artifact is complete. An artifact
// without a receipt is unfinished and is overwritten by the next writer.
// Anything that removes cache entries must treat the three files as a unit.
package disk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/meigma/classpath/internal/flock"
)

const (
	defaultDirPerm = 0o700

	lockSuffix    = ".lock"
	receiptSuffix = ".receipt"
)

// Cache is a cache root directory.
// The cache is safe for concurrent use by goroutines and processes.
type Cache struct {
	dir     string
	dirPerm os.FileMode
}

// Option configures a disk cache.
type Option func(*Cache)

// WithDirPerm sets the directory permissions used for cache directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(c *Cache) {
		c.dirPerm = mode
	}
}

// New returns the cache rooted at dir. Directories are created lazily when an
// entry is prepared.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	c := &Cache{
		dir:     dir,
		dirPerm: defaultDirPerm,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// Entry returns the entry for artifact name under key. Nothing is created on
// disk until the entry is prepared.
func (c *Cache) Entry(key, name string) (*Entry, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid artifact name %q", name)
	}
	dir := filepath.Join(c.dir, key)
	artifact := filepath.Join(dir, name)
	return &Entry{
		Dir:      dir,
		Artifact: artifact,
		Lock:     artifact + lockSuffix,
		Receipt:  artifact + receiptSuffix,
		dirPerm:  c.dirPerm,
	}, nil
}

// Entry is the set of files caching one artifact.
type Entry struct {
	Dir      string
	Artifact string
	Lock     string
	Receipt  string

	dirPerm os.FileMode
}

// Complete reports whether the receipt exists. It takes no lock: the receipt
// is only ever created after the artifact is fully written.
func (e *Entry) Complete() bool {
	info, err := os.Stat(e.Receipt)
	return err == nil && info.Mode().IsRegular()
}

// Prepare creates the entry directory.
func (e *Entry) Prepare() error {
	return os.MkdirAll(e.Dir, e.dirPerm)
}

// Acquire takes the entry's exclusive cross-process lock. The directory must
// exist.
func (e *Entry) Acquire(ctx context.Context) (*flock.Lock, error) {
	return flock.Acquire(ctx, e.Lock)
}

// WriteArtifact runs write against a temporary file in the entry directory
// and renames it over the artifact once write returns nil. The artifact path
// never holds partial content.
func (e *Entry) WriteArtifact(write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(e.Dir, ".artifact-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, e.Artifact); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// CreateReceipt marks the artifact complete. An existing receipt is kept.
func (e *Entry) CreateReceipt() error {
	f, err := os.OpenFile(e.Receipt, os.O_WRONLY|os.O_CREATE, 0o600) //nolint:gosec // path is derived from the cache key
	if err != nil {
		return err
	}
	return f.Close()
}

// validateKey accepts a non-empty lowercase or uppercase hex string.
func validateKey(key string) error {
	if key == "" {
		return errors.New("cache key is empty")
	}
	for i := 0; i < len(key); i++ {
		ch := key[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return fmt.Errorf("invalid cache key %q", key)
		}
	}
	return nil
}
