package jar

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// ErrMalformed is returned when an archive's container structure cannot be
// read: a missing, truncated or corrupt central directory, or a corrupt local
// file header. Corrupt entry data is not a container failure and is reported
// as is.
var ErrMalformed = errors.New("jar: malformed archive")

// Entry is one file of a classpath entry being walked.
type Entry struct {
	// Name is the slash-separated path of the entry.
	Name string

	// Method is the zip compression method. Entries read from class
	// directories report zip.Deflate.
	Method uint16

	open func() (io.ReadCloser, error)
}

// Content reads the entry. A corrupt local file header wraps ErrMalformed;
// corrupt data, such as a checksum mismatch, does not.
func (e *Entry) Content() ([]byte, error) {
	rc, err := e.open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	return data, nil
}

// WalkFunc is called for each entry. Returning fs.SkipAll stops the walk
// without error; any other error stops the walk and is returned.
type WalkFunc func(e *Entry) error

// WalkArchive calls fn for every non-directory entry of the zip archive at
// path, in central directory order.
func WalkArchive(path string, fn WalkFunc) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return classify(path, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		e := &Entry{
			Name:   f.Name,
			Method: f.Method,
			open: func() (io.ReadCloser, error) {
				rc, err := f.Open()
				if err != nil {
					return nil, classify(path, err)
				}
				return rc, nil
			},
		}
		if err := fn(e); err != nil {
			if errors.Is(err, fs.SkipAll) {
				return nil
			}
			return err
		}
	}
	return nil
}

// WalkDir calls fn for every regular file below dir, in lexical order.
// Symbolic links are followed when they resolve to a regular file inside
// dir; anything else that is not a regular file is skipped.
func WalkDir(dir string, fn WalkFunc) error {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return err
	}
	defer root.Close()

	err = fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			if d.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			info, statErr := root.Stat(filepath.FromSlash(path))
			if statErr != nil || !info.Mode().IsRegular() {
				return nil
			}
		}
		e := &Entry{
			Name:   path,
			Method: zip.Deflate,
			open: func() (io.ReadCloser, error) {
				return root.Open(filepath.FromSlash(path))
			},
		}
		return fn(e)
	})
	if errors.Is(err, fs.SkipAll) {
		return nil
	}
	return err
}

// classify marks container-level read failures as ErrMalformed.
func classify(path string, err error) error {
	if errors.Is(err, zip.ErrFormat) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}
	return err
}
