package jar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zip"
)

// entryTime is stamped on every entry so identical input yields identical
// output.
var entryTime = time.Date(1980, time.February, 1, 0, 0, 0, 0, time.UTC)

// Builder writes entries into a zip archive backed by a file.
//
// Parent directory entries are added the first time a path below them is
// written. A Builder is not safe for concurrent use.
type Builder struct {
	f    *os.File
	zw   *zip.Writer
	dirs map[string]struct{}
}

// NewBuilder returns a Builder writing to f from its current offset.
// The caller keeps ownership of f.
func NewBuilder(f *os.File) *Builder {
	return &Builder{
		f:    f,
		zw:   zip.NewWriter(f),
		dirs: make(map[string]struct{}),
	}
}

// Put adds an entry with the given content and compression method.
func (b *Builder) Put(name string, content []byte, method uint16) error {
	if b.zw == nil {
		return errors.New("jar: builder is closed")
	}
	if err := b.putParents(name); err != nil {
		return err
	}
	w, err := b.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   method,
		Modified: entryTime,
	})
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

func (b *Builder) putParents(name string) error {
	for i := 0; i < len(name); i++ {
		if name[i] != '/' || i == 0 {
			continue
		}
		dir := name[:i+1]
		if _, ok := b.dirs[dir]; ok {
			continue
		}
		if _, err := b.zw.CreateHeader(&zip.FileHeader{
			Name:     dir,
			Method:   zip.Store,
			Modified: entryTime,
		}); err != nil {
			return fmt.Errorf("create directory entry %s: %w", dir, err)
		}
		b.dirs[dir] = struct{}{}
	}
	return nil
}

// Reset discards everything written so far. The archive produced by a
// subsequent Close holds only entries put after the reset.
func (b *Builder) Reset() error {
	b.zw = nil
	if err := b.f.Truncate(0); err != nil {
		return fmt.Errorf("truncate archive: %w", err)
	}
	if _, err := b.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind archive: %w", err)
	}
	b.zw = zip.NewWriter(b.f)
	clear(b.dirs)
	return nil
}

// Close writes the central directory. It does not close the underlying file.
func (b *Builder) Close() error {
	if b.zw == nil {
		return errors.New("jar: builder is closed")
	}
	err := b.zw.Close()
	b.zw = nil
	return err
}
