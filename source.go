package classpath

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	digest "github.com/opencontainers/go-digest"
)

// Kind tells whether a source is an archive file or a class directory.
type Kind uint8

const (
	// KindUnknown asks Transform to stat the source.
	KindUnknown Kind = iota
	// KindFile is an archive file.
	KindFile
	// KindDirectory is a directory of class files and resources.
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Source is a classpath entry to transform.
type Source struct {
	// Path locates the archive or directory.
	Path string

	// Kind is the type of Path. KindUnknown is resolved with os.Stat.
	Kind Kind

	// Hash identifies the content of Path. It must change whenever the
	// content does; see the contenthash package for a default.
	Hash digest.Digest
}

func (s Source) resolve() (Kind, error) {
	if s.Path == "" {
		return KindUnknown, fmt.Errorf("%w: empty path", ErrInvalidSource)
	}
	if i := strings.IndexByte(string(s.Hash), ':'); i <= 0 || i == len(s.Hash)-1 {
		return KindUnknown, fmt.Errorf("%w: content hash %q of %s", ErrInvalidSource, s.Hash, s.Path)
	}
	if s.Kind != KindUnknown {
		return s.Kind, nil
	}
	info, err := os.Stat(s.Path)
	if err != nil {
		return KindUnknown, fmt.Errorf("%w: %w", ErrInvalidSource, err)
	}
	switch {
	case info.IsDir():
		return KindDirectory, nil
	case info.Mode().IsRegular():
		return KindFile, nil
	default:
		return KindUnknown, fmt.Errorf("%w: %s is a %s", ErrInvalidSource, s.Path, info.Mode().Type())
	}
}

// artifactName is the cache file name for a source: directories become JARs.
func artifactName(path string, kind Kind) string {
	base := filepath.Base(filepath.Clean(path))
	if kind == KindDirectory {
		return base + ".jar"
	}
	return base
}
