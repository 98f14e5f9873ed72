package classpath

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/meigma/classpath/internal/jar"
)

// MultiRelease records whether an archive is a multi-release JAR. It is
// undetermined until a manifest has been read.
type MultiRelease uint8

const (
	MultiReleaseUndetermined MultiRelease = iota
	MultiReleaseTrue
	MultiReleaseFalse
)

func (m MultiRelease) String() string {
	switch m {
	case MultiReleaseTrue:
		return "true"
	case MultiReleaseFalse:
		return "false"
	default:
		return "undetermined"
	}
}

func multiReleaseOf(b bool) MultiRelease {
	if b {
		return MultiReleaseTrue
	}
	return MultiReleaseFalse
}

// inspection is the outcome of pre-scanning an archive.
type inspection struct {
	signed       bool
	multiRelease MultiRelease
}

// inspectArchive scans the entry names of the archive at path, reading only
// the first manifest. A malformed archive is not an error here; the
// instrumenting pass deals with it.
func inspectArchive(path string) (inspection, error) {
	var res inspection
	err := jar.WalkArchive(path, func(e *jar.Entry) error {
		if jar.IsSignatureFile(e.Name) {
			res.signed = true
			return fs.SkipAll
		}
		if res.multiRelease == MultiReleaseUndetermined && jar.IsManifestName(e.Name) {
			content, err := e.Content()
			if err != nil {
				return err
			}
			res.multiRelease = multiReleaseOf(jar.ParseManifest(content).IsMultiRelease())
		}
		return nil
	})
	switch {
	case errors.Is(err, jar.ErrMalformed):
		return res, nil
	case err != nil:
		return inspection{}, fmt.Errorf("inspect %s: %w", path, err)
	default:
		return res, nil
	}
}
