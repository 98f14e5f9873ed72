package classpath

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/meigma/classpath/cache/disk"
	"github.com/meigma/classpath/classfile"
	"github.com/meigma/classpath/internal/jar"
)

// instrumentPlan rewrites class files and copies everything else into a new
// JAR. Entries are visited in no particular order.
type instrumentPlan struct {
	source       string
	kind         Kind
	multiRelease MultiRelease
	policy       Policy
	logger       *slog.Logger
}

func (p *instrumentPlan) String() string { return "instrument" }

func (p *instrumentPlan) run(entry *disk.Entry) error {
	return entry.WriteArtifact(func(f *os.File) error {
		b := jar.NewBuilder(f)
		err := p.visitEntries(b)
		if errors.Is(err, jar.ErrMalformed) {
			p.logger.Warn("malformed archive, discarding contents", "source", p.source, "error", err)
			if err := b.Reset(); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return b.Close()
	})
}

func (p *instrumentPlan) visitEntries(b *jar.Builder) error {
	visit := func(e *jar.Entry) error {
		if err := p.visitEntry(b, e); err != nil {
			return &EntryError{Entry: e.Name, Source: p.source, Err: err}
		}
		return nil
	}
	if p.kind == KindDirectory {
		return jar.WalkDir(p.source, visit)
	}
	return jar.WalkArchive(p.source, visit)
}

func (p *instrumentPlan) visitEntry(b *jar.Builder, e *jar.Entry) error {
	switch {
	case jar.IsClassFile(e.Name):
		return p.processClass(b, e)
	case jar.IsManifestName(e.Name):
		return copyEntry(b, e)
	default:
		return p.processResource(b, e)
	}
}

// processClass parses a class file, applies the policy and stores the result
// under the path the policy chose. Only the name marks an entry as a class
// file, so the content may turn out to be malformed.
func (p *instrumentPlan) processClass(b *jar.Builder, e *jar.Entry) error {
	if p.unsupportedVersioned(e.Name) {
		return nil
	}
	content, err := e.Content()
	if err != nil {
		return err
	}
	cf, err := classfile.Parse(content)
	if err != nil {
		return err
	}
	path, rw, err := p.policy.Instrument(ClassEntry{Name: e.Name, Method: e.Method})
	if err != nil {
		return err
	}
	if rw != nil {
		if err := rw.Rewrite(cf); err != nil {
			return fmt.Errorf("rewrite: %w", err)
		}
	}
	out, err := cf.Bytes()
	if err != nil {
		return err
	}
	return b.Put(path, out, e.Method)
}

func (p *instrumentPlan) processResource(b *jar.Builder, e *jar.Entry) error {
	if p.unsupportedVersioned(e.Name) {
		return nil
	}
	return copyEntry(b, e)
}

// unsupportedVersioned reports whether name lives in a multi-release
// directory for a Java version newer than the class file parser supports.
// Outside multi-release archives such paths are ordinary resources.
func (p *instrumentPlan) unsupportedVersioned(name string) bool {
	if p.multiRelease != MultiReleaseTrue {
		return false
	}
	version, ok := jar.VersionedMajorVersion(name)
	return ok && version > classfile.MaxSupportedJavaVersion
}

func copyEntry(b *jar.Builder, e *jar.Entry) error {
	content, err := e.Content()
	if err != nil {
		return err
	}
	return b.Put(e.Name, content, e.Method)
}
