package classpath

import (
	"io"

	"github.com/meigma/classpath/classfile"
)

// Policy decides how class files are instrumented.
//
// A Policy must be immutable while a Transformer uses it: its configuration
// hash is computed once, and cached artifacts are only valid for that
// configuration.
type Policy interface {
	// HashConfiguration writes everything that affects the policy's output.
	// It must be a pure function of the policy's configuration.
	HashConfiguration(w io.Writer)

	// Instrument returns the path to store the rewritten class under and the
	// rewriter to apply. A nil Rewriter leaves the class unchanged.
	Instrument(entry ClassEntry) (path string, rw Rewriter, err error)
}

// ClassEntry describes the class file being instrumented.
type ClassEntry struct {
	// Name is the slash-separated entry path, such as "com/example/Foo.class".
	Name string
	// Method is the entry's zip compression method.
	Method uint16
}

// Rewriter rewrites a parsed class file in place.
type Rewriter interface {
	Rewrite(cf *classfile.File) error
}

// RewriterFunc adapts a function to Rewriter.
type RewriterFunc func(cf *classfile.File) error

// Rewrite calls f(cf).
func (f RewriterFunc) Rewrite(cf *classfile.File) error {
	return f(cf)
}
