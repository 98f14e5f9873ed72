package policy

import (
	"errors"
	"io"
	"strings"

	"github.com/meigma/classpath"
	"github.com/meigma/classpath/classfile"
	"github.com/meigma/classpath/internal/jar"
)

// Relocate moves classes under the package prefix From to To.
//
// Prefixes are internal names ending in a slash, such as "com/example/".
// From is replaced wherever an internal name starts with it in a UTF8
// constant: a whole class name, or an L-prefixed reference inside a
// descriptor or signature. Names that merely contain From, such as
// "org/acme/com/example/Base", are left alone. Output paths under From,
// including those in multi-release directories, move under To.
type Relocate struct {
	From string
	To   string
}

// NewRelocate returns a Relocate policy after validating the prefixes.
func NewRelocate(from, to string) (Relocate, error) {
	r := Relocate{From: from, To: to}
	if err := r.validate(); err != nil {
		return Relocate{}, err
	}
	return r, nil
}

func (r Relocate) validate() error {
	switch {
	case r.From == "" || r.To == "":
		return errors.New("policy: relocation prefixes must not be empty")
	case !strings.HasSuffix(r.From, "/") || !strings.HasSuffix(r.To, "/"):
		return errors.New("policy: relocation prefixes must end in a slash")
	case strings.HasPrefix(r.From, "/") || strings.HasPrefix(r.To, "/"):
		return errors.New("policy: relocation prefixes must be relative")
	case r.From == r.To:
		return errors.New("policy: relocation prefixes are identical")
	}
	return nil
}

// HashConfiguration implements classpath.Policy.
func (r Relocate) HashConfiguration(w io.Writer) {
	_, _ = io.WriteString(w, "relocate\x00"+r.From+"\x00"+r.To)
}

// Instrument implements classpath.Policy.
func (r Relocate) Instrument(e classpath.ClassEntry) (string, classpath.Rewriter, error) {
	if err := r.validate(); err != nil {
		return "", nil, err
	}
	return r.relocatePath(e.Name), classpath.RewriterFunc(r.rewrite), nil
}

func (r Relocate) relocatePath(name string) string {
	prefix, rest := jar.SplitVersioned(name)
	if after, ok := strings.CutPrefix(rest, r.From); ok {
		return prefix + r.To + after
	}
	return name
}

func (r Relocate) rewrite(cf *classfile.File) error {
	for i, c := range cf.Constants {
		if c.Tag != classfile.TagUTF8 {
			continue
		}
		s := string(c.Data)
		relocated, ok := r.relocateNames(s)
		if !ok {
			continue
		}
		if err := cf.SetUTF8(uint16(i), relocated); err != nil { //nolint:gosec // pool indexes fit in uint16
			return err
		}
	}
	return nil
}

// relocateNames replaces From at every internal name start in s. ok is false
// when nothing changed.
func (r Relocate) relocateNames(s string) (string, bool) {
	var b strings.Builder
	last := 0
	for i := 0; i+len(r.From) <= len(s); {
		j := strings.Index(s[i:], r.From)
		if j < 0 {
			break
		}
		at := i + j
		if nameStart(s, at) {
			b.WriteString(s[last:at])
			b.WriteString(r.To)
			last = at + len(r.From)
			i = last
			continue
		}
		i = at + 1
	}
	if last == 0 {
		return s, false
	}
	b.WriteString(s[last:])
	return b.String(), true
}

// nameStart reports whether an internal name begins at s[i]: either s is the
// name itself, or s[i-1] is the L of a reference type in a descriptor or
// signature.
func nameStart(s string, i int) bool {
	if i == 0 {
		return true
	}
	if s[i-1] != 'L' {
		return false
	}
	// The L itself must open a type: at the start, after an array or
	// parameter list marker, after a previous type, or after a signature
	// bound, wildcard or throws marker.
	return i == 1 || strings.IndexByte("[();<>:^+-", s[i-2]) >= 0
}
