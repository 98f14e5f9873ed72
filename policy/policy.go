// Package policy provides reusable instrumentation policies and a way to
// combine them.
//
// # Relocation
//
// Relocate moves classes from one package prefix to another, rewriting every
// reference in the constant pool:
//
//	p, err := policy.NewRelocate("com/google/common/", "shaded/guava/")
//
// # Composition
//
// Use Chain to apply several policies in order. The output path of each
// policy is the input path of the next, and rewriters run in the same order:
//
//	combined := policy.Chain(
//	    relocateGuava,
//	    relocateJackson,
//	)
package policy

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/meigma/classpath"
	"github.com/meigma/classpath/classfile"
)

var (
	_ classpath.Policy = Identity{}
	_ classpath.Policy = Relocate{}
	_ classpath.Policy = chain(nil)
)

// Identity leaves every class unchanged and in place.
type Identity struct{}

// HashConfiguration implements classpath.Policy.
func (Identity) HashConfiguration(w io.Writer) {
	_, _ = io.WriteString(w, "identity")
}

// Instrument implements classpath.Policy.
func (Identity) Instrument(e classpath.ClassEntry) (string, classpath.Rewriter, error) {
	return e.Name, nil, nil
}

// Chain returns a policy that applies policies in order.
//
// Nil policies are skipped. If no policies are provided, the returned policy
// behaves like Identity, though its configuration hash differs.
func Chain(policies ...classpath.Policy) classpath.Policy {
	c := make(chain, 0, len(policies))
	for _, p := range policies {
		if p != nil {
			c = append(c, p)
		}
	}
	return c
}

type chain []classpath.Policy

func (c chain) HashConfiguration(w io.Writer) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(c)))
	_, _ = io.WriteString(w, "chain\x00")
	_, _ = w.Write(n[:])
	for _, p := range c {
		p.HashConfiguration(w)
		_, _ = w.Write([]byte{0})
	}
}

func (c chain) Instrument(e classpath.ClassEntry) (string, classpath.Rewriter, error) {
	var rewriters []classpath.Rewriter
	for i, p := range c {
		path, rw, err := p.Instrument(e)
		if err != nil {
			return "", nil, fmt.Errorf("policy %d: %w", i+1, err)
		}
		e.Name = path
		if rw != nil {
			rewriters = append(rewriters, rw)
		}
	}
	switch len(rewriters) {
	case 0:
		return e.Name, nil, nil
	case 1:
		return e.Name, rewriters[0], nil
	}
	return e.Name, classpath.RewriterFunc(func(cf *classfile.File) error {
		for _, rw := range rewriters {
			if err := rw.Rewrite(cf); err != nil {
				return err
			}
		}
		return nil
	}), nil
}
