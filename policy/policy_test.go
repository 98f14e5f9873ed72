package policy

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/classpath"
	"github.com/meigma/classpath/classfile"
	"github.com/meigma/classpath/internal/testutil"
)

func configHash(p classpath.Policy) string {
	var buf bytes.Buffer
	p.HashConfiguration(&buf)
	return buf.String()
}

func parse(t *testing.T, name, super string) *classfile.File {
	t.Helper()
	cf, err := classfile.Parse(testutil.ClassFile(name, super, testutil.Java8Major))
	require.NoError(t, err)
	return cf
}

func TestIdentity(t *testing.T) {
	t.Parallel()

	path, rw, err := Identity{}.Instrument(classpath.ClassEntry{Name: "a/B.class"})
	require.NoError(t, err)
	assert.Equal(t, "a/B.class", path)
	assert.Nil(t, rw)
	assert.Equal(t, "identity", configHash(Identity{}))
}

func TestRelocate(t *testing.T) {
	t.Parallel()

	r, err := NewRelocate("com/example/", "shaded/example/")
	require.NoError(t, err)

	path, rw, err := r.Instrument(classpath.ClassEntry{Name: "com/example/Foo.class"})
	require.NoError(t, err)
	assert.Equal(t, "shaded/example/Foo.class", path)
	require.NotNil(t, rw)

	cf := parse(t, "com/example/Foo", "com/example/Base")
	require.NoError(t, rw.Rewrite(cf))

	out, err := cf.Bytes()
	require.NoError(t, err)
	again, err := classfile.Parse(out)
	require.NoError(t, err)

	name, err := again.Name()
	require.NoError(t, err)
	assert.Equal(t, "shaded/example/Foo", name)
	super, err := again.SuperName()
	require.NoError(t, err)
	assert.Equal(t, "shaded/example/Base", super)
}

func TestRelocateLeavesOtherPackages(t *testing.T) {
	t.Parallel()

	r := Relocate{From: "com/example/", To: "shaded/example/"}

	path, rw, err := r.Instrument(classpath.ClassEntry{Name: "org/other/Foo.class"})
	require.NoError(t, err)
	assert.Equal(t, "org/other/Foo.class", path)

	cf := parse(t, "org/other/Foo", "java/lang/Object")
	require.NoError(t, rw.Rewrite(cf))
	name, err := cf.Name()
	require.NoError(t, err)
	assert.Equal(t, "org/other/Foo", name)
	super, err := cf.SuperName()
	require.NoError(t, err)
	assert.Equal(t, "java/lang/Object", super)
}

func TestRelocateVersionedPath(t *testing.T) {
	t.Parallel()

	r := Relocate{From: "com/example/", To: "shaded/example/"}
	path, _, err := r.Instrument(classpath.ClassEntry{Name: "META-INF/versions/11/com/example/Foo.class"})
	require.NoError(t, err)
	assert.Equal(t, "META-INF/versions/11/shaded/example/Foo.class", path)
}

func TestRelocateOnlyAtNameBoundaries(t *testing.T) {
	t.Parallel()

	r, err := NewRelocate("com/example/", "shaded/")
	require.NoError(t, err)

	cf := parse(t, "com/example/Foo", "org/acme/com/example/Base")
	descriptors := map[string]string{
		"(Lcom/example/Foo;[Lcom/example/Bar;)Lorg/acme/com/example/Baz;": "(Lshaded/Foo;[Lshaded/Bar;)Lorg/acme/com/example/Baz;",
		"Ljava/util/List<Lcom/example/Foo;>;":                             "Ljava/util/List<Lshaded/Foo;>;",
		"<T:Lcom/example/Base;>(TT;)V^Lcom/example/Oops;":                 "<T:Lshaded/Base;>(TT;)V^Lshaded/Oops;",
		"Ljava/util/Map<+Lcom/example/K;-Lxcom/example/V;>;":              "Ljava/util/Map<+Lshaded/K;-Lxcom/example/V;>;",
		"[[Lcom/example/Foo;":                                             "[[Lshaded/Foo;",
		"Lorg/acme/Lcom/example/Foo;":                                     "Lorg/acme/Lcom/example/Foo;",
		"com/example/Foo$Inner":                                           "shaded/Foo$Inner",
	}
	indexes := make(map[string]uint16, len(descriptors))
	for in := range descriptors {
		i, err := cf.AddUTF8(in)
		require.NoError(t, err)
		indexes[in] = i
	}

	_, rw, err := r.Instrument(classpath.ClassEntry{Name: "com/example/Foo.class"})
	require.NoError(t, err)
	require.NoError(t, rw.Rewrite(cf))

	name, err := cf.Name()
	require.NoError(t, err)
	assert.Equal(t, "shaded/Foo", name)
	super, err := cf.SuperName()
	require.NoError(t, err)
	assert.Equal(t, "org/acme/com/example/Base", super)

	for in, want := range descriptors {
		got, err := cf.UTF8(indexes[in])
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
}

func TestRelocatePathIgnoresNestedPrefix(t *testing.T) {
	t.Parallel()

	r := Relocate{From: "com/example/", To: "shaded/"}
	path, _, err := r.Instrument(classpath.ClassEntry{Name: "org/acme/com/example/Base.class"})
	require.NoError(t, err)
	assert.Equal(t, "org/acme/com/example/Base.class", path)
}

func TestNewRelocateValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from, to string
	}{
		{name: "empty from", from: "", to: "a/"},
		{name: "empty to", from: "a/", to: ""},
		{name: "missing slash", from: "a", to: "b/"},
		{name: "absolute", from: "/a/", to: "b/"},
		{name: "identical", from: "a/", to: "a/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewRelocate(tt.from, tt.to)
			require.Error(t, err)

			_, _, err = Relocate{From: tt.from, To: tt.to}.Instrument(classpath.ClassEntry{Name: "a/B.class"})
			require.Error(t, err)
		})
	}
}

func TestRelocateHashDistinguishesPrefixes(t *testing.T) {
	t.Parallel()

	a := configHash(Relocate{From: "a/", To: "b/"})
	assert.Equal(t, a, configHash(Relocate{From: "a/", To: "b/"}))
	assert.NotEqual(t, a, configHash(Relocate{From: "a/", To: "c/"}))
	assert.NotEqual(t, a, configHash(Relocate{From: "a/b/", To: ""}))
}

func TestChain(t *testing.T) {
	t.Parallel()

	p := Chain(
		Relocate{From: "com/example/", To: "mid/example/"},
		nil,
		Relocate{From: "mid/example/", To: "shaded/example/"},
	)

	path, rw, err := p.Instrument(classpath.ClassEntry{Name: "com/example/Foo.class"})
	require.NoError(t, err)
	assert.Equal(t, "shaded/example/Foo.class", path)

	cf := parse(t, "com/example/Foo", "java/lang/Object")
	require.NoError(t, rw.Rewrite(cf))
	name, err := cf.Name()
	require.NoError(t, err)
	assert.Equal(t, "shaded/example/Foo", name)
}

func TestChainEmpty(t *testing.T) {
	t.Parallel()

	path, rw, err := Chain().Instrument(classpath.ClassEntry{Name: "a/B.class"})
	require.NoError(t, err)
	assert.Equal(t, "a/B.class", path)
	assert.Nil(t, rw)
	assert.NotEqual(t, configHash(Identity{}), configHash(Chain()))
}

func TestChainError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	failing := failingPolicy{err: boom}

	_, _, err := Chain(Identity{}, failing).Instrument(classpath.ClassEntry{Name: "a/B.class"})
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "policy 2")
}

func TestChainHashIsOrdered(t *testing.T) {
	t.Parallel()

	a := Relocate{From: "a/", To: "b/"}
	b := Relocate{From: "c/", To: "d/"}
	assert.NotEqual(t, configHash(Chain(a, b)), configHash(Chain(b, a)))
	assert.Equal(t, configHash(Chain(a, b)), configHash(Chain(a, nil, b)))
}

type failingPolicy struct {
	err error
}

func (failingPolicy) HashConfiguration(w io.Writer) {}

func (p failingPolicy) Instrument(classpath.ClassEntry) (string, classpath.Rewriter, error) {
	return "", nil, p.err
}
