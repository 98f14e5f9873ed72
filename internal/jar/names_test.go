package jar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSignatureFile(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSignatureFile("META-INF/CERT.SF"))
	assert.True(t, IsSignatureFile("META-INF/sub/X.SF"))
	assert.False(t, IsSignatureFile("META-INF/CERT.RSA"))
	assert.False(t, IsSignatureFile("CERT.SF"))
	assert.False(t, IsSignatureFile("meta-inf/CERT.SF"))
}

func TestIsManifestName(t *testing.T) {
	t.Parallel()

	assert.True(t, IsManifestName("META-INF/MANIFEST.MF"))
	assert.True(t, IsManifestName("meta-inf/manifest.mf"))
	assert.False(t, IsManifestName("META-INF/versions/11/META-INF/MANIFEST.MF"))
}

func TestIsClassFile(t *testing.T) {
	t.Parallel()

	assert.True(t, IsClassFile("a/B.class"))
	assert.False(t, IsClassFile("a/B.class.txt"))
}

func TestVersionedMajorVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   int
		wantOK bool
	}{
		{name: "META-INF/versions/11/a/B.class", want: 11, wantOK: true},
		{name: "META-INF/versions/9/res.txt", want: 9, wantOK: true},
		{name: "META-INF/versions/11", wantOK: false},
		{name: "META-INF/versions//a.class", wantOK: false},
		{name: "META-INF/versions/x1/a.class", wantOK: false},
		{name: "a/META-INF/versions/11/B.class", wantOK: false},
		{name: "a/B.class", wantOK: false},
		{name: "META-INF/versions/99999999999999999999999/a.class", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := VersionedMajorVersion(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSplitVersioned(t *testing.T) {
	t.Parallel()

	prefix, rest := SplitVersioned("META-INF/versions/11/com/example/Foo.class")
	assert.Equal(t, "META-INF/versions/11/", prefix)
	assert.Equal(t, "com/example/Foo.class", rest)

	prefix, rest = SplitVersioned("com/example/Foo.class")
	assert.Empty(t, prefix)
	assert.Equal(t, "com/example/Foo.class", rest)
}
