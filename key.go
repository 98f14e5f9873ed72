package classpath

import (
	"encoding/binary"
	"hash"

	digest "github.com/opencontainers/go-digest"

	"github.com/meigma/classpath/classfile"
)

// cacheFormat is bumped whenever the layout or content of cached artifacts
// changes.
const cacheFormat = 1

// configurationHash identifies everything about a Transformer that affects
// its output.
func configurationHash(p Policy) digest.Digest {
	d := digest.SHA256.Digester()
	h := d.Hash()
	putInt(h, cacheFormat)
	putInt(h, classfile.MaxSupportedJavaVersion)
	p.HashConfiguration(h)
	return d.Digest()
}

// cacheKey combines the configuration hash with a source's content hash.
func (t *Transformer) cacheKey(source digest.Digest) digest.Digest {
	d := digest.SHA256.Digester()
	h := d.Hash()
	h.Write([]byte(t.configHash))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return d.Digest()
}

func putInt(h hash.Hash, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	h.Write(b[:])
}
