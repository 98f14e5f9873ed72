// Package contenthash computes content identities for classpath entries.
//
// The digests are suitable as classpath.Source hashes: they change whenever
// the bytes of a file, or the set of files and their bytes below a directory,
// change. Modification times and permissions are ignored.
//
// Digests use BLAKE3 in keyed mode with separate keys for files and
// directories, so a file and a directory never share a digest:
//
//	blake3:<64 hex characters>
package contenthash

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	digest "github.com/opencontainers/go-digest"
	"github.com/zeebo/blake3"
)

// BLAKE3 is the algorithm name of digests produced by this package.
const BLAKE3 digest.Algorithm = "blake3"

// Domain keys are the ASCII domain name zero-padded to 32 bytes. Changing one
// invalidates every digest in its domain.
var (
	fileKey = [32]byte{
		'c', 'l', 'a', 's', 's', 'p', 'a', 't', 'h', '.', 'f', 'i', 'l', 'e',
	}
	dirKey = [32]byte{
		'c', 'l', 'a', 's', 's', 'p', 'a', 't', 'h', '.', 'd', 'i', 'r',
	}
)

// Path hashes the file or directory at path.
func Path(path string) (digest.Digest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	switch {
	case info.IsDir():
		return Dir(path)
	case info.Mode().IsRegular():
		return File(path)
	default:
		return "", fmt.Errorf("contenthash: %s is a %s", path, info.Mode().Type())
	}
}

// File hashes the content of the regular file at path.
func File(path string) (digest.Digest, error) {
	h := newHasher(fileKey)
	if err := copyFile(h, path); err != nil {
		return "", err
	}
	return format(h), nil
}

// Dir hashes every regular file below dir, in lexical order of their
// slash-separated relative paths. Empty directories do not contribute.
// Symbolic links are followed.
func Dir(dir string) (digest.Digest, error) {
	h := newHasher(dirKey)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		writeField(h, []byte(filepath.ToSlash(rel)))
		fileHash := newHasher(fileKey)
		if err := copyFile(fileHash, path); err != nil {
			return err
		}
		writeField(h, fileHash.Sum(nil))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("contenthash: walk %s: %w", dir, err)
	}
	return format(h), nil
}

func newHasher(key [32]byte) *blake3.Hasher {
	h, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("contenthash: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return h
}

// writeField writes a length-prefixed field so adjacent fields cannot run
// into each other.
func writeField(h *blake3.Hasher, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(b)
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

func format(h *blake3.Hasher) digest.Digest {
	return digest.NewDigestFromEncoded(BLAKE3, hex.EncodeToString(h.Sum(nil)))
}
