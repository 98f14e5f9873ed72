// Package jar implements the JAR conventions needed to instrument classpath
// entries: entry classification, manifest attributes, walking archives and
// class directories, and building output archives.
package jar

import (
	"strconv"
	"strings"
)

// ManifestName is the path of the manifest inside a JAR.
const ManifestName = "META-INF/MANIFEST.MF"

const (
	metaInfDir      = "META-INF/"
	versionsDir     = "META-INF/versions/"
	signatureSuffix = ".SF"
	classSuffix     = ".class"
)

// IsManifestName reports whether name is the JAR manifest. The comparison
// ignores case, as the JDK does.
func IsManifestName(name string) bool {
	return strings.EqualFold(name, ManifestName)
}

// IsSignatureFile reports whether name is a JAR signature file.
func IsSignatureFile(name string) bool {
	return strings.HasPrefix(name, metaInfDir) && strings.HasSuffix(name, signatureSuffix)
}

// IsClassFile reports whether name designates a class file. The check is by
// name only; the content may still be malformed.
func IsClassFile(name string) bool {
	return strings.HasSuffix(name, classSuffix)
}

// VersionedMajorVersion returns the Java version of the multi-release
// directory holding name, as in META-INF/versions/11/a/B.class. ok is false
// when name is not inside a versioned directory, including when the version
// is too large to represent.
func VersionedMajorVersion(name string) (version int, ok bool) {
	rest, found := strings.CutPrefix(name, versionsDir)
	if !found {
		return 0, false
	}
	digits, _, found := strings.Cut(rest, "/")
	if !found || digits == "" {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return v, true
}

// SplitVersioned splits name into its multi-release directory, such as
// "META-INF/versions/11/", and the path below it. prefix is empty when name is
// not inside a versioned directory.
func SplitVersioned(name string) (prefix, rest string) {
	if _, ok := VersionedMajorVersion(name); !ok {
		return "", name
	}
	i := len(versionsDir) + strings.IndexByte(name[len(versionsDir):], '/') + 1
	return name[:i], name[i:]
}
