// Package classpath instruments classpath entries and caches the results on
// disk.
//
// A classpath entry is either a JAR archive or a directory of class files.
// [Transformer.Transform] rewrites every class file of the entry with a
// [Policy], copies manifests and resources, and stores the resulting JAR in a
// cache directory keyed by the policy configuration and the entry's content
// identity. Repeated requests for the same key return the cached JAR without
// doing any work.
//
// # Quick Start
//
//	t, err := classpath.New(policy.Relocate{From: "org/lib/", To: "shaded/org/lib/"},
//	    classpath.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	hash, err := contenthash.Path("libs/lib.jar")
//	if err != nil {
//	    return err
//	}
//	jar, err := t.Transform(ctx, classpath.Source{Path: "libs/lib.jar", Hash: hash}, "/var/cache/classpath")
//
// # Caching and concurrency
//
// Each cache key owns a directory holding the artifact, a lock file and a
// receipt (see the [disk] package). The receipt is checked without locking;
// on a miss the caller takes an exclusive cross-process file lock, checks the
// receipt again, and only then transforms. Any number of goroutines and
// processes may share one cache root: each key is transformed at most once at
// a time, and an artifact is never returned before its receipt exists.
//
// # Archives that are not instrumented
//
// Signed archives are copied verbatim since rewriting them would invalidate
// their signatures. In multi-release archives, entries under
// META-INF/versions/N/ for N newer than [classfile.MaxSupportedJavaVersion] are
// dropped. Archives too malformed to read produce an empty JAR.
//
// [disk]: https://pkg.go.dev/github.com/meigma/classpath/cache/disk
package classpath
