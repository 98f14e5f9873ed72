// Package classfile parses and serializes JVM class files.
//
// The parsed form keeps every structure that is not interpreted verbatim:
// attribute bodies and non-UTF8 constants are held as raw bytes, and constant
// pool indices are never renumbered. Parsing a class file and serializing it
// again without modification yields the original bytes.
//
// Rewriters operate on the parsed [File], typically by editing UTF8 constants
// with [File.SetUTF8] or appending new ones with [File.AddUTF8].
package classfile
