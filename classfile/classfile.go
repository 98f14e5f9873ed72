package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Magic is the leading four bytes of every class file.
const Magic uint32 = 0xCAFEBABE

const (
	// MaxSupportedJavaVersion is the newest Java release whose class files can be
	// parsed and rewritten.
	MaxSupportedJavaVersion = 24

	// MaxSupportedMajor is the class file major version of MaxSupportedJavaVersion.
	MaxSupportedMajor = MaxSupportedJavaVersion + majorVersionOffset

	// Java 1.0 and 1.1 both use major version 45; Java N uses N+44 from then on.
	majorVersionOffset = 44
)

var (
	// ErrFormat is returned when the input is not a well-formed class file.
	ErrFormat = errors.New("classfile: malformed class file")

	// ErrUnsupportedVersion is returned when the class file major version is
	// newer than MaxSupportedMajor.
	ErrUnsupportedVersion = errors.New("classfile: unsupported class file version")
)

// JavaVersion returns the Java release that introduced the given major version.
func JavaVersion(major uint16) int {
	if int(major) <= majorVersionOffset+1 {
		return 1
	}
	return int(major) - majorVersionOffset
}

// File is a parsed class file.
type File struct {
	Minor uint16
	Major uint16

	// Constants is indexed by constant pool index. Index 0 and the slot
	// following a long or double constant hold a zero Constant.
	Constants []Constant

	AccessFlags uint16
	ThisClass   uint16
	SuperClass  uint16
	Interfaces  []uint16
	Fields      []Member
	Methods     []Member
	Attributes  []Attribute
}

// Member is a field or method.
type Member struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// Attribute is an attribute with an uninterpreted body.
type Attribute struct {
	NameIndex uint16
	Info      []byte
}

// Parse decodes a class file. The returned File does not alias b.
func Parse(b []byte) (*File, error) {
	d := &decoder{b: b}
	if d.u4() != Magic {
		return nil, fmt.Errorf("%w: bad magic", ErrFormat)
	}
	f := &File{}
	f.Minor = d.u2()
	f.Major = d.u2()
	if d.err != nil {
		return nil, d.err
	}
	if f.Major > MaxSupportedMajor {
		return nil, fmt.Errorf("%w: major version %d (Java %d), newest supported is Java %d",
			ErrUnsupportedVersion, f.Major, JavaVersion(f.Major), MaxSupportedJavaVersion)
	}

	if err := f.readConstants(d); err != nil {
		return nil, err
	}

	f.AccessFlags = d.u2()
	f.ThisClass = d.u2()
	f.SuperClass = d.u2()
	n := int(d.u2())
	f.Interfaces = make([]uint16, 0, n)
	for range n {
		f.Interfaces = append(f.Interfaces, d.u2())
	}
	f.Fields = readMembers(d)
	f.Methods = readMembers(d)
	f.Attributes = readAttributes(d)
	if d.err != nil {
		return nil, d.err
	}
	if d.off != len(d.b) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrFormat, len(d.b)-d.off)
	}
	return f, nil
}

func (f *File) readConstants(d *decoder) error {
	count := int(d.u2())
	if d.err != nil {
		return d.err
	}
	if count == 0 {
		return fmt.Errorf("%w: empty constant pool", ErrFormat)
	}
	f.Constants = make([]Constant, count)
	for i := 1; i < count; i++ {
		tag := Tag(d.u1())
		var size int
		switch tag {
		case TagUTF8:
			size = int(d.u2())
		default:
			size = tag.size()
		}
		if d.err != nil {
			return d.err
		}
		if size < 0 {
			return fmt.Errorf("%w: unknown constant tag %d at index %d", ErrFormat, tag, i)
		}
		f.Constants[i] = Constant{Tag: tag, Data: d.bytes(size)}
		if tag.wide() {
			// The following slot is unusable.
			i++
			if i >= count {
				return fmt.Errorf("%w: %s constant overruns the pool", ErrFormat, tag)
			}
		}
	}
	return d.err
}

func readMembers(d *decoder) []Member {
	n := int(d.u2())
	if d.err != nil {
		return nil
	}
	members := make([]Member, 0, n)
	for range n {
		m := Member{
			AccessFlags:     d.u2(),
			NameIndex:       d.u2(),
			DescriptorIndex: d.u2(),
		}
		m.Attributes = readAttributes(d)
		if d.err != nil {
			return nil
		}
		members = append(members, m)
	}
	return members
}

func readAttributes(d *decoder) []Attribute {
	n := int(d.u2())
	if d.err != nil {
		return nil
	}
	attrs := make([]Attribute, 0, n)
	for range n {
		name := d.u2()
		length := d.u4()
		if d.err != nil {
			return nil
		}
		if uint64(length) > uint64(len(d.b)-d.off) {
			d.fail()
			return nil
		}
		attrs = append(attrs, Attribute{NameIndex: name, Info: d.bytes(int(length))})
	}
	return attrs
}

// Bytes serializes the class file.
func (f *File) Bytes() ([]byte, error) {
	if len(f.Constants) == 0 || len(f.Constants) > 0xFFFF {
		return nil, fmt.Errorf("%w: constant pool size %d", ErrFormat, len(f.Constants))
	}
	out := make([]byte, 0, f.sizeHint())
	out = binary.BigEndian.AppendUint32(out, Magic)
	out = binary.BigEndian.AppendUint16(out, f.Minor)
	out = binary.BigEndian.AppendUint16(out, f.Major)
	out = binary.BigEndian.AppendUint16(out, uint16(len(f.Constants)))
	for i := 1; i < len(f.Constants); i++ {
		c := f.Constants[i]
		if c.Tag == 0 {
			continue
		}
		out = append(out, byte(c.Tag))
		if c.Tag == TagUTF8 {
			if len(c.Data) > 0xFFFF {
				return nil, fmt.Errorf("%w: UTF8 constant %d is %d bytes", ErrFormat, i, len(c.Data))
			}
			out = binary.BigEndian.AppendUint16(out, uint16(len(c.Data)))
		} else if len(c.Data) != c.Tag.size() {
			return nil, fmt.Errorf("%w: %s constant %d has %d bytes, want %d", ErrFormat, c.Tag, i, len(c.Data), c.Tag.size())
		}
		out = append(out, c.Data...)
	}
	out = binary.BigEndian.AppendUint16(out, f.AccessFlags)
	out = binary.BigEndian.AppendUint16(out, f.ThisClass)
	out = binary.BigEndian.AppendUint16(out, f.SuperClass)
	if err := checkCount("interface", len(f.Interfaces)); err != nil {
		return nil, err
	}
	out = binary.BigEndian.AppendUint16(out, uint16(len(f.Interfaces)))
	for _, iface := range f.Interfaces {
		out = binary.BigEndian.AppendUint16(out, iface)
	}
	var err error
	if out, err = appendMembers(out, "field", f.Fields); err != nil {
		return nil, err
	}
	if out, err = appendMembers(out, "method", f.Methods); err != nil {
		return nil, err
	}
	if out, err = appendAttributes(out, f.Attributes); err != nil {
		return nil, err
	}
	return out, nil
}

func (f *File) sizeHint() int {
	n := 32
	for _, c := range f.Constants {
		n += 3 + len(c.Data)
	}
	for _, m := range f.Methods {
		for _, a := range m.Attributes {
			n += 6 + len(a.Info)
		}
	}
	return n
}

// checkCount rejects tables too long for their u2 length prefix.
func checkCount(what string, n int) error {
	if n > 0xFFFF {
		return fmt.Errorf("%w: %d %s entries", ErrFormat, n, what)
	}
	return nil
}

func appendMembers(out []byte, what string, members []Member) ([]byte, error) {
	if err := checkCount(what, len(members)); err != nil {
		return nil, err
	}
	out = binary.BigEndian.AppendUint16(out, uint16(len(members)))
	for _, m := range members {
		out = binary.BigEndian.AppendUint16(out, m.AccessFlags)
		out = binary.BigEndian.AppendUint16(out, m.NameIndex)
		out = binary.BigEndian.AppendUint16(out, m.DescriptorIndex)
		var err error
		if out, err = appendAttributes(out, m.Attributes); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func appendAttributes(out []byte, attrs []Attribute) ([]byte, error) {
	if err := checkCount("attribute", len(attrs)); err != nil {
		return nil, err
	}
	out = binary.BigEndian.AppendUint16(out, uint16(len(attrs)))
	for _, a := range attrs {
		if uint64(len(a.Info)) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: attribute of %d bytes", ErrFormat, len(a.Info))
		}
		out = binary.BigEndian.AppendUint16(out, a.NameIndex)
		out = binary.BigEndian.AppendUint32(out, uint32(len(a.Info)))
		out = append(out, a.Info...)
	}
	return out, nil
}

// decoder reads big-endian values and latches the first error.
type decoder struct {
	b   []byte
	off int
	err error
}

func (d *decoder) fail() {
	if d.err == nil {
		d.err = fmt.Errorf("%w: truncated at offset %d", ErrFormat, d.off)
	}
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if n > len(d.b)-d.off {
		d.fail()
		return false
	}
	return true
}

func (d *decoder) u1() uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.b[d.off]
	d.off++
	return v
}

func (d *decoder) u2() uint16 {
	if !d.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(d.b[d.off:])
	d.off += 2
	return v
}

func (d *decoder) u4() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(d.b[d.off:])
	d.off += 4
	return v
}

func (d *decoder) bytes(n int) []byte {
	if !d.need(n) {
		return nil
	}
	v := make([]byte, n)
	copy(v, d.b[d.off:d.off+n])
	d.off += n
	return v
}
