package classfile

import (
	"encoding/binary"
	"fmt"
	"strconv"
)

// Tag identifies the kind of a constant pool entry.
type Tag uint8

// Constant pool tags.
const (
	TagUTF8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

// String returns the JVMS name of the tag.
func (t Tag) String() string {
	switch t {
	case TagUTF8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldref:
		return "Fieldref"
	case TagMethodref:
		return "Methodref"
	case TagInterfaceMethodref:
		return "InterfaceMethodref"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagDynamic:
		return "Dynamic"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	case TagModule:
		return "Module"
	case TagPackage:
		return "Package"
	default:
		return "Tag(" + strconv.Itoa(int(t)) + ")"
	}
}

// size returns the fixed payload length, or -1 for unknown tags.
// UTF8 constants are variable length and report 0.
func (t Tag) size() int {
	switch t {
	case TagUTF8:
		return 0
	case TagClass, TagString, TagMethodType, TagModule, TagPackage:
		return 2
	case TagMethodHandle:
		return 3
	case TagInteger, TagFloat, TagFieldref, TagMethodref, TagInterfaceMethodref,
		TagNameAndType, TagDynamic, TagInvokeDynamic:
		return 4
	case TagLong, TagDouble:
		return 8
	default:
		return -1
	}
}

// wide reports whether the constant occupies two pool slots.
func (t Tag) wide() bool {
	return t == TagLong || t == TagDouble
}

// Constant is one constant pool entry. Data is the payload following the tag;
// for UTF8 constants it excludes the length prefix and holds the modified
// UTF-8 bytes.
type Constant struct {
	Tag  Tag
	Data []byte
}

// Ref returns the first two-byte index of a Class, String, MethodType, Module
// or Package constant, or of a member reference's class.
func (c Constant) Ref() uint16 {
	if len(c.Data) < 2 {
		return 0
	}
	return binary.BigEndian.Uint16(c.Data)
}

func (f *File) constant(i uint16, tag Tag) (Constant, error) {
	if int(i) <= 0 || int(i) >= len(f.Constants) {
		return Constant{}, fmt.Errorf("%w: constant index %d out of range", ErrFormat, i)
	}
	c := f.Constants[i]
	if c.Tag != tag {
		return Constant{}, fmt.Errorf("%w: constant %d is %s, want %s", ErrFormat, i, c.Tag, tag)
	}
	return c, nil
}

// UTF8 returns the string held by UTF8 constant i.
//
// Modified UTF-8 bytes are returned without conversion; names and descriptors
// made of ASCII and BMP characters read as ordinary Go strings.
func (f *File) UTF8(i uint16) (string, error) {
	c, err := f.constant(i, TagUTF8)
	if err != nil {
		return "", err
	}
	return string(c.Data), nil
}

// SetUTF8 replaces the string held by UTF8 constant i.
func (f *File) SetUTF8(i uint16, s string) error {
	if _, err := f.constant(i, TagUTF8); err != nil {
		return err
	}
	if len(s) > 0xFFFF {
		return fmt.Errorf("%w: UTF8 constant of %d bytes", ErrFormat, len(s))
	}
	f.Constants[i].Data = []byte(s)
	return nil
}

// AddUTF8 appends a UTF8 constant and returns its index.
func (f *File) AddUTF8(s string) (uint16, error) {
	if len(s) > 0xFFFF {
		return 0, fmt.Errorf("%w: UTF8 constant of %d bytes", ErrFormat, len(s))
	}
	if len(f.Constants) >= 0xFFFF {
		return 0, fmt.Errorf("%w: constant pool is full", ErrFormat)
	}
	f.Constants = append(f.Constants, Constant{Tag: TagUTF8, Data: []byte(s)})
	return uint16(len(f.Constants) - 1), nil
}

// ClassName returns the internal name of Class constant i, such as
// "java/lang/Object".
func (f *File) ClassName(i uint16) (string, error) {
	c, err := f.constant(i, TagClass)
	if err != nil {
		return "", err
	}
	return f.UTF8(c.Ref())
}

// Name returns the internal name of the class defined by the file.
func (f *File) Name() (string, error) {
	return f.ClassName(f.ThisClass)
}

// SuperName returns the internal name of the superclass, or "" for
// java/lang/Object and module-info.
func (f *File) SuperName() (string, error) {
	if f.SuperClass == 0 {
		return "", nil
	}
	return f.ClassName(f.SuperClass)
}
