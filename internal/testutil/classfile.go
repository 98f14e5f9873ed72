package testutil

import "encoding/binary"

// Java8Major is the class file major version of Java 8.
const Java8Major = 52

// ClassFile returns a minimal well-formed class file defining name with the
// given superclass. The class holds one static final long field with a
// ConstantValue attribute, so the constant pool includes a two-slot entry.
func ClassFile(name, super string, major uint16) []byte {
	var b []byte
	u1 := func(v uint8) { b = append(b, v) }
	u2 := func(v uint16) { b = binary.BigEndian.AppendUint16(b, v) }
	u4 := func(v uint32) { b = binary.BigEndian.AppendUint32(b, v) }
	utf8 := func(s string) {
		u1(1)
		u2(uint16(len(s)))
		b = append(b, s...)
	}

	u4(0xCAFEBABE)
	u2(0)
	u2(major)

	u2(10)
	utf8(name) // 1
	u1(7)      // 2 Class
	u2(1)
	utf8(super) // 3
	u1(7)       // 4 Class
	u2(3)
	u1(5) // 5 Long, occupies 5 and 6
	b = binary.BigEndian.AppendUint64(b, 42)
	utf8("VALUE")         // 7
	utf8("J")             // 8
	utf8("ConstantValue") // 9

	u2(0x0021) // public super
	u2(2)
	u2(4)
	u2(0) // interfaces

	u2(1) // fields
	u2(0x0019)
	u2(7)
	u2(8)
	u2(1)
	u2(9)
	u4(2)
	u2(5)

	u2(0) // methods
	u2(0) // attributes
	return b
}
