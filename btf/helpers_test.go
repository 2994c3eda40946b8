package btf

import (
	"bytes"
	"encoding/binary"
)

// rawType is a minimal wire-level type record used only by tests to
// assemble byte-exact BTF blobs without going through the production
// decoder. It intentionally mirrors the on-wire layout of the type section
// rather than reusing any decoder-side struct, so a bug in decodeTail
// can't also hide itself from these tests.
type rawType struct {
	nameOff  uint32
	kind     Kind
	kindFlag bool
	vlen     int
	szOrType uint32
	tail     []byte
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func i32le(v int32) []byte { return u32le(uint32(v)) }

// btfBuilder assembles a little-endian BTF blob for tests: a string table
// (built from a fixed set of names, offset 0 reserved for the empty
// string) and a sequence of raw type records.
type btfBuilder struct {
	strs    bytes.Buffer
	offsets map[string]uint32
	types   []rawType
}

func newBTFBuilder() *btfBuilder {
	b := &btfBuilder{offsets: map[string]uint32{}}
	b.strs.WriteByte(0)
	return b
}

func (b *btfBuilder) name(s string) uint32 {
	if s == "" {
		return 0
	}
	if off, ok := b.offsets[s]; ok {
		return off
	}
	off := uint32(b.strs.Len())
	b.strs.WriteString(s)
	b.strs.WriteByte(0)
	b.offsets[s] = off
	return off
}

func (b *btfBuilder) add(t rawType) TypeID {
	b.types = append(b.types, t)
	return TypeID(len(b.types))
}

func packInfo(kind Kind, kindFlag bool, vlen int) uint32 {
	info := uint32(vlen) & 0xffff
	info |= uint32(kind) << btfTypeKindShift
	if kindFlag {
		info |= 1 << btfTypeKindFlagShift
	}
	return info
}

func (b *btfBuilder) bytes() []byte {
	var typeSection bytes.Buffer
	for _, t := range b.types {
		typeSection.Write(u32le(t.nameOff))
		typeSection.Write(u32le(packInfo(t.kind, t.kindFlag, t.vlen)))
		typeSection.Write(u32le(t.szOrType))
		typeSection.Write(t.tail)
	}

	var out bytes.Buffer
	hdr := make([]byte, rawHeaderLength)
	binary.LittleEndian.PutUint16(hdr[0:2], magicLittle)
	hdr[2] = btfVersion
	hdr[3] = 0
	binary.LittleEndian.PutUint32(hdr[4:8], rawHeaderLength)
	binary.LittleEndian.PutUint32(hdr[8:12], 0)
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(typeSection.Len()))
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(typeSection.Len()))
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(b.strs.Len()))

	out.Write(hdr)
	out.Write(typeSection.Bytes())
	out.Write(b.strs.Bytes())
	return out.Bytes()
}

// intTail returns a BTF_KIND_INT tail word packing the given encoding,
// legacy bitfield offset, and bit width.
func intTail(enc IntEncoding, offset, bits uint32) []byte {
	raw := (uint32(enc) << 24) | ((offset & 0xff) << 16) | (bits & 0xff)
	return u32le(raw)
}

func member(nameOff uint32, typeID TypeID, offsetOrBits uint32) []byte {
	b := u32le(nameOff)
	b = append(b, u32le(uint32(typeID))...)
	b = append(b, u32le(offsetOrBits)...)
	return b
}
