package btfcache

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alessandrogario/btfparse/btf"
)

// buildSpec assembles a tiny BTF blob by hand: one named Int and a Struct
// wrapping two instances of it, enough to exercise both OffsetOf and
// IDOf through the cache.
func buildSpec(t *testing.T) *btf.Spec {
	t.Helper()

	u32 := func(v uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		return b
	}

	var strs bytes.Buffer
	strs.WriteByte(0)
	name := func(s string) uint32 {
		off := uint32(strs.Len())
		strs.WriteString(s)
		strs.WriteByte(0)
		return off
	}

	intNameOff := name("myint")
	xNameOff := name("x")
	yNameOff := name("y")
	structNameOff := name("pair")

	var types bytes.Buffer
	// Int: id 1.
	types.Write(u32(intNameOff))
	types.Write(u32(uint32(btf.KindInt) << 24)) // vlen 0, kind_flag 0
	types.Write(u32(4))                         // size
	types.Write(u32((1 << 24) | 32))             // encoding=signed, offset=0, bits=32

	// Struct: id 2, two int members.
	types.Write(u32(structNameOff))
	types.Write(u32((uint32(btf.KindStruct) << 24) | 2)) // vlen 2
	types.Write(u32(8))                                  // size

	member := func(nameOff, typeID, offset uint32) {
		types.Write(u32(nameOff))
		types.Write(u32(typeID))
		types.Write(u32(offset))
	}
	member(xNameOff, 1, 0)
	member(yNameOff, 1, 32)

	hdr := make([]byte, 24)
	binary.LittleEndian.PutUint16(hdr[0:2], 0xeB9F)
	hdr[2] = 1 // version
	hdr[3] = 0 // flags
	binary.LittleEndian.PutUint32(hdr[4:8], 24) // hdr_len
	binary.LittleEndian.PutUint32(hdr[8:12], 0)
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(types.Len()))
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(types.Len()))
	binary.LittleEndian.PutUint32(hdr[20:24], uint32(strs.Len()))

	var buf bytes.Buffer
	buf.Write(hdr)
	buf.Write(types.Bytes())
	buf.Write(strs.Bytes())

	spec, err := btf.Open(buf.Bytes())
	require.NoError(t, err)
	return spec
}

func TestCacheOffsetOfMatchesSpec(t *testing.T) {
	spec := buildSpec(t)
	c := New(spec)

	want, err := spec.OffsetOf(2, "y")
	require.NoError(t, err)

	got, err := c.OffsetOf(2, "y")
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Second call should hit the memoized entry; result must be identical.
	got2, err := c.OffsetOf(2, "y")
	require.NoError(t, err)
	require.Equal(t, got, got2)
}

func TestCacheIDOfMatchesSpec(t *testing.T) {
	spec := buildSpec(t)
	c := New(spec)

	want, err := spec.IDOf("pair")
	require.NoError(t, err)

	got, err := c.IDOf("pair")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestCacheMemoizesErrors(t *testing.T) {
	spec := buildSpec(t)
	c := New(spec)

	_, err1 := c.IDOf("does-not-exist")
	require.ErrorIs(t, err1, btf.ErrUnknownName)
	require.Contains(t, c.names, "does-not-exist")

	_, err2 := c.IDOf("does-not-exist")
	require.ErrorIs(t, err2, btf.ErrUnknownName)
}

func TestCacheResetClearsMemoizedEntries(t *testing.T) {
	spec := buildSpec(t)
	c := New(spec)

	_, err := c.IDOf("pair")
	require.NoError(t, err)

	c.Reset()

	require.Empty(t, c.names)
	require.Empty(t, c.offsets)
}
