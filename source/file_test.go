package source

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromBytesReturnsInputUnchanged(t *testing.T) {
	in := []byte{1, 2, 3}
	out, err := FromBytes(in)
	require.NoError(t, err)
	require.True(t, bytes.Equal(in, out))
}

func TestFromFileReadsWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob")
	want := []byte{0x9F, 0xeB, 1, 0}
	require.NoError(t, os.WriteFile(path, want, 0o644))

	got, err := FromFile(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestFromFileMissingFile(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestFromELFMissingBTFSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "no-btf.elf")
	writeMinimalELF(t, path, nil)

	_, err := FromELF(path)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFromELFReturnsBTFSectionBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "with-btf.elf")
	want := []byte{0x9F, 0xeB, 1, 0, 24, 0, 0, 0}
	writeMinimalELF(t, path, want)

	got, err := FromELF(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

// writeMinimalELF writes a syntactically valid, empty little-endian ELF64
// relocatable object to path, with a null section, a .shstrtab, and
// (when btf is non-nil) a .BTF section carrying btf's bytes verbatim.
// debug/elf has no writer counterpart, so the object is assembled by hand
// at the byte level, following the Elf64_Ehdr/Elf64_Shdr layouts.
func writeMinimalELF(t *testing.T, path string, btf []byte) {
	t.Helper()

	shstrtab := []byte{0}
	shstrtabNameOff := uint32(len(shstrtab))
	shstrtab = append(shstrtab, ".shstrtab\x00"...)

	var btfNameOff uint32
	if btf != nil {
		btfNameOff = uint32(len(shstrtab))
		shstrtab = append(shstrtab, ".BTF\x00"...)
	}

	const ehdrSize = 64
	const shdrSize = 64

	shstrtabOff := uint64(ehdrSize)
	btfOff := shstrtabOff + uint64(len(shstrtab))

	shnum := uint16(2)
	if btf != nil {
		shnum = 3
	}
	shoff := btfOff
	if btf != nil {
		shoff += uint64(len(btf))
	}

	var buf bytes.Buffer

	ident := [16]byte{0x7f, 'E', 'L', 'F', 2 /* ELFCLASS64 */, 1 /* ELFDATA2LSB */, 1 /* EV_CURRENT */, 0}
	buf.Write(ident[:])
	binary.Write(&buf, binary.LittleEndian, uint16(1))    // e_type = ET_REL
	binary.Write(&buf, binary.LittleEndian, uint16(0x3E)) // e_machine = EM_X86_64
	binary.Write(&buf, binary.LittleEndian, uint32(1))    // e_version
	binary.Write(&buf, binary.LittleEndian, uint64(0))    // e_entry
	binary.Write(&buf, binary.LittleEndian, uint64(0))    // e_phoff
	binary.Write(&buf, binary.LittleEndian, shoff)        // e_shoff
	binary.Write(&buf, binary.LittleEndian, uint32(0))    // e_flags
	binary.Write(&buf, binary.LittleEndian, uint16(ehdrSize))
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // e_phentsize
	binary.Write(&buf, binary.LittleEndian, uint16(0)) // e_phnum
	binary.Write(&buf, binary.LittleEndian, uint16(shdrSize))
	binary.Write(&buf, binary.LittleEndian, shnum)
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // e_shstrndx

	require.Equal(t, ehdrSize, buf.Len())

	buf.Write(shstrtab)
	if btf != nil {
		buf.Write(btf)
	}

	type shdr struct {
		Name      uint32
		Type      uint32
		Flags     uint64
		Addr      uint64
		Off       uint64
		Size      uint64
		Link      uint32
		Info      uint32
		Addralign uint64
		Entsize   uint64
	}

	writeShdr := func(s shdr) {
		binary.Write(&buf, binary.LittleEndian, s)
	}

	writeShdr(shdr{}) // null section
	writeShdr(shdr{
		Name:      shstrtabNameOff,
		Type:      3, // SHT_STRTAB
		Off:       shstrtabOff,
		Size:      uint64(len(shstrtab)),
		Addralign: 1,
	})
	if btf != nil {
		writeShdr(shdr{
			Name:      btfNameOff,
			Type:      1, // SHT_PROGBITS
			Off:       btfOff,
			Size:      uint64(len(btf)),
			Addralign: 1,
		})
	}

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}
