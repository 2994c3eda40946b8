package btf

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/go-quicktest/qt"
)

// TestHeaderTypeLenOverflowRejected reproduces a header whose TypeLen is
// large enough that HdrLen+TypeOff+TypeLen wraps a uint32 back into a value
// smaller than len(buf). Before bounds were computed in uint64 this slipped
// past validation and Open sliced buf with end < start, panicking instead
// of returning an error.
func TestHeaderTypeLenOverflowRejected(t *testing.T) {
	b := newBTFBuilder()
	buf := b.bytes()

	binary.LittleEndian.PutUint32(buf[12:16], 0xFFFFFFF0)

	_, err := Open(buf)
	if !errors.Is(err, ErrSectionOutOfBounds) {
		t.Fatalf("got %v, want ErrSectionOutOfBounds", err)
	}
}

// TestHeaderStringLenOverflowRejected is the string-section analogue of
// TestHeaderTypeLenOverflowRejected.
func TestHeaderStringLenOverflowRejected(t *testing.T) {
	b := newBTFBuilder()
	buf := b.bytes()

	binary.LittleEndian.PutUint32(buf[20:24], 0xFFFFFFF0)

	_, err := Open(buf)
	if !errors.Is(err, ErrSectionOutOfBounds) {
		t.Fatalf("got %v, want ErrSectionOutOfBounds", err)
	}
}

func TestHeaderRejectsBadVersion(t *testing.T) {
	b := newBTFBuilder()
	buf := b.bytes()
	buf[2] = btfVersion + 1

	_, err := Open(buf)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("got %v, want ErrUnsupportedVersion", err)
	}
}

func TestHeaderRejectsUnknownFlags(t *testing.T) {
	b := newBTFBuilder()
	buf := b.bytes()
	buf[3] = 1

	_, err := Open(buf)
	if !errors.Is(err, ErrUnknownFlags) {
		t.Fatalf("got %v, want ErrUnknownFlags", err)
	}
}

func TestHeaderRejectsBadHdrLen(t *testing.T) {
	b := newBTFBuilder()
	buf := b.bytes()
	binary.LittleEndian.PutUint32(buf[4:8], rawHeaderLength+1)

	_, err := Open(buf)
	if !errors.Is(err, ErrBadHeaderLength) {
		t.Fatalf("got %v, want ErrBadHeaderLength", err)
	}
}

func TestParseHeaderDetectsByteOrder(t *testing.T) {
	b := newBTFBuilder()
	buf := b.bytes()

	hdr, order, err := parseHeader(buf)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(order, binary.ByteOrder(binary.LittleEndian)))
	qt.Assert(t, qt.Equals(hdr.HdrLen, uint32(rawHeaderLength)))

	beBuf := make([]byte, len(buf))
	copy(beBuf, buf)
	binary.BigEndian.PutUint16(beBuf[0:2], magicLittle)
	binary.BigEndian.PutUint32(beBuf[4:8], rawHeaderLength)
	binary.BigEndian.PutUint32(beBuf[8:12], 0)
	binary.BigEndian.PutUint32(beBuf[12:16], binary.LittleEndian.Uint32(buf[12:16]))
	binary.BigEndian.PutUint32(beBuf[16:20], binary.LittleEndian.Uint32(buf[16:20]))
	binary.BigEndian.PutUint32(beBuf[20:24], binary.LittleEndian.Uint32(buf[20:24]))

	_, order, err = parseHeader(beBuf)
	qt.Assert(t, qt.IsNil(err))
	qt.Assert(t, qt.Equals(order, binary.ByteOrder(binary.BigEndian)))
}
