package btf

import (
	"encoding/binary"
	"unicode/utf8"
)

// reader is a bounded, endian-aware view over an immutable byte slice with
// a movable cursor. It never reads past the end of buf; every read that
// would returns a *TruncatedError instead.
type reader struct {
	buf   []byte
	order binary.ByteOrder
	pos   uint32
}

func newReader(buf []byte, order binary.ByteOrder) *reader {
	return &reader{buf: buf, order: order}
}

func (r *reader) need(n uint32) error {
	if uint64(r.pos)+uint64(n) > uint64(len(r.buf)) {
		return &TruncatedError{Offset: r.pos, Need: n}
	}
	return nil
}

func (r *reader) seek(off uint32) error {
	if uint64(off) > uint64(len(r.buf)) {
		return &TruncatedError{Offset: off, Need: 0}
	}
	r.pos = off
	return nil
}

func (r *reader) skip(n uint32) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

func (r *reader) offset() uint32 { return r.pos }

func (r *reader) u8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := r.order.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := r.order.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := r.order.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

// bytes returns a bounded raw subslice of length n starting at the current
// position, without copying, and advances the cursor.
func (r *reader) bytes(n uint32) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// cstring reads a NUL-terminated string beginning at offset start within
// buf. The search never looks past len(buf).
func cstring(buf []byte, start uint32) (string, error) {
	if start >= uint32(len(buf)) {
		return "", ErrBadStringOffset
	}

	section := buf[start:]
	nul := -1
	for i, b := range section {
		if b == 0 {
			nul = i
			break
		}
	}
	if nul < 0 {
		return "", ErrUnterminatedString
	}

	s := section[:nul]
	if !utf8.Valid(s) {
		return "", ErrBadStringEncoding
	}
	return string(s), nil
}
