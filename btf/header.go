package btf

import "encoding/binary"

const (
	magicLittle uint16 = 0xeB9F
	magicBig    uint16 = 0x9FeB
	btfVersion  uint8  = 1
	rawHeaderLength    = 24
)

// typeBounds returns the type section's absolute [start, end) byte range,
// computed in uint64 so a malformed TypeOff/TypeLen can't wrap the sum back
// into range the way uint32 arithmetic would.
func (h *header) typeBounds() (start, end uint64) {
	start = uint64(h.HdrLen) + uint64(h.TypeOff)
	end = start + uint64(h.TypeLen)
	return start, end
}

// stringBounds returns the string section's absolute [start, end) byte
// range, computed the same overflow-safe way as typeBounds.
func (h *header) stringBounds() (start, end uint64) {
	start = uint64(h.HdrLen) + uint64(h.StringOff)
	end = start + uint64(h.StringLen)
	return start, end
}

// header is the decoded 24-byte BTF file header. Section
// offsets are relative to the end of the header itself, i.e. to
// HdrLen bytes into the buffer.
type header struct {
	Magic   uint16
	Version uint8
	Flags   uint8
	HdrLen  uint32

	TypeOff   uint32
	TypeLen   uint32
	StringOff uint32
	StringLen uint32
}

// typeStart returns the absolute offset of the start of the type section.
// Only valid after parseHeader has bounds-checked the header.
func (h *header) typeStart() uint32 { start, _ := h.typeBounds(); return uint32(start) }

// typeEnd returns the absolute offset just past the end of the type section.
// Only valid after parseHeader has bounds-checked the header.
func (h *header) typeEnd() uint32 { _, end := h.typeBounds(); return uint32(end) }

// stringStart returns the absolute offset of the start of the string
// section. Only valid after parseHeader has bounds-checked the header.
func (h *header) stringStart() uint32 { start, _ := h.stringBounds(); return uint32(start) }

// stringEnd returns the absolute offset just past the end of the string
// section. Only valid after parseHeader has bounds-checked the header.
func (h *header) stringEnd() uint32 { _, end := h.stringBounds(); return uint32(end) }

// parseHeader reads and validates the BTF file header from the start of
// buf, returning the byte order the magic value discriminates along with
// the decoded header.
func parseHeader(buf []byte) (*header, binary.ByteOrder, error) {
	if len(buf) < 4 {
		return nil, nil, &TruncatedError{Offset: 0, Need: 4}
	}

	// The magic field is the only part of the header whose byte order is
	// not yet known. Reading it as little-endian and comparing against
	// both byte orderings of the magic value tells us which one the file
	// actually uses.
	var order binary.ByteOrder
	switch le := binary.LittleEndian.Uint16(buf); le {
	case magicLittle:
		order = binary.LittleEndian
	case magicBig:
		order = binary.BigEndian
	default:
		return nil, nil, ErrBadMagic
	}

	r := newReader(buf, order)

	var h header
	var err error
	if h.Magic, err = r.u16(); err != nil {
		return nil, nil, err
	}
	if v, err := r.u8(); err != nil {
		return nil, nil, err
	} else {
		h.Version = v
	}
	if f, err := r.u8(); err != nil {
		return nil, nil, err
	} else {
		h.Flags = f
	}
	if h.HdrLen, err = r.u32(); err != nil {
		return nil, nil, err
	}
	if h.TypeOff, err = r.u32(); err != nil {
		return nil, nil, err
	}
	if h.TypeLen, err = r.u32(); err != nil {
		return nil, nil, err
	}
	if h.StringOff, err = r.u32(); err != nil {
		return nil, nil, err
	}
	if h.StringLen, err = r.u32(); err != nil {
		return nil, nil, err
	}

	if h.Version != btfVersion {
		return nil, nil, ErrUnsupportedVersion
	}
	if h.Flags != 0 {
		return nil, nil, ErrUnknownFlags
	}
	if h.HdrLen != rawHeaderLength {
		return nil, nil, ErrBadHeaderLength
	}

	total := uint64(len(buf))
	_, typeEnd := h.typeBounds()
	_, stringEnd := h.stringBounds()
	if typeEnd > total || stringEnd > total {
		return nil, nil, ErrSectionOutOfBounds
	}

	return &h, order, nil
}
