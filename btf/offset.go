package btf

import (
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// FieldOffset is the result of walking a dotted field path.
type FieldOffset struct {
	BitOffset Bits

	// HasBitWidth is true when the path terminates on an explicit
	// bit-field member. BitWidth is meaningful only then.
	HasBitWidth bool
	BitWidth    Bits
}

// ByteOffset returns bit_offset/8 and true when the result is byte-aligned
// and not a sub-byte bit-field (bit width absent or a multiple of 8).
func (fo FieldOffset) ByteOffset() (uint32, bool) {
	if fo.BitOffset%8 != 0 {
		return 0, false
	}
	if fo.HasBitWidth && fo.BitWidth%8 != 0 {
		return 0, false
	}
	return fo.BitOffset.Bytes(), true
}

// OffsetOf walks path, a dot-separated sequence of struct/union member
// names and array indices, starting from id, and computes the bit-precise
// location of the field it names.
func (s *Spec) OffsetOf(id TypeID, path string) (FieldOffset, error) {
	t, err := s.TypeByID(id)
	if err != nil {
		return FieldOffset{}, err
	}

	if path == "" {
		return FieldOffset{}, nil
	}

	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return FieldOffset{}, ErrEmptyPathSegment
		}
	}

	var acc Bits
	result := FieldOffset{}
	cur := t

	for _, seg := range segments {
		canon, err := canonicalize(cur)
		if err != nil {
			return FieldOffset{}, err
		}

		switch c := canon.(type) {
		case composite:
			members := c.members()
			idx := slices.IndexFunc(members, func(m Member) bool { return m.Name == seg })
			if idx < 0 {
				return FieldOffset{}, &UnknownFieldError{Name: seg}
			}
			m := members[idx]
			acc += m.Offset
			next, err := s.TypeByID(m.Type)
			if err != nil {
				return FieldOffset{}, err
			}
			cur = next
			result.HasBitWidth = m.HasBitfieldSize
			result.BitWidth = m.BitfieldSize

		case *Array:
			index, err := strconv.ParseUint(seg, 10, 32)
			if err != nil {
				return FieldOffset{}, ErrBadArrayIndex
			}
			if c.Nelems != 0 && uint32(index) >= c.Nelems {
				return FieldOffset{}, ErrArrayIndexRange
			}
			elemCanon, err := canonicalize(c.Type)
			if err != nil {
				return FieldOffset{}, err
			}
			elemSizer, ok := elemCanon.(sizer)
			if !ok {
				return FieldOffset{}, ErrNoSizeForKind
			}
			acc += Bits(uint64(index) * uint64(elemSizer.size()) * 8)
			cur = c.Type
			result.HasBitWidth = false
			result.BitWidth = 0

		default:
			return FieldOffset{}, &NotAggregateError{Kind: canon.Kind()}
		}
	}

	result.BitOffset = acc
	return result, nil
}
