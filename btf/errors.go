package btf

import (
	"errors"
	"fmt"
)

// Sentinel errors that carry no extra data, returned by Open while decoding
// and by query operations. Callers should compare with errors.Is.
var (
	ErrUnknownName        = errors.New("btf: unknown name")
	ErrBadTypeID          = errors.New("btf: bad type id")
	ErrNoSizeForKind      = errors.New("btf: type has no size")
	ErrEmptyPathSegment   = errors.New("btf: empty path segment")
	ErrBadArrayIndex      = errors.New("btf: bad array index")
	ErrArrayIndexRange    = errors.New("btf: array index out of range")
	ErrResolutionCycle    = errors.New("btf: resolution cycle")
	ErrBadMagic           = errors.New("btf: bad magic")
	ErrUnsupportedVersion = errors.New("btf: unsupported version")
	ErrUnknownFlags       = errors.New("btf: unknown header flags")
	ErrBadHeaderLength    = errors.New("btf: bad header length")
	ErrSectionOutOfBounds = errors.New("btf: section out of bounds")
	ErrBadStringOffset    = errors.New("btf: bad string offset")
	ErrUnterminatedString = errors.New("btf: unterminated string")
	ErrBadStringEncoding  = errors.New("btf: string is not valid UTF-8")
	ErrBadIntegerEncoding = errors.New("btf: integer has more than one encoding bit set")
	ErrTrailingBytes      = errors.New("btf: trailing bytes after type section")
	ErrBadReservedBits    = errors.New("btf: reserved info bits are set")
)

// TruncatedError reports that a read would cross the end of the buffer.
type TruncatedError struct {
	Offset uint32
	Need   uint32
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("btf: truncated read at offset %d, need %d more bytes", e.Offset, e.Need)
}

// UnknownKindError reports an unrecognized BTF kind value.
type UnknownKindError struct {
	Value uint32
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("btf: unknown kind %d", e.Value)
}

// TruncatedTypeError reports that a type's variable-length tail would
// exceed the bounds of the type section.
type TruncatedTypeError struct {
	ID TypeID
}

func (e *TruncatedTypeError) Error() string {
	return fmt.Sprintf("btf: type id %d: truncated tail", e.ID)
}

// DanglingTypeRefError reports a type id referenced by a record that does
// not exist in the decoded table.
type DanglingTypeRefError struct {
	ID TypeID
}

func (e *DanglingTypeRefError) Error() string {
	return fmt.Sprintf("btf: dangling type reference %d", e.ID)
}

// UnknownFieldError reports a struct/union path segment that names no
// member.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("btf: unknown field %q", e.Name)
}

// NotAggregateError reports a path segment applied to a kind that cannot
// be traversed into (anything but struct, union, or array).
type NotAggregateError struct {
	Kind Kind
}

func (e *NotAggregateError) Error() string {
	return fmt.Sprintf("btf: %s is not an aggregate or array type", e.Kind)
}
