package btf

import "encoding/binary"

// Spec is a fully decoded BTF blob: a dense table of every type by id,
// plus a name index for lookup by name. A Spec is
// immutable once returned by Open and is safe for concurrent read-only
// use by multiple goroutines.
type Spec struct {
	types     []Type
	byName    map[string][]TypeID
	byteOrder binary.ByteOrder
}

// Open decodes a complete BTF blob (24-byte header, type section, string
// section) from buf.
func Open(buf []byte) (*Spec, error) {
	hdr, order, err := parseHeader(buf)
	if err != nil {
		return nil, err
	}

	strs := newStringTable(buf[hdr.stringStart():hdr.stringEnd()])
	types, err := decodeTypes(buf[hdr.typeStart():hdr.typeEnd()], order, strs)
	if err != nil {
		return nil, err
	}

	byName := make(map[string][]TypeID, len(types))
	for i, t := range types {
		name := t.TypeName()
		if name == "" {
			continue
		}
		id := TypeID(i)
		byName[name] = append(byName[name], id)
	}

	return &Spec{types: types, byName: byName, byteOrder: order}, nil
}

// TypeByID returns the type with the given id.
func (s *Spec) TypeByID(id TypeID) (Type, error) {
	if uint64(id) >= uint64(len(s.types)) {
		return nil, ErrBadTypeID
	}
	return s.types[id], nil
}

// NumTypes returns the number of types in the Spec, including Void.
func (s *Spec) NumTypes() int { return len(s.types) }

// IDOf returns the id of the first type named name, in ascending id order.
// It returns ErrUnknownName if no type carries that name.
func (s *Spec) IDOf(name string) (TypeID, error) {
	ids, ok := s.byName[name]
	if !ok || len(ids) == 0 {
		return 0, ErrUnknownName
	}
	return ids[0], nil
}

// AllIDsOf returns every id of a type named name, in ascending order. BTF
// commonly carries more than one type under the same name (e.g. a
// forward declaration alongside the completed struct).
func (s *Spec) AllIDsOf(name string) []TypeID {
	ids := s.byName[name]
	out := make([]TypeID, len(ids))
	copy(out, ids)
	return out
}

// NameOf returns the name of the type with the given id, or "" if it has
// none.
func (s *Spec) NameOf(id TypeID) (string, error) {
	t, err := s.TypeByID(id)
	if err != nil {
		return "", err
	}
	return t.TypeName(), nil
}

// KindOf returns the kind of the type with the given id.
func (s *Spec) KindOf(id TypeID) (Kind, error) {
	t, err := s.TypeByID(id)
	if err != nil {
		return 0, err
	}
	return t.Kind(), nil
}

// SizeOf returns the byte size of the type with the given id, resolving
// through typedefs and qualifiers first. Pointer always reports 8. Array
// reports Nelems times its element's size. Returns ErrNoSizeForKind for
// kinds that carry no size of their own (Func, FuncProto, Forward, Var).
func (s *Spec) SizeOf(id TypeID) (uint32, error) {
	t, err := s.TypeByID(id)
	if err != nil {
		return 0, err
	}
	canon, err := canonicalize(t)
	if err != nil {
		return 0, err
	}
	sz, ok := canon.(sizer)
	if !ok {
		return 0, ErrNoSizeForKind
	}
	return sz.size(), nil
}
