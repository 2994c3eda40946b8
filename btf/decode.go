package btf

import "encoding/binary"

// The recognized encoding values for BTF_KIND_INT. Any other
// 4-bit pattern (more than one of {signed, char, bool}, or the undefined
// bit 3) is rejected.
const (
	rawEncodingUnsigned uint32 = 0
	rawEncodingSigned   uint32 = 1
	rawEncodingChar     uint32 = 2
	rawEncodingBool     uint32 = 4
)

// rawMember is the intermediate form of a struct/union member entry before
// its Type reference has been resolved.
type rawMember struct {
	name     string
	typeID   TypeID
	offset   Bits
	hasBits  bool
	bitfield Bits
}

type rawParam struct {
	name   string
	typeID TypeID
}

type rawSecInfo struct {
	typeID TypeID
	offset uint32
	size   uint32
}

// provisional carries every field decoded from a single type record's
// descriptor and tail, before cross-type references have been linked up.
// One provisional exists per non-void TypeID.
type provisional struct {
	kind Kind
	name string

	// Int
	intSize, intOffset, intBits uint32
	intEncoding                 IntEncoding

	// Float
	floatSize uint32

	// Pointer, Typedef, Const, Volatile, Restrict, TypeTag, Func, Var, DeclTag
	refID TypeID

	// Array
	arrElemID, arrIndexID TypeID
	arrNelems             uint32

	// Struct, Union
	aggSize uint32
	members []rawMember

	// Enum, Enum64
	enumSize   uint32
	enumSigned bool
	enumVals   []EnumValue

	// Forward
	fwdKind FwdKind

	// Func
	funcLinkage FuncLinkage

	// FuncProto
	protoParams []rawParam

	// Var
	varLinkage VarLinkage

	// Datasec
	secSize uint32
	secVars []rawSecInfo

	// DeclTag
	tagIndex int
}

// decodeTypes decodes the entire type section into a dense []Type indexed
// by TypeID (index 0 is always Void). strs resolves name offsets.
func decodeTypes(section []byte, order binary.ByteOrder, strs *stringTable) ([]Type, error) {
	sectionEnd := uint32(len(section))
	r := newReader(section, order)

	var provisionals []*provisional

	for r.offset() < sectionEnd {
		id := TypeID(len(provisionals) + 1)

		if sectionEnd-r.offset() < btfTypeLen {
			return nil, ErrTrailingBytes
		}

		nameOff, err := r.u32()
		if err != nil {
			return nil, err
		}
		info, err := r.u32()
		if err != nil {
			return nil, err
		}
		sizeOrType, err := r.u32()
		if err != nil {
			return nil, err
		}
		bt := btfType{NameOff: nameOff, Info: info, SizeType: sizeOrType}

		if bt.Reserved() != 0 {
			return nil, ErrBadReservedBits
		}

		kind := bt.Kind()
		vlen := bt.Vlen()
		tlen := tailSize(kind, vlen)
		if tlen < 0 {
			return nil, &UnknownKindError{Value: uint32(kind)}
		}
		if sectionEnd-r.offset() < uint32(tlen) {
			return nil, &TruncatedTypeError{ID: id}
		}

		tailBytes, err := r.bytes(uint32(tlen))
		if err != nil {
			return nil, err
		}

		name, err := strs.lookup(nameOff)
		if err != nil {
			return nil, err
		}

		p := &provisional{kind: kind, name: name}
		if err := decodeTail(p, tailBytes, order, sizeOrType, vlen, bt.KindFlag(), strs); err != nil {
			return nil, err
		}

		provisionals = append(provisionals, p)
	}

	return materialize(provisionals)
}

// decodeTail parses the kind-specific variable-length tail of a single
// type record into p. sizeOrType is the descriptor's third word, whose
// meaning (byte size vs. referent type id) depends on kind.
func decodeTail(p *provisional, tail []byte, order binary.ByteOrder, sizeOrType uint32, vlen int, kindFlag bool, strs *stringTable) error {
	tr := newReader(tail, order)

	switch p.kind {
	case KindVoid:
		// A kind-0 record has no tail; allocate rejects it as an unknown
		// kind, since void is never a record of the type section itself.
		return nil

	case KindInt:
		raw, err := tr.u32()
		if err != nil {
			return err
		}
		bi := btfInt{Raw: raw}
		enc := bi.Encoding()
		switch uint32(enc) {
		case rawEncodingUnsigned, rawEncodingSigned, rawEncodingChar, rawEncodingBool:
		default:
			return ErrBadIntegerEncoding
		}
		p.intSize = sizeOrType
		p.intOffset = bi.Offset()
		p.intBits = bi.Bits()
		p.intEncoding = enc

	case KindFloat:
		p.floatSize = sizeOrType

	case KindPointer, KindTypedef, KindConst, KindVolatile, KindRestrict, KindTypeTag:
		p.refID = TypeID(sizeOrType)

	case KindArray:
		var ba btfArray
		var err error
		if ba.Type, err = readTypeID(tr); err != nil {
			return err
		}
		if ba.IndexType, err = readTypeID(tr); err != nil {
			return err
		}
		if ba.Nelems, err = tr.u32(); err != nil {
			return err
		}
		p.arrElemID = ba.Type
		p.arrIndexID = ba.IndexType
		p.arrNelems = ba.Nelems

	case KindStruct, KindUnion:
		p.aggSize = sizeOrType
		p.members = make([]rawMember, 0, vlen)
		for i := 0; i < vlen; i++ {
			nameOff, err := tr.u32()
			if err != nil {
				return err
			}
			typeID, err := readTypeID(tr)
			if err != nil {
				return err
			}
			raw, err := tr.u32()
			if err != nil {
				return err
			}

			name, err := strs.lookup(nameOff)
			if err != nil {
				return err
			}

			m := rawMember{name: name, typeID: typeID}
			if kindFlag {
				m.offset = Bits(raw & 0xffffff)
				m.bitfield = Bits(raw >> 24)
				m.hasBits = m.bitfield != 0
			} else {
				m.offset = Bits(raw)
			}
			p.members = append(p.members, m)
		}

	case KindEnum:
		p.enumSize = sizeOrType
		p.enumSigned = kindFlag
		p.enumVals = make([]EnumValue, 0, vlen)
		for i := 0; i < vlen; i++ {
			nameOff, err := tr.u32()
			if err != nil {
				return err
			}
			raw, err := tr.i32()
			if err != nil {
				return err
			}
			name, err := strs.lookup(nameOff)
			if err != nil {
				return err
			}
			var value uint64
			if kindFlag {
				value = uint64(int64(raw))
			} else {
				value = uint64(uint32(raw))
			}
			p.enumVals = append(p.enumVals, EnumValue{Name: name, Value: value})
		}

	case KindEnum64:
		p.enumSize = sizeOrType
		p.enumSigned = kindFlag
		p.enumVals = make([]EnumValue, 0, vlen)
		for i := 0; i < vlen; i++ {
			nameOff, err := tr.u32()
			if err != nil {
				return err
			}
			lo, err := tr.u32()
			if err != nil {
				return err
			}
			hi, err := tr.u32()
			if err != nil {
				return err
			}
			name, err := strs.lookup(nameOff)
			if err != nil {
				return err
			}
			p.enumVals = append(p.enumVals, EnumValue{Name: name, Value: (uint64(hi) << 32) | uint64(lo)})
		}

	case KindForward:
		if kindFlag {
			p.fwdKind = FwdUnion
		} else {
			p.fwdKind = FwdStruct
		}

	case KindFunc:
		p.refID = TypeID(sizeOrType)
		p.funcLinkage = FuncLinkage(vlen)

	case KindFuncProto:
		p.refID = TypeID(sizeOrType)
		p.protoParams = make([]rawParam, 0, vlen)
		for i := 0; i < vlen; i++ {
			nameOff, err := tr.u32()
			if err != nil {
				return err
			}
			typeID, err := readTypeID(tr)
			if err != nil {
				return err
			}
			name, err := strs.lookup(nameOff)
			if err != nil {
				return err
			}
			p.protoParams = append(p.protoParams, rawParam{name: name, typeID: typeID})
		}

	case KindVar:
		p.refID = TypeID(sizeOrType)
		linkage, err := tr.u32()
		if err != nil {
			return err
		}
		p.varLinkage = VarLinkage(linkage)

	case KindDatasec:
		p.secSize = sizeOrType
		p.secVars = make([]rawSecInfo, 0, vlen)
		for i := 0; i < vlen; i++ {
			typeID, err := readTypeID(tr)
			if err != nil {
				return err
			}
			off, err := tr.u32()
			if err != nil {
				return err
			}
			size, err := tr.u32()
			if err != nil {
				return err
			}
			p.secVars = append(p.secVars, rawSecInfo{typeID: typeID, offset: off, size: size})
		}

	case KindDeclTag:
		p.refID = TypeID(sizeOrType)
		idx, err := tr.i32()
		if err != nil {
			return err
		}
		p.tagIndex = int(idx)

	default:
		return &UnknownKindError{Value: uint32(p.kind)}
	}

	return nil
}

func readTypeID(r *reader) (TypeID, error) {
	v, err := r.u32()
	return TypeID(v), err
}

// materialize turns a slice of provisional records into the final []Type
// table. It runs in two passes: the first allocates one empty concrete
// value per id so that every TypeID has a stable Type behind it, and the
// second fills each value's fields, resolving cross-references by
// indexing into the same slice. This lets a type refer to another type
// defined later in the section, or to itself, without any recursion or
// fixup bookkeeping.
func materialize(ps []*provisional) ([]Type, error) {
	types := make([]Type, len(ps)+1)
	types[0] = &Void{}

	for i, p := range ps {
		t, err := allocate(p)
		if err != nil {
			return nil, err
		}
		types[i+1] = t
	}

	resolve := func(id TypeID) (Type, error) {
		if uint64(id) >= uint64(len(types)) {
			return nil, &DanglingTypeRefError{ID: id}
		}
		return types[id], nil
	}

	for i, p := range ps {
		if err := fill(types[i+1], p, resolve); err != nil {
			return nil, err
		}
	}

	return types, nil
}

// allocate returns the zero-valued concrete Type for p's kind. Fields are
// filled in later by fill, once every id in the section has a stable
// address to be referenced from.
func allocate(p *provisional) (Type, error) {
	switch p.kind {
	case KindInt:
		return &Int{}, nil
	case KindFloat:
		return &Float{}, nil
	case KindPointer:
		return &Pointer{}, nil
	case KindArray:
		return &Array{}, nil
	case KindStruct:
		return &Struct{}, nil
	case KindUnion:
		return &Union{}, nil
	case KindEnum, KindEnum64:
		return &Enum{}, nil
	case KindForward:
		return &Fwd{}, nil
	case KindTypedef:
		return &Typedef{}, nil
	case KindVolatile:
		return &Volatile{}, nil
	case KindConst:
		return &Const{}, nil
	case KindRestrict:
		return &Restrict{}, nil
	case KindTypeTag:
		return &TypeTag{}, nil
	case KindFunc:
		return &Func{}, nil
	case KindFuncProto:
		return &FuncProto{}, nil
	case KindVar:
		return &Var{}, nil
	case KindDatasec:
		return &Datasec{}, nil
	case KindDeclTag:
		return &DeclTag{}, nil
	default:
		return nil, &UnknownKindError{Value: uint32(p.kind)}
	}
}

// fill populates t's fields from p, resolving any referenced TypeIDs
// through resolve.
func fill(t Type, p *provisional, resolve func(TypeID) (Type, error)) error {
	switch v := t.(type) {
	case *Int:
		v.Name = p.name
		v.Size = p.intSize
		v.Offset = p.intOffset
		v.Bits = p.intBits
		v.Encoding = p.intEncoding

	case *Float:
		v.Name = p.name
		v.Size = p.floatSize

	case *Pointer:
		target, err := resolve(p.refID)
		if err != nil {
			return err
		}
		v.Target = target

	case *Array:
		elem, err := resolve(p.arrElemID)
		if err != nil {
			return err
		}
		index, err := resolve(p.arrIndexID)
		if err != nil {
			return err
		}
		v.Type = elem
		v.Index = index
		v.Nelems = p.arrNelems

	case *Struct:
		v.Name = p.name
		v.Size = p.aggSize
		members, err := fillMembers(p.members, resolve)
		if err != nil {
			return err
		}
		v.Members = members

	case *Union:
		v.Name = p.name
		v.Size = p.aggSize
		members, err := fillMembers(p.members, resolve)
		if err != nil {
			return err
		}
		v.Members = members

	case *Enum:
		v.Name = p.name
		v.Size = p.enumSize
		v.Signed = p.enumSigned
		v.Values = p.enumVals

	case *Fwd:
		v.Name = p.name
		v.Kind_ = p.fwdKind

	case *Typedef:
		target, err := resolve(p.refID)
		if err != nil {
			return err
		}
		v.Name = p.name
		v.Type = target

	case *Volatile:
		target, err := resolve(p.refID)
		if err != nil {
			return err
		}
		v.Type = target

	case *Const:
		target, err := resolve(p.refID)
		if err != nil {
			return err
		}
		v.Type = target

	case *Restrict:
		target, err := resolve(p.refID)
		if err != nil {
			return err
		}
		v.Type = target

	case *TypeTag:
		target, err := resolve(p.refID)
		if err != nil {
			return err
		}
		v.Value = p.name
		v.Type = target

	case *Func:
		target, err := resolve(p.refID)
		if err != nil {
			return err
		}
		v.Name = p.name
		v.Type = target
		v.Linkage = p.funcLinkage

	case *FuncProto:
		ret, err := resolve(p.refID)
		if err != nil {
			return err
		}
		params := make([]FuncParam, 0, len(p.protoParams))
		for _, rp := range p.protoParams {
			pt, err := resolve(rp.typeID)
			if err != nil {
				return err
			}
			params = append(params, FuncParam{Name: rp.name, Type: pt})
		}
		v.Return = ret
		v.Params = params

	case *Var:
		target, err := resolve(p.refID)
		if err != nil {
			return err
		}
		v.Name = p.name
		v.Type = target
		v.Linkage = p.varLinkage

	case *Datasec:
		vars := make([]VarSecinfo, 0, len(p.secVars))
		for _, sv := range p.secVars {
			st, err := resolve(sv.typeID)
			if err != nil {
				return err
			}
			vars = append(vars, VarSecinfo{Type: st, Offset: sv.offset, Size: sv.size})
		}
		v.Name = p.name
		v.Size = p.secSize
		v.Vars = vars

	case *DeclTag:
		target, err := resolve(p.refID)
		if err != nil {
			return err
		}
		v.Value = p.name
		v.Type = target
		v.Index = p.tagIndex

	default:
		return &UnknownKindError{Value: uint32(p.kind)}
	}

	return nil
}

// fillMembers validates that every member's type id resolves to something
// in the section before recording it. Member itself stores the raw TypeID
// rather than a resolved Type, so the offset engine walks it through a
// Spec's index the same way it would any other cross-reference.
func fillMembers(raw []rawMember, resolve func(TypeID) (Type, error)) ([]Member, error) {
	members := make([]Member, 0, len(raw))
	for _, rm := range raw {
		if _, err := resolve(rm.typeID); err != nil {
			return nil, err
		}
		members = append(members, Member{
			Name:            rm.name,
			Type:            rm.typeID,
			Offset:          rm.offset,
			HasBitfieldSize: rm.hasBits,
			BitfieldSize:    rm.bitfield,
		})
	}
	return members, nil
}

