package btf

// Kind is the BTF_KIND_* discriminator of a type record.
type Kind uint8

// Equivalents of the BTF_KIND_* constants.
const (
	KindVoid Kind = iota
	KindInt
	KindPointer
	KindArray
	KindStruct
	KindUnion
	KindEnum
	KindForward
	KindTypedef
	KindVolatile
	KindConst
	KindRestrict
	KindFunc
	KindFuncProto
	KindVar
	KindDatasec
	KindFloat
	KindDeclTag
	KindTypeTag
	KindEnum64
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "Void"
	case KindInt:
		return "Int"
	case KindPointer:
		return "Pointer"
	case KindArray:
		return "Array"
	case KindStruct:
		return "Struct"
	case KindUnion:
		return "Union"
	case KindEnum:
		return "Enum"
	case KindForward:
		return "Forward"
	case KindTypedef:
		return "Typedef"
	case KindVolatile:
		return "Volatile"
	case KindConst:
		return "Const"
	case KindRestrict:
		return "Restrict"
	case KindFunc:
		return "Func"
	case KindFuncProto:
		return "FuncProto"
	case KindVar:
		return "Var"
	case KindDatasec:
		return "Datasec"
	case KindFloat:
		return "Float"
	case KindDeclTag:
		return "DeclTag"
	case KindTypeTag:
		return "TypeTag"
	case KindEnum64:
		return "Enum64"
	default:
		return "Kind(unknown)"
	}
}

// FuncLinkage describes BTF function linkage metadata.
type FuncLinkage int

// Equivalent of enum btf_func_linkage.
const (
	StaticFunc FuncLinkage = iota
	GlobalFunc
	ExternFunc
)

func (l FuncLinkage) String() string {
	switch l {
	case StaticFunc:
		return "static"
	case GlobalFunc:
		return "global"
	case ExternFunc:
		return "extern"
	default:
		return "unknown"
	}
}

// VarLinkage describes BTF variable linkage metadata.
type VarLinkage int

const (
	StaticVar VarLinkage = iota
	GlobalVar
	ExternVar
)

func (l VarLinkage) String() string {
	switch l {
	case StaticVar:
		return "static"
	case GlobalVar:
		return "global"
	case ExternVar:
		return "extern"
	default:
		return "unknown"
	}
}

const (
	btfTypeKindShift     = 24
	btfTypeKindLen       = 5
	btfTypeVlenShift     = 0
	btfTypeVlenLen       = 16
	btfTypeKindFlagShift = 31
	btfTypeReservedShift = 16
	btfTypeReservedLen   = 8
)

// btfTypeLen is the size in bytes of the fixed part of every type
// descriptor: name_off, info, size_or_type.
const btfTypeLen = 12

// btfType mirrors struct btf_type from Documentation/bpf/btf.rst.
//
// "info" bits arrangement:
//
//	bits  0-15: vlen
//	bits 16-23: unused
//	bits 24-28: kind
//	bits 29-30: unused
//	bit     31: kind_flag
type btfType struct {
	NameOff  uint32
	Info     uint32
	SizeType uint32
}

func mask(len uint32) uint32 {
	return (1 << len) - 1
}

func readBits(value, length, shift uint32) uint32 {
	return (value >> shift) & mask(length)
}

func (bt *btfType) Kind() Kind {
	return Kind(readBits(bt.Info, btfTypeKindLen, btfTypeKindShift))
}

func (bt *btfType) Vlen() int {
	return int(readBits(bt.Info, btfTypeVlenLen, btfTypeVlenShift))
}

func (bt *btfType) KindFlag() bool {
	return readBits(bt.Info, 1, btfTypeKindFlagShift) == 1
}

// Reserved returns bits 16-23 of info, which the format requires to be 0.
func (bt *btfType) Reserved() uint32 {
	return readBits(bt.Info, btfTypeReservedLen, btfTypeReservedShift)
}

// btfInt encodes additional data for BTF_KIND_INT.
//
//	? ? ? ? e e e e o o o o o o o o ? ? ? ? ? ? ? ? b b b b b b b b
//	? = undefined
//	e = encoding
//	o = offset (legacy bitfields)
//	b = bits
type btfInt struct {
	Raw uint32
}

const (
	btfIntEncodingLen   = 4
	btfIntEncodingShift = 24
	btfIntOffsetLen     = 8
	btfIntOffsetShift   = 16
	btfIntBitsLen       = 8
	btfIntBitsShift     = 0
)

func (bi btfInt) Encoding() IntEncoding {
	return IntEncoding(readBits(bi.Raw, btfIntEncodingLen, btfIntEncodingShift))
}

func (bi btfInt) Offset() uint32 {
	return readBits(bi.Raw, btfIntOffsetLen, btfIntOffsetShift)
}

func (bi btfInt) Bits() uint32 {
	return readBits(bi.Raw, btfIntBitsLen, btfIntBitsShift)
}

type btfArray struct {
	Type      TypeID
	IndexType TypeID
	Nelems    uint32
}

// tailSize returns the byte size of the kind-specific tail that follows a
// btfType descriptor with the given vlen, or -1 if the kind is not
// recognized.
func tailSize(kind Kind, vlen int) int {
	switch kind {
	case KindVoid, KindPointer, KindForward, KindTypedef, KindVolatile,
		KindConst, KindRestrict, KindFunc, KindFloat, KindTypeTag:
		return 0
	case KindInt:
		return 4
	case KindArray:
		return 12
	case KindStruct, KindUnion:
		return vlen * 12
	case KindEnum:
		return vlen * 8
	case KindEnum64:
		return vlen * 12
	case KindFuncProto:
		return vlen * 8
	case KindVar:
		return 4
	case KindDatasec:
		return vlen * 12
	case KindDeclTag:
		return 4
	default:
		return -1
	}
}
