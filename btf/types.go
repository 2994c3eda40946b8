package btf

import (
	"fmt"
	"io"
)

// TypeID identifies a type within a Spec. Id 0 always denotes Void.
type TypeID uint32

// Type represents a single decoded BTF record.
//
// Identity of Type follows the Go specification: two Types are considered
// equal if they have the same concrete type and the same dynamic value,
// i.e. they point at the same location in memory.
type Type interface {
	fmt.Formatter

	// Kind returns the BTF kind this record carries.
	Kind() Kind

	// TypeName returns the type's name, or the empty string for anonymous
	// types and types that cannot carry a name (Void, Pointer, Array, and
	// the qualifiers).
	TypeName() string
}

// Void is the unit type of BTF; it is always id 0 and is never decoded from
// the type section, but occupies slot 0 of the decoded type table.
type Void struct{}

func (v *Void) Kind() Kind                     { return KindVoid }
func (v *Void) TypeName() string               { return "" }
func (v *Void) Format(fs fmt.State, verb rune) { formatType(fs, verb, v) }

// IntEncoding describes how an Int's bits should be interpreted.
//
// These may look like flags, but only one bit is ever set at a time; BTF
// treats Signed, Char, and Bool as mutually exclusive.
type IntEncoding byte

const (
	Unsigned IntEncoding = 0
	Signed   IntEncoding = 1
	Char     IntEncoding = 2
	Bool     IntEncoding = 4
)

func (e IntEncoding) String() string {
	switch e {
	case Char:
		return "char"
	case Bool:
		return "bool"
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	default:
		return fmt.Sprintf("IntEncoding(%d)", byte(e))
	}
}

// Int is an integer of a given byte size (BTF_KIND_INT).
type Int struct {
	Name string

	// Size in bytes: 1, 2, 4, 8 or 16.
	Size uint32
	// Offset is the bit offset of the value within its storage unit,
	// carried for legacy bitfield encodings (0-127).
	Offset uint32
	// Bits is the width of the value in bits (1-128).
	Bits     uint32
	Encoding IntEncoding
}

func (i *Int) Kind() Kind       { return KindInt }
func (i *Int) TypeName() string { return i.Name }
func (i *Int) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, i, i.Encoding, "bits=", i.Bits)
}

// Float is a floating point type of a given byte size (BTF_KIND_FLOAT).
type Float struct {
	Name string
	Size uint32 // 2, 4, 8, 12 or 16
}

func (f *Float) Kind() Kind       { return KindFloat }
func (f *Float) TypeName() string { return f.Name }
func (f *Float) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, f, "size=", f.Size*8)
}

// Pointer is a pointer to another type (BTF_KIND_PTR).
type Pointer struct {
	Target Type
}

func (p *Pointer) Kind() Kind       { return KindPointer }
func (p *Pointer) TypeName() string { return "" }
func (p *Pointer) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, p, "target=", p.Target)
}

// Array is an array with a fixed number of elements (BTF_KIND_ARRAY).
// Nelems of 0 denotes a flexible array member.
type Array struct {
	Index  Type
	Type   Type
	Nelems uint32
}

func (a *Array) Kind() Kind       { return KindArray }
func (a *Array) TypeName() string { return "" }
func (a *Array) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, a, "type=", a.Type, "n=", a.Nelems)
}

// Bits is a value expressed in bits.
type Bits uint32

// Bytes converts a bit value into bytes, truncating any fractional byte.
func (b Bits) Bytes() uint32 { return uint32(b) / 8 }

// Member is a single field of a Struct or Union. It is not a valid Type on
// its own.
type Member struct {
	Name string
	Type TypeID

	// Offset is the member's bit offset from the start of the enclosing
	// aggregate.
	Offset Bits

	// HasBitfieldSize is true when this member has an explicit non-zero
	// bit-field width, as encoded by a BTF_KIND_STRUCT/UNION with
	// kind_flag=1. Bit-fields in the kind_flag=0 encoding, whose width is
	// carried by the member's Int type, are not detected and leave it
	// false. BitfieldSize is meaningful only when it is true.
	HasBitfieldSize bool
	BitfieldSize    Bits
}

// Struct is a compound type of consecutive members (BTF_KIND_STRUCT).
type Struct struct {
	Name string
	// Size is the total size of the struct including padding, in bytes.
	Size    uint32
	Members []Member
}

func (s *Struct) Kind() Kind       { return KindStruct }
func (s *Struct) TypeName() string { return s.Name }
func (s *Struct) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, s, "size=", s.Size, "fields=", len(s.Members))
}

// Union is a compound type where members occupy the same memory
// (BTF_KIND_UNION).
type Union struct {
	Name    string
	Size    uint32
	Members []Member
}

func (u *Union) Kind() Kind       { return KindUnion }
func (u *Union) TypeName() string { return u.Name }
func (u *Union) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, u, "size=", u.Size, "fields=", len(u.Members))
}

// composite is implemented by Struct and Union, the two aggregate kinds
// the offset engine can walk into by member name.
type composite interface {
	Type
	members() []Member
}

func (s *Struct) members() []Member { return s.Members }
func (u *Union) members() []Member  { return u.Members }

// EnumValue is a single (name, value) pair of an Enum. It is not a valid
// Type on its own.
type EnumValue struct {
	Name  string
	Value uint64
}

// Enum lists possible values of a 32-bit or 64-bit BTF_KIND_ENUM(64).
type Enum struct {
	Name string
	// Size in bytes: 1, 2, or 4 for the 32-bit kind, 8 for the 64-bit kind.
	Size uint32
	// Signed is true if Values should be interpreted as sign-extended
	// two's complement.
	Signed bool
	Values []EnumValue
}

func (e *Enum) Kind() Kind       { return KindEnum }
func (e *Enum) TypeName() string { return e.Name }
func (e *Enum) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, e, "size=", e.Size, "values=", len(e.Values))
}

// FwdKind distinguishes a forward-declared struct from a union.
type FwdKind int

const (
	FwdStruct FwdKind = iota
	FwdUnion
)

func (k FwdKind) String() string {
	if k == FwdUnion {
		return "union"
	}
	return "struct"
}

// Fwd is a forward declaration; it carries no layout (BTF_KIND_FWD).
type Fwd struct {
	Name  string
	Kind_ FwdKind
}

func (f *Fwd) Kind() Kind       { return KindForward }
func (f *Fwd) TypeName() string { return f.Name }
func (f *Fwd) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, f, f.Kind_)
}

// Typedef is a transparent alias of another type (BTF_KIND_TYPEDEF).
type Typedef struct {
	Name string
	Type Type
}

func (t *Typedef) Kind() Kind       { return KindTypedef }
func (t *Typedef) TypeName() string { return t.Name }
func (t *Typedef) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, t, t.Type)
}

// Volatile is a transparent qualifier (BTF_KIND_VOLATILE).
type Volatile struct{ Type Type }

func (q *Volatile) Kind() Kind       { return KindVolatile }
func (q *Volatile) TypeName() string { return "" }
func (q *Volatile) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, q, q.Type)
}
func (q *Volatile) qualify() Type { return q.Type }

// Const is a transparent qualifier (BTF_KIND_CONST).
type Const struct{ Type Type }

func (q *Const) Kind() Kind       { return KindConst }
func (q *Const) TypeName() string { return "" }
func (q *Const) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, q, q.Type)
}
func (q *Const) qualify() Type { return q.Type }

// Restrict is a transparent qualifier (BTF_KIND_RESTRICT).
type Restrict struct{ Type Type }

func (q *Restrict) Kind() Kind       { return KindRestrict }
func (q *Restrict) TypeName() string { return "" }
func (q *Restrict) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, q, q.Type)
}
func (q *Restrict) qualify() Type { return q.Type }

// TypeTag associates metadata with a type; it is transparent for layout
// (BTF_KIND_TYPE_TAG).
type TypeTag struct {
	Value string
	Type  Type
}

func (t *TypeTag) Kind() Kind       { return KindTypeTag }
func (t *TypeTag) TypeName() string { return "" }
func (t *TypeTag) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, t, "value=", t.Value, t.Type)
}
func (t *TypeTag) qualify() Type { return t.Type }

// qualifier is implemented by every transparent-for-layout single-referent
// kind that isn't a Typedef: Const, Volatile, Restrict, TypeTag.
type qualifier interface {
	Type
	qualify() Type
}

// Func is a function definition (BTF_KIND_FUNC).
type Func struct {
	Name    string
	Type    Type // must resolve to a FuncProto
	Linkage FuncLinkage
}

func (f *Func) Kind() Kind       { return KindFunc }
func (f *Func) TypeName() string { return f.Name }
func (f *Func) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, f, f.Linkage, "proto=", f.Type)
}

// FuncParam is a single named, typed parameter of a FuncProto.
type FuncParam struct {
	Name string
	Type Type
}

// FuncProto is a function prototype (BTF_KIND_FUNC_PROTO).
type FuncProto struct {
	Return Type
	Params []FuncParam
}

func (fp *FuncProto) Kind() Kind       { return KindFuncProto }
func (fp *FuncProto) TypeName() string { return "" }
func (fp *FuncProto) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, fp, "args=", len(fp.Params), "return=", fp.Return)
}

// Var is a global variable declaration (BTF_KIND_VAR).
type Var struct {
	Name    string
	Type    Type
	Linkage VarLinkage
}

func (v *Var) Kind() Kind       { return KindVar }
func (v *Var) TypeName() string { return v.Name }
func (v *Var) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, v, v.Linkage)
}

// VarSecinfo describes one variable's placement within a Datasec. It is
// not a valid Type on its own.
type VarSecinfo struct {
	Type   Type
	Offset uint32
	Size   uint32
}

// Datasec is a global program section containing data (BTF_KIND_DATASEC).
type Datasec struct {
	Name string
	Size uint32
	Vars []VarSecinfo
}

func (d *Datasec) Kind() Kind       { return KindDatasec }
func (d *Datasec) TypeName() string { return d.Name }
func (d *Datasec) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, d, "size=", d.Size, "vars=", len(d.Vars))
}

// DeclTag associates metadata with a declaration (BTF_KIND_DECL_TAG). Index
// is -1 for the whole type, otherwise the member or parameter index the
// tag applies to.
type DeclTag struct {
	Value string
	Type  Type
	Index int
}

func (dt *DeclTag) Kind() Kind       { return KindDeclTag }
func (dt *DeclTag) TypeName() string { return "" }
func (dt *DeclTag) Format(fs fmt.State, verb rune) {
	formatType(fs, verb, dt, "value=", dt.Value, "index=", dt.Index, dt.Type)
}

// sizer is implemented by kinds that carry an explicit byte size.
type sizer interface {
	size() uint32
}

func (i *Int) size() uint32     { return i.Size }
func (f *Float) size() uint32   { return f.Size }
func (p *Pointer) size() uint32 { return 8 }
func (s *Struct) size() uint32  { return s.Size }
func (u *Union) size() uint32   { return u.Size }
func (e *Enum) size() uint32    { return e.Size }
func (d *Datasec) size() uint32 { return d.Size }

// size returns Nelems times the element's own size, resolving through the
// element's typedefs and qualifiers first. This lets a multidimensional
// array's outer dimension size itself in terms of the inner array's total
// byte size, the same way sizeof() composes in C.
func (a *Array) size() uint32 {
	elemCanon, err := canonicalize(a.Type)
	if err != nil {
		return 0
	}
	sz, ok := elemCanon.(sizer)
	if !ok {
		return 0
	}
	return a.Nelems * sz.size()
}

// formattableType is the subset of Type needed to render the shared header
// every kind's Format method starts with.
type formattableType interface {
	fmt.Formatter
	TypeName() string
	Kind() Kind
}

// formatType renders a type in the form Kind:"name"[extra...]. %s stops
// after the name; %v continues into the extra detail. Elements of extra
// are joined with spaces unless the preceding string ends in '='.
func formatType(f fmt.State, verb rune, t formattableType, extra ...interface{}) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(btf.%T)", verb, t)
		return
	}

	io.WriteString(f, t.Kind().String())
	if name := t.TypeName(); name != "" {
		fmt.Fprintf(f, ":%q", name)
	}

	if verb == 's' || len(extra) == 0 {
		return
	}

	io.WriteString(f, "[")
	wantSpace := false
	for _, arg := range extra {
		if wantSpace {
			io.WriteString(f, " ")
		}
		switch v := arg.(type) {
		case string:
			io.WriteString(f, v)
			wantSpace = len(v) > 0 && v[len(v)-1] != '='
			continue
		case formattableType:
			fmt.Fprintf(f, "%s", v)
		default:
			fmt.Fprint(f, v)
		}
		wantSpace = true
	}
	io.WriteString(f, "]")
}
