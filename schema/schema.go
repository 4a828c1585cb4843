package schema

import (
	"strings"
)

// Schema describes the shape of a value that crosses the module boundary.
// The set of implementations is closed.
type Schema interface {
	Kind() Kind
	String() string
	isSchema()
}

// TypeName identifies a named type by its local name and declaring module path.
// Two types with the same local name in different modules are distinct.
type TypeName struct {
	Name   string `json:"name"`
	Module string `json:"module"`
}

// String renders module::Name, or just Name when the module is empty.
func (n TypeName) String() string {
	if n.Module == "" {
		return n.Name
	}
	return n.Module + "::" + n.Name
}

// Less orders type names by module path, then by local name.
func (n TypeName) Less(o TypeName) bool {
	if n.Module != o.Module {
		return n.Module < o.Module
	}
	return n.Name < o.Name
}

// Field is a named member of a struct or struct variant.
type Field struct {
	Name   string
	Schema Schema
}

// Primitive is a payload-free schema: Unit, Bool, Char, the integer and float kinds,
// String and Str.
type Primitive struct {
	kind Kind
}

// Prim returns the primitive schema for k. It panics if k carries a payload.
func Prim(k Kind) Primitive {
	if !k.IsPrimitive() {
		panic("schema: " + k.String() + " is not a primitive kind")
	}
	return Primitive{kind: k}
}

var (
	Unit   = Primitive{KindUnit}
	Bool   = Primitive{KindBool}
	Char   = Primitive{KindChar}
	I8     = Primitive{KindI8}
	I16    = Primitive{KindI16}
	I32    = Primitive{KindI32}
	I64    = Primitive{KindI64}
	ISize  = Primitive{KindISize}
	U8     = Primitive{KindU8}
	U16    = Primitive{KindU16}
	U32    = Primitive{KindU32}
	U64    = Primitive{KindU64}
	USize  = Primitive{KindUSize}
	F32    = Primitive{KindF32}
	F64    = Primitive{KindF64}
	String = Primitive{KindString}
	Str    = Primitive{KindStr}
)

func (p Primitive) Kind() Kind     { return p.kind }
func (p Primitive) String() string { return p.kind.String() }
func (Primitive) isSchema()        {}

// Struct is a named type with named fields.
type Struct struct {
	Name   TypeName
	Fields []Field
}

func (*Struct) Kind() Kind           { return KindStruct }
func (s *Struct) String() string     { return s.Name.String() }
func (*Struct) isSchema()            {}
func (s *Struct) TypeName() TypeName { return s.Name }

// UnitStruct is a named type with no fields.
type UnitStruct struct {
	Name TypeName
}

func (*UnitStruct) Kind() Kind           { return KindUnitStruct }
func (s *UnitStruct) String() string     { return s.Name.String() }
func (*UnitStruct) isSchema()            {}
func (s *UnitStruct) TypeName() TypeName { return s.Name }

// NewtypeStruct is a named wrapper around exactly one unnamed field.
type NewtypeStruct struct {
	Name  TypeName
	Inner Schema
}

func (*NewtypeStruct) Kind() Kind           { return KindNewtypeStruct }
func (s *NewtypeStruct) String() string     { return s.Name.String() }
func (*NewtypeStruct) isSchema()            {}
func (s *NewtypeStruct) TypeName() TypeName { return s.Name }

// TupleStruct is a named type with positional fields.
type TupleStruct struct {
	Name     TypeName
	Elements []Schema
}

func (*TupleStruct) Kind() Kind           { return KindTupleStruct }
func (s *TupleStruct) String() string     { return s.Name.String() }
func (*TupleStruct) isSchema()            {}
func (s *TupleStruct) TypeName() TypeName { return s.Name }

// Enum is a named sum type. Repr optionally names the integer kind used for the
// discriminant; the zero value means pointer-width signed.
type Enum struct {
	Name     TypeName
	Variants []Variant
	Repr     *Kind
}

func (*Enum) Kind() Kind           { return KindEnum }
func (e *Enum) String() string     { return e.Name.String() }
func (*Enum) isSchema()            {}
func (e *Enum) TypeName() TypeName { return e.Name }

// Option is an optional value.
type Option struct {
	Inner Schema
}

func (*Option) Kind() Kind       { return KindOption }
func (o *Option) String() string { return "Option<" + o.Inner.String() + ">" }
func (*Option) isSchema()        {}

// Seq is the owned growable sequence.
type Seq struct {
	Element Schema
}

func (*Seq) Kind() Kind       { return KindSeq }
func (s *Seq) String() string { return "Vec<" + s.Element.String() + ">" }
func (*Seq) isSchema()        {}

// Slice is a borrowed contiguous view.
type Slice struct {
	Element Schema
}

func (*Slice) Kind() Kind       { return KindSlice }
func (s *Slice) String() string { return "&[" + s.Element.String() + "]" }
func (*Slice) isSchema()        {}

// Tuple is an anonymous fixed-arity product.
type Tuple struct {
	Elements []Schema
}

func (*Tuple) Kind() Kind { return KindTuple }
func (t *Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, e := range t.Elements {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (*Tuple) isSchema() {}

// Map is a key/value association.
type Map struct {
	Key   Schema
	Value Schema
}

func (*Map) Kind() Kind       { return KindMap }
func (m *Map) String() string { return "Map<" + m.Key.String() + ", " + m.Value.String() + ">" }
func (*Map) isSchema()        {}

// Named is implemented by the schemas that carry a TypeName.
type Named interface {
	Schema
	TypeName() TypeName
}

// NameOf returns the TypeName of s if s is a named kind.
func NameOf(s Schema) (TypeName, bool) {
	if n, ok := s.(Named); ok {
		return n.TypeName(), true
	}
	return TypeName{}, false
}

// IsUnit reports whether s is the Unit primitive.
func IsUnit(s Schema) bool {
	return s == nil || s.Kind() == KindUnit
}
