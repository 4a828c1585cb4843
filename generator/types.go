package generator

import (
	"fmt"
	"strings"

	"github.com/wippyai/cs-bindgen/abi"
	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/naming"
	"github.com/wippyai/cs-bindgen/schema"
)

// Names reserved by the generated support code.
const (
	bindingsClass = "__bindings"
	rawVecType    = "RawVec"
	rawSliceType  = "RawSlice"
)

// emitter holds the per-run state shared by every fragment. It is built once
// before rendering starts and only read afterwards.
type emitter struct {
	cfg   Config
	set   *export.Set
	proto *abi.Protocol
	names map[schema.TypeName]string
}

func newEmitter(cfg Config, set *export.Set) (*emitter, error) {
	e := &emitter{
		cfg:   cfg,
		set:   set,
		proto: abi.NewProtocol(set),
		names: make(map[schema.TypeName]string),
	}

	collisions := set.LocalNameCollisions()
	taken := map[string]schema.TypeName{}
	reserved := map[string]bool{
		cfg.ClassName: true,
		bindingsClass: true,
		rawVecType:    true,
		rawSliceType:  true,
	}

	for _, n := range set.Named() {
		tn := n.TypeName
		name := naming.Pascal(tn.Name)
		if collisions[tn.Name] {
			name = naming.Pascal(tn.Module) + name
		}
		if name == "" {
			return nil, errors.Generation(n.Identifier(), "type name has no C# identifier")
		}
		name = naming.CSharpIdent(name)

		if prev, dup := taken[name]; dup {
			return nil, errors.New(errors.PhaseGenerate, errors.KindNameCollision).
				Export(n.Identifier()).
				Type(name).
				Detail("C# name also used by %s", prev).
				Build()
		}
		if reserved[name] {
			return nil, errors.New(errors.PhaseGenerate, errors.KindNameCollision).
				Export(n.Identifier()).
				Type(name).
				Detail("C# name is reserved by the generated support code").
				Build()
		}
		taken[name] = tn
		e.names[tn] = name
	}
	return e, nil
}

// typeName returns the C# name of a named type. For complex enums this is the
// static class holding the variant structs.
func (e *emitter) typeName(tn schema.TypeName) string {
	return e.names[tn]
}

// interfaceName is the natural type of a complex enum.
func (e *emitter) interfaceName(tn schema.TypeName) string {
	return "I" + e.names[tn]
}

func (e *emitter) extensionsName(tn schema.TypeName) string {
	return e.names[tn] + "Extensions"
}

// naturalType returns the idiomatic C# type for s travelling in direction dir.
func (e *emitter) naturalType(s schema.Schema, dir abi.Direction) (string, error) {
	switch t := s.(type) {
	case schema.Primitive:
		return primitiveType(t.Kind(), false), nil
	case *schema.Seq:
		return e.listType(t.Element, dir)
	case *schema.Slice:
		return e.listType(t.Element, dir)
	case schema.Named:
		tn := t.TypeName()
		n, ok := e.set.Lookup(tn)
		if !ok {
			return "", errors.Generation("", fmt.Sprintf("type %s is not exported", tn))
		}
		if en, ok := n.Schema.(*schema.Enum); ok && en.IsComplex() {
			return e.interfaceName(tn), nil
		}
		return e.typeName(tn), nil
	}
	return "", errors.Unsupported(errors.PhaseGenerate, s.String(), "no C# type")
}

// listType is T[] for values handed to the library and List<T> for values
// coming back.
func (e *emitter) listType(elem schema.Schema, dir abi.Direction) (string, error) {
	inner, err := e.naturalType(elem, dir)
	if err != nil {
		return "", err
	}
	if dir == abi.Input {
		return inner + "[]", nil
	}
	return "List<" + inner + ">", nil
}

// rawType returns the blittable C# type carrying r.
func rawType(r abi.Repr) string {
	switch t := r.(type) {
	case abi.Scalar:
		return primitiveType(t.Kind, true)
	case abi.Void:
		return "void"
	case *abi.OwnedBuffer:
		return rawVecType
	case *abi.BorrowedSlice:
		return rawSliceType
	case *abi.Record:
		return t.Name
	case *abi.Discriminant:
		return primitiveType(t.Kind, true)
	case *abi.TaggedUnion:
		return t.Name
	case *abi.Handle:
		return "IntPtr"
	}
	return "void"
}

// isDirect reports whether the raw and natural forms of r are the same C# type.
func isDirect(r abi.Repr) bool {
	s, ok := r.(abi.Scalar)
	return ok && s.Kind != schema.KindBool
}

func primitiveType(k schema.Kind, raw bool) string {
	switch k {
	case schema.KindUnit:
		return "void"
	case schema.KindBool:
		if raw {
			return "byte"
		}
		return "bool"
	case schema.KindChar:
		return "uint"
	case schema.KindI8:
		return "sbyte"
	case schema.KindI16:
		return "short"
	case schema.KindI32:
		return "int"
	case schema.KindI64:
		return "long"
	case schema.KindISize:
		return "IntPtr"
	case schema.KindU8:
		return "byte"
	case schema.KindU16:
		return "ushort"
	case schema.KindU32:
		return "uint"
	case schema.KindU64:
		return "ulong"
	case schema.KindUSize:
		return "UIntPtr"
	case schema.KindF32:
		return "float"
	case schema.KindF64:
		return "double"
	case schema.KindString, schema.KindStr:
		return "string"
	}
	return "void"
}

// enumUnderlying is the C# enum base type for a discriminant kind. Pointer
// widths widen to 64 bits because C# enums cannot be based on IntPtr.
func enumUnderlying(k schema.Kind) (string, bool) {
	switch k {
	case schema.KindISize:
		return "long", true
	case schema.KindUSize:
		return "ulong", true
	case schema.KindI8, schema.KindI16, schema.KindI32, schema.KindI64,
		schema.KindU8, schema.KindU16, schema.KindU32, schema.KindU64:
		return primitiveType(k, true), true
	}
	return "", false
}

// discLiteral renders v as a constant of the raw discriminant type.
func discLiteral(k schema.Kind, v int64) string {
	if k == schema.KindUSize || k == schema.KindU64 {
		return fmt.Sprintf("unchecked((%s)%dUL)", primitiveType(k, true), uint64(v))
	}
	return fmt.Sprintf("unchecked((%s)(%dL))", primitiveType(k, true), v)
}

// discValue reads a raw discriminant as a long for switching.
func discValue(k schema.Kind, expr string) string {
	switch k {
	case schema.KindISize:
		return expr + ".ToInt64()"
	case schema.KindUSize:
		return "unchecked((long)" + expr + ".ToUInt64())"
	default:
		return "unchecked((long)" + expr + ")"
	}
}

// fieldIdent is the C# member name of a record field.
func fieldIdent(name string, index int) string {
	id := naming.Pascal(name)
	if id == "" {
		id = abi.ElementName(index)
	}
	return naming.CSharpIdent(id)
}

// paramIdent is the C# parameter name of an input.
func paramIdent(name string, index int) string {
	id := naming.Camel(name)
	if id == "" {
		id = fmt.Sprintf("arg%d", index)
	}
	return naming.CSharpIdent(id)
}

// externIdent turns an entry point symbol into a C# method name.
func externIdent(symbol string) string {
	var b strings.Builder
	for i, r := range symbol {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// indexSymbol and dropVecSymbol fall back to the convention when the
// declaration leaves the entry point empty.
func (e *emitter) indexSymbol(n *export.Named) string {
	if n.IndexFn != "" {
		return n.IndexFn
	}
	return e.cfg.Convention.Index(n.TypeName)
}

func (e *emitter) dropVecSymbol(n *export.Named) string {
	if n.DropVecFn != "" {
		return n.DropVecFn
	}
	return e.cfg.Convention.DropVec(n.TypeName)
}
