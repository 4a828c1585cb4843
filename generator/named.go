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

// member is one field of a generated value type together with the matching
// field of its raw record.
type member struct {
	ident   string
	param   string
	natural string
	schema  schema.Schema
	repr    abi.Repr
}

func (e *emitter) renderNamed(n *export.Named) (*fragment, error) {
	f := newFragment(n.Identifier())
	methods := e.set.MethodsOf(n.TypeName)

	var err error
	if n.Style == export.StyleHandle {
		err = e.renderHandle(f, n, methods)
	} else {
		switch t := n.Schema.(type) {
		case *schema.Enum:
			if t.IsSimple() {
				err = e.renderSimpleEnum(f, n, t, methods)
			} else {
				err = e.renderComplexEnum(f, n, t, methods)
			}
		default:
			err = e.renderValue(f, n, methods)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := e.renderCollection(f, n); err != nil {
		return nil, err
	}
	return f, nil
}

// renderCollection declares the index and drop-vec entry points every named
// type carries for sequences of itself.
func (e *emitter) renderCollection(f *fragment, n *export.Named) error {
	elem, err := e.proto.MapNamed(n, abi.Output)
	if err != nil {
		return errors.Attribute(err, n.Identifier())
	}
	f.extern(e.cfg.Library, e.indexSymbol(n), rawType(elem), rawVecType+" vec, UIntPtr index")
	f.extern(e.cfg.Library, e.dropVecSymbol(n), "void", rawVecType+" vec")
	return nil
}

func (e *emitter) renderHandle(f *fragment, n *export.Named, methods []*export.Method) error {
	name := e.typeName(n.TypeName)
	drop := e.cfg.Convention.Drop(n.TypeName)
	w := f.types

	cm := newClassMembers(name)
	if err := cm.reserve(n.Identifier(), "_handle"); err != nil {
		return err
	}
	if err := cm.method(n.Identifier(), overload{name: "Dispose"}); err != nil {
		return err
	}

	w.open("public unsafe partial class %s : IDisposable", name)
	w.line("internal IntPtr _handle;")
	w.blank()
	w.open("internal %s(IntPtr handle)", name)
	w.line("_handle = handle;")
	w.close()

	if err := e.renderMethods(f, w, n, methods, cm, true); err != nil {
		return err
	}

	w.blank()
	w.open("public void Dispose()")
	w.open("if (_handle != IntPtr.Zero)")
	w.line("%s.%s(_handle);", bindingsClass, externIdent(drop))
	w.line("_handle = IntPtr.Zero;")
	w.close()
	w.close()
	w.close()

	f.extern(e.cfg.Library, drop, "void", "IntPtr handle")

	r := f.rawMember()
	r.open("internal static void FromRaw(IntPtr raw, out %s value)", name)
	r.line("value = new %s(raw);", name)
	r.close()
	r.blank()
	r.open("internal static void IntoRaw(%s value, out IntPtr raw)", name)
	r.line("raw = value._handle;")
	r.close()
	return nil
}

func (e *emitter) renderValue(f *fragment, n *export.Named, methods []*export.Method) error {
	name := e.typeName(n.TypeName)
	out, err := e.proto.MapNamed(n, abi.Output)
	if err != nil {
		return errors.Attribute(err, n.Identifier())
	}
	rec, ok := out.(*abi.Record)
	if !ok {
		return errors.Generation(n.Identifier(), fmt.Sprintf("value type maps to %s", out))
	}
	members, err := e.members(rec, fieldSchemas(n.Schema))
	if err != nil {
		return errors.Attribute(err, n.Identifier())
	}

	cm := newClassMembers(name)
	for _, m := range members {
		if err := cm.reserve(n.Identifier(), m.ident); err != nil {
			return err
		}
	}

	w := f.types
	w.open("public unsafe partial struct %s", name)
	writeValueBody(w, name, members)
	if err := e.renderMethods(f, w, n, methods, cm, false); err != nil {
		return err
	}
	w.close()
	w.blank()
	writeRawRecord(w, rec)

	return e.renderRecordConversions(f, n, name, rec, members)
}

// renderRecordConversions writes the FromRaw overload, and the IntoRaw
// overload when the type may also travel into the library.
func (e *emitter) renderRecordConversions(f *fragment, n *export.Named, name string, rec *abi.Record, members []member) error {
	r := f.rawMember()
	r.open("internal static void FromRaw(%s raw, out %s value)", rec.Name, name)
	r.line("value = new %s();", name)
	for _, m := range members {
		stmts, err := e.fromRaw(f, m.repr, m.schema, "raw."+m.ident, "value."+m.ident)
		if err != nil {
			return errors.Attribute(err, n.Identifier())
		}
		r.lines(stmts)
	}
	r.close()

	in, err := e.proto.MapNamed(n, abi.Input)
	if err != nil {
		// Output-only type, e.g. one owning a string.
		return nil
	}
	inRec := in.(*abi.Record)
	r.blank()
	r.open("internal static void IntoRaw(%s value, out %s raw)", name, rec.Name)
	r.line("raw = new %s();", rec.Name)
	for i, fld := range inRec.Fields {
		stmts, err := intoRaw(fld.Repr, "value."+members[i].ident, "raw."+members[i].ident)
		if err != nil {
			return errors.Attribute(err, n.Identifier())
		}
		r.lines(stmts)
	}
	r.close()
	return nil
}

func (e *emitter) renderSimpleEnum(f *fragment, n *export.Named, en *schema.Enum, methods []*export.Method) error {
	name := e.typeName(n.TypeName)
	disc := en.DiscriminantKind()
	base, ok := enumUnderlying(disc)
	if !ok {
		return errors.Generation(n.Identifier(), fmt.Sprintf("discriminant type %s is not an integer", disc))
	}
	if len(en.Variants) == 0 {
		return errors.Generation(n.Identifier(), "enum without variants")
	}

	w := f.types
	w.open("public enum %s : %s", name, base)
	values := en.Discriminants()
	for i, v := range en.Variants {
		w.line("%s = %d,", fieldIdent(v.VariantName(), i), values[i])
	}
	w.close()

	if len(methods) > 0 {
		w.blank()
		ext := e.extensionsName(n.TypeName)
		w.open("public static unsafe partial class %s", ext)
		if err := e.renderMethods(f, w, n, methods, newClassMembers(ext), false); err != nil {
			return err
		}
		w.close()
	}

	raw := primitiveType(disc, true)
	var from, into string
	switch disc {
	case schema.KindISize:
		from = fmt.Sprintf("(%s)raw.ToInt64()", name)
		into = "new IntPtr((long)value)"
	case schema.KindUSize:
		from = fmt.Sprintf("(%s)raw.ToUInt64()", name)
		into = "new UIntPtr((ulong)value)"
	default:
		from = fmt.Sprintf("(%s)raw", name)
		into = fmt.Sprintf("(%s)value", raw)
	}

	r := f.rawMember()
	r.open("internal static void FromRaw(%s raw, out %s value)", raw, name)
	r.line("value = %s;", from)
	r.close()
	r.blank()
	r.open("internal static void IntoRaw(%s value, out %s raw)", name, raw)
	r.line("raw = %s;", into)
	r.close()
	return nil
}

func (e *emitter) renderComplexEnum(f *fragment, n *export.Named, en *schema.Enum, methods []*export.Method) error {
	name := e.typeName(n.TypeName)
	iface := e.interfaceName(n.TypeName)

	out, err := e.proto.MapNamed(n, abi.Output)
	if err != nil {
		return errors.Attribute(err, n.Identifier())
	}
	union, ok := out.(*abi.TaggedUnion)
	if !ok {
		return errors.Generation(n.Identifier(), fmt.Sprintf("complex enum maps to %s", out))
	}
	if _, ok := enumUnderlying(union.Disc); !ok {
		return errors.Generation(n.Identifier(), fmt.Sprintf("discriminant type %s is not an integer", union.Disc))
	}

	// Natural members of every data-carrying variant, by variant index.
	variantMembers := make(map[int][]member, len(union.Members))
	for _, m := range union.Members {
		ms, err := e.members(m.Payload, variantSchemas(en.Variants[m.Index]))
		if err != nil {
			return errors.Attribute(err, n.Identifier())
		}
		variantMembers[m.Index] = ms
	}

	cm := newClassMembers(name)
	for i, v := range en.Variants {
		if err := cm.reserve(n.Identifier(), fieldIdent(v.VariantName(), i)); err != nil {
			return err
		}
	}

	w := f.types
	w.open("public interface %s", iface)
	w.close()
	w.blank()

	w.open("public static unsafe partial class %s", name)
	for i, v := range en.Variants {
		if i > 0 {
			w.blank()
		}
		vname := fieldIdent(v.VariantName(), i)
		w.open("public struct %s : %s", vname, iface)
		writeValueBody(w, vname, variantMembers[i])
		w.close()
	}
	if err := e.renderMethods(f, w, n, methods, cm, false); err != nil {
		return err
	}
	w.close()

	payloadName := naming.Mangle(n.TypeName) + "__Payload"
	for _, m := range union.Members {
		w.blank()
		writeRawRecord(w, m.Payload)
	}
	w.blank()
	w.line("[StructLayout(LayoutKind.Explicit)]")
	w.open("internal unsafe struct %s", payloadName)
	for i, m := range union.Members {
		if i > 0 {
			w.blank()
		}
		w.line("[FieldOffset(0)]")
		w.line("public %s %s;", m.Payload.Name, fieldIdent(m.Variant, m.Index))
	}
	w.close()
	w.blank()
	w.line("[StructLayout(LayoutKind.Sequential)]")
	w.open("internal unsafe struct %s", union.Name)
	w.line("public %s Discriminant;", primitiveType(union.Disc, true))
	w.line("public %s Value;", payloadName)
	w.close()

	values := en.Discriminants()
	r := f.rawMember()
	r.open("internal static void FromRaw(%s raw, out %s value)", union.Name, iface)
	r.open("switch (%s)", discValue(union.Disc, "raw.Discriminant"))
	for i, v := range en.Variants {
		vname := fieldIdent(v.VariantName(), i)
		r.line("case %d:", values[i])
		r.openBrace()
		r.line("var result = new %s.%s();", name, vname)
		for _, m := range variantMembers[i] {
			src := fmt.Sprintf("raw.Value.%s.%s", vname, m.ident)
			stmts, err := e.fromRaw(f, m.repr, m.schema, src, "result."+m.ident)
			if err != nil {
				return errors.Attribute(err, n.Identifier())
			}
			r.lines(stmts)
		}
		r.line("value = result;")
		r.line("return;")
		r.close()
	}
	r.line("default:")
	r.indent++
	r.line("throw new InvalidOperationException(%s);", csString("unknown discriminant for "+name))
	r.indent--
	r.close()
	r.close()

	in, err := e.proto.MapNamed(n, abi.Input)
	if err != nil {
		return nil
	}
	inUnion := in.(*abi.TaggedUnion)
	r.blank()
	r.open("internal static void IntoRaw(%s value, out %s raw)", iface, union.Name)
	r.line("raw = new %s();", union.Name)
	r.open("switch (value)")
	for i, v := range en.Variants {
		vname := fieldIdent(v.VariantName(), i)
		member, carries := inUnion.MemberFor(i)
		if !carries {
			r.line("case %s.%s _:", name, vname)
		} else {
			r.line("case %s.%s v:", name, vname)
		}
		r.indent++
		r.line("raw.Discriminant = %s;", discLiteral(union.Disc, values[i]))
		if carries {
			for j, fld := range member.Payload.Fields {
				m := variantMembers[i][j]
				stmts, err := intoRaw(fld.Repr, "v."+m.ident, fmt.Sprintf("raw.Value.%s.%s", vname, m.ident))
				if err != nil {
					return errors.Attribute(err, n.Identifier())
				}
				r.lines(stmts)
			}
		}
		r.line("return;")
		r.indent--
	}
	r.line("default:")
	r.indent++
	r.line("throw new ArgumentException(%s, nameof(value));", csString("unknown variant of "+name))
	r.indent--
	r.close()
	r.close()
	return nil
}

// renderMethods writes the wrappers of methods into the type body held by w.
// With ctors set, static methods returning the type become constructors
// unless their parameter list clashes with one already taken. Every other
// wrapper is claimed in cm.
func (e *emitter) renderMethods(f *fragment, w *writer, n *export.Named, methods []*export.Method, cm *classMembers, ctors bool) error {
	taken := map[string]bool{"IntPtr": true}
	for _, m := range methods {
		sig, err := e.analyse(methodCallable(m, n))
		if err != nil {
			return err
		}
		if ctors && m.IsConstructor() {
			key := make([]string, len(sig.params))
			for i, p := range sig.params {
				key[i] = p.natural
			}
			if k := strings.Join(key, ","); !taken[k] {
				taken[k] = true
				sig.mode = modeConstructor
			}
		}
		if o, ok := sig.wrapperMember(); ok {
			if err := cm.method(sig.id, o); err != nil {
				return err
			}
		}
		w.blank()
		if err := e.renderWrapper(f, w, sig); err != nil {
			return err
		}
		e.renderExtern(f, sig)
	}
	return nil
}

func (e *emitter) members(rec *abi.Record, schemas []schema.Schema) ([]member, error) {
	if len(schemas) != len(rec.Fields) {
		return nil, errors.Generation("", fmt.Sprintf("%s: %d fields for %d schemas", rec.Name, len(rec.Fields), len(schemas)))
	}
	out := make([]member, len(rec.Fields))
	for i, fld := range rec.Fields {
		nat, err := e.naturalType(schemas[i], abi.Output)
		if err != nil {
			return nil, err
		}
		out[i] = member{
			ident:   fieldIdent(fld.Name, i),
			param:   paramIdent(fld.Name, i),
			natural: nat,
			schema:  schemas[i],
			repr:    fld.Repr,
		}
	}
	return out, nil
}

func writeValueBody(w *writer, name string, members []member) {
	for _, m := range members {
		w.line("public %s %s;", m.natural, m.ident)
	}
	if len(members) == 0 {
		return
	}

	params := make([]string, len(members))
	for i, m := range members {
		params[i] = m.natural + " " + m.param
	}
	w.blank()
	w.open("public %s(%s)", name, strings.Join(params, ", "))
	for _, m := range members {
		w.line("this.%s = %s;", m.ident, m.param)
	}
	w.close()
}

func writeRawRecord(w *writer, rec *abi.Record) {
	w.line("[StructLayout(LayoutKind.Sequential)]")
	w.open("internal unsafe struct %s", rec.Name)
	for i, fld := range rec.Fields {
		w.line("public %s %s;", rawType(fld.Repr), fieldIdent(fld.Name, i))
	}
	w.close()
}

func fieldSchemas(s schema.Schema) []schema.Schema {
	switch t := s.(type) {
	case *schema.Struct:
		out := make([]schema.Schema, len(t.Fields))
		for i, f := range t.Fields {
			out[i] = f.Schema
		}
		return out
	case *schema.TupleStruct:
		return t.Elements
	case *schema.NewtypeStruct:
		return []schema.Schema{t.Inner}
	}
	return nil
}

func variantSchemas(v schema.Variant) []schema.Schema {
	switch t := v.(type) {
	case *schema.TupleVariant:
		return t.Elements
	case *schema.StructVariant:
		out := make([]schema.Schema, len(t.Fields))
		for i, f := range t.Fields {
			out[i] = f.Schema
		}
		return out
	}
	return nil
}
