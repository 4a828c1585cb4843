package witgen

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/schema"
)

// Pointer-width integers are projected for wasm32.
func primitive(k schema.Kind) (wit.Type, error) {
	switch k {
	case schema.KindBool:
		return wit.Bool{}, nil
	case schema.KindChar:
		return wit.Char{}, nil
	case schema.KindI8:
		return wit.S8{}, nil
	case schema.KindI16:
		return wit.S16{}, nil
	case schema.KindI32, schema.KindISize:
		return wit.S32{}, nil
	case schema.KindI64:
		return wit.S64{}, nil
	case schema.KindU8:
		return wit.U8{}, nil
	case schema.KindU16:
		return wit.U16{}, nil
	case schema.KindU32, schema.KindUSize:
		return wit.U32{}, nil
	case schema.KindU64:
		return wit.U64{}, nil
	case schema.KindF32:
		return wit.F32{}, nil
	case schema.KindF64:
		return wit.F64{}, nil
	case schema.KindString, schema.KindStr:
		return wit.String{}, nil
	}
	return nil, errors.Unsupported(errors.PhaseGenerate, k.String(), "no WIT value type")
}

var witKeywords = map[string]bool{
	"as": true, "bool": true, "borrow": true, "char": true, "constructor": true,
	"enum": true, "export": true, "f32": true, "f64": true, "flags": true,
	"func": true, "future": true, "import": true, "include": true, "interface": true,
	"list": true, "option": true, "own": true, "package": true, "record": true,
	"resource": true, "result": true, "s16": true, "s32": true, "s64": true,
	"s8": true, "static": true, "stream": true, "string": true, "tuple": true,
	"type": true, "u16": true, "u32": true, "u64": true, "u8": true,
	"use": true, "variant": true, "with": true, "world": true,
}

// ident escapes WIT keywords with '%'.
func ident(name string) string {
	if witKeywords[name] {
		return "%" + name
	}
	return name
}

// TypeString renders t as it appears in a WIT type position.
func TypeString(t wit.Type) string {
	switch v := t.(type) {
	case nil:
		return "_"
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.U8:
		return "u8"
	case wit.S16:
		return "s16"
	case wit.U16:
		return "u16"
	case wit.S32:
		return "s32"
	case wit.U32:
		return "u32"
	case wit.S64:
		return "s64"
	case wit.U64:
		return "u64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return ident(*v.Name)
		}
		return kindString(v.Kind)
	}
	return fmt.Sprintf("%T", t)
}

func kindString(k wit.TypeDefKind) string {
	switch v := k.(type) {
	case *wit.List:
		return "list<" + TypeString(v.Type) + ">"
	case *wit.Option:
		return "option<" + TypeString(v.Type) + ">"
	case *wit.Tuple:
		parts := make([]string, len(v.Types))
		for i, t := range v.Types {
			parts[i] = TypeString(t)
		}
		return "tuple<" + strings.Join(parts, ", ") + ">"
	case *wit.Own:
		return TypeString(v.Type)
	case *wit.Borrow:
		return "borrow<" + TypeString(v.Type) + ">"
	}
	return fmt.Sprintf("%T", k)
}

// String renders d as a WIT interface.
func (d *Document) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "interface %s {\n", ident(d.Interface))

	first := true
	section := func() {
		if !first {
			b.WriteByte('\n')
		}
		first = false
	}

	for _, td := range d.Types {
		section()
		writeTypeDef(&b, d, td)
	}
	for _, f := range d.Funcs {
		if f.Resource != nil {
			continue
		}
		section()
		fmt.Fprintf(&b, "  %s\n", funcDecl(f))
	}
	b.WriteString("}\n")
	return b.String()
}

func writeTypeDef(b *strings.Builder, d *Document, td *wit.TypeDef) {
	name := ident(*td.Name)
	switch k := td.Kind.(type) {
	case *wit.Record:
		fmt.Fprintf(b, "  record %s {\n", name)
		for _, f := range k.Fields {
			fmt.Fprintf(b, "    %s: %s,\n", ident(f.Name), TypeString(f.Type))
		}
		b.WriteString("  }\n")
	case *wit.Enum:
		fmt.Fprintf(b, "  enum %s {\n", name)
		for _, c := range k.Cases {
			fmt.Fprintf(b, "    %s,\n", ident(c.Name))
		}
		b.WriteString("  }\n")
	case *wit.Variant:
		fmt.Fprintf(b, "  variant %s {\n", name)
		for _, c := range k.Cases {
			if c.Type == nil {
				fmt.Fprintf(b, "    %s,\n", ident(c.Name))
				continue
			}
			fmt.Fprintf(b, "    %s(%s),\n", ident(c.Name), TypeString(c.Type))
		}
		b.WriteString("  }\n")
	case *wit.Resource:
		methods := d.MethodsOf(td)
		if len(methods) == 0 {
			fmt.Fprintf(b, "  resource %s;\n", name)
			return
		}
		fmt.Fprintf(b, "  resource %s {\n", name)
		for _, f := range methods {
			fmt.Fprintf(b, "    %s\n", funcDecl(f))
		}
		b.WriteString("  }\n")
	default:
		fmt.Fprintf(b, "  type %s = %s;\n", name, kindString(td.Kind))
	}
}

func funcDecl(f *Func) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = ident(p.Name) + ": " + TypeString(p.Type)
	}
	list := strings.Join(params, ", ")

	if f.Kind == FuncConstructor {
		return "constructor(" + list + ");"
	}
	prefix := "func"
	if f.Kind == FuncStatic {
		prefix = "static func"
	}
	decl := fmt.Sprintf("%s: %s(%s)", ident(f.Name), prefix, list)
	if f.Result != nil {
		decl += " -> " + TypeString(f.Result)
	}
	return decl + ";"
}
