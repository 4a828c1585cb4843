// Package witgen projects a declaration set onto the WebAssembly Interface
// Type model so the exported surface can be reviewed in WIT syntax.
//
// Value structs become records, positional structs become tuple aliases,
// simple enums become enums, complex enums become variants and handle types
// become resources. Methods on handle types are rendered inside the resource
// block; methods on value types become free functions taking the value as
// their first parameter.
package witgen

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/naming"
	"github.com/wippyai/cs-bindgen/schema"
)

// DefaultInterface is the interface name used when none is given.
const DefaultInterface = "exports"

// FuncKind distinguishes where a function is rendered.
type FuncKind uint8

const (
	FuncFree FuncKind = iota
	FuncMethod
	FuncStatic
	FuncConstructor
)

var funcKindNames = [...]string{
	FuncFree:        "free",
	FuncMethod:      "method",
	FuncStatic:      "static",
	FuncConstructor: "constructor",
}

func (k FuncKind) String() string {
	if int(k) < len(funcKindNames) {
		return funcKindNames[k]
	}
	return fmt.Sprintf("FuncKind(%d)", k)
}

// Param is a named function parameter.
type Param struct {
	Name string
	Type wit.Type
}

// Func is a projected function. Result is nil for functions returning unit.
type Func struct {
	Name     string
	Kind     FuncKind
	Resource *wit.TypeDef
	Params   []Param
	Result   wit.Type
	Export   string
}

// Document is the WIT projection of one declaration set.
type Document struct {
	Interface string
	Types     []*wit.TypeDef
	Funcs     []*Func
}

// Resources returns the resource type definitions of d in declaration order.
func (d *Document) Resources() []*wit.TypeDef {
	var out []*wit.TypeDef
	for _, td := range d.Types {
		if _, ok := td.Kind.(*wit.Resource); ok {
			out = append(out, td)
		}
	}
	return out
}

// MethodsOf returns the functions rendered inside the resource block of td.
func (d *Document) MethodsOf(td *wit.TypeDef) []*Func {
	var out []*Func
	for _, f := range d.Funcs {
		if f.Resource == td {
			out = append(out, f)
		}
	}
	return out
}

type projector struct {
	set    *export.Set
	types  map[schema.TypeName]*wit.TypeDef
	names  map[schema.TypeName]string
	doc    *Document
	handle map[schema.TypeName]bool
}

// Project maps set onto WIT types. An empty iface selects DefaultInterface.
func Project(set *export.Set, iface string) (*Document, error) {
	if set == nil {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "nil declaration set")
	}
	if iface == "" {
		iface = DefaultInterface
	}

	p := &projector{
		set:    set,
		types:  make(map[schema.TypeName]*wit.TypeDef),
		names:  make(map[schema.TypeName]string),
		handle: make(map[schema.TypeName]bool),
		doc:    &Document{Interface: naming.Kebab(iface)},
	}
	if err := p.declare(); err != nil {
		return nil, err
	}
	for _, n := range set.Named() {
		if err := p.define(n); err != nil {
			return nil, errors.Attribute(err, n.Identifier())
		}
	}
	for _, fn := range set.Fns() {
		f, err := p.fn(fn)
		if err != nil {
			return nil, errors.Attribute(err, fn.Identifier())
		}
		p.doc.Funcs = append(p.doc.Funcs, f)
	}
	for _, m := range set.Methods() {
		f, err := p.method(m)
		if err != nil {
			return nil, errors.Attribute(err, m.Identifier())
		}
		p.doc.Funcs = append(p.doc.Funcs, f)
	}
	return p.doc, nil
}

// declare allocates one named TypeDef per Named export so that references
// resolve regardless of declaration order.
func (p *projector) declare() error {
	collisions := p.set.LocalNameCollisions()
	owner := map[string]schema.TypeName{}
	for _, n := range p.set.Named() {
		tn := n.TypeName
		name := naming.Kebab(tn.Name)
		if collisions[tn.Name] {
			name = naming.Kebab(tn.Module) + "-" + name
		}
		if prev, dup := owner[name]; dup {
			return errors.New(errors.PhaseGenerate, errors.KindNameCollision).
				Export(n.Identifier()).
				Type(name).
				Detail("WIT name also used by %s", prev).
				Build()
		}
		owner[name] = tn
		p.names[tn] = name
		p.types[tn] = &wit.TypeDef{Name: &name}
		p.handle[tn] = n.Style == export.StyleHandle
	}
	return nil
}

func (p *projector) define(n *export.Named) error {
	td := p.types[n.TypeName]
	if n.Style == export.StyleHandle {
		td.Kind = &wit.Resource{}
		p.doc.Types = append(p.doc.Types, td)
		return nil
	}

	switch t := n.Schema.(type) {
	case *schema.Struct:
		fields, err := p.fields(t.Fields)
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			return errors.Unsupported(errors.PhaseGenerate, t.String(), "WIT records need at least one field")
		}
		td.Kind = &wit.Record{Fields: fields}
	case *schema.TupleStruct:
		types, err := p.typeList(t.Elements)
		if err != nil {
			return err
		}
		td.Kind = &wit.Tuple{Types: types}
	case *schema.NewtypeStruct:
		inner, err := p.typeOf(t.Inner)
		if err != nil {
			return err
		}
		td.Kind = &wit.Tuple{Types: []wit.Type{inner}}
	case *schema.UnitStruct:
		return errors.Unsupported(errors.PhaseGenerate, t.String(), "zero-sized value type has no WIT form")
	case *schema.Enum:
		if len(t.Variants) == 0 {
			return errors.Unsupported(errors.PhaseGenerate, t.String(), "enum without variants")
		}
		if t.IsSimple() {
			cases := make([]wit.EnumCase, len(t.Variants))
			for i, v := range t.Variants {
				cases[i] = wit.EnumCase{Name: naming.Kebab(v.VariantName())}
			}
			td.Kind = &wit.Enum{Cases: cases}
			break
		}
		cases := make([]wit.Case, len(t.Variants))
		for i, v := range t.Variants {
			payload, err := p.payload(n, v)
			if err != nil {
				return err
			}
			cases[i] = wit.Case{Name: naming.Kebab(v.VariantName()), Type: payload}
		}
		td.Kind = &wit.Variant{Cases: cases}
	default:
		return errors.Unsupported(errors.PhaseGenerate, n.Schema.String(), "unknown named schema")
	}
	p.doc.Types = append(p.doc.Types, td)
	return nil
}

// payload returns the type carried by a variant case. Struct variants get an
// auxiliary record named after the enum and the variant.
func (p *projector) payload(n *export.Named, v schema.Variant) (wit.Type, error) {
	switch t := v.(type) {
	case *schema.TupleVariant:
		if len(t.Elements) == 1 {
			return p.typeOf(t.Elements[0])
		}
		types, err := p.typeList(t.Elements)
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil
	case *schema.StructVariant:
		fields, err := p.fields(t.Fields)
		if err != nil {
			return nil, err
		}
		name := p.names[n.TypeName] + "-" + naming.Kebab(t.Name)
		aux := &wit.TypeDef{Name: &name, Kind: &wit.Record{Fields: fields}}
		p.doc.Types = append(p.doc.Types, aux)
		return aux, nil
	}
	return nil, nil
}

func (p *projector) fields(fs []schema.Field) ([]wit.Field, error) {
	out := make([]wit.Field, len(fs))
	for i, f := range fs {
		t, err := p.typeOf(f.Schema)
		if err != nil {
			return nil, err
		}
		out[i] = wit.Field{Name: naming.Kebab(f.Name), Type: t}
	}
	return out, nil
}

func (p *projector) typeList(ss []schema.Schema) ([]wit.Type, error) {
	out := make([]wit.Type, len(ss))
	for i, s := range ss {
		t, err := p.typeOf(s)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// typeOf maps a schema used as a value. Handle types are owned.
func (p *projector) typeOf(s schema.Schema) (wit.Type, error) {
	switch t := s.(type) {
	case schema.Primitive:
		return primitive(t.Kind())
	case *schema.Seq:
		return p.list(t.Element)
	case *schema.Slice:
		return p.list(t.Element)
	case *schema.Option:
		inner, err := p.typeOf(t.Inner)
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: inner}}, nil
	case *schema.Tuple:
		types, err := p.typeList(t.Elements)
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil
	case *schema.Map:
		return nil, errors.Unsupported(errors.PhaseGenerate, t.String(), "maps have no WIT form")
	case schema.Named:
		td, ok := p.types[t.TypeName()]
		if !ok {
			return nil, errors.Generation("", fmt.Sprintf("type %s is not exported", t.TypeName()))
		}
		if p.handle[t.TypeName()] {
			return &wit.TypeDef{Kind: &wit.Own{Type: td}}, nil
		}
		return td, nil
	}
	return nil, errors.Unsupported(errors.PhaseGenerate, fmt.Sprint(s), "no WIT form")
}

// paramType maps an input. Handles are borrowed by parameters.
func (p *projector) paramType(s schema.Schema) (wit.Type, error) {
	if tn, ok := schema.NameOf(s); ok && p.handle[tn] {
		td, ok := p.types[tn]
		if !ok {
			return nil, errors.Generation("", fmt.Sprintf("type %s is not exported", tn))
		}
		return &wit.TypeDef{Kind: &wit.Borrow{Type: td}}, nil
	}
	return p.typeOf(s)
}

func (p *projector) list(elem schema.Schema) (wit.Type, error) {
	inner, err := p.typeOf(elem)
	if err != nil {
		return nil, err
	}
	return &wit.TypeDef{Kind: &wit.List{Type: inner}}, nil
}

func (p *projector) result(s schema.Schema) (wit.Type, error) {
	if s == nil || schema.IsUnit(s) {
		return nil, nil
	}
	return p.typeOf(s)
}

func (p *projector) params(in []export.Param) ([]Param, error) {
	out := make([]Param, len(in))
	for i, prm := range in {
		t, err := p.paramType(prm.Schema)
		if err != nil {
			return nil, err
		}
		name := naming.Kebab(prm.Name)
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		out[i] = Param{Name: name, Type: t}
	}
	return out, nil
}

func (p *projector) fn(fn *export.Fn) (*Func, error) {
	if fn.Receiver != nil {
		return nil, errors.Generation(fn.Identifier(), "free function declares a receiver")
	}
	params, err := p.params(fn.Inputs)
	if err != nil {
		return nil, err
	}
	res, err := p.result(fn.Output)
	if err != nil {
		return nil, err
	}
	return &Func{Name: naming.Kebab(fn.Name), Kind: FuncFree, Params: params, Result: res, Export: fn.Identifier()}, nil
}

func (p *projector) method(m *export.Method) (*Func, error) {
	td, ok := p.types[m.SelfType]
	if !ok {
		return nil, errors.Generation(m.Identifier(), fmt.Sprintf("method on unknown type %s", m.SelfType))
	}
	params, err := p.params(m.Inputs)
	if err != nil {
		return nil, err
	}
	res, err := p.result(m.Output)
	if err != nil {
		return nil, err
	}
	f := &Func{Name: naming.Kebab(m.Name), Params: params, Result: res, Export: m.Identifier()}

	if !p.handle[m.SelfType] {
		// Value types have no methods in WIT; the receiver becomes the first
		// parameter of a free function.
		f.Kind = FuncFree
		f.Name = p.names[m.SelfType] + "-" + f.Name
		if m.Receiver != nil {
			f.Params = append([]Param{{Name: "self", Type: td}}, f.Params...)
		}
		return f, nil
	}

	f.Resource = td
	switch {
	case m.Receiver != nil:
		f.Kind = FuncMethod
	case m.IsConstructor() && !p.hasConstructor(td):
		f.Kind = FuncConstructor
		f.Result = nil
	default:
		f.Kind = FuncStatic
	}
	return f, nil
}

func (p *projector) hasConstructor(td *wit.TypeDef) bool {
	for _, f := range p.doc.Funcs {
		if f.Resource == td && f.Kind == FuncConstructor {
			return true
		}
	}
	return false
}
