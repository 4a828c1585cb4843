package abi

import (
	"fmt"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/naming"
	"github.com/wippyai/cs-bindgen/schema"
)

// Direction is the side a value travels towards.
type Direction uint8

const (
	// Input values travel from the host into the library.
	Input Direction = iota
	// Output values travel from the library back to the host.
	Output
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// TypeResolver finds the Named export declaring a type. *export.Set implements it.
type TypeResolver interface {
	Lookup(schema.TypeName) (*export.Named, bool)
}

type position uint8

const (
	posTop position = iota
	posField
	posElement
)

// Protocol maps schemas to their raw representations.
type Protocol struct {
	types TypeResolver
}

// NewProtocol creates a protocol resolving named types through types.
func NewProtocol(types TypeResolver) *Protocol {
	return &Protocol{types: types}
}

// Map returns the raw representation of s travelling in direction dir as a
// parameter or return value.
func (p *Protocol) Map(s schema.Schema, dir Direction) (Repr, error) {
	return p.mapNode(s, dir, posTop, nil)
}

// MapNamed returns the raw representation of the named export n as it appears
// inside other values.
func (p *Protocol) MapNamed(n *export.Named, dir Direction) (Repr, error) {
	return p.mapNamed(n, dir, posField, nil)
}

func (p *Protocol) mapNode(s schema.Schema, dir Direction, pos position, path []string) (Repr, error) {
	if s == nil {
		return nil, p.unsupported(path, "<nil>", "missing schema")
	}

	switch t := s.(type) {
	case schema.Primitive:
		return p.mapPrimitive(t, dir, pos, path)
	case *schema.Seq:
		if pos == posElement || (pos == posField && dir == Input) {
			return nil, p.unsupported(path, s.String(), "owned sequence cannot be nested here")
		}
		elem, err := p.mapElement(t.Element, dir, path)
		if err != nil {
			return nil, err
		}
		if dir == Input {
			return &BorrowedSlice{Elem: elem}, nil
		}
		return &OwnedBuffer{Elem: elem}, nil
	case *schema.Slice:
		if pos != posTop {
			return nil, p.unsupported(path, s.String(), "borrowed slice cannot be stored in a value")
		}
		elem, err := p.mapElement(t.Element, dir, path)
		if err != nil {
			return nil, err
		}
		return &BorrowedSlice{Elem: elem}, nil
	case *schema.Option:
		return nil, p.unsupported(path, s.String(), "optional values have no raw representation")
	case *schema.Map:
		return nil, p.unsupported(path, s.String(), "maps have no raw representation")
	case *schema.Tuple:
		return nil, p.unsupported(path, s.String(), "anonymous tuples have no raw representation")
	case schema.Named:
		tn := t.TypeName()
		n, ok := p.types.Lookup(tn)
		if !ok {
			return nil, errors.New(errors.PhaseABI, errors.KindGeneration).
				Path(path...).
				Type(tn.String()).
				Detail("type is not exported").
				Build()
		}
		if !schema.Equal(n.Schema, s) {
			return nil, errors.New(errors.PhaseABI, errors.KindTypeMismatch).
				Path(path...).
				Type(tn.String()).
				Detail("usage does not match the exported declaration").
				Build()
		}
		return p.mapNamed(n, dir, pos, path)
	}
	return nil, p.unsupported(path, s.String(), fmt.Sprintf("unknown schema %T", s))
}

func (p *Protocol) mapPrimitive(t schema.Primitive, dir Direction, pos position, path []string) (Repr, error) {
	k := t.Kind()
	switch {
	case k == schema.KindUnit:
		if pos == posTop && dir == Output {
			return Void{}, nil
		}
		return nil, p.unsupported(path, k.String(), "unit is only valid as a return type")
	case k == schema.KindString:
		switch {
		case pos == posTop && dir == Input:
			return utf16Slice(), nil
		case pos != posElement && dir == Output:
			return &OwnedBuffer{Elem: Scalar{Kind: schema.KindU8}, Text: true}, nil
		}
		return nil, p.unsupported(path, k.String(), fmt.Sprintf("owned string cannot be nested in %s data", dir))
	case k == schema.KindStr:
		if pos != posTop {
			return nil, p.unsupported(path, k.String(), "borrowed string cannot be stored in a value")
		}
		if dir == Input {
			return utf16Slice(), nil
		}
		return &BorrowedSlice{Elem: Scalar{Kind: schema.KindU8}, Text: true}, nil
	default:
		return Scalar{Kind: k}, nil
	}
}

func (p *Protocol) mapElement(s schema.Schema, dir Direction, path []string) (Repr, error) {
	elemPath := append(append([]string(nil), path...), "[]")
	r, err := p.mapNode(s, dir, posElement, elemPath)
	if err != nil {
		return nil, err
	}
	if OwnsData(r) {
		return nil, p.unsupported(elemPath, s.String(), "sequence element holds owned data")
	}
	return r, nil
}

func (p *Protocol) mapNamed(n *export.Named, dir Direction, pos position, path []string) (Repr, error) {
	if n.Style == export.StyleHandle {
		return &Handle{Type: n.TypeName}, nil
	}

	name := naming.Mangle(n.TypeName) + "_Raw"
	switch t := n.Schema.(type) {
	case *schema.Struct:
		fields := make([]RecordField, len(t.Fields))
		for i, f := range t.Fields {
			r, err := p.mapNode(f.Schema, dir, posField, append(path, f.Name))
			if err != nil {
				return nil, err
			}
			fields[i] = RecordField{Name: f.Name, Repr: r}
		}
		return &Record{Name: name, Type: n.TypeName, Fields: fields}, nil
	case *schema.TupleStruct:
		rec, err := p.positional(name, n.TypeName, t.Elements, dir, path)
		if err != nil {
			return nil, err
		}
		return rec, nil
	case *schema.NewtypeStruct:
		rec, err := p.positional(name, n.TypeName, []schema.Schema{t.Inner}, dir, path)
		if err != nil {
			return nil, err
		}
		return rec, nil
	case *schema.UnitStruct:
		return &Record{Name: name, Type: n.TypeName}, nil
	case *schema.Enum:
		if len(t.Variants) == 0 {
			return nil, p.unsupported(path, n.TypeName.String(), "enum without variants")
		}
		disc := t.DiscriminantKind()
		if t.IsSimple() {
			return &Discriminant{Kind: disc, Enum: t}, nil
		}
		union := &TaggedUnion{Name: name, Disc: disc, Enum: t}
		for i, v := range t.Variants {
			vpath := append(path, v.VariantName())
			var payload *Record
			var err error
			recName := naming.Mangle(n.TypeName) + "_" + v.VariantName() + "_Raw"
			switch vt := v.(type) {
			case *schema.UnitVariant:
				continue
			case *schema.TupleVariant:
				payload, err = p.positional(recName, n.TypeName, vt.Elements, dir, vpath)
			case *schema.StructVariant:
				fields := make([]RecordField, len(vt.Fields))
				for j, f := range vt.Fields {
					r, ferr := p.mapNode(f.Schema, dir, posField, append(vpath, f.Name))
					if ferr != nil {
						return nil, ferr
					}
					fields[j] = RecordField{Name: f.Name, Repr: r}
				}
				payload = &Record{Name: recName, Type: n.TypeName, Fields: fields}
			}
			if err != nil {
				return nil, err
			}
			union.Members = append(union.Members, UnionMember{Variant: v.VariantName(), Index: i, Payload: payload})
		}
		return union, nil
	}
	return nil, p.unsupported(path, n.TypeName.String(), fmt.Sprintf("unknown named schema %T", n.Schema))
}

func (p *Protocol) positional(name string, tn schema.TypeName, elems []schema.Schema, dir Direction, path []string) (*Record, error) {
	fields := make([]RecordField, len(elems))
	for i, e := range elems {
		fname := ElementName(i)
		r, err := p.mapNode(e, dir, posField, append(path, fname))
		if err != nil {
			return nil, err
		}
		fields[i] = RecordField{Name: fname, Repr: r}
	}
	return &Record{Name: name, Type: tn, Fields: fields}, nil
}

func (p *Protocol) unsupported(path []string, typ, detail string) error {
	return errors.New(errors.PhaseABI, errors.KindUnsupported).
		Path(path...).
		Type(typ).
		Detail("%s", detail).
		Build()
}

// ElementName is the field name given to the i-th unnamed field.
func ElementName(i int) string {
	return fmt.Sprintf("Element%d", i)
}

func utf16Slice() *BorrowedSlice {
	return &BorrowedSlice{Elem: Scalar{Kind: schema.KindU16}, Text: true}
}
