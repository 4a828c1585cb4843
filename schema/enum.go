package schema

// Variant is one case of an Enum. The set of implementations is closed:
// UnitVariant, TupleVariant and StructVariant.
type Variant interface {
	VariantName() string
	isVariant()
}

// UnitVariant carries no data and may pin an explicit discriminant.
type UnitVariant struct {
	Name         string
	Discriminant *int64
}

// TupleVariant carries positional data.
type TupleVariant struct {
	Name     string
	Elements []Schema
}

// StructVariant carries named data.
type StructVariant struct {
	Name   string
	Fields []Field
}

func (v *UnitVariant) VariantName() string   { return v.Name }
func (v *TupleVariant) VariantName() string  { return v.Name }
func (v *StructVariant) VariantName() string { return v.Name }
func (*UnitVariant) isVariant()              {}
func (*TupleVariant) isVariant()             {}
func (*StructVariant) isVariant()            {}

// IsSimple reports whether every variant of e is a unit variant.
func (e *Enum) IsSimple() bool {
	for _, v := range e.Variants {
		if _, ok := v.(*UnitVariant); !ok {
			return false
		}
	}
	return true
}

// IsComplex reports whether at least one variant of e carries data.
func (e *Enum) IsComplex() bool {
	return !e.IsSimple()
}

// DiscriminantKind returns the integer kind used for e's discriminant.
func (e *Enum) DiscriminantKind() Kind {
	if e.Repr != nil {
		return *e.Repr
	}
	return KindISize
}

// Discriminants assigns a discriminant to every variant of e in declaration order.
// A variant takes its explicit value if present, otherwise the previous value plus
// one, otherwise zero.
func (e *Enum) Discriminants() []int64 {
	out := make([]int64, len(e.Variants))
	var prev int64
	for i, v := range e.Variants {
		switch {
		case explicitDiscriminant(v) != nil:
			out[i] = *explicitDiscriminant(v)
		case i > 0:
			out[i] = prev + 1
		default:
			out[i] = 0
		}
		prev = out[i]
	}
	return out
}

// VariantIndex returns the position of the variant named name, or -1.
func (e *Enum) VariantIndex(name string) int {
	for i, v := range e.Variants {
		if v.VariantName() == name {
			return i
		}
	}
	return -1
}

func explicitDiscriminant(v Variant) *int64 {
	if u, ok := v.(*UnitVariant); ok {
		return u.Discriminant
	}
	return nil
}

// Disc is a convenience for building explicit discriminants.
func Disc(v int64) *int64 {
	return &v
}
