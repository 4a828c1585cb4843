package schema

// Children returns the schemas directly nested in s, in declaration order.
func Children(s Schema) []Schema {
	switch t := s.(type) {
	case *Struct:
		out := make([]Schema, len(t.Fields))
		for i, f := range t.Fields {
			out[i] = f.Schema
		}
		return out
	case *NewtypeStruct:
		return []Schema{t.Inner}
	case *TupleStruct:
		return t.Elements
	case *Enum:
		var out []Schema
		for _, v := range t.Variants {
			switch vt := v.(type) {
			case *TupleVariant:
				out = append(out, vt.Elements...)
			case *StructVariant:
				for _, f := range vt.Fields {
					out = append(out, f.Schema)
				}
			}
		}
		return out
	case *Option:
		return []Schema{t.Inner}
	case *Seq:
		return []Schema{t.Element}
	case *Slice:
		return []Schema{t.Element}
	case *Tuple:
		return t.Elements
	case *Map:
		return []Schema{t.Key, t.Value}
	default:
		return nil
	}
}

// Walk visits s and its descendants in pre-order. Returning false from fn skips
// the children of the current node.
func Walk(s Schema, fn func(Schema) bool) {
	if s == nil || !fn(s) {
		return
	}
	for _, c := range Children(s) {
		Walk(c, fn)
	}
}

// Equal reports whether a and b describe the same shape.
func Equal(a, b Schema) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Primitive:
		return true
	case *Struct:
		y := b.(*Struct)
		if x.Name != y.Name || len(x.Fields) != len(y.Fields) {
			return false
		}
		return fieldsEqual(x.Fields, y.Fields)
	case *UnitStruct:
		return x.Name == b.(*UnitStruct).Name
	case *NewtypeStruct:
		y := b.(*NewtypeStruct)
		return x.Name == y.Name && Equal(x.Inner, y.Inner)
	case *TupleStruct:
		y := b.(*TupleStruct)
		return x.Name == y.Name && listEqual(x.Elements, y.Elements)
	case *Enum:
		y := b.(*Enum)
		if x.Name != y.Name || len(x.Variants) != len(y.Variants) {
			return false
		}
		if (x.Repr == nil) != (y.Repr == nil) || (x.Repr != nil && *x.Repr != *y.Repr) {
			return false
		}
		for i := range x.Variants {
			if !variantEqual(x.Variants[i], y.Variants[i]) {
				return false
			}
		}
		return true
	case *Option:
		return Equal(x.Inner, b.(*Option).Inner)
	case *Seq:
		return Equal(x.Element, b.(*Seq).Element)
	case *Slice:
		return Equal(x.Element, b.(*Slice).Element)
	case *Tuple:
		return listEqual(x.Elements, b.(*Tuple).Elements)
	case *Map:
		y := b.(*Map)
		return Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	}
	return false
}

func variantEqual(a, b Variant) bool {
	switch x := a.(type) {
	case *UnitVariant:
		y, ok := b.(*UnitVariant)
		if !ok || x.Name != y.Name {
			return false
		}
		if x.Discriminant == nil || y.Discriminant == nil {
			return x.Discriminant == nil && y.Discriminant == nil
		}
		return *x.Discriminant == *y.Discriminant
	case *TupleVariant:
		y, ok := b.(*TupleVariant)
		return ok && x.Name == y.Name && listEqual(x.Elements, y.Elements)
	case *StructVariant:
		y, ok := b.(*StructVariant)
		return ok && x.Name == y.Name && len(x.Fields) == len(y.Fields) && fieldsEqual(x.Fields, y.Fields)
	}
	return false
}

func fieldsEqual(a, b []Field) bool {
	for i := range a {
		if a[i].Name != b[i].Name || !Equal(a[i].Schema, b[i].Schema) {
			return false
		}
	}
	return true
}

func listEqual(a, b []Schema) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// ReferencedTypes returns the TypeNames of every named schema reachable from s,
// excluding s itself, in first-visit order without duplicates.
func ReferencedTypes(s Schema) []TypeName {
	var out []TypeName
	seen := make(map[TypeName]bool)
	root := true
	Walk(s, func(n Schema) bool {
		if root {
			root = false
			return true
		}
		if tn, ok := NameOf(n); ok && !seen[tn] {
			seen[tn] = true
			out = append(out, tn)
		}
		return true
	})
	return out
}
