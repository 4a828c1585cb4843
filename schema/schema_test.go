package schema

import (
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnit, "Unit"},
		{KindI32, "I32"},
		{KindUSize, "USize"},
		{KindString, "String"},
		{KindStr, "Str"},
		{KindNewtypeStruct, "NewtypeStruct"},
		{KindMap, "Map"},
		{Kind(200), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindStr.IsPrimitive() || KindStruct.IsPrimitive() {
		t.Error("IsPrimitive boundary wrong")
	}
	if !KindISize.IsSigned() || KindUSize.IsSigned() || KindF32.IsSigned() {
		t.Error("IsSigned wrong")
	}
	if !KindEnum.IsNamed() || KindOption.IsNamed() || !KindStruct.IsNamed() {
		t.Error("IsNamed wrong")
	}
	if KindChar.FixedWidth() != 4 || KindBool.FixedWidth() != 1 || KindISize.FixedWidth() != 0 {
		t.Error("FixedWidth wrong")
	}
}

func TestDiscriminants(t *testing.T) {
	e := &Enum{
		Name: TypeName{Name: "Letters"},
		Variants: []Variant{
			&UnitVariant{Name: "A"},
			&UnitVariant{Name: "B"},
			&UnitVariant{Name: "C", Discriminant: Disc(5)},
			&UnitVariant{Name: "D"},
			&UnitVariant{Name: "E", Discriminant: Disc(-12)},
			&UnitVariant{Name: "F"},
		},
	}

	got := e.Discriminants()
	want := []int64{0, 1, 5, 6, -12, -11}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("variant %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEnumClassification(t *testing.T) {
	simple := &Enum{Variants: []Variant{&UnitVariant{Name: "A"}, &UnitVariant{Name: "B"}}}
	complexEnum := &Enum{Variants: []Variant{
		&UnitVariant{Name: "Foo"},
		&TupleVariant{Name: "Bar", Elements: []Schema{String}},
		&StructVariant{Name: "Baz", Fields: []Field{{Name: "x", Schema: I32}}},
	}}

	if !simple.IsSimple() || simple.IsComplex() {
		t.Error("all-unit enum should be simple")
	}
	if complexEnum.IsSimple() || !complexEnum.IsComplex() {
		t.Error("data-carrying enum should be complex")
	}
	if complexEnum.VariantIndex("Baz") != 2 || complexEnum.VariantIndex("Nope") != -1 {
		t.Error("VariantIndex wrong")
	}
	if simple.DiscriminantKind() != KindISize {
		t.Error("default discriminant kind should be pointer-width")
	}
	r := KindU8
	simple.Repr = &r
	if simple.DiscriminantKind() != KindU8 {
		t.Error("explicit repr ignored")
	}
}

func TestTypeNameIdentity(t *testing.T) {
	a := TypeName{Name: "Point", Module: "geo"}
	b := TypeName{Name: "Point", Module: "draw"}
	if a == b {
		t.Error("same local name in different modules must differ")
	}
	if a.String() != "geo::Point" {
		t.Errorf("String() = %q", a.String())
	}
	if !b.Less(a) {
		t.Error("Less should order by module first")
	}
	if (TypeName{Name: "X"}).String() != "X" {
		t.Error("empty module should render bare name")
	}
}

func TestEqual(t *testing.T) {
	point := func(mod string) Schema {
		return &Struct{
			Name:   TypeName{Name: "Point", Module: mod},
			Fields: []Field{{Name: "x", Schema: F64}, {Name: "y", Schema: F64}},
		}
	}

	if !Equal(point("geo"), point("geo")) {
		t.Error("identical structs should be equal")
	}
	if Equal(point("geo"), point("draw")) {
		t.Error("different modules should not be equal")
	}
	if !Equal(&Seq{Element: I32}, &Seq{Element: I32}) {
		t.Error("seq equality")
	}
	if Equal(&Seq{Element: I32}, &Slice{Element: I32}) {
		t.Error("seq vs slice")
	}
	if Equal(String, Str) {
		t.Error("owned and borrowed strings differ")
	}
	if !Equal(nil, nil) || Equal(nil, Unit) {
		t.Error("nil handling")
	}
}

func TestReferencedTypes(t *testing.T) {
	inner := &Struct{Name: TypeName{Name: "Inner", Module: "m"}}
	outer := &Struct{
		Name: TypeName{Name: "Outer", Module: "m"},
		Fields: []Field{
			{Name: "a", Schema: inner},
			{Name: "b", Schema: &Seq{Element: inner}},
			{Name: "c", Schema: &Enum{Name: TypeName{Name: "E", Module: "m"}}},
		},
	}
	got := ReferencedTypes(outer)
	if len(got) != 2 || got[0].Name != "Inner" || got[1].Name != "E" {
		t.Errorf("ReferencedTypes = %v", got)
	}
}

func TestPrimPanicsOnComposite(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Prim(KindStruct) should panic")
		}
	}()
	_ = Prim(KindStruct)
}
