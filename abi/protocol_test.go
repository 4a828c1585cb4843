package abi

import (
	"testing"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/schema"
)

func TestMapRepresentations(t *testing.T) {
	p := NewProtocol(testTypes(t))

	tests := []struct {
		name   string
		schema schema.Schema
		dir    Direction
		want   string
	}{
		{"bool", schema.Bool, Input, "bool"},
		{"char", schema.Char, Output, "char"},
		{"i32", schema.I32, Input, "i32"},
		{"usize", schema.USize, Output, "usize"},
		{"unit output", schema.Unit, Output, "void"},
		{"string output", schema.String, Output, "owned-utf8"},
		{"string input", schema.String, Input, "borrowed-utf16"},
		{"str input", schema.Str, Input, "borrowed-utf16"},
		{"str output", schema.Str, Output, "borrowed-utf8"},
		{"seq output", &schema.Seq{Element: schema.I32}, Output, "owned<i32>"},
		{"seq input", &schema.Seq{Element: schema.I32}, Input, "borrowed<i32>"},
		{"slice", &schema.Slice{Element: schema.U8}, Output, "borrowed<u8>"},
		{"seq of structs", &schema.Seq{Element: pointSchema}, Output, "owned<shapes__Point_Raw>"},
		{"seq of handles", &schema.Seq{Element: counterSchema}, Output, "owned<handle<shapes::Counter>>"},
		{"value struct", pointSchema, Input, "shapes__Point_Raw"},
		{"handle", counterSchema, Input, "handle<shapes::Counter>"},
		{"simple enum", colorSchema, Output, "discriminant<isize>"},
		{"complex enum", shapeSchema, Output, "shapes__Shape_Raw"},
		{"unit struct value", markerSchema, Input, "shapes__Marker_Raw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := p.Map(tt.schema, tt.dir)
			if err != nil {
				t.Fatalf("Map: %v", err)
			}
			if r.String() != tt.want {
				t.Errorf("got %s, want %s", r, tt.want)
			}
		})
	}
}

func TestMapRejections(t *testing.T) {
	p := NewProtocol(testTypes(t))

	tests := []struct {
		name   string
		schema schema.Schema
		dir    Direction
		kind   errors.Kind
	}{
		{"option", &schema.Option{Inner: schema.I32}, Output, errors.KindUnsupported},
		{"map", &schema.Map{Key: schema.String, Value: schema.I32}, Output, errors.KindUnsupported},
		{"tuple", &schema.Tuple{Elements: []schema.Schema{schema.I32, schema.I32}}, Input, errors.KindUnsupported},
		{"unit input", schema.Unit, Input, errors.KindUnsupported},
		{"seq of strings", &schema.Seq{Element: schema.String}, Output, errors.KindUnsupported},
		{"nested seq", &schema.Seq{Element: &schema.Seq{Element: schema.U8}}, Output, errors.KindUnsupported},
		{"seq of owning structs", &schema.Seq{Element: labelSchema}, Output, errors.KindUnsupported},
		{"owning struct input", labelSchema, Input, errors.KindUnsupported},
		{"unexported", &schema.Struct{Name: schema.TypeName{Name: "Ghost"}}, Input, errors.KindGeneration},
		{"mismatched usage", &schema.Struct{Name: tn("Point")}, Input, errors.KindTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Map(tt.schema, tt.dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.KindOf(err); got != tt.kind {
				t.Errorf("kind = %s, want %s (%v)", got, tt.kind, err)
			}
		})
	}
}

func TestMapOwningStructOutput(t *testing.T) {
	p := NewProtocol(testTypes(t))
	r, err := p.Map(labelSchema, Output)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := r.(*Record)
	if !ok {
		t.Fatalf("got %T", r)
	}
	if len(rec.Fields) != 2 || rec.Fields[1].Repr.ReprKind() != ReprOwnedBuffer {
		t.Errorf("text field should be an owned buffer: %+v", rec.Fields)
	}
	if !OwnsData(rec) {
		t.Error("OwnsData should see the nested buffer")
	}
}

func TestMapUnitStructValue(t *testing.T) {
	p := NewProtocol(testTypes(t))
	for _, dir := range []Direction{Input, Output} {
		r, err := p.Map(markerSchema, dir)
		if err != nil {
			t.Fatalf("%s: %v", dir, err)
		}
		rec, ok := r.(*Record)
		if !ok {
			t.Fatalf("%s: got %T", dir, r)
		}
		if len(rec.Fields) != 0 || rec.Type != markerSchema.Name {
			t.Errorf("%s: record = %+v", dir, rec)
		}
		if info := Wasm32.Of(rec); info.Size != 0 || info.Align != 1 {
			t.Errorf("%s: layout = %+v", dir, info)
		}
	}
}

func TestMapComplexEnumMembers(t *testing.T) {
	p := NewProtocol(testTypes(t))
	r, err := p.Map(shapeSchema, Input)
	if err != nil {
		t.Fatal(err)
	}
	u := r.(*TaggedUnion)
	if len(u.Members) != 2 {
		t.Fatalf("unit variants must not contribute members, got %d", len(u.Members))
	}
	if u.Members[0].Variant != "Circle" || u.Members[0].Index != 1 {
		t.Errorf("member 0 = %+v", u.Members[0])
	}
	if u.Members[0].Payload.Fields[0].Name != "Element0" {
		t.Errorf("tuple payload field = %q", u.Members[0].Payload.Fields[0].Name)
	}
	if _, ok := u.MemberFor(0); ok {
		t.Error("unit variant should have no member")
	}
	if u.Disc != schema.KindISize {
		t.Errorf("disc = %s", u.Disc)
	}
}
