package abi

import (
	"testing"

	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/schema"
)

func tn(name string) schema.TypeName {
	return schema.TypeName{Name: name, Module: "shapes"}
}

var (
	pointSchema = &schema.Struct{
		Name:   tn("Point"),
		Fields: []schema.Field{{Name: "x", Schema: schema.F64}, {Name: "y", Schema: schema.F64}},
	}
	labelSchema = &schema.Struct{
		Name:   tn("Label"),
		Fields: []schema.Field{{Name: "id", Schema: schema.U32}, {Name: "text", Schema: schema.String}},
	}
	pairSchema = &schema.TupleStruct{
		Name:     tn("Pair"),
		Elements: []schema.Schema{schema.U8, schema.I64},
	}
	metersSchema = &schema.NewtypeStruct{Name: tn("Meters"), Inner: schema.F32}
	colorSchema  = &schema.Enum{
		Name: tn("Color"),
		Variants: []schema.Variant{
			&schema.UnitVariant{Name: "Red"},
			&schema.UnitVariant{Name: "Green", Discriminant: schema.Disc(5)},
			&schema.UnitVariant{Name: "Blue", Discriminant: schema.Disc(-12)},
		},
	}
	shapeSchema = &schema.Enum{
		Name: tn("Shape"),
		Variants: []schema.Variant{
			&schema.UnitVariant{Name: "Empty"},
			&schema.TupleVariant{Name: "Circle", Elements: []schema.Schema{schema.F64}},
			&schema.StructVariant{Name: "Rect", Fields: []schema.Field{{Name: "w", Schema: schema.U16}, {Name: "h", Schema: schema.U16}}},
		},
	}
	counterSchema = &schema.Struct{
		Name:   tn("Counter"),
		Fields: []schema.Field{{Name: "count", Schema: schema.I32}},
	}
	markerSchema = &schema.UnitStruct{Name: tn("Marker")}
)

func testTypes(t *testing.T) *export.Set {
	t.Helper()
	value := func(s schema.Named) *export.Named {
		return &export.Named{TypeName: s.TypeName(), Style: export.StyleValue, Schema: s}
	}
	set, err := export.NewSet([]export.Export{
		value(pointSchema),
		value(labelSchema),
		value(pairSchema),
		value(metersSchema),
		value(colorSchema),
		value(shapeSchema),
		value(markerSchema),
		&export.Named{TypeName: counterSchema.Name, Style: export.StyleHandle, Schema: counterSchema},
	})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	return set
}

func newTestCodec(t *testing.T) (*Codec, *Arena) {
	t.Helper()
	arena := NewArena(1024)
	return NewCodec(NewProtocol(testTypes(t)), Wasm32, arena, arena, NewHandleTable()), arena
}
