package witgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/schema"
)

func geo(name string) schema.TypeName {
	return schema.TypeName{Name: name, Module: "geo"}
}

var (
	point = &schema.Struct{
		Name:   geo("Point"),
		Fields: []schema.Field{{Name: "x", Schema: schema.F64}, {Name: "y", Schema: schema.F64}},
	}
	color = &schema.Enum{
		Name: geo("Color"),
		Variants: []schema.Variant{
			&schema.UnitVariant{Name: "Red"},
			&schema.UnitVariant{Name: "DarkBlue"},
		},
	}
	shape = &schema.Enum{
		Name: geo("Shape"),
		Variants: []schema.Variant{
			&schema.UnitVariant{Name: "Empty"},
			&schema.TupleVariant{Name: "Circle", Elements: []schema.Schema{schema.F64}},
			&schema.TupleVariant{Name: "Line", Elements: []schema.Schema{point, point}},
			&schema.StructVariant{Name: "Rect", Fields: []schema.Field{{Name: "w", Schema: schema.U16}, {Name: "h", Schema: schema.U16}}},
		},
	}
	counterType = schema.TypeName{Name: "Counter", Module: "app"}
	counter     = &schema.Struct{Name: counterType, Fields: []schema.Field{{Name: "count", Schema: schema.I32}}}
)

func value(s schema.Named) *export.Named {
	return &export.Named{TypeName: s.TypeName(), Style: export.StyleValue, Schema: s}
}

func handle(s schema.Named) *export.Named {
	return &export.Named{TypeName: s.TypeName(), Style: export.StyleHandle, Schema: s}
}

func project(t *testing.T, exports ...export.Export) *Document {
	t.Helper()
	set, err := export.NewSet(exports)
	require.NoError(t, err)
	doc, err := Project(set, "demo")
	require.NoError(t, err)
	return doc
}

func TestProjectTypes(t *testing.T) {
	doc := project(t, value(point), value(color), value(shape))

	assert.Equal(t, "demo", doc.Interface)
	require.Len(t, doc.Types, 4)

	out := doc.String()
	assert.Contains(t, out, "  record point {\n    x: f64,\n    y: f64,\n  }\n")
	assert.Contains(t, out, "  enum color {\n    red,\n    dark-blue,\n  }\n")
	assert.Contains(t, out, "  record shape-rect {\n    w: u16,\n    h: u16,\n  }\n")
	assert.Contains(t, out, "  variant shape {\n    empty,\n    circle(f64),\n    line(tuple<point, point>),\n    rect(shape-rect),\n  }\n")
}

func TestProjectPositionalStructs(t *testing.T) {
	pair := &schema.TupleStruct{Name: geo("Pair"), Elements: []schema.Schema{schema.U8, &schema.Seq{Element: schema.String}}}
	meters := &schema.NewtypeStruct{Name: geo("Meters"), Inner: schema.F32}

	out := project(t, value(pair), value(meters)).String()

	assert.Contains(t, out, "  type pair = tuple<u8, list<string>>;\n")
	assert.Contains(t, out, "  type meters = tuple<f32>;\n")
}

func TestProjectFunctions(t *testing.T) {
	doc := project(t,
		value(point),
		handle(counter),
		&export.Fn{Name: "greet", Binding: "gen_greet", Inputs: []export.Param{{Name: "num", Schema: schema.I32}}, Output: schema.String},
		&export.Fn{Name: "type", Binding: "gen_type", Output: &schema.Option{Inner: schema.Char}},
		&export.Fn{Name: "reset", Binding: "gen_reset", Inputs: []export.Param{{Name: "c", Schema: counter}}, Output: schema.Unit},
		&export.Method{Name: "new", Binding: "gen_new", SelfType: counterType, Inputs: []export.Param{{Name: "start", Schema: schema.I32}}, Output: counter},
		&export.Method{Name: "with_count", Binding: "gen_with", SelfType: counterType, Inputs: []export.Param{{Name: "n", Schema: schema.U64}}, Output: counter},
		&export.Method{Name: "incr_by", Binding: "gen_incr", SelfType: counterType, Receiver: export.Receiver(export.ReceiverRefMut), Inputs: []export.Param{{Name: "by", Schema: schema.I32}}, Output: schema.Unit},
		&export.Method{Name: "length", Binding: "gen_len", SelfType: geo("Point"), Receiver: export.Receiver(export.ReceiverRef), Output: schema.F64},
	)

	out := doc.String()
	assert.Contains(t, out, "  greet: func(num: s32) -> string;\n")
	assert.Contains(t, out, "  %type: func() -> option<char>;\n")
	assert.Contains(t, out, "  reset: func(c: borrow<counter>);\n")
	assert.Contains(t, out, "  point-length: func(self: point) -> f64;\n")
	assert.Contains(t, out, "  resource counter {\n"+
		"    incr-by: func(by: s32);\n"+
		"    constructor(start: s32);\n"+
		"    with-count: static func(n: u64) -> counter;\n"+
		"  }\n")

	require.Len(t, doc.Resources(), 1)
	methods := doc.MethodsOf(doc.Resources()[0])
	require.Len(t, methods, 3)
	assert.Equal(t, FuncMethod, methods[0].Kind)
	assert.Equal(t, FuncConstructor, methods[1].Kind)
	assert.Nil(t, methods[1].Result)
	assert.Equal(t, "app::Counter::new", methods[1].Export)
	assert.Equal(t, "static", methods[2].Kind.String())
}

func TestProjectEmptyResource(t *testing.T) {
	out := project(t, handle(counter)).String()
	assert.Equal(t, "interface demo {\n  resource counter;\n}\n", out)
}

func TestProjectDefaultInterface(t *testing.T) {
	set, err := export.NewSet(nil)
	require.NoError(t, err)
	doc, err := Project(set, "")
	require.NoError(t, err)
	assert.Equal(t, "interface exports {\n}\n", doc.String())
}

func TestProjectCollisions(t *testing.T) {
	other := &schema.Struct{Name: schema.TypeName{Name: "Point", Module: "draw"}, Fields: []schema.Field{{Name: "x", Schema: schema.I32}}}
	out := project(t, value(point), value(other)).String()

	assert.Contains(t, out, "  record geo-point {\n")
	assert.Contains(t, out, "  record draw-point {\n")
}

func TestProjectFailures(t *testing.T) {
	tests := []struct {
		name    string
		exports []export.Export
		kind    errors.Kind
		export  string
	}{
		{
			name:    "map",
			exports: []export.Export{&export.Fn{Name: "table", Binding: "b", Output: &schema.Map{Key: schema.String, Value: schema.I32}}},
			kind:    errors.KindUnsupported,
			export:  "table",
		},
		{
			name:    "unit parameter",
			exports: []export.Export{&export.Fn{Name: "nothing", Binding: "b", Inputs: []export.Param{{Name: "u", Schema: schema.Unit}}, Output: schema.Unit}},
			kind:    errors.KindUnsupported,
			export:  "nothing",
		},
		{
			name:    "unit struct",
			exports: []export.Export{value(&schema.UnitStruct{Name: geo("Marker")})},
			kind:    errors.KindUnsupported,
			export:  "geo::Marker",
		},
		{
			name:    "type not exported",
			exports: []export.Export{&export.Fn{Name: "origin", Binding: "b", Output: point}},
			kind:    errors.KindGeneration,
			export:  "origin",
		},
		{
			name: "method on unknown type",
			exports: []export.Export{&export.Method{
				Name: "incr", Binding: "b", SelfType: counterType, Receiver: export.Receiver(export.ReceiverRef), Output: schema.Unit,
			}},
			kind:   errors.KindGeneration,
			export: "app::Counter::incr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := export.NewSet(tt.exports)
			require.NoError(t, err)
			doc, err := Project(set, "demo")
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.Equal(t, tt.kind, errors.KindOf(err), "got %v", err)

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.export, e.Export)
		})
	}
}

func TestTypeString(t *testing.T) {
	name := "thing"
	td := &wit.TypeDef{Name: &name, Kind: &wit.Resource{}}

	assert.Equal(t, "list<u8>", TypeString(&wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}))
	assert.Equal(t, "thing", TypeString(&wit.TypeDef{Kind: &wit.Own{Type: td}}))
	assert.Equal(t, "borrow<thing>", TypeString(&wit.TypeDef{Kind: &wit.Borrow{Type: td}}))
	assert.Equal(t, "tuple<s64, bool>", TypeString(&wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.S64{}, wit.Bool{}}}}))

	list := "list"
	assert.Equal(t, "%list", TypeString(&wit.TypeDef{Name: &list, Kind: &wit.Record{}}))
}
