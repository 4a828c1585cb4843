package generator

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/schema"
)

var testConfig = Config{Namespace: "Demo", Library: "demo"}

func geo(name string) schema.TypeName {
	return schema.TypeName{Name: name, Module: "geo"}
}

var (
	pointSchema = &schema.Struct{
		Name:   geo("Point"),
		Fields: []schema.Field{{Name: "x", Schema: schema.F64}, {Name: "y", Schema: schema.F64}},
	}
	labelSchema = &schema.Struct{
		Name:   geo("Label"),
		Fields: []schema.Field{{Name: "id", Schema: schema.U32}, {Name: "text", Schema: schema.String}},
	}
	colorSchema = &schema.Enum{
		Name: geo("Color"),
		Variants: []schema.Variant{
			&schema.UnitVariant{Name: "Red"},
			&schema.UnitVariant{Name: "Green", Discriminant: schema.Disc(5)},
			&schema.UnitVariant{Name: "Blue", Discriminant: schema.Disc(-12)},
		},
	}
	shapeSchema = &schema.Enum{
		Name: geo("Shape"),
		Variants: []schema.Variant{
			&schema.UnitVariant{Name: "Empty"},
			&schema.TupleVariant{Name: "Circle", Elements: []schema.Schema{schema.F64}},
			&schema.StructVariant{Name: "Rect", Fields: []schema.Field{{Name: "w", Schema: schema.U16}, {Name: "h", Schema: schema.U16}}},
		},
	}
	counterType   = schema.TypeName{Name: "Counter", Module: "app"}
	counterSchema = &schema.Struct{
		Name:   counterType,
		Fields: []schema.Field{{Name: "count", Schema: schema.I32}},
	}
)

func value(s schema.Named) *export.Named {
	return &export.Named{TypeName: s.TypeName(), Style: export.StyleValue, Schema: s}
}

func counter() *export.Named {
	return &export.Named{
		TypeName:  counterType,
		Style:     export.StyleHandle,
		IndexFn:   "__cs_bindgen_index__app__Counter",
		DropVecFn: "__cs_bindgen_drop_vec__app__Counter",
		Schema:    counterSchema,
	}
}

func greetFn() *export.Fn {
	return &export.Fn{
		Name:    "greet",
		Binding: "gen_greet",
		Inputs:  []export.Param{{Name: "num", Schema: schema.I32}},
		Output:  schema.String,
	}
}

func fn(name string, output schema.Schema, inputs ...export.Param) *export.Fn {
	return &export.Fn{Name: name, Binding: "gen_" + name, Inputs: inputs, Output: output}
}

func in(name string, s schema.Schema) export.Param {
	return export.Param{Name: name, Schema: s}
}

func newSet(t *testing.T, exports ...export.Export) *export.Set {
	t.Helper()
	set, err := export.NewSet(exports)
	require.NoError(t, err)
	return set
}

func generate(t *testing.T, exports ...export.Export) string {
	t.Helper()
	out, err := New(testConfig).Generate(context.Background(), newSet(t, exports...))
	require.NoError(t, err)
	return string(out)
}

func generateErr(t *testing.T, exports ...export.Export) error {
	t.Helper()
	out, err := New(testConfig).Generate(context.Background(), newSet(t, exports...))
	require.Error(t, err)
	require.Nil(t, out, "a failed run must not produce output")
	return err
}

// block joins lines indented by depth levels, for matching whole C# blocks.
func block(depth int, lines ...string) string {
	prefix := strings.Repeat(indentUnit, depth)
	var b strings.Builder
	for _, l := range lines {
		if l != "" {
			b.WriteString(prefix)
			b.WriteString(l)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
