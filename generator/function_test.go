package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/schema"
)

func TestStringAndBoolInputs(t *testing.T) {
	out := generate(t,
		fn("shout", schema.Unit, in("text", schema.String), in("loud", schema.Bool)),
		fn("concat", schema.String, in("a", schema.Str), in("b", schema.String)),
	)

	assert.Contains(t, out, block(1,
		"public static void Shout(string text, bool loud)",
		"{",
		"    fixed (char* __fixed_text = text)",
		"    {",
		"        __bindings.gen_shout(new RawSlice(new IntPtr(__fixed_text), text.Length), (byte)(loud ? 1 : 0));",
		"    }",
		"}",
	))
	assert.Contains(t, out, block(1,
		"public static string Concat(string a, string b)",
		"{",
		"    string __ret;",
		"    fixed (char* __fixed_a = a)",
		"    fixed (char* __fixed_b = b)",
		"    {",
		"        var __raw_ret = __bindings.gen_concat(new RawSlice(new IntPtr(__fixed_a), a.Length), new RawSlice(new IntPtr(__fixed_b), b.Length));",
		"        __ret = Encoding.UTF8.GetString((byte*)__raw_ret.Ptr.ToPointer(), (int)__raw_ret.Length);",
		"        __bindings.__cs_bindgen_drop_string(__raw_ret);",
		"    }",
		"    return __ret;",
		"}",
	))
	assert.Contains(t, out, "    internal static extern void gen_shout(RawSlice text, byte loud);\n")
	assert.Contains(t, out, "    internal static extern RawVec gen_concat(RawSlice a, RawSlice b);\n")
}

func TestBorrowedStringOutput(t *testing.T) {
	out := generate(t, fn("name", schema.Str))

	assert.Contains(t, out, block(1,
		"public static string Name()",
		"{",
		"    string __ret;",
		"    var __raw_ret = __bindings.gen_name();",
		"    __ret = Encoding.UTF8.GetString((byte*)__raw_ret.Ptr.ToPointer(), (int)__raw_ret.Length);",
		"    return __ret;",
		"}",
	))
	assert.Contains(t, out, "    internal static extern RawSlice gen_name();\n")
	assert.NotContains(t, out, "__bindings.__cs_bindgen_drop_string(__raw_ret);", "borrowed text is not freed")
}

func TestPrimitiveSequenceOutput(t *testing.T) {
	out := generate(t,
		fn("numbers", &schema.Seq{Element: schema.I32}),
		fn("more_numbers", &schema.Seq{Element: schema.I32}),
		fn("flags", &schema.Seq{Element: schema.Bool}),
	)

	assert.Contains(t, out, block(1,
		"public static List<int> Numbers()",
		"{",
		"    List<int> __ret;",
		"    var __raw_ret = __bindings.gen_numbers();",
		"    __ret = __bindings.CopyRawVec<int>(__raw_ret);",
		"    __bindings.__cs_bindgen_drop_vec_i32(__raw_ret);",
		"    return __ret;",
		"}",
	))
	assert.Contains(t, out, "        __ret = __bindings.ConvertRawVec<bool, byte>(__raw_ret, __bindings.FromRaw);\n")
	assert.Contains(t, out, "        __bindings.__cs_bindgen_drop_vec_bool(__raw_ret);\n")

	// Primitive drop-vec entry points are declared once however many users.
	assert.Equal(t, 1, strings.Count(out, "internal static extern void __cs_bindgen_drop_vec_i32(RawVec vec);"))
	assert.Equal(t, 1, strings.Count(out, "internal static extern void __cs_bindgen_drop_vec_bool(RawVec vec);"))
	assert.NotContains(t, out, "__cs_bindgen_drop_vec_f64")
	assert.Less(t, strings.Index(out, "__cs_bindgen_drop_vec_bool(RawVec"), strings.Index(out, "__cs_bindgen_drop_vec_i32(RawVec"))
}

func TestNamedSequenceOutput(t *testing.T) {
	out := generate(t,
		value(pointSchema),
		counter(),
		fn("points", &schema.Seq{Element: pointSchema}),
		fn("counters", &schema.Seq{Element: counterSchema}),
	)

	assert.Contains(t, out, block(2,
		"__ret = __bindings.FromRawVec<Point, geo__Point_Raw>(__raw_ret, __bindings.__cs_bindgen_index__geo__Point, __bindings.FromRaw);",
		"__bindings.__cs_bindgen_drop_vec__geo__Point(__raw_ret);",
	))
	assert.Contains(t, out, block(2,
		"__ret = __bindings.FromRawVec<Counter, IntPtr>(__raw_ret, __bindings.__cs_bindgen_index__app__Counter, __bindings.FromRaw);",
		"__bindings.__cs_bindgen_drop_vec__app__Counter(__raw_ret);",
	))
	assert.Contains(t, out, "    public static List<Point> Points()\n")
}

func TestBorrowedSliceOutput(t *testing.T) {
	out := generate(t, fn("window", &schema.Slice{Element: schema.U8}))

	assert.Contains(t, out, "    public static List<byte> Window()\n")
	assert.Contains(t, out, "        __ret = __bindings.CopyRawVec<byte>(new RawVec(__raw_ret.Ptr, __raw_ret.Length, __raw_ret.Length));\n")
	assert.NotContains(t, out, "__cs_bindgen_drop_vec_u8", "a borrowed slice is never released")
}

func TestSliceInputs(t *testing.T) {
	out := generate(t,
		value(pointSchema),
		fn("sum", schema.I64, in("values", &schema.Slice{Element: schema.I32})),
		fn("centroid", pointSchema, in("points", &schema.Seq{Element: pointSchema})),
	)

	assert.Contains(t, out, block(1,
		"public static long Sum(int[] values)",
		"{",
		"    long __ret;",
		"    fixed (int* __fixed_values = values)",
		"    {",
		"        var __raw_ret = __bindings.gen_sum(new RawSlice(new IntPtr(__fixed_values), values.Length));",
		"        __ret = __raw_ret;",
		"    }",
		"    return __ret;",
		"}",
	))
	assert.Contains(t, out, block(1,
		"public static Point Centroid(Point[] points)",
		"{",
		"    var __raw_points = new geo__Point_Raw[points.Length];",
		"    for (var __i = 0; __i < points.Length; __i++)",
		"    {",
		"        __bindings.IntoRaw(points[__i], out __raw_points[__i]);",
		"    }",
		"    Point __ret;",
		"    fixed (geo__Point_Raw* __fixed_points = __raw_points)",
		"    {",
		"        var __raw_ret = __bindings.gen_centroid(new RawSlice(new IntPtr(__fixed_points), __raw_points.Length));",
		"        __bindings.FromRaw(__raw_ret, out __ret);",
		"    }",
		"    return __ret;",
		"}",
	))
	assert.Contains(t, out, "    internal static extern geo__Point_Raw gen_centroid(RawSlice points);\n")
}

func TestBoolSliceInput(t *testing.T) {
	out := generate(t, fn("count_set", schema.U32, in("bits", &schema.Slice{Element: schema.Bool})))

	assert.Contains(t, out, block(1,
		"public static uint CountSet(bool[] bits)",
		"{",
		"    var __raw_bits = new byte[bits.Length];",
		"    for (var __i = 0; __i < bits.Length; __i++)",
		"    {",
		"        __raw_bits[__i] = bits[__i] ? (byte)1 : (byte)0;",
		"    }",
	))
}

func TestNamedParameters(t *testing.T) {
	out := generate(t,
		value(colorSchema),
		counter(),
		fn("paint", schema.Unit, in("color", colorSchema)),
		fn("reset", schema.Unit, in("counter", counterSchema)),
		fn("pick", schema.Char, in("string", schema.I32)),
	)

	assert.Contains(t, out, block(1,
		"public static void Paint(Color color)",
		"{",
		"    __bindings.IntoRaw(color, out IntPtr __raw_color);",
		"    __bindings.gen_paint(__raw_color);",
		"}",
	))
	assert.Contains(t, out, "        __bindings.gen_reset(counter._handle);\n")
	assert.Contains(t, out, "    internal static extern void gen_reset(IntPtr counter);\n")

	assert.Contains(t, out, "    public static uint Pick(int @string)\n")
	assert.Contains(t, out, "        var __raw_ret = __bindings.gen_pick(@string);\n")
	assert.Contains(t, out, "    internal static extern uint gen_pick(int @string);\n")
}

func TestKeywordTextParameter(t *testing.T) {
	out := generate(t, fn("log", schema.Unit, in("string", schema.String)))

	assert.Contains(t, out, "        fixed (char* __fixed_string = @string)\n")
	assert.Contains(t, out, "__bindings.gen_log(new RawSlice(new IntPtr(__fixed_string), @string.Length));")
}

func TestUnnamedParameters(t *testing.T) {
	out := generate(t, fn("add", schema.I32, in("", schema.I32), in("_", schema.I32)))

	assert.Contains(t, out, "    public static int Add(int arg0, int arg1)\n")
}

func TestSliceNestedInRecordIsRejected(t *testing.T) {
	bag := &schema.Struct{Name: geo("Bag"), Fields: []schema.Field{{Name: "items", Schema: &schema.Slice{Element: schema.I32}}}}
	err := generateErr(t, value(bag))
	assert.Equal(t, errors.KindUnsupported, errors.KindOf(err), "got %v", err)
}

func TestExternIdent(t *testing.T) {
	assert.Equal(t, "gen_greet", externIdent("gen_greet"))
	assert.Equal(t, "_1abc", externIdent("1abc"))
	assert.Equal(t, "a_b_c", externIdent("a.b-c"))
}

func TestDiscLiteral(t *testing.T) {
	assert.Equal(t, "unchecked((int)(-2L))", discLiteral(schema.KindI32, -2))
	assert.Equal(t, "unchecked((IntPtr)(7L))", discLiteral(schema.KindISize, 7))
	assert.Equal(t, "unchecked((ulong)18446744073709551615UL)", discLiteral(schema.KindU64, -1))
}

func TestCSString(t *testing.T) {
	assert.Equal(t, `"plain"`, csString("plain"))
	assert.Equal(t, `"a\"b\\c"`, csString(`a"b\c`))
}
