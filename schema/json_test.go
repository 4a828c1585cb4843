package schema

import (
	"strings"
	"testing"
)

func sampleSchemas() map[string]Schema {
	geo := "geo"
	repr := KindI32
	return map[string]Schema{
		"i32":    I32,
		"string": String,
		"str":    Str,
		"unit":   Unit,
		"struct": &Struct{
			Name:   TypeName{Name: "Point", Module: geo},
			Fields: []Field{{Name: "x", Schema: F64}, {Name: "y", Schema: F64}},
		},
		"unit_struct": &UnitStruct{Name: TypeName{Name: "Marker", Module: geo}},
		"newtype":     &NewtypeStruct{Name: TypeName{Name: "Meters", Module: geo}, Inner: F32},
		"tuple_struct": &TupleStruct{
			Name:     TypeName{Name: "Pair", Module: geo},
			Elements: []Schema{U8, &Seq{Element: I64}},
		},
		"simple_enum": &Enum{
			Name: TypeName{Name: "Color", Module: geo},
			Variants: []Variant{
				&UnitVariant{Name: "Red"},
				&UnitVariant{Name: "Green", Discriminant: Disc(-3)},
			},
			Repr: &repr,
		},
		"complex_enum": &Enum{
			Name: TypeName{Name: "Shape", Module: geo},
			Variants: []Variant{
				&UnitVariant{Name: "Empty"},
				&TupleVariant{Name: "Circle", Elements: []Schema{F64}},
				&StructVariant{Name: "Rect", Fields: []Field{{Name: "w", Schema: F64}, {Name: "h", Schema: F64}}},
			},
		},
		"option": &Option{Inner: String},
		"seq":    &Seq{Element: &Seq{Element: Bool}},
		"slice":  &Slice{Element: Char},
		"tuple":  &Tuple{Elements: []Schema{I8, U16}},
		"map":    &Map{Key: String, Value: USize},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	for name, s := range sampleSchemas() {
		t.Run(name, func(t *testing.T) {
			data, err := Marshal(s)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			back, err := Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal(%s): %v", data, err)
			}
			if !Equal(s, back) {
				t.Fatalf("round trip mismatch: %s", data)
			}
			again, err := Marshal(back)
			if err != nil {
				t.Fatalf("Marshal again: %v", err)
			}
			if string(again) != string(data) {
				t.Errorf("encoding not stable:\n%s\n%s", data, again)
			}
		})
	}
}

func TestJSONWireFormat(t *testing.T) {
	tests := []struct {
		name   string
		schema Schema
		want   string
	}{
		{"primitive", I32, `"I32"`},
		{"seq", &Seq{Element: U8}, `{"Seq":"U8"}`},
		{"option", &Option{Inner: String}, `{"Option":"String"}`},
		{"unit_struct", &UnitStruct{Name: TypeName{Name: "M", Module: "x"}}, `{"UnitStruct":{"name":{"name":"M","module":"x"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.schema)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("got %s, want %s", data, tt.want)
			}
		})
	}
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", ``, "empty input"},
		{"unknown primitive", `"I128"`, "unknown primitive"},
		{"composite tag as string", `"Struct"`, "unknown primitive"},
		{"unknown tag", `{"Pointer":"I32"}`, "unknown tag"},
		{"two keys", `{"Seq":"I32","Option":"I32"}`, "exactly one key"},
		{"bad repr", `{"Enum":{"name":{"name":"E","module":""},"variants":[],"repr":"F32"}}`, "invalid repr"},
		{"unknown field", `{"UnitStruct":{"name":{"name":"M","module":""},"extra":1}}`, "unknown field"},
		{"bad variant", `{"Enum":{"name":{"name":"E","module":""},"variants":[{"Newtype":{}}]}}`, "unknown variant tag"},
		{"not json", `{`, "schema"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestJSONAdapter(t *testing.T) {
	var j JSON
	if err := j.UnmarshalJSON([]byte(`{"Slice":"U8"}`)); err != nil {
		t.Fatal(err)
	}
	if !Equal(j.Schema, &Slice{Element: U8}) {
		t.Errorf("got %v", j.Schema)
	}
	data, err := j.MarshalJSON()
	if err != nil || string(data) != `{"Slice":"U8"}` {
		t.Errorf("MarshalJSON = %s, %v", data, err)
	}
}
