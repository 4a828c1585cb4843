package naming

import (
	"testing"

	"github.com/wippyai/cs-bindgen/schema"
)

func TestDeclSymbols(t *testing.T) {
	c := DefaultConvention()

	if got := c.DeclPtr("greet"); got != "__cs_bindgen_decl_ptr__greet" {
		t.Errorf("DeclPtr = %q", got)
	}
	if got := c.DeclLen("greet"); got != "__cs_bindgen_decl_len__greet" {
		t.Errorf("DeclLen = %q", got)
	}

	tests := []struct {
		symbol string
		id     string
		ok     bool
	}{
		{"__cs_bindgen_decl_ptr__greet", "greet", true},
		{"__cs_bindgen_decl_ptr__", "", false},
		{"__cs_bindgen_decl_len__greet", "", false},
		{"memory", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			id, ok := c.IDFromDeclPtr(tt.symbol)
			if id != tt.id || ok != tt.ok {
				t.Errorf("IDFromDeclPtr(%q) = (%q, %v), want (%q, %v)", tt.symbol, id, ok, tt.id, tt.ok)
			}
		})
	}
}

func TestMangleUsesFullIdentity(t *testing.T) {
	a := schema.TypeName{Name: "Point", Module: "geo::shapes"}
	b := schema.TypeName{Name: "Point", Module: "draw"}

	if Mangle(a) == Mangle(b) {
		t.Fatalf("equal local names in different modules must mangle differently: %q", Mangle(a))
	}
	if got := Mangle(a); got != "geo_shapes__Point" {
		t.Errorf("Mangle = %q", got)
	}
	if got := Mangle(schema.TypeName{Name: "Bare"}); got != "Bare" {
		t.Errorf("Mangle without module = %q", got)
	}
	if got := Mangle(schema.TypeName{Name: "X", Module: "my-crate"}); got != "my_crate__X" {
		t.Errorf("Mangle with hyphen = %q", got)
	}

	c := DefaultConvention()
	if got := c.Drop(b); got != "__cs_bindgen_drop__draw__Point" {
		t.Errorf("Drop = %q", got)
	}
	if got := c.Index(b); got != "__cs_bindgen_index__draw__Point" {
		t.Errorf("Index = %q", got)
	}
	if got := c.DropVec(b); got != "__cs_bindgen_drop_vec__draw__Point" {
		t.Errorf("DropVec = %q", got)
	}
	if got := c.PrimitiveDropVec(schema.KindI32); got != "__cs_bindgen_drop_vec_i32" {
		t.Errorf("PrimitiveDropVec = %q", got)
	}
}

func TestWithDefaults(t *testing.T) {
	c := Convention{DeclPtrPrefix: "ptr_"}.WithDefaults()
	if c.DeclPtrPrefix != "ptr_" {
		t.Error("explicit prefix overwritten")
	}
	if c.StringFree != DefaultStringFree || c.DropPrefix != DefaultDropPrefix {
		t.Error("empty prefixes not defaulted")
	}
}

func TestCasing(t *testing.T) {
	tests := []struct {
		in     string
		pascal string
		camel  string
		kebab  string
		snake  string
	}{
		{"greet", "Greet", "greet", "greet", "greet"},
		{"greet_user", "GreetUser", "greetUser", "greet-user", "greet_user"},
		{"GreetUser", "GreetUser", "greetUser", "greet-user", "greet_user"},
		{"HTTPServer", "HTTPServer", "httpServer", "http-server", "http_server"},
		{"value2_x", "Value2X", "value2X", "value2-x", "value2_x"},
		{"_leading", "Leading", "leading", "leading", "leading"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Pascal(tt.in); got != tt.pascal {
				t.Errorf("Pascal = %q, want %q", got, tt.pascal)
			}
			if got := Camel(tt.in); got != tt.camel {
				t.Errorf("Camel = %q, want %q", got, tt.camel)
			}
			if got := Kebab(tt.in); got != tt.kebab {
				t.Errorf("Kebab = %q, want %q", got, tt.kebab)
			}
			if got := Snake(tt.in); got != tt.snake {
				t.Errorf("Snake = %q, want %q", got, tt.snake)
			}
		})
	}
}

func TestCSharpIdent(t *testing.T) {
	if CSharpIdent("string") != "@string" {
		t.Error("keyword not escaped")
	}
	if CSharpIdent("num") != "num" {
		t.Error("plain identifier changed")
	}
	if !IsCSharpKeyword("fixed") || IsCSharpKeyword("Fixed") {
		t.Error("IsCSharpKeyword wrong")
	}
}
