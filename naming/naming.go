package naming

import (
	"strings"

	"github.com/wippyai/cs-bindgen/schema"
)

// Default symbol prefixes shared with the instrumentation side.
const (
	DefaultDeclPtrPrefix          = "__cs_bindgen_decl_ptr__"
	DefaultDeclLenPrefix          = "__cs_bindgen_decl_len__"
	DefaultDropPrefix             = "__cs_bindgen_drop__"
	DefaultIndexPrefix            = "__cs_bindgen_index__"
	DefaultDropVecPrefix          = "__cs_bindgen_drop_vec__"
	DefaultPrimitiveDropVecPrefix = "__cs_bindgen_drop_vec_"
	DefaultStringFree             = "__cs_bindgen_drop_string"
)

// Convention holds every symbol naming rule used on both sides of the boundary.
// The zero value is not usable; start from DefaultConvention.
type Convention struct {
	DeclPtrPrefix          string `yaml:"decl_ptr_prefix" toml:"decl_ptr_prefix"`
	DeclLenPrefix          string `yaml:"decl_len_prefix" toml:"decl_len_prefix"`
	DropPrefix             string `yaml:"drop_prefix" toml:"drop_prefix"`
	IndexPrefix            string `yaml:"index_prefix" toml:"index_prefix"`
	DropVecPrefix          string `yaml:"drop_vec_prefix" toml:"drop_vec_prefix"`
	PrimitiveDropVecPrefix string `yaml:"primitive_drop_vec_prefix" toml:"primitive_drop_vec_prefix"`
	StringFree             string `yaml:"string_free" toml:"string_free"`
}

// DefaultConvention returns the standard symbol convention.
func DefaultConvention() Convention {
	return Convention{
		DeclPtrPrefix:          DefaultDeclPtrPrefix,
		DeclLenPrefix:          DefaultDeclLenPrefix,
		DropPrefix:             DefaultDropPrefix,
		IndexPrefix:            DefaultIndexPrefix,
		DropVecPrefix:          DefaultDropVecPrefix,
		PrimitiveDropVecPrefix: DefaultPrimitiveDropVecPrefix,
		StringFree:             DefaultStringFree,
	}
}

// WithDefaults fills every empty prefix of c from DefaultConvention.
func (c Convention) WithDefaults() Convention {
	d := DefaultConvention()
	if c.DeclPtrPrefix == "" {
		c.DeclPtrPrefix = d.DeclPtrPrefix
	}
	if c.DeclLenPrefix == "" {
		c.DeclLenPrefix = d.DeclLenPrefix
	}
	if c.DropPrefix == "" {
		c.DropPrefix = d.DropPrefix
	}
	if c.IndexPrefix == "" {
		c.IndexPrefix = d.IndexPrefix
	}
	if c.DropVecPrefix == "" {
		c.DropVecPrefix = d.DropVecPrefix
	}
	if c.PrimitiveDropVecPrefix == "" {
		c.PrimitiveDropVecPrefix = d.PrimitiveDropVecPrefix
	}
	if c.StringFree == "" {
		c.StringFree = d.StringFree
	}
	return c
}

// DeclPtr returns the entry point yielding the address of the blob for id.
func (c Convention) DeclPtr(id string) string {
	return c.DeclPtrPrefix + id
}

// DeclLen returns the entry point yielding the length of the blob for id.
func (c Convention) DeclLen(id string) string {
	return c.DeclLenPrefix + id
}

// IDFromDeclPtr extracts the export identifier from a pointer entry point name.
func (c Convention) IDFromDeclPtr(symbol string) (string, bool) {
	if !strings.HasPrefix(symbol, c.DeclPtrPrefix) {
		return "", false
	}
	id := symbol[len(c.DeclPtrPrefix):]
	return id, id != ""
}

// Drop returns the entry point releasing one handle of type tn.
func (c Convention) Drop(tn schema.TypeName) string {
	return c.DropPrefix + Mangle(tn)
}

// Index returns the entry point reading one element of a raw sequence of tn.
func (c Convention) Index(tn schema.TypeName) string {
	return c.IndexPrefix + Mangle(tn)
}

// DropVec returns the entry point releasing a raw sequence of tn.
func (c Convention) DropVec(tn schema.TypeName) string {
	return c.DropVecPrefix + Mangle(tn)
}

// PrimitiveDropVec returns the entry point releasing a raw sequence of a
// primitive kind, e.g. __cs_bindgen_drop_vec_i32.
func (c Convention) PrimitiveDropVec(k schema.Kind) string {
	return c.PrimitiveDropVecPrefix + strings.ToLower(k.String())
}

// Mangle flattens a full type identity into a symbol-safe name. The module path
// is part of the result so equal local names in different modules never share
// a symbol.
func Mangle(tn schema.TypeName) string {
	if tn.Module == "" {
		return sanitize(tn.Name)
	}
	return sanitize(tn.Module) + "__" + sanitize(tn.Name)
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "::", "_")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isIdentRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
