package abi

import (
	"fmt"
	"strings"

	"github.com/wippyai/cs-bindgen/schema"
)

// ReprKind discriminates raw representations.
type ReprKind uint8

const (
	ReprScalar ReprKind = iota
	ReprVoid
	ReprOwnedBuffer
	ReprBorrowedSlice
	ReprRecord
	ReprDiscriminant
	ReprTaggedUnion
	ReprHandle
)

var reprNames = [...]string{
	ReprScalar:        "scalar",
	ReprVoid:          "void",
	ReprOwnedBuffer:   "owned-buffer",
	ReprBorrowedSlice: "borrowed-slice",
	ReprRecord:        "record",
	ReprDiscriminant:  "discriminant",
	ReprTaggedUnion:   "tagged-union",
	ReprHandle:        "handle",
}

func (k ReprKind) String() string {
	if int(k) < len(reprNames) {
		return reprNames[k]
	}
	return "unknown"
}

// Repr is the C-compatible raw representation of a schema in one direction.
// The set of implementations is closed.
type Repr interface {
	ReprKind() ReprKind
	String() string
	isRepr()
}

// Scalar is a fixed- or pointer-width number. Bool travels as one byte and
// Char as a 32-bit code point; Kind keeps the source kind so conversions know
// which natural type to produce.
type Scalar struct {
	Kind schema.Kind
}

// Void is the absence of a value.
type Void struct{}

// OwnedBuffer is a (pointer, length, capacity) triple whose ownership moves to
// the receiver. Text buffers hold UTF-8.
type OwnedBuffer struct {
	Elem Repr
	Text bool
}

// BorrowedSlice is a (pointer, length) pair valid only for the duration of a
// call. Text slices hold UTF-8 (U8 elements) or UTF-16 (U16 elements).
type BorrowedSlice struct {
	Elem Repr
	Text bool
}

// Record is a parallel raw struct with fields in declaration order.
type Record struct {
	Name   string
	Type   schema.TypeName
	Fields []RecordField
}

// RecordField is one member of a Record.
type RecordField struct {
	Name string
	Repr Repr
}

// Discriminant is the raw form of a simple enum.
type Discriminant struct {
	Kind schema.Kind
	Enum *schema.Enum
}

// TaggedUnion is the raw form of a complex enum: a discriminant followed by an
// overlapping union of per-variant payload records. Unit variants contribute no
// member.
type TaggedUnion struct {
	Name    string
	Disc    schema.Kind
	Enum    *schema.Enum
	Members []UnionMember
}

// UnionMember is the payload record of one data-carrying variant.
type UnionMember struct {
	Variant string
	Index   int
	Payload *Record
}

// Handle is an opaque pointer to a value that stays inside the library.
type Handle struct {
	Type schema.TypeName
}

func (Scalar) ReprKind() ReprKind         { return ReprScalar }
func (Void) ReprKind() ReprKind           { return ReprVoid }
func (*OwnedBuffer) ReprKind() ReprKind   { return ReprOwnedBuffer }
func (*BorrowedSlice) ReprKind() ReprKind { return ReprBorrowedSlice }
func (*Record) ReprKind() ReprKind        { return ReprRecord }
func (*Discriminant) ReprKind() ReprKind  { return ReprDiscriminant }
func (*TaggedUnion) ReprKind() ReprKind   { return ReprTaggedUnion }
func (*Handle) ReprKind() ReprKind        { return ReprHandle }

func (Scalar) isRepr()         {}
func (Void) isRepr()           {}
func (*OwnedBuffer) isRepr()   {}
func (*BorrowedSlice) isRepr() {}
func (*Record) isRepr()        {}
func (*Discriminant) isRepr()  {}
func (*TaggedUnion) isRepr()   {}
func (*Handle) isRepr()        {}

func (s Scalar) String() string { return strings.ToLower(s.Kind.String()) }
func (Void) String() string     { return "void" }

func (b *OwnedBuffer) String() string {
	if b.Text {
		return "owned-utf8"
	}
	return fmt.Sprintf("owned<%s>", b.Elem)
}

func (b *BorrowedSlice) String() string {
	if b.Text {
		if s, ok := b.Elem.(Scalar); ok && s.Kind == schema.KindU16 {
			return "borrowed-utf16"
		}
		return "borrowed-utf8"
	}
	return fmt.Sprintf("borrowed<%s>", b.Elem)
}

func (r *Record) String() string       { return r.Name }
func (d *Discriminant) String() string { return fmt.Sprintf("discriminant<%s>", strings.ToLower(d.Kind.String())) }
func (u *TaggedUnion) String() string  { return u.Name }
func (h *Handle) String() string       { return fmt.Sprintf("handle<%s>", h.Type) }

// OwnsData reports whether r, or anything nested in it, carries an owned buffer.
func OwnsData(r Repr) bool {
	switch t := r.(type) {
	case *OwnedBuffer:
		return true
	case *Record:
		for _, f := range t.Fields {
			if OwnsData(f.Repr) {
				return true
			}
		}
	case *TaggedUnion:
		for _, m := range t.Members {
			if OwnsData(m.Payload) {
				return true
			}
		}
	}
	return false
}

// MemberFor returns the union member for the variant at index, if it carries data.
func (u *TaggedUnion) MemberFor(index int) (UnionMember, bool) {
	for _, m := range u.Members {
		if m.Index == index {
			return m, true
		}
	}
	return UnionMember{}, false
}
