package export

import (
	"fmt"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/schema"
)

// Kind discriminates the three export shapes.
type Kind uint8

const (
	KindNamed Kind = iota
	KindFn
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindNamed:
		return "Named"
	case KindFn:
		return "Fn"
	case KindMethod:
		return "Method"
	default:
		return "unknown"
	}
}

// Export is one item a module declares for binding. The set of implementations
// is closed: *Fn, *Method and *Named.
type Export interface {
	// Identifier is the unique key of the export within a Set.
	Identifier() string
	ExportKind() Kind
	isExport()
}

// ReceiverStyle is how a method takes its receiver.
type ReceiverStyle uint8

const (
	ReceiverRef ReceiverStyle = iota
	ReceiverRefMut
	ReceiverValue
)

var receiverNames = [...]string{
	ReceiverRef:    "Ref",
	ReceiverRefMut: "RefMut",
	ReceiverValue:  "Value",
}

func (r ReceiverStyle) String() string {
	if int(r) < len(receiverNames) {
		return receiverNames[r]
	}
	return "unknown"
}

// Consumes reports whether calling with this receiver transfers ownership of the
// receiver into the module.
func (r ReceiverStyle) Consumes() bool {
	return r == ReceiverValue
}

// Receiver returns a pointer to r, for building optional receivers.
func Receiver(r ReceiverStyle) *ReceiverStyle {
	return &r
}

// BindingStyle selects how a named type is represented on the host side.
type BindingStyle uint8

const (
	// StyleValue copies the type field by field across the boundary.
	StyleValue BindingStyle = iota
	// StyleHandle keeps the type inside the module behind an opaque pointer.
	StyleHandle
)

func (b BindingStyle) String() string {
	switch b {
	case StyleValue:
		return "Value"
	case StyleHandle:
		return "Handle"
	default:
		return "unknown"
	}
}

// Param is a named input of a function or method.
type Param struct {
	Name   string
	Schema schema.Schema
}

// Fn is a free function.
type Fn struct {
	Name     string
	Binding  string
	Receiver *ReceiverStyle
	Inputs   []Param
	Output   schema.Schema
}

func (f *Fn) Identifier() string { return f.Name }
func (*Fn) ExportKind() Kind     { return KindFn }
func (*Fn) isExport()            {}

// Method is a function associated with a named self type.
type Method struct {
	Name     string
	Binding  string
	SelfType schema.TypeName
	Receiver *ReceiverStyle
	Inputs   []Param
	Output   schema.Schema
}

func (m *Method) Identifier() string { return m.SelfType.String() + "::" + m.Name }
func (*Method) ExportKind() Kind     { return KindMethod }
func (*Method) isExport()            {}

// IsConstructor reports whether m has no receiver and returns its own self type.
func (m *Method) IsConstructor() bool {
	if m.Receiver != nil {
		return false
	}
	tn, ok := schema.NameOf(m.Output)
	return ok && tn == m.SelfType
}

// Named is a named user type together with its binding style and the collection
// entry points generated for it.
type Named struct {
	TypeName  schema.TypeName
	Style     BindingStyle
	IndexFn   string
	DropVecFn string
	Schema    schema.Schema
}

func (n *Named) Identifier() string { return n.TypeName.String() }
func (*Named) ExportKind() Kind     { return KindNamed }
func (*Named) isExport()            {}

// Validate checks the internal consistency of n.
func (n *Named) Validate() error {
	if n.TypeName.Name == "" {
		return n.invalid("empty type name")
	}
	tn, ok := schema.NameOf(n.Schema)
	if !ok {
		return n.invalid(fmt.Sprintf("schema %v is not a named type", n.Schema))
	}
	if tn != n.TypeName {
		return n.invalid(fmt.Sprintf("schema names %s", tn))
	}
	if n.Style == StyleHandle {
		switch n.Schema.(type) {
		case *schema.Struct, *schema.UnitStruct, *schema.NewtypeStruct, *schema.TupleStruct:
		default:
			return n.invalid("handle style requires a struct-like type")
		}
	}
	return nil
}

func (n *Named) invalid(detail string) error {
	return errors.New(errors.PhaseDecode, errors.KindDecoding).
		Export(n.Identifier()).
		Detail("%s", detail).
		Build()
}
