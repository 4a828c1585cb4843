package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // reading and compiling the module
	PhaseStructure Phase = "structure" // export surface checks
	PhaseExecute   Phase = "execute"   // calling declaration entry points
	PhaseDecode    Phase = "decode"    // declaration blob decoding
	PhaseABI       Phase = "abi"       // raw representation mapping and conversion
	PhaseGenerate  Phase = "generate"  // glue emission
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseWrite     Phase = "write"     // output persistence
)

// Kind categorizes the error
type Kind string

const (
	KindModuleLoad      Kind = "module_load"
	KindModuleStructure Kind = "module_structure"
	KindInstantiation   Kind = "instantiation"
	KindExecutionTrap   Kind = "execution_trap"
	KindDecoding        Kind = "decoding"
	KindGeneration      Kind = "generation"
	KindUnsupported     Kind = "unsupported"
	KindNameCollision   Kind = "name_collision"
	KindOwnership       Kind = "ownership"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindTypeMismatch    Kind = "type_mismatch"
	KindInvalidInput    Kind = "invalid_input"
	KindNotFound        Kind = "not_found"
	KindIO              Kind = "io"
)

// Error is the structured error type used throughout the generator
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Export string
	Type   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Export != "" {
		b.WriteString(" in ")
		b.WriteString(e.Export)
	}

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// WithExport returns a copy of e attributed to the given export identifier.
// An identifier already present is kept.
func (e *Error) WithExport(id string) *Error {
	if e.Export != "" {
		return e
	}
	c := *e
	c.Export = id
	return &c
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Export sets the identifier of the export the error belongs to
func (b *Builder) Export(id string) *Builder {
	b.err.Export = id
	return b
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the offending type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the failure taxonomy

// ModuleLoad creates an error for an unreadable or invalid module binary
func ModuleLoad(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindModuleLoad,
		Detail: detail,
		Cause:  cause,
	}
}

// ModuleStructure creates an error for a module whose exports break the declaration protocol
func ModuleStructure(export, detail string) *Error {
	return &Error{
		Phase:  PhaseStructure,
		Kind:   KindModuleStructure,
		Export: export,
		Detail: detail,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// ExecutionTrap creates an error for a declaration entry point that trapped
func ExecutionTrap(export, symbol string, cause error) *Error {
	return &Error{
		Phase:  PhaseExecute,
		Kind:   KindExecutionTrap,
		Export: export,
		Detail: fmt.Sprintf("call %s", symbol),
		Cause:  cause,
	}
}

// Decoding creates an error for a declaration blob that cannot be decoded
func Decoding(export, detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindDecoding,
		Export: export,
		Detail: detail,
		Cause:  cause,
	}
}

// InvalidUTF8 creates a decoding error for a blob that is not valid UTF-8
func InvalidUTF8(export string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindDecoding,
		Export: export,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// Generation creates an error for an export the generator cannot express
func Generation(export, detail string) *Error {
	return &Error{
		Phase:  PhaseGenerate,
		Kind:   KindGeneration,
		Export: export,
		Detail: detail,
	}
}

// Unsupported creates an error for a schema shape with no raw representation
func Unsupported(phase Phase, typ, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Type:   typ,
		Detail: what,
	}
}

// NameCollision creates an error for two exports claiming the same identity
func NameCollision(phase Phase, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNameCollision,
		Detail: fmt.Sprintf("%q declared more than once", name),
		Value:  name,
	}
}

// Ownership creates an error for a violated ownership transfer
func Ownership(detail string, ptr uint32) *Error {
	return &Error{
		Phase:  PhaseABI,
		Kind:   KindOwnership,
		Detail: detail,
		Value:  ptr,
	}
}

// OutOfBounds creates an out of bounds memory access error
func OutOfBounds(phase Phase, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%d, +%d) out of bounds", offset, length),
		Value:  offset,
	}
}

// TypeMismatch creates an error for a natural value that does not match its schema
func TypeMismatch(path []string, want string, got any) *Error {
	return &Error{
		Phase:  PhaseABI,
		Kind:   KindTypeMismatch,
		Path:   path,
		Type:   want,
		Detail: fmt.Sprintf("got %T", got),
		Value:  got,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Attribute tags err with the export identifier when err is an *Error.
// Plain errors are wrapped as generation failures of that export.
func Attribute(err error, export string) error {
	switch e := err.(type) {
	case nil:
		return nil
	case *Error:
		return e.WithExport(export)
	}
	if KindOf(err) != "" {
		return err
	}
	return &Error{
		Phase:  PhaseGenerate,
		Kind:   KindGeneration,
		Export: export,
		Detail: err.Error(),
		Cause:  err,
	}
}

// IsModuleLoad reports whether err is a module load failure
func IsModuleLoad(err error) bool { return KindOf(err) == KindModuleLoad }

// IsModuleStructure reports whether err is a module structure failure
func IsModuleStructure(err error) bool { return KindOf(err) == KindModuleStructure }

// IsExecutionTrap reports whether err is a trap raised by a declaration entry point
func IsExecutionTrap(err error) bool { return KindOf(err) == KindExecutionTrap }

// IsDecoding reports whether err is a blob decoding failure
func IsDecoding(err error) bool { return KindOf(err) == KindDecoding }

// IsGeneration reports whether err is a generation failure
func IsGeneration(err error) bool {
	k := KindOf(err)
	return k == KindGeneration || k == KindUnsupported || k == KindNameCollision
}
