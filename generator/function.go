package generator

import (
	"fmt"
	"strings"

	"github.com/wippyai/cs-bindgen/abi"
	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/naming"
	"github.com/wippyai/cs-bindgen/schema"
)

// wrapperMode selects the shape of the generated wrapper member.
type wrapperMode uint8

const (
	modeStatic wrapperMode = iota
	modeInstance
	modeExtension
	modeConstructor
)

// callable is the common view of Fn and Method exports.
type callable struct {
	id       string
	name     string
	binding  string
	receiver *export.ReceiverStyle
	self     *export.Named
	inputs   []export.Param
	output   schema.Schema
}

func fnCallable(fn *export.Fn) callable {
	return callable{
		id:       fn.Identifier(),
		name:     fn.Name,
		binding:  fn.Binding,
		receiver: fn.Receiver,
		inputs:   fn.Inputs,
		output:   fn.Output,
	}
}

func methodCallable(m *export.Method, self *export.Named) callable {
	return callable{
		id:       m.Identifier(),
		name:     m.Name,
		binding:  m.Binding,
		receiver: m.Receiver,
		self:     self,
		inputs:   m.Inputs,
		output:   m.Output,
	}
}

type param struct {
	ident   string
	schema  schema.Schema
	repr    abi.Repr
	natural string
}

// receiverArg describes how the receiver reaches the raw call.
type receiverArg struct {
	raw      string
	arg      string
	prelude  []string
	epilogue []string
}

// signature is the analysed form of a callable, ready to render.
type signature struct {
	callable
	mode    wrapperMode
	params  []param
	ret     abi.Repr
	natRet  string
	recv    *receiverArg
	extType string
}

func (e *emitter) analyse(c callable) (*signature, error) {
	sig := &signature{callable: c}

	ret, err := e.proto.Map(c.output, abi.Output)
	if err != nil {
		return nil, errors.Attribute(err, c.id)
	}
	sig.ret = ret
	if sig.natRet, err = e.naturalType(c.output, abi.Output); err != nil {
		return nil, errors.Attribute(err, c.id)
	}

	sig.params = make([]param, len(c.inputs))
	for i, in := range c.inputs {
		r, err := e.proto.Map(in.Schema, abi.Input)
		if err != nil {
			return nil, errors.Attribute(err, c.id)
		}
		nat, err := e.naturalType(in.Schema, abi.Input)
		if err != nil {
			return nil, errors.Attribute(err, c.id)
		}
		sig.params[i] = param{ident: paramIdent(in.Name, i), schema: in.Schema, repr: r, natural: nat}
	}

	if c.self == nil {
		if c.receiver != nil {
			return nil, errors.Generation(c.id, "free function declares a receiver")
		}
		sig.mode = modeStatic
		return sig, nil
	}

	if c.receiver == nil {
		sig.mode = modeStatic
		return sig, nil
	}

	recv, mode, err := e.receiver(c)
	if err != nil {
		return nil, err
	}
	sig.recv = recv
	sig.mode = mode
	if mode == modeExtension {
		en := c.self.Schema.(*schema.Enum)
		if en.IsComplex() {
			sig.extType = e.interfaceName(c.self.TypeName)
		} else {
			sig.extType = e.typeName(c.self.TypeName)
		}
	}
	return sig, nil
}

func (e *emitter) receiver(c callable) (*receiverArg, wrapperMode, error) {
	self := c.self
	if self.Style == export.StyleHandle {
		name := e.typeName(self.TypeName)
		r := &receiverArg{
			raw: "IntPtr",
			arg: "_handle",
			prelude: []string{
				"if (_handle == IntPtr.Zero)",
				"{",
				indentUnit + fmt.Sprintf("throw new ObjectDisposedException(%s);", csString(name)),
				"}",
			},
		}
		if c.receiver.Consumes() {
			r.epilogue = []string{"_handle = IntPtr.Zero;"}
		}
		return r, modeInstance, nil
	}

	raw, err := e.proto.MapNamed(self, abi.Input)
	if err != nil {
		return nil, 0, errors.Attribute(err, c.id)
	}
	mode := modeInstance
	src := "this"
	if _, ok := self.Schema.(*schema.Enum); ok {
		mode = modeExtension
		src = "self"
	}
	return &receiverArg{
		raw:     rawType(raw),
		arg:     "__raw_self",
		prelude: []string{fmt.Sprintf("%s.IntoRaw(%s, out %s __raw_self);", bindingsClass, src, rawType(raw))},
	}, mode, nil
}

// wrapperMember returns the overload the wrapper declares. Constructors declare none.
func (s *signature) wrapperMember() (overload, bool) {
	if s.mode == modeConstructor {
		return overload{}, false
	}
	params := make([]string, 0, len(s.params)+1)
	if s.mode == modeExtension {
		params = append(params, s.extType)
	}
	for _, p := range s.params {
		params = append(params, p.natural)
	}
	return overload{name: wrapperName(s.name), params: params}, true
}

func wrapperName(name string) string {
	return naming.CSharpIdent(naming.Pascal(name))
}

// renderExtern writes the DllImport declaration of the raw entry point.
func (e *emitter) renderExtern(f *fragment, sig *signature) {
	args := make([]string, 0, len(sig.params)+1)
	if sig.recv != nil {
		args = append(args, sig.recv.raw+" self")
	}
	for _, p := range sig.params {
		args = append(args, rawType(p.repr)+" "+p.ident)
	}
	f.extern(e.cfg.Library, sig.binding, rawType(sig.ret), strings.Join(args, ", "))
}

// renderWrapper writes the natural-typed member wrapping the raw entry point.
func (e *emitter) renderWrapper(f *fragment, w *writer, sig *signature) error {
	decl := make([]string, 0, len(sig.params))
	for _, p := range sig.params {
		decl = append(decl, p.natural+" "+p.ident)
	}
	paramList := strings.Join(decl, ", ")
	name := wrapperName(sig.name)

	switch sig.mode {
	case modeStatic:
		w.open("public static %s %s(%s)", sig.natRet, name, paramList)
	case modeInstance:
		w.open("public %s %s(%s)", sig.natRet, name, paramList)
	case modeExtension:
		if paramList != "" {
			paramList = ", " + paramList
		}
		w.open("public static %s %s(this %s self%s)", sig.natRet, name, sig.extType, paramList)
	case modeConstructor:
		w.open("public %s(%s)", e.typeName(sig.self.TypeName), paramList)
	}

	var args, fixed []string
	if sig.recv != nil {
		w.lines(sig.recv.prelude)
		args = append(args, sig.recv.arg)
	}

	for _, p := range sig.params {
		arg, pre, pin, err := e.argument(p)
		if err != nil {
			return errors.Attribute(err, sig.id)
		}
		w.lines(pre)
		fixed = append(fixed, pin...)
		args = append(args, arg)
	}

	_, void := sig.ret.(abi.Void)
	returns := !void && sig.mode != modeConstructor
	if returns {
		w.line("%s __ret;", sig.natRet)
	}

	w.lines(fixed)
	if len(fixed) > 0 {
		w.openBrace()
	}

	call := fmt.Sprintf("%s.%s(%s)", bindingsClass, externIdent(sig.binding), strings.Join(args, ", "))
	switch {
	case sig.mode == modeConstructor:
		w.line("_handle = %s;", call)
	case void:
		w.line("%s;", call)
	default:
		w.line("var __raw_ret = %s;", call)
		stmts, err := e.fromRaw(f, sig.ret, sig.output, "__raw_ret", "__ret")
		if err != nil {
			return errors.Attribute(err, sig.id)
		}
		w.lines(stmts)
	}

	if len(fixed) > 0 {
		w.close()
	}
	if sig.recv != nil {
		w.lines(sig.recv.epilogue)
	}
	if returns {
		w.line("return __ret;")
	}
	w.close()
	return nil
}

// argument returns the raw call argument for p together with any statements
// preparing it and the fixed statements pinning its memory for the call.
func (e *emitter) argument(p param) (arg string, prelude, fixed []string, err error) {
	rawName := "__raw_" + strings.TrimPrefix(p.ident, "@")
	fixedName := "__fixed_" + strings.TrimPrefix(p.ident, "@")

	switch t := p.repr.(type) {
	case abi.Scalar:
		if t.Kind == schema.KindBool {
			return fmt.Sprintf("(byte)(%s ? 1 : 0)", p.ident), nil, nil, nil
		}
		return p.ident, nil, nil, nil
	case *abi.Handle:
		return p.ident + "._handle", nil, nil, nil
	case *abi.Discriminant, *abi.Record, *abi.TaggedUnion:
		pre := fmt.Sprintf("%s.IntoRaw(%s, out %s %s);", bindingsClass, p.ident, rawType(p.repr), rawName)
		return rawName, []string{pre}, nil, nil
	case *abi.BorrowedSlice:
		if t.Text {
			pin := fmt.Sprintf("fixed (char* %s = %s)", fixedName, p.ident)
			return fmt.Sprintf("new %s(new IntPtr(%s), %s.Length)", rawSliceType, fixedName, p.ident), nil, []string{pin}, nil
		}
		elemRaw := rawType(t.Elem)
		if isDirect(t.Elem) {
			pin := fmt.Sprintf("fixed (%s* %s = %s)", elemRaw, fixedName, p.ident)
			return fmt.Sprintf("new %s(new IntPtr(%s), %s.Length)", rawSliceType, fixedName, p.ident), nil, []string{pin}, nil
		}
		conv, err := intoRaw(t.Elem, p.ident+"[__i]", rawName+"[__i]")
		if err != nil {
			return "", nil, nil, err
		}
		pre := []string{
			fmt.Sprintf("var %s = new %s[%s.Length];", rawName, elemRaw, p.ident),
			fmt.Sprintf("for (var __i = 0; __i < %s.Length; __i++)", p.ident),
			"{",
		}
		for _, s := range conv {
			pre = append(pre, indentUnit+s)
		}
		pre = append(pre, "}")
		pin := fmt.Sprintf("fixed (%s* %s = %s)", elemRaw, fixedName, rawName)
		return fmt.Sprintf("new %s(new IntPtr(%s), %s.Length)", rawSliceType, fixedName, rawName), pre, []string{pin}, nil
	}
	return "", nil, nil, errors.Unsupported(errors.PhaseGenerate, p.repr.String(), "parameter has no raw argument form")
}
