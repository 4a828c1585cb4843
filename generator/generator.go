package generator

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/naming"
	"github.com/wippyai/cs-bindgen/schema"
)

// Config controls the shape of the generated C# source.
type Config struct {
	// Namespace is emitted as a file-scoped namespace. Empty means the global namespace.
	Namespace string
	// ClassName holds the wrappers of free functions. Defaults to the
	// PascalCase form of Library.
	ClassName string
	// Library is the native library name used in every DllImport.
	Library string
	// Convention names the support entry points.
	Convention naming.Convention
	// Header is prepended as line comments, e.g. a license notice.
	Header string
	// Workers bounds concurrent fragment rendering. Zero uses GOMAXPROCS.
	Workers int
}

// Generator turns a declaration set into one C# source file.
type Generator struct {
	cfg Config
}

// New creates a generator. Missing convention prefixes take their defaults.
func New(cfg Config) *Generator {
	cfg.Convention = cfg.Convention.WithDefaults()
	if cfg.ClassName == "" {
		cfg.ClassName = naming.Pascal(cfg.Library)
	}
	if cfg.ClassName == "" {
		cfg.ClassName = "Bindings"
	}
	cfg.ClassName = naming.CSharpIdent(cfg.ClassName)
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Generator{cfg: cfg}
}

// Config returns the effective configuration.
func (g *Generator) Config() Config {
	return g.cfg
}

// fragment is the rendered output of one Named or Fn export. Methods render
// inside the fragment of their self type.
type fragment struct {
	id      string
	types   *writer
	members *writer
	raw     *writer
	externs []string
	prims   map[schema.Kind]bool
	// wrapper is the member a free function adds to the bindings class.
	wrapper *overload
}

func newFragment(id string) *fragment {
	return &fragment{
		id:      id,
		types:   newWriter(0),
		members: newWriter(1),
		raw:     newWriter(1),
		prims:   make(map[schema.Kind]bool),
	}
}

func (f *fragment) usePrimitiveVec(k schema.Kind) {
	f.prims[k] = true
}

// rawMember returns the __bindings body writer, separated from what precedes it.
func (f *fragment) rawMember() *writer {
	if f.raw.len() > 0 {
		f.raw.blank()
	}
	return f.raw
}

// extern declares a raw entry point in __bindings.
func (f *fragment) extern(library, symbol, ret, params string) {
	f.externs = append(f.externs, externIdent(symbol))
	writeExtern(f.rawMember(), library, symbol, ret, params)
}

func writeExtern(w *writer, library, symbol, ret, params string) {
	w.line("[DllImport(%s, EntryPoint = %s, CallingConvention = CallingConvention.Cdecl)]", csString(library), csString(symbol))
	w.line("internal static extern %s %s(%s);", ret, externIdent(symbol), params)
}

// Generate renders the C# bindings for set. The output depends only on set and
// the configuration; any export without a C# form fails the whole run.
func (g *Generator) Generate(ctx context.Context, set *export.Set) ([]byte, error) {
	if set == nil {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "nil declaration set")
	}
	if g.cfg.Library == "" {
		return nil, errors.InvalidInput(errors.PhaseGenerate, "library name is required")
	}

	start := time.Now()
	e, err := newEmitter(g.cfg, set)
	if err != nil {
		return nil, err
	}

	for _, m := range set.Methods() {
		if _, ok := set.Lookup(m.SelfType); !ok {
			return nil, errors.Generation(m.Identifier(), "self type "+m.SelfType.String()+" is not exported")
		}
	}

	named := set.Named()
	fns := set.Fns()
	slots := make([]*fragment, len(named)+len(fns))
	errs := make([]error, len(slots))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i, n := range named {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i], errs[i] = e.renderNamed(n)
			return nil
		})
	}
	for j, fn := range fns {
		i := len(named) + j
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i], errs[i] = e.renderFn(fn)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	// First failure in emission order, so the reported error is stable too.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out, err := e.assemble(slots, len(fns) > 0)
	if err != nil {
		return nil, err
	}

	Logger().Debug("generated bindings",
		zap.Int("types", len(named)),
		zap.Int("functions", len(fns)),
		zap.Int("methods", len(set.Methods())),
		zap.Int("bytes", len(out)),
		zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

func (e *emitter) renderFn(fn *export.Fn) (*fragment, error) {
	f := newFragment(fn.Identifier())
	sig, err := e.analyse(fnCallable(fn))
	if err != nil {
		return nil, err
	}
	if err := e.renderWrapper(f, f.members, sig); err != nil {
		return nil, err
	}
	if o, ok := sig.wrapperMember(); ok {
		f.wrapper = &o
	}
	e.renderExtern(f, sig)
	return f, nil
}

func (e *emitter) assemble(slots []*fragment, hasFns bool) ([]byte, error) {
	cfg := e.cfg
	conv := cfg.Convention

	owner := map[string]string{}
	claim := func(id, symbol string) error {
		if prev, dup := owner[symbol]; dup {
			return errors.New(errors.PhaseGenerate, errors.KindNameCollision).
				Export(id).
				Type(symbol).
				Detail("entry point already declared by %s", prev).
				Build()
		}
		owner[symbol] = id
		return nil
	}

	wrappers := newClassMembers(cfg.ClassName)
	prims := map[schema.Kind]bool{}
	for _, f := range slots {
		if f.wrapper != nil {
			if err := wrappers.method(f.id, *f.wrapper); err != nil {
				return nil, err
			}
		}
		for _, sym := range f.externs {
			if err := claim(f.id, sym); err != nil {
				return nil, err
			}
		}
		for k := range f.prims {
			prims[k] = true
		}
	}
	if err := claim("support", externIdent(conv.StringFree)); err != nil {
		return nil, err
	}
	kinds := make([]schema.Kind, 0, len(prims))
	for k := range prims {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		if err := claim("support", externIdent(conv.PrimitiveDropVec(k))); err != nil {
			return nil, err
		}
	}

	w := newWriter(0)
	if cfg.Header != "" {
		for _, line := range strings.Split(strings.TrimRight(cfg.Header, "\n"), "\n") {
			w.line("// %s", line)
		}
		w.blank()
	}
	w.line("// <auto-generated>")
	w.line("//     Generated by cs-bindgen. Do not edit.")
	w.line("// </auto-generated>")
	w.blank()
	w.line("using System;")
	w.line("using System.Collections.Generic;")
	w.line("using System.Runtime.InteropServices;")
	w.line("using System.Text;")
	w.blank()
	if cfg.Namespace != "" {
		w.line("namespace %s;", cfg.Namespace)
		w.blank()
	}

	if hasFns {
		w.open("public static unsafe partial class %s", cfg.ClassName)
		first := true
		for _, f := range slots {
			if f.members.len() == 0 {
				continue
			}
			if !first {
				w.blank()
			}
			first = false
			w.raw(f.members.String())
		}
		w.close()
		w.blank()
	}

	for _, f := range slots {
		if f.types.len() == 0 {
			continue
		}
		w.raw(f.types.String())
		w.blank()
	}

	w.open("internal static unsafe partial class %s", bindingsClass)
	writeSupportBindings(w, cfg.Library, conv.StringFree)
	for _, k := range kinds {
		w.blank()
		writeExtern(w, cfg.Library, conv.PrimitiveDropVec(k), "void", rawVecType+" vec")
	}
	for _, f := range slots {
		if f.raw.len() == 0 {
			continue
		}
		w.blank()
		w.raw(f.raw.String())
	}
	w.close()
	w.blank()
	writeSupportTypes(w)

	return []byte(w.String()), nil
}
