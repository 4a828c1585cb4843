package loader

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/cs-bindgen/errors"
)

const (
	memoryExport     = "memory"
	initializeExport = "_initialize"
	wasiModule       = "wasi_snapshot_preview1"
)

// declPair is the pair of entry points describing one declaration.
type declPair struct {
	id  string
	ptr string
	len string
}

func (l *Loader) runtimeConfig() wazero.RuntimeConfig {
	var cfg wazero.RuntimeConfig
	if l.opts.Engine == EngineCompiler {
		cfg = wazero.NewRuntimeConfigCompiler()
	} else {
		cfg = wazero.NewRuntimeConfigInterpreter()
	}
	if l.opts.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(l.opts.MemoryLimitPages)
	}
	return cfg.WithCloseOnContextDone(true)
}

// execute instantiates the module in a fresh runtime and calls every
// declaration pair in turn. Calls are strictly sequential and each byte range
// is copied out before the next call.
func (l *Loader) execute(ctx context.Context, wasm []byte) ([]Blob, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, l.runtimeConfig())
	defer func() {
		if err := rt.Close(ctx); err != nil {
			Logger().Warn("close runtime", zap.Error(err))
		}
	}()

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.ModuleLoad("compile module", err)
	}

	pairs, err := l.discover(compiled)
	if err != nil {
		return nil, err
	}

	if importsWASI(compiled) {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
			return nil, errors.Instantiation(fmt.Errorf("instantiate WASI: %w", err))
		}
	}

	// _start is never run; reactor modules get their _initialize.
	modConfig := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions(initializeExport)
	mod, err := rt.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	defer mod.Close(ctx)

	mem := mod.ExportedMemory(memoryExport)
	if mem == nil {
		return nil, errors.ModuleStructure("", "module does not export its memory")
	}
	view := &wasmMemory{mem: mem}

	blobs := make([]Blob, 0, len(pairs))
	for _, p := range pairs {
		ptr, err := callU32(ctx, mod, p.id, p.ptr)
		if err != nil {
			return nil, err
		}
		n, err := callU32(ctx, mod, p.id, p.len)
		if err != nil {
			return nil, err
		}

		data, err := view.Read(ptr, n)
		if err != nil {
			return nil, errors.Decoding(p.id,
				fmt.Sprintf("declaration range [%d, %d) exceeds memory of %d bytes", ptr, uint64(ptr)+uint64(n), view.Size()),
				err)
		}
		Logger().Debug("declaration extracted",
			zap.String("id", p.id),
			zap.Uint32("ptr", ptr),
			zap.Uint32("len", n))
		blobs = append(blobs, Blob{ID: p.id, Data: data})
	}
	return blobs, nil
}

// discover checks the export surface and returns the declaration pairs in
// symbol order.
func (l *Loader) discover(compiled wazero.CompiledModule) ([]declPair, error) {
	if _, ok := compiled.ExportedMemories()[memoryExport]; !ok {
		return nil, errors.ModuleStructure("", "module does not export its memory")
	}

	conv := l.opts.Convention
	funcs := compiled.ExportedFunctions()
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)

	var pairs []declPair
	for _, name := range names {
		id, ok := conv.IDFromDeclPtr(name)
		if !ok {
			continue
		}
		if err := checkDeclSignature(id, funcs[name]); err != nil {
			return nil, err
		}
		lenName := conv.DeclLen(id)
		lenDef, ok := funcs[lenName]
		if !ok {
			return nil, errors.ModuleStructure(id, fmt.Sprintf("missing paired entry point %s", lenName))
		}
		if err := checkDeclSignature(id, lenDef); err != nil {
			return nil, err
		}
		pairs = append(pairs, declPair{id: id, ptr: name, len: lenName})
	}

	// A length entry point without a pointer entry point is equally broken.
	for _, name := range names {
		if !strings.HasPrefix(name, conv.DeclLenPrefix) {
			continue
		}
		id := strings.TrimPrefix(name, conv.DeclLenPrefix)
		if _, ok := funcs[conv.DeclPtr(id)]; !ok {
			return nil, errors.ModuleStructure(id, fmt.Sprintf("missing paired entry point %s", conv.DeclPtr(id)))
		}
	}

	Logger().Debug("declaration entry points discovered", zap.Int("pairs", len(pairs)))
	return pairs, nil
}

func checkDeclSignature(id string, def api.FunctionDefinition) error {
	if n := len(def.ParamTypes()); n != 0 {
		return errors.ModuleStructure(id, fmt.Sprintf("%s takes %d parameters, want none", def.ExportNames()[0], n))
	}
	results := def.ResultTypes()
	if len(results) != 1 || (results[0] != api.ValueTypeI32 && results[0] != api.ValueTypeI64) {
		return errors.ModuleStructure(id, fmt.Sprintf("%s must return exactly one integer, returns %s",
			def.ExportNames()[0], valueTypeNames(results)))
	}
	return nil
}

func callU32(ctx context.Context, mod api.Module, id, symbol string) (uint32, error) {
	fn := mod.ExportedFunction(symbol)
	if fn == nil {
		return 0, errors.ModuleStructure(id, fmt.Sprintf("missing entry point %s", symbol))
	}
	results, err := fn.Call(ctx)
	if err != nil {
		return 0, errors.ExecutionTrap(id, symbol, err)
	}
	if len(results) != 1 {
		return 0, errors.ModuleStructure(id, fmt.Sprintf("%s returned %d values", symbol, len(results)))
	}
	v := results[0]
	if v > 0xFFFFFFFF {
		return 0, errors.Decoding(id, fmt.Sprintf("%s returned %d, beyond 32-bit memory", symbol, v), nil)
	}
	return uint32(v), nil
}

func importsWASI(compiled wazero.CompiledModule) bool {
	for _, def := range compiled.ImportedFunctions() {
		if mod, _, ok := def.Import(); ok && mod == wasiModule {
			return true
		}
	}
	return false
}

func valueTypeNames(types []api.ValueType) string {
	if len(types) == 0 {
		return "nothing"
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = api.ValueTypeName(t)
	}
	return strings.Join(names, ", ")
}
