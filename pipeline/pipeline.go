// Package pipeline runs the load, generate and write steps end to end.
//
// Every run starts from scratch: a fresh loader instance, a fresh generator
// and no state carried over from earlier runs. Output files are replaced
// atomically, so a failed run leaves any previous output untouched.
package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/generator"
	"github.com/wippyai/cs-bindgen/loader"
	"github.com/wippyai/cs-bindgen/witgen"
)

// Options configures a run.
type Options struct {
	// Module is the path of the compiled wasm module.
	Module string
	// Output is the destination file. When empty the result goes to Stdout.
	Output    string
	Stdout    io.Writer
	Loader    []loader.Option
	Generator generator.Config
}

// Result summarizes a completed run.
type Result struct {
	Output    string
	Exports   int
	Types     int
	Functions int
	Methods   int
	Bytes     int
	Elapsed   time.Duration
}

// Load reads the module named by opts and recovers its declarations.
func Load(ctx context.Context, opts Options) (*export.Set, error) {
	if opts.Module == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "module path is required")
	}
	return loader.New(opts.Loader...).LoadFile(ctx, opts.Module)
}

// Run loads the module, generates the bindings and writes them out.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	set, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}

	gcfg := opts.Generator
	if gcfg.Library == "" {
		gcfg.Library = libraryName(opts.Module)
	}
	src, err := generator.New(gcfg).Generate(ctx, set)
	if err != nil {
		return nil, err
	}

	if err := emit(opts, src); err != nil {
		return nil, err
	}

	res := &Result{
		Output:    opts.Output,
		Exports:   set.Len(),
		Types:     len(set.Named()),
		Functions: len(set.Fns()),
		Methods:   len(set.Methods()),
		Bytes:     len(src),
		Elapsed:   time.Since(start),
	}
	Logger().Info("bindings generated",
		zap.String("module", opts.Module),
		zap.String("output", displayOutput(opts.Output)),
		zap.Int("exports", res.Exports),
		zap.Int("bytes", res.Bytes),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// WIT loads the module and renders its declarations as a WIT interface.
func WIT(ctx context.Context, opts Options, iface string) (string, error) {
	set, err := Load(ctx, opts)
	if err != nil {
		return "", err
	}
	if iface == "" {
		iface = libraryName(opts.Module)
	}
	doc, err := witgen.Project(set, iface)
	if err != nil {
		return "", err
	}
	return doc.String(), nil
}

// EmbedResult summarizes an embed run.
type EmbedResult struct {
	Output       string
	Declarations int
	Bytes        int
}

// Embed executes the declaration entry points of the module once and writes
// a copy carrying the declarations in a custom section. Later loads of the
// copy read the section and never run module code.
func Embed(ctx context.Context, opts Options) (*EmbedResult, error) {
	if opts.Module == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "module path is required")
	}
	if opts.Output == "" {
		return nil, errors.InvalidInput(errors.PhaseWrite, "output path is required")
	}
	wasm, err := os.ReadFile(opts.Module)
	if err != nil {
		return nil, errors.ModuleLoad("read "+opts.Module, err)
	}

	out, n, err := loader.New(opts.Loader...).Embed(ctx, wasm)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(opts.Output, out); err != nil {
		return nil, err
	}
	Logger().Info("module embedded",
		zap.String("module", opts.Module),
		zap.String("output", opts.Output),
		zap.Int("declarations", n))
	return &EmbedResult{Output: opts.Output, Declarations: n, Bytes: len(out)}, nil
}

func emit(opts Options, src []byte) error {
	if opts.Output != "" {
		return writeFileAtomic(opts.Output, src)
	}
	w := opts.Stdout
	if w == nil {
		w = os.Stdout
	}
	if _, err := w.Write(src); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindIO, err, "write bindings")
	}
	return nil
}

// writeFileAtomic replaces path with data through a temporary file in the
// same directory.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindIO, err, "create "+dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindIO, err, "create temporary file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindIO, err, "write "+tmp.Name())
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindIO, err, "sync "+tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindIO, err, "close "+tmp.Name())
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindIO, err, "chmod "+tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.PhaseWrite, errors.KindIO, err, "rename to "+path)
	}
	return nil
}

// libraryName is the native library name derived from the module file.
func libraryName(module string) string {
	base := filepath.Base(module)
	return base[:len(base)-len(filepath.Ext(base))]
}

func displayOutput(path string) string {
	if path == "" {
		return "<stdout>"
	}
	return path
}
