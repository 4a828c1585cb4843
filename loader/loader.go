package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wippyai/cs-bindgen/errors"
	"github.com/wippyai/cs-bindgen/export"
	"github.com/wippyai/cs-bindgen/loader/internal/wasmbin"
)

// Blob is one serialized declaration recovered from a module.
type Blob struct {
	// ID is the export identifier the blob was found under. For blobs read from
	// the declaration section it is the position within the section.
	ID   string
	Data []byte
}

// Loader recovers declarations from compiled modules. A Loader holds no state
// between calls; every Load starts from a fresh runtime.
type Loader struct {
	opts Options
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.Convention = o.Convention.WithDefaults()
	if o.SectionName == "" {
		o.SectionName = DefaultSectionName
	}
	return &Loader{opts: o}
}

// Options returns the effective options.
func (l *Loader) Options() Options {
	return l.opts
}

// LoadFile reads a module from disk and loads its declarations.
func (l *Loader) LoadFile(ctx context.Context, path string) (*export.Set, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ModuleLoad(fmt.Sprintf("read %s", path), err)
	}
	return l.Load(ctx, wasm)
}

// Load recovers every declaration embedded in wasm. Either all declarations
// are returned or an error is; there is no partial result.
func (l *Loader) Load(ctx context.Context, wasm []byte) (*export.Set, error) {
	blobs, err := l.Blobs(ctx, wasm)
	if err != nil {
		return nil, err
	}

	exports := make([]export.Export, 0, len(blobs))
	for _, b := range blobs {
		e, err := Decode(b)
		if err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}

	set, err := export.NewSet(exports)
	if err != nil {
		return nil, err
	}
	Logger().Info("declarations loaded",
		zap.Int("exports", set.Len()),
		zap.Int("types", len(set.Named())),
		zap.Int("functions", len(set.Fns())),
		zap.Int("methods", len(set.Methods())))
	return set, nil
}

// Blobs recovers the raw declaration blobs without decoding them.
func (l *Loader) Blobs(ctx context.Context, wasm []byte) ([]Blob, error) {
	if err := wasmbin.CheckHeader(wasm); err != nil {
		return nil, errors.ModuleLoad("invalid module binary", err)
	}

	switch l.opts.Source {
	case SourceExecute:
		return l.execute(ctx, wasm)
	case SourceSection:
		blobs, found, err := l.section(wasm)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errors.ModuleStructure("", fmt.Sprintf("no %q custom section", l.opts.SectionName))
		}
		return blobs, nil
	default:
		blobs, found, err := l.section(wasm)
		if err != nil {
			return nil, err
		}
		if found {
			return blobs, nil
		}
		return l.execute(ctx, wasm)
	}
}

// Decode validates and parses one blob.
func Decode(b Blob) (export.Export, error) {
	if !utf8.Valid(b.Data) {
		return nil, errors.InvalidUTF8(b.ID, b.Data)
	}
	e, err := export.Unmarshal(b.Data)
	if err != nil {
		return nil, errors.Decoding(b.ID, "malformed declaration", err)
	}
	Logger().Debug("declaration decoded",
		zap.String("id", b.ID),
		zap.Stringer("kind", e.ExportKind()),
		zap.String("identifier", e.Identifier()))
	return e, nil
}

// SectionPayload encodes blobs as the payload of a declaration section.
func SectionPayload(blobs []Blob) ([]byte, error) {
	raws := make([]json.RawMessage, len(blobs))
	for i, b := range blobs {
		if !json.Valid(b.Data) {
			return nil, errors.Decoding(b.ID, "blob is not JSON", nil)
		}
		raws[i] = json.RawMessage(b.Data)
	}
	return json.Marshal(raws)
}

// Embed executes the declaration entry points of wasm and returns a copy of
// the module with the declarations appended as a custom section, along with
// the number of declarations embedded. Every blob is decoded first so a module
// with a malformed declaration is never rewritten.
func (l *Loader) Embed(ctx context.Context, wasm []byte) ([]byte, int, error) {
	if err := wasmbin.CheckHeader(wasm); err != nil {
		return nil, 0, errors.ModuleLoad("invalid module binary", err)
	}
	existing, err := wasmbin.CustomSections(wasm, l.opts.SectionName)
	if err != nil {
		return nil, 0, errors.ModuleLoad("invalid module binary", err)
	}
	if len(existing) > 0 {
		return nil, 0, errors.ModuleStructure("", fmt.Sprintf("module already carries a %q section", l.opts.SectionName))
	}

	blobs, err := l.execute(ctx, wasm)
	if err != nil {
		return nil, 0, err
	}
	exports := make([]export.Export, 0, len(blobs))
	for _, b := range blobs {
		e, err := Decode(b)
		if err != nil {
			return nil, 0, err
		}
		exports = append(exports, e)
	}
	if _, err := export.NewSet(exports); err != nil {
		return nil, 0, err
	}

	payload, err := SectionPayload(blobs)
	if err != nil {
		return nil, 0, err
	}
	out, err := wasmbin.AppendCustomSection(wasm, l.opts.SectionName, payload)
	if err != nil {
		return nil, 0, errors.ModuleLoad("invalid module binary", err)
	}
	Logger().Info("declarations embedded",
		zap.String("section", l.opts.SectionName),
		zap.Int("declarations", len(blobs)),
		zap.Int("bytes", len(payload)))
	return out, len(blobs), nil
}

func (l *Loader) section(wasm []byte) ([]Blob, bool, error) {
	payloads, err := wasmbin.CustomSections(wasm, l.opts.SectionName)
	if err != nil {
		return nil, false, errors.ModuleLoad("invalid module binary", err)
	}
	if len(payloads) == 0 {
		return nil, false, nil
	}

	var blobs []Blob
	for i, p := range payloads {
		if !utf8.Valid(p) {
			return nil, true, errors.InvalidUTF8(l.opts.SectionName, p)
		}
		var raws []json.RawMessage
		if err := json.Unmarshal(p, &raws); err != nil {
			return nil, true, errors.Decoding(l.opts.SectionName, fmt.Sprintf("section %d is not a JSON array", i), err)
		}
		for _, raw := range raws {
			blobs = append(blobs, Blob{
				ID:   fmt.Sprintf("%s[%d]", l.opts.SectionName, len(blobs)),
				Data: []byte(raw),
			})
		}
	}
	Logger().Debug("declarations read from custom section",
		zap.String("section", l.opts.SectionName),
		zap.Int("sections", len(payloads)),
		zap.Int("blobs", len(blobs)))
	return blobs, true, nil
}
