package loader

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/wippyai/cs-bindgen/loader/internal/wasmbin"
	"github.com/wippyai/cs-bindgen/naming"
)

// Type indices of the fixed type section written by buildTestModule.
const (
	wasmTypeFunc0To0 = iota
	wasmTypeFunc0ToI32
	wasmTypeFuncI32ToI32
	wasmTypeFunc0ToI64
	wasmTypeFuncI32To0
	wasmTypeFunc0ToI32I32
)

type wasmFunctionSpec struct {
	name      string
	typeIndex byte
	body      []byte
}

type dataSegment struct {
	offset uint32
	data   []byte
}

type testModule struct {
	memory     bool
	importWASI bool
	functions  []wasmFunctionSpec
	data       []dataSegment
	custom     map[string][]byte
}

func (m testModule) build() []byte {
	module := wasmbin.NewWriter()
	module.WriteBytes(wasmbin.Magic)
	module.WriteBytes(wasmbin.Version)

	module.Section(0x01, []byte{
		0x06,
		0x60, 0x00, 0x00, // () -> ()
		0x60, 0x00, 0x01, 0x7f, // () -> i32
		0x60, 0x01, 0x7f, 0x01, 0x7f, // (i32) -> i32
		0x60, 0x00, 0x01, 0x7e, // () -> i64
		0x60, 0x01, 0x7f, 0x00, // (i32) -> ()
		0x60, 0x00, 0x02, 0x7f, 0x7f, // () -> (i32, i32)
	})

	imported := uint32(0)
	if m.importWASI {
		w := wasmbin.NewWriter()
		w.WriteU32(1)
		w.WriteName("wasi_snapshot_preview1")
		w.WriteName("proc_exit")
		w.Byte(0x00)
		w.WriteU32(wasmTypeFuncI32To0)
		module.Section(0x02, w.Bytes())
		imported = 1
	}

	funcs := wasmbin.NewWriter()
	funcs.WriteU32(uint32(len(m.functions)))
	for _, fn := range m.functions {
		funcs.Byte(fn.typeIndex)
	}
	module.Section(0x03, funcs.Bytes())

	if m.memory {
		module.Section(0x05, []byte{0x01, 0x00, 0x01}) // one memory, min 1 page
	}

	exports := wasmbin.NewWriter()
	count := len(m.functions)
	if m.memory {
		count++
	}
	exports.WriteU32(uint32(count))
	if m.memory {
		exports.WriteName("memory")
		exports.Byte(0x02)
		exports.WriteU32(0)
	}
	for i, fn := range m.functions {
		exports.WriteName(fn.name)
		exports.Byte(0x00)
		exports.WriteU32(imported + uint32(i))
	}
	module.Section(0x07, exports.Bytes())

	code := wasmbin.NewWriter()
	code.WriteU32(uint32(len(m.functions)))
	for _, fn := range m.functions {
		code.WriteU32(uint32(len(fn.body)))
		code.WriteBytes(fn.body)
	}
	module.Section(0x0a, code.Bytes())

	if len(m.data) > 0 {
		data := wasmbin.NewWriter()
		data.WriteU32(uint32(len(m.data)))
		for _, seg := range m.data {
			data.Byte(0x00) // active, memory 0
			data.Byte(0x41) // i32.const
			data.WriteS32(int32(seg.offset))
			data.Byte(0x0b)
			data.WriteU32(uint32(len(seg.data)))
			data.WriteBytes(seg.data)
		}
		module.Section(0x0b, data.Bytes())
	}

	names := make([]string, 0, len(m.custom))
	for name := range m.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	out := module.Bytes()
	for _, name := range names {
		var err error
		out, err = wasmbin.AppendCustomSection(out, name, m.custom[name])
		if err != nil {
			panic(err)
		}
	}
	return out
}

func constI32(v uint32) []byte {
	w := wasmbin.NewWriter()
	w.Byte(0x00) // no locals
	w.Byte(0x41) // i32.const
	w.WriteS32(int32(v))
	w.Byte(0x0b)
	return w.Bytes()
}

func constI64(v int64) []byte {
	w := wasmbin.NewWriter()
	w.Byte(0x00)
	w.Byte(0x42) // i64.const
	// Small positive values share the signed LEB form of i32.
	w.WriteS32(int32(v))
	w.Byte(0x0b)
	return w.Bytes()
}

func constI32Pair(a, b uint32) []byte {
	w := wasmbin.NewWriter()
	w.Byte(0x00)
	w.Byte(0x41)
	w.WriteS32(int32(a))
	w.Byte(0x41)
	w.WriteS32(int32(b))
	w.Byte(0x0b)
	return w.Bytes()
}

var (
	unreachableBody = []byte{0x00, 0x00, 0x0b}
	emptyBody       = []byte{0x00, 0x0b}
	identityBody    = []byte{0x00, 0x20, 0x00, 0x0b} // local.get 0
)

// declModule lays the blobs out in a data segment and exports one
// decl ptr/len pair per id.
func declModule(blobs map[string]string) testModule {
	conv := naming.DefaultConvention()
	ids := make([]string, 0, len(blobs))
	for id := range blobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	m := testModule{memory: true}
	offset := uint32(1024)
	var data []byte
	for _, id := range ids {
		blob := blobs[id]
		m.functions = append(m.functions,
			wasmFunctionSpec{name: conv.DeclPtr(id), typeIndex: wasmTypeFunc0ToI32, body: constI32(offset + uint32(len(data)))},
			wasmFunctionSpec{name: conv.DeclLen(id), typeIndex: wasmTypeFunc0ToI32, body: constI32(uint32(len(blob)))},
		)
		data = append(data, blob...)
	}
	if len(data) > 0 {
		m.data = []dataSegment{{offset: offset, data: data}}
	}
	return m
}

func writeTempModule(t *testing.T, module []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.wasm")
	if err := os.WriteFile(path, module, 0o600); err != nil {
		t.Fatalf("failed to write test module: %v", err)
	}
	return path
}
