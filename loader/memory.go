package loader

import (
	"github.com/tetratelabs/wazero/api"

	csbindgen "github.com/wippyai/cs-bindgen"
	"github.com/wippyai/cs-bindgen/errors"
)

// wasmMemory is the read-only view the loader takes of guest memory while the
// declaration entry points run. Every read returns a copy, so no view of
// guest memory outlives the call that produced it.
type wasmMemory struct {
	mem api.Memory
}

func (m *wasmMemory) Read(offset uint32, length uint32) ([]byte, error) {
	view, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseDecode, offset, length)
	}
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

func (m *wasmMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

var _ csbindgen.MemorySizer = (*wasmMemory)(nil)
