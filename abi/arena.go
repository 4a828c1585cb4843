package abi

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/wippyai/cs-bindgen/errors"
)

type block struct {
	size  uint32
	align uint32
}

// Arena is an in-process linear memory with a bump allocator. Freed blocks are
// never reused, so a second free or a read of freed memory is always detected
// and reported as an ownership error.
type Arena struct {
	mu    sync.Mutex
	data  []byte
	next  uint32
	live  map[uint32]block
	freed map[uint32]block
}

// arenaBase keeps address zero free to act as the null pointer.
const arenaBase = 16

// NewArena creates an arena with the given initial capacity in bytes.
func NewArena(capacity uint32) *Arena {
	if capacity < arenaBase {
		capacity = arenaBase
	}
	return &Arena{
		data:  make([]byte, capacity),
		next:  arenaBase,
		live:  make(map[uint32]block),
		freed: make(map[uint32]block),
	}
}

// Alloc reserves size bytes aligned to align.
func (a *Arena) Alloc(size, align uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if align == 0 {
		align = 1
	}
	if size == 0 {
		size = 1
	}
	ptr := AlignTo(a.next, align)
	end := uint64(ptr) + uint64(size)
	if end > 1<<32-1 {
		return 0, errors.New(errors.PhaseABI, errors.KindOutOfBounds).
			Detail("failed to allocate %d bytes (align %d)", size, align).
			Build()
	}
	for uint64(len(a.data)) < end {
		a.data = append(a.data, make([]byte, len(a.data))...)
	}
	a.next = uint32(end)
	a.live[ptr] = block{size: size, align: align}
	return ptr, nil
}

// Free releases a block returned by Alloc.
func (a *Arena) Free(ptr, size, align uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	b, ok := a.live[ptr]
	if !ok {
		if _, wasFreed := a.freed[ptr]; wasFreed {
			return errors.Ownership("double free", ptr)
		}
		return errors.Ownership("free of a pointer that was never allocated", ptr)
	}
	delete(a.live, ptr)
	a.freed[ptr] = b
	return nil
}

// Live returns the number of blocks allocated and not yet freed.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// LivePointers returns the addresses of all live blocks in ascending order.
func (a *Arena) LivePointers() []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]uint32, 0, len(a.live))
	for p := range a.live {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Size returns the current size of the arena in bytes.
func (a *Arena) Size() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint32(len(a.data))
}

func (a *Arena) check(offset, length uint32) error {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(a.data)) {
		return errors.OutOfBounds(errors.PhaseABI, offset, length)
	}
	if length == 0 {
		return nil
	}
	for p, b := range a.freed {
		if uint64(p) < end && uint64(offset) < uint64(p)+uint64(b.size) {
			return errors.Ownership("use after free", p)
		}
	}
	return nil
}

func (a *Arena) Read(offset, length uint32) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, a.data[offset:offset+length])
	return out, nil
}

func (a *Arena) Write(offset uint32, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.check(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(a.data[offset:], data)
	return nil
}

func (a *Arena) ReadU8(offset uint32) (uint8, error) {
	b, err := a.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (a *Arena) ReadU16(offset uint32) (uint16, error) {
	b, err := a.Read(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (a *Arena) ReadU32(offset uint32) (uint32, error) {
	b, err := a.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (a *Arena) ReadU64(offset uint32) (uint64, error) {
	b, err := a.Read(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (a *Arena) WriteU8(offset uint32, value uint8) error {
	return a.Write(offset, []byte{value})
}

func (a *Arena) WriteU16(offset uint32, value uint16) error {
	return a.Write(offset, binary.LittleEndian.AppendUint16(nil, value))
}

func (a *Arena) WriteU32(offset uint32, value uint32) error {
	return a.Write(offset, binary.LittleEndian.AppendUint32(nil, value))
}

func (a *Arena) WriteU64(offset uint32, value uint64) error {
	return a.Write(offset, binary.LittleEndian.AppendUint64(nil, value))
}
