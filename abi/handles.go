package abi

import (
	"sync"

	"github.com/wippyai/cs-bindgen/schema"
)

// Dropper is implemented by values that release resources when their handle is dropped.
type Dropper interface {
	Drop()
}

type handleEntry struct {
	typ   schema.TypeName
	value any
}

// HandleTable stands in for the library side of handle-style types: it keeps
// values behind opaque non-zero pointers until they are dropped.
// Pointer 0 is reserved and always invalid.
type HandleTable struct {
	mu      sync.RWMutex
	entries map[uint32]handleEntry
	next    uint32
	drops   int
	closed  bool
}

// NewHandleTable creates an empty table.
func NewHandleTable() *HandleTable {
	return &HandleTable{
		entries: make(map[uint32]handleEntry),
		next:    1,
	}
}

// Insert adds a value and returns its pointer, or 0 if the table is closed.
func (t *HandleTable) Insert(typ schema.TypeName, value any) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0
	}
	ptr := t.next
	t.next++
	t.entries[ptr] = handleEntry{typ: typ, value: value}
	return ptr
}

// Get retrieves a value by pointer.
func (t *HandleTable) Get(ptr uint32) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[ptr]
	return e.value, ok
}

// GetTyped retrieves a value only if it was inserted with the expected type.
func (t *HandleTable) GetTyped(ptr uint32, typ schema.TypeName) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[ptr]
	if !ok || e.typ != typ {
		return nil, false
	}
	return e.value, true
}

// Remove drops a value and returns (value, true) if found.
func (t *HandleTable) Remove(ptr uint32) (any, bool) {
	t.mu.Lock()
	e, ok := t.entries[ptr]
	if ok {
		delete(t.entries, ptr)
		t.drops++
	}
	t.mu.Unlock()
	if !ok {
		return nil, false
	}

	if d, ok := e.value.(Dropper); ok {
		d.Drop()
	}
	return e.value, true
}

// Drop is the drop entry point: it removes ptr and reports whether it was live.
func (t *HandleTable) Drop(ptr uint32) bool {
	_, ok := t.Remove(ptr)
	return ok
}

// Drops returns how many values have been dropped.
func (t *HandleTable) Drops() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.drops
}

// Len returns the number of live values.
func (t *HandleTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Clear drops all values.
func (t *HandleTable) Clear() {
	t.mu.RLock()
	ptrs := make([]uint32, 0, len(t.entries))
	for p := range t.entries {
		ptrs = append(ptrs, p)
	}
	t.mu.RUnlock()
	for _, p := range ptrs {
		t.Remove(p)
	}
}

// Close drops all values and stops accepting inserts.
func (t *HandleTable) Close() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.Clear()
	return nil
}

// OwnedHandle is the host-side owner of one handle. Dispose releases it through
// the drop entry point at most once.
type OwnedHandle struct {
	mu   sync.Mutex
	ptr  uint32
	typ  schema.TypeName
	drop func(uint32)
}

// NewOwnedHandle takes ownership of ptr.
func NewOwnedHandle(ptr uint32, typ schema.TypeName, drop func(uint32)) *OwnedHandle {
	return &OwnedHandle{ptr: ptr, typ: typ, drop: drop}
}

// Pointer returns the raw pointer, or 0 once disposed or consumed.
func (h *OwnedHandle) Pointer() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ptr
}

// Type returns the declared type of the handle.
func (h *OwnedHandle) Type() schema.TypeName {
	return h.typ
}

// Dispose invokes the drop entry point if the handle is still owned.
// Further calls do nothing.
func (h *OwnedHandle) Dispose() {
	h.mu.Lock()
	ptr := h.ptr
	h.ptr = 0
	h.mu.Unlock()
	if ptr != 0 && h.drop != nil {
		h.drop(ptr)
	}
}

// Consume gives up ownership without dropping, for calls that move the value
// back into the library. It returns the pointer being moved.
func (h *OwnedHandle) Consume() uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	ptr := h.ptr
	h.ptr = 0
	return ptr
}
